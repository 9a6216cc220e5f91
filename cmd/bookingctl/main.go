package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookingstack/service-reservation/internal/application"
	"github.com/bookingstack/service-reservation/internal/config"
	"github.com/bookingstack/service-reservation/internal/database"
	"github.com/bookingstack/service-reservation/internal/domain/booking"
	"github.com/bookingstack/service-reservation/internal/domain/car"
	"github.com/bookingstack/service-reservation/internal/domain/customer"
	"github.com/bookingstack/service-reservation/internal/domain/provider"
	"github.com/bookingstack/service-reservation/internal/events"
	"github.com/bookingstack/service-reservation/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// slotService is the part of a BookingService that does not depend on the owner
// category, so commands can work on either domain.
type slotService interface {
	Schema() booking.Schema
	FindSlot(ctx context.Context, id uint) (*booking.Slot, error)
	FindAvailable(ctx context.Context) ([]*booking.Slot, error)
	FindAvailableAt(ctx context.Context, fragment string) ([]*booking.Slot, error)
	FindAvailableBetween(ctx context.Context, from, to *time.Time) ([]*booking.Slot, error)
	FindReservedBy(ctx context.Context, c *customer.Customer) ([]*booking.Slot, error)
	ReserveByID(ctx context.Context, slotID uint, email string) (*booking.Slot, bool, error)
	CancelByID(ctx context.Context, slotID uint, email string) (*booking.Slot, bool, error)
	ReadCustomer(ctx context.Context, email string) (*customer.Customer, error)
}

// app holds everything a command needs. It is built before and torn down after
// every command except help.
type app struct {
	out     io.Writer
	envFile string

	cfg          *config.ServiceConfig
	log          *zap.Logger
	db           *gorm.DB
	publisher    events.Publisher
	appointments *application.BookingService[provider.ProviderType]
	carSharing   *application.BookingService[car.VehicleType]
}

func (a *app) start() error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	log, err := logger.NewNamed(cfg.AppEnv, "bookingctl")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.log = log

	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		return err
	}
	a.db = db

	a.publisher = events.NopPublisher{}
	if cfg.KafkaConfig.Enabled {
		a.publisher = events.NewKafkaPublisher(cfg.KafkaConfig.Brokers, log)
	}

	a.appointments = application.NewAppointmentService(database.NewSession(db), a.publisher, log)
	a.carSharing = application.NewCarSharingService(database.NewSession(db), a.publisher, log)
	return nil
}

func (a *app) stop() error {
	if a.appointments != nil {
		_ = a.appointments.Close()
	}
	if a.carSharing != nil {
		_ = a.carSharing.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("failed to close publisher", zap.Error(err))
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return nil
}

// service picks the booking domain named by the --domain flag.
func (a *app) service(domain string) (slotService, error) {
	switch domain {
	case "appointments", "appointment", "providers":
		return a.appointments, nil
	case "carsharing", "cars", "rides":
		return a.carSharing, nil
	default:
		return nil, fmt.Errorf("unknown domain %q (want appointments or carsharing)", domain)
	}
}

func (a *app) topic(domain string) (string, error) {
	svc, err := a.service(domain)
	if err != nil {
		return "", err
	}
	if svc.Schema().Name == car.Schema.Name {
		return events.TopicCarSharingEvents, nil
	}
	return events.TopicAppointmentEvents, nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "bookingctl",
		Short: "Manage providers, cars and their reservable slots",
		Long: `bookingctl works on the appointments (providers offering appointments) and
carsharing (cars offering rides) booking domains.

Configuration is read from BOOKING_* environment variables and an optional .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.start()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.stop()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "env file to load before reading the environment")

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newProvidersCmd(a),
		newCarsCmd(a),
		newCustomersCmd(a),
		newSlotsCmd(a),
		newReservationCmd(a, "reserve"),
		newReservationCmd(a, "cancel"),
		newWatchCmd(a),
	)
	return root
}
