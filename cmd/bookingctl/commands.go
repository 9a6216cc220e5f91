package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bookingstack/service-reservation/internal/application"
	"github.com/bookingstack/service-reservation/internal/domain/booking"
	"github.com/bookingstack/service-reservation/internal/domain/car"
	"github.com/bookingstack/service-reservation/internal/domain/customer"
	"github.com/bookingstack/service-reservation/internal/domain/provider"
	"github.com/bookingstack/service-reservation/internal/events"
	"github.com/bookingstack/service-reservation/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the customer, owner and slot tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := repository.AutoMigrate(a.db.WithContext(cmd.Context()), application.Schemas...); err != nil {
				return err
			}
			a.log.Info("database migration completed")
			fmt.Fprintln(a.out, "Migration completed.")
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo customers, providers and cars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return seed(cmd.Context(), a)
		},
	}
}

func seed(ctx context.Context, a *app) error {
	customers := [][3]string{
		{"anna.huber@example.com", "Huber", "Anna"},
		{"max.gruber@example.com", "Gruber", "Max"},
	}
	for _, c := range customers {
		cust, err := customer.NewCustomer(c[0], c[1], c[2])
		if err != nil {
			return err
		}
		if _, err := a.appointments.CreateCustomer(ctx, cust); err != nil {
			return err
		}
	}

	day := time.Now().UTC().AddDate(0, 0, 1)
	base := time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, time.UTC)

	providers := []struct {
		typ     provider.ProviderType
		address string
	}{
		{provider.TypeDoctor, "Herrengasse 23, 8010 Graz"},
		{provider.TypePharmacy, "Hauptplatz 1, 8430 Leibnitz"},
		{provider.TypeTestCenter, "Annenstrasse 10, 8020 Graz"},
	}
	for _, p := range providers {
		owner, err := provider.NewProvider(p.typ, p.address)
		if err != nil {
			return err
		}
		for h := 0; h < 4; h++ {
			appointment, err := provider.NewAppointment(base.Add(time.Duration(h) * time.Hour))
			if err != nil {
				return err
			}
			owner.AddSlot(appointment)
		}
		if _, err := a.appointments.CreateOwner(ctx, owner); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "provider %d: %s (%s), %d appointments\n", owner.ID(), owner.Location(), owner.Category(), len(owner.Slots()))
	}

	cars := []struct {
		typ      car.VehicleType
		location string
	}{
		{car.VehicleSmall, "Jakominiplatz, 8010 Graz"},
		{car.VehicleFamily, "Hauptplatz 1, 8430 Leibnitz"},
		{car.VehicleSUV, "Hauptbahnhof, 8020 Graz"},
	}
	for _, c := range cars {
		vehicle, err := car.NewCar(c.typ, c.location)
		if err != nil {
			return err
		}
		for d := 0; d < 3; d++ {
			ride, err := car.NewRide(base.AddDate(0, 0, d))
			if err != nil {
				return err
			}
			vehicle.AddSlot(ride)
		}
		if _, err := a.carSharing.CreateOwner(ctx, vehicle); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "car %d: %s (%s), %d rides\n", vehicle.ID(), vehicle.Location(), vehicle.Category(), len(vehicle.Slots()))
	}
	return nil
}

func newProvidersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers <type> <address-fragment>",
		Short: "List providers of a type whose address contains the fragment",
		Example: `  bookingctl providers DOCTOR graz
  bookingctl providers TEST_CENTER 8010`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := provider.ParseProviderType(strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			owners, err := a.appointments.FindOwners(cmd.Context(), typ, args[1])
			if err != nil {
				return err
			}
			return printOwners(a, owners)
		},
	}
}

func newCarsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "cars <vehicle-type> <location-fragment>",
		Short:   "List cars of a type whose location contains the fragment",
		Example: `  bookingctl cars FAMILY leibnitz`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := car.ParseVehicleType(strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			owners, err := a.carSharing.FindOwners(cmd.Context(), typ, args[1])
			if err != nil {
				return err
			}
			return printOwners(a, owners)
		},
	}
}

func printOwners[K booking.Category](a *app, owners []*booking.Owner[K]) error {
	if len(owners) == 0 {
		fmt.Fprintln(a.out, "No matches.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tLOCATION\tSLOTS\tAVAILABLE")
	for _, o := range owners {
		available := 0
		for _, s := range o.Slots() {
			if s.IsAvailable() {
				available++
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\n", o.ID(), o.Category(), o.Location(), len(o.Slots()), available)
	}
	return w.Flush()
}

func newCustomersCmd(a *app) *cobra.Command {
	var lastName, firstName string
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Search customers by name (case-insensitive, exact)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := a.appointments.FindCustomers(cmd.Context(), lastName, firstName)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Fprintln(a.out, "No matches.")
				return nil
			}
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tLAST NAME\tFIRST NAME")
			for _, c := range found {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Email(), c.LastName(), c.FirstName())
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&lastName, "last", "", "last name")
	cmd.Flags().StringVar(&firstName, "first", "", "first name")
	return cmd
}

func newSlotsCmd(a *app) *cobra.Command {
	var domain, at, from, to, reservedBy string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List available slots, or the slots reserved by a customer",
		Example: `  bookingctl slots --domain appointments --at graz
  bookingctl slots --domain carsharing --from 2021-11-01 --to 2021-11-30
  bookingctl slots --domain appointments --reserved-by anna.huber@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(domain)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var slots []*booking.Slot
			switch {
			case reservedBy != "":
				c, err := svc.ReadCustomer(ctx, reservedBy)
				if err != nil {
					return err
				}
				slots, err = svc.FindReservedBy(ctx, c)
				if err != nil {
					return err
				}
			case at != "":
				slots, err = svc.FindAvailableAt(ctx, at)
			case from != "" || to != "":
				lower, err := parseDate(from)
				if err != nil {
					return err
				}
				upper, err := parseDate(to)
				if err != nil {
					return err
				}
				slots, err = svc.FindAvailableBetween(ctx, lower, endOfDay(upper))
				if err != nil {
					return err
				}
			default:
				slots, err = svc.FindAvailable(ctx)
			}
			if err != nil {
				return err
			}
			return printSlots(a, svc.Schema(), slots)
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "appointments", "booking domain: appointments or carsharing")
	cmd.Flags().StringVar(&at, "at", "", "only slots of owners whose location contains this fragment")
	cmd.Flags().StringVar(&from, "from", "", "earliest start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "latest start date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&reservedBy, "reserved-by", "", "list the slots held by this customer email")
	return cmd
}

func printSlots(a *app, schema booking.Schema, slots []*booking.Slot) error {
	if len(slots) == 0 {
		fmt.Fprintln(a.out, "No matches.")
		return nil
	}
	layout := "2006-01-02 15:04"
	if schema.Name == car.Schema.Name {
		layout = dateLayout
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\tSTARTS\tCUSTOMER\n", schema.OwnerEntity)
	for _, s := range slots {
		holder := s.CustomerEmail()
		if holder == "" {
			holder = "-"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", s.ID(), s.OwnerID(), s.StartsAt().Format(layout), holder)
	}
	return w.Flush()
}

func newReservationCmd(a *app, action string) *cobra.Command {
	var domain string
	cmd := &cobra.Command{
		Use:   action + " <slot-id> <email>",
		Short: "Atomically " + action + " a slot for a customer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(domain)
			if err != nil {
				return err
			}
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid slot id %q", args[0])
			}

			op := svc.ReserveByID
			if action == "cancel" {
				op = svc.CancelByID
			}
			slot, ok, err := op(cmd.Context(), uint(id), args[1])
			if err != nil {
				return err
			}
			if slot == nil {
				return fmt.Errorf("%s %d not found", svc.Schema().SlotEntity, id)
			}
			if !ok {
				return fmt.Errorf("could not %s %s %d for %s", action, svc.Schema().SlotEntity, id, args[1])
			}
			fmt.Fprintf(a.out, "%s %d: %s for %s\n", svc.Schema().SlotEntity, id, past(action), args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "appointments", "booking domain: appointments or carsharing")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var domain string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print reservation events of a domain as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.KafkaConfig.Enabled {
				return errors.New("kafka is disabled (set BOOKING_KAFKA_ENABLED=true)")
			}
			topic, err := a.topic(domain)
			if err != nil {
				return err
			}

			consumer := events.NewConsumer(a.cfg.KafkaConfig.Brokers, a.cfg.KafkaConfig.GroupPrefix+"bookingctl-watch", topic, a.log)
			defer func() { _ = consumer.Close() }()

			a.log.Info("watching events", zap.String("topic", topic))
			return consumer.Consume(cmd.Context(), func(_ context.Context, ce events.CloudEvent) error {
				fmt.Fprintf(a.out, "%s  %-15s %s\n", ce.Time.Format(time.RFC3339), ce.Type, describeEvent(ce))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "appointments", "booking domain: appointments or carsharing")
	return cmd
}

// describeEvent renders the payload of the known event types. Anything else is
// printed raw.
func describeEvent(ce events.CloudEvent) string {
	switch ce.Type {
	case events.SlotReserved, events.SlotCancelled:
		var evt events.SlotReservationEvent
		if err := ce.ParseData(&evt); err == nil {
			return fmt.Sprintf("slot=%d owner=%d customer=%s starts=%s version=%d",
				evt.SlotID, evt.OwnerID, evt.CustomerEmail, evt.StartsAt.Format(time.RFC3339), evt.Version)
		}
	case events.OwnerDeleted:
		var evt events.OwnerDeletedEvent
		if err := ce.ParseData(&evt); err == nil {
			return fmt.Sprintf("owner=%d category=%s slots=%v", evt.OwnerID, evt.Category, evt.SlotIDs)
		}
	}
	return string(ce.Data)
}

// parseDate returns nil for an empty value so the range stays open on that side.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return &t, nil
}

func endOfDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return &end
}

func past(action string) string {
	if action == "cancel" {
		return "cancelled"
	}
	return "reserved"
}
