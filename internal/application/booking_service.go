package application

import (
	"context"
	"strconv"
	"time"

	"github.com/bookingstack/service-reservation/internal/database"
	"github.com/bookingstack/service-reservation/internal/domain/booking"
	"github.com/bookingstack/service-reservation/internal/domain/car"
	"github.com/bookingstack/service-reservation/internal/domain/customer"
	"github.com/bookingstack/service-reservation/internal/domain/provider"
	"github.com/bookingstack/service-reservation/internal/events"
	"github.com/bookingstack/service-reservation/internal/repository"
	"go.uber.org/zap"
)

const eventSource = "service-reservation"

// Schemas lists every booking domain sharing the customers table.
var Schemas = []booking.Schema{provider.Schema, car.Schema}

// Repositories groups the stores a BookingService composes.
type Repositories[K booking.Category] struct {
	Owners       booking.OwnerRepository[K]
	Slots        booking.SlotQuery[K]
	Reservations booking.ReservationRepository
	Customers    customer.CustomerRepository
}

// BookingService is the application service of one booking domain. It logs every
// mutation and publishes reservation changes once they are stored.
type BookingService[K booking.Category] struct {
	schema    booking.Schema
	topic     string
	session   *database.Session
	repos     Repositories[K]
	publisher events.Publisher
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService[K booking.Category](
	schema booking.Schema,
	topic string,
	session *database.Session,
	repos Repositories[K],
	publisher events.Publisher,
	logger *zap.Logger,
) *BookingService[K] {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &BookingService[K]{
		schema:    schema,
		topic:     topic,
		session:   session,
		repos:     repos,
		publisher: publisher,
		logger:    logger.With(zap.String("domain", schema.Name)),
	}
}

// NewAppointmentService wires the providers/appointments domain on session.
func NewAppointmentService(session *database.Session, publisher events.Publisher, logger *zap.Logger) *BookingService[provider.ProviderType] {
	return NewBookingService(provider.Schema, events.TopicAppointmentEvents, session,
		gormRepositories[provider.ProviderType](session, provider.Schema), publisher, logger)
}

// NewCarSharingService wires the cars/rides domain on session.
func NewCarSharingService(session *database.Session, publisher events.Publisher, logger *zap.Logger) *BookingService[car.VehicleType] {
	return NewBookingService(car.Schema, events.TopicCarSharingEvents, session,
		gormRepositories[car.VehicleType](session, car.Schema), publisher, logger)
}

func gormRepositories[K booking.Category](session *database.Session, schema booking.Schema) Repositories[K] {
	return Repositories[K]{
		Owners:       repository.NewGormOwnerRepository[K](session, schema),
		Slots:        repository.NewGormSlotQuery[K](session, schema),
		Reservations: repository.NewGormReservationRepository(session),
		Customers:    repository.NewGormCustomerRepository(session, Schemas...),
	}
}

// Schema returns the tables this service works on.
func (s *BookingService[K]) Schema() booking.Schema { return s.schema }

// Atomically runs fn in one transaction shared by every call made with its context.
// Events raised inside fn are published once the transaction has committed.
func (s *BookingService[K]) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, nested := outboxFromContext(ctx); nested {
		return s.session.Atomically(ctx, fn)
	}

	box := &outbox{}
	if err := s.session.Atomically(withOutbox(ctx, box), fn); err != nil {
		return err
	}
	box.flush(ctx)
	return nil
}

// Close ends the service's session. The shared database handle stays open.
func (s *BookingService[K]) Close() error {
	s.logger.Debug("closing booking service")
	return s.session.Close()
}

// --- Owners ---

// CreateOwner persists a new owner with its slots.
func (s *BookingService[K]) CreateOwner(ctx context.Context, owner *booking.Owner[K]) (bool, error) {
	created, err := s.repos.Owners.Create(ctx, owner)
	if err != nil {
		s.logger.Error("failed to create owner", zap.Error(err))
		return false, err
	}
	if !created {
		s.logger.Warn("owner not created")
		return false, nil
	}

	s.logger.Info("owner created",
		zap.Uint("owner_id", owner.ID()),
		zap.String("category", string(owner.Category())),
		zap.Int("slots", len(owner.Slots())),
	)
	return true, nil
}

// ReadOwner returns the owner with its slots, or nil.
func (s *BookingService[K]) ReadOwner(ctx context.Context, id uint) (*booking.Owner[K], error) {
	return s.repos.Owners.Read(ctx, id)
}

// UpdateOwner stores the owner and reconciles its slots.
func (s *BookingService[K]) UpdateOwner(ctx context.Context, owner *booking.Owner[K]) (*booking.Owner[K], error) {
	updated, err := s.repos.Owners.Update(ctx, owner)
	if err != nil {
		s.logger.Error("failed to update owner", zap.Error(err))
		return nil, err
	}
	if updated != nil {
		s.logger.Info("owner updated",
			zap.Uint("owner_id", updated.ID()),
			zap.Int("slots", len(updated.Slots())),
		)
	}
	return updated, nil
}

// DeleteOwner removes the owner and its slots.
func (s *BookingService[K]) DeleteOwner(ctx context.Context, owner *booking.Owner[K]) (bool, error) {
	deleted, err := s.repos.Owners.Delete(ctx, owner)
	if err != nil {
		s.logger.Error("failed to delete owner", zap.Error(err))
		return false, err
	}
	if !deleted {
		return false, nil
	}

	s.logger.Info("owner deleted", zap.Uint("owner_id", owner.ID()))
	// The repository left the owner holding the rows it removed.
	slotIDs := make([]uint, 0, len(owner.Slots()))
	for _, slot := range owner.Slots() {
		slotIDs = append(slotIDs, slot.ID())
	}
	s.publish(ctx, events.OwnerDeleted, strconv.FormatUint(uint64(owner.ID()), 10), events.OwnerDeletedEvent{
		Domain:     s.schema.Name,
		OwnerID:    owner.ID(),
		Category:   string(owner.Category()),
		SlotIDs:    slotIDs,
		OccurredAt: time.Now().UTC(),
	})
	return true, nil
}

// --- Queries ---

// FindOwners returns owners of category whose location contains fragment.
func (s *BookingService[K]) FindOwners(ctx context.Context, category K, fragment string) ([]*booking.Owner[K], error) {
	return s.repos.Slots.FindOwners(ctx, category, fragment)
}

// FindAvailableAt returns available slots at locations containing fragment.
func (s *BookingService[K]) FindAvailableAt(ctx context.Context, fragment string) ([]*booking.Slot, error) {
	return s.repos.Slots.FindAvailableAt(ctx, fragment)
}

// FindAvailable returns every available slot.
func (s *BookingService[K]) FindAvailable(ctx context.Context) ([]*booking.Slot, error) {
	return s.repos.Slots.FindAvailable(ctx)
}

// FindAvailableBetween returns available slots in the inclusive range.
func (s *BookingService[K]) FindAvailableBetween(ctx context.Context, from, to *time.Time) ([]*booking.Slot, error) {
	return s.repos.Slots.FindAvailableBetween(ctx, from, to)
}

// FindReservedBy returns the slots held by c.
func (s *BookingService[K]) FindReservedBy(ctx context.Context, c *customer.Customer) ([]*booking.Slot, error) {
	return s.repos.Slots.FindReservedBy(ctx, c)
}

// FindSlot returns one slot, or nil.
func (s *BookingService[K]) FindSlot(ctx context.Context, id uint) (*booking.Slot, error) {
	return s.repos.Slots.FindSlot(ctx, id)
}

// --- Reservations ---

// Reserve assigns c to slot.
func (s *BookingService[K]) Reserve(ctx context.Context, slot *booking.Slot, c *customer.Customer) (bool, error) {
	ok, err := s.repos.Reservations.Reserve(ctx, s.schema, slot, c)
	if err != nil {
		s.logger.Error("failed to reserve slot", zap.Error(err))
		return false, err
	}
	if !ok {
		s.logger.Warn("slot not reserved", slotFields(slot)...)
		return false, nil
	}

	s.logger.Info("slot reserved", slotFields(slot)...)
	s.publishReservation(ctx, events.SlotReserved, slot, c.Email())
	return true, nil
}

// Cancel releases slot if c holds it.
func (s *BookingService[K]) Cancel(ctx context.Context, slot *booking.Slot, c *customer.Customer) (bool, error) {
	ok, err := s.repos.Reservations.Cancel(ctx, s.schema, slot, c)
	if err != nil {
		s.logger.Error("failed to cancel reservation", zap.Error(err))
		return false, err
	}
	if !ok {
		s.logger.Warn("reservation not cancelled", slotFields(slot)...)
		return false, nil
	}

	s.logger.Info("reservation cancelled", slotFields(slot)...)
	s.publishReservation(ctx, events.SlotCancelled, slot, c.Email())
	return true, nil
}

// ReserveByID looks up the slot and the customer and reserves. The returned slot is
// nil when the id is unknown.
func (s *BookingService[K]) ReserveByID(ctx context.Context, slotID uint, email string) (*booking.Slot, bool, error) {
	return s.byID(ctx, slotID, email, s.Reserve)
}

// CancelByID looks up the slot and the customer and cancels.
func (s *BookingService[K]) CancelByID(ctx context.Context, slotID uint, email string) (*booking.Slot, bool, error) {
	return s.byID(ctx, slotID, email, s.Cancel)
}

func (s *BookingService[K]) byID(
	ctx context.Context,
	slotID uint,
	email string,
	op func(context.Context, *booking.Slot, *customer.Customer) (bool, error),
) (*booking.Slot, bool, error) {
	slot, err := s.repos.Slots.FindSlot(ctx, slotID)
	if err != nil || slot == nil {
		return nil, false, err
	}
	c, err := s.repos.Customers.Read(ctx, email)
	if err != nil {
		return slot, false, err
	}
	ok, err := op(ctx, slot, c)
	return slot, ok, err
}

// --- Customers ---

// CreateCustomer registers c. Emails are unique across all domains.
func (s *BookingService[K]) CreateCustomer(ctx context.Context, c *customer.Customer) (bool, error) {
	created, err := s.repos.Customers.Create(ctx, c)
	if err != nil {
		s.logger.Error("failed to create customer", zap.Error(err))
		return false, err
	}
	if created {
		s.logger.Info("customer created", zap.String("email", c.Email()))
	}
	return created, nil
}

// ReadCustomer returns the customer with the email, or nil.
func (s *BookingService[K]) ReadCustomer(ctx context.Context, email string) (*customer.Customer, error) {
	return s.repos.Customers.Read(ctx, email)
}

// UpdateCustomer stores new names for c.
func (s *BookingService[K]) UpdateCustomer(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	updated, err := s.repos.Customers.Update(ctx, c)
	if err != nil {
		s.logger.Error("failed to update customer", zap.Error(err))
		return nil, err
	}
	return updated, nil
}

// DeleteCustomer removes c and releases all of its reservations in every domain.
func (s *BookingService[K]) DeleteCustomer(ctx context.Context, c *customer.Customer) (bool, error) {
	deleted, err := s.repos.Customers.Delete(ctx, c)
	if err != nil {
		s.logger.Error("failed to delete customer", zap.Error(err))
		return false, err
	}
	if deleted {
		s.logger.Info("customer deleted", zap.String("email", c.Email()))
	}
	return deleted, nil
}

// FindCustomers searches customers by name; an empty name matches any.
func (s *BookingService[K]) FindCustomers(ctx context.Context, lastName, firstName string) ([]*customer.Customer, error) {
	return s.repos.Customers.FindBy(ctx, lastName, firstName)
}

// --- Event publishing ---

func (s *BookingService[K]) publishReservation(ctx context.Context, eventType string, slot *booking.Slot, email string) {
	s.publish(ctx, eventType, strconv.FormatUint(uint64(slot.ID()), 10), events.SlotReservationEvent{
		Domain:        s.schema.Name,
		SlotID:        slot.ID(),
		OwnerID:       slot.OwnerID(),
		CustomerEmail: email,
		StartsAt:      slot.StartsAt(),
		Version:       slot.Version(),
		OccurredAt:    time.Now().UTC(),
	})
}

// publish never fails the caller: the change is already stored. Inside Atomically
// the event waits for the commit.
func (s *BookingService[K]) publish(ctx context.Context, eventType, key string, data interface{}) {
	if box, ok := outboxFromContext(ctx); ok {
		box.add(func(ctx context.Context) { s.send(ctx, eventType, key, data) })
		return
	}
	s.send(ctx, eventType, key, data)
}

func (s *BookingService[K]) send(ctx context.Context, eventType, key string, data interface{}) {
	ce, err := events.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.Publish(ctx, s.topic, key, ce); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", s.topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func slotFields(slot *booking.Slot) []zap.Field {
	if slot == nil {
		return nil
	}
	return []zap.Field{
		zap.Uint("slot_id", slot.ID()),
		zap.Uint("owner_id", slot.OwnerID()),
		zap.Time("starts_at", slot.StartsAt()),
	}
}
