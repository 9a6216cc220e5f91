package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bookingstack/service-reservation/internal/database"
	"github.com/bookingstack/service-reservation/internal/domain/car"
	"github.com/bookingstack/service-reservation/internal/domain/customer"
	"github.com/bookingstack/service-reservation/internal/domain/provider"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testStore holds one isolated in-memory database with both schemas migrated.
type testStore struct {
	DB      *gorm.DB
	Session *database.Session
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	db, err := database.Connect(database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db, provider.Schema, car.Schema))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return &testStore{DB: db, Session: database.NewSession(db)}
}

func (s *testStore) providers() *GormOwnerRepository[provider.ProviderType] {
	return NewGormOwnerRepository[provider.ProviderType](s.Session, provider.Schema)
}

func (s *testStore) cars() *GormOwnerRepository[car.VehicleType] {
	return NewGormOwnerRepository[car.VehicleType](s.Session, car.Schema)
}

func (s *testStore) customers() *GormCustomerRepository {
	return NewGormCustomerRepository(s.Session, provider.Schema, car.Schema)
}

func (s *testStore) reservations() *GormReservationRepository {
	return NewGormReservationRepository(s.Session)
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func mustCustomer(t *testing.T, s *testStore, email, last, first string) *customer.Customer {
	t.Helper()
	c, err := customer.NewCustomer(email, last, first)
	require.NoError(t, err)
	created, err := s.customers().Create(context.Background(), c)
	require.NoError(t, err)
	require.True(t, created)
	return c
}

// mustProvider stores a provider with one appointment per start time.
func mustProvider(t *testing.T, s *testStore, typ provider.ProviderType, address string, starts ...time.Time) *provider.Provider {
	t.Helper()
	p, err := provider.NewProvider(typ, address)
	require.NoError(t, err)
	for _, start := range starts {
		a, err := provider.NewAppointment(start)
		require.NoError(t, err)
		require.True(t, p.AddSlot(a))
	}
	created, err := s.providers().Create(context.Background(), p)
	require.NoError(t, err)
	require.True(t, created)
	return p
}

func slotIDs[T interface{ ID() uint }](items []T) []uint {
	ids := make([]uint, len(items))
	for i, item := range items {
		ids[i] = item.ID()
	}
	return ids
}
