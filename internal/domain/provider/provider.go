// Package provider instantiates the booking aggregate for service providers
// (doctors, pharmacies, test centers) offering appointments.
package provider

import (
	"fmt"
	"time"

	"github.com/bookingstack/service-reservation/internal/domain/booking"
)

// ProviderType classifies a provider.
type ProviderType string

const (
	TypeDoctor     ProviderType = "DOCTOR"
	TypePharmacy   ProviderType = "PHARMACY"
	TypeTestCenter ProviderType = "TEST_CENTER"
)

// IsValid returns true if the provider type is recognized.
func (t ProviderType) IsValid() bool {
	switch t {
	case TypeDoctor, TypePharmacy, TypeTestCenter:
		return true
	}
	return false
}

// ParseProviderType converts a string to a ProviderType, returning an error if invalid.
func ParseProviderType(s string) (ProviderType, error) {
	t := ProviderType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid provider type: %s", s)
	}
	return t, nil
}

// Provider offers appointments at an address.
type Provider = booking.Owner[ProviderType]

// Appointment is a bookable date-time at a provider.
type Appointment = booking.Slot

// Schema maps providers and appointments onto their tables.
var Schema = booking.Schema{
	Name:        "appointments",
	OwnerTable:  "providers",
	SlotTable:   "appointments",
	OwnerEntity: "Provider",
	SlotEntity:  "Appointment",
}

// NewProvider creates an unpersisted provider at the given address.
func NewProvider(t ProviderType, address string) (*Provider, error) {
	return booking.NewOwner(t, address)
}

// NewAppointment creates an unpersisted appointment at the given date-time.
func NewAppointment(at time.Time) (*Appointment, error) {
	return booking.NewSlot(at)
}
