// Package car instantiates the booking aggregate for car sharing: cars offering rides.
package car

import (
	"fmt"
	"time"

	"github.com/bookingstack/service-reservation/internal/domain/booking"
)

// VehicleType classifies a car.
type VehicleType string

const (
	VehicleSmall  VehicleType = "SMALL"
	VehicleFamily VehicleType = "FAMILY"
	VehicleSUV    VehicleType = "SUV"
)

// IsValid returns true if the vehicle type is recognized.
func (v VehicleType) IsValid() bool {
	switch v {
	case VehicleSmall, VehicleFamily, VehicleSUV:
		return true
	}
	return false
}

// ParseVehicleType converts a string to a VehicleType, returning an error if invalid.
func ParseVehicleType(s string) (VehicleType, error) {
	v := VehicleType(s)
	if !v.IsValid() {
		return "", fmt.Errorf("invalid vehicle type: %s", s)
	}
	return v, nil
}

// Car is stationed at a location and offers rides.
type Car = booking.Owner[VehicleType]

// Ride is a bookable offer date of a car.
type Ride = booking.Slot

// Schema maps cars and rides onto their tables.
var Schema = booking.Schema{
	Name:        "carsharing",
	OwnerTable:  "cars",
	SlotTable:   "rides",
	OwnerEntity: "Car",
	SlotEntity:  "Ride",
}

// NewCar creates an unpersisted car at the given location.
func NewCar(v VehicleType, location string) (*Car, error) {
	return booking.NewOwner(v, location)
}

// NewRide creates an unpersisted ride offered on the calendar date of offerDate.
func NewRide(offerDate time.Time) (*Ride, error) {
	return booking.NewSlot(OfferDate(offerDate))
}

// OfferDate truncates a timestamp to midnight UTC of its calendar date.
func OfferDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RescheduleRide moves a ride to the calendar date of offerDate.
func RescheduleRide(ride *Ride, offerDate time.Time) error {
	return ride.Reschedule(OfferDate(offerDate))
}
