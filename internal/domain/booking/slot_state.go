package booking

// SlotState represents whether a slot can still be reserved.
type SlotState string

const (
	StateAvailable SlotState = "available"
	StateReserved  SlotState = "reserved"
)

// validTransitions defines the reservation state machine of a slot.
var validTransitions = map[SlotState][]SlotState{
	StateAvailable: {StateReserved},
	StateReserved:  {StateAvailable},
}

// IsValid returns true if the state is a recognized slot state.
func (s SlotState) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this state to the target is allowed.
func (s SlotState) CanTransitionTo(target SlotState) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// String returns the string representation of the state.
func (s SlotState) String() string {
	return string(s)
}
