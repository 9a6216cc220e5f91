package booking

import "time"

// Schema names the tables and entity labels of one concrete booking domain.
type Schema struct {
	Name        string
	OwnerTable  string
	SlotTable   string
	OwnerEntity string
	SlotEntity  string
}

// Bounds used by range searches when the caller leaves one side open.
var (
	RangeFloor   = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	RangeCeiling = time.Date(3000, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Normalize fills open range bounds with RangeFloor and RangeCeiling.
func Normalize(from, to *time.Time) (time.Time, time.Time) {
	lower, upper := RangeFloor, RangeCeiling
	if from != nil {
		lower = from.UTC()
	}
	if to != nil {
		upper = to.UTC()
	}
	return lower, upper
}
