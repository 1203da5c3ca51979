package model

// Status is the kind of a medication event.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusTaken     Status = "TAKEN"
	StatusMissed    Status = "MISSED"
)

// UnknownMedicine is recorded on TAKEN and MISSED events, which are not tied
// to a specific scheduled medicine.
const UnknownMedicine = "Unknown"

// DateLayout is the layout of MedicationEvent.OccurredOn.
const DateLayout = "2006-01-02"

// MedicationEvent is one row of the append-only medication log.
type MedicationEvent struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	Identity   string `gorm:"not null;index:idx_medication_events_lookup,priority:1"`
	Medicine   string `gorm:"not null"`
	TimeOfDay  string `gorm:"size:5;not null"`
	Status     Status `gorm:"size:16;not null;index:idx_medication_events_lookup,priority:2"`
	OccurredOn string `gorm:"size:10;not null;index:idx_medication_events_lookup,priority:3"` // YYYY-MM-DD, local date
}
