package store

import (
	"errors"

	"medremind-backend/internal/model"
)

// ErrStorage marks failures of the underlying database. Callers match it
// with errors.Is to tell storage outages apart from domain errors.
var ErrStorage = errors.New("storage unavailable")

// EventFilter selects events of one identity. Zero-valued fields do not
// constrain the query; set fields are combined with AND.
type EventFilter struct {
	Status    model.Status // status = Status
	NotStatus model.Status // status <> NotStatus
	OnOrAfter string       // occurred_on >= OnOrAfter (YYYY-MM-DD)
	On        string       // occurred_on = On (YYYY-MM-DD)
}
