package model

import (
	"time"

	"github.com/google/uuid"
)

type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusDispensed ItemStatus = "dispensed"
)

type DurationUnit string

const (
	DurationDays  DurationUnit = "days"
	DurationWeeks DurationUnit = "weeks"
)

type Prescription struct {
	Base
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Refills   int       `db:"refills" json:"refills"`
	DAW       bool      `db:"daw" json:"daw"`

	Items []*PrescriptionItem `db:"-" json:"items,omitempty"`
}

type PrescriptionItem struct {
	Base
	PrescriptionID uuid.UUID    `db:"prescription_id" json:"prescription_id"`
	ServiceID      uuid.UUID    `db:"service_id" json:"service_id"`
	ServiceName    string       `db:"service_name" json:"service_name"`
	OrderedAt      time.Time    `db:"ordered_at" json:"ordered_at"`
	QuantityAsked  int          `db:"quantity_asked" json:"quantity_asked"`
	QuantityGiven  int          `db:"quantity_given" json:"quantity_given"`
	Duration       int          `db:"duration" json:"duration"`
	DurationUnit   DurationUnit `db:"duration_unit" json:"duration_unit"`
	Instructions   string       `db:"instructions" json:"instructions,omitempty"`
	Status         ItemStatus   `db:"status" json:"status"`
	UnitPrice      float64      `db:"unit_price" json:"unit_price"`
}
