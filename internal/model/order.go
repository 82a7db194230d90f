package model

import (
	"time"

	"github.com/google/uuid"
)

type OrderKind string

const (
	OrderKindMedication OrderKind = "medication"
	OrderKindLab        OrderKind = "lab"
	OrderKindService    OrderKind = "service"
)

type MedicationLine struct {
	ServiceID    uuid.UUID    `json:"medication_id" binding:"required"`
	Quantity     int          `json:"quantity" binding:"required,min=1"`
	Duration     int          `json:"duration" binding:"required,min=1"`
	DurationUnit DurationUnit `json:"duration_unit" binding:"required,oneof=days weeks"`
	Instructions string       `json:"instructions"`
}

type MedicationOrderRequest struct {
	Medications []MedicationLine `json:"medications" binding:"required,min=1,dive"`
	Refills     int              `json:"refills" binding:"min=0"`
	DAW         bool             `json:"daw"`
}

type LabOrderRequest struct {
	Labs           []uuid.UUID `json:"labs"`
	Studies        []uuid.UUID `json:"studies"`
	Diagnosis      string      `json:"diagnosis"`
	CollectionDate time.Time   `json:"collection_date" binding:"required"`
	Priority       Priority    `json:"priority" binding:"required,oneof=routine urgent stat"`
}

type ServiceOrderRequest struct {
	Services      []uuid.UUID `json:"services" binding:"required,min=1"`
	Diagnosis     string      `json:"diagnosis"`
	ScheduledDate time.Time   `json:"scheduled_date" binding:"required"`
	Priority      Priority    `json:"priority" binding:"required,oneof=routine urgent stat"`
	Instructions  string      `json:"instructions"`
}

// OrderRequest is the order-entry submission: a kind tag plus the
// section for that kind.
type OrderRequest struct {
	Kind       OrderKind               `json:"type" binding:"required"`
	Medication *MedicationOrderRequest `json:"medication,omitempty"`
	Lab        *LabOrderRequest        `json:"lab,omitempty"`
	Service    *ServiceOrderRequest    `json:"service,omitempty"`
}

// MedicationOrder is the fully computed write set for one medication
// order. The repository persists it in a single transaction; the bill
// is a candidate that may be replaced by today's existing bill.
type MedicationOrder struct {
	Bill         *Bill
	BillItems    []*BillItem
	Prescription *Prescription
	Charge       *PharmacyCharge
}

// OrderResult reports what an order submission created.
type OrderResult struct {
	Kind           OrderKind   `json:"kind"`
	BillID         *uuid.UUID  `json:"bill_id,omitempty"`
	PrescriptionID *uuid.UUID  `json:"prescription_id,omitempty"`
	RxNumber       string      `json:"rx_number,omitempty"`
	ChargeTotal    float64     `json:"charge_total,omitempty"`
	AssignmentIDs  []uuid.UUID `json:"assignment_ids,omitempty"`
	LineCount      int         `json:"line_count"`
}

// PatientOrders is the doctor-facing read model: everything ordered for
// one patient, newest first.
type PatientOrders struct {
	ServiceOrders []*ServiceAssignment `json:"service_orders"`
	MedOrders     []*PrescriptionItem  `json:"med_orders"`
}
