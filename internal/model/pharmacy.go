package model

import (
	"time"

	"github.com/google/uuid"
)

type ChargeStatus string

const (
	ChargeStatusPending   ChargeStatus = "pending"
	ChargeStatusPartial   ChargeStatus = "partially_dispensed"
	ChargeStatusCompleted ChargeStatus = "completed"
)

type PharmacyCharge struct {
	Base
	PatientID         uuid.UUID    `db:"patient_id" json:"patient_id"`
	PrescribingDoctor string       `db:"prescribing_doctor" json:"prescribing_doctor"`
	RxNumber          string       `db:"rx_number" json:"rx_number"`
	Notes             *string      `db:"notes" json:"notes,omitempty"`
	TotalAmount       float64      `db:"total_amount" json:"total_amount"`
	Status            ChargeStatus `db:"status" json:"status"`
	DispensedAt       *time.Time   `db:"dispensed_at" json:"dispensed_at,omitempty"`

	Items []*PharmacyChargeItem `db:"-" json:"items,omitempty"`
}

type PharmacyChargeItem struct {
	Base
	ChargeID           uuid.UUID  `db:"charge_id" json:"charge_id"`
	ServiceID          uuid.UUID  `db:"service_id" json:"service_id"`
	PrescriptionItemID *uuid.UUID `db:"prescription_item_id" json:"prescription_item_id,omitempty"`
	Quantity           int        `db:"quantity" json:"quantity"`
	UnitPrice          float64    `db:"unit_price" json:"unit_price"`
	Total              float64    `db:"total" json:"total"`
	Status             ItemStatus `db:"status" json:"status"`
}

// DeriveChargeStatus computes a charge's status from its items. This is
// the only place charge status is decided; the stored column is always
// written from this result so it cannot drift from item state.
func DeriveChargeStatus(items []*PharmacyChargeItem) ChargeStatus {
	pending, dispensed := 0, 0
	for _, item := range items {
		switch item.Status {
		case ItemStatusDispensed:
			dispensed++
		default:
			pending++
		}
	}
	switch {
	case pending == 0 && dispensed > 0:
		return ChargeStatusCompleted
	case dispensed > 0:
		return ChargeStatusPartial
	default:
		return ChargeStatusPending
	}
}

// ChargeTotal sums the item line totals. The stored total_amount column
// is always written from this result.
func ChargeTotal(items []*PharmacyChargeItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Total
	}
	return total
}

type ChargeLineRequest struct {
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CreateChargeRequest is a walk-in pharmacy charge entered at the
// counter, outside the doctor order flow.
type CreateChargeRequest struct {
	PatientID         uuid.UUID           `json:"patient_id" binding:"required"`
	PrescribingDoctor string              `json:"prescribing_doctor" binding:"required,max=255"`
	RxNumber          string              `json:"rx_number" binding:"required,max=100"`
	Notes             *string             `json:"notes"`
	Medications       []ChargeLineRequest `json:"medications" binding:"required,min=1,dive"`
}

type PartialDispenseRequest struct {
	ItemIDs []uuid.UUID `json:"items" binding:"required,min=1"`
}

// DispenseResult reports what a dispense call actually changed.
type DispenseResult struct {
	Charge           *PharmacyCharge `json:"charge"`
	ItemsDispensed   int             `json:"items_dispensed"`
	AlreadyCompleted bool            `json:"already_completed"`
}

type PharmacyStats struct {
	CompletedCharges int `db:"completed_charges" json:"completed_charges"`
	PendingCharges   int `db:"pending_charges" json:"pending_charges"`
	PatientsServed   int `db:"patients_served" json:"patients_served"`
}
