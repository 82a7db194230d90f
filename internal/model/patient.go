package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type PatientStatus string

const (
	PatientStatusActive     PatientStatus = "active"
	PatientStatusDischarged PatientStatus = "discharged"
)

type Patient struct {
	Base
	FirstName       string     `db:"first_name" json:"first_name"`
	LastName        string     `db:"last_name" json:"last_name"`
	Sex             string     `db:"sex" json:"sex"`
	Birthday        *time.Time `db:"birthday" json:"birthday,omitempty"`
	CivilStatus     string     `db:"civil_status" json:"civil_status,omitempty"`
	Phone           string     `db:"phone" json:"phone,omitempty"`
	Address         string     `db:"address" json:"address,omitempty"`
	Email           string     `db:"email" json:"email"`
	PasswordHash    string     `db:"password_hash" json:"-"`
	Status          string     `db:"status" json:"status"`
	BillingLockedAt *time.Time `db:"billing_locked_at" json:"billing_locked_at,omitempty"`
}

// BillingLocked reports whether the patient's bill has been closed;
// no new charges may be created once set.
func (p *Patient) BillingLocked() bool {
	return p.BillingLockedAt != nil
}

type MedicalDetail struct {
	Base
	PatientID      uuid.UUID       `db:"patient_id" json:"patient_id"`
	PrimaryReason  string          `db:"primary_reason" json:"primary_reason,omitempty"`
	Weight         *float64        `db:"weight" json:"weight,omitempty"`
	Height         *float64        `db:"height" json:"height,omitempty"`
	Temperature    *float64        `db:"temperature" json:"temperature,omitempty"`
	BloodPressure  string          `db:"blood_pressure" json:"blood_pressure,omitempty"`
	HeartRate      *int            `db:"heart_rate" json:"heart_rate,omitempty"`
	MedicalHistory json.RawMessage `db:"medical_history" json:"medical_history,omitempty"`
	Allergies      json.RawMessage `db:"allergies" json:"allergies,omitempty"`
}

// BillingRecord is the per-patient base billing ledger: lump charges and
// payments recorded outside the per-order bill items.
type BillingRecord struct {
	Base
	PatientID             uuid.UUID `db:"patient_id" json:"patient_id"`
	GuarantorName         string    `db:"guarantor_name" json:"guarantor_name"`
	GuarantorRelationship string    `db:"guarantor_relationship" json:"guarantor_relationship"`
	TotalCharges          float64   `db:"total_charges" json:"total_charges"`
	PaymentsMade          float64   `db:"payments_made" json:"payments_made"`
	PaymentStatus         string    `db:"payment_status" json:"payment_status"`
}

type PatientFilters struct {
	Search string `form:"q"`
	Status string `form:"status"`
}
