package model

import (
	"time"

	"github.com/google/uuid"
)

type AdmissionDetail struct {
	Base
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	DepartmentID  uuid.UUID  `db:"department_id" json:"department_id"`
	RoomID        uuid.UUID  `db:"room_id" json:"room_id"`
	BedID         *uuid.UUID `db:"bed_id" json:"bed_id,omitempty"`
	AdmissionDate time.Time  `db:"admission_date" json:"admission_date"`
	Type          string     `db:"type" json:"type"`
	Source        string     `db:"source" json:"source,omitempty"`
	Notes         string     `db:"notes" json:"notes,omitempty"`
}

// AdmissionContext is the current admission joined with the rates the
// billing aggregation needs. BedRate is nil when no bed was assigned;
// the room rate applies instead.
type AdmissionContext struct {
	Admission  *AdmissionDetail `json:"admission"`
	RoomRate   float64          `json:"room_rate"`
	BedRate    *float64         `json:"bed_rate,omitempty"`
	DoctorRate float64          `json:"doctor_rate"`
	DoctorName string           `json:"doctor_name"`
}

// ResourceRate returns the bed rate when a bed is assigned, otherwise
// the room rate.
func (a *AdmissionContext) ResourceRate() float64 {
	if a == nil {
		return 0
	}
	if a.BedRate != nil {
		return *a.BedRate
	}
	return a.RoomRate
}

// AdmissionWrite is the full row set one admission creates. The
// repository persists it atomically.
type AdmissionWrite struct {
	Patient   *Patient
	Medical   *MedicalDetail
	Admission *AdmissionDetail
	Billing   *BillingRecord
}

type AdmitPatientRequest struct {
	FirstName   string     `json:"first_name" binding:"required,max=100"`
	LastName    string     `json:"last_name" binding:"required,max=100"`
	Sex         string     `json:"sex" binding:"required,oneof=Male Female"`
	Birthday    *time.Time `json:"birthday"`
	CivilStatus string     `json:"civil_status" binding:"max=50"`
	Phone       string     `json:"phone" binding:"max=20"`
	Address     string     `json:"address"`

	PrimaryReason string   `json:"primary_reason"`
	Weight        *float64 `json:"weight"`
	Height        *float64 `json:"height"`
	Temperature   *float64 `json:"temperature"`
	BloodPressure string   `json:"blood_pressure"`
	HeartRate     *int     `json:"heart_rate"`
	History       JSONMap  `json:"medical_history"`
	Allergies     JSONMap  `json:"allergies"`

	AdmissionType   string     `json:"admission_type" binding:"required,max=50"`
	AdmissionSource string     `json:"admission_source" binding:"max=100"`
	DepartmentID    uuid.UUID  `json:"department_id" binding:"required"`
	DoctorID        uuid.UUID  `json:"doctor_id" binding:"required"`
	RoomID          uuid.UUID  `json:"room_id" binding:"required"`
	BedID           *uuid.UUID `json:"bed_id"`
	AdmissionNotes  string     `json:"admission_notes"`

	GuarantorName         string `json:"guarantor_name" binding:"required,max=100"`
	GuarantorRelationship string `json:"guarantor_relationship" binding:"required,max=50"`
}

// AdmitPatientResult carries the generated portal credentials back to
// the admission clerk, as the source system shows them once on screen.
type AdmitPatientResult struct {
	Patient       *Patient `json:"patient"`
	PortalEmail   string   `json:"portal_email"`
	PlainPassword string   `json:"plain_password"`
}
