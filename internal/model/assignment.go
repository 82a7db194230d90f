package model

import (
	"time"

	"github.com/google/uuid"
)

type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "pending"
	AssignmentStatusConfirmed AssignmentStatus = "confirmed"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

type Priority string

const (
	PriorityRoutine Priority = "routine"
	PriorityUrgent  Priority = "urgent"
	PriorityStat    Priority = "stat"
)

// ServiceAssignment is one scheduled instance of a lab test, imaging
// study or operation ordered for a patient. Amount stays zero until the
// performing department bills it.
type ServiceAssignment struct {
	Base
	PatientID   uuid.UUID        `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID        `db:"doctor_id" json:"doctor_id"`
	ServiceID   uuid.UUID        `db:"service_id" json:"service_id"`
	ServiceName string           `db:"service_name" json:"service_name"`
	ScheduledAt time.Time        `db:"scheduled_at" json:"scheduled_at"`
	Amount      float64          `db:"amount" json:"amount"`
	Priority    Priority         `db:"priority" json:"priority"`
	Notes       *string          `db:"notes" json:"notes,omitempty"`
	BillItemID  *uuid.UUID       `db:"bill_item_id" json:"bill_item_id,omitempty"`
	Status      AssignmentStatus `db:"status" json:"status"`
}

type AssignmentFilters struct {
	PatientID   uuid.UUID
	ServiceType ServiceType
	Status      AssignmentStatus
	Date        *time.Time
}

type LabStats struct {
	CompletedCount int `db:"completed_count" json:"completed_count"`
	PendingCount   int `db:"pending_count" json:"pending_count"`
	PatientsServed int `db:"patients_served" json:"patients_served"`
}

type LabChargeLine struct {
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
}

// CreateLabChargesRequest is a walk-in lab billing entry: each line
// becomes a bill item plus a service assignment priced from the catalog.
type CreateLabChargesRequest struct {
	PatientID uuid.UUID       `json:"patient_id" binding:"required"`
	DoctorID  uuid.UUID       `json:"doctor_id" binding:"required"`
	Charges   []LabChargeLine `json:"charges" binding:"required,min=1,dive"`
	Notes     *string         `json:"notes"`
}
