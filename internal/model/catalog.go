package model

import (
	"github.com/google/uuid"
)

type ServiceType string

const (
	ServiceTypeMedication ServiceType = "medication"
	ServiceTypeLab        ServiceType = "lab"
	ServiceTypeOperation  ServiceType = "operation"
)

// HospitalService is a catalog entry. Price is a point-in-time value;
// charge-creating writes copy it into line items at order time.
type HospitalService struct {
	Base
	DepartmentID *uuid.UUID  `db:"department_id" json:"department_id,omitempty"`
	Name         string      `db:"name" json:"name"`
	Description  string      `db:"description" json:"description,omitempty"`
	Price        float64     `db:"price" json:"price"`
	Type         ServiceType `db:"type" json:"type"`
}
