package model

import (
	"github.com/google/uuid"
)

type Department struct {
	Base
	Name string `db:"name" json:"name"`
}

type Doctor struct {
	Base
	DepartmentID uuid.UUID `db:"department_id" json:"department_id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Rate         float64   `db:"rate" json:"rate"`
}

type RoomStatus string

const (
	RoomStatusAvailable RoomStatus = "available"
	RoomStatusFull      RoomStatus = "full"
)

type Room struct {
	Base
	DepartmentID uuid.UUID  `db:"department_id" json:"department_id"`
	Number       string     `db:"number" json:"number"`
	Rate         float64    `db:"rate" json:"rate"`
	Status       RoomStatus `db:"status" json:"status"`
}

type BedStatus string

const (
	BedStatusAvailable BedStatus = "available"
	BedStatusOccupied  BedStatus = "occupied"
)

type Bed struct {
	Base
	RoomID    uuid.UUID  `db:"room_id" json:"room_id"`
	Number    string     `db:"number" json:"number"`
	Rate      float64    `db:"rate" json:"rate"`
	Status    BedStatus  `db:"status" json:"status"`
	PatientID *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
}
