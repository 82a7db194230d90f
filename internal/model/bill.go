package model

import (
	"time"

	"github.com/google/uuid"
)

type BillStatus string

const (
	BillStatusPending BillStatus = "pending"
	BillStatusPaid    BillStatus = "paid"
)

// Bill groups a day's charges for one patient. There is at most one
// bill per patient per day; order intake finds or creates it.
type Bill struct {
	Base
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	AdmissionID   *uuid.UUID `db:"admission_id" json:"admission_id,omitempty"`
	BillingDate   time.Time  `db:"billing_date" json:"billing_date"`
	PaymentStatus BillStatus `db:"payment_status" json:"payment_status"`

	Items []*BillItem `db:"-" json:"items,omitempty"`
}

type BillItem struct {
	Base
	BillID         uuid.UUID  `db:"bill_id" json:"bill_id"`
	ServiceID      uuid.UUID  `db:"service_id" json:"service_id"`
	Quantity       int        `db:"quantity" json:"quantity"`
	Amount         float64    `db:"amount" json:"amount"`
	DiscountAmount float64    `db:"discount_amount" json:"discount_amount"`
	BillingDate    time.Time  `db:"billing_date" json:"billing_date"`
	Status         BillStatus `db:"status" json:"status"`
}
