package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/repository"
)

type orderRepository struct {
	BaseRepository
}

func NewOrderRepository(db *sqlx.DB) repository.OrderRepository {
	return &orderRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *orderRepository) CreateMedicationOrder(ctx context.Context, order *model.MedicationOrder) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()

		billID, err := findOrCreateBill(ctx, tx, order.Bill, now)
		if err != nil {
			return err
		}

		rxQuery := `
			INSERT INTO prescriptions (id, patient_id, doctor_id, refills, daw, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
		`
		rx := order.Prescription
		if _, err := tx.ExecContext(ctx, rxQuery,
			rx.ID, rx.PatientID, rx.DoctorID, rx.Refills, rx.DAW, now,
		); err != nil {
			return fmt.Errorf("failed to create prescription: %w", err)
		}

		itemQuery := `
			INSERT INTO prescription_items (
				id, prescription_id, service_id, service_name, ordered_at,
				quantity_asked, quantity_given, duration, duration_unit,
				instructions, status, unit_price, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		`
		for _, item := range rx.Items {
			if _, err := tx.ExecContext(ctx, itemQuery,
				item.ID, item.PrescriptionID, item.ServiceID, item.ServiceName, item.OrderedAt,
				item.QuantityAsked, item.QuantityGiven, item.Duration, item.DurationUnit,
				item.Instructions, item.Status, item.UnitPrice, now,
			); err != nil {
				return fmt.Errorf("failed to create prescription item: %w", err)
			}
		}

		billItemQuery := `
			INSERT INTO bill_items (
				id, bill_id, service_id, quantity, amount, discount_amount,
				billing_date, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		`
		for _, item := range order.BillItems {
			item.BillID = billID
			if _, err := tx.ExecContext(ctx, billItemQuery,
				item.ID, item.BillID, item.ServiceID, item.Quantity, item.Amount,
				item.DiscountAmount, item.BillingDate, item.Status, now,
			); err != nil {
				return fmt.Errorf("failed to create bill item: %w", err)
			}
		}

		chargeQuery := `
			INSERT INTO pharmacy_charges (
				id, patient_id, prescribing_doctor, rx_number, notes,
				total_amount, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		`
		charge := order.Charge
		if _, err := tx.ExecContext(ctx, chargeQuery,
			charge.ID, charge.PatientID, charge.PrescribingDoctor, charge.RxNumber,
			charge.Notes, charge.TotalAmount, charge.Status, now,
		); err != nil {
			return fmt.Errorf("failed to create pharmacy charge: %w", err)
		}

		chargeItemQuery := `
			INSERT INTO pharmacy_charge_items (
				id, charge_id, service_id, prescription_item_id, quantity,
				unit_price, total, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		`
		for _, item := range charge.Items {
			if _, err := tx.ExecContext(ctx, chargeItemQuery,
				item.ID, item.ChargeID, item.ServiceID, item.PrescriptionItemID,
				item.Quantity, item.UnitPrice, item.Total, item.Status, now,
			); err != nil {
				return fmt.Errorf("failed to create pharmacy charge item: %w", err)
			}
		}

		order.Bill.ID = billID
		return nil
	})
}

// findOrCreateBill resolves today's bill for the patient, creating the
// candidate row when none exists yet. Returns the effective bill id.
func findOrCreateBill(ctx context.Context, tx *sqlx.Tx, bill *model.Bill, now time.Time) (uuid.UUID, error) {
	var existingID uuid.UUID
	findQuery := `SELECT id FROM bills WHERE patient_id = $1 AND billing_date = $2`
	err := tx.GetContext(ctx, &existingID, findQuery, bill.PatientID, bill.BillingDate)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("failed to find bill: %w", err)
	}

	createQuery := `
		INSERT INTO bills (id, patient_id, admission_id, billing_date, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	if _, err := tx.ExecContext(ctx, createQuery,
		bill.ID, bill.PatientID, bill.AdmissionID, bill.BillingDate, bill.PaymentStatus, now,
	); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create bill: %w", err)
	}
	return bill.ID, nil
}

func (r *orderRepository) CreateAssignment(ctx context.Context, assignment *model.ServiceAssignment) error {
	return insertAssignment(ctx, r.db, assignment)
}

func (r *orderRepository) CreateAssignments(ctx context.Context, assignments []*model.ServiceAssignment) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, assignment := range assignments {
			if err := insertAssignment(ctx, tx, assignment); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertAssignment(ctx context.Context, ext sqlx.ExtContext, assignment *model.ServiceAssignment) error {
	query := `
		INSERT INTO service_assignments (
			id, patient_id, doctor_id, service_id, service_name, scheduled_at,
			amount, priority, notes, bill_item_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`
	_, err := ext.ExecContext(ctx, query,
		assignment.ID, assignment.PatientID, assignment.DoctorID, assignment.ServiceID,
		assignment.ServiceName, assignment.ScheduledAt, assignment.Amount, assignment.Priority,
		assignment.Notes, assignment.BillItemID, assignment.Status, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service assignment: %w", err)
	}
	return nil
}
