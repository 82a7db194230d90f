package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/patientcare/hms-api/pkg/errors"

	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/repository"
)

type billingRepository struct {
	db *sqlx.DB
}

func NewBillingRepository(db *sqlx.DB) repository.BillingRepository {
	return &billingRepository{db: db}
}

func (r *billingRepository) GetRecord(ctx context.Context, patientID uuid.UUID) (*model.BillingRecord, error) {
	query := `SELECT * FROM billing_records WHERE patient_id = $1`
	var record model.BillingRecord
	err := r.db.GetContext(ctx, &record, query, patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("billing record", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get billing record: %w", err)
	}
	return &record, nil
}

// PharmacySubtotal sums quantity asked times the order-time price
// snapshot across all of the patient's prescription items.
func (r *billingRepository) PharmacySubtotal(ctx context.Context, patientID uuid.UUID) (float64, error) {
	query := `
		SELECT COALESCE(SUM(pi.quantity_asked * pi.unit_price), 0)
		FROM prescription_items pi
		JOIN prescriptions p ON p.id = pi.prescription_id
		WHERE p.patient_id = $1
	`
	var subtotal float64
	if err := r.db.GetContext(ctx, &subtotal, query, patientID); err != nil {
		return 0, fmt.Errorf("failed to compute pharmacy subtotal: %w", err)
	}
	return subtotal, nil
}

func (r *billingRepository) AssignmentSubtotal(ctx context.Context, patientID uuid.UUID, serviceType model.ServiceType) (float64, error) {
	query := `
		SELECT COALESCE(SUM(sa.amount), 0)
		FROM service_assignments sa
		JOIN hospital_services hs ON hs.id = sa.service_id
		WHERE sa.patient_id = $1 AND hs.type = $2
	`
	var subtotal float64
	if err := r.db.GetContext(ctx, &subtotal, query, patientID, serviceType); err != nil {
		return 0, fmt.Errorf("failed to compute assignment subtotal: %w", err)
	}
	return subtotal, nil
}
