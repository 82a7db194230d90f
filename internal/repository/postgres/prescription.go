package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/repository"
)

type prescriptionRepository struct {
	db *sqlx.DB
}

func NewPrescriptionRepository(db *sqlx.DB) repository.PrescriptionRepository {
	return &prescriptionRepository{db: db}
}

func (r *prescriptionRepository) ListItemsForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.PrescriptionItem, error) {
	query := `
		SELECT pi.* FROM prescription_items pi
		JOIN prescriptions p ON p.id = pi.prescription_id
		WHERE p.patient_id = $1
		ORDER BY pi.ordered_at DESC
	`
	var items []*model.PrescriptionItem
	if err := r.db.SelectContext(ctx, &items, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list prescription items: %w", err)
	}
	return items, nil
}

func (r *prescriptionRepository) ListPendingItems(ctx context.Context, patientID uuid.UUID) ([]*model.PrescriptionItem, error) {
	query := `
		SELECT pi.* FROM prescription_items pi
		JOIN prescriptions p ON p.id = pi.prescription_id
		WHERE p.patient_id = $1 AND pi.status = 'pending'
		ORDER BY pi.ordered_at DESC
	`
	var items []*model.PrescriptionItem
	if err := r.db.SelectContext(ctx, &items, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list pending prescription items: %w", err)
	}
	return items, nil
}
