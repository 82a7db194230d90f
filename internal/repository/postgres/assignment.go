package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/patientcare/hms-api/pkg/errors"

	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/repository"
)

type assignmentRepository struct {
	BaseRepository
}

func NewAssignmentRepository(db *sqlx.DB) repository.AssignmentRepository {
	return &assignmentRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *assignmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.ServiceAssignment, error) {
	query := `SELECT * FROM service_assignments WHERE id = $1`
	var assignment model.ServiceAssignment
	err := r.db.GetContext(ctx, &assignment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("service assignment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service assignment: %w", err)
	}
	return &assignment, nil
}

func (r *assignmentRepository) List(ctx context.Context, filters *model.AssignmentFilters) ([]*model.ServiceAssignment, error) {
	query := `
		SELECT sa.* FROM service_assignments sa
		JOIN hospital_services hs ON hs.id = sa.service_id
		WHERE 1=1
	`
	args := []interface{}{}

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			args = append(args, filters.PatientID)
			query += fmt.Sprintf(` AND sa.patient_id = $%d`, len(args))
		}
		if filters.ServiceType != "" {
			args = append(args, filters.ServiceType)
			query += fmt.Sprintf(` AND hs.type = $%d`, len(args))
		}
		if filters.Status != "" {
			args = append(args, filters.Status)
			query += fmt.Sprintf(` AND sa.status = $%d`, len(args))
		}
		if filters.Date != nil {
			args = append(args, *filters.Date)
			query += fmt.Sprintf(` AND sa.scheduled_at::date = $%d::date`, len(args))
		}
	}
	query += ` ORDER BY sa.scheduled_at DESC`

	var assignments []*model.ServiceAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list service assignments: %w", err)
	}
	return assignments, nil
}

func (r *assignmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AssignmentStatus) error {
	query := `UPDATE service_assignments SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update assignment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("service assignment", nil)
	}
	return nil
}

func (r *assignmentRepository) LabStats(ctx context.Context) (*model.LabStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE sa.status = 'completed') AS completed_count,
			COUNT(*) FILTER (WHERE sa.status = 'pending') AS pending_count,
			COUNT(DISTINCT sa.patient_id) AS patients_served
		FROM service_assignments sa
		JOIN hospital_services hs ON hs.id = sa.service_id
		WHERE hs.type = 'lab'
	`
	var stats model.LabStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get lab stats: %w", err)
	}
	return &stats, nil
}

func (r *assignmentRepository) CreateLabCharges(ctx context.Context, bill *model.Bill, items []*model.BillItem, assignments []*model.ServiceAssignment) error {
	if len(items) != len(assignments) {
		return fmt.Errorf("bill items and assignments must pair up: %d vs %d", len(items), len(assignments))
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()

		billID, err := findOrCreateBill(ctx, tx, bill, now)
		if err != nil {
			return err
		}

		itemQuery := `
			INSERT INTO bill_items (
				id, bill_id, service_id, quantity, amount, discount_amount,
				billing_date, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		`
		for i, item := range items {
			item.BillID = billID
			if _, err := tx.ExecContext(ctx, itemQuery,
				item.ID, item.BillID, item.ServiceID, item.Quantity, item.Amount,
				item.DiscountAmount, item.BillingDate, item.Status, now,
			); err != nil {
				return fmt.Errorf("failed to create bill item: %w", err)
			}

			assignments[i].BillItemID = &item.ID
			if err := insertAssignment(ctx, tx, assignments[i]); err != nil {
				return err
			}
		}

		bill.ID = billID
		return nil
	})
}
