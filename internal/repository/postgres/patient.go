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

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	query := `SELECT * FROM patients WHERE 1=1`
	args := []interface{}{}

	if filters != nil && filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR id::text ILIKE $%d)`,
			len(args), len(args), len(args))
	}
	if filters != nil && filters.Status != "" {
		args = append(args, filters.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY last_name, first_name`

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) ListWithOrders(ctx context.Context) ([]*model.Patient, error) {
	query := `
		SELECT DISTINCT p.* FROM patients p
		WHERE EXISTS (SELECT 1 FROM service_assignments sa WHERE sa.patient_id = p.id)
		   OR EXISTS (SELECT 1 FROM prescriptions pr WHERE pr.patient_id = p.id)
		ORDER BY p.last_name, p.first_name
	`
	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, fmt.Errorf("failed to list patients with orders: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET first_name = $1, last_name = $2, phone = $3, address = $4,
		    civil_status = $5, status = $6, updated_at = $7
		WHERE id = $8
	`
	_, err := r.db.ExecContext(ctx, query,
		patient.FirstName,
		patient.LastName,
		patient.Phone,
		patient.Address,
		patient.CivilStatus,
		patient.Status,
		time.Now(),
		patient.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	return nil
}

func (r *patientRepository) LockBilling(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE patients SET billing_locked_at = $1, updated_at = $1 WHERE id = $2 AND billing_locked_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to lock billing: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.Unprocessable("billing already locked", nil)
	}
	return nil
}
