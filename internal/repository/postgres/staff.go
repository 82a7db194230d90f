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

type staffRepository struct {
	db *sqlx.DB
}

func NewStaffRepository(db *sqlx.DB) repository.StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE id = $1`
	var doctor model.Doctor
	err := r.db.GetContext(ctx, &doctor, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("doctor", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *staffRepository) ListDepartments(ctx context.Context) ([]*model.Department, error) {
	query := `SELECT * FROM departments ORDER BY name`
	var departments []*model.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}

func (r *staffRepository) ListDoctorsByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE department_id = $1 ORDER BY name`
	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, departmentID); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *staffRepository) ListAvailableRooms(ctx context.Context, departmentID uuid.UUID) ([]*model.Room, error) {
	query := `SELECT * FROM rooms WHERE department_id = $1 AND status = 'available' ORDER BY number`
	var rooms []*model.Room
	if err := r.db.SelectContext(ctx, &rooms, query, departmentID); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (r *staffRepository) ListAvailableBeds(ctx context.Context, roomID uuid.UUID) ([]*model.Bed, error) {
	query := `SELECT * FROM beds WHERE room_id = $1 AND status = 'available' ORDER BY number`
	var beds []*model.Bed
	if err := r.db.SelectContext(ctx, &beds, query, roomID); err != nil {
		return nil, fmt.Errorf("failed to list beds: %w", err)
	}
	return beds, nil
}

func (r *staffRepository) GetBed(ctx context.Context, id uuid.UUID) (*model.Bed, error) {
	query := `SELECT * FROM beds WHERE id = $1`
	var bed model.Bed
	err := r.db.GetContext(ctx, &bed, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("bed", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bed: %w", err)
	}
	return &bed, nil
}
