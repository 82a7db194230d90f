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

type catalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) repository.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) Get(ctx context.Context, id uuid.UUID) (*model.HospitalService, error) {
	query := `SELECT * FROM hospital_services WHERE id = $1`
	var svc model.HospitalService
	err := r.db.GetContext(ctx, &svc, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("hospital service", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hospital service: %w", err)
	}
	return &svc, nil
}

func (r *catalogRepository) List(ctx context.Context, serviceType model.ServiceType) ([]*model.HospitalService, error) {
	query := `SELECT * FROM hospital_services`
	args := []interface{}{}
	if serviceType != "" {
		query += ` WHERE type = $1`
		args = append(args, serviceType)
	}
	query += ` ORDER BY name`

	var services []*model.HospitalService
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list hospital services: %w", err)
	}
	return services, nil
}
