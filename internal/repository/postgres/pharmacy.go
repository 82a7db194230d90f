package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperrors "github.com/patientcare/hms-api/pkg/errors"

	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/repository"
)

type pharmacyRepository struct {
	BaseRepository
}

func NewPharmacyRepository(db *sqlx.DB) repository.PharmacyRepository {
	return &pharmacyRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *pharmacyRepository) GetCharge(ctx context.Context, id uuid.UUID) (*model.PharmacyCharge, error) {
	query := `SELECT * FROM pharmacy_charges WHERE id = $1`
	var charge model.PharmacyCharge
	err := r.db.GetContext(ctx, &charge, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("pharmacy charge", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pharmacy charge: %w", err)
	}

	itemQuery := `SELECT * FROM pharmacy_charge_items WHERE charge_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &charge.Items, itemQuery, id); err != nil {
		return nil, fmt.Errorf("failed to load charge items: %w", err)
	}
	return &charge, nil
}

func (r *pharmacyRepository) CreateCharge(ctx context.Context, charge *model.PharmacyCharge) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()

		chargeQuery := `
			INSERT INTO pharmacy_charges (
				id, patient_id, prescribing_doctor, rx_number, notes,
				total_amount, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		`
		if _, err := tx.ExecContext(ctx, chargeQuery,
			charge.ID, charge.PatientID, charge.PrescribingDoctor, charge.RxNumber,
			charge.Notes, charge.TotalAmount, charge.Status, now,
		); err != nil {
			return fmt.Errorf("failed to create pharmacy charge: %w", err)
		}

		itemQuery := `
			INSERT INTO pharmacy_charge_items (
				id, charge_id, service_id, prescription_item_id, quantity,
				unit_price, total, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		`
		for _, item := range charge.Items {
			if _, err := tx.ExecContext(ctx, itemQuery,
				item.ID, item.ChargeID, item.ServiceID, item.PrescriptionItemID,
				item.Quantity, item.UnitPrice, item.Total, item.Status, now,
			); err != nil {
				return fmt.Errorf("failed to create pharmacy charge item: %w", err)
			}
		}

		return nil
	})
}

func (r *pharmacyRepository) ListCharges(ctx context.Context, filters *repository.ChargeFilters) ([]*model.PharmacyCharge, error) {
	query := `SELECT DISTINCT pc.* FROM pharmacy_charges pc`
	args := []interface{}{}

	if filters != nil && filters.Search != "" {
		query += ` JOIN patients p ON p.id = pc.patient_id`
	}
	if filters != nil && filters.OnlyDispensed {
		query += ` JOIN pharmacy_charge_items pci ON pci.charge_id = pc.id AND pci.status = 'dispensed'`
	}
	query += ` WHERE 1=1`

	if filters != nil {
		if len(filters.Statuses) > 0 {
			statuses := make([]string, len(filters.Statuses))
			for i, status := range filters.Statuses {
				statuses[i] = string(status)
			}
			args = append(args, pq.Array(statuses))
			query += fmt.Sprintf(` AND pc.status = ANY($%d)`, len(args))
		}
		if filters.Search != "" {
			args = append(args, "%"+filters.Search+"%")
			query += fmt.Sprintf(` AND (pc.rx_number ILIKE $%d OR p.first_name || ' ' || p.last_name ILIKE $%d)`,
				len(args), len(args))
		}
		if filters.From != nil {
			args = append(args, *filters.From)
			query += fmt.Sprintf(` AND pc.created_at >= $%d`, len(args))
		}
		if filters.To != nil {
			args = append(args, *filters.To)
			query += fmt.Sprintf(` AND pc.created_at <= $%d`, len(args))
		}
	}

	if filters != nil && filters.OldestFirst {
		query += ` ORDER BY pc.created_at ASC`
	} else {
		query += ` ORDER BY pc.created_at DESC`
	}
	if filters != nil && filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	var charges []*model.PharmacyCharge
	if err := r.db.SelectContext(ctx, &charges, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list pharmacy charges: %w", err)
	}

	for _, charge := range charges {
		itemQuery := `SELECT * FROM pharmacy_charge_items WHERE charge_id = $1 ORDER BY created_at`
		if err := r.db.SelectContext(ctx, &charge.Items, itemQuery, charge.ID); err != nil {
			return nil, fmt.Errorf("failed to load charge items: %w", err)
		}
	}
	return charges, nil
}

func (r *pharmacyRepository) ApplyDispense(ctx context.Context, charge *model.PharmacyCharge, itemIDs []uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()

		itemQuery := `
			UPDATE pharmacy_charge_items
			SET status = 'dispensed', updated_at = $1
			WHERE id = $2 AND status = 'pending'
		`
		rxItemQuery := `
			UPDATE prescription_items
			SET status = 'dispensed', quantity_given = quantity_asked, updated_at = $1
			WHERE id = $2 AND status = 'pending'
		`
		byID := make(map[uuid.UUID]*model.PharmacyChargeItem, len(charge.Items))
		for _, item := range charge.Items {
			byID[item.ID] = item
		}

		for _, id := range itemIDs {
			if _, err := tx.ExecContext(ctx, itemQuery, now, id); err != nil {
				return fmt.Errorf("failed to dispense charge item: %w", err)
			}
			if item, ok := byID[id]; ok && item.PrescriptionItemID != nil {
				if _, err := tx.ExecContext(ctx, rxItemQuery, now, *item.PrescriptionItemID); err != nil {
					return fmt.Errorf("failed to update prescription item: %w", err)
				}
			}
		}

		chargeQuery := `
			UPDATE pharmacy_charges
			SET status = $1, dispensed_at = $2, updated_at = $3
			WHERE id = $4
		`
		if _, err := tx.ExecContext(ctx, chargeQuery,
			charge.Status, charge.DispensedAt, now, charge.ID,
		); err != nil {
			return fmt.Errorf("failed to update charge status: %w", err)
		}

		return nil
	})
}

func (r *pharmacyRepository) Stats(ctx context.Context) (*model.PharmacyStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'completed') AS completed_charges,
			COUNT(*) FILTER (WHERE status IN ('pending', 'partially_dispensed')) AS pending_charges,
			COUNT(DISTINCT patient_id) FILTER (WHERE status = 'completed') AS patients_served
		FROM pharmacy_charges
	`
	var stats model.PharmacyStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get pharmacy stats: %w", err)
	}
	return &stats, nil
}
