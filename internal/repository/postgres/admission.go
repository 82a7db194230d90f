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

type admissionRepository struct {
	BaseRepository
}

func NewAdmissionRepository(db *sqlx.DB) repository.AdmissionRepository {
	return &admissionRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *admissionRepository) Admit(ctx context.Context, write *model.AdmissionWrite) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()

		patientQuery := `
			INSERT INTO patients (
				id, first_name, last_name, sex, birthday, civil_status,
				phone, address, email, password_hash, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		`
		p := write.Patient
		if _, err := tx.ExecContext(ctx, patientQuery,
			p.ID, p.FirstName, p.LastName, p.Sex, p.Birthday, p.CivilStatus,
			p.Phone, p.Address, p.Email, p.PasswordHash, p.Status, now,
		); err != nil {
			return fmt.Errorf("failed to create patient: %w", err)
		}

		medicalQuery := `
			INSERT INTO medical_details (
				id, patient_id, primary_reason, weight, height, temperature,
				blood_pressure, heart_rate, medical_history, allergies, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		`
		m := write.Medical
		if _, err := tx.ExecContext(ctx, medicalQuery,
			m.ID, m.PatientID, m.PrimaryReason, m.Weight, m.Height, m.Temperature,
			m.BloodPressure, m.HeartRate, m.MedicalHistory, m.Allergies, now,
		); err != nil {
			return fmt.Errorf("failed to create medical detail: %w", err)
		}

		admissionQuery := `
			INSERT INTO admission_details (
				id, patient_id, doctor_id, department_id, room_id, bed_id,
				admission_date, type, source, notes, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		`
		a := write.Admission
		if _, err := tx.ExecContext(ctx, admissionQuery,
			a.ID, a.PatientID, a.DoctorID, a.DepartmentID, a.RoomID, a.BedID,
			a.AdmissionDate, a.Type, a.Source, a.Notes, now,
		); err != nil {
			return fmt.Errorf("failed to create admission: %w", err)
		}

		if a.BedID != nil {
			bedQuery := `UPDATE beds SET patient_id = $1, status = 'occupied', updated_at = $2 WHERE id = $3 AND status = 'available'`
			res, err := tx.ExecContext(ctx, bedQuery, a.PatientID, now, *a.BedID)
			if err != nil {
				return fmt.Errorf("failed to occupy bed: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return apperrors.Unprocessable("bed is no longer available", nil)
			}
		}

		billingQuery := `
			INSERT INTO billing_records (
				id, patient_id, guarantor_name, guarantor_relationship,
				total_charges, payments_made, payment_status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, 0, 0, $5, $6, $6)
		`
		b := write.Billing
		if _, err := tx.ExecContext(ctx, billingQuery,
			b.ID, b.PatientID, b.GuarantorName, b.GuarantorRelationship, b.PaymentStatus, now,
		); err != nil {
			return fmt.Errorf("failed to create billing record: %w", err)
		}

		return nil
	})
}

type admissionContextRow struct {
	model.AdmissionDetail
	RoomRate   float64  `db:"room_rate"`
	BedRate    *float64 `db:"bed_rate"`
	DoctorRate float64  `db:"doctor_rate"`
	DoctorName string   `db:"doctor_name"`
}

func (r *admissionRepository) GetCurrent(ctx context.Context, patientID uuid.UUID) (*model.AdmissionContext, error) {
	query := `
		SELECT a.*,
		       r.rate AS room_rate,
		       b.rate AS bed_rate,
		       d.rate AS doctor_rate,
		       d.name AS doctor_name
		FROM admission_details a
		JOIN rooms r ON r.id = a.room_id
		LEFT JOIN beds b ON b.id = a.bed_id
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.patient_id = $1
		ORDER BY a.admission_date DESC
		LIMIT 1
	`
	var row admissionContextRow
	err := r.db.GetContext(ctx, &row, query, patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("admission", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current admission: %w", err)
	}

	detail := row.AdmissionDetail
	return &model.AdmissionContext{
		Admission:  &detail,
		RoomRate:   row.RoomRate,
		BedRate:    row.BedRate,
		DoctorRate: row.DoctorRate,
		DoctorName: row.DoctorName,
	}, nil
}
