package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/patientcare/hms-api/pkg/errors"

	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/repository"
)

type BillingService interface {
	// Summary recomputes the patient's amount due from line items. It is
	// never stored; two calls with no writes in between return the same
	// figures.
	Summary(ctx context.Context, patientID uuid.UUID) (*model.BillingSummary, error)
	Dashboard(ctx context.Context, patientID uuid.UUID) (*model.PatientDashboard, error)
	LockBilling(ctx context.Context, patientID uuid.UUID) error
}

type Service struct {
	patientRepo    repository.PatientRepository
	billingRepo    repository.BillingRepository
	admissionRepo  repository.AdmissionRepository
	assignmentRepo repository.AssignmentRepository
	rxRepo         repository.PrescriptionRepository
}

func NewService(
	patientRepo repository.PatientRepository,
	billingRepo repository.BillingRepository,
	admissionRepo repository.AdmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	rxRepo repository.PrescriptionRepository,
) *Service {
	return &Service{
		patientRepo:    patientRepo,
		billingRepo:    billingRepo,
		admissionRepo:  admissionRepo,
		assignmentRepo: assignmentRepo,
		rxRepo:         rxRepo,
	}
}

func (s *Service) Summary(ctx context.Context, patientID uuid.UUID) (*model.BillingSummary, error) {
	if _, err := s.patientRepo.Get(ctx, patientID); err != nil {
		return nil, err
	}

	summary := &model.BillingSummary{}

	// A missing billing record means no lump charges yet, not an error.
	record, err := s.billingRepo.GetRecord(ctx, patientID)
	if err != nil && apperrors.CodeOf(err) != apperrors.ErrNotFound {
		return nil, err
	}
	if record != nil {
		summary.BaseDue = record.TotalCharges - record.PaymentsMade
	}

	if summary.PharmacyTotal, err = s.billingRepo.PharmacySubtotal(ctx, patientID); err != nil {
		return nil, err
	}
	if summary.LabTotal, err = s.billingRepo.AssignmentSubtotal(ctx, patientID, model.ServiceTypeLab); err != nil {
		return nil, err
	}
	if summary.ServiceTotal, err = s.billingRepo.AssignmentSubtotal(ctx, patientID, model.ServiceTypeOperation); err != nil {
		return nil, err
	}

	// Outpatients have no admission and contribute no room or doctor
	// rates.
	admission, err := s.admissionRepo.GetCurrent(ctx, patientID)
	if err != nil && apperrors.CodeOf(err) != apperrors.ErrNotFound {
		return nil, err
	}
	if admission != nil {
		summary.ResourceRate = admission.ResourceRate()
		summary.DoctorRate = admission.DoctorRate
	}

	summary.AmountDue = summary.BaseDue +
		summary.PharmacyTotal +
		summary.LabTotal +
		summary.ServiceTotal +
		summary.ResourceRate +
		summary.DoctorRate

	return summary, nil
}

func (s *Service) Dashboard(ctx context.Context, patientID uuid.UUID) (*model.PatientDashboard, error) {
	patient, err := s.patientRepo.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}

	summary, err := s.Summary(ctx, patientID)
	if err != nil {
		return nil, err
	}

	admission, err := s.admissionRepo.GetCurrent(ctx, patientID)
	if err != nil && apperrors.CodeOf(err) != apperrors.ErrNotFound {
		return nil, err
	}

	prescriptions, err := s.rxRepo.ListPendingItems(ctx, patientID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.List(ctx, &model.AssignmentFilters{PatientID: patientID})
	if err != nil {
		return nil, err
	}

	// The schedule card only shows confirmed work for today; pending
	// and completed assignments stay on the full list below it.
	today := time.Now()
	todaySchedule, err := s.assignmentRepo.List(ctx, &model.AssignmentFilters{
		PatientID: patientID,
		Status:    model.AssignmentStatusConfirmed,
		Date:      &today,
	})
	if err != nil {
		return nil, err
	}

	return &model.PatientDashboard{
		Patient:       patient,
		Admission:     admission,
		Billing:       summary,
		Prescriptions: prescriptions,
		TodaySchedule: todaySchedule,
		Assignments:   assignments,
	}, nil
}

// LockBilling closes the patient's bill; order intake and walk-in
// charge entry refuse locked patients. Locking twice fails.
func (s *Service) LockBilling(ctx context.Context, patientID uuid.UUID) error {
	if _, err := s.patientRepo.Get(ctx, patientID); err != nil {
		return err
	}
	return s.patientRepo.LockBilling(ctx, patientID, time.Now())
}
