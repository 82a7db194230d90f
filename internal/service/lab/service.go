package lab

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/patientcare/hms-api/pkg/errors"

	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/repository"
)

type LabService interface {
	Queue(ctx context.Context, date *time.Time) ([]*model.ServiceAssignment, error)
	// CreateCharges records a walk-in lab billing: each line is billed
	// immediately at the catalog price and scheduled as an assignment.
	CreateCharges(ctx context.Context, req *model.CreateLabChargesRequest) ([]*model.ServiceAssignment, error)
	MarkCompleted(ctx context.Context, assignmentID uuid.UUID) error
	History(ctx context.Context, patientID uuid.UUID) ([]*model.ServiceAssignment, error)
	Stats(ctx context.Context) (*model.LabStats, error)
}

type Service struct {
	assignmentRepo repository.AssignmentRepository
	patientRepo    repository.PatientRepository
	staffRepo      repository.StaffRepository
	catalog        repository.CatalogRepository
	outboxRepo     repository.OutboxRepository
}

func NewService(
	assignmentRepo repository.AssignmentRepository,
	patientRepo repository.PatientRepository,
	staffRepo repository.StaffRepository,
	catalog repository.CatalogRepository,
	outboxRepo repository.OutboxRepository,
) *Service {
	return &Service{
		assignmentRepo: assignmentRepo,
		patientRepo:    patientRepo,
		staffRepo:      staffRepo,
		catalog:        catalog,
		outboxRepo:     outboxRepo,
	}
}

// Queue lists pending lab work, optionally narrowed to one collection
// date.
func (s *Service) Queue(ctx context.Context, date *time.Time) ([]*model.ServiceAssignment, error) {
	return s.assignmentRepo.List(ctx, &model.AssignmentFilters{
		ServiceType: model.ServiceTypeLab,
		Status:      model.AssignmentStatusPending,
		Date:        date,
	})
}

func (s *Service) CreateCharges(ctx context.Context, req *model.CreateLabChargesRequest) ([]*model.ServiceAssignment, error) {
	patient, err := s.patientRepo.Get(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.BillingLocked() {
		return nil, apperrors.Unprocessable("the patient's bill is locked", nil)
	}

	doctor, err := s.staffRepo.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, apperrors.Unprocessable("no doctor profile found", err)
	}

	now := time.Now()
	bill := &model.Bill{
		Base:          model.Base{ID: uuid.New()},
		PatientID:     patient.ID,
		BillingDate:   now.Truncate(24 * time.Hour),
		PaymentStatus: model.BillStatusPending,
	}

	items := make([]*model.BillItem, 0, len(req.Charges))
	assignments := make([]*model.ServiceAssignment, 0, len(req.Charges))
	for _, line := range req.Charges {
		svc, err := s.catalog.Get(ctx, line.ServiceID)
		if err != nil {
			return nil, apperrors.BadRequest("unknown lab service", err)
		}
		if svc.Type != model.ServiceTypeLab {
			return nil, apperrors.BadRequest("service is not a lab test", nil)
		}

		item := &model.BillItem{
			Base:        model.Base{ID: uuid.New()},
			ServiceID:   svc.ID,
			Quantity:    1,
			Amount:      svc.Price,
			BillingDate: now,
			Status:      model.BillStatusPending,
		}
		items = append(items, item)

		assignments = append(assignments, &model.ServiceAssignment{
			Base:        model.Base{ID: uuid.New()},
			PatientID:   patient.ID,
			DoctorID:    doctor.ID,
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			ScheduledAt: now,
			Amount:      svc.Price,
			Priority:    model.PriorityRoutine,
			Notes:       req.Notes,
			Status:      model.AssignmentStatusConfirmed,
		})
	}

	if err := s.assignmentRepo.CreateLabCharges(ctx, bill, items, assignments); err != nil {
		log.Error().Err(err).
			Str("patient_id", patient.ID.String()).
			Int("charges", len(items)).
			Msg("lab charge creation failed")
		return nil, apperrors.NewInternal(err)
	}

	s.emitEvent(ctx, model.EventLabChargeCreated, assignments)
	return assignments, nil
}

func (s *Service) MarkCompleted(ctx context.Context, assignmentID uuid.UUID) error {
	assignment, err := s.assignmentRepo.Get(ctx, assignmentID)
	if err != nil {
		return err
	}
	if assignment.Status == model.AssignmentStatusCompleted {
		return apperrors.Unprocessable("assignment already completed", nil)
	}

	if err := s.assignmentRepo.UpdateStatus(ctx, assignmentID, model.AssignmentStatusCompleted); err != nil {
		return err
	}

	assignment.Status = model.AssignmentStatusCompleted
	s.emitEvent(ctx, model.EventLabChargeCompleted, assignment)
	return nil
}

func (s *Service) History(ctx context.Context, patientID uuid.UUID) ([]*model.ServiceAssignment, error) {
	return s.assignmentRepo.List(ctx, &model.AssignmentFilters{
		PatientID:   patientID,
		ServiceType: model.ServiceTypeLab,
	})
}

func (s *Service) Stats(ctx context.Context) (*model.LabStats, error) {
	return s.assignmentRepo.LabStats(ctx)
}

func (s *Service) emitEvent(ctx context.Context, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}
	if err := s.outboxRepo.Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	}); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to create outbox event")
	}
}
