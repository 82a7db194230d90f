package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/patientcare/hms-api/pkg/errors"
	"github.com/patientcare/hms-api/pkg/rx"

	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/repository"
)

type OrderService interface {
	// Submit validates and commits one clinical order for the patient.
	// The clinician identity is always caller-supplied; a missing
	// identity is a hard failure, never substituted.
	Submit(ctx context.Context, patientID, clinicianID uuid.UUID, req *model.OrderRequest) (*model.OrderResult, error)
	PatientOrders(ctx context.Context, patientID uuid.UUID) (*model.PatientOrders, error)
	PatientsWithOrders(ctx context.Context) ([]*model.Patient, error)
}

type Service struct {
	patientRepo    repository.PatientRepository
	staffRepo      repository.StaffRepository
	catalog        repository.CatalogRepository
	orderRepo      repository.OrderRepository
	assignmentRepo repository.AssignmentRepository
	admissionRepo  repository.AdmissionRepository
	rxRepo         repository.PrescriptionRepository
	outboxRepo     repository.OutboxRepository
	rxGen          *rx.Generator
}

func NewService(
	patientRepo repository.PatientRepository,
	staffRepo repository.StaffRepository,
	catalog repository.CatalogRepository,
	orderRepo repository.OrderRepository,
	assignmentRepo repository.AssignmentRepository,
	admissionRepo repository.AdmissionRepository,
	rxRepo repository.PrescriptionRepository,
	outboxRepo repository.OutboxRepository,
	rxGen *rx.Generator,
) *Service {
	return &Service{
		patientRepo:    patientRepo,
		staffRepo:      staffRepo,
		catalog:        catalog,
		orderRepo:      orderRepo,
		assignmentRepo: assignmentRepo,
		admissionRepo:  admissionRepo,
		rxRepo:         rxRepo,
		outboxRepo:     outboxRepo,
		rxGen:          rxGen,
	}
}

func (s *Service) Submit(ctx context.Context, patientID, clinicianID uuid.UUID, req *model.OrderRequest) (*model.OrderResult, error) {
	if clinicianID == uuid.Nil {
		return nil, apperrors.BadRequest("no clinician identity supplied", nil)
	}

	patient, err := s.patientRepo.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if patient.BillingLocked() {
		return nil, apperrors.Unprocessable("the patient's bill is locked", nil)
	}

	doctor, err := s.staffRepo.GetDoctor(ctx, clinicianID)
	if err != nil {
		return nil, apperrors.Unprocessable("no doctor profile found", err)
	}

	switch req.Kind {
	case model.OrderKindMedication:
		return s.submitMedication(ctx, patient, doctor, req.Medication)
	case model.OrderKindLab:
		return s.submitLab(ctx, patient, doctor, req.Lab)
	case model.OrderKindService:
		return s.submitService(ctx, patient, doctor, req.Service)
	default:
		return nil, apperrors.BadRequest("unknown order type", nil)
	}
}

func (s *Service) submitMedication(ctx context.Context, patient *model.Patient, doctor *model.Doctor, req *model.MedicationOrderRequest) (*model.OrderResult, error) {
	if err := validateMedicationOrder(req); err != nil {
		return nil, err
	}

	// The bill is per patient per day; the admission link is optional
	// for outpatients.
	var admissionID *uuid.UUID
	if admission, err := s.currentAdmission(ctx, patient.ID); err != nil {
		return nil, err
	} else if admission != nil {
		admissionID = &admission.Admission.ID
	}

	rxNumber, err := s.rxGen.Next()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	now := time.Now()
	bill := &model.Bill{
		Base:          model.Base{ID: uuid.New()},
		PatientID:     patient.ID,
		AdmissionID:   admissionID,
		BillingDate:   now.Truncate(24 * time.Hour),
		PaymentStatus: model.BillStatusPending,
	}

	prescription := &model.Prescription{
		Base:      model.Base{ID: uuid.New()},
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Refills:   req.Refills,
		DAW:       req.DAW,
	}

	var notes *string
	if first := req.Medications[0].Instructions; first != "" {
		notes = &first
	}
	charge := &model.PharmacyCharge{
		Base:              model.Base{ID: uuid.New()},
		PatientID:         patient.ID,
		PrescribingDoctor: doctor.Name,
		RxNumber:          rxNumber,
		Notes:             notes,
		Status:            model.ChargeStatusPending,
	}

	billItems := make([]*model.BillItem, 0, len(req.Medications))
	for _, line := range req.Medications {
		svc, err := s.catalog.Get(ctx, line.ServiceID)
		if err != nil {
			return nil, apperrors.BadRequest("unknown medication service", err)
		}

		// Price snapshot: the catalog value at submission time is what
		// every artifact of this order carries.
		amount := svc.Price * float64(line.Quantity)

		item := &model.PrescriptionItem{
			Base:           model.Base{ID: uuid.New()},
			PrescriptionID: prescription.ID,
			ServiceID:      svc.ID,
			ServiceName:    svc.Name,
			OrderedAt:      now,
			QuantityAsked:  line.Quantity,
			QuantityGiven:  0,
			Duration:       line.Duration,
			DurationUnit:   line.DurationUnit,
			Instructions:   line.Instructions,
			Status:         model.ItemStatusPending,
			UnitPrice:      svc.Price,
		}
		prescription.Items = append(prescription.Items, item)

		billItems = append(billItems, &model.BillItem{
			Base:        model.Base{ID: uuid.New()},
			ServiceID:   svc.ID,
			Quantity:    line.Quantity,
			Amount:      amount,
			BillingDate: now,
			Status:      model.BillStatusPending,
		})

		charge.Items = append(charge.Items, &model.PharmacyChargeItem{
			Base:               model.Base{ID: uuid.New()},
			ChargeID:           charge.ID,
			ServiceID:          svc.ID,
			PrescriptionItemID: &item.ID,
			Quantity:           line.Quantity,
			UnitPrice:          svc.Price,
			Total:              amount,
			Status:             model.ItemStatusPending,
		})
	}
	charge.TotalAmount = model.ChargeTotal(charge.Items)

	order := &model.MedicationOrder{
		Bill:         bill,
		BillItems:    billItems,
		Prescription: prescription,
		Charge:       charge,
	}
	if err := s.orderRepo.CreateMedicationOrder(ctx, order); err != nil {
		log.Error().Err(err).
			Str("patient_id", patient.ID.String()).
			Str("rx_number", rxNumber).
			Msg("medication order failed")
		return nil, apperrors.NewInternal(err)
	}

	s.emitEvent(ctx, model.EventPharmacyChargeCreated, charge)

	return &model.OrderResult{
		Kind:           model.OrderKindMedication,
		BillID:         &bill.ID,
		PrescriptionID: &prescription.ID,
		RxNumber:       rxNumber,
		ChargeTotal:    charge.TotalAmount,
		LineCount:      len(req.Medications),
	}, nil
}

func (s *Service) submitLab(ctx context.Context, patient *model.Patient, doctor *model.Doctor, req *model.LabOrderRequest) (*model.OrderResult, error) {
	if req == nil {
		return nil, apperrors.BadRequest("lab payload required", nil)
	}
	if req.CollectionDate.IsZero() {
		return nil, apperrors.BadRequest("collection date required", nil)
	}
	if !validPriority(req.Priority) {
		return nil, apperrors.BadRequest("invalid priority", nil)
	}

	serviceIDs := dedupe(append(append([]uuid.UUID{}, req.Labs...), req.Studies...))
	if len(serviceIDs) == 0 {
		return nil, apperrors.Unprocessable("select at least one lab or imaging study", nil)
	}

	result := &model.OrderResult{Kind: model.OrderKindLab, LineCount: len(serviceIDs)}
	for _, serviceID := range serviceIDs {
		svc, err := s.catalog.Get(ctx, serviceID)
		if err != nil {
			return nil, apperrors.BadRequest("unknown lab service", err)
		}

		var notes *string
		if req.Diagnosis != "" {
			notes = &req.Diagnosis
		}
		assignment := &model.ServiceAssignment{
			Base:        model.Base{ID: uuid.New()},
			PatientID:   patient.ID,
			DoctorID:    doctor.ID,
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			ScheduledAt: req.CollectionDate,
			Priority:    req.Priority,
			Notes:       notes,
			Status:      model.AssignmentStatusPending,
		}
		// Assignments are created independently; billing is deferred to
		// lab fulfillment.
		if err := s.orderRepo.CreateAssignment(ctx, assignment); err != nil {
			log.Error().Err(err).
				Str("patient_id", patient.ID.String()).
				Str("service", svc.Name).
				Msg("lab order failed")
			return nil, apperrors.NewInternal(err)
		}
		result.AssignmentIDs = append(result.AssignmentIDs, assignment.ID)
	}

	return result, nil
}

func (s *Service) submitService(ctx context.Context, patient *model.Patient, doctor *model.Doctor, req *model.ServiceOrderRequest) (*model.OrderResult, error) {
	if req == nil || len(req.Services) == 0 {
		return nil, apperrors.BadRequest("select at least one service", nil)
	}
	if req.ScheduledDate.IsZero() {
		return nil, apperrors.BadRequest("scheduled date required", nil)
	}
	if !validPriority(req.Priority) {
		return nil, apperrors.BadRequest("invalid priority", nil)
	}

	assignments := make([]*model.ServiceAssignment, 0, len(req.Services))
	for _, serviceID := range req.Services {
		svc, err := s.catalog.Get(ctx, serviceID)
		if err != nil {
			return nil, apperrors.BadRequest("unknown service", err)
		}

		var notes *string
		if req.Instructions != "" {
			notes = &req.Instructions
		}
		assignments = append(assignments, &model.ServiceAssignment{
			Base:        model.Base{ID: uuid.New()},
			PatientID:   patient.ID,
			DoctorID:    doctor.ID,
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			ScheduledAt: req.ScheduledDate,
			Priority:    req.Priority,
			Notes:       notes,
			Status:      model.AssignmentStatusPending,
		})
	}

	if err := s.orderRepo.CreateAssignments(ctx, assignments); err != nil {
		log.Error().Err(err).
			Str("patient_id", patient.ID.String()).
			Int("services", len(assignments)).
			Msg("service order failed")
		return nil, apperrors.NewInternal(err)
	}

	result := &model.OrderResult{Kind: model.OrderKindService, LineCount: len(assignments)}
	for _, assignment := range assignments {
		result.AssignmentIDs = append(result.AssignmentIDs, assignment.ID)
	}
	return result, nil
}

func (s *Service) PatientOrders(ctx context.Context, patientID uuid.UUID) (*model.PatientOrders, error) {
	assignments, err := s.assignmentRepo.List(ctx, &model.AssignmentFilters{PatientID: patientID})
	if err != nil {
		return nil, err
	}
	items, err := s.rxRepo.ListItemsForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &model.PatientOrders{
		ServiceOrders: assignments,
		MedOrders:     items,
	}, nil
}

func (s *Service) PatientsWithOrders(ctx context.Context) ([]*model.Patient, error) {
	return s.patientRepo.ListWithOrders(ctx)
}

// currentAdmission returns nil without error for outpatients.
func (s *Service) currentAdmission(ctx context.Context, patientID uuid.UUID) (*model.AdmissionContext, error) {
	admission, err := s.admissionRepo.GetCurrent(ctx, patientID)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return admission, nil
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
		// Notification is fire-and-forget; the committed order stands.
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to create outbox event")
	}
}

func validateMedicationOrder(req *model.MedicationOrderRequest) error {
	if req == nil || len(req.Medications) == 0 {
		return apperrors.BadRequest("at least one medication is required", nil)
	}
	if req.Refills < 0 {
		return apperrors.BadRequest("refills cannot be negative", nil)
	}
	for _, line := range req.Medications {
		if line.ServiceID == uuid.Nil {
			return apperrors.BadRequest("medication service is required", nil)
		}
		if line.Quantity < 1 {
			return apperrors.BadRequest("quantity must be at least 1", nil)
		}
		if line.Duration < 1 {
			return apperrors.BadRequest("duration must be at least 1", nil)
		}
		if line.DurationUnit != model.DurationDays && line.DurationUnit != model.DurationWeeks {
			return apperrors.BadRequest("duration unit must be days or weeks", nil)
		}
	}
	return nil
}

func validPriority(p model.Priority) bool {
	switch p {
	case model.PriorityRoutine, model.PriorityUrgent, model.PriorityStat:
		return true
	}
	return false
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
