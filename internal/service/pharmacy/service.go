package pharmacy

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

type PharmacyService interface {
	// Dispense hands out every still-pending item on the charge. Calling
	// it on a completed charge changes nothing.
	Dispense(ctx context.Context, chargeID uuid.UUID) (*model.DispenseResult, error)
	// PartialDispense hands out only the named items; unknown and
	// already-dispensed ids are ignored, so a selection with nothing
	// left to move is a no-op, not an error.
	PartialDispense(ctx context.Context, chargeID uuid.UUID, req *model.PartialDispenseRequest) (*model.DispenseResult, error)
	CreateCharge(ctx context.Context, req *model.CreateChargeRequest) (*model.PharmacyCharge, error)
	GetCharge(ctx context.Context, id uuid.UUID) (*model.PharmacyCharge, error)
	Queue(ctx context.Context) ([]*model.PharmacyCharge, error)
	History(ctx context.Context, from, to *time.Time, status model.ChargeStatus) ([]*model.PharmacyCharge, error)
	Stats(ctx context.Context) (*model.PharmacyStats, error)
}

type Service struct {
	pharmacyRepo repository.PharmacyRepository
	patientRepo  repository.PatientRepository
	catalog      repository.CatalogRepository
	outboxRepo   repository.OutboxRepository
}

func NewService(
	pharmacyRepo repository.PharmacyRepository,
	patientRepo repository.PatientRepository,
	catalog repository.CatalogRepository,
	outboxRepo repository.OutboxRepository,
) *Service {
	return &Service{
		pharmacyRepo: pharmacyRepo,
		patientRepo:  patientRepo,
		catalog:      catalog,
		outboxRepo:   outboxRepo,
	}
}

func (s *Service) Dispense(ctx context.Context, chargeID uuid.UUID) (*model.DispenseResult, error) {
	charge, err := s.pharmacyRepo.GetCharge(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	if charge.Status == model.ChargeStatusCompleted {
		return &model.DispenseResult{Charge: charge, AlreadyCompleted: true}, nil
	}

	var pending []uuid.UUID
	for _, item := range charge.Items {
		if item.Status == model.ItemStatusPending {
			pending = append(pending, item.ID)
		}
	}
	return s.dispenseItems(ctx, charge, pending)
}

func (s *Service) PartialDispense(ctx context.Context, chargeID uuid.UUID, req *model.PartialDispenseRequest) (*model.DispenseResult, error) {
	if req == nil || len(req.ItemIDs) == 0 {
		return nil, apperrors.BadRequest("select at least one item to dispense", nil)
	}

	charge, err := s.pharmacyRepo.GetCharge(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	if charge.Status == model.ChargeStatusCompleted {
		return &model.DispenseResult{Charge: charge, AlreadyCompleted: true}, nil
	}

	requested := make(map[uuid.UUID]bool, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		requested[id] = true
	}

	// Only items that exist on this charge and are still pending move.
	var selected []uuid.UUID
	for _, item := range charge.Items {
		if requested[item.ID] && item.Status == model.ItemStatusPending {
			selected = append(selected, item.ID)
		}
	}
	return s.dispenseItems(ctx, charge, selected)
}

func (s *Service) dispenseItems(ctx context.Context, charge *model.PharmacyCharge, itemIDs []uuid.UUID) (*model.DispenseResult, error) {
	if len(itemIDs) == 0 {
		return &model.DispenseResult{Charge: charge}, nil
	}

	moving := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		moving[id] = true
	}
	for _, item := range charge.Items {
		if moving[item.ID] {
			item.Status = model.ItemStatusDispensed
		}
	}

	charge.Status = model.DeriveChargeStatus(charge.Items)
	if charge.Status == model.ChargeStatusCompleted {
		now := time.Now()
		charge.DispensedAt = &now
	}

	if err := s.pharmacyRepo.ApplyDispense(ctx, charge, itemIDs); err != nil {
		log.Error().Err(err).
			Str("charge_id", charge.ID.String()).
			Int("items", len(itemIDs)).
			Msg("dispense failed")
		return nil, apperrors.NewInternal(err)
	}

	s.emitEvent(ctx, model.EventPharmacyDispensed, charge)

	return &model.DispenseResult{
		Charge:         charge,
		ItemsDispensed: len(itemIDs),
	}, nil
}

// CreateCharge records a walk-in counter sale outside the doctor order
// flow. Prices are copied from the catalog at entry time.
func (s *Service) CreateCharge(ctx context.Context, req *model.CreateChargeRequest) (*model.PharmacyCharge, error) {
	patient, err := s.patientRepo.Get(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.BillingLocked() {
		return nil, apperrors.Unprocessable("the patient's bill is locked", nil)
	}

	charge := &model.PharmacyCharge{
		Base:              model.Base{ID: uuid.New()},
		PatientID:         patient.ID,
		PrescribingDoctor: req.PrescribingDoctor,
		RxNumber:          req.RxNumber,
		Notes:             req.Notes,
		Status:            model.ChargeStatusPending,
	}
	for _, line := range req.Medications {
		svc, err := s.catalog.Get(ctx, line.ServiceID)
		if err != nil {
			return nil, apperrors.BadRequest("unknown medication service", err)
		}
		charge.Items = append(charge.Items, &model.PharmacyChargeItem{
			Base:      model.Base{ID: uuid.New()},
			ChargeID:  charge.ID,
			ServiceID: svc.ID,
			Quantity:  line.Quantity,
			UnitPrice: svc.Price,
			Total:     svc.Price * float64(line.Quantity),
			Status:    model.ItemStatusPending,
		})
	}
	charge.TotalAmount = model.ChargeTotal(charge.Items)

	if err := s.pharmacyRepo.CreateCharge(ctx, charge); err != nil {
		return nil, apperrors.NewInternal(err)
	}

	s.emitEvent(ctx, model.EventPharmacyChargeCreated, charge)
	return charge, nil
}

func (s *Service) GetCharge(ctx context.Context, id uuid.UUID) (*model.PharmacyCharge, error) {
	return s.pharmacyRepo.GetCharge(ctx, id)
}

// Queue returns unfinished charges, oldest first, for the counter
// worklist. Partially dispensed charges still have pending items and
// stay in the queue until completed.
func (s *Service) Queue(ctx context.Context) ([]*model.PharmacyCharge, error) {
	return s.pharmacyRepo.ListCharges(ctx, &repository.ChargeFilters{
		Statuses:    []model.ChargeStatus{model.ChargeStatusPending, model.ChargeStatusPartial},
		OldestFirst: true,
	})
}

// History returns charges with at least one dispensed item in the date
// range, newest first. A non-empty status narrows the list to one
// worklist (completed or partially dispensed).
func (s *Service) History(ctx context.Context, from, to *time.Time, status model.ChargeStatus) ([]*model.PharmacyCharge, error) {
	filters := &repository.ChargeFilters{
		OnlyDispensed: true,
		From:          from,
		To:            to,
	}
	if status != "" {
		filters.Statuses = []model.ChargeStatus{status}
	}
	return s.pharmacyRepo.ListCharges(ctx, filters)
}

func (s *Service) Stats(ctx context.Context) (*model.PharmacyStats, error) {
	return s.pharmacyRepo.Stats(ctx)
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
