package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/patientcare/hms-api/pkg/errors"
	"github.com/patientcare/hms-api/pkg/rx"

	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/repository"
)

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	return p, nil
}

func (f *fakePatientRepo) List(context.Context, *model.PatientFilters) ([]*model.Patient, error) {
	return nil, nil
}

func (f *fakePatientRepo) ListWithOrders(context.Context) ([]*model.Patient, error) {
	return nil, nil
}

func (f *fakePatientRepo) Update(context.Context, *model.Patient) error { return nil }

func (f *fakePatientRepo) LockBilling(context.Context, uuid.UUID, time.Time) error { return nil }

type fakeStaffRepo struct {
	doctors map[uuid.UUID]*model.Doctor
}

func (f *fakeStaffRepo) GetDoctor(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, apperrors.NotFound("doctor", nil)
	}
	return d, nil
}

func (f *fakeStaffRepo) ListDepartments(context.Context) ([]*model.Department, error) {
	return nil, nil
}

func (f *fakeStaffRepo) ListDoctorsByDepartment(context.Context, uuid.UUID) ([]*model.Doctor, error) {
	return nil, nil
}

func (f *fakeStaffRepo) ListAvailableRooms(context.Context, uuid.UUID) ([]*model.Room, error) {
	return nil, nil
}

func (f *fakeStaffRepo) ListAvailableBeds(context.Context, uuid.UUID) ([]*model.Bed, error) {
	return nil, nil
}

func (f *fakeStaffRepo) GetBed(context.Context, uuid.UUID) (*model.Bed, error) { return nil, nil }

type fakeCatalog struct {
	services map[uuid.UUID]*model.HospitalService
}

func (f *fakeCatalog) Get(_ context.Context, id uuid.UUID) (*model.HospitalService, error) {
	svc, ok := f.services[id]
	if !ok {
		return nil, apperrors.NotFound("service", nil)
	}
	return svc, nil
}

func (f *fakeCatalog) List(context.Context, model.ServiceType) ([]*model.HospitalService, error) {
	return nil, nil
}

type fakeOrderRepo struct {
	medicationOrders []*model.MedicationOrder
	assignments      []*model.ServiceAssignment
	batchCalls       int
	failAfter        int // fail CreateAssignment after N successes; 0 disables
}

func (f *fakeOrderRepo) CreateMedicationOrder(_ context.Context, order *model.MedicationOrder) error {
	f.medicationOrders = append(f.medicationOrders, order)
	return nil
}

func (f *fakeOrderRepo) CreateAssignment(_ context.Context, assignment *model.ServiceAssignment) error {
	if f.failAfter > 0 && len(f.assignments) >= f.failAfter {
		return assert.AnError
	}
	f.assignments = append(f.assignments, assignment)
	return nil
}

func (f *fakeOrderRepo) CreateAssignments(_ context.Context, assignments []*model.ServiceAssignment) error {
	f.batchCalls++
	f.assignments = append(f.assignments, assignments...)
	return nil
}

type fakeAssignmentRepo struct {
	assignments []*model.ServiceAssignment
}

func (f *fakeAssignmentRepo) Get(context.Context, uuid.UUID) (*model.ServiceAssignment, error) {
	return nil, apperrors.NotFound("assignment", nil)
}

func (f *fakeAssignmentRepo) List(_ context.Context, _ *model.AssignmentFilters) ([]*model.ServiceAssignment, error) {
	return f.assignments, nil
}

func (f *fakeAssignmentRepo) UpdateStatus(context.Context, uuid.UUID, model.AssignmentStatus) error {
	return nil
}

func (f *fakeAssignmentRepo) LabStats(context.Context) (*model.LabStats, error) { return nil, nil }

func (f *fakeAssignmentRepo) CreateLabCharges(context.Context, *model.Bill, []*model.BillItem, []*model.ServiceAssignment) error {
	return nil
}

type fakeAdmissionRepo struct {
	current *model.AdmissionContext
}

func (f *fakeAdmissionRepo) Admit(context.Context, *model.AdmissionWrite) error { return nil }

func (f *fakeAdmissionRepo) GetCurrent(context.Context, uuid.UUID) (*model.AdmissionContext, error) {
	if f.current == nil {
		return nil, apperrors.NotFound("admission", nil)
	}
	return f.current, nil
}

type fakePrescriptionRepo struct {
	items []*model.PrescriptionItem
}

func (f *fakePrescriptionRepo) ListItemsForPatient(context.Context, uuid.UUID) ([]*model.PrescriptionItem, error) {
	return f.items, nil
}

func (f *fakePrescriptionRepo) ListPendingItems(context.Context, uuid.UUID) ([]*model.PrescriptionItem, error) {
	return f.items, nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *model.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEvents(context.Context, int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) UpdateStatus(context.Context, uuid.UUID, string, *string) error {
	return nil
}

type fixture struct {
	svc        *Service
	patientID  uuid.UUID
	doctorID   uuid.UUID
	orderRepo  *fakeOrderRepo
	outboxRepo *fakeOutboxRepo
	catalog    *fakeCatalog
	patients   *fakePatientRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	patientID := uuid.New()
	doctorID := uuid.New()

	patients := &fakePatientRepo{patients: map[uuid.UUID]*model.Patient{
		patientID: {Base: model.Base{ID: patientID}, FirstName: "Jane", LastName: "Reyes"},
	}}
	staff := &fakeStaffRepo{doctors: map[uuid.UUID]*model.Doctor{
		doctorID: {Base: model.Base{ID: doctorID}, Name: "Dr. Cruz", Rate: 500},
	}}
	catalog := &fakeCatalog{services: map[uuid.UUID]*model.HospitalService{}}
	orderRepo := &fakeOrderRepo{}
	outboxRepo := &fakeOutboxRepo{}

	svc := NewService(
		patients,
		staff,
		catalog,
		orderRepo,
		&fakeAssignmentRepo{},
		&fakeAdmissionRepo{},
		&fakePrescriptionRepo{},
		outboxRepo,
		rx.NewGenerator(),
	)

	return &fixture{
		svc:        svc,
		patientID:  patientID,
		doctorID:   doctorID,
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		catalog:    catalog,
		patients:   patients,
	}
}

func (f *fixture) addService(price float64, serviceType model.ServiceType) uuid.UUID {
	id := uuid.New()
	f.catalog.services[id] = &model.HospitalService{
		Base:  model.Base{ID: id},
		Name:  "svc-" + id.String()[:8],
		Price: price,
		Type:  serviceType,
	}
	return id
}

func TestSubmitRequiresClinician(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), f.patientID, uuid.Nil, &model.OrderRequest{
		Kind: model.OrderKindMedication,
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
	assert.Empty(t, f.orderRepo.medicationOrders)
}

func TestSubmitRejectsLockedBilling(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.patients.patients[f.patientID].BillingLockedAt = &now
	medID := f.addService(10, model.ServiceTypeMedication)

	_, err := f.svc.Submit(context.Background(), f.patientID, f.doctorID, &model.OrderRequest{
		Kind: model.OrderKindMedication,
		Medication: &model.MedicationOrderRequest{
			Medications: []model.MedicationLine{
				{ServiceID: medID, Quantity: 1, Duration: 1, DurationUnit: model.DurationDays},
			},
		},
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnprocessable, apperrors.CodeOf(err))
	assert.Empty(t, f.orderRepo.medicationOrders)
	assert.Empty(t, f.orderRepo.assignments)
}

func TestSubmitUnknownKind(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), f.patientID, f.doctorID, &model.OrderRequest{Kind: "referral"})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}

func TestSubmitMedicationOrder(t *testing.T) {
	f := newFixture(t)
	amoxID := f.addService(12.50, model.ServiceTypeMedication)
	ibuID := f.addService(4.25, model.ServiceTypeMedication)

	result, err := f.svc.Submit(context.Background(), f.patientID, f.doctorID, &model.OrderRequest{
		Kind: model.OrderKindMedication,
		Medication: &model.MedicationOrderRequest{
			Refills: 2,
			Medications: []model.MedicationLine{
				{ServiceID: amoxID, Quantity: 30, Duration: 10, DurationUnit: model.DurationDays, Instructions: "after meals"},
				{ServiceID: ibuID, Quantity: 12, Duration: 2, DurationUnit: model.DurationWeeks},
			},
		},
	})

	require.NoError(t, err)
	require.Len(t, f.orderRepo.medicationOrders, 1)
	order := f.orderRepo.medicationOrders[0]

	// One prescription item, bill item and charge item per requested line.
	assert.Len(t, order.Prescription.Items, 2)
	assert.Len(t, order.BillItems, 2)
	assert.Len(t, order.Charge.Items, 2)
	assert.Equal(t, 2, result.LineCount)

	wantTotal := 12.50*30 + 4.25*12
	assert.InDelta(t, wantTotal, order.Charge.TotalAmount, 0.001)
	assert.InDelta(t, wantTotal, result.ChargeTotal, 0.001)

	assert.Equal(t, 2, order.Prescription.Refills)
	assert.Equal(t, model.ChargeStatusPending, order.Charge.Status)
	assert.Equal(t, "Dr. Cruz", order.Charge.PrescribingDoctor)

	assert.Regexp(t, `^RX\d{14}[A-Z0-9]{3}$`, result.RxNumber)
	assert.Equal(t, result.RxNumber, order.Charge.RxNumber)

	for i, item := range order.Prescription.Items {
		assert.Equal(t, model.ItemStatusPending, item.Status)
		assert.Zero(t, item.QuantityGiven)
		require.NotNil(t, order.Charge.Items[i].PrescriptionItemID)
		assert.Equal(t, item.ID, *order.Charge.Items[i].PrescriptionItemID)
		assert.Equal(t, item.UnitPrice, order.Charge.Items[i].UnitPrice)
	}

	require.Len(t, f.outboxRepo.events, 1)
	assert.Equal(t, model.EventPharmacyChargeCreated, f.outboxRepo.events[0].EventType)
}

func TestSubmitMedicationUnknownService(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), f.patientID, f.doctorID, &model.OrderRequest{
		Kind: model.OrderKindMedication,
		Medication: &model.MedicationOrderRequest{
			Medications: []model.MedicationLine{
				{ServiceID: uuid.New(), Quantity: 1, Duration: 1, DurationUnit: model.DurationDays},
			},
		},
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
	assert.Empty(t, f.orderRepo.medicationOrders)
}

func TestSubmitLabOrderDeduplicates(t *testing.T) {
	f := newFixture(t)
	cbcID := f.addService(25, model.ServiceTypeLab)
	xrayID := f.addService(80, model.ServiceTypeLab)

	result, err := f.svc.Submit(context.Background(), f.patientID, f.doctorID, &model.OrderRequest{
		Kind: model.OrderKindLab,
		Lab: &model.LabOrderRequest{
			Labs:           []uuid.UUID{cbcID, cbcID},
			Studies:        []uuid.UUID{xrayID, cbcID},
			Diagnosis:      "r/o pneumonia",
			CollectionDate: time.Now().Add(24 * time.Hour),
			Priority:       model.PriorityUrgent,
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.LineCount)
	assert.Len(t, f.orderRepo.assignments, 2)
	assert.Len(t, result.AssignmentIDs, 2)

	for _, assignment := range f.orderRepo.assignments {
		assert.Equal(t, model.AssignmentStatusPending, assignment.Status)
		assert.Equal(t, model.PriorityUrgent, assignment.Priority)
		assert.Zero(t, assignment.Amount)
		require.NotNil(t, assignment.Notes)
		assert.Equal(t, "r/o pneumonia", *assignment.Notes)
	}
}

func TestSubmitLabOrderEmptySelection(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), f.patientID, f.doctorID, &model.OrderRequest{
		Kind: model.OrderKindLab,
		Lab: &model.LabOrderRequest{
			CollectionDate: time.Now(),
			Priority:       model.PriorityRoutine,
		},
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnprocessable, apperrors.CodeOf(err))
	assert.Empty(t, f.orderRepo.assignments)
}

func TestSubmitLabOrderPartialFailureKeepsCreated(t *testing.T) {
	f := newFixture(t)
	f.orderRepo.failAfter = 1
	a := f.addService(25, model.ServiceTypeLab)
	b := f.addService(80, model.ServiceTypeLab)

	_, err := f.svc.Submit(context.Background(), f.patientID, f.doctorID, &model.OrderRequest{
		Kind: model.OrderKindLab,
		Lab: &model.LabOrderRequest{
			Labs:           []uuid.UUID{a, b},
			CollectionDate: time.Now(),
			Priority:       model.PriorityRoutine,
		},
	})

	// Lab creates are independent: the first succeeded and stays.
	require.Error(t, err)
	assert.Len(t, f.orderRepo.assignments, 1)
}

func TestSubmitServiceOrderIsBatched(t *testing.T) {
	f := newFixture(t)
	opID := f.addService(1500, model.ServiceTypeOperation)
	ptID := f.addService(200, model.ServiceTypeOperation)

	result, err := f.svc.Submit(context.Background(), f.patientID, f.doctorID, &model.OrderRequest{
		Kind: model.OrderKindService,
		Service: &model.ServiceOrderRequest{
			Services:      []uuid.UUID{opID, ptID},
			ScheduledDate: time.Now().Add(48 * time.Hour),
			Priority:      model.PriorityRoutine,
			Instructions:  "NPO after midnight",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.LineCount)
	assert.Equal(t, 1, f.orderRepo.batchCalls)
	assert.Len(t, f.orderRepo.assignments, 2)
}

func TestSubmitServiceOrderInvalidPriority(t *testing.T) {
	f := newFixture(t)
	opID := f.addService(1500, model.ServiceTypeOperation)

	_, err := f.svc.Submit(context.Background(), f.patientID, f.doctorID, &model.OrderRequest{
		Kind: model.OrderKindService,
		Service: &model.ServiceOrderRequest{
			Services:      []uuid.UUID{opID},
			ScheduledDate: time.Now(),
			Priority:      "immediately",
		},
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}

func TestPatientOrders(t *testing.T) {
	f := newFixture(t)
	assignments := []*model.ServiceAssignment{{Base: model.Base{ID: uuid.New()}}}
	items := []*model.PrescriptionItem{{Base: model.Base{ID: uuid.New()}}, {Base: model.Base{ID: uuid.New()}}}

	svc := NewService(
		f.patients,
		&fakeStaffRepo{},
		f.catalog,
		f.orderRepo,
		&fakeAssignmentRepo{assignments: assignments},
		&fakeAdmissionRepo{},
		&fakePrescriptionRepo{items: items},
		f.outboxRepo,
		rx.NewGenerator(),
	)

	orders, err := svc.PatientOrders(context.Background(), f.patientID)
	require.NoError(t, err)
	assert.Len(t, orders.ServiceOrders, 1)
	assert.Len(t, orders.MedOrders, 2)
}

var _ repository.PatientRepository = (*fakePatientRepo)(nil)
var _ repository.OrderRepository = (*fakeOrderRepo)(nil)
var _ repository.AdmissionRepository = (*fakeAdmissionRepo)(nil)
