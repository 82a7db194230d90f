package lab

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/patientcare/hms-api/pkg/errors"

	"github.com/patientcare/hms-api/internal/model"
)

type fakeAssignmentRepo struct {
	assignments    map[uuid.UUID]*model.ServiceAssignment
	listedFilters  *model.AssignmentFilters
	statusUpdates  map[uuid.UUID]model.AssignmentStatus
	chargedBills   []*model.Bill
	chargedItems   [][]*model.BillItem
	chargedAssigns [][]*model.ServiceAssignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{
		assignments:   map[uuid.UUID]*model.ServiceAssignment{},
		statusUpdates: map[uuid.UUID]model.AssignmentStatus{},
	}
}

func (f *fakeAssignmentRepo) Get(_ context.Context, id uuid.UUID) (*model.ServiceAssignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return nil, apperrors.NotFound("assignment", nil)
	}
	return a, nil
}

func (f *fakeAssignmentRepo) List(_ context.Context, filters *model.AssignmentFilters) ([]*model.ServiceAssignment, error) {
	f.listedFilters = filters
	return nil, nil
}

func (f *fakeAssignmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.AssignmentStatus) error {
	f.statusUpdates[id] = status
	return nil
}

func (f *fakeAssignmentRepo) LabStats(context.Context) (*model.LabStats, error) {
	return &model.LabStats{CompletedCount: 3, PendingCount: 2, PatientsServed: 4}, nil
}

func (f *fakeAssignmentRepo) CreateLabCharges(_ context.Context, bill *model.Bill, items []*model.BillItem, assignments []*model.ServiceAssignment) error {
	f.chargedBills = append(f.chargedBills, bill)
	f.chargedItems = append(f.chargedItems, items)
	f.chargedAssigns = append(f.chargedAssigns, assignments)
	return nil
}

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
	svc       *Service
	repo      *fakeAssignmentRepo
	outbox    *fakeOutboxRepo
	patients  *fakePatientRepo
	staff     *fakeStaffRepo
	catalog   *fakeCatalog
	patientID uuid.UUID
	doctorID  uuid.UUID
}

func newFixture() *fixture {
	repo := newFakeAssignmentRepo()
	outbox := &fakeOutboxRepo{}
	patientID := uuid.New()
	doctorID := uuid.New()

	patients := &fakePatientRepo{patients: map[uuid.UUID]*model.Patient{
		patientID: {Base: model.Base{ID: patientID}},
	}}
	staff := &fakeStaffRepo{doctors: map[uuid.UUID]*model.Doctor{
		doctorID: {Base: model.Base{ID: doctorID}, Name: "Dr. Cruz"},
	}}
	catalog := &fakeCatalog{services: map[uuid.UUID]*model.HospitalService{}}

	return &fixture{
		svc:       NewService(repo, patients, staff, catalog, outbox),
		repo:      repo,
		outbox:    outbox,
		patients:  patients,
		staff:     staff,
		catalog:   catalog,
		patientID: patientID,
		doctorID:  doctorID,
	}
}

func (f *fixture) addLab(price float64) uuid.UUID {
	id := uuid.New()
	f.catalog.services[id] = &model.HospitalService{
		Base: model.Base{ID: id}, Name: "CBC", Price: price, Type: model.ServiceTypeLab,
	}
	return id
}

func TestQueueFilters(t *testing.T) {
	f := newFixture()
	date := time.Now()

	_, err := f.svc.Queue(context.Background(), &date)
	require.NoError(t, err)

	require.NotNil(t, f.repo.listedFilters)
	assert.Equal(t, model.ServiceTypeLab, f.repo.listedFilters.ServiceType)
	assert.Equal(t, model.AssignmentStatusPending, f.repo.listedFilters.Status)
	assert.Equal(t, &date, f.repo.listedFilters.Date)
}

func TestCreateChargesBillsAndSchedules(t *testing.T) {
	f := newFixture()
	cbcID := f.addLab(25)
	urinID := f.addLab(15)

	assignments, err := f.svc.CreateCharges(context.Background(), &model.CreateLabChargesRequest{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Charges:   []model.LabChargeLine{{ServiceID: cbcID}, {ServiceID: urinID}},
	})
	require.NoError(t, err)

	require.Len(t, assignments, 2)
	require.Len(t, f.repo.chargedBills, 1)
	require.Len(t, f.repo.chargedItems[0], 2)

	assert.InDelta(t, 25.0, f.repo.chargedItems[0][0].Amount, 0.001)
	assert.InDelta(t, 25.0, assignments[0].Amount, 0.001)
	assert.Equal(t, model.AssignmentStatusConfirmed, assignments[0].Status)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventLabChargeCreated, f.outbox.events[0].EventType)
}

func TestCreateChargesRejectsLockedBilling(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.patients.patients[f.patientID].BillingLockedAt = &now
	cbcID := f.addLab(25)

	_, err := f.svc.CreateCharges(context.Background(), &model.CreateLabChargesRequest{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Charges:   []model.LabChargeLine{{ServiceID: cbcID}},
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnprocessable, apperrors.CodeOf(err))
	assert.Empty(t, f.repo.chargedBills)
}

func TestCreateChargesRejectsNonLabService(t *testing.T) {
	f := newFixture()
	medID := uuid.New()
	f.catalog.services[medID] = &model.HospitalService{
		Base: model.Base{ID: medID}, Name: "Amoxicillin", Price: 5, Type: model.ServiceTypeMedication,
	}

	_, err := f.svc.CreateCharges(context.Background(), &model.CreateLabChargesRequest{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Charges:   []model.LabChargeLine{{ServiceID: medID}},
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}

func TestMarkCompleted(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.repo.assignments[id] = &model.ServiceAssignment{
		Base: model.Base{ID: id}, Status: model.AssignmentStatusPending,
	}

	require.NoError(t, f.svc.MarkCompleted(context.Background(), id))

	assert.Equal(t, model.AssignmentStatusCompleted, f.repo.statusUpdates[id])
	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventLabChargeCompleted, f.outbox.events[0].EventType)
}

func TestMarkCompletedTwiceFails(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.repo.assignments[id] = &model.ServiceAssignment{
		Base: model.Base{ID: id}, Status: model.AssignmentStatusCompleted,
	}

	err := f.svc.MarkCompleted(context.Background(), id)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnprocessable, apperrors.CodeOf(err))
	assert.Empty(t, f.outbox.events)
}

func TestStats(t *testing.T) {
	f := newFixture()

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CompletedCount)
	assert.Equal(t, 2, stats.PendingCount)
	assert.Equal(t, 4, stats.PatientsServed)
}
