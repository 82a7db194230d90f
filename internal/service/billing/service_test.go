package billing

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

type fakePatientRepo struct {
	patient    *model.Patient
	lockedAt   *time.Time
	lockCalled bool
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	if f.patient == nil || f.patient.ID != id {
		return nil, apperrors.NotFound("patient", nil)
	}
	return f.patient, nil
}

func (f *fakePatientRepo) List(context.Context, *model.PatientFilters) ([]*model.Patient, error) {
	return nil, nil
}

func (f *fakePatientRepo) ListWithOrders(context.Context) ([]*model.Patient, error) {
	return nil, nil
}

func (f *fakePatientRepo) Update(context.Context, *model.Patient) error { return nil }

func (f *fakePatientRepo) LockBilling(_ context.Context, _ uuid.UUID, at time.Time) error {
	if f.lockedAt != nil {
		return apperrors.Unprocessable("billing already locked", nil)
	}
	f.lockedAt = &at
	f.lockCalled = true
	return nil
}

type fakeBillingRepo struct {
	record       *model.BillingRecord
	pharmacy     float64
	labTotal     float64
	serviceTotal float64
}

func (f *fakeBillingRepo) GetRecord(context.Context, uuid.UUID) (*model.BillingRecord, error) {
	if f.record == nil {
		return nil, apperrors.NotFound("billing record", nil)
	}
	return f.record, nil
}

func (f *fakeBillingRepo) PharmacySubtotal(context.Context, uuid.UUID) (float64, error) {
	return f.pharmacy, nil
}

func (f *fakeBillingRepo) AssignmentSubtotal(_ context.Context, _ uuid.UUID, serviceType model.ServiceType) (float64, error) {
	if serviceType == model.ServiceTypeLab {
		return f.labTotal, nil
	}
	return f.serviceTotal, nil
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

type fakeAssignmentRepo struct {
	assignments  []*model.ServiceAssignment
	today        []*model.ServiceAssignment
	todayFilters *model.AssignmentFilters
}

func (f *fakeAssignmentRepo) Get(context.Context, uuid.UUID) (*model.ServiceAssignment, error) {
	return nil, apperrors.NotFound("assignment", nil)
}

func (f *fakeAssignmentRepo) List(_ context.Context, filters *model.AssignmentFilters) ([]*model.ServiceAssignment, error) {
	if filters != nil && filters.Date != nil {
		f.todayFilters = filters
		if filters.Status != model.AssignmentStatusConfirmed {
			return nil, nil
		}
		return f.today, nil
	}
	return f.assignments, nil
}

func (f *fakeAssignmentRepo) UpdateStatus(context.Context, uuid.UUID, model.AssignmentStatus) error {
	return nil
}

func (f *fakeAssignmentRepo) LabStats(context.Context) (*model.LabStats, error) { return nil, nil }

func (f *fakeAssignmentRepo) CreateLabCharges(context.Context, *model.Bill, []*model.BillItem, []*model.ServiceAssignment) error {
	return nil
}

type fakePrescriptionRepo struct {
	pending []*model.PrescriptionItem
}

func (f *fakePrescriptionRepo) ListItemsForPatient(context.Context, uuid.UUID) ([]*model.PrescriptionItem, error) {
	return f.pending, nil
}

func (f *fakePrescriptionRepo) ListPendingItems(context.Context, uuid.UUID) ([]*model.PrescriptionItem, error) {
	return f.pending, nil
}

func TestSummaryAggregatesAllComponents(t *testing.T) {
	patientID := uuid.New()
	bedRate := 950.0

	svc := NewService(
		&fakePatientRepo{patient: &model.Patient{Base: model.Base{ID: patientID}}},
		&fakeBillingRepo{
			record:       &model.BillingRecord{TotalCharges: 5000, PaymentsMade: 1500},
			pharmacy:     375.0,
			labTotal:     105.0,
			serviceTotal: 1700.0,
		},
		&fakeAdmissionRepo{current: &model.AdmissionContext{
			Admission:  &model.AdmissionDetail{},
			RoomRate:   700,
			BedRate:    &bedRate,
			DoctorRate: 500,
		}},
		&fakeAssignmentRepo{},
		&fakePrescriptionRepo{},
	)

	summary, err := svc.Summary(context.Background(), patientID)
	require.NoError(t, err)

	assert.InDelta(t, 3500.0, summary.BaseDue, 0.001)
	assert.InDelta(t, 375.0, summary.PharmacyTotal, 0.001)
	assert.InDelta(t, 105.0, summary.LabTotal, 0.001)
	assert.InDelta(t, 1700.0, summary.ServiceTotal, 0.001)
	// Bed rate wins over room rate when a bed is assigned.
	assert.InDelta(t, 950.0, summary.ResourceRate, 0.001)
	assert.InDelta(t, 500.0, summary.DoctorRate, 0.001)
	assert.InDelta(t, 3500+375+105+1700+950+500, summary.AmountDue, 0.001)
}

func TestSummaryWithoutRecordOrAdmission(t *testing.T) {
	patientID := uuid.New()

	svc := NewService(
		&fakePatientRepo{patient: &model.Patient{Base: model.Base{ID: patientID}}},
		&fakeBillingRepo{pharmacy: 42.5},
		&fakeAdmissionRepo{},
		&fakeAssignmentRepo{},
		&fakePrescriptionRepo{},
	)

	summary, err := svc.Summary(context.Background(), patientID)
	require.NoError(t, err)

	assert.Zero(t, summary.BaseDue)
	assert.Zero(t, summary.ResourceRate)
	assert.Zero(t, summary.DoctorRate)
	assert.InDelta(t, 42.5, summary.AmountDue, 0.001)
}

func TestSummaryRoomRateWithoutBed(t *testing.T) {
	patientID := uuid.New()

	svc := NewService(
		&fakePatientRepo{patient: &model.Patient{Base: model.Base{ID: patientID}}},
		&fakeBillingRepo{},
		&fakeAdmissionRepo{current: &model.AdmissionContext{
			Admission: &model.AdmissionDetail{},
			RoomRate:  700,
		}},
		&fakeAssignmentRepo{},
		&fakePrescriptionRepo{},
	)

	summary, err := svc.Summary(context.Background(), patientID)
	require.NoError(t, err)
	assert.InDelta(t, 700.0, summary.ResourceRate, 0.001)
}

func TestSummaryUnknownPatient(t *testing.T) {
	svc := NewService(
		&fakePatientRepo{},
		&fakeBillingRepo{},
		&fakeAdmissionRepo{},
		&fakeAssignmentRepo{},
		&fakePrescriptionRepo{},
	)

	_, err := svc.Summary(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestDashboardAssembly(t *testing.T) {
	patientID := uuid.New()
	pending := []*model.PrescriptionItem{{Base: model.Base{ID: uuid.New()}}}
	all := []*model.ServiceAssignment{
		{Base: model.Base{ID: uuid.New()}, Status: model.AssignmentStatusConfirmed},
		{Base: model.Base{ID: uuid.New()}},
	}
	assignments := &fakeAssignmentRepo{assignments: all, today: all[:1]}

	svc := NewService(
		&fakePatientRepo{patient: &model.Patient{Base: model.Base{ID: patientID}}},
		&fakeBillingRepo{},
		&fakeAdmissionRepo{},
		assignments,
		&fakePrescriptionRepo{pending: pending},
	)

	dashboard, err := svc.Dashboard(context.Background(), patientID)
	require.NoError(t, err)

	assert.Equal(t, patientID, dashboard.Patient.ID)
	assert.Nil(t, dashboard.Admission)
	require.NotNil(t, dashboard.Billing)
	assert.Len(t, dashboard.Prescriptions, 1)
	assert.Len(t, dashboard.Assignments, 2)

	// The day's schedule only carries confirmed assignments.
	require.NotNil(t, assignments.todayFilters)
	assert.Equal(t, model.AssignmentStatusConfirmed, assignments.todayFilters.Status)
	assert.Len(t, dashboard.TodaySchedule, 1)
}

func TestLockBillingIsOneShot(t *testing.T) {
	patientID := uuid.New()
	patients := &fakePatientRepo{patient: &model.Patient{Base: model.Base{ID: patientID}}}

	svc := NewService(patients, &fakeBillingRepo{}, &fakeAdmissionRepo{}, &fakeAssignmentRepo{}, &fakePrescriptionRepo{})

	require.NoError(t, svc.LockBilling(context.Background(), patientID))
	assert.True(t, patients.lockCalled)

	err := svc.LockBilling(context.Background(), patientID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnprocessable, apperrors.CodeOf(err))
}
