package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/patientcare/hms-api/internal/model"
)

// All repository interfaces in one file
type (
	PatientRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
		// ListWithOrders returns patients that have at least one service
		// assignment or prescription.
		ListWithOrders(ctx context.Context) ([]*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		LockBilling(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	StaffRepository interface {
		GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		ListDepartments(ctx context.Context) ([]*model.Department, error)
		ListDoctorsByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*model.Doctor, error)
		ListAvailableRooms(ctx context.Context, departmentID uuid.UUID) ([]*model.Room, error)
		ListAvailableBeds(ctx context.Context, roomID uuid.UUID) ([]*model.Bed, error)
		GetBed(ctx context.Context, id uuid.UUID) (*model.Bed, error)
	}

	// CatalogRepository reads the hospital service catalog. Prices read
	// here are copied into line items at order time.
	CatalogRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.HospitalService, error)
		List(ctx context.Context, serviceType model.ServiceType) ([]*model.HospitalService, error)
	}

	AdmissionRepository interface {
		// Admit persists the whole admission row set in one transaction,
		// marking the assigned bed occupied when one is given.
		Admit(ctx context.Context, write *model.AdmissionWrite) error
		// GetCurrent returns the latest admission by date with the room,
		// bed and doctor rates joined in.
		GetCurrent(ctx context.Context, patientID uuid.UUID) (*model.AdmissionContext, error)
	}

	// OrderRepository persists computed order write sets.
	OrderRepository interface {
		// CreateMedicationOrder commits the bill (finding today's existing
		// bill first), prescription with items, and pharmacy charge with
		// items as one unit. On any failure nothing is written.
		CreateMedicationOrder(ctx context.Context, order *model.MedicationOrder) error
		CreateAssignment(ctx context.Context, assignment *model.ServiceAssignment) error
		// CreateAssignments commits all assignments or none.
		CreateAssignments(ctx context.Context, assignments []*model.ServiceAssignment) error
	}

	AssignmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.ServiceAssignment, error)
		List(ctx context.Context, filters *model.AssignmentFilters) ([]*model.ServiceAssignment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AssignmentStatus) error
		LabStats(ctx context.Context) (*model.LabStats, error)
		// CreateLabCharges persists a walk-in lab billing: the bill
		// (find-or-create for the date), its items and the assignments,
		// atomically.
		CreateLabCharges(ctx context.Context, bill *model.Bill, items []*model.BillItem, assignments []*model.ServiceAssignment) error
	}

	PrescriptionRepository interface {
		ListItemsForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.PrescriptionItem, error)
		ListPendingItems(ctx context.Context, patientID uuid.UUID) ([]*model.PrescriptionItem, error)
	}

	PharmacyRepository interface {
		GetCharge(ctx context.Context, id uuid.UUID) (*model.PharmacyCharge, error)
		CreateCharge(ctx context.Context, charge *model.PharmacyCharge) error
		ListCharges(ctx context.Context, filters *ChargeFilters) ([]*model.PharmacyCharge, error)
		// ApplyDispense transactionally marks the given items dispensed,
		// records the asked quantity as given on any linked prescription
		// items, and writes the charge's derived status.
		ApplyDispense(ctx context.Context, charge *model.PharmacyCharge, itemIDs []uuid.UUID) error
		Stats(ctx context.Context) (*model.PharmacyStats, error)
	}

	// BillingRepository serves the read-only aggregation; every method
	// is a pure query.
	BillingRepository interface {
		GetRecord(ctx context.Context, patientID uuid.UUID) (*model.BillingRecord, error)
		PharmacySubtotal(ctx context.Context, patientID uuid.UUID) (float64, error)
		AssignmentSubtotal(ctx context.Context, patientID uuid.UUID, serviceType model.ServiceType) (float64, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) error
	}
)

// ChargeFilters narrows pharmacy charge listings.
type ChargeFilters struct {
	Statuses      []model.ChargeStatus
	Search        string
	From          *time.Time
	To            *time.Time
	OnlyDispensed bool // at least one dispensed item
	Limit         int
	OldestFirst   bool
}
