package admission

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/patientcare/hms-api/pkg/errors"
	"github.com/patientcare/hms-api/pkg/security"

	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/repository"
)

const portalDomain = "patientcare.com"

type AdmissionService interface {
	// Admit registers the patient, their intake vitals, the admission
	// itself and the billing ledger in one transaction. Generated portal
	// credentials come back in plain text for one-time display.
	Admit(ctx context.Context, req *model.AdmitPatientRequest) (*model.AdmitPatientResult, error)
	CurrentAdmission(ctx context.Context, patientID uuid.UUID) (*model.AdmissionContext, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	SearchPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	Departments(ctx context.Context) ([]*model.Department, error)
	DoctorsByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*model.Doctor, error)
	AvailableRooms(ctx context.Context, departmentID uuid.UUID) ([]*model.Room, error)
	AvailableBeds(ctx context.Context, roomID uuid.UUID) ([]*model.Bed, error)
}

type Service struct {
	admissionRepo repository.AdmissionRepository
	patientRepo   repository.PatientRepository
	staffRepo     repository.StaffRepository
	hasher        security.PasswordHasher
}

func NewService(
	admissionRepo repository.AdmissionRepository,
	patientRepo repository.PatientRepository,
	staffRepo repository.StaffRepository,
	hasher security.PasswordHasher,
) *Service {
	return &Service{
		admissionRepo: admissionRepo,
		patientRepo:   patientRepo,
		staffRepo:     staffRepo,
		hasher:        hasher,
	}
}

func (s *Service) Admit(ctx context.Context, req *model.AdmitPatientRequest) (*model.AdmitPatientResult, error) {
	doctor, err := s.staffRepo.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, apperrors.BadRequest("unknown admitting doctor", err)
	}

	if req.BedID != nil {
		bed, err := s.staffRepo.GetBed(ctx, *req.BedID)
		if err != nil {
			return nil, apperrors.BadRequest("unknown bed", err)
		}
		if bed.Status != model.BedStatusAvailable {
			return nil, apperrors.Unprocessable("bed is no longer available", nil)
		}
	}

	patientID := uuid.New()
	email := portalEmail(req.FirstName, req.LastName, patientID)
	password, err := generatePassword()
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	patient := &model.Patient{
		Base:         model.Base{ID: patientID},
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Sex:          req.Sex,
		Birthday:     req.Birthday,
		CivilStatus:  req.CivilStatus,
		Phone:        req.Phone,
		Address:      req.Address,
		Email:        email,
		PasswordHash: hash,
		Status:       string(model.PatientStatusActive),
	}

	medical := &model.MedicalDetail{
		Base:          model.Base{ID: uuid.New()},
		PatientID:     patientID,
		PrimaryReason: req.PrimaryReason,
		Weight:        req.Weight,
		Height:        req.Height,
		Temperature:   req.Temperature,
		BloodPressure: req.BloodPressure,
		HeartRate:     req.HeartRate,
	}
	if len(req.History) > 0 {
		if medical.MedicalHistory, err = json.Marshal(req.History); err != nil {
			return nil, apperrors.Internal(err)
		}
	}
	if len(req.Allergies) > 0 {
		if medical.Allergies, err = json.Marshal(req.Allergies); err != nil {
			return nil, apperrors.Internal(err)
		}
	}

	write := &model.AdmissionWrite{
		Patient: patient,
		Medical: medical,
		Admission: &model.AdmissionDetail{
			Base:          model.Base{ID: uuid.New()},
			PatientID:     patientID,
			DoctorID:      doctor.ID,
			DepartmentID:  req.DepartmentID,
			RoomID:        req.RoomID,
			BedID:         req.BedID,
			AdmissionDate: time.Now(),
			Type:          req.AdmissionType,
			Source:        req.AdmissionSource,
			Notes:         req.AdmissionNotes,
		},
		Billing: &model.BillingRecord{
			Base:                  model.Base{ID: uuid.New()},
			PatientID:             patientID,
			GuarantorName:         req.GuarantorName,
			GuarantorRelationship: req.GuarantorRelationship,
			PaymentStatus:         "pending",
		},
	}

	if err := s.admissionRepo.Admit(ctx, write); err != nil {
		log.Error().Err(err).
			Str("patient", req.LastName+", "+req.FirstName).
			Msg("admission failed")
		return nil, err
	}

	return &model.AdmitPatientResult{
		Patient:       patient,
		PortalEmail:   email,
		PlainPassword: password,
	}, nil
}

func (s *Service) CurrentAdmission(ctx context.Context, patientID uuid.UUID) (*model.AdmissionContext, error) {
	return s.admissionRepo.GetCurrent(ctx, patientID)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.patientRepo.Get(ctx, id)
}

func (s *Service) SearchPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	return s.patientRepo.List(ctx, filters)
}

func (s *Service) Departments(ctx context.Context) ([]*model.Department, error) {
	return s.staffRepo.ListDepartments(ctx)
}

func (s *Service) DoctorsByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*model.Doctor, error) {
	return s.staffRepo.ListDoctorsByDepartment(ctx, departmentID)
}

func (s *Service) AvailableRooms(ctx context.Context, departmentID uuid.UUID) ([]*model.Room, error) {
	return s.staffRepo.ListAvailableRooms(ctx, departmentID)
}

func (s *Service) AvailableBeds(ctx context.Context, roomID uuid.UUID) ([]*model.Bed, error) {
	return s.staffRepo.ListAvailableBeds(ctx, roomID)
}

// portalEmail derives a unique portal login from the patient's initials
// and a short id fragment, e.g. jr-1a2b3c4d@patientcare.com.
func portalEmail(firstName, lastName string, id uuid.UUID) string {
	initials := strings.ToLower(initial(firstName) + initial(lastName))
	code := strings.ReplaceAll(id.String(), "-", "")[:8]
	return fmt.Sprintf("%s-%s@%s", initials, code, portalDomain)
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "x"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(r)
}

const passwordChars = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generatePassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	for i, b := range buf {
		buf[i] = passwordChars[int(b)%len(passwordChars)]
	}
	return string(buf), nil
}
