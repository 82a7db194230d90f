package model

// BillingSummary is the on-demand amount-due computation for one
// patient. It is derived from line items on every read and never
// stored.
type BillingSummary struct {
	BaseDue       float64 `json:"base_due"`
	PharmacyTotal float64 `json:"pharmacy_total"`
	LabTotal      float64 `json:"lab_total"`
	ServiceTotal  float64 `json:"service_total"`
	ResourceRate  float64 `json:"resource_rate"`
	DoctorRate    float64 `json:"doctor_rate"`
	AmountDue     float64 `json:"amount_due"`
}

// PatientDashboard is the patient portal summary payload.
type PatientDashboard struct {
	Patient       *Patient             `json:"patient"`
	Admission     *AdmissionContext    `json:"admission,omitempty"`
	Billing       *BillingSummary      `json:"billing"`
	Prescriptions []*PrescriptionItem  `json:"prescriptions"`
	TodaySchedule []*ServiceAssignment `json:"today_schedule"`
	Assignments   []*ServiceAssignment `json:"assignments"`
}
