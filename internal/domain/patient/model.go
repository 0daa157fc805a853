package patient

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

type Patient struct {
	ID               int64
	Name             string
	HospitalNumber   string
	DateOfBirth      time.Time
	PhonePrimary     string
	Address          string
	PinCode          *string
	DigiPin          *string
	AdditionalPhones []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DOB returns the date of birth as YYYY-MM-DD.
func (p *Patient) DOB() string {
	return p.DateOfBirth.Format(DateLayout)
}

type patientJSON struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	HospitalNumber   string    `json:"hospital_number"`
	DateOfBirth      string    `json:"date_of_birth"`
	Age              string    `json:"age,omitempty"`
	PhonePrimary     string    `json:"phone_primary"`
	Address          string    `json:"address"`
	PinCode          *string   `json:"pin_code"`
	DigiPin          *string   `json:"digi_pin"`
	AdditionalPhones []string  `json:"additional_phones"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (p *Patient) toJSON(age string) patientJSON {
	phones := p.AdditionalPhones
	if phones == nil {
		phones = []string{}
	}
	return patientJSON{
		ID:               p.ID,
		Name:             p.Name,
		HospitalNumber:   p.HospitalNumber,
		DateOfBirth:      p.DOB(),
		Age:              age,
		PhonePrimary:     p.PhonePrimary,
		Address:          p.Address,
		PinCode:          p.PinCode,
		DigiPin:          p.DigiPin,
		AdditionalPhones: phones,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (p *Patient) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.toJSON(""))
}

// WithAge is a patient together with its display age.
type WithAge struct {
	Patient *Patient
	Age     string
}

func (w WithAge) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Patient.toJSON(w.Age))
}

// RegisterInput is the unvalidated form of a patient record.
type RegisterInput struct {
	Name             string   `json:"name"`
	HospitalNumber   string   `json:"hospital_number"`
	DateOfBirth      string   `json:"date_of_birth"`
	PhonePrimary     string   `json:"phone_primary"`
	Address          string   `json:"address"`
	PinCode          string   `json:"pin_code"`
	DigiPin          string   `json:"digi_pin"`
	AdditionalPhones []string `json:"additional_phones"`
}
