package mdt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mdt/mdt/internal/domain/patient"
	"github.com/mdt/mdt/internal/platform/apperr"
)

// TreatmentType selects which TreatmentDetail variant a record holds.
type TreatmentType string

const (
	TypeChemo             TreatmentType = "Chemo"
	TypeRadiotherapy      TreatmentType = "Radiotherapy"
	TypeChemoRadiotherapy TreatmentType = "Chemo-Radiotherapy"
	TypeSurgery           TreatmentType = "Surgery"
	TypeOther             TreatmentType = "Other"
)

// TreatmentTypes lists the variants in display order.
var TreatmentTypes = []TreatmentType{TypeChemo, TypeRadiotherapy, TypeChemoRadiotherapy, TypeSurgery, TypeOther}

// TreatmentDetail is one of Chemo, Radiotherapy, ChemoRadiotherapy, Surgery
// or OtherTreatment.
type TreatmentDetail interface {
	Type() TreatmentType
	// KeyField is the value summarising the record in the treatment table.
	KeyField() string
	validate() error
}

type Chemo struct {
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
	Protocol string `json:"protocol,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func (Chemo) Type() TreatmentType { return TypeChemo }
func (t Chemo) KeyField() string  { return t.Protocol }
func (t Chemo) validate() error   { return dateRange(t.DateFrom, t.DateTo) }

type Radiotherapy struct {
	DateFrom      string `json:"date_from,omitempty"`
	DateTo        string `json:"date_to,omitempty"`
	RadiationDose string `json:"radiation_dose,omitempty"`
	Fractions     string `json:"fractions,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

func (Radiotherapy) Type() TreatmentType { return TypeRadiotherapy }
func (t Radiotherapy) KeyField() string  { return t.RadiationDose }
func (t Radiotherapy) validate() error   { return dateRange(t.DateFrom, t.DateTo) }

type ChemoRadiotherapy struct {
	ChemoDrug string `json:"chemo_drug,omitempty"`
	Dose      string `json:"dose,omitempty"`
	Schedule  string `json:"schedule,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (ChemoRadiotherapy) Type() TreatmentType { return TypeChemoRadiotherapy }

// KeyField is empty: none of the summary fields belong to this variant.
func (ChemoRadiotherapy) KeyField() string { return "" }
func (ChemoRadiotherapy) validate() error  { return nil }

type Surgery struct {
	SurgeryDate    string `json:"surgery_date,omitempty"`
	SurgeryDone    string `json:"surgery_done,omitempty"`
	OperativeNotes string `json:"operative_notes,omitempty"`
}

func (Surgery) Type() TreatmentType { return TypeSurgery }
func (t Surgery) KeyField() string  { return t.SurgeryDone }
func (t Surgery) validate() error   { return optionalDate("surgery_date", t.SurgeryDate) }

type OtherTreatment struct {
	OtherNotes string `json:"other_notes,omitempty"`
}

func (OtherTreatment) Type() TreatmentType { return TypeOther }
func (t OtherTreatment) KeyField() string  { return t.OtherNotes }
func (OtherTreatment) validate() error     { return nil }

// TreatmentInput is the wire form: the type tag plus that variant's fields.
type TreatmentInput struct {
	TreatmentType string          `json:"treatment_type"`
	Details       json.RawMessage `json:"details"`
}

// DecodeTreatment builds the variant named by typ from raw. Fields belonging
// to another variant are rejected.
func DecodeTreatment(typ string, raw json.RawMessage) (TreatmentDetail, error) {
	var d TreatmentDetail
	switch TreatmentType(strings.TrimSpace(typ)) {
	case TypeChemo:
		d = &Chemo{}
	case TypeRadiotherapy:
		d = &Radiotherapy{}
	case TypeChemoRadiotherapy:
		d = &ChemoRadiotherapy{}
	case TypeSurgery:
		d = &Surgery{}
	case TypeOther:
		d = &OtherTreatment{}
	default:
		return nil, apperr.Validation("treatment_type", fmt.Sprintf("unknown treatment type %q", typ))
	}

	if len(bytes.TrimSpace(raw)) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(d); err != nil {
			return nil, apperr.Validation("details", fmt.Sprintf("invalid %s details: %v", typ, err))
		}
	}

	d = normalize(d)
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// normalize trims every field and returns the variant by value.
func normalize(d TreatmentDetail) TreatmentDetail {
	t := strings.TrimSpace
	switch v := d.(type) {
	case *Chemo:
		return Chemo{DateFrom: t(v.DateFrom), DateTo: t(v.DateTo), Protocol: t(v.Protocol), Notes: t(v.Notes)}
	case *Radiotherapy:
		return Radiotherapy{DateFrom: t(v.DateFrom), DateTo: t(v.DateTo), RadiationDose: t(v.RadiationDose), Fractions: t(v.Fractions), Notes: t(v.Notes)}
	case *ChemoRadiotherapy:
		return ChemoRadiotherapy{ChemoDrug: t(v.ChemoDrug), Dose: t(v.Dose), Schedule: t(v.Schedule), Notes: t(v.Notes)}
	case *Surgery:
		return Surgery{SurgeryDate: t(v.SurgeryDate), SurgeryDone: t(v.SurgeryDone), OperativeNotes: t(v.OperativeNotes)}
	case *OtherTreatment:
		return OtherTreatment{OtherNotes: t(v.OtherNotes)}
	}
	return d
}

func optionalDate(field, s string) error {
	if s == "" {
		return nil
	}
	if _, err := patient.ParseDate(s); err != nil {
		return apperr.Validation(field, "Invalid date format. Use YYYY-MM-DD.")
	}
	return nil
}

func dateRange(from, to string) error {
	if err := optionalDate("date_from", from); err != nil {
		return err
	}
	if err := optionalDate("date_to", to); err != nil {
		return err
	}
	if from != "" && to != "" && to < from {
		return apperr.Validation("date_to", "date_to must not be before date_from")
	}
	return nil
}
