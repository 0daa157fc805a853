// Package vocab holds the administrator-managed suggestion lists: report
// types per kind, allowed treatment types and chemotherapy schedules. Case
// records keep free text; these lists only feed the UI.
package vocab

import (
	"fmt"

	"github.com/mdt/mdt/internal/domain/mdt"
	"github.com/mdt/mdt/internal/platform/apperr"
)

// Vocabulary names one of the managed lists.
type Vocabulary string

const (
	ReportTypes      Vocabulary = "report-types"
	TreatmentConfigs Vocabulary = "treatment-configs"
	ChemoSchedules   Vocabulary = "chemo-schedules"
)

// Vocabularies lists every managed list.
var Vocabularies = []Vocabulary{ReportTypes, TreatmentConfigs, ChemoSchedules}

func (v Vocabulary) Valid() bool {
	switch v {
	case ReportTypes, TreatmentConfigs, ChemoSchedules:
		return true
	}
	return false
}

// Term is one entry. Kind is set for report types only.
type Term struct {
	ID   int64          `json:"id"`
	Kind mdt.ReportKind `json:"kind,omitempty"`
	Name string         `json:"name"`
}

type TermInput struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

func (v Vocabulary) check(t *Term) error {
	if t.Name == "" {
		return apperr.Validation("name", "name is required")
	}
	switch v {
	case ReportTypes:
		if !t.Kind.Valid() {
			return apperr.Validation("kind", fmt.Sprintf("kind must be %q or %q", mdt.KindPathology, mdt.KindImaging))
		}
	case TreatmentConfigs:
		t.Kind = ""
		for _, known := range mdt.TreatmentTypes {
			if string(known) == t.Name {
				return nil
			}
		}
		return apperr.Validation("name", fmt.Sprintf("unknown treatment type %q", t.Name))
	case ChemoSchedules:
		t.Kind = ""
	}
	return nil
}
