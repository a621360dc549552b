package model

import (
	"encoding/json"
	"time"
)

// DraftResponse is the durable snapshot of in-progress wizard state. The
// wizard keeps at most one live row per (student, form): every save deletes
// prior rows and recreates a single one with an empty TeammateName. The
// four-column unique index is wider than that, which mirrors the historical
// schema; the extra columns carry no behavior.
type DraftResponse struct {
	BaseModel
	StudentID    uint            `gorm:"uniqueIndex:idx_draft_identity;not null" json:"studentId"`
	Student      Profile         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FormID       uint            `gorm:"uniqueIndex:idx_draft_identity;not null" json:"formId"`
	Form         FormTemplate    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TeamName     string          `gorm:"size:100;uniqueIndex:idx_draft_identity" json:"teamName"`
	TeammateName string          `gorm:"size:100;uniqueIndex:idx_draft_identity" json:"teammateName"`
	DraftData    json.RawMessage `gorm:"type:json" json:"draftData"`
	LastSaved    time.Time       `json:"lastSaved"`
}

func (DraftResponse) TableName() string {
	return "draft_responses"
}

// WizardState is the explicit value object holding everything the
// evaluation wizard knows between requests. It is cached in the session
// store and mirrored into DraftResponse.DraftData on every save; the draft
// row is what survives session expiry.
type WizardState struct {
	FormID       uint                 `json:"form_id"`
	TeamName     string               `json:"team_name"`
	Teammates    []string             `json:"teammates"`
	CurrentIndex int                  `json:"current_index"`
	Evaluations  []TeammateEvaluation `json:"evaluations"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// TeammateEvaluation is one accumulated {teammate, answers} record.
type TeammateEvaluation struct {
	Teammate string            `json:"teammate"`
	Answers  map[string]string `json:"answers"`
}

// Evaluated reports whether an evaluation entry exists for the named
// teammate. Membership is by name, not index, so out-of-order editing works.
func (w *WizardState) Evaluated(name string) bool {
	for _, ev := range w.Evaluations {
		if ev.Teammate == name {
			return true
		}
	}
	return false
}

// Upsert replaces any prior entry for the same teammate name, making edits
// of an already-evaluated teammate idempotent.
func (w *WizardState) Upsert(ev TeammateEvaluation) {
	for i := range w.Evaluations {
		if w.Evaluations[i].Teammate == ev.Teammate {
			w.Evaluations[i] = ev
			return
		}
	}
	w.Evaluations = append(w.Evaluations, ev)
}

// NextUnevaluated returns the index of the first teammate without an
// evaluation entry, preferring positions after the current index. The second
// return value is false when every teammate is evaluated.
func (w *WizardState) NextUnevaluated() (int, bool) {
	n := len(w.Teammates)
	for off := 1; off <= n; off++ {
		i := (w.CurrentIndex + off) % n
		if !w.Evaluated(w.Teammates[i]) {
			return i, true
		}
	}
	return 0, false
}

// Complete reports whether the evaluated-name set covers the whole
// teammate list.
func (w *WizardState) Complete() bool {
	for _, name := range w.Teammates {
		if !w.Evaluated(name) {
			return false
		}
	}
	return true
}

// EvaluationFor returns the stored answers for a teammate, if any.
func (w *WizardState) EvaluationFor(name string) (TeammateEvaluation, bool) {
	for _, ev := range w.Evaluations {
		if ev.Teammate == name {
			return ev, true
		}
	}
	return TeammateEvaluation{}, false
}

// MarshalDraft encodes the state for the DraftResponse row.
func (w *WizardState) MarshalDraft() (json.RawMessage, error) {
	return json.Marshal(w)
}

// ParseWizardState decodes a draft payload. A payload without a team name
// or teammates is not a recognizable team setup and returns false.
func ParseWizardState(raw json.RawMessage) (*WizardState, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var st WizardState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, false
	}
	if st.TeamName == "" || len(st.Teammates) == 0 {
		return nil, false
	}
	if st.CurrentIndex < 0 || st.CurrentIndex >= len(st.Teammates) {
		st.CurrentIndex = 0
	}
	return &st, true
}
