package model

import (
	"encoding/json"
	"testing"
)

func newWizardState() *WizardState {
	return &WizardState{
		FormID:    1,
		TeamName:  "Team Rocket",
		Teammates: []string{"Alice", "Bob", "Carol"},
	}
}

func TestUpsertReplacesByName(t *testing.T) {
	st := newWizardState()
	st.Upsert(TeammateEvaluation{Teammate: "Alice", Answers: map[string]string{"effort": "3"}})
	st.Upsert(TeammateEvaluation{Teammate: "Alice", Answers: map[string]string{"effort": "5"}})

	if len(st.Evaluations) != 1 {
		t.Fatalf("len(Evaluations) = %d, want 1", len(st.Evaluations))
	}
	ev, ok := st.EvaluationFor("Alice")
	if !ok || ev.Answers["effort"] != "5" {
		t.Fatalf("EvaluationFor(Alice) = %+v, want effort=5", ev)
	}
}

func TestNextUnevaluatedWrapsAround(t *testing.T) {
	st := newWizardState()
	st.CurrentIndex = 2
	st.Upsert(TeammateEvaluation{Teammate: "Carol"})

	next, ok := st.NextUnevaluated()
	if !ok || next != 0 {
		t.Fatalf("NextUnevaluated() = (%d, %v), want (0, true)", next, ok)
	}

	st.Upsert(TeammateEvaluation{Teammate: "Alice"})
	st.Upsert(TeammateEvaluation{Teammate: "Bob"})
	if _, ok := st.NextUnevaluated(); ok {
		t.Fatal("NextUnevaluated() found a teammate after all were evaluated")
	}
}

func TestCompleteRequiresFullCoverage(t *testing.T) {
	st := newWizardState()
	st.Upsert(TeammateEvaluation{Teammate: "Alice"})
	st.Upsert(TeammateEvaluation{Teammate: "Bob"})
	if st.Complete() {
		t.Fatal("Complete() = true with Carol unevaluated")
	}
	st.Upsert(TeammateEvaluation{Teammate: "Carol"})
	if !st.Complete() {
		t.Fatal("Complete() = false with every teammate evaluated")
	}
}

func TestParseWizardState(t *testing.T) {
	raw, err := newWizardState().MarshalDraft()
	if err != nil {
		t.Fatalf("MarshalDraft() error: %v", err)
	}
	st, ok := ParseWizardState(raw)
	if !ok {
		t.Fatal("ParseWizardState() rejected a valid payload")
	}
	if st.TeamName != "Team Rocket" || len(st.Teammates) != 3 {
		t.Fatalf("ParseWizardState() = %+v", st)
	}

	if _, ok := ParseWizardState(nil); ok {
		t.Fatal("ParseWizardState(nil) accepted")
	}
	if _, ok := ParseWizardState(json.RawMessage(`{"team_name":""}`)); ok {
		t.Fatal("ParseWizardState accepted payload without team setup")
	}
	if _, ok := ParseWizardState(json.RawMessage(`not json`)); ok {
		t.Fatal("ParseWizardState accepted malformed payload")
	}
}

func TestParseWizardStateClampsIndex(t *testing.T) {
	src := newWizardState()
	src.CurrentIndex = 99
	raw, _ := src.MarshalDraft()

	st, ok := ParseWizardState(raw)
	if !ok {
		t.Fatal("ParseWizardState() rejected payload")
	}
	if st.CurrentIndex != 0 {
		t.Fatalf("CurrentIndex = %d, want 0", st.CurrentIndex)
	}
}
