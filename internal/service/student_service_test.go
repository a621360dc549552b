package service

import (
	"errors"
	"evalmate_backend/internal/model"
	"evalmate_backend/internal/repository"
	"evalmate_backend/internal/util"
	"testing"
	"time"

	"gorm.io/gorm"
)

func newStudentService(db *gorm.DB) *StudentService {
	return NewStudentService(
		repository.NewFormRepository(db),
		repository.NewPendingRepository(db),
		repository.NewDraftRepository(db),
		repository.NewResponseRepository(db),
	)
}

func TestPendingEvaluationsDerivesStatus(t *testing.T) {
	db := newTestDB(t)
	svc := newStudentService(db)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")

	soon := time.Now().AddDate(0, 0, 2).Format(util.DateFormat)
	later := time.Now().AddDate(0, 0, 30).Format(util.DateFormat)
	urgent := seedForm(t, db, owner, "Due soon", formOptions{dueDate: soon})
	relaxed := seedForm(t, db, owner, "Due later", formOptions{dueDate: later})
	open := seedForm(t, db, owner, "No deadline", formOptions{})

	pendingRepo := repository.NewPendingRepository(db)
	for _, f := range []*model.FormTemplate{urgent, relaxed, open} {
		if _, _, err := pendingRepo.GetOrCreate(student.ID, f.ID); err != nil {
			t.Fatalf("seed pending: %v", err)
		}
	}

	// A draft on the relaxed form flips it to in_progress.
	state := &model.WizardState{FormID: relaxed.ID, TeamName: "Rocket", Teammates: []string{"A", "B"}}
	raw, _ := state.MarshalDraft()
	if _, err := repository.NewDraftRepository(db).Replace(student.ID, relaxed.ID, "Rocket", raw); err != nil {
		t.Fatalf("seed draft: %v", err)
	}

	items, err := svc.PendingEvaluations(student)
	if err != nil {
		t.Fatalf("PendingEvaluations error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}

	byForm := make(map[uint]PendingItem)
	for _, it := range items {
		byForm[it.FormID] = it
	}
	if got := byForm[urgent.ID]; got.Status != model.PendingStatusUrgent || got.DaysLeft == nil || *got.DaysLeft != 2 {
		t.Fatalf("urgent item = %+v", got)
	}
	if got := byForm[relaxed.ID]; got.Status != model.PendingStatusInProgress || !got.HasDraft {
		t.Fatalf("relaxed item = %+v", got)
	}
	if got := byForm[open.ID]; got.Status != model.PendingStatusNotStarted || got.DaysLeft != nil {
		t.Fatalf("open item = %+v", got)
	}
}

func TestRemovePendingChecksOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := newStudentService(db)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	other := seedProfile(t, db, "other", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})

	pending, _, err := repository.NewPendingRepository(db).GetOrCreate(student.ID, form.ID)
	if err != nil {
		t.Fatalf("seed pending: %v", err)
	}

	if err := svc.RemovePending(other, pending.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("RemovePending by other = %v, want ErrPermissionDenied", err)
	}
	if err := svc.RemovePending(student, pending.ID); err != nil {
		t.Fatalf("RemovePending error: %v", err)
	}
	if err := svc.RemovePending(student, pending.ID); !errors.Is(err, util.ErrPendingNotFound) {
		t.Fatalf("RemovePending twice = %v, want ErrPendingNotFound", err)
	}
}

func TestHistoryGroupsByFormAndTeam(t *testing.T) {
	db := newTestDB(t)
	svc := newStudentService(db)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	formA := seedForm(t, db, owner, "Review A", formOptions{})
	formB := seedForm(t, db, owner, "Review B", formOptions{})

	runWizard(t, db, student, formA, "Rocket", []string{"Alice", "Bob", "Carol"})
	runWizard(t, db, student, formB, "Comet", []string{"Dana", "Eli"})

	items, err := svc.History(student)
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("history items = %d, want 2", len(items))
	}
	byForm := make(map[uint]HistoryItem)
	for _, it := range items {
		byForm[it.FormID] = it
	}
	if got := byForm[formA.ID]; got.TeammateCount != 3 || got.TeamName != "Rocket" {
		t.Fatalf("formA history = %+v", got)
	}
	if got := byForm[formB.ID]; got.TeammateCount != 2 || got.FormTitle != "Review B" {
		t.Fatalf("formB history = %+v", got)
	}
}

func TestDraftLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := newStudentService(db)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})

	if _, err := svc.GetDraft(student, form.ID); !errors.Is(err, util.ErrDraftNotFound) {
		t.Fatalf("GetDraft without draft = %v, want ErrDraftNotFound", err)
	}

	state := &model.WizardState{FormID: form.ID, TeamName: "Rocket", Teammates: []string{"A", "B"}}
	raw, _ := state.MarshalDraft()
	if _, err := svc.SaveDraft(student, form.ID, raw); err != nil {
		t.Fatalf("SaveDraft error: %v", err)
	}

	// Unrecognizable payloads are rejected, not stored.
	if _, err := svc.SaveDraft(student, form.ID, []byte(`{"team_name":""}`)); !errors.Is(err, util.ErrNoWizardSession) {
		t.Fatalf("SaveDraft with bad payload = %v, want ErrNoWizardSession", err)
	}

	draft, err := svc.GetDraft(student, form.ID)
	if err != nil {
		t.Fatalf("GetDraft error: %v", err)
	}
	restored, ok := model.ParseWizardState(draft.DraftData)
	if !ok || restored.TeamName != "Rocket" {
		t.Fatalf("restored draft = %+v", restored)
	}

	if err := svc.DeleteDraft(student, form.ID); err != nil {
		t.Fatalf("DeleteDraft error: %v", err)
	}
	if _, err := svc.GetDraft(student, form.ID); !errors.Is(err, util.ErrDraftNotFound) {
		t.Fatalf("GetDraft after delete = %v, want ErrDraftNotFound", err)
	}
}

func TestSaveDraftReplacesPrior(t *testing.T) {
	db := newTestDB(t)
	svc := newStudentService(db)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})

	first := &model.WizardState{FormID: form.ID, TeamName: "Rocket", Teammates: []string{"A", "B"}}
	raw, _ := first.MarshalDraft()
	if _, err := svc.SaveDraft(student, form.ID, raw); err != nil {
		t.Fatalf("first SaveDraft error: %v", err)
	}

	second := &model.WizardState{FormID: form.ID, TeamName: "Comet", Teammates: []string{"C", "D"}}
	raw, _ = second.MarshalDraft()
	if _, err := svc.SaveDraft(student, form.ID, raw); err != nil {
		t.Fatalf("second SaveDraft error: %v", err)
	}

	var count int64
	db.Model(&model.DraftResponse{}).
		Where("student_id = ? AND form_id = ?", student.ID, form.ID).
		Count(&count)
	if count != 1 {
		t.Fatalf("draft rows = %d, want 1", count)
	}

	draft, err := svc.GetDraft(student, form.ID)
	if err != nil {
		t.Fatalf("GetDraft error: %v", err)
	}
	restored, _ := model.ParseWizardState(draft.DraftData)
	if restored.TeamName != "Comet" {
		t.Fatalf("surviving draft team = %q, want Comet", restored.TeamName)
	}
}

func TestDashboardCompletionRate(t *testing.T) {
	db := newTestDB(t)
	svc := newStudentService(db)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	formA := seedForm(t, db, owner, "Review A", formOptions{})
	formB := seedForm(t, db, owner, "Review B", formOptions{})

	if _, _, err := repository.NewPendingRepository(db).GetOrCreate(student.ID, formA.ID); err != nil {
		t.Fatalf("seed pending: %v", err)
	}
	runWizard(t, db, student, formB, "Rocket", []string{"Alice", "Bob"})

	summary, err := svc.Dashboard(student)
	if err != nil {
		t.Fatalf("Dashboard error: %v", err)
	}
	if summary.PendingCount != 1 || summary.CompletedCount != 1 || summary.CompletionRate != 50 {
		t.Fatalf("summary = %+v", summary)
	}
}
