package service

import (
	"context"
	"errors"
	"evalmate_backend/internal/model"
	"evalmate_backend/internal/repository"
	"evalmate_backend/internal/util"
	"testing"

	"gorm.io/gorm"
)

func newEvaluationService(db *gorm.DB, sessions SessionStore) *EvaluationService {
	return NewEvaluationService(
		repository.NewFormRepository(db),
		repository.NewDraftRepository(db),
		repository.NewPendingRepository(db),
		repository.NewResponseRepository(db),
		sessions,
		db,
	)
}

func answersFor(score string) map[string]string {
	return map[string]string{"effort": score, "comments": "solid work"}
}

func TestTeamSetupValidatesTeamSize(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db, NewMemorySessionStore())
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{minTeam: 2, maxTeam: 3})
	ctx := context.Background()

	_, err := svc.TeamSetup(ctx, student, form, "Solo", []string{"Alice"}, false)
	if !errors.Is(err, util.ErrTeamSizeOutOfRange) {
		t.Fatalf("TeamSetup with 1 teammate = %v, want ErrTeamSizeOutOfRange", err)
	}

	_, err = svc.TeamSetup(ctx, student, form, "Crowd", []string{"A", "B", "C", "D"}, false)
	if !errors.Is(err, util.ErrTeamSizeOutOfRange) {
		t.Fatalf("TeamSetup with 4 teammates = %v, want ErrTeamSizeOutOfRange", err)
	}

	step, err := svc.TeamSetup(ctx, student, form, "Just right", []string{"Alice", "Bob"}, false)
	if err != nil {
		t.Fatalf("TeamSetup error: %v", err)
	}
	if step.Step != StepEvaluating || len(step.State.Teammates) != 2 {
		t.Fatalf("TeamSetup step = %+v", step)
	}
}

func TestTeamSetupDeduplicatesNames(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db, NewMemorySessionStore())
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})

	step, err := svc.TeamSetup(context.Background(), student, form, "Rocket",
		[]string{" Alice ", "Bob", "Alice", "", "Bob "}, false)
	if err != nil {
		t.Fatalf("TeamSetup error: %v", err)
	}
	if len(step.State.Teammates) != 2 {
		t.Fatalf("Teammates = %v, want deduplicated pair", step.State.Teammates)
	}
}

func TestWizardFullRunCommits(t *testing.T) {
	db := newTestDB(t)
	sessions := NewMemorySessionStore()
	svc := newEvaluationService(db, sessions)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})
	ctx := context.Background()

	if _, _, err := repository.NewPendingRepository(db).GetOrCreate(student.ID, form.ID); err != nil {
		t.Fatalf("seed pending: %v", err)
	}

	if _, err := svc.TeamSetup(ctx, student, form, "Rocket", []string{"Alice", "Bob", "Carol"}, false); err != nil {
		t.Fatalf("TeamSetup error: %v", err)
	}

	step, err := svc.SubmitTeammate(ctx, student, form, "Alice", answersFor("4"))
	if err != nil || step.Step != StepEvaluating {
		t.Fatalf("first submit = (%+v, %v)", step, err)
	}
	if _, err := svc.SubmitTeammate(ctx, student, form, "Bob", answersFor("3")); err != nil {
		t.Fatalf("second submit error: %v", err)
	}

	step, err = svc.SubmitTeammate(ctx, student, form, "Carol", answersFor("5"))
	if err != nil {
		t.Fatalf("final submit error: %v", err)
	}
	if step.Step != StepCommitted || step.Committed != 3 {
		t.Fatalf("final step = %+v, want committed with 3 rows", step)
	}

	var responses []model.FormResponse
	if err := db.Where("form_id = ?", form.ID).Find(&responses).Error; err != nil {
		t.Fatalf("load responses: %v", err)
	}
	if len(responses) != 3 {
		t.Fatalf("response rows = %d, want 3", len(responses))
	}
	for _, r := range responses {
		if r.TeamName != "Rocket" || r.SubmittedByID != student.ID || r.IsDraft {
			t.Fatalf("response row = %+v", r)
		}
	}

	var answerCount int64
	db.Model(&model.ResponseAnswer{}).Count(&answerCount)
	if answerCount != 6 {
		t.Fatalf("answer rows = %d, want 6 (2 questions x 3 teammates)", answerCount)
	}

	// Pending marker and draft are gone, session cleared.
	var pendingCount, draftCount int64
	db.Model(&model.PendingEvaluation{}).Where("student_id = ?", student.ID).Count(&pendingCount)
	db.Model(&model.DraftResponse{}).Where("student_id = ?", student.ID).Count(&draftCount)
	if pendingCount != 0 || draftCount != 0 {
		t.Fatalf("after commit: pending=%d draft=%d, want 0/0", pendingCount, draftCount)
	}
	if state, _ := sessions.LoadWizard(ctx, student.ID, form.ID); state != nil {
		t.Fatal("wizard session survived the commit")
	}
}

func TestSubmitOutOfOrderCommitsAllTeammates(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db, NewMemorySessionStore())
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})
	ctx := context.Background()

	if _, err := svc.TeamSetup(ctx, student, form, "Rocket", []string{"Alice", "Bob"}, false); err != nil {
		t.Fatalf("TeamSetup error: %v", err)
	}

	// Jump past Alice and rate Bob first.
	if _, err := svc.Navigate(ctx, student, form.ID, 1); err != nil {
		t.Fatalf("Navigate error: %v", err)
	}
	step, err := svc.SubmitTeammate(ctx, student, form, "Bob", answersFor("3"))
	if err != nil || step.Step != StepEvaluating {
		t.Fatalf("submit Bob = (%+v, %v)", step, err)
	}
	if step.State.CurrentIndex != 0 {
		t.Fatalf("CurrentIndex = %d, want the unevaluated teammate", step.State.CurrentIndex)
	}

	step, err = svc.SubmitTeammate(ctx, student, form, "Alice", answersFor("4"))
	if err != nil {
		t.Fatalf("submit Alice error: %v", err)
	}
	if step.Step != StepCommitted || step.Committed != 2 {
		t.Fatalf("final step = %+v, want committed with 2 rows", step)
	}

	var responses []model.FormResponse
	if err := db.Where("form_id = ?", form.ID).Order("teammate_name").Find(&responses).Error; err != nil {
		t.Fatalf("load responses: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("response rows = %d, want 2", len(responses))
	}
	if responses[0].TeammateName != "Alice" || responses[1].TeammateName != "Bob" {
		t.Fatalf("teammates = %q, %q", responses[0].TeammateName, responses[1].TeammateName)
	}
	for _, r := range responses {
		if r.TeamName != "Rocket" {
			t.Fatalf("TeamName = %q, want Rocket", r.TeamName)
		}
	}
}

func TestPendingReAcceptAfterCommit(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db, NewMemorySessionStore())
	pendingRepo := repository.NewPendingRepository(db)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})
	ctx := context.Background()

	if _, _, err := pendingRepo.GetOrCreate(student.ID, form.ID); err != nil {
		t.Fatalf("seed pending: %v", err)
	}
	if _, err := svc.TeamSetup(ctx, student, form, "Rocket", []string{"Alice", "Bob"}, false); err != nil {
		t.Fatalf("TeamSetup error: %v", err)
	}
	for _, name := range []string{"Alice", "Bob"} {
		if _, err := svc.SubmitTeammate(ctx, student, form, name, answersFor("4")); err != nil {
			t.Fatalf("submit %s error: %v", name, err)
		}
	}

	// The commit removed the marker; accepting the same form again must
	// create a fresh one, not trip the (student, form) unique index.
	pending, created, err := pendingRepo.GetOrCreate(student.ID, form.ID)
	if err != nil {
		t.Fatalf("re-accept after commit: %v", err)
	}
	if !created || pending.ID == 0 {
		t.Fatalf("re-accept = (%+v, created=%v), want a new marker", pending, created)
	}
}

func TestTeamSetupRejectsResubmission(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db, NewMemorySessionStore())
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})
	ctx := context.Background()

	if _, err := svc.TeamSetup(ctx, student, form, "Rocket", []string{"Alice", "Bob"}, false); err != nil {
		t.Fatalf("TeamSetup error: %v", err)
	}
	for _, name := range []string{"Alice", "Bob"} {
		if _, err := svc.SubmitTeammate(ctx, student, form, name, answersFor("4")); err != nil {
			t.Fatalf("submit %s error: %v", name, err)
		}
	}

	// A committed submission blocks starting the wizard again, even forced.
	if _, err := svc.TeamSetup(ctx, student, form, "Comet", []string{"X", "Y"}, false); !errors.Is(err, util.ErrAlreadySubmitted) {
		t.Fatalf("TeamSetup after commit = %v, want ErrAlreadySubmitted", err)
	}
	if _, err := svc.TeamSetup(ctx, student, form, "Comet", []string{"X", "Y"}, true); !errors.Is(err, util.ErrAlreadySubmitted) {
		t.Fatalf("forced TeamSetup after commit = %v, want ErrAlreadySubmitted", err)
	}
}

func TestSubmitUnknownTeammate(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db, NewMemorySessionStore())
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})
	ctx := context.Background()

	if _, err := svc.TeamSetup(ctx, student, form, "Rocket", []string{"Alice", "Bob"}, false); err != nil {
		t.Fatalf("TeamSetup error: %v", err)
	}
	if _, err := svc.SubmitTeammate(ctx, student, form, "Mallory", answersFor("1")); !errors.Is(err, util.ErrTeammateUnknown) {
		t.Fatalf("submit for unknown teammate = %v, want ErrTeammateUnknown", err)
	}
}

func TestSubmitFiltersUnknownQuestionKeys(t *testing.T) {
	db := newTestDB(t)
	sessions := NewMemorySessionStore()
	svc := newEvaluationService(db, sessions)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})
	ctx := context.Background()

	if _, err := svc.TeamSetup(ctx, student, form, "Rocket", []string{"Alice", "Bob"}, false); err != nil {
		t.Fatalf("TeamSetup error: %v", err)
	}
	answers := map[string]string{"effort": "4", "bogus_key": "x"}
	if _, err := svc.SubmitTeammate(ctx, student, form, "Alice", answers); err != nil {
		t.Fatalf("submit error: %v", err)
	}

	state, err := sessions.LoadWizard(ctx, student.ID, form.ID)
	if err != nil || state == nil {
		t.Fatalf("LoadWizard = (%v, %v)", state, err)
	}
	ev, ok := state.EvaluationFor("Alice")
	if !ok {
		t.Fatal("no evaluation recorded for Alice")
	}
	if _, present := ev.Answers["bogus_key"]; present {
		t.Fatal("answer for undefined question key was kept")
	}
	if ev.Answers["effort"] != "4" {
		t.Fatalf("effort answer = %q, want 4", ev.Answers["effort"])
	}
}

func TestResumeFallsBackToDraftAfterSessionLoss(t *testing.T) {
	db := newTestDB(t)
	sessions := NewMemorySessionStore()
	svc := newEvaluationService(db, sessions)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})
	ctx := context.Background()

	if _, err := svc.TeamSetup(ctx, student, form, "Rocket", []string{"Alice", "Bob"}, false); err != nil {
		t.Fatalf("TeamSetup error: %v", err)
	}
	if _, err := svc.SubmitTeammate(ctx, student, form, "Alice", answersFor("4")); err != nil {
		t.Fatalf("submit error: %v", err)
	}

	// Simulate session expiry; the draft row must carry the state.
	if err := sessions.ClearWizard(ctx, student.ID, form.ID); err != nil {
		t.Fatalf("clear session: %v", err)
	}

	step, err := svc.Resume(ctx, student, form.ID)
	if err != nil {
		t.Fatalf("Resume after session loss: %v", err)
	}
	if step.State.TeamName != "Rocket" || !step.State.Evaluated("Alice") {
		t.Fatalf("resumed state = %+v", step.State)
	}

	// The resume repopulated the cache.
	if state, _ := sessions.LoadWizard(ctx, student.ID, form.ID); state == nil {
		t.Fatal("session cache not repopulated on resume")
	}
}

func TestTeamSetupResumesUnlessForced(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db, NewMemorySessionStore())
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})
	ctx := context.Background()

	if _, err := svc.TeamSetup(ctx, student, form, "Rocket", []string{"Alice", "Bob"}, false); err != nil {
		t.Fatalf("TeamSetup error: %v", err)
	}
	if _, err := svc.SubmitTeammate(ctx, student, form, "Alice", answersFor("4")); err != nil {
		t.Fatalf("submit error: %v", err)
	}

	// Re-running team setup resumes the in-flight wizard.
	step, err := svc.TeamSetup(ctx, student, form, "Other team", []string{"X", "Y"}, false)
	if err != nil {
		t.Fatalf("TeamSetup resume error: %v", err)
	}
	if step.State.TeamName != "Rocket" || !step.State.Evaluated("Alice") {
		t.Fatalf("resumed state = %+v, want original team", step.State)
	}

	// force_edit starts over and discards the old evaluations.
	step, err = svc.TeamSetup(ctx, student, form, "Fresh", []string{"X", "Y"}, true)
	if err != nil {
		t.Fatalf("TeamSetup force error: %v", err)
	}
	if step.State.TeamName != "Fresh" || len(step.State.Evaluations) != 0 {
		t.Fatalf("forced state = %+v, want fresh team", step.State)
	}
}

func TestNavigateKeepsEvaluations(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db, NewMemorySessionStore())
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})
	ctx := context.Background()

	if _, err := svc.TeamSetup(ctx, student, form, "Rocket", []string{"Alice", "Bob", "Carol"}, false); err != nil {
		t.Fatalf("TeamSetup error: %v", err)
	}
	if _, err := svc.SubmitTeammate(ctx, student, form, "Alice", answersFor("4")); err != nil {
		t.Fatalf("submit error: %v", err)
	}

	step, err := svc.Navigate(ctx, student, form.ID, 0)
	if err != nil {
		t.Fatalf("Navigate error: %v", err)
	}
	if step.State.CurrentIndex != 0 || !step.State.Evaluated("Alice") {
		t.Fatalf("state after navigate = %+v", step.State)
	}

	if _, err := svc.Navigate(ctx, student, form.ID, 5); err == nil {
		t.Fatal("Navigate(5) accepted an out-of-range index")
	}
}

func TestResubmitTeammateReplacesAnswers(t *testing.T) {
	db := newTestDB(t)
	sessions := NewMemorySessionStore()
	svc := newEvaluationService(db, sessions)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})
	ctx := context.Background()

	if _, err := svc.TeamSetup(ctx, student, form, "Rocket", []string{"Alice", "Bob"}, false); err != nil {
		t.Fatalf("TeamSetup error: %v", err)
	}
	if _, err := svc.SubmitTeammate(ctx, student, form, "Alice", answersFor("2")); err != nil {
		t.Fatalf("submit error: %v", err)
	}
	if _, err := svc.SubmitTeammate(ctx, student, form, "Alice", answersFor("5")); err != nil {
		t.Fatalf("resubmit error: %v", err)
	}

	state, _ := sessions.LoadWizard(ctx, student.ID, form.ID)
	if state == nil {
		t.Fatal("no session state")
	}
	if len(state.Evaluations) != 1 {
		t.Fatalf("evaluations = %d, want 1 after resubmit", len(state.Evaluations))
	}
	ev, _ := state.EvaluationFor("Alice")
	if ev.Answers["effort"] != "5" {
		t.Fatalf("effort = %q, want the replacing answer", ev.Answers["effort"])
	}
}

func TestCommitRollsBackAtomically(t *testing.T) {
	db := newTestDB(t)
	svc := newEvaluationService(db, NewMemorySessionStore())
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	student := seedProfile(t, db, "stu", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})
	ctx := context.Background()

	if _, _, err := repository.NewPendingRepository(db).GetOrCreate(student.ID, form.ID); err != nil {
		t.Fatalf("seed pending: %v", err)
	}

	// A state whose third teammate has no evaluation entry makes the
	// transaction fail after two rows are already created.
	state := &model.WizardState{
		FormID:    form.ID,
		TeamName:  "Rocket",
		Teammates: []string{"Alice", "Bob", "Carol"},
		Evaluations: []model.TeammateEvaluation{
			{Teammate: "Alice", Answers: answersFor("4")},
			{Teammate: "Bob", Answers: answersFor("3")},
		},
	}

	if _, err := svc.commit(ctx, student, form, state); err == nil {
		t.Fatal("commit succeeded with a missing evaluation")
	}

	var responseCount, answerCount, pendingCount int64
	db.Model(&model.FormResponse{}).Count(&responseCount)
	db.Model(&model.ResponseAnswer{}).Count(&answerCount)
	db.Model(&model.PendingEvaluation{}).Where("student_id = ?", student.ID).Count(&pendingCount)

	if responseCount != 0 || answerCount != 0 {
		t.Fatalf("rows survived rollback: responses=%d answers=%d", responseCount, answerCount)
	}
	if pendingCount != 1 {
		t.Fatalf("pending marker = %d, want untouched", pendingCount)
	}
}
