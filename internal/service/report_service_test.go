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

func newReportService(db *gorm.DB) *ReportService {
	return NewReportService(
		repository.NewFormRepository(db),
		repository.NewResponseRepository(db),
		repository.NewProfileRepository(db),
	)
}

// runWizard commits a full evaluation for the student.
func runWizard(t *testing.T, db *gorm.DB, student *model.Profile, form *model.FormTemplate, team string, teammates []string) {
	t.Helper()
	svc := newEvaluationService(db, NewMemorySessionStore())
	ctx := context.Background()
	if _, err := svc.TeamSetup(ctx, student, form, team, teammates, false); err != nil {
		t.Fatalf("TeamSetup error: %v", err)
	}
	for _, name := range teammates {
		if _, err := svc.SubmitTeammate(ctx, student, form, name, answersFor("4")); err != nil {
			t.Fatalf("submit %s error: %v", name, err)
		}
	}
}

func TestFormSummaryCountsSubmissionsNotRows(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(db)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	alice := seedProfile(t, db, "alice", model.Student, "State U")
	bob := seedProfile(t, db, "bob", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})

	// Two logical submissions with different team sizes: 3 + 2 = 5 rows.
	runWizard(t, db, alice, form, "Rocket", []string{"Bob", "Carol", "Dave"})
	runWizard(t, db, bob, form, "Comet", []string{"Alice", "Eve"})

	summary, err := svc.FormSummary(owner, form.ID)
	if err != nil {
		t.Fatalf("FormSummary error: %v", err)
	}
	if summary.ResponseCount != 2 {
		t.Fatalf("ResponseCount = %d, want 2 logical submissions", summary.ResponseCount)
	}
	if summary.SubmittedToday != 2 {
		t.Fatalf("SubmittedToday = %d, want 2", summary.SubmittedToday)
	}
	if !summary.HasUnread {
		t.Fatal("HasUnread = false with fresh submissions")
	}
}

func TestFormResponsesGroupsBySubmitterAndTeam(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(db)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	alice := seedProfile(t, db, "alice", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})

	runWizard(t, db, alice, form, "Rocket", []string{"Bob", "Carol", "Dave"})

	overviews, err := svc.FormResponses(owner, form.ID)
	if err != nil {
		t.Fatalf("FormResponses error: %v", err)
	}
	if len(overviews) != 1 {
		t.Fatalf("groups = %d, want 1", len(overviews))
	}
	g := overviews[0]
	if g.TeamName != "Rocket" || g.TeammateCount != 3 || len(g.Responses) != 3 {
		t.Fatalf("group = %+v", g)
	}
	if g.SubmitterName == "" {
		t.Fatal("SubmitterName not resolved")
	}
}

func TestResponseDetailMarksReadOnce(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(db)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	alice := seedProfile(t, db, "alice", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})

	runWizard(t, db, alice, form, "Rocket", []string{"Bob", "Carol"})

	var resp model.FormResponse
	if err := db.Where("form_id = ?", form.ID).First(&resp).Error; err != nil {
		t.Fatalf("load response: %v", err)
	}

	first, err := svc.ResponseDetail(owner, resp.ID)
	if err != nil {
		t.Fatalf("first detail error: %v", err)
	}
	if !first.WasUnread {
		t.Fatal("first view reported WasUnread = false")
	}
	if first.Answers["effort"] != "4" {
		t.Fatalf("answers = %v", first.Answers)
	}

	second, err := svc.ResponseDetail(owner, resp.ID)
	if err != nil {
		t.Fatalf("second detail error: %v", err)
	}
	if second.WasUnread {
		t.Fatal("second view reported WasUnread = true")
	}
}

func TestReportingRequiresOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(db)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	rival := seedProfile(t, db, "rival", model.Faculty, "State U")
	alice := seedProfile(t, db, "alice", model.Student, "State U")
	form := seedForm(t, db, owner, "Review", formOptions{})

	runWizard(t, db, alice, form, "Rocket", []string{"Bob", "Carol"})

	if _, err := svc.FormResponses(rival, form.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("FormResponses by non-owner = %v, want ErrPermissionDenied", err)
	}

	var resp model.FormResponse
	db.Where("form_id = ?", form.ID).First(&resp)
	if _, err := svc.ResponseDetail(rival, resp.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("ResponseDetail by non-owner = %v, want ErrPermissionDenied", err)
	}
}

func TestFacultyDashboardListsAllOwnedForms(t *testing.T) {
	db := newTestDB(t)
	svc := newReportService(db)
	owner := seedProfile(t, db, "prof", model.Faculty, "State U")
	seedForm(t, db, owner, "Review A", formOptions{})
	seedForm(t, db, owner, "Review B", formOptions{privacy: model.PrivacyPrivate})

	summaries, err := svc.FacultyDashboard(owner)
	if err != nil {
		t.Fatalf("FacultyDashboard error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}
}
