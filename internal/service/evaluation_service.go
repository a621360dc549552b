package service

import (
	"context"
	"errors"
	"evalmate_backend/internal/model"
	"evalmate_backend/internal/repository"
	"evalmate_backend/internal/util"
	"evalmate_backend/pkg/monitoring"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Wizard step names, as reported to the client.
const (
	StepTeamSetup  = "team_setup"
	StepEvaluating = "evaluating"
	StepCommitted  = "committed"
)

// EvaluationService drives a student through rating each teammate on a
// form: team setup, per-teammate evaluation with draft autosave, and the
// final transactional commit. State between requests is the explicit
// WizardState value object; the session store caches it and the draft row
// makes it durable.
type EvaluationService struct {
	FormRepo     *repository.FormRepository
	DraftRepo    *repository.DraftRepository
	PendingRepo  *repository.PendingRepository
	ResponseRepo *repository.ResponseRepository
	Sessions     SessionStore
	DB           *gorm.DB
}

func NewEvaluationService(
	formRepo *repository.FormRepository,
	draftRepo *repository.DraftRepository,
	pendingRepo *repository.PendingRepository,
	responseRepo *repository.ResponseRepository,
	sessions SessionStore,
	db *gorm.DB,
) *EvaluationService {
	return &EvaluationService{
		FormRepo:     formRepo,
		DraftRepo:    draftRepo,
		PendingRepo:  pendingRepo,
		ResponseRepo: responseRepo,
		Sessions:     sessions,
		DB:           db,
	}
}

// WizardStep is what each wizard operation hands back to the controller:
// where the student is and the state driving the next render.
type WizardStep struct {
	Step      string             `json:"step"`
	State     *model.WizardState `json:"state,omitempty"`
	Committed int                `json:"committed,omitempty"` // response rows created
}

// TeamSetup validates the team and starts (or restarts) the wizard. When a
// resumable draft exists and forceEdit is unset, the saved state wins and
// the student is sent straight to the evaluating step at the saved index.
func (s *EvaluationService) TeamSetup(ctx context.Context, student *model.Profile, form *model.FormTemplate, teamName string, teammates []string, forceEdit bool) (*WizardStep, error) {
	submitted, err := s.ResponseRepo.ExistsForStudentForm(student.ID, form.ID)
	if err != nil {
		return nil, err
	}
	if submitted {
		return nil, util.ErrAlreadySubmitted
	}

	if !forceEdit {
		if resumed, err := s.Resume(ctx, student, form.ID); err == nil {
			return resumed, nil
		} else if !errors.Is(err, util.ErrNoWizardSession) {
			return nil, err
		}
	}

	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return nil, fmt.Errorf("team name is required")
	}

	cleaned := make([]string, 0, len(teammates))
	seen := make(map[string]bool)
	for _, name := range teammates {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		cleaned = append(cleaned, name)
	}

	structure, err := model.ParseFormStructure(form.Structure)
	if err != nil {
		return nil, err
	}
	min, max := structure.TeamSizeBounds()
	if len(cleaned) < min || len(cleaned) > max {
		return nil, util.ErrTeamSizeOutOfRange
	}

	state := &model.WizardState{
		FormID:       form.ID,
		TeamName:     teamName,
		Teammates:    cleaned,
		CurrentIndex: 0,
		Evaluations:  nil,
		UpdatedAt:    time.Now(),
	}
	if err := s.persist(ctx, student, state); err != nil {
		return nil, err
	}
	return &WizardStep{Step: StepEvaluating, State: state}, nil
}

// Resume reconstructs the wizard from the session cache or, when the
// session has expired, from the draft row. Returns ErrNoWizardSession when
// neither holds a recognizable team setup.
func (s *EvaluationService) Resume(ctx context.Context, student *model.Profile, formID uint) (*WizardStep, error) {
	state, err := s.Sessions.LoadWizard(ctx, student.ID, formID)
	if err != nil {
		return nil, err
	}
	if state != nil {
		return &WizardStep{Step: StepEvaluating, State: state}, nil
	}

	draft, err := s.DraftRepo.FindByStudentForm(student.ID, formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNoWizardSession
		}
		return nil, err
	}
	state, ok := model.ParseWizardState(draft.DraftData)
	if !ok {
		return nil, util.ErrNoWizardSession
	}
	state.FormID = formID

	// Drafts outlive sessions; repopulate the cache.
	if err := s.Sessions.SaveWizard(ctx, student.ID, state); err != nil {
		return nil, err
	}
	return &WizardStep{Step: StepEvaluating, State: state}, nil
}

// SubmitTeammate records the answers for one teammate. The entry replaces
// any prior one for the same name, so editing an already-rated teammate is
// idempotent. When every teammate is covered the submission commits;
// otherwise the index advances to the next unevaluated teammate and the
// draft is re-saved.
func (s *EvaluationService) SubmitTeammate(ctx context.Context, student *model.Profile, form *model.FormTemplate, teammate string, answers map[string]string) (*WizardStep, error) {
	state, err := s.Sessions.LoadWizard(ctx, student.ID, form.ID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		// Session expired mid-wizard; fall back to the draft.
		resumed, err := s.Resume(ctx, student, form.ID)
		if err != nil {
			return nil, err
		}
		state = resumed.State
	}

	teammate = strings.TrimSpace(teammate)
	known := false
	for _, name := range state.Teammates {
		if name == teammate {
			known = true
			break
		}
	}
	if !known {
		return nil, util.ErrTeammateUnknown
	}

	structure, err := model.ParseFormStructure(form.Structure)
	if err != nil {
		return nil, err
	}
	state.Upsert(model.TeammateEvaluation{
		Teammate: teammate,
		Answers:  filterAnswers(structure, answers),
	})
	state.UpdatedAt = time.Now()

	if state.Complete() {
		created, err := s.commit(ctx, student, form, state)
		if err != nil {
			return nil, err
		}
		return &WizardStep{Step: StepCommitted, Committed: created}, nil
	}

	if next, ok := state.NextUnevaluated(); ok {
		state.CurrentIndex = next
	}
	if err := s.persist(ctx, student, state); err != nil {
		return nil, err
	}
	return &WizardStep{Step: StepEvaluating, State: state}, nil
}

// Navigate jumps to any valid teammate index for editing. The draft is
// re-saved with the new index; the evaluations list is untouched.
func (s *EvaluationService) Navigate(ctx context.Context, student *model.Profile, formID uint, index int) (*WizardStep, error) {
	step, err := s.Resume(ctx, student, formID)
	if err != nil {
		return nil, err
	}
	state := step.State
	if index < 0 || index >= len(state.Teammates) {
		return nil, fmt.Errorf("teammate index %d out of range", index)
	}
	state.CurrentIndex = index
	state.UpdatedAt = time.Now()
	if err := s.persist(ctx, student, state); err != nil {
		return nil, err
	}
	return &WizardStep{Step: StepEvaluating, State: state}, nil
}

// persist writes the state to the session cache and mirrors the whole
// payload into the single draft row for (student, form).
func (s *EvaluationService) persist(ctx context.Context, student *model.Profile, state *model.WizardState) error {
	if err := s.Sessions.SaveWizard(ctx, student.ID, state); err != nil {
		return err
	}
	raw, err := state.MarshalDraft()
	if err != nil {
		return err
	}
	_, err = s.DraftRepo.Replace(student.ID, state.FormID, state.TeamName, raw)
	return err
}

// commit writes the final rows in one transaction: one FormResponse per
// teammate plus its answers, then removes the pending marker and the draft.
// Any failure rolls everything back; the session and draft survive so the
// student can retry the same submit.
func (s *EvaluationService) commit(ctx context.Context, student *model.Profile, form *model.FormTemplate, state *model.WizardState) (int, error) {
	now := time.Now()
	created := 0

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for _, name := range state.Teammates {
			ev, ok := state.EvaluationFor(name)
			if !ok || strings.TrimSpace(ev.Teammate) == "" {
				return fmt.Errorf("missing evaluation for teammate %q", name)
			}
			resp := model.FormResponse{
				FormID:        form.ID,
				SubmittedByID: student.ID,
				TeamName:      state.TeamName,
				TeammateName:  ev.Teammate,
				IsDraft:       false,
				SubmittedAt:   now,
			}
			if err := tx.Create(&resp).Error; err != nil {
				return err
			}
			for question, answer := range ev.Answers {
				ans := model.ResponseAnswer{
					ResponseID: resp.ID,
					Question:   question,
					Answer:     answer,
				}
				if err := tx.Create(&ans).Error; err != nil {
					return err
				}
			}
			created++
		}

		// Unscoped: the unique indexes on pending and draft rows must free
		// their slots so the same form can be re-accepted later.
		if err := tx.Unscoped().Where("student_id = ? AND form_id = ?", student.ID, form.ID).
			Delete(&model.PendingEvaluation{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("student_id = ? AND form_id = ?", student.ID, form.ID).
			Delete(&model.DraftResponse{}).Error
	})
	if err != nil {
		monitoring.EvaluationCommits.WithLabelValues("error").Inc()
		return 0, err
	}

	monitoring.EvaluationCommits.WithLabelValues("success").Inc()

	// Only after the transaction holds: the session is a cache, losing it
	// here at worst re-offers an already-committed wizard.
	if err := s.Sessions.ClearWizard(ctx, student.ID, form.ID); err != nil {
		return created, err
	}
	return created, nil
}

// filterAnswers drops answers for keys the form does not define.
func filterAnswers(structure *model.FormStructure, answers map[string]string) map[string]string {
	known := make(map[string]bool)
	for _, key := range structure.QuestionKeys() {
		known[key] = true
	}
	filtered := make(map[string]string, len(answers))
	for key, value := range answers {
		if known[key] {
			filtered[key] = value
		}
	}
	return filtered
}
