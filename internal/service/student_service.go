package service

import (
	"errors"
	"evalmate_backend/internal/model"
	"evalmate_backend/internal/repository"
	"evalmate_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// StudentService backs the student dashboard: pending evaluations with
// derived urgency, submission history grouped by (form, team), and the
// draft persistence endpoints.
type StudentService struct {
	FormRepo     *repository.FormRepository
	PendingRepo  *repository.PendingRepository
	DraftRepo    *repository.DraftRepository
	ResponseRepo *repository.ResponseRepository
}

func NewStudentService(
	formRepo *repository.FormRepository,
	pendingRepo *repository.PendingRepository,
	draftRepo *repository.DraftRepository,
	responseRepo *repository.ResponseRepository,
) *StudentService {
	return &StudentService{
		FormRepo:     formRepo,
		PendingRepo:  pendingRepo,
		DraftRepo:    draftRepo,
		ResponseRepo: responseRepo,
	}
}

// PendingItem is one pending evaluation as shown on the dashboard.
// DaysLeft and Status are derived, never stored.
type PendingItem struct {
	ID         uint   `json:"id"`
	FormID     uint   `json:"form_id"`
	FormTitle  string `json:"form_title"`
	CourseID   string `json:"course_id"`
	AddedAt    string `json:"added_at"`
	DueDateStr string `json:"due_date_str,omitempty"`
	DaysLeft   *int   `json:"days_left"`
	Status     string `json:"status"`
	HasDraft   bool   `json:"has_draft"`
}

func (s *StudentService) PendingEvaluations(student *model.Profile) ([]PendingItem, error) {
	pendings, err := s.PendingRepo.ListByStudent(student.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	items := make([]PendingItem, 0, len(pendings))
	for i := range pendings {
		p := &pendings[i]
		hasDraft, err := s.DraftRepo.ExistsFor(student.ID, p.FormID)
		if err != nil {
			return nil, err
		}
		daysLeft := model.DaysLeft(&p.Form, now)
		item := PendingItem{
			ID:        p.ID,
			FormID:    p.FormID,
			FormTitle: p.Form.Title,
			CourseID:  p.Form.CourseID,
			AddedAt:   p.AddedAt.Format(util.DateFormat),
			DaysLeft:  daysLeft,
			Status:    model.PendingStatus(daysLeft, hasDraft),
			HasDraft:  hasDraft,
		}
		if due, ok := p.Form.DueDate(); ok {
			item.DueDateStr = due.Format(util.DateFormat)
		}
		items = append(items, item)
	}
	return items, nil
}

// RemovePending deletes a pending marker; only its owner may do so.
func (s *StudentService) RemovePending(student *model.Profile, pendingID uint) error {
	pending, err := s.PendingRepo.FindByID(pendingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrPendingNotFound
		}
		return err
	}
	if pending.StudentID != student.ID {
		return util.ErrPermissionDenied
	}
	return s.PendingRepo.Delete(pending.ID)
}

// HistoryItem is one submitted team evaluation: the student's rows for a
// form grouped under the team they named.
type HistoryItem struct {
	FormID        uint   `json:"form_id"`
	FormTitle     string `json:"form_title"`
	CourseID      string `json:"course_id"`
	TeamName      string `json:"team_name"`
	TeammateCount int    `json:"teammate_count"`
	SubmittedAt   string `json:"submitted_at"`
}

// History groups the student's committed responses by (form, team); each
// group is one logical submission regardless of its per-teammate row count.
func (s *StudentService) History(student *model.Profile) ([]HistoryItem, error) {
	responses, err := s.ResponseRepo.ListByStudent(student.ID)
	if err != nil {
		return nil, err
	}

	type key struct {
		formID uint
		team   string
	}
	grouped := make(map[key]*HistoryItem)
	var order []key
	for i := range responses {
		r := &responses[i]
		k := key{r.FormID, r.TeamName}
		if item, ok := grouped[k]; ok {
			item.TeammateCount++
			continue
		}
		form, err := s.FormRepo.FindByID(r.FormID)
		title, course := "", ""
		if err == nil {
			title, course = form.Title, form.CourseID
		}
		grouped[k] = &HistoryItem{
			FormID:        r.FormID,
			FormTitle:     title,
			CourseID:      course,
			TeamName:      r.TeamName,
			TeammateCount: 1,
			SubmittedAt:   r.SubmittedAt.Format(util.TimeFormat),
		}
		order = append(order, k)
	}

	items := make([]HistoryItem, 0, len(order))
	for _, k := range order {
		items = append(items, *grouped[k])
	}
	return items, nil
}

// HistoryDetail returns one of the student's own response rows with its
// answers.
func (s *StudentService) HistoryDetail(student *model.Profile, responseID uint) (*model.FormResponse, error) {
	resp, err := s.ResponseRepo.FindByID(responseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResponseNotFound
		}
		return nil, err
	}
	if resp.SubmittedByID != student.ID {
		return nil, util.ErrPermissionDenied
	}
	return resp, nil
}

// SaveDraft persists a raw wizard payload for (student, form), replacing
// any prior draft.
func (s *StudentService) SaveDraft(student *model.Profile, formID uint, data []byte) (*model.DraftResponse, error) {
	state, ok := model.ParseWizardState(data)
	if !ok {
		return nil, util.ErrNoWizardSession
	}
	if _, err := s.FormRepo.FindByID(formID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrFormNotFound
		}
		return nil, err
	}
	return s.DraftRepo.Replace(student.ID, formID, state.TeamName, data)
}

func (s *StudentService) GetDraft(student *model.Profile, formID uint) (*model.DraftResponse, error) {
	draft, err := s.DraftRepo.FindByStudentForm(student.ID, formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrDraftNotFound
		}
		return nil, err
	}
	return draft, nil
}

func (s *StudentService) DeleteDraft(student *model.Profile, formID uint) error {
	return s.DraftRepo.DeleteByStudentForm(student.ID, formID)
}

// DashboardSummary backs the student landing page counters.
type DashboardSummary struct {
	PendingCount   int `json:"pending_count"`
	CompletedCount int `json:"completed_count"`
	CompletionRate int `json:"completion_rate"`
}

func (s *StudentService) Dashboard(student *model.Profile) (*DashboardSummary, error) {
	pending, err := s.PendingEvaluations(student)
	if err != nil {
		return nil, err
	}
	history, err := s.History(student)
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		PendingCount:   len(pending),
		CompletedCount: len(history),
	}
	if total := summary.PendingCount + summary.CompletedCount; total > 0 {
		summary.CompletionRate = summary.CompletedCount * 100 / total
	}
	return summary, nil
}
