package service

import (
	"errors"
	"evalmate_backend/internal/model"
	"evalmate_backend/internal/repository"
	"evalmate_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// ReportService builds the faculty-facing views over committed responses.
// All entry points verify form ownership before touching response data.
type ReportService struct {
	FormRepo     *repository.FormRepository
	ResponseRepo *repository.ResponseRepository
	ProfileRepo  *repository.ProfileRepository
}

func NewReportService(
	formRepo *repository.FormRepository,
	responseRepo *repository.ResponseRepository,
	profileRepo *repository.ProfileRepository,
) *ReportService {
	return &ReportService{
		FormRepo:     formRepo,
		ResponseRepo: responseRepo,
		ProfileRepo:  profileRepo,
	}
}

func (s *ReportService) ownedForm(faculty *model.Profile, formID uint) (*model.FormTemplate, error) {
	form, err := s.FormRepo.FindByID(formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrFormNotFound
		}
		return nil, err
	}
	if form.CreatedByID != faculty.ID {
		return nil, util.ErrPermissionDenied
	}
	return form, nil
}

// FormSummary is the per-form card on the faculty dashboard. ResponseCount
// counts logical submissions, one per (student, team), not stored rows.
type FormSummary struct {
	FormID         uint   `json:"form_id"`
	Title          string `json:"title"`
	CourseID       string `json:"course_id"`
	Privacy        string `json:"privacy"`
	ResponseCount  int    `json:"response_count"`
	SubmittedToday int    `json:"submitted_today"`
	HasUnread      bool   `json:"has_unread"`
	CreatedAt      string `json:"created_at"`
	DueDateStr     string `json:"due_date_str,omitempty"`
	IsExpired      bool   `json:"is_expired"`
}

func (s *ReportService) FormSummary(faculty *model.Profile, formID uint) (*FormSummary, error) {
	form, err := s.ownedForm(faculty, formID)
	if err != nil {
		return nil, err
	}
	return s.summarize(form)
}

func (s *ReportService) summarize(form *model.FormTemplate) (*FormSummary, error) {
	groups, err := s.ResponseRepo.GroupBySubmitter(form.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	today := now.Format(util.DateFormat)
	summary := &FormSummary{
		FormID:        form.ID,
		Title:         form.Title,
		CourseID:      form.CourseID,
		Privacy:       string(form.Privacy),
		ResponseCount: len(groups),
		IsExpired:     form.IsExpired(now),
		CreatedAt:     form.CreatedAt.Format(util.DateFormat),
	}
	if due, ok := form.DueDate(); ok {
		summary.DueDateStr = due.Format(util.DateFormat)
	}
	for _, g := range groups {
		if g.SubmittedAt.Format(util.DateFormat) == today {
			summary.SubmittedToday++
		}
		if g.UnreadCount > 0 {
			summary.HasUnread = true
		}
	}
	return summary, nil
}

// SubmissionOverview is one row of the form report: a student's submission
// for a team, with the individual teammate rows listed for drill-down.
type SubmissionOverview struct {
	SubmittedByID uint               `json:"submitted_by_id"`
	SubmitterName string             `json:"submitter_name"`
	TeamName      string             `json:"team_name"`
	TeammateCount int                `json:"teammate_count"`
	SubmittedAt   string             `json:"submitted_at"`
	UnreadCount   int                `json:"unread_count"`
	Responses     []TeammateResponse `json:"responses"`
}

// TeammateResponse identifies one per-teammate row without its answers.
type TeammateResponse struct {
	ID           uint   `json:"id"`
	TeammateName string `json:"teammate_name"`
	IsRead       bool   `json:"is_read"`
}

// FormResponses lists a form's submissions grouped by (student, team).
func (s *ReportService) FormResponses(faculty *model.Profile, formID uint) ([]SubmissionOverview, error) {
	if _, err := s.ownedForm(faculty, formID); err != nil {
		return nil, err
	}

	groups, err := s.ResponseRepo.GroupBySubmitter(formID)
	if err != nil {
		return nil, err
	}
	rows, err := s.ResponseRepo.ListByForm(formID)
	if err != nil {
		return nil, err
	}

	submitterIDs := make([]uint, 0, len(groups))
	for _, g := range groups {
		submitterIDs = append(submitterIDs, g.SubmittedByID)
	}
	profiles, err := s.ProfileRepo.FindManyByID(submitterIDs)
	if err != nil {
		return nil, err
	}

	overviews := make([]SubmissionOverview, 0, len(groups))
	for _, g := range groups {
		ov := SubmissionOverview{
			SubmittedByID: g.SubmittedByID,
			TeamName:      g.TeamName,
			TeammateCount: g.TeammateCount,
			SubmittedAt:   g.SubmittedAt.Format(util.TimeFormat),
			UnreadCount:   g.UnreadCount,
		}
		if p, ok := profiles[g.SubmittedByID]; ok {
			ov.SubmitterName = p.FullName()
		}
		for i := range rows {
			r := &rows[i]
			if r.SubmittedByID != g.SubmittedByID || r.TeamName != g.TeamName {
				continue
			}
			ov.Responses = append(ov.Responses, TeammateResponse{
				ID:           r.ID,
				TeammateName: r.TeammateName,
				IsRead:       r.IsRead,
			})
		}
		overviews = append(overviews, ov)
	}
	return overviews, nil
}

// ResponseDetail is one teammate row with its answers. WasUnread reports
// whether this fetch was the first read.
type ResponseDetail struct {
	ID            uint              `json:"id"`
	FormID        uint              `json:"form_id"`
	SubmittedByID uint              `json:"submitted_by_id"`
	SubmitterName string            `json:"submitter_name"`
	TeamName      string            `json:"team_name"`
	TeammateName  string            `json:"teammate_name"`
	SubmittedAt   string            `json:"submitted_at"`
	WasUnread     bool              `json:"was_unread"`
	Answers       map[string]string `json:"answers"`
}

// ResponseDetail fetches one teammate row for the owning faculty member
// and marks it read as a side effect of viewing.
func (s *ReportService) ResponseDetail(faculty *model.Profile, responseID uint) (*ResponseDetail, error) {
	resp, err := s.ResponseRepo.FindByID(responseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResponseNotFound
		}
		return nil, err
	}
	if _, err := s.ownedForm(faculty, resp.FormID); err != nil {
		return nil, err
	}

	detail := &ResponseDetail{
		ID:            resp.ID,
		FormID:        resp.FormID,
		SubmittedByID: resp.SubmittedByID,
		TeamName:      resp.TeamName,
		TeammateName:  resp.TeammateName,
		SubmittedAt:   resp.SubmittedAt.Format(util.TimeFormat),
		WasUnread:     !resp.IsRead,
		Answers:       make(map[string]string, len(resp.Answers)),
	}
	for _, a := range resp.Answers {
		detail.Answers[a.Question] = a.Answer
	}
	if p, err := s.ProfileRepo.FindByID(resp.SubmittedByID); err == nil {
		detail.SubmitterName = p.FullName()
	}

	if !resp.IsRead {
		if err := s.ResponseRepo.MarkRead(resp.ID); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// FacultyDashboard summarizes every form the faculty member owns.
func (s *ReportService) FacultyDashboard(faculty *model.Profile) ([]FormSummary, error) {
	forms, err := s.FormRepo.FindByOwner(faculty.ID)
	if err != nil {
		return nil, err
	}
	summaries := make([]FormSummary, 0, len(forms))
	for i := range forms {
		summary, err := s.summarize(&forms[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}
