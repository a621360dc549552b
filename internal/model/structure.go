package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Question types supported by the form builder.
const (
	QuestionText     = "text"
	QuestionRadio    = "radio"
	QuestionCheckbox = "checkbox"
	QuestionRange    = "range"
)

const (
	DefaultMinTeamSize = 2
	DefaultMaxTeamSize = 10
)

var ErrInvalidStructure = errors.New("invalid form structure")

// FormStructure is the typed view of a FormTemplate's structure document.
// It is validated once at the boundary; downstream code never re-interprets
// the raw JSON.
type FormStructure struct {
	ID          string        `json:"id,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Sections    []FormSection `json:"sections"`
	Settings    FormSettings  `json:"settings"`
}

type FormSection struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

// Question is a tagged variant: Type selects which of the optional fields
// are meaningful (Options for radio/checkbox, Min/Max for range).
type Question struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Min      int      `json:"min,omitempty"`
	Max      int      `json:"max,omitempty"`
}

type FormSettings struct {
	CourseID        string `json:"courseId,omitempty"`
	DueDate         string `json:"dueDate,omitempty"` // YYYY-MM-DD
	MinTeamSize     int    `json:"minTeamSize,omitempty"`
	MaxTeamSize     int    `json:"maxTeamSize,omitempty"`
	RequirePasscode bool   `json:"requirePasscode,omitempty"`
	Passcode        string `json:"passcode,omitempty"`
	Accessibility   string `json:"accessibility,omitempty"`
	Publish         bool   `json:"publish,omitempty"`
}

// TeamSizeBounds returns the inclusive teammate-count bounds, applying the
// 2/10 defaults when unset.
func (s *FormStructure) TeamSizeBounds() (min, max int) {
	min, max = s.Settings.MinTeamSize, s.Settings.MaxTeamSize
	if min <= 0 {
		min = DefaultMinTeamSize
	}
	if max <= 0 {
		max = DefaultMaxTeamSize
	}
	return min, max
}

// QuestionKeys lists the keys of every question in section order. Answers
// are stored against these keys.
func (s *FormStructure) QuestionKeys() []string {
	var keys []string
	for _, sec := range s.Sections {
		for _, q := range sec.Questions {
			keys = append(keys, q.ID)
		}
	}
	return keys
}

// ParseFormStructure decodes and validates a structure document.
func ParseFormStructure(raw json.RawMessage) (*FormStructure, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidStructure
	}
	var fs FormStructure
	if err := json.Unmarshal(raw, &fs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	return &fs, nil
}

// Validate checks the per-type question invariants and the team-size bounds.
func (s *FormStructure) Validate() error {
	min, max := s.TeamSizeBounds()
	if min > max {
		return fmt.Errorf("%w: minTeamSize %d exceeds maxTeamSize %d", ErrInvalidStructure, min, max)
	}
	seen := make(map[string]bool)
	for _, sec := range s.Sections {
		for _, q := range sec.Questions {
			if q.ID == "" {
				return fmt.Errorf("%w: question without id in section %q", ErrInvalidStructure, sec.Title)
			}
			if seen[q.ID] {
				return fmt.Errorf("%w: duplicate question id %q", ErrInvalidStructure, q.ID)
			}
			seen[q.ID] = true

			switch q.Type {
			case QuestionText:
			case QuestionRadio, QuestionCheckbox:
				if len(q.Options) == 0 {
					return fmt.Errorf("%w: question %q has no options", ErrInvalidStructure, q.ID)
				}
			case QuestionRange:
				if q.Min >= q.Max {
					return fmt.Errorf("%w: question %q has empty range [%d,%d]", ErrInvalidStructure, q.ID, q.Min, q.Max)
				}
			default:
				return fmt.Errorf("%w: unknown question type %q", ErrInvalidStructure, q.Type)
			}
		}
	}
	return nil
}

// Marshal re-encodes the structure for storage.
func (s *FormStructure) Marshal() (json.RawMessage, error) {
	return json.Marshal(s)
}
