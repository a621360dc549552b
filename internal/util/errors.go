package util

import "errors"

var (
	ErrEmailRegistered    = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrFormNotFound       = errors.New("form not found")
	ErrFormExpired        = errors.New("form is past its due date")
	ErrPasscodeRequired   = errors.New("passcode required")
	ErrPasscodeIncorrect  = errors.New("incorrect passcode")
	ErrNoWizardSession    = errors.New("no evaluation in progress")
	ErrTeamSizeOutOfRange = errors.New("teammate count outside the form's team size bounds")
	ErrTeammateUnknown    = errors.New("teammate is not on the team")
	ErrDraftNotFound      = errors.New("draft not found")
	ErrResponseNotFound   = errors.New("response not found")
	ErrPendingNotFound    = errors.New("pending evaluation not found")
	ErrAlreadySubmitted   = errors.New("evaluation already submitted for this form")
	ErrInvalidGPA         = errors.New("GPA must be between 0.00 and 4.00")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidDate        = errors.New("invalid date, expected YYYY-MM-DD")
)
