package util

import (
	"net/mail"
	"strconv"
	"strings"
)

func ValidEmail(s string) bool {
	if s == "" {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}

// ParseGPA parses a GPA string and enforces the 0.00 to 4.00 scale.
func ParseGPA(s string) (float64, error) {
	gpa, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || gpa < 0 || gpa > 4 {
		return 0, ErrInvalidGPA
	}
	return gpa, nil
}
