package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidGrade is returned when a grade outside easy/medium/hard is
// supplied. Check with errors.Is.
var ErrInvalidGrade = errors.New("invalid recall grade")

// Grade is the user's self-assessment of how well a note was recalled.
type Grade string

const (
	GradeEasy   Grade = "easy"
	GradeMedium Grade = "medium"
	GradeHard   Grade = "hard"
)

// ParseGrade converts a wire string into a Grade.
func ParseGrade(s string) (Grade, error) {
	switch Grade(s) {
	case GradeEasy, GradeMedium, GradeHard:
		return Grade(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGrade, s)
}

// IsValid reports whether g is one of the three known grades.
func (g Grade) IsValid() bool {
	return g == GradeEasy || g == GradeMedium || g == GradeHard
}

func (g Grade) String() string {
	return string(g)
}
