package mark

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// LetterGrade is the letter a numeric score converts to.
type LetterGrade string

const (
	GradeAPlus  LetterGrade = "A+"
	GradeA      LetterGrade = "A"
	GradeBPlus  LetterGrade = "B+"
	GradeB      LetterGrade = "B"
	GradeCPlus  LetterGrade = "C+"
	GradeC      LetterGrade = "C"
	GradeD      LetterGrade = "D"
	GradeDMinus LetterGrade = "D-"
	GradeF      LetterGrade = "F"
)

// AllLetterGrades is ordered best to worst.
var AllLetterGrades = []LetterGrade{
	GradeAPlus, GradeA, GradeBPlus, GradeB, GradeCPlus, GradeC, GradeD, GradeDMinus, GradeF,
}

// MarksToLetterGrade converts numeric marks to a letter grade. Bands are
// closed on their lower bound: exactly 95 is A+, 94.99 is A. The caller
// validates the [0, 100] range; anything below 50 (negatives included)
// falls through to F.
func MarksToLetterGrade(marks float64) LetterGrade {
	switch {
	case marks >= 95:
		return GradeAPlus
	case marks >= 90:
		return GradeA
	case marks >= 85:
		return GradeBPlus
	case marks >= 80:
		return GradeB
	case marks >= 75:
		return GradeCPlus
	case marks >= 70:
		return GradeC
	case marks >= 60:
		return GradeD
	case marks >= 50:
		return GradeDMinus
	default:
		return GradeF
	}
}

// Mark is a score for exactly one (student, subject, grade) triple,
// recorded by one teacher. At most one Mark exists per triple;
// re-submission overwrites in place.
type Mark struct {
	ID          string      `json:"id"`
	StudentID   string      `json:"student_id"`
	SubjectID   string      `json:"subject_id"`
	GradeID     string      `json:"grade_id"`
	TeacherID   string      `json:"teacher_id"`
	Marks       float64     `json:"marks"`
	LetterGrade LetterGrade `json:"letter_grade"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

// Letter returns the stored letter grade, recomputing it for legacy
// records persisted without one.
func (m Mark) Letter() LetterGrade {
	if m.LetterGrade != "" {
		return m.LetterGrade
	}
	return MarksToLetterGrade(m.Marks)
}

// SaveMark contains information needed to record (or overwrite) a Mark.
type SaveMark struct {
	GradeID   string  `json:"grade_id" validate:"required"`
	StudentID string  `json:"student_id" validate:"required"`
	SubjectID string  `json:"subject_id" validate:"required"`
	Marks     float64 `json:"marks" validate:"gte=0,lte=100"`
}

func (sm *SaveMark) Validate(validate *validator.Validate) error {
	return validate.Struct(sm)
}
