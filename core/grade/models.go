package grade

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Grade is a class/cohort grouping teachers, students and subjects,
// not to be confused with the letter-grade concept.
type Grade struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TeacherIDs  []string  `json:"teacher_ids"`
	StudentIDs  []string  `json:"student_ids"`
	SubjectIDs  []string  `json:"subject_ids"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (g Grade) HasTeacher(userID string) bool { return containsID(g.TeacherIDs, userID) }
func (g Grade) HasStudent(userID string) bool { return containsID(g.StudentIDs, userID) }
func (g Grade) HasSubject(subjID string) bool { return containsID(g.SubjectIDs, subjID) }

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// NewGrade contains information needed to create a new Grade.
type NewGrade struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	ng.Description = core.CleanString(ng.Description)
	return validate.Struct(ng)
}

// UpdateGrade defines what information may be provided to modify an existing Grade.
type UpdateGrade struct {
	Name        string  `json:"name" validate:"omitempty,min=2"`
	Description *string `json:"description"`
}

func (ug *UpdateGrade) Validate(validate *validator.Validate) error {
	ug.Name = core.CleanString(ug.Name)
	if ug.Description != nil {
		desc := core.CleanString(*ug.Description)
		ug.Description = &desc
	}
	return validate.Struct(ug)
}

// Assignment carries optionally-supplied replacement member sets.
// A nil slice means "leave unchanged"; an empty non-nil slice clears the set.
type Assignment struct {
	TeacherIDs []string `json:"teacher_ids"`
	StudentIDs []string `json:"student_ids"`
	SubjectIDs []string `json:"subject_ids"`
}

func (a Assignment) IsEmpty() bool {
	return a.TeacherIDs == nil && a.StudentIDs == nil && a.SubjectIDs == nil
}
