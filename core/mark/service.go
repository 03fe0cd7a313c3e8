package mark

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/grade"
)

var (
	// errors; the membership ones depend on cross-entity state, not
	// input shape, and are distinct from plain not-found.
	ErrGradeNotFound     = errors.New("grade not found")
	ErrNotGradeTeacher   = errors.New("teacher not assigned to this grade")
	ErrStudentNotInGrade = errors.New("student not in grade")
	ErrSubjectNotInGrade = errors.New("subject not in grade")
)

type (
	Repository interface {
		// UpsertMark saves by the (StudentID, SubjectID, GradeID)
		// natural key: the storage-enforced uniqueness constraint
		// guarantees a single record per key under concurrent writers.
		UpsertMark(ctx context.Context, m Mark) (Mark, error)
		QueryMarksByGrade(ctx context.Context, gradeID string) ([]Mark, error)
		QueryMarksByStudent(ctx context.Context, studentID string, gradeIDs []string) ([]Mark, error)
	}

	GradeGetter interface {
		GetGradeByID(ctx context.Context, id string) (grade.Grade, error)
	}

	Service struct {
		repo   Repository
		grades GradeGetter
	}
)

func NewService(repo Repository, grades GradeGetter) *Service {
	return &Service{
		repo:   repo,
		grades: grades,
	}
}

// Save records a mark for a (student, subject, grade) triple, overwriting
// any previous one. Preconditions run in a fixed order and the first
// failing check determines the reported error: grade exists, the acting
// teacher teaches it, the student is enrolled, the subject is attached.
func (svc *Service) Save(ctx context.Context, sm SaveMark, teacherID string) (Mark, error) {
	g, err := svc.grades.GetGradeByID(ctx, sm.GradeID)
	if err != nil {
		if errors.Cause(err) == grade.ErrNotFound {
			return Mark{}, ErrGradeNotFound
		}
		return Mark{}, errors.Wrap(err, "finding grade by ID")
	}
	if !g.HasTeacher(teacherID) {
		return Mark{}, ErrNotGradeTeacher
	}
	if !g.HasStudent(sm.StudentID) {
		return Mark{}, ErrStudentNotInGrade
	}
	if !g.HasSubject(sm.SubjectID) {
		return Mark{}, ErrSubjectNotInGrade
	}

	now := time.Now().UTC()
	m := Mark{
		StudentID:   sm.StudentID,
		SubjectID:   sm.SubjectID,
		GradeID:     sm.GradeID,
		TeacherID:   teacherID,
		Marks:       sm.Marks,
		LetterGrade: MarksToLetterGrade(sm.Marks),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.UpsertMark(ctx, m)
}

func (svc *Service) ByGrade(ctx context.Context, gradeID string) ([]Mark, error) {
	marks, err := svc.repo.QueryMarksByGrade(ctx, gradeID)
	return withLetterGrades(marks), err
}

func (svc *Service) ByStudent(ctx context.Context, studentID string, gradeIDs []string) ([]Mark, error) {
	marks, err := svc.repo.QueryMarksByStudent(ctx, studentID, gradeIDs)
	return withLetterGrades(marks), err
}

func withLetterGrades(marks []Mark) []Mark {
	for i := range marks {
		marks[i].LetterGrade = marks[i].Letter()
	}
	return marks
}

// Performance summarizes one student's marks.
type Performance struct {
	Average   float64             `json:"average"`
	Total     int                 `json:"total"`
	Breakdown map[LetterGrade]int `json:"breakdown"`
}

// ComputePerformance aggregates a set of marks: mean rounded to two
// decimals (0 for an empty set, never NaN), count, and a per-letter
// breakdown with all nine letters always present.
func ComputePerformance(marks []Mark) Performance {
	breakdown := make(map[LetterGrade]int, len(AllLetterGrades))
	for _, lg := range AllLetterGrades {
		breakdown[lg] = 0
	}

	var sum float64
	for _, m := range marks {
		sum += m.Marks
		breakdown[m.Letter()]++
	}

	var avg float64
	if len(marks) > 0 {
		avg = math.Round(sum/float64(len(marks))*100) / 100
	}
	return Performance{
		Average:   avg,
		Total:     len(marks),
		Breakdown: breakdown,
	}
}
