package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/mark"
)

type markRepository struct {
	db *DB
}

func NewMarkRepository(db *DB) *markRepository {
	return &markRepository{db: db}
}

var _ mark.Repository = (*markRepository)(nil)

func (repo *markRepository) UpsertMark(ctx context.Context, m mark.Mark) (mark.Mark, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// one record per (student, subject, grade)
	for _, orig := range repo.db.marks {
		if orig.StudentID == m.StudentID && orig.SubjectID == m.SubjectID && orig.GradeID == m.GradeID {
			m.ID = orig.ID
			m.CreatedAt = orig.CreatedAt
			repo.db.marks[m.ID] = &m
			return m, nil
		}
	}

	m.ID = uuid.New().String()
	repo.db.marks[m.ID] = &m
	return m, nil
}

func (repo *markRepository) QueryMarksByGrade(ctx context.Context, gradeID string) ([]mark.Mark, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var marks []mark.Mark
	for _, m := range repo.db.marks {
		if m.GradeID == gradeID {
			marks = append(marks, *m)
		}
	}
	sortMarks(marks)
	return marks, nil
}

func (repo *markRepository) QueryMarksByStudent(ctx context.Context, studentID string, gradeIDs []string) ([]mark.Mark, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var marks []mark.Mark
	for _, m := range repo.db.marks {
		if m.StudentID == studentID && containsID(gradeIDs, m.GradeID) {
			marks = append(marks, *m)
		}
	}
	sortMarks(marks)
	return marks, nil
}

func sortMarks(marks []mark.Mark) {
	sort.Slice(marks, func(i, j int) bool { return marks[i].CreatedAt.Before(marks[j].CreatedAt) })
}
