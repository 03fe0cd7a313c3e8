package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/grade"
)

type gradeRepository struct {
	db *DB
}

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db}
}

var _ grade.Repository = (*gradeRepository)(nil)

func copyGrade(g *grade.Grade) grade.Grade {
	cp := *g
	cp.TeacherIDs = copyIDs(g.TeacherIDs)
	cp.StudentIDs = copyIDs(g.StudentIDs)
	cp.SubjectIDs = copyIDs(g.SubjectIDs)
	return cp
}

func (repo *gradeRepository) CreateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g.ID = uuid.New().String()
	repo.db.grades[g.ID] = &g
	return copyGrade(&g), nil
}

func (repo *gradeRepository) QueryGrades(ctx context.Context, filter grade.QueryFilter) ([]grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var grades []grade.Grade
	for _, g := range repo.db.grades {
		if filter.TeacherID != "" && !containsID(g.TeacherIDs, filter.TeacherID) {
			continue
		}
		if filter.StudentID != "" && !containsID(g.StudentIDs, filter.StudentID) {
			continue
		}
		grades = append(grades, copyGrade(g))
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].CreatedAt.Before(grades[j].CreatedAt) })
	return grades, nil
}

func (repo *gradeRepository) GetGradeByID(ctx context.Context, id string) (grade.Grade, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if g, ok := repo.db.grades[id]; ok {
		return copyGrade(g), nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) UpdateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.grades[g.ID]
	if !ok {
		return grade.Grade{}, grade.ErrNotFound
	}

	// member sets are owned by ReplaceMembers
	g.TeacherIDs = orig.TeacherIDs
	g.StudentIDs = orig.StudentIDs
	g.SubjectIDs = orig.SubjectIDs
	repo.db.grades[g.ID] = &g
	return copyGrade(&g), nil
}

func (repo *gradeRepository) UpdateOrCreateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, orig := range repo.db.grades {
		if orig.Name == g.Name {
			g.ID = orig.ID
			g.CreatedAt = orig.CreatedAt
			repo.db.grades[g.ID] = &g
			return copyGrade(&g), nil
		}
	}

	g.ID = uuid.New().String()
	repo.db.grades[g.ID] = &g
	return copyGrade(&g), nil
}

func (repo *gradeRepository) DeleteGrade(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.grades, id)
	return nil
}

func (repo *gradeRepository) ReplaceMembers(ctx context.Context, gradeID string, a grade.Assignment) (grade.Grade, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g, ok := repo.db.grades[gradeID]
	if !ok {
		return grade.Grade{}, grade.ErrNotFound
	}

	if a.TeacherIDs != nil {
		g.TeacherIDs = copyIDs(a.TeacherIDs)
	}
	if a.StudentIDs != nil {
		g.StudentIDs = copyIDs(a.StudentIDs)
	}
	if a.SubjectIDs != nil {
		g.SubjectIDs = copyIDs(a.SubjectIDs)
	}
	g.UpdatedAt = time.Now().UTC()
	return copyGrade(g), nil
}
