package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/subject"
)

type subjectRepository struct {
	db *DB
}

func NewSubjectRepository(db *DB) *subjectRepository {
	return &subjectRepository{db: db}
}

var _ subject.Repository = (*subjectRepository)(nil)

func (repo *subjectRepository) CheckNameUniqueness(ctx context.Context, name string, excludedSubjects ...subject.Subject) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]struct{}, len(excludedSubjects))
	for _, subj := range excludedSubjects {
		excluded[subj.ID] = struct{}{}
	}

	for _, subj := range repo.db.subjects {
		if _, skip := excluded[subj.ID]; skip {
			continue
		}
		if subj.Name == name {
			return subject.ErrNameExists
		}
	}
	return nil
}

func (repo *subjectRepository) CreateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.subjects {
		if s.Name == subj.Name {
			return subject.Subject{}, subject.ErrNameExists
		}
	}

	subj.ID = uuid.New().String()
	repo.db.subjects[subj.ID] = &subj
	return subj, nil
}

func (repo *subjectRepository) QuerySubjects(ctx context.Context) ([]subject.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subjects := make([]subject.Subject, 0, len(repo.db.subjects))
	for _, subj := range repo.db.subjects {
		subjects = append(subjects, *subj)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].CreatedAt.Before(subjects[j].CreatedAt) })
	return subjects, nil
}

func (repo *subjectRepository) GetSubjectByID(ctx context.Context, id string) (subject.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if subj, ok := repo.db.subjects[id]; ok {
		return *subj, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) UpdateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.subjects[subj.ID]; !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	repo.db.subjects[subj.ID] = &subj
	return subj, nil
}

func (repo *subjectRepository) UpdateOrCreateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.subjects {
		if s.Name == subj.Name {
			subj.ID = s.ID
			subj.CreatedAt = s.CreatedAt
			repo.db.subjects[subj.ID] = &subj
			return subj, nil
		}
	}

	subj.ID = uuid.New().String()
	repo.db.subjects[subj.ID] = &subj
	return subj, nil
}

func (repo *subjectRepository) DeleteSubject(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.subjects, id)
	return nil
}
