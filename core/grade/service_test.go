package grade

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeGradeRepo struct {
	grades map[string]*Grade
}

func (repo *fakeGradeRepo) CreateGrade(_ context.Context, g Grade) (Grade, error) {
	g.ID = "g" + string(rune('1'+len(repo.grades)))
	repo.grades[g.ID] = &g
	return g, nil
}

func (repo *fakeGradeRepo) QueryGrades(_ context.Context, filter QueryFilter) ([]Grade, error) {
	var grades []Grade
	for _, g := range repo.grades {
		if filter.TeacherID != "" && !g.HasTeacher(filter.TeacherID) {
			continue
		}
		if filter.StudentID != "" && !g.HasStudent(filter.StudentID) {
			continue
		}
		grades = append(grades, *g)
	}
	return grades, nil
}

func (repo *fakeGradeRepo) GetGradeByID(_ context.Context, id string) (Grade, error) {
	if g, ok := repo.grades[id]; ok {
		return *g, nil
	}
	return Grade{}, ErrNotFound
}

func (repo *fakeGradeRepo) UpdateGrade(_ context.Context, g Grade) (Grade, error) {
	repo.grades[g.ID] = &g
	return g, nil
}

func (repo *fakeGradeRepo) UpdateOrCreateGrade(ctx context.Context, g Grade) (Grade, error) {
	for _, orig := range repo.grades {
		if orig.Name == g.Name {
			g.ID = orig.ID
			repo.grades[g.ID] = &g
			return g, nil
		}
	}
	return repo.CreateGrade(ctx, g)
}

func (repo *fakeGradeRepo) DeleteGrade(_ context.Context, id string) error {
	delete(repo.grades, id)
	return nil
}

func (repo *fakeGradeRepo) ReplaceMembers(_ context.Context, gradeID string, a Assignment) (Grade, error) {
	g, ok := repo.grades[gradeID]
	if !ok {
		return Grade{}, ErrNotFound
	}
	if a.TeacherIDs != nil {
		g.TeacherIDs = a.TeacherIDs
	}
	if a.StudentIDs != nil {
		g.StudentIDs = a.StudentIDs
	}
	if a.SubjectIDs != nil {
		g.SubjectIDs = a.SubjectIDs
	}
	g.UpdatedAt = time.Now().UTC()
	return *g, nil
}

// fakeUserRefs tracks back-references per (field, grade).
type fakeUserRefs struct {
	refs map[RefField]map[string][]string
}

func newFakeUserRefs() *fakeUserRefs {
	return &fakeUserRefs{refs: map[RefField]map[string][]string{
		RefAssigned: {},
		RefEnrolled: {},
	}}
}

func (f *fakeUserRefs) GradeRefHolders(_ context.Context, field RefField, gradeID string) ([]string, error) {
	return f.refs[field][gradeID], nil
}

func (f *fakeUserRefs) AddGradeRef(_ context.Context, field RefField, gradeID string, userIDs []string) error {
	for _, id := range userIDs {
		if !containsID(f.refs[field][gradeID], id) {
			f.refs[field][gradeID] = append(f.refs[field][gradeID], id)
		}
	}
	return nil
}

func (f *fakeUserRefs) RemoveGradeRef(_ context.Context, field RefField, gradeID string, userIDs []string) error {
	kept := make([]string, 0, len(f.refs[field][gradeID]))
	for _, id := range f.refs[field][gradeID] {
		if !containsID(userIDs, id) {
			kept = append(kept, id)
		}
	}
	f.refs[field][gradeID] = kept
	return nil
}

func setup() (*Service, *fakeGradeRepo, *fakeUserRefs) {
	repo := &fakeGradeRepo{grades: make(map[string]*Grade)}
	refs := newFakeUserRefs()
	return NewService(repo, refs), repo, refs
}

func TestService_Create_initializesMemberSets(t *testing.T) {
	svc, _, _ := setup()

	g, err := svc.Create(context.Background(), NewGrade{Name: "Grade 10"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if g.TeacherIDs == nil || g.StudentIDs == nil || g.SubjectIDs == nil {
		t.Errorf("member sets not initialized: %+v", g)
	}
}

func TestService_Assign_sweepsBackReferences(t *testing.T) {
	svc, _, refs := setup()
	ctx := context.Background()

	g, err := svc.Create(ctx, NewGrade{Name: "Grade 10"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// first assignment
	g, err = svc.Assign(ctx, g.ID, Assignment{
		TeacherIDs: []string{"t1"},
		StudentIDs: []string{"s1", "s2"},
		SubjectIDs: []string{"sub1"},
	})
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	assert.ElementsMatch(t, []string{"t1"}, refs.refs[RefAssigned][g.ID])
	assert.ElementsMatch(t, []string{"s1", "s2"}, refs.refs[RefEnrolled][g.ID])

	// replacement: s1 leaves, s3 joins
	g, err = svc.Assign(ctx, g.ID, Assignment{StudentIDs: []string{"s2", "s3"}})
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	assert.ElementsMatch(t, []string{"s2", "s3"}, g.StudentIDs)
	assert.ElementsMatch(t, []string{"s2", "s3"}, refs.refs[RefEnrolled][g.ID])
	// teachers untouched: nil means "leave unchanged"
	assert.ElementsMatch(t, []string{"t1"}, refs.refs[RefAssigned][g.ID])

	// empty non-nil slice clears the set
	g, err = svc.Assign(ctx, g.ID, Assignment{TeacherIDs: []string{}})
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	assert.Empty(t, g.TeacherIDs)
	assert.Empty(t, refs.refs[RefAssigned][g.ID])

	// re-running the same assignment converges
	g, err = svc.Assign(ctx, g.ID, Assignment{StudentIDs: []string{"s2", "s3"}})
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	assert.ElementsMatch(t, []string{"s2", "s3"}, refs.refs[RefEnrolled][g.ID])
}

func TestService_Assign_unknownGrade(t *testing.T) {
	svc, _, _ := setup()

	if _, err := svc.Assign(context.Background(), "nope", Assignment{StudentIDs: []string{"s1"}}); err != ErrNotFound {
		t.Errorf("Assign() error = %v, want %v", err, ErrNotFound)
	}
}

func TestService_QueryByMembership(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	g1, _ := svc.Create(ctx, NewGrade{Name: "Grade 10"})
	g2, _ := svc.Create(ctx, NewGrade{Name: "Grade 11"})
	if _, err := svc.Assign(ctx, g1.ID, Assignment{TeacherIDs: []string{"t1"}, StudentIDs: []string{"s1"}}); err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	if _, err := svc.Assign(ctx, g2.ID, Assignment{TeacherIDs: []string{"t2"}, StudentIDs: []string{"s1"}}); err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}

	grades, err := svc.QueryByTeacher(ctx, "t1")
	if err != nil {
		t.Fatalf("QueryByTeacher() failed: %v", err)
	}
	if len(grades) != 1 || grades[0].ID != g1.ID {
		t.Errorf("QueryByTeacher() = %+v, want [%s]", grades, g1.ID)
	}

	grades, err = svc.QueryByStudent(ctx, "s1")
	if err != nil {
		t.Fatalf("QueryByStudent() failed: %v", err)
	}
	if len(grades) != 2 {
		t.Errorf("QueryByStudent() returned %d grades, want 2", len(grades))
	}
}
