package grade

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("grade not found")

type (
	// QueryFilter applies AND operation on available fields.
	// Membership fields match grades containing the given user.
	QueryFilter struct {
		TeacherID string
		StudentID string
	}

	Repository interface {
		CreateGrade(ctx context.Context, g Grade) (Grade, error)
		QueryGrades(ctx context.Context, filter QueryFilter) ([]Grade, error)
		GetGradeByID(ctx context.Context, id string) (Grade, error)
		UpdateGrade(ctx context.Context, g Grade) (Grade, error)
		UpdateOrCreateGrade(ctx context.Context, g Grade) (Grade, error)
		DeleteGrade(ctx context.Context, id string) error

		// ReplaceMembers replaces only the member sets supplied on the
		// Assignment, wholesale, and returns the updated Grade.
		ReplaceMembers(ctx context.Context, gradeID string, a Assignment) (Grade, error)
	}

	// UserRefRepository updates the denormalized Grade back-references
	// kept on User records.
	UserRefRepository interface {
		// GradeRefHolders returns the IDs of users whose `field`
		// collection contains gradeID.
		GradeRefHolders(ctx context.Context, field RefField, gradeID string) ([]string, error)
		AddGradeRef(ctx context.Context, field RefField, gradeID string, userIDs []string) error
		RemoveGradeRef(ctx context.Context, field RefField, gradeID string, userIDs []string) error
	}

	Service struct {
		repo     Repository
		userRefs UserRefRepository
	}
)

func NewService(repo Repository, userRefs UserRefRepository) *Service {
	return &Service{
		repo:     repo,
		userRefs: userRefs,
	}
}

func (svc *Service) Create(ctx context.Context, ng NewGrade) (Grade, error) {
	now := time.Now().UTC()
	g := Grade{
		Name:        ng.Name,
		Description: ng.Description,
		TeacherIDs:  []string{},
		StudentIDs:  []string{},
		SubjectIDs:  []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateGrade(ctx, g)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, QueryFilter{})
}

func (svc *Service) QueryByTeacher(ctx context.Context, teacherID string) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, QueryFilter{TeacherID: teacherID})
}

func (svc *Service) QueryByStudent(ctx context.Context, studentID string) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, QueryFilter{StudentID: studentID})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Grade, error) {
	return svc.repo.GetGradeByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ug UpdateGrade) (Grade, error) {
	g, err := svc.repo.GetGradeByID(ctx, id)
	if err != nil {
		return Grade{}, err
	}

	if ug.Name != "" {
		g.Name = ug.Name
	}
	if ug.Description != nil {
		g.Description = *ug.Description
	}
	g.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateGrade(ctx, g)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteGrade(ctx, id)
}

// Assign replaces the supplied member sets on a Grade and sweeps the
// user back-references so that, once it returns,
// `grade.ID ∈ user.AssignedGradeIDs ⟺ user.ID ∈ grade.TeacherIDs`
// (and symmetrically for students). The grade update and the sweeps
// are separate storage writes; each sweep is keyed on the new member
// set, so re-running an assignment converges to the invariant.
func (svc *Service) Assign(ctx context.Context, gradeID string, a Assignment) (Grade, error) {
	g, err := svc.repo.GetGradeByID(ctx, gradeID)
	if err != nil {
		return Grade{}, err
	}

	g, err = svc.repo.ReplaceMembers(ctx, g.ID, a)
	if err != nil {
		return Grade{}, errors.Wrap(err, "replacing grade members")
	}

	if a.TeacherIDs != nil {
		if err := svc.sweepRefs(ctx, RefAssigned, g.ID, a.TeacherIDs); err != nil {
			return Grade{}, errors.Wrap(err, "sweeping teacher back-references")
		}
	}
	if a.StudentIDs != nil {
		if err := svc.sweepRefs(ctx, RefEnrolled, g.ID, a.StudentIDs); err != nil {
			return Grade{}, errors.Wrap(err, "sweeping student back-references")
		}
	}
	// subjects carry no back-reference

	return g, nil
}

func (svc *Service) sweepRefs(ctx context.Context, field RefField, gradeID string, newMembers []string) error {
	holders, err := svc.userRefs.GradeRefHolders(ctx, field, gradeID)
	if err != nil {
		return err
	}

	d := MembershipDeltas(newMembers, holders)
	if len(d.Add) > 0 {
		if err := svc.userRefs.AddGradeRef(ctx, field, gradeID, d.Add); err != nil {
			return err
		}
	}
	if len(d.Remove) > 0 {
		if err := svc.userRefs.RemoveGradeRef(ctx, field, gradeID, d.Remove); err != nil {
			return err
		}
	}
	return nil
}
