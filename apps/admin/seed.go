package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/grade"
	"github.com/trezcool/shule/core/mark"
	"github.com/trezcool/shule/core/subject"
	"github.com/trezcool/shule/core/user"
)

type seedStudent struct {
	name    string
	email   string
	section string
	marks   float64
}

var seedStudents = []seedStudent{
	{name: "Abel Tesfaye", email: "abel.tesfaye@school.com", section: "Grade 9", marks: 88},
	{name: "Hana Mekonnen", email: "hana.mekonnen@school.com", section: "Grade 10", marks: 94},
	{name: "Dawit Alemu", email: "dawit.alemu@school.com", section: "Grade 11", marks: 72},
	{name: "Bethlehem Girma", email: "bethlehem.girma@school.com", section: "Grade 12", marks: 67},
	{name: "Samuel Bekele", email: "samuel.bekele@school.com", section: "Grade 9", marks: 53},
	{name: "Eden Tadesse", email: "eden.tadesse@school.com", section: "Grade 10", marks: 98},
	{name: "Natnael Fikru", email: "natnael.fikru@school.com", section: "Grade 11", marks: 45},
	{name: "Ruth Haile", email: "ruth.haile@school.com", section: "Grade 12", marks: 81},
}

// seed loads the default roles and a sample data set. Re-running it
// converges: roles and sample accounts are upserted, existing student
// accounts keep their passwords.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	now := time.Now().UTC()

	// roles
	roles := make(map[string]user.Role, len(user.AllRoleNames))
	for _, name := range user.AllRoleNames {
		role, err := cli.usrRepo.UpdateOrCreateRole(ctx, user.Role{
			Name:        name,
			Permissions: user.DefaultRolePermissions[name],
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return errors.Wrapf(err, "seeding role %q", name)
		}
		roles[name] = role
	}

	// sample accounts
	if _, err := cli.seedUser(ctx, "System Admin", "admin@school.com", "Admin123!", roles[user.RoleAdmin], ""); err != nil {
		return err
	}
	teacher, err := cli.seedUser(ctx, "Sample Teacher", "teacher@school.com", "Teacher123!", roles[user.RoleTeacher], "")
	if err != nil {
		return err
	}
	student, err := cli.seedUser(ctx, "Sample Student", "student@school.com", "Student123!", roles[user.RoleStudent], "Section A")
	if err != nil {
		return err
	}

	// subject and grade (class) for the sample cohort
	subj, err := cli.subjRepo.UpdateOrCreateSubject(ctx, subject.Subject{
		Name:        "Mathematics",
		Description: "Core subject",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return errors.Wrap(err, "seeding subject")
	}

	g, err := cli.grdRepo.UpdateOrCreateGrade(ctx, grade.Grade{
		Name:        "Grade 10",
		Description: "Sample class",
		TeacherIDs:  []string{},
		StudentIDs:  []string{},
		SubjectIDs:  []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return errors.Wrap(err, "seeding grade")
	}

	// cohort; existing accounts are left untouched
	studentIDs := []string{student.ID}
	for _, s := range seedStudents {
		usr, err := cli.usrRepo.GetUserByEmail(ctx, s.email)
		if err != nil {
			if errors.Cause(err) != user.ErrNotFound {
				return errors.Wrapf(err, "finding student %q", s.email)
			}
			usr = user.User{
				Name:      s.name,
				Email:     s.email,
				RoleID:    roles[user.RoleStudent].ID,
				Section:   s.section,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := usr.SetPassword("Student123!"); err != nil {
				return errors.Wrap(err, "setting password")
			}
			if usr, err = cli.usrRepo.CreateUser(ctx, usr); err != nil {
				return errors.Wrapf(err, "seeding student %q", s.email)
			}
		}
		studentIDs = append(studentIDs, usr.ID)
	}

	// memberships and back-references
	if _, err := cli.grdRepo.ReplaceMembers(ctx, g.ID, grade.Assignment{
		TeacherIDs: []string{teacher.ID},
		StudentIDs: studentIDs,
		SubjectIDs: []string{subj.ID},
	}); err != nil {
		return errors.Wrap(err, "assigning grade members")
	}
	if err := cli.grdRefs.AddGradeRef(ctx, grade.RefAssigned, g.ID, []string{teacher.ID}); err != nil {
		return errors.Wrap(err, "adding teacher back-reference")
	}
	if err := cli.grdRefs.AddGradeRef(ctx, grade.RefEnrolled, g.ID, studentIDs); err != nil {
		return errors.Wrap(err, "adding student back-references")
	}

	// marks
	for _, s := range seedStudents {
		usr, err := cli.usrRepo.GetUserByEmail(ctx, s.email)
		if err != nil {
			return errors.Wrapf(err, "finding student %q", s.email)
		}
		if _, err := cli.markRepo.UpsertMark(ctx, mark.Mark{
			StudentID:   usr.ID,
			SubjectID:   subj.ID,
			GradeID:     g.ID,
			TeacherID:   teacher.ID,
			Marks:       s.marks,
			LetterGrade: mark.MarksToLetterGrade(s.marks),
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return errors.Wrapf(err, "seeding mark for %q", s.email)
		}
	}

	fmt.Println("Seed complete. Test accounts: admin@school.com, teacher@school.com, student@school.com" +
		" (Password: Admin123! / Teacher123! / Student123!)")
	return nil
}

func (cli *commandLine) seedUser(ctx context.Context, name, email, pwd string, role user.Role, section string) (user.User, error) {
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		RoleID:    role.ID,
		Section:   section,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return user.User{}, errors.Wrap(err, "setting password")
	}
	usr, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr)
	return usr, errors.Wrapf(err, "seeding user %q", email)
}
