package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/grade"
	"github.com/trezcool/shule/core/mark"
	"github.com/trezcool/shule/core/user"
)

type teacherApi struct {
	deps ServerDeps
}

func registerTeacherAPI(g *echo.Group, jwt, principal echo.MiddlewareFunc, deps ServerDeps) {
	api := teacherApi{deps: deps}

	tg := g.Group("/teacher", jwt, principal, requireRole(deps.Guard, user.RoleTeacher))
	tg.GET("/grades", api.queryGrades, requirePermission(deps.Guard, user.PermMarksReadAssigned))
	tg.GET("/grades/:gradeId/students", api.queryGradeStudents, requirePermission(deps.Guard, user.PermMarksReadAssigned))
	tg.GET("/grades/:gradeId/marks", api.queryGradeMarks, requirePermission(deps.Guard, user.PermMarksReadAssigned))
	tg.POST("/marks", api.saveMark, requirePermission(deps.Guard, user.PermMarksWrite))
}

// queryGrades lists the grades the calling teacher is assigned to.
func (api *teacherApi) queryGrades(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	grades, err := api.deps.GradeSvc.QueryByTeacher(ctx.Request().Context(), p.UserID)
	if err != nil {
		return errors.Wrap(err, "querying grades by teacher")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

// queryGradeStudents lists the students enrolled in one of the calling
// teacher's grades.
func (api *teacherApi) queryGradeStudents(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	g, err := api.deps.GradeSvc.GetByID(ctx.Request().Context(), ctx.Param("gradeId"))
	if err != nil {
		return err
	}
	if !g.HasTeacher(p.UserID) {
		return mark.ErrNotGradeTeacher
	}

	students := make([]user.User, 0, len(g.StudentIDs))
	for _, id := range g.StudentIDs {
		usr, err := api.deps.UserSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				continue // stale membership
			}
			return errors.Wrap(err, "finding student by ID")
		}
		students = append(students, usr)
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *teacherApi) queryGradeMarks(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	g, err := api.deps.GradeSvc.GetByID(ctx.Request().Context(), ctx.Param("gradeId"))
	if err != nil {
		return err
	}
	if !g.HasTeacher(p.UserID) {
		return mark.ErrNotGradeTeacher
	}

	marks, err := api.deps.MarkSvc.ByGrade(ctx.Request().Context(), g.ID)
	if err != nil {
		return errors.Wrap(err, "querying marks by grade")
	}
	if marks == nil {
		marks = []mark.Mark{}
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (api *teacherApi) saveMark(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data mark.SaveMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveMark")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	m, err := api.deps.MarkSvc.Save(ctx.Request().Context(), data, p.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, m)
}
