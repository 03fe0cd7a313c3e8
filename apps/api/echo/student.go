package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/grade"
	"github.com/trezcool/shule/core/mark"
	"github.com/trezcool/shule/core/user"
)

type studentApi struct {
	deps ServerDeps
}

func registerStudentAPI(g *echo.Group, jwt, principal echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{deps: deps}

	sg := g.Group("/student", jwt, principal,
		requireRole(deps.Guard, user.RoleStudent),
		requirePermission(deps.Guard, user.PermMarksReadSelf),
	)
	sg.GET("/grades", api.queryGrades)
	sg.GET("/marks", api.queryMarks)
	sg.GET("/performance", api.performance)
}

// queryGrades lists the grades the calling student is enrolled in.
func (api *studentApi) queryGrades(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	grades, err := api.deps.GradeSvc.QueryByStudent(ctx.Request().Context(), p.UserID)
	if err != nil {
		return errors.Wrap(err, "querying grades by student")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *studentApi) queryMarks(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	marks, err := api.studentMarks(ctx, p.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, marks)
}

// performance aggregates the calling student's marks across their
// enrolled grades.
func (api *studentApi) performance(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	marks, err := api.studentMarks(ctx, p.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mark.ComputePerformance(marks))
}

func (api *studentApi) studentMarks(ctx echo.Context, studentID string) ([]mark.Mark, error) {
	grades, err := api.deps.GradeSvc.QueryByStudent(ctx.Request().Context(), studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying grades by student")
	}

	gradeIDs := make([]string, 0, len(grades))
	for _, g := range grades {
		gradeIDs = append(gradeIDs, g.ID)
	}

	marks, err := api.deps.MarkSvc.ByStudent(ctx.Request().Context(), studentID, gradeIDs)
	if err != nil {
		return nil, errors.Wrap(err, "querying marks by student")
	}
	if marks == nil {
		marks = []mark.Mark{}
	}
	return marks, nil
}
