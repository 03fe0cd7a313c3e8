package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/shule/core/user"
)

func TestAuthApi_login(t *testing.T) {
	app := newTestApp(t)
	roles := app.seedRoles(t)
	teacher := app.createUser(t, "Sample Teacher", "teacher@school.com", "Teacher123!", roles[user.RoleTeacher], "")

	tests := []httpTest{
		{
			name:     "empty body",
			body:     []byte("{}"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email":"this field is required","password":"this field is required"}`),
		},
		{
			name:     "unknown email",
			body:     []byte(`{"email":"nobody@school.com","password":"Teacher123!"}`),
			wantCode: http.StatusUnauthorized,
			wantData: []byte(`{"error":"invalid credentials"}`),
		},
		{
			name:     "wrong password",
			body:     []byte(`{"email":"teacher@school.com","password":"nope"}`),
			wantCode: http.StatusUnauthorized,
			wantData: []byte(`{"error":"invalid credentials"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/login", tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("ok", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/login",
			[]byte(`{"email":"Teacher@School.com","password":"Teacher123!"}`))
		app.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.Token == "" {
			t.Error("login returned no token")
		}
		if resp.User.ID != teacher.ID || resp.Role != user.RoleTeacher {
			t.Errorf("login returned user %v role %v", resp.User.ID, resp.Role)
		}
	})
}

func TestAuthApi_me(t *testing.T) {
	app := newTestApp(t)
	roles := app.seedRoles(t)
	student := app.createUser(t, "Sample Student", "student@school.com", "Student123!", roles[user.RoleStudent], "Section A")

	t.Run("no token", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/auth/me")
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("stale token", func(t *testing.T) {
		ghost := student
		ghost.ID = "aaaaaaaaaaaaaaaaaaaaaaaa"
		req, rec := newAuthRequest(http.MethodGet, "/api/auth/me", app.getToken(t, ghost))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %v, want %v", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/auth/me", app.getToken(t, student))
		app.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp AuthUserResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.User.ID != student.ID || resp.Role != user.RoleStudent {
			t.Errorf("me returned user %v role %v", resp.User.ID, resp.Role)
		}
		if len(resp.Permissions) != 1 || resp.Permissions[0] != user.PermMarksReadSelf {
			t.Errorf("Permissions = %v, want [%s]", resp.Permissions, user.PermMarksReadSelf)
		}
	})
}
