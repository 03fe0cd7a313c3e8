package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/grade"
	"github.com/trezcool/shule/core/mark"
	"github.com/trezcool/shule/core/subject"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	logsvc "github.com/trezcool/shule/services/logger"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

type testApp struct {
	server Server
	deps   ServerDeps

	usrRepo  user.Repository
	grdRepo  grade.Repository
	markRepo mark.Repository
}

func newTestConfig() *core.Config {
	conf := core.NewConfig()
	conf.Env = "TEST"
	conf.Debug = false
	conf.TestMode = true
	conf.SecretKey = "secret"
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	return conf
}

func newTestApp(t *testing.T) *testApp {
	conf := newTestConfig()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("newTestApp() failed: %v", err)
	}
	usrRepo := inmemdb.NewUserRepository(db)
	grdRepo := inmemdb.NewGradeRepository(db)
	markRepo := inmemdb.NewMarkRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	logger := logsvc.NewConsoleLogger(log.New(ioutil.Discard, "", 0))

	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	gradeSvc := grade.NewService(grdRepo, usrRepo)

	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator(enLocale.Locale())
	core.InitValidators(validate, translator)

	deps := ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    usrSvc,
		AuthSvc:    auth.NewService(usrRepo),
		Guard:      auth.NewGuard(),
		SubjectSvc: subject.NewService(inmemdb.NewSubjectRepository(db)),
		GradeSvc:   gradeSvc,
		MarkSvc:    mark.NewService(markRepo, grdRepo),
		Validate:   validate,
		Translator: translator,
	}

	return &testApp{
		server:   NewServer(deps),
		deps:     deps,
		usrRepo:  usrRepo,
		grdRepo:  grdRepo,
		markRepo: markRepo,
	}
}

func (app *testApp) seedRoles(t *testing.T) map[string]user.Role {
	roles := make(map[string]user.Role, len(user.AllRoleNames))
	for _, name := range user.AllRoleNames {
		role, err := app.usrRepo.UpdateOrCreateRole(context.Background(), user.Role{
			Name:        name,
			Permissions: user.DefaultRolePermissions[name],
		})
		if err != nil {
			t.Fatalf("seedRoles() failed: %v", err)
		}
		roles[name] = role
	}
	return roles
}

func (app *testApp) createUser(t *testing.T, name, email, pwd string, role user.Role, section string) user.User {
	tstamp := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		RoleID:    role.ID,
		Section:   section,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := app.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (app *testApp) getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(GetUserClaims(usr, app.deps.Conf), app.deps.Conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
