package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	echoapi "github.com/projectplatec/platec/apps/api/echo"
	"github.com/projectplatec/platec/core"
	"github.com/projectplatec/platec/core/teacher"
	"github.com/projectplatec/platec/core/user"
	emailsvc "github.com/projectplatec/platec/services/email"
	"github.com/projectplatec/platec/storage/database/inmem"
	"github.com/projectplatec/platec/tests"
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
}

type testApp struct {
	server *echoapi.Server
	conf   *core.Config
	repo   user.Repository
	usrSvc *user.Service
	mail   *emailsvc.Mock
	logger *testutil.Logger
	tokens *echoapi.TokenManager
}

func setup(t *testing.T, opts ...func(*core.Config)) *testApp {
	t.Helper()
	conf := &core.Config{
		TestMode:  true,
		AppName:   "Platec",
		SecretKey: "secret",
		Server: core.ServerConfig{
			JWTExpirationDelta: 10 * time.Minute,
			LoginRateLimit:     100,
			LoginRateBurst:     100,
		},
	}
	for _, opt := range opts {
		opt(conf)
	}

	translator, _ := ut.New(en.New(), en.New()).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)

	app := &testApp{
		conf:   conf,
		repo:   inmemdb.NewUserRepository(inmemdb.Open()),
		mail:   emailsvc.NewMock(),
		logger: testutil.NewLogger(),
		tokens: echoapi.NewTokenManager(conf),
	}
	app.usrSvc = user.NewService(app.repo, validate)
	for _, role := range user.AllRoles {
		require.NoError(t, app.usrSvc.CreateRole(context.Background(), role))
	}
	teacherSvc := teacher.NewService(app.usrSvc, app.mail, app.logger, validate, translator, conf)
	app.server = echoapi.NewServer(conf, app.logger, app.usrSvc, teacherSvc, validate, translator)
	return app
}

func (app *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := app.tokens.Generate(usr)
	require.NoError(t, err)
	return token
}

// csrf fetches a fresh CSRF token the way a browser would, by loading a form.
func (app *testApp) csrf(t *testing.T, token string) *http.Cookie {
	t.Helper()
	rec := app.do(newAuthRequest(http.MethodGet, "/v1/teachers/new", token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := findCookie(rec, "_csrf")
	require.NotNil(t, cookie)

	var body struct {
		CSRF string `json:"csrf"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, cookie.Value, body.CSRF)
	return cookie
}

// post sends a CSRF protected request.
func (app *testApp) post(t *testing.T, path, token string, body []byte, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	csrf := app.csrf(t, token)
	req := newAuthRequest(http.MethodPost, path, token, body)
	req.Header.Set("X-CSRF-Token", csrf.Value)
	req.AddCookie(csrf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return app.do(req)
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
