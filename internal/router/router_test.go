package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"incidentlog/internal/auth"
	"incidentlog/internal/incident"
	"incidentlog/internal/logging"
	"incidentlog/internal/middleware"
)

type fakeObjects struct{}

func (fakeObjects) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

type testApp struct {
	router *gin.Engine
	store  *auth.CredentialStore
	tokens *auth.TokenService
}

func setupTestRouter(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logging.Discard()

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService([]byte("test-secret-key-for-testing-only"), time.Hour)
	require.NoError(t, err)

	store := auth.NewCredentialStore(auth.NewInMemoryUserRepository(), hasher)
	incidents := incident.NewService(incident.NewInMemoryRepository(), fakeObjects{}, log)

	r := NewRouter(Deps{
		Log:         log,
		Gate:        middleware.NewGate(tokens, store, log),
		Auth:        auth.NewHandler(auth.NewService(store, tokens, log)),
		Incidents:   incident.NewHandler(incidents),
		Attachments: incidents.AttachmentsEnabled(),
	})
	return &testApp{router: r, store: store, tokens: tokens}
}

func (a *testApp) call(method, path, token string, payload any) (*httptest.ResponseRecorder, map[string]any) {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (a *testApp) admin(t *testing.T) string {
	t.Helper()
	u, err := a.store.Create(context.Background(), auth.NewUser{
		Username: "root",
		Email:    "root@x.com",
		Password: "secret1",
		Role:     auth.RoleAdmin,
	})
	require.NoError(t, err)
	token, err := a.tokens.Issue(u.ID)
	require.NoError(t, err)
	return token
}

func (a *testApp) registerUser(t *testing.T, username, email string) string {
	t.Helper()
	w, body := a.call(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return body["token"].(string)
}

func TestHealthCheck(t *testing.T) {
	app := setupTestRouter(t)

	w, body := app.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, _ = app.call(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthScenario(t *testing.T) {
	app := setupTestRouter(t)

	// register
	w, body := app.call(http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "a@x.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "PasswordHash")
	assert.NotContains(t, w.Body.String(), "$2a$")

	// login
	w, body = app.call(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "a@x.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := body["token"].(string)
	require.NotEmpty(t, token)

	// profile
	w, body = app.call(http.MethodGet, "/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", body["user"].(map[string]any)["username"])

	// truncated token
	w, body = app.call(http.MethodGet, "/auth/profile", token[:len(token)-1], nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid token", body["error"])

	// logout is an acknowledgement only
	w, _ = app.call(http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_AcceptsNameAlias(t *testing.T) {
	app := setupTestRouter(t)

	w, body := app.call(http.MethodPost, "/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "Password@123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Test User", body["user"].(map[string]any)["username"])
}

func TestRegister_MissingFields(t *testing.T) {
	app := setupTestRouter(t)

	w, body := app.call(http.MethodPost, "/auth/register", "", map[string]string{"email": "test@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "username, email, and password are required", body["error"])

	w, _ = app.call(http.MethodPost, "/auth/register", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	app := setupTestRouter(t)
	app.registerUser(t, "alice", "a@x.com")

	w, _ := app.call(http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice2",
		"email":    "a@x.com",
		"password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegister_SelfAssignedAdminRejected(t *testing.T) {
	app := setupTestRouter(t)
	payload := map[string]string{
		"username": "mallory",
		"email":    "m@x.com",
		"password": "secret1",
		"role":     "admin",
	}

	w, _ := app.call(http.MethodPost, "/auth/register", "", payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := app.call(http.MethodPost, "/auth/register", app.admin(t), payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "admin", body["user"].(map[string]any)["role"])
}

func TestLogin_DoesNotRevealAccounts(t *testing.T) {
	app := setupTestRouter(t)
	app.registerUser(t, "alice", "a@x.com")

	w1, b1 := app.call(http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "wrong-password"})
	w2, b2 := app.call(http.MethodPost, "/auth/login", "", map[string]string{"email": "ghost@x.com", "password": "secret1"})

	assert.Equal(t, http.StatusUnauthorized, w1.Code)
	assert.Equal(t, http.StatusUnauthorized, w2.Code)
	assert.Equal(t, b1, b2)

	w, _ := app.call(http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile_RequiresBearer(t *testing.T) {
	app := setupTestRouter(t)

	w, _ := app.call(http.MethodGet, "/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePassword(t *testing.T) {
	app := setupTestRouter(t)
	token := app.registerUser(t, "alice", "a@x.com")

	w, _ := app.call(http.MethodPut, "/auth/password", token, map[string]string{
		"current_password": "secret1",
		"new_password":     "secret2",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = app.call(http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "secret2"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetRole_AdminOnly(t *testing.T) {
	app := setupTestRouter(t)
	userToken := app.registerUser(t, "alice", "a@x.com")
	adminToken := app.admin(t)

	_, profile := app.call(http.MethodGet, "/auth/profile", userToken, nil)
	userID := profile["user"].(map[string]any)["id"].(string)

	w, _ := app.call(http.MethodPut, "/auth/users/"+userID+"/role", userToken, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := app.call(http.MethodPut, "/auth/users/"+userID+"/role", adminToken, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "admin", body["user"].(map[string]any)["role"])

	w, _ = app.call(http.MethodPut, "/auth/users/unknown/role", adminToken, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIncidentRoutes(t *testing.T) {
	app := setupTestRouter(t)
	alice := app.registerUser(t, "alice", "a@x.com")
	bob := app.registerUser(t, "bob", "b@x.com")
	admin := app.admin(t)

	newIncident := map[string]string{
		"title":       "Server down",
		"description": "API returns 502",
		"severity":    "High",
	}

	// create requires a token
	w, _ := app.call(http.MethodPost, "/incidents", "", newIncident)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := app.call(http.MethodPost, "/incidents", alice, newIncident)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := int(body["id"].(float64))
	path := "/incidents/" + jsonNumber(id)

	w, _ = app.call(http.MethodPost, "/incidents", alice, map[string]string{"title": "x", "description": "y", "severity": "Critical"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// reads are public; a broken token does not block them
	w, _ = app.call(http.MethodGet, "/incidents", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = app.call(http.MethodGet, path, "not-a-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = app.call(http.MethodGet, "/incidents?mine=true", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = app.call(http.MethodGet, "/incidents/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = app.call(http.MethodGet, "/incidents/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// only the reporter or an admin may update
	w, _ = app.call(http.MethodPut, path, bob, map[string]string{"severity": "Low"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, body = app.call(http.MethodPut, path, alice, map[string]string{"severity": "Low"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Low", body["severity"])
	assert.Equal(t, "Server down", body["title"])

	// attachments
	w = app.upload(t, path+"/attachments", alice, "log.txt", "boom")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = app.upload(t, path+"/attachments", bob, "log.txt", "boom")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// delete is admin-only
	w, _ = app.call(http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = app.call(http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = app.call(http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func (a *testApp) upload(t *testing.T, path, token, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func jsonNumber(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
