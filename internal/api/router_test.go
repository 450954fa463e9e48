package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cleancity/cleancity-be/internal/auth"
	"github.com/cleancity/cleancity-be/internal/database"
	"github.com/cleancity/cleancity-be/internal/metrics"
	"github.com/cleancity/cleancity-be/internal/models"
	"github.com/cleancity/cleancity-be/internal/services"
	"github.com/cleancity/cleancity-be/internal/storage"
	ws "github.com/cleancity/cleancity-be/internal/websocket"
)

var testMetrics = metrics.New() // prometheus collectors register globally once

type testEnv struct {
	router http.Handler
	db     *sql.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	blobStore, err := storage.NewFSStore(db, t.TempDir(), 5<<20)
	require.NoError(t, err)

	eventSvc := services.NewEventService(db)
	hub := ws.NewHub()
	go hub.Run()

	router := NewRouter(RouterDeps{
		UserService:   services.NewUserService(db),
		ReportService: services.NewReportService(db, eventSvc, hub),
		EventService:  eventSvc,
		BlobStore:     blobStore,
		TokenService:  auth.NewTokenService("test-secret", time.Hour),
		Hub:           hub,
		Metrics:       testMetrics,
		CORSOrigins:   []string{"http://localhost:3000"},
		UploadTimeout: 5 * time.Second,
	})

	return &testEnv{router: router, db: db}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

// register creates a user through the API and returns their token and id.
func (e *testEnv) register(t *testing.T, name, email, password string) (string, string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

// registerAdmin creates a user and promotes them to admin, returning a
// fresh token carrying the admin role.
func (e *testEnv) registerAdmin(t *testing.T, email string) string {
	t.Helper()

	_, id := e.register(t, "Admin", email, "password123")
	_, err := e.db.Exec("UPDATE users SET role = ? WHERE id = ?", models.RoleAdmin, id)
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	decode(t, rec, &resp)
	return resp.Token
}

func (e *testEnv) createReport(t *testing.T, token, title string) models.Report {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/reports", token, map[string]string{
		"title":       title,
		"description": "Something is broken and needs fixing.",
		"category":    "road",
		"location":    "Main Street",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Report models.Report `json:"report"`
	}
	decode(t, rec, &resp)
	return resp.Report
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	token, userID := env.register(t, "Alice", "alice@x.com", "secret1")

	rec := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me struct {
		User models.User `json:"user"`
	}
	decode(t, rec, &me)
	require.Equal(t, userID, me.User.ID)
	require.Equal(t, models.RoleUser, me.User.Role)

	// Password hash must never appear in any response body.
	require.NotContains(t, rec.Body.String(), "passwordHash")
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "", "email": "not-an-email", "password": "123",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Message string `json:"message"`
		Errors  []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}
	decode(t, rec, &resp)
	require.Equal(t, "Validation failed", resp.Message)
	require.Len(t, resp.Errors, 3)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Alice", "alice@x.com", "secret1")

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Alice Again", "email": "Alice@X.com", "password": "secret1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "User already exists with this email")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Alice", "alice@x.com", "secret1")

	for _, creds := range []map[string]string{
		{"email": "alice@x.com", "password": "wrong"},
		{"email": "nobody@x.com", "password": "secret1"},
	} {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", creds)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "Invalid email or password")
	}
}

func TestAuthGuardMessages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "No token provided")

	rec = env.do(t, http.MethodGet, "/api/auth/me", "garbage.token.here", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid token")

	expired := auth.NewTokenService("test-secret", -time.Hour)
	token, err := expired.Issue(models.User{ID: "x", Email: "x@x.com", Role: models.RoleUser})
	require.NoError(t, err)

	rec = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Token expired")
}

func TestReportLifecycleScenario(t *testing.T) {
	env := newTestEnv(t)

	aliceToken, aliceID := env.register(t, "Alice", "alice@x.com", "secret1")
	adminToken := env.registerAdmin(t, "admin@cleancity.com")

	report := env.createReport(t, aliceToken, "Pothole on Main Street")
	require.Equal(t, models.StatusPending, report.Status)
	require.Equal(t, aliceID, report.OwnerID)

	// Non-admin cannot change status.
	rec := env.do(t, http.MethodPut, "/api/reports/"+report.ID, aliceToken, map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Admin moves it straight to resolved.
	rec = env.do(t, http.MethodPut, "/api/reports/"+report.ID, adminToken, map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated struct {
		Report models.Report `json:"report"`
	}
	decode(t, rec, &updated)
	require.Equal(t, models.StatusResolved, updated.Report.Status)

	// Search finds it case-insensitively.
	rec = env.do(t, http.MethodGet, "/api/reports?search=POTHOLE", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Count   int             `json:"count"`
		Reports []models.Report `json:"reports"`
	}
	decode(t, rec, &listing)
	require.Equal(t, 1, listing.Count)
	require.Equal(t, report.ID, listing.Reports[0].ID)
}

func TestGetReportBadID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/reports/not-a-uuid", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid report ID")
}

func TestCreateReportRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/reports", "", map[string]string{"title": "x"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteOwnershipRules(t *testing.T) {
	env := newTestEnv(t)

	aliceToken, _ := env.register(t, "Alice", "alice@x.com", "secret1")
	bobToken, _ := env.register(t, "Bob", "bob@x.com", "secret2")

	report := env.createReport(t, aliceToken, "Broken drain cover")

	rec := env.do(t, http.MethodDelete, "/api/reports/"+report.ID, bobToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "You can only delete your own reports")

	rec = env.do(t, http.MethodGet, "/api/reports/"+report.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/reports/"+report.ID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/reports/"+report.ID, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMyReports(t *testing.T) {
	env := newTestEnv(t)

	aliceToken, _ := env.register(t, "Alice", "alice@x.com", "secret1")
	bobToken, _ := env.register(t, "Bob", "bob@x.com", "secret2")

	env.createReport(t, aliceToken, "Mine one")
	env.createReport(t, aliceToken, "Mine two")
	env.createReport(t, bobToken, "Not mine")

	rec := env.do(t, http.MethodGet, "/api/reports/my/reports", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Count int `json:"count"`
	}
	decode(t, rec, &listing)
	require.Equal(t, 2, listing.Count)
}

func TestStatsAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	aliceToken, _ := env.register(t, "Alice", "alice@x.com", "secret1")
	adminToken := env.registerAdmin(t, "admin@cleancity.com")

	env.createReport(t, aliceToken, "One")
	env.createReport(t, aliceToken, "Two")

	rec := env.do(t, http.MethodGet, "/api/reports/admin/stats", aliceToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/reports/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Stats models.ReportStats `json:"stats"`
	}
	decode(t, rec, &resp)
	require.Equal(t, 2, resp.Stats.Total)
	require.Equal(t, 2, resp.Stats.Pending)
}

func TestEventsAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	aliceToken, _ := env.register(t, "Alice", "alice@x.com", "secret1")
	adminToken := env.registerAdmin(t, "admin@cleancity.com")

	env.createReport(t, aliceToken, "Tracked report")

	rec := env.do(t, http.MethodGet, "/api/events", aliceToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/events", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var events []models.Event
	decode(t, rec, &events)
	require.NotEmpty(t, events)
	require.Equal(t, "report.created", events[0].Type)
}

func uploadImage(t *testing.T, env *testEnv, token, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="photo"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "Alice", "alice@x.com", "secret1")

	content := []byte("\x89PNG\r\n\x1a\nsome png bytes")
	rec := uploadImage(t, env, token, "image/png", content)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ImageURL string `json:"imageUrl"`
	}
	decode(t, rec, &resp)
	require.Contains(t, resp.ImageURL, "/api/upload/")

	dl := env.do(t, http.MethodGet, resp.ImageURL, "", nil)
	require.Equal(t, http.StatusOK, dl.Code)
	require.Equal(t, "image/png", dl.Header().Get("Content-Type"))
	require.Equal(t, content, dl.Body.Bytes())
}

func TestUploadRejectsNonImage(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "Alice", "alice@x.com", "secret1")

	rec := uploadImage(t, env, token, "application/pdf", []byte("%PDF-1.4"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Only image files are allowed")
}

func TestUploadRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/upload", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadMissingFile(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "Alice", "alice@x.com", "secret1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("caption", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "No file uploaded")
}

func TestDownloadMissingImage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/upload/deadbeef", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "Alice", "alice@x.com", "secret1")
	adminToken := env.registerAdmin(t, "admin@cleancity.com")

	for i, category := range []string{"waste", "water", "road"} {
		rec := env.do(t, http.MethodPost, "/api/reports", token, map[string]string{
			"title":       fmt.Sprintf("Issue %d", i),
			"description": "details",
			"category":    category,
			"location":    "Somewhere",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	var listing struct {
		Count   int             `json:"count"`
		Reports []models.Report `json:"reports"`
	}

	rec := env.do(t, http.MethodGet, "/api/reports?category=water", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &listing)
	require.Equal(t, 1, listing.Count)
	require.Equal(t, models.CategoryWater, listing.Reports[0].Category)

	// Resolve one report, then filter by status.
	reportID := listing.Reports[0].ID
	put := env.do(t, http.MethodPut, "/api/reports/"+reportID, adminToken, map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusOK, put.Code)

	rec = env.do(t, http.MethodGet, "/api/reports?status=resolved", "", nil)
	decode(t, rec, &listing)
	require.Equal(t, 1, listing.Count)
	require.Equal(t, models.StatusResolved, listing.Reports[0].Status)

	// "all" is a no-op filter.
	rec = env.do(t, http.MethodGet, "/api/reports?category=all&status=all", "", nil)
	decode(t, rec, &listing)
	require.Equal(t, 3, listing.Count)
}

func TestUpdateStatusValidation(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "Alice", "alice@x.com", "secret1")
	adminToken := env.registerAdmin(t, "admin@cleancity.com")

	report := env.createReport(t, token, "Some issue")

	rec := env.do(t, http.MethodPut, "/api/reports/"+report.ID, adminToken, map[string]string{"status": "closed"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Status must be pending, in-progress, or resolved")
}

func TestSystemAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.register(t, "Alice", "alice@x.com", "secret1")

	rec := env.do(t, http.MethodGet, "/api/system", token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// Generate at least one observation before scraping.
	env.do(t, http.MethodGet, "/api/health", "", nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "cleancity_http_requests_total")
}
