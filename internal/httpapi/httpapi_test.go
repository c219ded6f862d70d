package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"jobboard-backend/internal/actor"
	"jobboard-backend/internal/cache"
	"jobboard-backend/internal/config"
	"jobboard-backend/internal/logo"
	"jobboard-backend/internal/store"
)

const testSecret = "test-secret"

func newTestApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	cache.Reset()
	cfg := config.Config{
		APIBaseURL: "http://localhost:8080",
		DataDir:    t.TempDir(),
		AuthSecret: testSecret,
		SaltRounds: 4,
	}
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		st.Close()
		cache.Reset()
	})
	return New(cfg, st, logo.NewManager(cfg.DataDir, cfg.APIBaseURL)), st
}

func testToken(t *testing.T, role string, userID, companyID, candidateID int64) string {
	t.Helper()
	claims := authClaims{
		Role:        role,
		CompanyID:   companyID,
		CandidateID: candidateID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func seedJob(t *testing.T, st *store.Store, companyID int64, title string, listed *time.Time) store.Job {
	t.Helper()
	j := store.Job{Title: title, CompanyID: companyID, ListedTime: listed}
	require.NoError(t, st.CreateJob(context.Background(), &j))
	return j
}

func TestFavoritesFlow(t *testing.T) {
	app, st := newTestApp(t)
	ctx := context.Background()

	company := store.Company{Name: "Acme"}
	require.NoError(t, st.CreateCompany(ctx, &company))
	candidate := store.Candidate{FullName: "Ada", Email: "ada@example.com"}
	require.NoError(t, st.CreateCandidate(ctx, &candidate))
	job := seedJob(t, st, company.CompanyID, "Engineer", nil)

	token := testToken(t, actor.TypeCandidate, 1, 0, candidate.CandidateID)
	path := fmt.Sprintf("/api/favorites/%d", job.JobID)

	resp, body := doJSON(t, app, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "added", body["status"])

	resp, body = doJSON(t, app, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "already_favorite", body["status"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/favorites/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["data"], 1)

	t.Run("unauthenticated is rejected", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "UNAUTHORIZED", body["code"])
	})
}

func TestApplicationStatusFlow(t *testing.T) {
	app, st := newTestApp(t)
	ctx := context.Background()

	company := store.Company{Name: "Acme"}
	require.NoError(t, st.CreateCompany(ctx, &company))
	candidate := store.Candidate{FullName: "Ada", Email: "ada@example.com"}
	require.NoError(t, st.CreateCandidate(ctx, &candidate))
	job := seedJob(t, st, company.CompanyID, "Engineer", nil)

	candToken := testToken(t, actor.TypeCandidate, 1, 0, candidate.CandidateID)
	companyToken := testToken(t, actor.TypeCompany, 2, company.CompanyID, 0)

	resp, body := doJSON(t, app, http.MethodPost, "/api/applications/", candToken,
		fiber.Map{"job_id": job.JobID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "created", body["status"])
	appID := int64(body["data"].(map[string]any)["application_id"].(float64))

	t.Run("repeat apply is idempotent", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/api/applications/", candToken,
			fiber.Map{"job_id": job.JobID})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "already_exists", body["status"])
	})

	statusPath := fmt.Sprintf("/api/applications/%d/status", appID)

	t.Run("owning company transitions the status", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPatch, statusPath, companyToken,
			fiber.Map{"status": "INTERVIEW"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "INTERVIEW", body["status"])

		resp, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/applications/%d", appID), candToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "INTERVIEW", body["status"])
	})

	t.Run("invalid status lists the allowed enum without mutating", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPatch, statusPath, companyToken,
			fiber.Map{"status": "GHOSTED"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_status", body["status"])
		require.Len(t, body["allowed"], len(store.ApplicationStatuses))

		_, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/applications/%d", appID), candToken, nil)
		require.Equal(t, "INTERVIEW", body["status"])
	})

	t.Run("candidate cannot transition the status", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPatch, statusPath, candToken,
			fiber.Map{"status": "HIRED"})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestJobListEndpoint(t *testing.T) {
	app, st := newTestApp(t)
	ctx := context.Background()

	company := store.Company{Name: "Acme"}
	require.NoError(t, st.CreateCompany(ctx, &company))

	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	old := time.Now().UTC().Add(-90 * 24 * time.Hour)
	a := seedJob(t, st, company.CompanyID, "Senior Backend Engineer", &yesterday)
	b := seedJob(t, st, company.CompanyID, "Backend Developer", &old)

	resp, body := doJSON(t, app, http.MethodGet, "/api/jobs/?q=backend+engineer&limit=10", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].([]any)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	second := data[1].(map[string]any)
	require.Equal(t, float64(a.JobID), first["job_id"])
	require.Equal(t, float64(b.JobID), second["job_id"])

	t.Run("company is hydrated by default", func(t *testing.T) {
		require.Equal(t, "Acme", first["company"].(map[string]any)["name"])
		require.Contains(t, first["company"].(map[string]any), "logo_full_path")
	})

	t.Run("include_company=false omits the relation", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/jobs/?q=backend&include_company=false", "", nil)
		item := body["data"].([]any)[0].(map[string]any)
		require.NotContains(t, item, "company")
	})

	t.Run("meta carries total pages", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/jobs/?limit=1", "", nil)
		meta := body["meta"].(map[string]any)
		require.Equal(t, float64(2), meta["total"])
		require.Equal(t, float64(2), meta["totalPages"])
	})

	t.Run("non-integer id is a bad request", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/jobs/abc", "", nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "BAD_REQUEST", body["code"])
	})

	t.Run("missing id is not found", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/api/jobs/424242", "", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, "NOT_FOUND", body["code"])
	})
}

func TestCompanySearchEndpoint(t *testing.T) {
	app, st := newTestApp(t)
	ctx := context.Background()

	for _, name := range []string{"Google", "Google Cloud", "Amazon"} {
		c := store.Company{Name: name}
		require.NoError(t, st.CreateCompany(ctx, &c))
	}

	resp, body := doJSON(t, app, http.MethodGet, "/api/companies/?q=google", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].([]any)
	require.Len(t, data, 2)
	require.Equal(t, "Google", data[0].(map[string]any)["name"])
	require.Equal(t, "Google Cloud", data[1].(map[string]any)["name"])

	t.Run("two-token query flips the order", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/companies/?q=google+cloud", "", nil)
		data := body["data"].([]any)
		require.Equal(t, "Google Cloud", data[0].(map[string]any)["name"])
	})
}

func TestLocationEndpoints(t *testing.T) {
	app, st := newTestApp(t)
	ctx := context.Background()

	docs := `[{"country":"Mexico","states":[{"State":"Coahuila","Cities":["Torreon","Saltillo"]}]}]`
	path := filepath.Join(t.TempDir(), "locations.json")
	require.NoError(t, os.WriteFile(path, []byte(docs), 0600))
	_, err := st.ImportLocations(ctx, path)
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodGet, "/api/locations/search?q=torreon&k=10", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := body["results"].([]any)
	require.NotEmpty(t, results)
	first := results[0].(map[string]any)
	require.Equal(t, "city", first["type"])
	require.Equal(t, "Torreon", first["name"])
	require.Equal(t, "Mexico", first["country"])
	require.Equal(t, "Coahuila", first["state"])

	t.Run("no match is an empty result set", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/locations/search?q=zzzz", "", nil)
		require.Empty(t, body["results"])
	})

	t.Run("directory listings", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/locations/countries", "", nil)
		require.Equal(t, []any{"Mexico"}, body["countries"])
		_, body = doJSON(t, app, http.MethodGet, "/api/locations/Mexico/states", "", nil)
		require.Equal(t, []any{"Coahuila"}, body["states"])
		_, body = doJSON(t, app, http.MethodGet, "/api/locations/Mexico/Coahuila/cities", "", nil)
		require.Equal(t, []any{"Torreon", "Saltillo"}, body["cities"])
	})
}

func TestAuthFlow(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email": "ada@example.com", "password": "hunter2hunter2", "role": "candidate", "name": "Ada",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, body["token"])
	require.NotNil(t, body["candidate_id"])

	t.Run("duplicate email conflicts", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
			"email": "ada@example.com", "password": "hunter2hunter2", "role": "candidate", "name": "Ada",
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		require.Equal(t, "CONFLICT", body["code"])
	})

	t.Run("login round-trips", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
			"email": "ada@example.com", "password": "hunter2hunter2",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotEmpty(t, body["token"])
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
			"email": "ada@example.com", "password": "wrong-password",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/api/favorites/", "not-a-token", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
