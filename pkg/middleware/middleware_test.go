package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"senac-reservas-backend/pkg/config"
	"senac-reservas-backend/pkg/models"
	"senac-reservas-backend/pkg/utils"
)

type staticUser struct {
	user models.CurrentUser
	ok   bool
}

func (s staticUser) CurrentUser() (models.CurrentUser, bool) { return s.user, s.ok }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoUser writes the context user back as JSON.
func echoUser(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_ = json.NewEncoder(w).Encode(user)
}

func decodeUser(t *testing.T, rec *httptest.ResponseRecorder) models.CurrentUser {
	t.Helper()
	var user models.CurrentUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	return user
}

func TestAuthMiddlewareDisabledUsesStoredUser(t *testing.T) {
	cfg := &config.Config{Environment: "development"}
	src := staticUser{user: models.CurrentUser{ID: 1, Name: "Admin", Role: models.RoleAdmin, Avatar: "AD"}, ok: true}
	h := AuthMiddleware(cfg, nil, src, discardLogger())(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AD", decodeUser(t, rec).Avatar)
}

func TestAuthMiddlewareDisabledWithoutStoredUser(t *testing.T) {
	cfg := &config.Config{Environment: "development"}
	h := AuthMiddleware(cfg, nil, staticUser{}, discardLogger())(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleAdmin, decodeUser(t, rec).Role)
}

func TestAuthMiddlewareWithSecret(t *testing.T) {
	cfg := &config.Config{Environment: "production", JWTSecret: "test-secret"}
	svc := utils.NewJWTService(cfg.JWTSecret, time.Hour)
	h := AuthMiddleware(cfg, svc, staticUser{}, discardLogger())(http.HandlerFunc(echoUser))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, _, err := svc.GenerateAccessToken(models.Collaborator{
			ID: 2, Name: "Maria", Email: "maria@senac.br", Role: models.RoleCollaborator, Status: models.CollaboratorActive,
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		user := decodeUser(t, rec)
		assert.Equal(t, 2, user.ID)
		assert.Equal(t, "maria@senac.br", user.Email)
		assert.Equal(t, models.RoleCollaborator, user.Role)
	})
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	serve := func(h http.Handler, user *models.CurrentUser) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if user != nil {
			req = req.WithContext(WithUser(req.Context(), *user))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	adminOnly := RequireRole(models.RoleAdmin)(ok)
	assert.Equal(t, http.StatusUnauthorized, serve(adminOnly, nil))
	assert.Equal(t, http.StatusForbidden, serve(adminOnly, &models.CurrentUser{Role: models.RoleCollaborator}))
	assert.Equal(t, http.StatusNoContent, serve(adminOnly, &models.CurrentUser{Role: models.RoleAdmin}))

	writer := RequireWriter(ok)
	assert.Equal(t, http.StatusForbidden, serve(writer, &models.CurrentUser{Role: models.RoleViewer}))
	assert.Equal(t, http.StatusNoContent, serve(writer, &models.CurrentUser{Role: models.RoleCollaborator}))
}

func TestRecovery(t *testing.T) {
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })

	for _, env := range []string{"development", "production"} {
		t.Run(env, func(t *testing.T) {
			h := Recovery(&config.Config{Environment: env}, discardLogger())(boom)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			var body utils.APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			if env == "development" {
				assert.Contains(t, body.Error.Message, "boom")
			} else {
				assert.NotContains(t, body.Error.Message, "boom")
			}
		})
	}
}

func TestContentTypeJSON(t *testing.T) {
	h := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	cases := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{"get passes", http.MethodGet, "", "", http.StatusNoContent},
		{"empty post passes", http.MethodPost, "", "", http.StatusNoContent},
		{"json with charset", http.MethodPost, `{}`, "application/json; charset=utf-8", http.StatusNoContent},
		{"missing header", http.MethodPatch, `{}`, "", http.StatusBadRequest},
		{"form body", http.MethodPost, `a=b`, "application/x-www-form-urlencoded", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			req := httptest.NewRequest(tc.method, "/api/reservations", body)
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	h := MaxBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestNormalize(t *testing.T) {
	var gotPath, gotHost string
	h := Normalize()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotHost = r.URL.Path, r.Host
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/spaces/", nil)
	req.Header.Set("X-Forwarded-Host", "reservas.senac.br")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "/api/spaces", gotPath)
	assert.Equal(t, "reservas.senac.br", gotHost)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "/", gotPath)
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/spaces/99", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, buf.String(), "status=404")
	assert.Contains(t, buf.String(), "path=/api/spaces/99")
}
