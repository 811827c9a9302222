package handler

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
	"senac-reservas-backend/pkg/database"
	"senac-reservas-backend/pkg/models"
	"senac-reservas-backend/pkg/store"
	"senac-reservas-backend/pkg/utils"
)

// 2025-10-05 is a Sunday; the seed puts reservations 1 and 2 on that day
// and reservation 3 on the next.
var fixedNow = time.Date(2025, time.October, 5, 8, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *utils.APIError `json:"error"`
	Meta    *utils.Meta     `json:"meta"`
}

type testServer struct {
	t      *testing.T
	router http.Handler
	store  *store.Store
	token  string
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:    "test",
		StorageDriver:  database.DriverMemory,
		AllowedOrigins: []string{"*"},
		TokenTTL:       time.Hour,
		Timezone:       "UTC",
	}
}

func newTestServer(t *testing.T, cfg *config.Config, db database.Database) *testServer {
	t.Helper()
	s := store.New(db,
		store.WithLogger(discardLogger()),
		store.WithClock(func() time.Time { return fixedNow }),
		store.WithLocation(time.UTC))
	return &testServer{t: t, router: NewRouter(cfg, s, db, discardLogger()), store: s}
}

func newSeededServer(t *testing.T) *testServer {
	return newTestServer(t, testConfig(), database.NewMemoryDatabase())
}

func (ts *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(ts.t, err)
			raw = string(b)
		}
		reader = strings.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func booking(spaceID int, date, start, end string) map[string]interface{} {
	return map[string]interface{}{
		"spaceId":        spaceID,
		"requestorName":  "Carlos Lima",
		"requestorEmail": "carlos.lima@senac.com.br",
		"type":           "external",
		"date":           date,
		"startTime":      start,
		"endTime":        end,
		"title":          "Workshop",
		"participants":   20,
	}
}

func TestHealthAndMe(t *testing.T) {
	ts := newSeededServer(t)

	rec := ts.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	decode(t, rec, &health)
	assert.Equal(t, "memory", health["database"])
	assert.Equal(t, "healthy", health["db_status"])

	rec = ts.do(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.CurrentUser
	decode(t, rec, &me)
	assert.Equal(t, "AD", me.Avatar)
	assert.Equal(t, models.RoleAdmin, me.Role)
}

func TestListReservationsWithFilters(t *testing.T) {
	ts := newSeededServer(t)

	cases := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?status=pending", 1},
		{"?date=05/10/2025", 2},
		{"?date=2025-10-06", 1},
		{"?spaceId=2", 1},
		{"?spaceId=2&status=pending", 0},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/api/reservations"+tc.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			var list []models.Reservation
			env := decode(t, rec, &list)
			assert.Len(t, list, tc.want)
			assert.Equal(t, tc.want, env.Meta.Total)
		})
	}

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/reservations?status=done", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/reservations?date=31/02/2025", nil).Code)
}

func TestBookReservation(t *testing.T) {
	ts := newSeededServer(t)

	t.Run("overlap is rejected with the blocking reservation", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/reservations", booking(1, "05/10/2025", "11:00", "13:00"))
		require.Equal(t, http.StatusConflict, rec.Code)
		env := decode(t, rec, nil)
		require.NotNil(t, env.Error)
		assert.Equal(t, "CONFLICT", env.Error.Code)
		blocking, ok := env.Error.Details.([]interface{})
		require.True(t, ok)
		assert.Len(t, blocking, 1)
	})

	t.Run("touching slot is accepted", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/api/reservations", booking(1, "05/10/2025", "12:00", "13:00"))
		require.Equal(t, http.StatusCreated, rec.Code)
		var res models.Reservation
		env := decode(t, rec, &res)
		assert.Nil(t, env.Meta)
		assert.Equal(t, 4, res.ID)
		assert.Equal(t, models.StatusPending, res.Status)
		assert.Equal(t, "Auditório Principal", res.SpaceName)
		assert.Equal(t, models.ReservationExternal, res.Type)
	})

	t.Run("validation", func(t *testing.T) {
		bad := []struct {
			name  string
			body  map[string]interface{}
			field string
		}{
			{"end before start", booking(1, "07/10/2025", "10:00", "09:00"), "endTime"},
			{"outside working hours", booking(1, "07/10/2025", "07:00", "09:00"), "startTime"},
			{"unknown space", booking(99, "07/10/2025", "09:00", "10:00"), "spaceId"},
		}
		for _, tc := range bad {
			rec := ts.do(http.MethodPost, "/api/reservations", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, tc.name)
			env := decode(t, rec, nil)
			details, ok := env.Error.Details.(map[string]interface{})
			require.True(t, ok, tc.name)
			assert.Contains(t, details, tc.field, tc.name)
		}

		body := booking(1, "07/10/2025", "09:00", "10:00")
		body["requestorEmail"] = "not-an-email"
		rec := ts.do(http.MethodPost, "/api/reservations", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", decode(t, rec, nil).Error.Code)

		body = booking(1, "07/10/2025", "09:00", "10:00")
		body["color"] = "blue"
		assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/reservations", body).Code)
	})
}

func TestAutoApproveWhenApprovalDisabled(t *testing.T) {
	ts := newSeededServer(t)

	rec := ts.do(http.MethodPatch, "/api/settings", map[string]interface{}{"requireApproval": false})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/api/reservations", booking(4, "06/10/2025", "08:00", "09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var res models.Reservation
	decode(t, rec, &res)
	assert.Equal(t, models.StatusApproved, res.Status)

	rec = ts.do(http.MethodPatch, "/api/settings", map[string]interface{}{
		"workingHours": map[string]string{"start": "18:00", "end": "08:00"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveAndReject(t *testing.T) {
	ts := newSeededServer(t)

	rec := ts.do(http.MethodPost, "/api/reservations/3/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.Reservation
	decode(t, rec, &res)
	assert.Equal(t, models.StatusApproved, res.Status)

	rec = ts.do(http.MethodPost, "/api/reservations/3/reject", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode(t, rec, nil).Error.Code)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, "/api/reservations/42/approve", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/reservations/abc/approve", nil).Code)
}

func TestPatchReservation(t *testing.T) {
	ts := newSeededServer(t)

	rec := ts.do(http.MethodPatch, "/api/reservations/2", map[string]interface{}{
		"spaceId": 1, "startTime": "10:00", "endTime": "11:00",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	// Moving within its own slot never conflicts with itself.
	rec = ts.do(http.MethodPatch, "/api/reservations/1", map[string]interface{}{"endTime": "12:30"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPatch, "/api/reservations/2", map[string]interface{}{"title": "Aula de Go"})
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.Reservation
	decode(t, rec, &res)
	assert.Equal(t, "Aula de Go", res.Title)
	assert.Equal(t, "14:00", res.StartTime.String())
	assert.Equal(t, "João Santos", res.RequestorName)

	assert.Equal(t, http.StatusNotFound,
		ts.do(http.MethodPatch, "/api/reservations/77", map[string]interface{}{"title": "x"}).Code)
}

func TestPatchStatusCannotReviveIntoTakenSlot(t *testing.T) {
	ts := newSeededServer(t)

	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/api/reservations/3/reject", nil).Code)
	rec := ts.do(http.MethodPost, "/api/reservations", booking(3, "06/10/2025", "10:00", "11:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodPatch, "/api/reservations/3", map[string]interface{}{"status": "approved"})
	require.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	blocking, ok := env.Error.Details.([]interface{})
	require.True(t, ok)
	assert.Len(t, blocking, 1)

	res, found := ts.store.GetReservation(3)
	require.True(t, found)
	assert.Equal(t, models.StatusRejected, res.Status)
}

func TestDeleteReservation(t *testing.T) {
	ts := newSeededServer(t)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/reservations/99", nil).Code)
	require.Equal(t, http.StatusOK, ts.do(http.MethodDelete, "/api/reservations/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/reservations/1", nil).Code)

	// Slot 1 is free again.
	rec := ts.do(http.MethodPost, "/api/reservations", booking(1, "05/10/2025", "09:00", "12:00"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestBookSeries(t *testing.T) {
	ts := newSeededServer(t)

	body := booking(4, "07/10/2025", "19:00", "21:00")
	body["rrule"] = "FREQ=WEEKLY;COUNT=3"

	rec := ts.do(http.MethodPost, "/api/reservations/series", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var list []models.Reservation
	decode(t, rec, &list)
	require.Len(t, list, 3)
	assert.NotEmpty(t, list[0].SeriesID)
	assert.Equal(t, list[0].SeriesID, list[2].SeriesID)
	assert.Equal(t, "21/10/2025", list[2].Date.String())

	rec = ts.do(http.MethodPost, "/api/reservations/series", body)
	require.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec, nil)
	details, ok := env.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, details["dates"], 3)

	body["rrule"] = "FREQ=SOMETIMES"
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/reservations/series", body).Code)
}

func TestConflictEndpoint(t *testing.T) {
	ts := newSeededServer(t)

	var out struct {
		Conflict  bool                 `json:"conflict"`
		Conflicts []models.Reservation `json:"conflicts"`
	}
	rec := ts.do(http.MethodGet, "/api/reservations/conflicts?spaceId=1&date=05/10/2025&startTime=11:00&endTime=12:30", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &out)
	assert.True(t, out.Conflict)
	require.Len(t, out.Conflicts, 1)
	assert.Equal(t, 1, out.Conflicts[0].ID)

	rec = ts.do(http.MethodGet, "/api/reservations/conflicts?spaceId=1&date=05/10/2025&startTime=11:00&endTime=12:30&excludeId=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &out)
	assert.False(t, out.Conflict)

	rec = ts.do(http.MethodGet, "/api/reservations/conflicts?date=05/10/2025", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendarMonth(t *testing.T) {
	ts := newSeededServer(t)

	rec := ts.do(http.MethodGet, "/api/calendar/2025/10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		FirstWeekday int `json:"firstWeekday"`
		DaysInMonth  int `json:"daysInMonth"`
		Days         []struct {
			Day   int `json:"day"`
			Count int `json:"count"`
		} `json:"days"`
		Today    string `json:"today"`
		Previous struct {
			Year  int `json:"year"`
			Month int `json:"month"`
		} `json:"previous"`
	}
	decode(t, rec, &view)
	assert.Equal(t, 3, view.FirstWeekday)
	assert.Equal(t, 31, view.DaysInMonth)
	require.Len(t, view.Days, 31)
	assert.Equal(t, 2, view.Days[4].Count)
	assert.Equal(t, 1, view.Days[5].Count)
	assert.Equal(t, "05/10/2025", view.Today)
	assert.Equal(t, 2025, view.Previous.Year)
	assert.Equal(t, 9, view.Previous.Month)

	rec = ts.do(http.MethodGet, "/api/calendar/2025/10?spaceId=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	assert.Equal(t, 0, view.Days[4].Count)
	assert.Equal(t, 1, view.Days[5].Count)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/calendar/2025/13", nil).Code)
}

func TestCalendarFeed(t *testing.T) {
	ts := newSeededServer(t)

	rec := ts.do(http.MethodGet, "/api/calendar.ics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "reservation-1@")
	assert.Equal(t, 3, strings.Count(body, "BEGIN:VEVENT"))
}

func TestStatsAndExport(t *testing.T) {
	ts := newSeededServer(t)

	rec := ts.do(http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.Stats
	decode(t, rec, &stats)
	assert.Equal(t, models.Stats{Today: 2, Pending: 1, Approved: 2, Total: 3}, stats)

	rec = ts.do(http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="senac-reservas-`)
	var state models.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Len(t, state.Reservations, 3)
	assert.Len(t, state.Spaces, 4)
	require.NotNil(t, state.CurrentUser)
}

func TestSpacesAndCollaborators(t *testing.T) {
	ts := newSeededServer(t)

	rec := ts.do(http.MethodPost, "/api/spaces", map[string]interface{}{
		"name": "Laboratório de Robótica", "capacity": 25, "type": "laboratorio",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sp models.Space
	decode(t, rec, &sp)
	assert.Equal(t, 5, sp.ID)
	assert.Equal(t, models.SpaceLab, sp.Type)
	assert.Equal(t, models.SpaceActive, sp.Status)

	rec = ts.do(http.MethodPost, "/api/spaces", map[string]interface{}{"name": "Sala", "capacity": 0, "type": "lab"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPatch, "/api/spaces/5", map[string]interface{}{"status": "inactive"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &sp)
	assert.Equal(t, models.SpaceInactive, sp.Status)
	assert.Equal(t, 25, sp.Capacity)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPatch, "/api/spaces/50", map[string]interface{}{"capacity": 3}).Code)
	require.Equal(t, http.StatusOK, ts.do(http.MethodDelete, "/api/spaces/5", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/spaces/5", nil).Code)

	rec = ts.do(http.MethodPost, "/api/collaborators", map[string]interface{}{
		"name": "Outra Maria", "email": "MARIA.SILVA@senac.com.br", "role": "viewer",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, "/api/collaborators", map[string]interface{}{
		"name": "Pedro Alves", "email": "pedro.alves@senac.com.br", "role": "viewer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var c models.Collaborator
	decode(t, rec, &c)
	assert.Equal(t, 3, c.ID)
	assert.Equal(t, models.CollaboratorActive, c.Status)

	rec = ts.do(http.MethodPost, "/api/collaborators", map[string]interface{}{
		"name": "Sem Papel", "email": "sem.papel@senac.com.br", "role": "owner",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/collaborators", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))
}

func TestUnsavedChangeIsReported(t *testing.T) {
	db := database.WithQuota(database.NewMemoryDatabase(), 10)
	ts := newTestServer(t, testConfig(), db)

	rec := ts.do(http.MethodPost, "/api/reservations", booking(4, "06/10/2025", "08:00", "09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var res models.Reservation
	env := decode(t, rec, &res)
	assert.True(t, env.Success)
	require.NotNil(t, env.Meta)
	require.NotNil(t, env.Meta.Persisted)
	assert.False(t, *env.Meta.Persisted)
	assert.NotEmpty(t, env.Meta.Warning)

	// The change stays visible in memory.
	_, found := ts.store.GetReservation(res.ID)
	assert.True(t, found)
}

func TestAuthEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "integration-secret"
	ts := newTestServer(t, cfg, database.NewMemoryDatabase())
	jwtService := utils.NewJWTService(cfg.JWTSecret, time.Hour)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/me", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/health", nil).Code)

	viewer, _, err := jwtService.GenerateAccessToken(models.Collaborator{
		ID: 9, Name: "Leitor", Email: "leitor@senac.com.br", Role: models.RoleViewer, Status: models.CollaboratorActive,
	})
	require.NoError(t, err)
	ts.token = viewer
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/reservations", nil).Code)
	assert.Equal(t, http.StatusForbidden,
		ts.do(http.MethodPost, "/api/reservations", booking(4, "06/10/2025", "08:00", "09:00")).Code)

	collaborator, _, err := jwtService.GenerateAccessToken(models.Collaborator{
		ID: 2, Name: "Maria Silva", Email: "maria.silva@senac.com.br", Role: models.RoleCollaborator, Status: models.CollaboratorActive,
	})
	require.NoError(t, err)
	ts.token = collaborator
	assert.Equal(t, http.StatusCreated,
		ts.do(http.MethodPost, "/api/reservations", booking(4, "06/10/2025", "08:00", "09:00")).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodPost, "/api/reservations/3/approve", nil).Code)
	assert.Equal(t, http.StatusForbidden,
		ts.do(http.MethodPatch, "/api/reservations/3", map[string]interface{}{"status": "approved"}).Code)

	admin, _, err := jwtService.GenerateAccessToken(models.Collaborator{
		ID: 1, Name: "Administrador", Email: "admin@senac.com.br", Role: models.RoleAdmin, Status: models.CollaboratorActive,
	})
	require.NoError(t, err)
	ts.token = admin
	rec := ts.do(http.MethodPost, "/api/auth/token", map[string]string{"email": "maria.silva@senac.com.br"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var issued models.TokenResponse
	decode(t, rec, &issued)
	claims, err := jwtService.ValidateToken(issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCollaborator, claims.Role)
}

func TestRouteFallbacks(t *testing.T) {
	ts := newSeededServer(t)

	rec := ts.do(http.MethodGet, "/api/nothing-here", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, decode(t, rec, nil).Success)

	rec = ts.do(http.MethodPut, "/api/stats", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	// Trailing slashes are normalized away.
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/spaces/", nil).Code)
}
