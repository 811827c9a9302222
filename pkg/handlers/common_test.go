package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chiRoute "github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"senac-reservas-backend/pkg/models"
	"senac-reservas-backend/pkg/store"
	"senac-reservas-backend/pkg/utils"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleStoreError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", store.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"series", &store.SeriesConflictError{Dates: []models.Date{models.NewDate(2025, 10, 7)}}, http.StatusConflict, "CONFLICT"},
		{"transition", store.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{"reservation", store.ErrReservationNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"space", fmt.Errorf("update: %w", store.ErrSpaceNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"collaborator", store.ErrCollaboratorNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleStoreError(rec, discardLogger(), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var body utils.APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.code, body.Error.Code)
		})
	}
}

func TestSeriesConflictListsDates(t *testing.T) {
	rec := httptest.NewRecorder()
	err := &store.SeriesConflictError{Dates: []models.Date{models.NewDate(2025, 10, 7), models.NewDate(2025, 10, 14)}}
	handleStoreError(rec, discardLogger(), err)

	var body struct {
		Error struct {
			Details struct {
				Dates []string `json:"dates"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"07/10/2025", "14/10/2025"}, body.Error.Details.Dates)
}

func TestWriteResultMarksUnsavedChanges(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("%w: %w", store.ErrNotPersisted, errors.New("quota"))
	writeResult(rec, discardLogger(), http.StatusCreated, map[string]int{"id": 7}, err)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.NotNil(t, body.Meta)
	require.NotNil(t, body.Meta.Persisted)
	assert.False(t, *body.Meta.Persisted)
	assert.Equal(t, unsavedWarning, body.Meta.Warning)
}

func TestPathID(t *testing.T) {
	var got int
	var ok bool
	r := chiRoute.NewRouter()
	r.Get("/items/{id}", func(w http.ResponseWriter, req *http.Request) {
		got, ok = pathID(req, "id")
	})

	for path, want := range map[string]int{"/items/12": 12, "/items/0": 0, "/items/-3": 0, "/items/x": 0} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, got, path)
		assert.Equal(t, want != 0, ok, path)
	}
}
