package handlers

import (
	"net/http"
	"strconv"
	"time"

	chiRoute "github.com/go-chi/chi/v5"

	"senac-reservas-backend/pkg/calendar"
	"senac-reservas-backend/pkg/models"
	"senac-reservas-backend/pkg/store"
	"senac-reservas-backend/pkg/utils"
)

type CalendarHandler struct {
	store *store.Store
}

func NewCalendarHandler(s *store.Store) *CalendarHandler {
	return &CalendarHandler{store: s}
}

type monthRef struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

type monthResponse struct {
	calendar.MonthView
	Today    models.Date `json:"today"`
	Previous monthRef    `json:"previous"`
	Next     monthRef    `json:"next"`
}

// GET /api/calendar/{year}/{month}?spaceId=
func (h *CalendarHandler) GetMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chiRoute.URLParam(r, "year"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "Invalid year")
		return
	}
	m, err := strconv.Atoi(chiRoute.URLParam(r, "month"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "Invalid month")
		return
	}
	grid, err := calendar.Month(year, time.Month(m))
	if err != nil {
		utils.WriteBadRequestResponse(w, err.Error())
		return
	}
	spaceID, err := queryInt(r, "spaceId")
	if err != nil {
		utils.WriteBadRequestResponse(w, "spaceId must be a number")
		return
	}

	list := h.store.FilterReservations(models.ReservationFilter{SpaceID: spaceID})
	py, pm := calendar.Navigate(year, time.Month(m), -1)
	ny, nm := calendar.Navigate(year, time.Month(m), 1)

	utils.WriteSuccessResponse(w, monthResponse{
		MonthView: calendar.Project(grid, list),
		Today:     h.store.Today(),
		Previous:  monthRef{Year: py, Month: pm},
		Next:      monthRef{Year: ny, Month: nm},
	})
}

// GET /api/calendar.ics?spaceId=
func (h *CalendarHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	spaceID, err := queryInt(r, "spaceId")
	if err != nil {
		utils.WriteBadRequestResponse(w, "spaceId must be a number")
		return
	}
	list := h.store.FilterReservations(models.ReservationFilter{SpaceID: spaceID})

	feed := calendar.BuildICS(list, h.store.ListSpaces(), calendar.FeedOptions{
		Name:     h.store.Settings().SystemName,
		Host:     r.Host,
		Location: h.store.Location(),
	})

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="reservas.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(feed))
}
