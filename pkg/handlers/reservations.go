package handlers

import (
	"log/slog"
	"net/http"

	"senac-reservas-backend/pkg/config"
	"senac-reservas-backend/pkg/middleware"
	"senac-reservas-backend/pkg/models"
	"senac-reservas-backend/pkg/recurrence"
	"senac-reservas-backend/pkg/store"
	"senac-reservas-backend/pkg/utils"
)

type ReservationsHandler struct {
	config    *config.Config
	store     *store.Store
	validator *utils.Validator
	logger    *slog.Logger
}

func NewReservationsHandler(cfg *config.Config, s *store.Store, v *utils.Validator, logger *slog.Logger) *ReservationsHandler {
	return &ReservationsHandler{config: cfg, store: s, validator: v, logger: logger}
}

// seriesRequest books the same slot on every date produced by RRule.
type seriesRequest struct {
	models.ReservationDraft
	RRule string `json:"rrule" validate:"required"`
	Limit int    `json:"limit,omitempty" validate:"gte=0,lte=52"`
}

// GET /api/reservations?status=&spaceId=&date=
func (h *ReservationsHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	var filter models.ReservationFilter
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		switch models.ReservationStatus(v) {
		case models.StatusPending, models.StatusApproved, models.StatusRejected:
			filter.Status = models.ReservationStatus(v)
		default:
			utils.WriteBadRequestResponse(w, "status must be one of: pending approved rejected")
			return
		}
	}
	spaceID, err := queryInt(r, "spaceId")
	if err != nil {
		utils.WriteBadRequestResponse(w, "spaceId must be a number")
		return
	}
	filter.SpaceID = spaceID
	if v := q.Get("date"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			utils.WriteBadRequestResponse(w, err.Error())
			return
		}
		filter.Date = d
	}

	list := h.store.FilterReservations(filter)
	utils.WriteListResponse(w, list, len(list))
}

// GET /api/reservations/{id}
func (h *ReservationsHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.WriteBadRequestResponse(w, "Invalid reservation id")
		return
	}
	res, found := h.store.GetReservation(id)
	if !found {
		utils.WriteNotFoundResponse(w, store.ErrReservationNotFound.Error())
		return
	}
	utils.WriteSuccessResponse(w, res)
}

// POST /api/reservations
func (h *ReservationsHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var draft models.ReservationDraft
	if !decodeBody(w, r, h.validator, &draft) {
		return
	}
	if fields := h.checkDraft(draft); fields != nil {
		utils.WriteValidationErrorResponse(w, "Validation failed", fields)
		return
	}
	if draft.Type == "" {
		draft.Type = models.ReservationInternal
	}

	res, err := h.store.BookReservation(draft)
	if err == store.ErrConflict {
		utils.WriteConflictResponse(w, "Space is already booked in this time slot",
			h.store.Conflicts(draft.SpaceID, draft.Date, draft.StartTime, draft.EndTime, 0))
		return
	}
	writeResult(w, h.logger, http.StatusCreated, res, err)
}

// POST /api/reservations/series
func (h *ReservationsHandler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}
	if fields := h.checkDraft(req.ReservationDraft); fields != nil {
		utils.WriteValidationErrorResponse(w, "Validation failed", fields)
		return
	}
	if req.Type == "" {
		req.Type = models.ReservationInternal
	}

	dates, err := recurrence.Expand(req.RRule, req.Date, req.Limit)
	if err != nil {
		utils.WriteValidationErrorResponse(w, "Validation failed", map[string]string{"rrule": err.Error()})
		return
	}
	if len(dates) == 0 {
		utils.WriteValidationErrorResponse(w, "Validation failed", map[string]string{"rrule": "produces no dates"})
		return
	}

	list, err := h.store.BookSeries(req.ReservationDraft, dates)
	writeResult(w, h.logger, http.StatusCreated, list, err)
}

// GET /api/reservations/conflicts?spaceId=&date=&startTime=&endTime=&excludeId=
func (h *ReservationsHandler) CheckConflict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fields := map[string]string{}

	spaceID, err := queryInt(r, "spaceId")
	if err != nil || spaceID <= 0 {
		fields["spaceId"] = "is required"
	}
	excludeID, err := queryInt(r, "excludeId")
	if err != nil {
		fields["excludeId"] = "must be a number"
	}
	date, err := models.ParseDate(q.Get("date"))
	if err != nil {
		fields["date"] = err.Error()
	}
	start, err := models.ParseTimeOfDay(q.Get("startTime"))
	if err != nil {
		fields["startTime"] = err.Error()
	}
	end, err := models.ParseTimeOfDay(q.Get("endTime"))
	if err != nil {
		fields["endTime"] = err.Error()
	}
	if len(fields) > 0 {
		utils.WriteValidationErrorResponse(w, "Validation failed", fields)
		return
	}

	conflicts := h.store.Conflicts(spaceID, date, start, end, excludeID)
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"conflict":  len(conflicts) > 0,
		"conflicts": conflicts,
	})
}

// PATCH /api/reservations/{id}
func (h *ReservationsHandler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.WriteBadRequestResponse(w, "Invalid reservation id")
		return
	}
	var patch models.ReservationPatch
	if !decodeBody(w, r, h.validator, &patch) {
		return
	}
	if patch.Status != nil {
		if user, _ := middleware.GetUserFromContext(r.Context()); user.Role != models.RoleAdmin {
			utils.WriteForbiddenResponse(w, "Only admins may change the status of a reservation")
			return
		}
	}

	current, found := h.store.GetReservation(id)
	if !found {
		utils.WriteNotFoundResponse(w, store.ErrReservationNotFound.Error())
		return
	}
	if patch.TouchesSlot() {
		merged := current
		patch.Apply(&merged)
		// 只在更换空间时校验空间是否存在
		checkSpace := 0
		if patch.SpaceID != nil {
			checkSpace = merged.SpaceID
		}
		if fields := h.checkSlot(checkSpace, merged.Date, merged.StartTime, merged.EndTime); fields != nil {
			utils.WriteValidationErrorResponse(w, "Validation failed", fields)
			return
		}
	}

	res, err := h.store.EditReservation(id, patch)
	if err == store.ErrConflict {
		merged := current
		patch.Apply(&merged)
		utils.WriteConflictResponse(w, "Space is already booked in this time slot",
			h.store.Conflicts(merged.SpaceID, merged.Date, merged.StartTime, merged.EndTime, id))
		return
	}
	writeResult(w, h.logger, http.StatusOK, res, err)
}

// POST /api/reservations/{id}/approve
func (h *ReservationsHandler) ApproveReservation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.store.ApproveReservation)
}

// POST /api/reservations/{id}/reject
func (h *ReservationsHandler) RejectReservation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.store.RejectReservation)
}

func (h *ReservationsHandler) transition(w http.ResponseWriter, r *http.Request, apply func(int) (models.Reservation, error)) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.WriteBadRequestResponse(w, "Invalid reservation id")
		return
	}
	res, err := apply(id)
	writeResult(w, h.logger, http.StatusOK, res, err)
}

// DELETE /api/reservations/{id}
func (h *ReservationsHandler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		utils.WriteBadRequestResponse(w, "Invalid reservation id")
		return
	}
	deleted, err := h.store.DeleteReservation(id)
	if !deleted {
		utils.WriteNotFoundResponse(w, store.ErrReservationNotFound.Error())
		return
	}
	writeResult(w, h.logger, http.StatusOK, map[string]interface{}{"id": id, "deleted": true}, err)
}

func (h *ReservationsHandler) checkDraft(d models.ReservationDraft) map[string]string {
	return h.checkSlot(d.SpaceID, d.Date, d.StartTime, d.EndTime)
}

// checkSlot 校验日期、时间段和营业时间；spaceID 不为 0 时还校验空间是否存在
func (h *ReservationsHandler) checkSlot(spaceID int, date models.Date, start, end models.TimeOfDay) map[string]string {
	fields := map[string]string{}
	if date.IsZero() {
		fields["date"] = "is required"
	}
	if end <= start {
		fields["endTime"] = "must be after startTime"
	} else if hours := h.store.Settings().WorkingHours; !hours.Contains(start, end) {
		fields["startTime"] = "must be within working hours " + hours.Start.String() + "-" + hours.End.String()
	}
	if spaceID != 0 {
		if _, ok := h.store.GetSpace(spaceID); !ok {
			fields["spaceId"] = "unknown space"
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
