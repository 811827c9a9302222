package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"senac-reservas-backend/pkg/config"
	"senac-reservas-backend/pkg/database"
	"senac-reservas-backend/pkg/middleware"
	"senac-reservas-backend/pkg/models"
	"senac-reservas-backend/pkg/store"
	"senac-reservas-backend/pkg/utils"
)

// SystemHandler 健康检查、当前用户、统计、设置、导出和令牌
type SystemHandler struct {
	config     *config.Config
	store      *store.Store
	db         database.Database
	jwtService *utils.JWTService
	validator  *utils.Validator
	logger     *slog.Logger
	now        func() time.Time
}

func NewSystemHandler(cfg *config.Config, s *store.Store, db database.Database, jwtService *utils.JWTService, v *utils.Validator, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{
		config:     cfg,
		store:      s,
		db:         db,
		jwtService: jwtService,
		validator:  v,
		logger:     logger,
		now:        time.Now,
	}
}

// HealthCheck 健康检查
func (h *SystemHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	// 测试存储连接
	dbStatus := "healthy"
	status := http.StatusOK
	if err := h.db.HealthCheck(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
		status = http.StatusServiceUnavailable
	}

	utils.WriteJSONResponse(w, status, map[string]interface{}{
		"service":     "senac-reservas-backend",
		"version":     "1.0.0",
		"environment": h.config.Environment,
		"database":    h.db.Name(),
		"db_status":   dbStatus,
		"auth":        h.config.AuthEnabled(),
		"timestamp":   h.now().Unix(),
	})
}

// GET /api/me
func (h *SystemHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}
	utils.WriteSuccessResponse(w, user)
}

// GET /api/stats
func (h *SystemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, h.store.Stats(h.store.Today()))
}

// GET /api/settings
func (h *SystemHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, h.store.Settings())
}

// PATCH /api/settings
func (h *SystemHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if !decodeBody(w, r, h.validator, &patch) {
		return
	}
	if wh := patch.WorkingHours; wh != nil && wh.End <= wh.Start {
		utils.WriteValidationErrorResponse(w, "Validation failed",
			map[string]string{"workingHours": "end must be after start"})
		return
	}
	settings, err := h.store.UpdateSettings(patch)
	writeResult(w, h.logger, http.StatusOK, settings, err)
}

// GET /api/export
func (h *SystemHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.store.Export(&buf); err != nil {
		h.logger.Error("export failed", slog.Any("error", err))
		utils.WriteInternalServerErrorResponse(w, "Export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+store.ExportFileName(h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// POST /api/auth/token 管理员为协作者签发访问令牌
func (h *SystemHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if !h.config.AuthEnabled() {
		utils.WriteErrorResponseWithCode(w, http.StatusNotImplemented, "AUTH_DISABLED",
			"JWT_SECRET is not configured", nil)
		return
	}
	var req models.TokenRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}
	c, found := h.store.FindCollaboratorByEmail(req.Email)
	if !found {
		utils.WriteNotFoundResponse(w, store.ErrCollaboratorNotFound.Error())
		return
	}
	token, expiresIn, err := h.jwtService.GenerateAccessToken(c)
	if err != nil {
		utils.WriteForbiddenResponse(w, err.Error())
		return
	}
	h.logger.Info("access token issued", slog.Int("collaborator_id", c.ID), slog.String("role", string(c.Role)))
	utils.WriteCreatedResponse(w, models.TokenResponse{AccessToken: token, ExpiresIn: expiresIn})
}
