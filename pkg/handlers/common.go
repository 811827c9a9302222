package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	chiRoute "github.com/go-chi/chi/v5"

	"senac-reservas-backend/pkg/store"
	"senac-reservas-backend/pkg/utils"
)

const unsavedWarning = "change applied but could not be saved to storage"

// pathID 读取路径中的正整数 id
func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chiRoute.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt 读取可选的整数查询参数，缺省时返回 0
func queryInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// decodeBody 解析并校验请求体，失败时已写入响应
func decodeBody(w http.ResponseWriter, r *http.Request, v *utils.Validator, dst interface{}) bool {
	if err := utils.ParseJSONBody(r, dst); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body: "+err.Error())
		return false
	}
	if fields := v.Struct(dst); fields != nil {
		utils.WriteValidationErrorResponse(w, "Validation failed", fields)
		return false
	}
	return true
}

// writeResult 写入存储操作的结果；写入存储失败时仍返回数据并带上未保存的标记
func writeResult(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}, err error) {
	switch {
	case err == nil:
		utils.WriteJSONResponse(w, status, data)
	case errors.Is(err, store.ErrNotPersisted):
		logger.Warn("responding with unsaved change", slog.Any("error", err))
		utils.WriteUnsavedResponse(w, status, data, unsavedWarning)
	default:
		handleStoreError(w, logger, err)
	}
}

// handleStoreError 将存储层错误映射为HTTP响应
func handleStoreError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var series *store.SeriesConflictError
	switch {
	case errors.As(err, &series):
		dates := make([]string, len(series.Dates))
		for i, d := range series.Dates {
			dates[i] = d.String()
		}
		utils.WriteConflictResponse(w, err.Error(), map[string]interface{}{"dates": dates})
	case errors.Is(err, store.ErrConflict):
		utils.WriteConflictResponse(w, err.Error(), nil)
	case errors.Is(err, store.ErrInvalidTransition):
		utils.WriteErrorResponseWithCode(w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, store.ErrReservationNotFound),
		errors.Is(err, store.ErrSpaceNotFound),
		errors.Is(err, store.ErrCollaboratorNotFound):
		utils.WriteNotFoundResponse(w, err.Error())
	default:
		logger.Error("store operation failed", slog.Any("error", err))
		utils.WriteInternalServerErrorResponse(w, "Operation failed")
	}
}
