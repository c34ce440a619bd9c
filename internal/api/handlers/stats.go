// stats.go — обработчики справочных endpoints каталога:
// зарегистрированные типы носителей и агрегированная статистика.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/mediateka/internal/api/errors"
	"github.com/bigkaa/mediateka/internal/domain/media"
)

// ListMediaTypes — GET /api/v1/media-types.
// Типы носителей, зарегистрированные в доменной фабрике.
// Доступ: admin, readonly или SA с media:read.
func (h *APIHandler) ListMediaTypes(w http.ResponseWriter, r *http.Request) {
	types := media.Types()

	resp := mediaTypesResponse{Types: make([]string, 0, len(types))}
	for _, t := range types {
		resp.Types = append(resp.Types, string(t))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetStats — GET /api/v1/stats.
// Статистика каталога: всего носителей, по типам, выдано на руки.
// Доступ: admin, readonly или SA с media:read.
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения статистики каталога", "error", err)
		apierrors.InternalError(w, "Ошибка получения статистики каталога")
		return
	}

	writeJSON(w, http.StatusOK, toStatsResponse(stats))
}
