// media.go — обработчики CRUD endpoints каталога /api/v1/media.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/mediateka/internal/api/errors"
	"github.com/bigkaa/mediateka/internal/domain/media"
	"github.com/bigkaa/mediateka/internal/repository"
	"github.com/bigkaa/mediateka/internal/service"
)

// CreateMedia — POST /api/v1/media.
// Добавление носителя в каталог. Конкретный тип задаётся полем type.
// Доступ: admin или SA с media:write.
func (h *APIHandler) CreateMedia(w http.ResponseWriter, r *http.Request) {
	var req mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if req.Type == "" {
		apierrors.ValidationError(w, "Поле type обязательно")
		return
	}

	m, err := h.catalog.Create(r.Context(), req.Type, req.toAttributes())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrConflict):
			apierrors.Conflict(w, err.Error())
		default:
			h.logger.Error("Ошибка создания носителя", "error", err)
			apierrors.InternalError(w, "Ошибка создания носителя")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toMediaResponse(m))
}

// ListMedia — GET /api/v1/media.
// Список носителей с фильтрами (type, creator, title, borrowed) и пагинацией.
// Доступ: admin, readonly или SA с media:read.
func (h *APIHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f repository.Filter
	if raw := q.Get("type"); raw != "" {
		typ, err := media.ParseType(raw)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		f.Type = &typ
	}
	if raw := q.Get("creator"); raw != "" {
		f.Creator = &raw
	}
	if raw := q.Get("title"); raw != "" {
		f.Title = &raw
	}
	if raw := q.Get("borrowed"); raw != "" {
		borrowed, err := strconv.ParseBool(raw)
		if err != nil {
			apierrors.ValidationError(w, "Параметр borrowed должен быть true или false")
			return
		}
		f.Borrowed = &borrowed
	}

	limit, offset, ok := parsePagination(w, q)
	if !ok {
		return
	}

	result, err := h.catalog.List(r.Context(), f, limit, offset)
	if err != nil {
		h.logger.Error("Ошибка получения списка носителей", "error", err)
		apierrors.InternalError(w, "Ошибка получения списка носителей")
		return
	}

	writeJSON(w, http.StatusOK, toMediaListResponse(result))
}

// GetMedia — GET /api/v1/media/{id}.
// Карточка носителя по UUID.
// Доступ: admin, readonly или SA с media:read.
func (h *APIHandler) GetMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	m, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Носитель не найден")
			return
		}
		h.logger.Error("Ошибка получения носителя", "media_id", id, "error", err)
		apierrors.InternalError(w, "Ошибка получения носителя")
		return
	}

	writeJSON(w, http.StatusOK, toMediaResponse(m))
}

// UpdateMedia — PUT /api/v1/media/{id}.
// Полное обновление атрибутов носителя. Тип записи неизменяем.
// Доступ: admin или SA с media:write.
func (h *APIHandler) UpdateMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if req.Type == "" {
		apierrors.ValidationError(w, "Поле type обязательно")
		return
	}

	m, err := h.catalog.Update(r.Context(), id, req.Type, req.toAttributes())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Носитель не найден")
		case errors.Is(err, service.ErrConflict):
			apierrors.Conflict(w, err.Error())
		default:
			h.logger.Error("Ошибка обновления носителя", "media_id", id, "error", err)
			apierrors.InternalError(w, "Ошибка обновления носителя")
		}
		return
	}

	writeJSON(w, http.StatusOK, toMediaResponse(m))
}

// DeleteMedia — DELETE /api/v1/media/{id}.
// Удаление носителя из каталога.
// Доступ: admin или SA с media:write.
func (h *APIHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Носитель не найден")
			return
		}
		h.logger.Error("Ошибка удаления носителя", "media_id", id, "error", err)
		apierrors.InternalError(w, "Ошибка удаления носителя")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetMediaDescription — GET /api/v1/media/{id}/description.
// Человекочитаемое описание носителя (полиморфное по типу).
// Доступ: admin, readonly или SA с media:read.
func (h *APIHandler) GetMediaDescription(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	m, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Носитель не найден")
			return
		}
		h.logger.Error("Ошибка получения носителя", "media_id", id, "error", err)
		apierrors.InternalError(w, "Ошибка получения носителя")
		return
	}

	writeJSON(w, http.StatusOK, descriptionResponse{Description: m.Description()})
}

// parsePagination извлекает limit и offset из query-параметров.
// Некорректные значения возвращают 400 и false.
func parsePagination(w http.ResponseWriter, q url.Values) (int, int, bool) {
	var limit, offset *int

	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			apierrors.ValidationError(w, "Параметр limit должен быть целым числом")
			return 0, 0, false
		}
		limit = &v
	}
	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			apierrors.ValidationError(w, "Параметр offset должен быть целым числом")
			return 0, 0, false
		}
		offset = &v
	}

	l, o := paginationDefaults(limit, offset)
	return l, o, true
}
