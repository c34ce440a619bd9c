// capabilities.go — обработчики операций, зависящих от возможностей типа:
// скачивание, трейлер, выдача и возврат. Типы без соответствующей
// возможности получают 409 CAPABILITY_NOT_SUPPORTED.
package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/mediateka/internal/api/errors"
	"github.com/bigkaa/mediateka/internal/api/middleware"
	"github.com/bigkaa/mediateka/internal/domain/media"
	"github.com/bigkaa/mediateka/internal/service"
)

// DownloadMedia — POST /api/v1/media/{id}/download.
// Запуск скачивания цифрового носителя (movie, audiobook).
// Доступ: admin, readonly или SA с media:read.
func (h *APIHandler) DownloadMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	msg, mediaType, err := h.download.Download(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Носитель не найден")
		case errors.Is(err, service.ErrNotDownloadable):
			apierrors.CapabilityNotSupported(w, err.Error())
		default:
			h.logger.Error("Ошибка скачивания носителя", "media_id", id, "error", err)
			apierrors.InternalError(w, "Ошибка скачивания носителя")
		}
		return
	}

	writeJSON(w, http.StatusOK, downloadResponse{
		Message:   msg,
		MediaType: string(mediaType),
	})
}

// GetMediaTrailer — GET /api/v1/media/{id}/trailer.
// Воспроизведение трейлера. Трейлер есть только у фильмов.
// Доступ: admin, readonly или SA с media:read.
func (h *APIHandler) GetMediaTrailer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	msg, err := h.download.Trailer(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Носитель не найден")
		case errors.Is(err, service.ErrNoTrailer):
			apierrors.CapabilityNotSupported(w, err.Error())
		default:
			h.logger.Error("Ошибка воспроизведения трейлера", "media_id", id, "error", err)
			apierrors.InternalError(w, "Ошибка воспроизведения трейлера")
		}
		return
	}

	writeJSON(w, http.StatusOK, trailerResponse{Message: msg})
}

// BorrowMedia — POST /api/v1/media/{id}/borrow.
// Выдача носителя на руки. Выдаются только книги.
// Доступ: admin или SA с media:write.
func (h *APIHandler) BorrowMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	m, err := h.lending.Borrow(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Носитель не найден")
		case errors.Is(err, service.ErrNotBorrowable):
			apierrors.CapabilityNotSupported(w, err.Error())
		case errors.Is(err, media.ErrAlreadyBorrowed):
			apierrors.AlreadyBorrowed(w, err.Error())
		default:
			h.logger.Error("Ошибка выдачи носителя", "media_id", id, "error", err)
			apierrors.InternalError(w, "Ошибка выдачи носителя")
		}
		return
	}

	h.logger.Debug("Носитель выдан через API",
		"media_id", id,
		"subject", middleware.SubjectFromContext(r.Context()),
	)

	writeJSON(w, http.StatusOK, toMediaResponse(m))
}

// ReturnMedia — POST /api/v1/media/{id}/return.
// Возврат носителя в каталог.
// Доступ: admin или SA с media:write.
func (h *APIHandler) ReturnMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	m, err := h.lending.Return(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Носитель не найден")
		case errors.Is(err, service.ErrNotBorrowable):
			apierrors.CapabilityNotSupported(w, err.Error())
		case errors.Is(err, media.ErrNotBorrowed):
			apierrors.NotBorrowed(w, err.Error())
		default:
			h.logger.Error("Ошибка возврата носителя", "media_id", id, "error", err)
			apierrors.InternalError(w, "Ошибка возврата носителя")
		}
		return
	}

	h.logger.Debug("Носитель возвращён через API",
		"media_id", id,
		"subject", middleware.SubjectFromContext(r.Context()),
	)

	writeJSON(w, http.StatusOK, toMediaResponse(m))
}
