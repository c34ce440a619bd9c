// download.go — сервис скачивания цифровых носителей.
// Скачивание доступно носителям с возможностью Downloadable (фильмы, аудиокниги);
// книги — физические носители и скачивание не поддерживают.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/mediateka/internal/domain/media"
	"github.com/bigkaa/mediateka/internal/repository"
)

// Prometheus-метрики скачивания.
var (
	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mc_downloads_total",
		Help: "Общее количество запросов на скачивание (по типу носителя).",
	}, []string{"media_type"})

	trailersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mc_trailers_total",
		Help: "Общее количество запросов трейлеров.",
	})
)

// DownloadService — сервис скачивания носителей и воспроизведения трейлеров.
type DownloadService struct {
	mediaRepo repository.MediaRepository
	cache     *CacheService
	logger    *slog.Logger
}

// NewDownloadService создаёт сервис скачивания.
func NewDownloadService(
	mediaRepo repository.MediaRepository,
	cache *CacheService,
	logger *slog.Logger,
) *DownloadService {
	return &DownloadService{
		mediaRepo: mediaRepo,
		cache:     cache,
		logger:    logger.With(slog.String("component", "download_service")),
	}
}

// Download запускает скачивание носителя и возвращает сообщение о начале.
// Носители без поддержки скачивания возвращают ErrNotDownloadable.
func (ds *DownloadService) Download(ctx context.Context, id string) (string, media.Type, error) {
	m, err := ds.getMedia(ctx, id)
	if err != nil {
		return "", "", err
	}

	d, ok := m.(media.Downloadable)
	if !ok {
		return "", "", fmt.Errorf("%w: тип %s", ErrNotDownloadable, m.MediaType())
	}

	msg := d.Download()
	downloadsTotal.WithLabelValues(string(m.MediaType())).Inc()

	ds.logger.Info("Скачивание носителя",
		slog.String("media_id", id),
		slog.String("media_type", string(m.MediaType())),
	)

	return msg, m.MediaType(), nil
}

// Trailer возвращает сообщение о воспроизведении трейлера.
// Трейлер есть только у фильмов; остальные типы возвращают ErrNoTrailer.
func (ds *DownloadService) Trailer(ctx context.Context, id string) (string, error) {
	m, err := ds.getMedia(ctx, id)
	if err != nil {
		return "", err
	}

	movie, ok := m.(*media.Movie)
	if !ok {
		return "", fmt.Errorf("%w: тип %s", ErrNoTrailer, m.MediaType())
	}

	trailersTotal.Inc()

	ds.logger.Debug("Воспроизведение трейлера",
		slog.String("media_id", id),
		slog.String("title", movie.Title),
	)

	return movie.PlayTrailer(), nil
}

// getMedia получает носитель из кэша или БД.
func (ds *DownloadService) getMedia(ctx context.Context, id string) (media.Media, error) {
	if m, ok := ds.cache.Get(id); ok {
		return m, nil
	}

	m, err := ds.mediaRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение носителя: %w", err)
	}

	ds.cache.Set(id, m)

	return m, nil
}
