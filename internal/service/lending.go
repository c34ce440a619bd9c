// lending.go — сервис выдачи и возврата носителей.
// Выдача доступна носителям с возможностью Borrowable (книги).
// Признак выдачи меняется атомарно через guarded UPDATE в репозитории,
// параллельная выдача одной книги получает конфликт.
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

// Prometheus-метрики выдачи.
var (
	borrowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mc_borrows_total",
		Help: "Общее количество операций выдачи и возврата (по действию).",
	}, []string{"action"})
)

// LendingService — сервис выдачи носителей на руки.
type LendingService struct {
	mediaRepo repository.MediaRepository
	cache     *CacheService
	logger    *slog.Logger
}

// NewLendingService создаёт сервис выдачи.
func NewLendingService(
	mediaRepo repository.MediaRepository,
	cache *CacheService,
	logger *slog.Logger,
) *LendingService {
	return &LendingService{
		mediaRepo: mediaRepo,
		cache:     cache,
		logger:    logger.With(slog.String("component", "lending_service")),
	}
}

// Borrow выдаёт носитель на руки.
// Носители без поддержки выдачи возвращают ErrNotBorrowable,
// уже выданные — media.ErrAlreadyBorrowed.
func (ls *LendingService) Borrow(ctx context.Context, id string) (media.Media, error) {
	m, b, err := ls.getBorrowable(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := b.Borrow(); err != nil {
		return nil, err
	}

	if err := ls.mediaRepo.SetBorrowed(ctx, id, true); err != nil {
		return nil, ls.mapSetBorrowedErr(err, media.ErrAlreadyBorrowed)
	}

	ls.cache.Delete(id)
	borrowsTotal.WithLabelValues("borrow").Inc()

	ls.logger.Info("Носитель выдан",
		slog.String("media_id", id),
		slog.String("title", m.Common().Title),
	)

	return m, nil
}

// Return принимает носитель обратно.
// Не выданные носители возвращают media.ErrNotBorrowed.
func (ls *LendingService) Return(ctx context.Context, id string) (media.Media, error) {
	m, b, err := ls.getBorrowable(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := b.Return(); err != nil {
		return nil, err
	}

	if err := ls.mediaRepo.SetBorrowed(ctx, id, false); err != nil {
		return nil, ls.mapSetBorrowedErr(err, media.ErrNotBorrowed)
	}

	ls.cache.Delete(id)
	borrowsTotal.WithLabelValues("return").Inc()

	ls.logger.Info("Носитель возвращён",
		slog.String("media_id", id),
		slog.String("title", m.Common().Title),
	)

	return m, nil
}

// getBorrowable читает носитель из БД и проверяет поддержку выдачи.
// Кэш не используется: признак выдачи обязан быть актуальным.
func (ls *LendingService) getBorrowable(ctx context.Context, id string) (media.Media, media.Borrowable, error) {
	m, err := ls.mediaRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("получение носителя: %w", err)
	}

	b, ok := m.(media.Borrowable)
	if !ok {
		return nil, nil, fmt.Errorf("%w: тип %s", ErrNotBorrowable, m.MediaType())
	}

	return m, b, nil
}

// mapSetBorrowedErr преобразует ошибки guarded UPDATE в доменные.
// Конфликт означает гонку: состояние сменилось между чтением и записью.
func (ls *LendingService) mapSetBorrowedErr(err, stateErr error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, repository.ErrConflict) {
		return stateErr
	}
	return fmt.Errorf("смена признака выдачи: %w", err)
}
