// catalog.go — сервис управления каталогом носителей.
// CRUD через фабрику доменных типов, чтение через LRU-кэш, статистика каталога.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/mediateka/internal/domain/media"
	"github.com/bigkaa/mediateka/internal/repository"
)

// Prometheus-метрики каталога.
var (
	mediaCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mc_media_created_total",
		Help: "Общее количество созданных носителей (по типу).",
	}, []string{"media_type"})
)

// ListResult — результат выборки носителей с пагинацией.
type ListResult struct {
	// Items — найденные носители
	Items []media.Media
	// Total — общее количество совпадений
	Total int
	// Limit — запрошенный лимит
	Limit int
	// Offset — текущее смещение
	Offset int
	// HasMore — есть ли ещё результаты
	HasMore bool
}

// Stats — агрегированная статистика каталога.
type Stats struct {
	// Total — всего носителей в каталоге
	Total int
	// ByType — количество носителей каждого типа
	ByType map[media.Type]int
	// Borrowed — выдано на руки
	Borrowed int
}

// CatalogService — сервис управления каталогом носителей.
type CatalogService struct {
	mediaRepo repository.MediaRepository
	cache     *CacheService
	logger    *slog.Logger
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(
	mediaRepo repository.MediaRepository,
	cache *CacheService,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		mediaRepo: mediaRepo,
		cache:     cache,
		logger:    logger.With(slog.String("component", "catalog_service")),
	}
}

// Create добавляет носитель в каталог: тег типа → фабрика → сохранение в БД.
// Неизвестный тег и некорректные атрибуты возвращают ErrValidation.
func (s *CatalogService) Create(ctx context.Context, rawType string, attrs media.Attributes) (media.Media, error) {
	typ, err := media.ParseType(rawType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err) //nolint:errorlint // намеренный двойной wrap
	}

	m, err := media.New(typ, attrs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err) //nolint:errorlint // намеренный двойной wrap
	}
	m.Common().ID = uuid.New().String()

	if err := s.mediaRepo.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: носитель с таким ISBN уже есть в каталоге", ErrConflict)
		}
		return nil, fmt.Errorf("сохранение носителя в БД: %w", err)
	}

	mediaCreatedTotal.WithLabelValues(string(typ)).Inc()

	s.logger.Info("Носитель добавлен в каталог",
		slog.String("media_id", m.Common().ID),
		slog.String("media_type", string(typ)),
		slog.String("title", m.Common().Title),
	)

	return m, nil
}

// Get возвращает носитель по ID.
// Сначала проверяет LRU-кэш, при промахе — запрос к PostgreSQL, результат кэшируется.
func (s *CatalogService) Get(ctx context.Context, id string) (media.Media, error) {
	if m, ok := s.cache.Get(id); ok {
		s.logger.Debug("Кэш hit для носителя", slog.String("media_id", id))
		return m, nil
	}

	m, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение носителя: %w", err)
	}

	s.cache.Set(id, m)

	return m, nil
}

// List возвращает носители по фильтрам с пагинацией.
func (s *CatalogService) List(ctx context.Context, f repository.Filter, limit, offset int) (*ListResult, error) {
	items, err := s.mediaRepo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("получение списка носителей: %w", err)
	}

	total, err := s.mediaRepo.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("подсчёт носителей: %w", err)
	}

	return &ListResult{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(items) < total,
	}, nil
}

// Update заменяет атрибуты носителя. Тип записи неизменяем: rawType обязан
// совпадать с типом существующей записи. Признак выдачи не затрагивается.
func (s *CatalogService) Update(ctx context.Context, id, rawType string, attrs media.Attributes) (media.Media, error) {
	typ, err := media.ParseType(rawType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err) //nolint:errorlint // намеренный двойной wrap
	}

	existing, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение носителя для обновления: %w", err)
	}

	if existing.MediaType() != typ {
		return nil, fmt.Errorf("%w: тип носителя изменить нельзя, запись имеет тип %s",
			ErrValidation, existing.MediaType())
	}

	m, err := media.New(typ, attrs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err) //nolint:errorlint // намеренный двойной wrap
	}

	// Идентичность и состояние выдачи переносятся из существующей записи
	common := m.Common()
	common.ID = id
	common.CreatedAt = existing.Common().CreatedAt
	if book, ok := m.(*media.Book); ok {
		if prev, ok := existing.(*media.Book); ok {
			book.Borrowed = prev.Borrowed
		}
	}

	if err := s.mediaRepo.Update(ctx, m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: носитель с таким ISBN уже есть в каталоге", ErrConflict)
		}
		return nil, fmt.Errorf("обновление носителя в БД: %w", err)
	}

	s.cache.Delete(id)

	s.logger.Info("Носитель обновлён",
		slog.String("media_id", id),
		slog.String("media_type", string(typ)),
	)

	return m, nil
}

// Delete удаляет носитель из каталога и инвалидирует кэш.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.mediaRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление носителя: %w", err)
	}

	s.cache.Delete(id)

	s.logger.Info("Носитель удалён из каталога",
		slog.String("media_id", id),
	)

	return nil
}

// Stats возвращает статистику каталога: всего, по типам, выдано.
// Зарегистрированные типы присутствуют в ответе даже при нуле записей.
func (s *CatalogService) Stats(ctx context.Context) (*Stats, error) {
	byType, err := s.mediaRepo.CountByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("статистика по типам: %w", err)
	}

	borrowed, err := s.mediaRepo.CountBorrowed(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт выданных носителей: %w", err)
	}

	total := 0
	for _, n := range byType {
		total += n
	}

	for _, t := range media.Types() {
		if _, ok := byType[t]; !ok {
			byType[t] = 0
		}
	}

	return &Stats{Total: total, ByType: byType, Borrowed: borrowed}, nil
}
