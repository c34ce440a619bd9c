// media.go — репозиторий носителей каталога.
//
// Все типы носителей хранятся в одной таблице media_items с колонкой-дискриминатором
// media_type. Типоспецифичные колонки nullable: у фильма NULL в isbn, у книги —
// в duration_minutes. Конкретный доменный тип восстанавливается при сканировании.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/mediateka/internal/domain/media"
)

// mediaColumns — полный список колонок таблицы media_items.
const mediaColumns = `id, media_type, title, creator, publication_date,
	duration_minutes, format, director, isbn, page_count, narrator,
	is_borrowed, created_at, updated_at`

// Filter — фильтры выборки носителей по точному совпадению поля.
// Нулевые указатели в WHERE не участвуют.
type Filter struct {
	// Type — тип носителя
	Type *media.Type
	// Creator — создатель
	Creator *string
	// Title — название
	Title *string
	// Borrowed — признак выдачи
	Borrowed *bool
}

// MediaRepository — интерфейс CRUD для таблицы media_items.
type MediaRepository interface {
	// Create сохраняет новый носитель и заполняет CreatedAt/UpdatedAt.
	Create(ctx context.Context, m media.Media) error
	// GetByID возвращает носитель по UUID.
	GetByID(ctx context.Context, id string) (media.Media, error)
	// List возвращает носители по фильтрам, новые — первыми.
	List(ctx context.Context, f Filter, limit, offset int) ([]media.Media, error)
	// Count возвращает количество носителей по фильтрам.
	Count(ctx context.Context, f Filter) (int, error)
	// CountByType возвращает количество носителей каждого типа.
	CountByType(ctx context.Context) (map[media.Type]int, error)
	// CountBorrowed возвращает количество выданных носителей.
	CountBorrowed(ctx context.Context) (int, error)
	// Update обновляет атрибуты носителя. Признак выдачи не меняет.
	Update(ctx context.Context, m media.Media) error
	// SetBorrowed атомарно переключает признак выдачи.
	// Возвращает ErrConflict, если признак уже в требуемом состоянии.
	SetBorrowed(ctx context.Context, id string, borrowed bool) error
	// Delete удаляет носитель.
	Delete(ctx context.Context, id string) error
}

// mediaRepo — реализация MediaRepository.
type mediaRepo struct {
	db DBTX
}

// NewMediaRepository создаёт репозиторий носителей.
func NewMediaRepository(db DBTX) MediaRepository {
	return &mediaRepo{db: db}
}

func (r *mediaRepo) Create(ctx context.Context, m media.Media) error {
	row, err := toRow(m)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO media_items (id, media_type, title, creator, publication_date,
			duration_minutes, format, director, isbn, page_count, narrator, is_borrowed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	common := m.Common()
	err = r.db.QueryRow(ctx, query,
		row.id, row.mediaType, row.title, row.creator, row.publicationDate,
		row.durationMinutes, row.format, row.director, row.isbn, row.pageCount,
		row.narrator, row.isBorrowed,
	).Scan(&common.CreatedAt, &common.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: носитель с таким ISBN уже есть в каталоге", ErrConflict)
		}
		return fmt.Errorf("ошибка сохранения носителя: %w", err)
	}
	return nil
}

func (r *mediaRepo) GetByID(ctx context.Context, id string) (media.Media, error) {
	query := fmt.Sprintf(`SELECT %s FROM media_items WHERE id = $1`, mediaColumns)

	m, err := scanMedia(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения носителя: %w", err)
	}
	return m, nil
}

func (r *mediaRepo) List(ctx context.Context, f Filter, limit, offset int) ([]media.Media, error) {
	where, args := buildFilter(f)

	query := fmt.Sprintf(`
		SELECT %s
		FROM media_items
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, mediaColumns, where, len(args)+1, len(args)+2)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка носителей: %w", err)
	}
	defer rows.Close()

	var result []media.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования носителя: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *mediaRepo) Count(ctx context.Context, f Filter) (int, error) {
	where, args := buildFilter(f)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM media_items %s`, where)

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта носителей: %w", err)
	}
	return count, nil
}

func (r *mediaRepo) CountByType(ctx context.Context) (map[media.Type]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT media_type, COUNT(*) FROM media_items GROUP BY media_type`)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта носителей по типам: %w", err)
	}
	defer rows.Close()

	result := make(map[media.Type]int)
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования счётчика: %w", err)
		}
		result[media.Type(typ)] = count
	}
	return result, rows.Err()
}

func (r *mediaRepo) CountBorrowed(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM media_items WHERE is_borrowed`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта выданных носителей: %w", err)
	}
	return count, nil
}

func (r *mediaRepo) Update(ctx context.Context, m media.Media) error {
	row, err := toRow(m)
	if err != nil {
		return err
	}

	// media_type в WHERE запрещает смену типа существующей записи
	query := `
		UPDATE media_items
		SET title = $2, creator = $3, publication_date = $4,
			duration_minutes = $5, format = $6, director = $7,
			isbn = $8, page_count = $9, narrator = $10,
			updated_at = now()
		WHERE id = $1 AND media_type = $11
		RETURNING updated_at`

	common := m.Common()
	err = r.db.QueryRow(ctx, query,
		row.id, row.title, row.creator, row.publicationDate,
		row.durationMinutes, row.format, row.director,
		row.isbn, row.pageCount, row.narrator, row.mediaType,
	).Scan(&common.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: носитель с таким ISBN уже есть в каталоге", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления носителя: %w", err)
	}
	return nil
}

func (r *mediaRepo) SetBorrowed(ctx context.Context, id string, borrowed bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE media_items
		SET is_borrowed = $2, updated_at = now()
		WHERE id = $1 AND is_borrowed <> $2`, id, borrowed)
	if err != nil {
		return fmt.Errorf("ошибка смены признака выдачи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Либо носителя нет, либо признак уже в требуемом состоянии
		var exists bool
		err := r.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM media_items WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("ошибка проверки носителя: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return fmt.Errorf("%w: признак выдачи уже установлен в %t", ErrConflict, borrowed)
	}
	return nil
}

func (r *mediaRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления носителя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// buildFilter собирает WHERE по заполненным полям фильтра.
// Возвращает фрагмент WHERE (пустой при отсутствии фильтров) и аргументы запроса.
func buildFilter(f Filter) (string, []any) {
	var conditions []string
	var args []any

	if f.Type != nil {
		args = append(args, string(*f.Type))
		conditions = append(conditions, fmt.Sprintf("media_type = $%d", len(args)))
	}
	if f.Creator != nil {
		args = append(args, *f.Creator)
		conditions = append(conditions, fmt.Sprintf("creator = $%d", len(args)))
	}
	if f.Title != nil {
		args = append(args, *f.Title)
		conditions = append(conditions, fmt.Sprintf("title = $%d", len(args)))
	}
	if f.Borrowed != nil {
		args = append(args, *f.Borrowed)
		conditions = append(conditions, fmt.Sprintf("is_borrowed = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// mediaRow — плоское представление строки media_items.
type mediaRow struct {
	id              string
	mediaType       string
	title           string
	creator         string
	publicationDate time.Time
	durationMinutes *int
	format          *string
	director        *string
	isbn            *string
	pageCount       *int
	narrator        *string
	isBorrowed      bool
	createdAt       time.Time
	updatedAt       time.Time
}

// scanMedia сканирует строку запроса и восстанавливает доменный носитель.
func scanMedia(row pgx.Row) (media.Media, error) {
	var r mediaRow
	if err := row.Scan(
		&r.id, &r.mediaType, &r.title, &r.creator, &r.publicationDate,
		&r.durationMinutes, &r.format, &r.director, &r.isbn, &r.pageCount,
		&r.narrator, &r.isBorrowed, &r.createdAt, &r.updatedAt,
	); err != nil {
		return nil, err
	}
	return r.toDomain()
}

// toDomain восстанавливает конкретный тип носителя по дискриминатору media_type.
func (r mediaRow) toDomain() (media.Media, error) {
	item := media.Item{
		ID:              r.id,
		Title:           r.title,
		Creator:         r.creator,
		PublicationDate: r.publicationDate,
		CreatedAt:       r.createdAt,
		UpdatedAt:       r.updatedAt,
	}

	switch media.Type(r.mediaType) {
	case media.TypeMovie:
		if r.durationMinutes == nil || r.format == nil || r.director == nil {
			return nil, fmt.Errorf("неполная запись фильма %s", r.id)
		}
		return &media.Movie{
			Item:     item,
			Duration: *r.durationMinutes,
			Format:   *r.format,
			Director: *r.director,
		}, nil
	case media.TypeBook:
		if r.isbn == nil || r.pageCount == nil {
			return nil, fmt.Errorf("неполная запись книги %s", r.id)
		}
		return &media.Book{
			Item:      item,
			ISBN:      *r.isbn,
			PageCount: *r.pageCount,
			Borrowed:  r.isBorrowed,
		}, nil
	case media.TypeAudioBook:
		if r.narrator == nil || r.durationMinutes == nil {
			return nil, fmt.Errorf("неполная запись аудиокниги %s", r.id)
		}
		return &media.AudioBook{
			Item:     item,
			Narrator: *r.narrator,
			Duration: *r.durationMinutes,
		}, nil
	default:
		return nil, fmt.Errorf("неизвестный тип носителя в БД: %q", r.mediaType)
	}
}

// toRow раскладывает доменный носитель по колонкам таблицы.
// Колонки чужих типов остаются NULL.
func toRow(m media.Media) (mediaRow, error) {
	common := m.Common()
	r := mediaRow{
		id:              common.ID,
		mediaType:       string(m.MediaType()),
		title:           common.Title,
		creator:         common.Creator,
		publicationDate: common.PublicationDate,
	}

	switch v := m.(type) {
	case *media.Movie:
		r.durationMinutes = &v.Duration
		r.format = &v.Format
		r.director = &v.Director
	case *media.Book:
		r.isbn = &v.ISBN
		r.pageCount = &v.PageCount
		r.isBorrowed = v.Borrowed
	case *media.AudioBook:
		r.narrator = &v.Narrator
		r.durationMinutes = &v.Duration
	default:
		return mediaRow{}, fmt.Errorf("неизвестный тип носителя: %T", m)
	}
	return r, nil
}
