package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/mediateka/internal/config"
	"github.com/bigkaa/mediateka/internal/database"
	"github.com/bigkaa/mediateka/internal/domain/media"
)

// setupTestDB запускает PostgreSQL контейнер и применяет миграции.
// Возвращает pgxpool.Pool. Контейнер останавливается при завершении теста.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("mediateka_test"),
		postgres.WithUsername("mediateka"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	// Настраиваем env для config.Load()
	os.Setenv("MC_DB_HOST", host)
	os.Setenv("MC_DB_PORT", port.Port())
	os.Setenv("MC_DB_NAME", "mediateka_test")
	os.Setenv("MC_DB_USER", "mediateka")
	os.Setenv("MC_DB_PASSWORD", "test-password")
	os.Setenv("MC_DB_SSL_MODE", "disable")
	os.Setenv("MC_KEYCLOAK_URL", "http://localhost:8080")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Применяем миграции
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	// Подключаемся
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// newTestMovie создаёт фильм с заданным названием через фабрику.
func newTestMovie(t *testing.T, title string) *media.Movie {
	t.Helper()

	m, err := media.New(media.TypeMovie, media.Attributes{
		Title:           title,
		Creator:         "Кино",
		PublicationDate: time.Date(1999, 3, 31, 0, 0, 0, 0, time.UTC),
		Duration:        136,
		Format:          "MP4",
		Director:        "Вачовские сестры",
	})
	if err != nil {
		t.Fatalf("Создание фильма: %v", err)
	}
	m.Common().ID = uuid.New().String()
	return m.(*media.Movie)
}

// newTestBook создаёт книгу с заданным ISBN через фабрику.
func newTestBook(t *testing.T, isbn string) *media.Book {
	t.Helper()

	b, err := media.New(media.TypeBook, media.Attributes{
		Title:           "Война и мир",
		Creator:         "Лев Толстой",
		PublicationDate: time.Date(1869, 1, 1, 0, 0, 0, 0, time.UTC),
		ISBN:            isbn,
		PageCount:       1200,
	})
	if err != nil {
		t.Fatalf("Создание книги: %v", err)
	}
	b.Common().ID = uuid.New().String()
	return b.(*media.Book)
}

// newTestAudioBook создаёт аудиокнигу через фабрику.
func newTestAudioBook(t *testing.T) *media.AudioBook {
	t.Helper()

	a, err := media.New(media.TypeAudioBook, media.Attributes{
		Title:           "Евгений Онегин",
		Creator:         "Александр Пушкин",
		PublicationDate: time.Date(1833, 1, 1, 0, 0, 0, 0, time.UTC),
		Narrator:        "Иннокентий Смоктуновский",
		Duration:        254,
	})
	if err != nil {
		t.Fatalf("Создание аудиокниги: %v", err)
	}
	a.Common().ID = uuid.New().String()
	return a.(*media.AudioBook)
}

// --- Тесты MediaRepository ---

func TestMediaCRUD_Movie(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMediaRepository(pool)

	movie := newTestMovie(t, "Матрица")

	// Create
	if err := repo.Create(ctx, movie); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if movie.CreatedAt.IsZero() {
		t.Error("CreatedAt не установлен")
	}

	// GetByID — восстановление конкретного типа
	got, err := repo.GetByID(ctx, movie.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	gotMovie, ok := got.(*media.Movie)
	if !ok {
		t.Fatalf("GetByID() вернул %T, хотели *media.Movie", got)
	}
	if gotMovie.Title != "Матрица" {
		t.Errorf("Title = %q, хотели %q", gotMovie.Title, "Матрица")
	}
	if gotMovie.Director != "Вачовские сестры" {
		t.Errorf("Director = %q, хотели %q", gotMovie.Director, "Вачовские сестры")
	}
	if gotMovie.Duration != 136 {
		t.Errorf("Duration = %d, хотели 136", gotMovie.Duration)
	}

	// List
	list, err := repo.List(ctx, Filter{}, 10, 0)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() вернул %d записей, хотели 1", len(list))
	}

	// Count
	count, err := repo.Count(ctx, Filter{})
	if err != nil {
		t.Fatalf("Count() ошибка: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, хотели 1", count)
	}

	// Update
	movie.Duration = 150
	movie.Format = "MKV"
	if err := repo.Update(ctx, movie); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	got2, _ := repo.GetByID(ctx, movie.ID)
	if m2 := got2.(*media.Movie); m2.Duration != 150 || m2.Format != "MKV" {
		t.Errorf("После Update: Duration=%d, Format=%q", m2.Duration, m2.Format)
	}

	// Delete
	if err := repo.Delete(ctx, movie.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	_, err = repo.GetByID(ctx, movie.ID)
	if err != ErrNotFound {
		t.Errorf("После Delete ожидали ErrNotFound, получили: %v", err)
	}
}

func TestMediaCRUD_Book(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMediaRepository(pool)

	book := newTestBook(t, "978-5-17-980780-3")

	if err := repo.Create(ctx, book); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	// Восстановление типа и признака выдачи
	got, err := repo.GetByID(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	gotBook, ok := got.(*media.Book)
	if !ok {
		t.Fatalf("GetByID() вернул %T, хотели *media.Book", got)
	}
	if gotBook.ISBN != "978-5-17-980780-3" {
		t.Errorf("ISBN = %q, хотели %q", gotBook.ISBN, "978-5-17-980780-3")
	}
	if gotBook.IsBorrowed() {
		t.Error("Новая книга не должна числиться выданной")
	}

	// SetBorrowed — выдача
	if err := repo.SetBorrowed(ctx, book.ID, true); err != nil {
		t.Fatalf("SetBorrowed(true) ошибка: %v", err)
	}
	got2, _ := repo.GetByID(ctx, book.ID)
	if !got2.(*media.Book).IsBorrowed() {
		t.Error("После SetBorrowed(true) книга должна числиться выданной")
	}

	// Повторная выдача — конфликт состояния
	err = repo.SetBorrowed(ctx, book.ID, true)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Повторный SetBorrowed(true): ожидали ErrConflict, получили: %v", err)
	}

	// Возврат
	if err := repo.SetBorrowed(ctx, book.ID, false); err != nil {
		t.Fatalf("SetBorrowed(false) ошибка: %v", err)
	}

	// SetBorrowed несуществующего носителя
	err = repo.SetBorrowed(ctx, uuid.New().String(), true)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("SetBorrowed несуществующего: ожидали ErrNotFound, получили: %v", err)
	}
}

func TestMediaCRUD_AudioBook(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMediaRepository(pool)

	ab := newTestAudioBook(t)

	if err := repo.Create(ctx, ab); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	got, err := repo.GetByID(ctx, ab.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	gotAB, ok := got.(*media.AudioBook)
	if !ok {
		t.Fatalf("GetByID() вернул %T, хотели *media.AudioBook", got)
	}
	if gotAB.Narrator != "Иннокентий Смоктуновский" {
		t.Errorf("Narrator = %q, хотели %q", gotAB.Narrator, "Иннокентий Смоктуновский")
	}
	if gotAB.Duration != 254 {
		t.Errorf("Duration = %d, хотели 254", gotAB.Duration)
	}
}

func TestMedia_Filters(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMediaRepository(pool)

	movie := newTestMovie(t, "Матрица")
	book := newTestBook(t, "978-5-17-980780-3")
	ab := newTestAudioBook(t)
	for _, m := range []media.Media{movie, book, ab} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create(%s) ошибка: %v", m.MediaType(), err)
		}
	}

	// Фильтр по типу
	typ := media.TypeBook
	list, err := repo.List(ctx, Filter{Type: &typ}, 10, 0)
	if err != nil {
		t.Fatalf("List(type=book) ошибка: %v", err)
	}
	if len(list) != 1 || list[0].MediaType() != media.TypeBook {
		t.Errorf("List(type=book) вернул %d записей, хотели 1 книгу", len(list))
	}

	// Фильтр по создателю
	creator := "Лев Толстой"
	list, err = repo.List(ctx, Filter{Creator: &creator}, 10, 0)
	if err != nil {
		t.Fatalf("List(creator) ошибка: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List(creator=Лев Толстой) вернул %d записей, хотели 1", len(list))
	}

	// Фильтр по названию
	title := "Матрица"
	count, err := repo.Count(ctx, Filter{Title: &title})
	if err != nil {
		t.Fatalf("Count(title) ошибка: %v", err)
	}
	if count != 1 {
		t.Errorf("Count(title=Матрица) = %d, хотели 1", count)
	}

	// Фильтр по признаку выдачи
	if err := repo.SetBorrowed(ctx, book.ID, true); err != nil {
		t.Fatalf("SetBorrowed ошибка: %v", err)
	}
	borrowed := true
	list, err = repo.List(ctx, Filter{Borrowed: &borrowed}, 10, 0)
	if err != nil {
		t.Fatalf("List(borrowed) ошибка: %v", err)
	}
	if len(list) != 1 || list[0].MediaType() != media.TypeBook {
		t.Errorf("List(borrowed=true) вернул %d записей, хотели 1 книгу", len(list))
	}

	// Комбинация фильтров без совпадений
	wrongCreator := "Кино"
	list, err = repo.List(ctx, Filter{Type: &typ, Creator: &wrongCreator}, 10, 0)
	if err != nil {
		t.Fatalf("List(type+creator) ошибка: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List(book+Кино) вернул %d записей, хотели 0", len(list))
	}
}

func TestMedia_Counters(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMediaRepository(pool)

	for _, m := range []media.Media{
		newTestMovie(t, "Матрица"),
		newTestMovie(t, "Интерстеллар"),
		newTestBook(t, "978-5-17-980780-3"),
		newTestAudioBook(t),
	} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create ошибка: %v", err)
		}
	}

	byType, err := repo.CountByType(ctx)
	if err != nil {
		t.Fatalf("CountByType() ошибка: %v", err)
	}
	if byType[media.TypeMovie] != 2 {
		t.Errorf("CountByType[movie] = %d, хотели 2", byType[media.TypeMovie])
	}
	if byType[media.TypeBook] != 1 {
		t.Errorf("CountByType[book] = %d, хотели 1", byType[media.TypeBook])
	}
	if byType[media.TypeAudioBook] != 1 {
		t.Errorf("CountByType[audiobook] = %d, хотели 1", byType[media.TypeAudioBook])
	}

	borrowed, err := repo.CountBorrowed(ctx)
	if err != nil {
		t.Fatalf("CountBorrowed() ошибка: %v", err)
	}
	if borrowed != 0 {
		t.Errorf("CountBorrowed() = %d, хотели 0", borrowed)
	}
}

func TestMedia_UniqueISBN(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMediaRepository(pool)

	first := newTestBook(t, "978-5-17-980780-3")
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() первой книги: %v", err)
	}

	// Дубликат ISBN — конфликт уникальности
	second := newTestBook(t, "978-5-17-980780-3")
	err := repo.Create(ctx, second)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Create() дубликата ISBN: ожидали ErrConflict, получили: %v", err)
	}
}

func TestMedia_ListOrder(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewMediaRepository(pool)

	older := newTestMovie(t, "Матрица")
	if err := repo.Create(ctx, older); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	// created_at различим на уровне микросекунд
	time.Sleep(10 * time.Millisecond)
	newer := newTestMovie(t, "Интерстеллар")
	if err := repo.Create(ctx, newer); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	list, err := repo.List(ctx, Filter{}, 10, 0)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() вернул %d записей, хотели 2", len(list))
	}
	// Новые — первыми
	if list[0].Common().Title != "Интерстеллар" {
		t.Errorf("List()[0] = %q, хотели Интерстеллар", list[0].Common().Title)
	}

	// Пагинация
	page, err := repo.List(ctx, Filter{}, 1, 1)
	if err != nil {
		t.Fatalf("List(limit=1, offset=1) ошибка: %v", err)
	}
	if len(page) != 1 || page[0].Common().Title != "Матрица" {
		t.Errorf("List(limit=1, offset=1) вернул не вторую запись")
	}
}
