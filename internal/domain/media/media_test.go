package media

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// testMovie возвращает фильм с валидными атрибутами.
func testMovie(t *testing.T) *Movie {
	t.Helper()

	m, err := New(TypeMovie, Attributes{
		Title:           "Матрица",
		Creator:         "Кино",
		PublicationDate: time.Date(1999, 3, 31, 0, 0, 0, 0, time.UTC),
		Duration:        136,
		Format:          "MP4",
		Director:        "Вачовские сестры",
	})
	if err != nil {
		t.Fatalf("создание фильма: неожиданная ошибка: %v", err)
	}
	return m.(*Movie)
}

// testBook возвращает книгу с валидными атрибутами.
func testBook(t *testing.T) *Book {
	t.Helper()

	b, err := New(TypeBook, Attributes{
		Title:           "Война и мир",
		Creator:         "Лев Толстой",
		PublicationDate: time.Date(1869, 1, 1, 0, 0, 0, 0, time.UTC),
		ISBN:            "978-5-17-980780-3",
		PageCount:       1200,
	})
	if err != nil {
		t.Fatalf("создание книги: неожиданная ошибка: %v", err)
	}
	return b.(*Book)
}

// testAudioBook возвращает аудиокнигу с валидными атрибутами.
func testAudioBook(t *testing.T) *AudioBook {
	t.Helper()

	a, err := New(TypeAudioBook, Attributes{
		Title:           "Евгений Онегин",
		Creator:         "Александр Пушкин",
		PublicationDate: time.Date(1833, 1, 1, 0, 0, 0, 0, time.UTC),
		Narrator:        "Иннокентий Смоктуновский",
		Duration:        254,
	})
	if err != nil {
		t.Fatalf("создание аудиокниги: неожиданная ошибка: %v", err)
	}
	return a.(*AudioBook)
}

// TestMovie_Description проверяет описание фильма с указанием режиссера.
func TestMovie_Description(t *testing.T) {
	m := testMovie(t)

	want := "Фильм 'Матрица' режиссера Вачовские сестры"
	if got := m.Description(); got != want {
		t.Errorf("Description(): ожидалось %q, получено %q", want, got)
	}

	// В описании фильма — режиссер, а не автор
	if !strings.Contains(m.Description(), "режиссера") {
		t.Error("описание фильма должно содержать слово «режиссера»")
	}
	if strings.Contains(m.Description(), "автора") {
		t.Error("описание фильма не должно содержать слово «автора»")
	}
}

// TestMovie_MediaType проверяет тег типа фильма.
func TestMovie_MediaType(t *testing.T) {
	m := testMovie(t)

	if m.MediaType() != TypeMovie {
		t.Errorf("MediaType(): ожидалось %q, получено %q", TypeMovie, m.MediaType())
	}
}

// TestMovie_Download проверяет сообщение о старте скачивания фильма.
func TestMovie_Download(t *testing.T) {
	m := testMovie(t)

	want := "Скачивание Матрица началось..."
	if got := m.Download(); got != want {
		t.Errorf("Download(): ожидалось %q, получено %q", want, got)
	}
}

// TestMovie_PlayTrailer проверяет сообщение о воспроизведении трейлера.
func TestMovie_PlayTrailer(t *testing.T) {
	m := testMovie(t)

	want := "Воспроизведение трейлера фильма 'Матрица'"
	if got := m.PlayTrailer(); got != want {
		t.Errorf("PlayTrailer(): ожидалось %q, получено %q", want, got)
	}
}

// TestBook_Description проверяет описание книги с указанием автора.
func TestBook_Description(t *testing.T) {
	b := testBook(t)

	want := "Книга 'Война и мир' автора Лев Толстой"
	if got := b.Description(); got != want {
		t.Errorf("Description(): ожидалось %q, получено %q", want, got)
	}

	// В описании книги — автор, а не режиссер
	if !strings.Contains(b.Description(), "автора") {
		t.Error("описание книги должно содержать слово «автора»")
	}
	if strings.Contains(b.Description(), "режиссера") {
		t.Error("описание книги не должно содержать слово «режиссера»")
	}
}

// TestBook_BorrowReturn проверяет жизненный цикл выдачи книги.
func TestBook_BorrowReturn(t *testing.T) {
	b := testBook(t)

	// Новая книга не выдана
	if b.IsBorrowed() {
		t.Error("новая книга не должна числиться выданной")
	}

	// Выдача
	if err := b.Borrow(); err != nil {
		t.Fatalf("Borrow(): неожиданная ошибка: %v", err)
	}
	if !b.IsBorrowed() {
		t.Error("после Borrow() книга должна числиться выданной")
	}

	// Повторная выдача — ошибка
	if err := b.Borrow(); !errors.Is(err, ErrAlreadyBorrowed) {
		t.Errorf("повторный Borrow(): ожидалась ErrAlreadyBorrowed, получено %v", err)
	}

	// Возврат
	if err := b.Return(); err != nil {
		t.Fatalf("Return(): неожиданная ошибка: %v", err)
	}
	if b.IsBorrowed() {
		t.Error("после Return() книга не должна числиться выданной")
	}

	// Повторный возврат — ошибка
	if err := b.Return(); !errors.Is(err, ErrNotBorrowed) {
		t.Errorf("повторный Return(): ожидалась ErrNotBorrowed, получено %v", err)
	}
}

// TestAudioBook_Description проверяет описание аудиокниги с указанием чтеца.
func TestAudioBook_Description(t *testing.T) {
	a := testAudioBook(t)

	want := "Аудиокнига 'Евгений Онегин' в исполнении Иннокентий Смоктуновский"
	if got := a.Description(); got != want {
		t.Errorf("Description(): ожидалось %q, получено %q", want, got)
	}
}

// TestAudioBook_Download проверяет сообщение о старте скачивания аудиокниги.
func TestAudioBook_Download(t *testing.T) {
	a := testAudioBook(t)

	want := "Скачивание Евгений Онегин началось..."
	if got := a.Download(); got != want {
		t.Errorf("Download(): ожидалось %q, получено %q", want, got)
	}
}

// TestCapabilities проверяет набор возможностей каждого типа носителя.
// Возможность определяется реализацией интерфейса, наличие проверяется
// типовым утверждением.
func TestCapabilities(t *testing.T) {
	movie, err := New(TypeMovie, Attributes{
		Title:           "Темный рыцарь",
		Creator:         "DC Comics",
		PublicationDate: time.Date(2008, 7, 18, 0, 0, 0, 0, time.UTC),
		Duration:        152,
		Format:          "AVI",
		Director:        "Кристофер Нолан",
	})
	if err != nil {
		t.Fatalf("создание фильма: %v", err)
	}

	tests := []struct {
		name         string
		m            Media
		downloadable bool
		borrowable   bool
	}{
		{"movie", movie, true, false},
		{"book", testBook(t), false, true},
		{"audiobook", testAudioBook(t), true, false},
	}

	for _, tt := range tests {
		if _, ok := tt.m.(Downloadable); ok != tt.downloadable {
			t.Errorf("%s: Downloadable = %v, ожидалось %v", tt.name, ok, tt.downloadable)
		}
		if _, ok := tt.m.(Borrowable); ok != tt.borrowable {
			t.Errorf("%s: Borrowable = %v, ожидалось %v", tt.name, ok, tt.borrowable)
		}
	}
}

// TestCommon проверяет доступ к общим полям через интерфейс Media.
func TestCommon(t *testing.T) {
	var m Media = testMovie(t)

	common := m.Common()
	if common.Title != "Матрица" {
		t.Errorf("Common().Title: ожидалось %q, получено %q", "Матрица", common.Title)
	}
	if common.Creator != "Кино" {
		t.Errorf("Common().Creator: ожидалось %q, получено %q", "Кино", common.Creator)
	}

	wantDate := time.Date(1999, 3, 31, 0, 0, 0, 0, time.UTC)
	if !common.PublicationDate.Equal(wantDate) {
		t.Errorf("Common().PublicationDate: ожидалось %v, получено %v", wantDate, common.PublicationDate)
	}

	// Common возвращает указатель на встроенные поля, а не копию
	common.ID = "test-id"
	if m.Common().ID != "test-id" {
		t.Error("Common() должен возвращать указатель на общие поля носителя")
	}
}
