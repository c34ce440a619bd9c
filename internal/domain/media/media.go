// Пакет media — доменная модель каталога медиатеки.
//
// Три типа носителей с общими полями (название, создатель, дата публикации)
// и типоспецифичными атрибутами:
//   - movie — фильм (длительность, формат файла, режиссер)
//   - book — книга (ISBN, число страниц, признак выдачи)
//   - audiobook — аудиокнига (чтец, длительность)
//
// Необязательные возможности выражены отдельными интерфейсами:
// Downloadable (movie, audiobook) и Borrowable (book). Наличие возможности
// у конкретного носителя проверяется типовым утверждением, а не полем записи.
package media

import (
	"errors"
	"fmt"
	"time"
)

// Type — тип носителя в каталоге.
type Type string

const (
	// TypeMovie — фильм
	TypeMovie Type = "movie"
	// TypeBook — книга
	TypeBook Type = "book"
	// TypeAudioBook — аудиокнига
	TypeAudioBook Type = "audiobook"
)

// MaxFormatLen — предельная длина формата файла фильма (в символах).
const MaxFormatLen = 10

// ErrInvalidAttributes — атрибуты носителя не прошли валидацию.
var ErrInvalidAttributes = errors.New("некорректные атрибуты носителя")

// ErrAlreadyBorrowed — носитель уже выдан читателю.
var ErrAlreadyBorrowed = errors.New("носитель уже выдан")

// ErrNotBorrowed — носитель не числится выданным.
var ErrNotBorrowed = errors.New("носитель не выдан")

// Item — общие поля любого носителя каталога.
// Хранится в таблице media_items вместе с типоспецифичными колонками.
type Item struct {
	// ID — UUID записи
	ID string
	// Title — название
	Title string
	// Creator — создатель (киностудия, автор, издательство)
	Creator string
	// PublicationDate — дата публикации
	PublicationDate time.Time
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// Media — носитель каталога медиатеки.
type Media interface {
	// MediaType возвращает тип носителя (movie, book, audiobook).
	MediaType() Type
	// Description возвращает человекочитаемое описание носителя.
	Description() string
	// Common возвращает общие поля носителя.
	Common() *Item
}

// Downloadable — носитель, доступный для скачивания.
// Реализуют Movie и AudioBook. Book эту возможность не поддерживает.
type Downloadable interface {
	// Download возвращает сообщение о старте скачивания.
	Download() string
}

// Borrowable — носитель, который можно выдать читателю.
// Реализует только Book: цифровые носители каталог не покидают.
type Borrowable interface {
	// Borrow отмечает носитель выданным.
	// Возвращает ErrAlreadyBorrowed, если носитель уже выдан.
	Borrow() error
	// Return отмечает носитель возвращённым.
	// Возвращает ErrNotBorrowed, если носитель не был выдан.
	Return() error
	// IsBorrowed сообщает, выдан ли носитель.
	IsBorrowed() bool
}

// downloadMessage — общий текст старта скачивания для всех Downloadable.
func downloadMessage(title string) string {
	return fmt.Sprintf("Скачивание %s началось...", title)
}

// Movie — фильм. Поддерживает скачивание и воспроизведение трейлера.
type Movie struct {
	Item
	// Duration — длительность в минутах
	Duration int
	// Format — формат файла (MP4, MKV, AVI), не длиннее MaxFormatLen
	Format string
	// Director — режиссер
	Director string
}

// MediaType возвращает тип носителя.
func (m *Movie) MediaType() Type { return TypeMovie }

// Common возвращает общие поля носителя.
func (m *Movie) Common() *Item { return &m.Item }

// Description возвращает описание фильма с указанием режиссера.
func (m *Movie) Description() string {
	return fmt.Sprintf("Фильм '%s' режиссера %s", m.Title, m.Director)
}

// Download возвращает сообщение о старте скачивания фильма.
func (m *Movie) Download() string { return downloadMessage(m.Title) }

// PlayTrailer возвращает сообщение о воспроизведении трейлера фильма.
func (m *Movie) PlayTrailer() string {
	return fmt.Sprintf("Воспроизведение трейлера фильма '%s'", m.Title)
}

// Book — книга. Единственный носитель, который выдаётся читателю на руки.
type Book struct {
	Item
	// ISBN — международный книжный номер
	ISBN string
	// PageCount — число страниц
	PageCount int
	// Borrowed — выдана ли книга читателю
	Borrowed bool
}

// MediaType возвращает тип носителя.
func (b *Book) MediaType() Type { return TypeBook }

// Common возвращает общие поля носителя.
func (b *Book) Common() *Item { return &b.Item }

// Description возвращает описание книги с указанием автора.
func (b *Book) Description() string {
	return fmt.Sprintf("Книга '%s' автора %s", b.Title, b.Creator)
}

// Borrow отмечает книгу выданной.
func (b *Book) Borrow() error {
	if b.Borrowed {
		return ErrAlreadyBorrowed
	}
	b.Borrowed = true
	return nil
}

// Return отмечает книгу возвращённой.
func (b *Book) Return() error {
	if !b.Borrowed {
		return ErrNotBorrowed
	}
	b.Borrowed = false
	return nil
}

// IsBorrowed сообщает, выдана ли книга.
func (b *Book) IsBorrowed() bool { return b.Borrowed }

// AudioBook — аудиокнига. Скачивается, как и фильм, но не выдаётся.
type AudioBook struct {
	Item
	// Narrator — чтец
	Narrator string
	// Duration — длительность в минутах
	Duration int
}

// MediaType возвращает тип носителя.
func (a *AudioBook) MediaType() Type { return TypeAudioBook }

// Common возвращает общие поля носителя.
func (a *AudioBook) Common() *Item { return &a.Item }

// Description возвращает описание аудиокниги с указанием чтеца.
func (a *AudioBook) Description() string {
	return fmt.Sprintf("Аудиокнига '%s' в исполнении %s", a.Title, a.Narrator)
}

// Download возвращает сообщение о старте скачивания аудиокниги.
func (a *AudioBook) Download() string { return downloadMessage(a.Title) }

// Проверки соответствия интерфейсам. Book намеренно не Downloadable,
// а Movie и AudioBook — не Borrowable.
var (
	_ Media        = (*Movie)(nil)
	_ Media        = (*Book)(nil)
	_ Media        = (*AudioBook)(nil)
	_ Downloadable = (*Movie)(nil)
	_ Downloadable = (*AudioBook)(nil)
	_ Borrowable   = (*Book)(nil)
)
