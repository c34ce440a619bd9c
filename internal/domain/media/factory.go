// factory.go — фабрика носителей: создание по строковому тегу типа.
//
// Конструкторы зарегистрированы в статическом реестре. Новый тип носителя
// подключается одной строкой в constructors, остальной код каталога
// работает через интерфейс Media и ничего не знает о конкретных типах.
package media

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrUnknownType — тег типа не зарегистрирован в фабрике.
var ErrUnknownType = errors.New("неизвестный тип носителя")

// Attributes — атрибуты для создания носителя через фабрику.
// Общие поля обязательны для всех типов, остальные — по типу носителя.
type Attributes struct {
	// Title — название (все типы)
	Title string
	// Creator — создатель (все типы)
	Creator string
	// PublicationDate — дата публикации (все типы)
	PublicationDate time.Time
	// Duration — длительность в минутах (movie, audiobook)
	Duration int
	// Format — формат файла (movie)
	Format string
	// Director — режиссер (movie)
	Director string
	// ISBN — международный книжный номер (book)
	ISBN string
	// PageCount — число страниц (book)
	PageCount int
	// Narrator — чтец (audiobook)
	Narrator string
}

// Constructor создаёт носитель конкретного типа из атрибутов.
type Constructor func(Attributes) (Media, error)

// constructors — реестр конструкторов по тегу типа.
var constructors = map[Type]Constructor{
	TypeMovie:     newMovie,
	TypeBook:      newBook,
	TypeAudioBook: newAudioBook,
}

// New создаёт носитель указанного типа с валидацией атрибутов.
// Возвращает ErrUnknownType для незарегистрированного тега.
func New(t Type, attrs Attributes) (Media, error) {
	ctor, err := ConstructorFor(t)
	if err != nil {
		return nil, err
	}
	return ctor(attrs)
}

// ConstructorFor возвращает конструктор для тега типа, не создавая носитель.
// Возвращает ErrUnknownType для незарегистрированного тега.
func ConstructorFor(t Type) (Constructor, error) {
	ctor, ok := constructors[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return ctor, nil
}

// Types возвращает отсортированный список зарегистрированных тегов.
func Types() []Type {
	result := make([]Type, 0, len(constructors))
	for t := range constructors {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// ParseType преобразует строку в Type.
// Возвращает ErrUnknownType для незарегистрированных значений.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if _, ok := constructors[t]; !ok {
		return "", fmt.Errorf("%w: %q, допустимые: %s", ErrUnknownType, s, typesList())
	}
	return t, nil
}

// typesList возвращает зарегистрированные теги одной строкой для ошибок.
func typesList() string {
	types := Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// newItem собирает общие поля носителя из атрибутов.
func newItem(attrs Attributes) Item {
	return Item{
		Title:           attrs.Title,
		Creator:         attrs.Creator,
		PublicationDate: attrs.PublicationDate,
	}
}

// validateCommon проверяет общие поля носителя.
func validateCommon(attrs Attributes) error {
	if strings.TrimSpace(attrs.Title) == "" {
		return fmt.Errorf("%w: пустое название", ErrInvalidAttributes)
	}
	if strings.TrimSpace(attrs.Creator) == "" {
		return fmt.Errorf("%w: пустой создатель", ErrInvalidAttributes)
	}
	if attrs.PublicationDate.IsZero() {
		return fmt.Errorf("%w: не указана дата публикации", ErrInvalidAttributes)
	}
	return nil
}

// newMovie создаёт фильм из атрибутов.
func newMovie(attrs Attributes) (Media, error) {
	if err := validateCommon(attrs); err != nil {
		return nil, err
	}
	if attrs.Duration <= 0 {
		return nil, fmt.Errorf("%w: длительность фильма должна быть положительной", ErrInvalidAttributes)
	}
	if attrs.Format == "" {
		return nil, fmt.Errorf("%w: не указан формат файла", ErrInvalidAttributes)
	}
	if utf8.RuneCountInString(attrs.Format) > MaxFormatLen {
		return nil, fmt.Errorf("%w: формат файла длиннее %d символов", ErrInvalidAttributes, MaxFormatLen)
	}
	if strings.TrimSpace(attrs.Director) == "" {
		return nil, fmt.Errorf("%w: не указан режиссер", ErrInvalidAttributes)
	}

	return &Movie{
		Item:     newItem(attrs),
		Duration: attrs.Duration,
		Format:   attrs.Format,
		Director: attrs.Director,
	}, nil
}

// newBook создаёт книгу из атрибутов. Новая книга не выдана.
func newBook(attrs Attributes) (Media, error) {
	if err := validateCommon(attrs); err != nil {
		return nil, err
	}
	if strings.TrimSpace(attrs.ISBN) == "" {
		return nil, fmt.Errorf("%w: не указан ISBN", ErrInvalidAttributes)
	}
	if attrs.PageCount <= 0 {
		return nil, fmt.Errorf("%w: число страниц должно быть положительным", ErrInvalidAttributes)
	}

	return &Book{
		Item:      newItem(attrs),
		ISBN:      attrs.ISBN,
		PageCount: attrs.PageCount,
	}, nil
}

// newAudioBook создаёт аудиокнигу из атрибутов.
func newAudioBook(attrs Attributes) (Media, error) {
	if err := validateCommon(attrs); err != nil {
		return nil, err
	}
	if strings.TrimSpace(attrs.Narrator) == "" {
		return nil, fmt.Errorf("%w: не указан чтец", ErrInvalidAttributes)
	}
	if attrs.Duration <= 0 {
		return nil, fmt.Errorf("%w: длительность аудиокниги должна быть положительной", ErrInvalidAttributes)
	}

	return &AudioBook{
		Item:     newItem(attrs),
		Narrator: attrs.Narrator,
		Duration: attrs.Duration,
	}, nil
}
