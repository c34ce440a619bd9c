// dto.go — тела запросов и ответов API каталога.
// Формат полей соответствует api/openapi.yaml: snake_case, даты в ISO 8601,
// типоспецифичные атрибуты опциональны и присутствуют только у своего типа.
package handlers

import (
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/bigkaa/mediateka/internal/domain/media"
	"github.com/bigkaa/mediateka/internal/service"
)

// mediaRequest — тело запроса создания и обновления носителя.
// Общие поля обязательны, типоспецифичные валидируются фабрикой домена.
type mediaRequest struct {
	Type            string             `json:"type"`
	Title           string             `json:"title"`
	Creator         string             `json:"creator"`
	PublicationDate openapi_types.Date `json:"publication_date"`
	DurationMinutes *int               `json:"duration_minutes,omitempty"`
	Format          *string            `json:"format,omitempty"`
	Director        *string            `json:"director,omitempty"`
	ISBN            *string            `json:"isbn,omitempty"`
	PageCount       *int               `json:"page_count,omitempty"`
	Narrator        *string            `json:"narrator,omitempty"`
}

// toAttributes конвертирует тело запроса в атрибуты доменной фабрики.
func (req *mediaRequest) toAttributes() media.Attributes {
	attrs := media.Attributes{
		Title:           req.Title,
		Creator:         req.Creator,
		PublicationDate: req.PublicationDate.Time,
	}

	if req.DurationMinutes != nil {
		attrs.Duration = *req.DurationMinutes
	}
	if req.Format != nil {
		attrs.Format = *req.Format
	}
	if req.Director != nil {
		attrs.Director = *req.Director
	}
	if req.ISBN != nil {
		attrs.ISBN = *req.ISBN
	}
	if req.PageCount != nil {
		attrs.PageCount = *req.PageCount
	}
	if req.Narrator != nil {
		attrs.Narrator = *req.Narrator
	}

	return attrs
}

// mediaResponse — карточка носителя в ответах API.
type mediaResponse struct {
	ID              openapi_types.UUID `json:"id"`
	Type            string             `json:"type"`
	Title           string             `json:"title"`
	Creator         string             `json:"creator"`
	PublicationDate openapi_types.Date `json:"publication_date"`
	Description     string             `json:"description"`
	DurationMinutes *int               `json:"duration_minutes,omitempty"`
	Format          *string            `json:"format,omitempty"`
	Director        *string            `json:"director,omitempty"`
	ISBN            *string            `json:"isbn,omitempty"`
	PageCount       *int               `json:"page_count,omitempty"`
	Narrator        *string            `json:"narrator,omitempty"`
	IsBorrowed      *bool              `json:"is_borrowed,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// toMediaResponse конвертирует доменный носитель в DTO ответа.
// Типоспецифичные поля заполняются по конкретному типу носителя.
func toMediaResponse(m media.Media) mediaResponse {
	c := m.Common()
	resp := mediaResponse{
		ID:              uuid.MustParse(c.ID),
		Type:            string(m.MediaType()),
		Title:           c.Title,
		Creator:         c.Creator,
		PublicationDate: openapi_types.Date{Time: c.PublicationDate},
		Description:     m.Description(),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}

	switch v := m.(type) {
	case *media.Movie:
		resp.DurationMinutes = &v.Duration
		resp.Format = &v.Format
		resp.Director = &v.Director
	case *media.Book:
		resp.ISBN = &v.ISBN
		resp.PageCount = &v.PageCount
		resp.IsBorrowed = &v.Borrowed
	case *media.AudioBook:
		resp.DurationMinutes = &v.Duration
		resp.Narrator = &v.Narrator
	}

	return resp
}

// mediaListResponse — страница каталога с пагинацией.
type mediaListResponse struct {
	Items   []mediaResponse `json:"items"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
	HasMore bool            `json:"has_more"`
}

// toMediaListResponse конвертирует результат выборки в DTO.
func toMediaListResponse(result *service.ListResult) mediaListResponse {
	items := make([]mediaResponse, 0, len(result.Items))
	for _, m := range result.Items {
		items = append(items, toMediaResponse(m))
	}

	return mediaListResponse{
		Items:   items,
		Total:   result.Total,
		Limit:   result.Limit,
		Offset:  result.Offset,
		HasMore: result.HasMore,
	}
}

// descriptionResponse — человекочитаемое описание носителя.
type descriptionResponse struct {
	Description string `json:"description"`
}

// downloadResponse — результат запуска скачивания.
type downloadResponse struct {
	Message   string `json:"message"`
	MediaType string `json:"media_type"`
}

// trailerResponse — результат воспроизведения трейлера.
type trailerResponse struct {
	Message string `json:"message"`
}

// mediaTypesResponse — зарегистрированные типы носителей.
type mediaTypesResponse struct {
	Types []string `json:"types"`
}

// statsResponse — агрегированная статистика каталога.
type statsResponse struct {
	Total    int            `json:"total"`
	ByType   map[string]int `json:"by_type"`
	Borrowed int            `json:"borrowed"`
}

// toStatsResponse конвертирует статистику сервиса в DTO.
func toStatsResponse(stats *service.Stats) statsResponse {
	byType := make(map[string]int, len(stats.ByType))
	for t, n := range stats.ByType {
		byType[string(t)] = n
	}

	return statsResponse{
		Total:    stats.Total,
		ByType:   byType,
		Borrowed: stats.Borrowed,
	}
}
