package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/google/uuid"

	"github.com/bigkaa/mediateka/internal/api/middleware"
)

// Контрактные тесты: каждый ответ API проверяется на соответствие
// api/openapi.yaml через openapi3filter.ValidateResponse.

var (
	specOnce   sync.Once
	specRouter routers.Router
	specErr    error
)

// loadSpec загружает и валидирует OpenAPI-контракт (один раз на пакет).
func loadSpec(t *testing.T) routers.Router {
	t.Helper()

	specOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromFile("../../api/openapi.yaml")
		if err != nil {
			specErr = err
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			specErr = err
			return
		}
		specRouter, specErr = legacy.NewRouter(doc)
	})
	if specErr != nil {
		t.Fatalf("загрузка OpenAPI контракта: %v", specErr)
	}
	return specRouter
}

// validateAgainstSpec проверяет ответ на соответствие схеме контракта.
// Маршрут ищется по методу и пути, тело ответа валидируется по схеме
// для полученного статус-кода.
func validateAgainstSpec(t *testing.T, method, path string, rec *httptest.ResponseRecorder) {
	t.Helper()

	oapiRouter := loadSpec(t)

	req := httptest.NewRequest(method, path, nil)
	route, pathParams, err := oapiRouter.FindRoute(req)
	if err != nil {
		t.Fatalf("маршрут %s %s не найден в контракте: %v", method, path, err)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: rec.Code,
		Header: rec.Header(),
	}
	input.SetBodyBytes(rec.Body.Bytes())

	if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
		t.Errorf("ответ %s %s (статус %d) не соответствует контракту: %v\nтело: %s",
			method, path, rec.Code, err, rec.Body.String())
	}
}

// checkContract выполняет запрос, сверяет статус и валидирует ответ по контракту.
func checkContract(t *testing.T, router http.Handler, method, path string, body any, claims *middleware.AuthClaims, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()

	rec := doRequest(t, router, method, path, body, claims)
	if rec.Code != wantStatus {
		t.Fatalf("%s %s: ожидался статус %d, получен %d, тело: %s",
			method, path, wantStatus, rec.Code, rec.Body.String())
	}
	validateAgainstSpec(t, method, path, rec)
	return rec
}

func TestContract_Media(t *testing.T) {
	router := newTestRouter(t)

	// Создание всех трёх типов — 201
	rec := checkContract(t, router, http.MethodPost, "/api/v1/media", movieBody("Солярис"), adminClaims(), http.StatusCreated)
	movie := decodeJSON[mediaJSON](t, rec)
	rec = checkContract(t, router, http.MethodPost, "/api/v1/media", bookBody("Идиот", "978-5-389-04958-8"), adminClaims(), http.StatusCreated)
	book := decodeJSON[mediaJSON](t, rec)
	rec = checkContract(t, router, http.MethodPost, "/api/v1/media", audioBookBody("Евгений Онегин"), adminClaims(), http.StatusCreated)
	audio := decodeJSON[mediaJSON](t, rec)

	// Ошибки создания
	checkContract(t, router, http.MethodPost, "/api/v1/media",
		map[string]any{"type": "vinyl", "title": "X", "creator": "Y", "publication_date": "2020-01-01"},
		adminClaims(), http.StatusBadRequest)
	checkContract(t, router, http.MethodPost, "/api/v1/media",
		bookBody("Дубль", "978-5-389-04958-8"), adminClaims(), http.StatusConflict)

	// Список: с данными и с фильтрами
	checkContract(t, router, http.MethodGet, "/api/v1/media", nil, readonlyClaims(), http.StatusOK)
	checkContract(t, router, http.MethodGet, "/api/v1/media?type=book&limit=1", nil, readonlyClaims(), http.StatusOK)
	checkContract(t, router, http.MethodGet, "/api/v1/media?type=vinyl", nil, readonlyClaims(), http.StatusBadRequest)

	// Карточка
	checkContract(t, router, http.MethodGet, "/api/v1/media/"+movie.ID, nil, readonlyClaims(), http.StatusOK)
	checkContract(t, router, http.MethodGet, "/api/v1/media/"+book.ID, nil, readonlyClaims(), http.StatusOK)
	checkContract(t, router, http.MethodGet, "/api/v1/media/"+uuid.NewString(), nil, readonlyClaims(), http.StatusNotFound)
	checkContract(t, router, http.MethodGet, "/api/v1/media/not-a-uuid", nil, readonlyClaims(), http.StatusBadRequest)

	// Обновление
	checkContract(t, router, http.MethodPut, "/api/v1/media/"+movie.ID,
		movieBody("Солярис (реставрация)"), adminClaims(), http.StatusOK)
	checkContract(t, router, http.MethodPut, "/api/v1/media/"+movie.ID,
		bookBody("Солярис", "978-5-17-112063-4"), adminClaims(), http.StatusBadRequest)
	checkContract(t, router, http.MethodPut, "/api/v1/media/"+uuid.NewString(),
		movieBody("Нет такого"), adminClaims(), http.StatusNotFound)

	// Удаление
	checkContract(t, router, http.MethodDelete, "/api/v1/media/"+audio.ID, nil, adminClaims(), http.StatusNoContent)
	checkContract(t, router, http.MethodDelete, "/api/v1/media/"+audio.ID, nil, adminClaims(), http.StatusNotFound)
}

func TestContract_Capabilities(t *testing.T) {
	router := newTestRouter(t)

	rec := checkContract(t, router, http.MethodPost, "/api/v1/media", movieBody("Солярис"), adminClaims(), http.StatusCreated)
	movie := decodeJSON[mediaJSON](t, rec)
	rec = checkContract(t, router, http.MethodPost, "/api/v1/media", bookBody("Идиот", "978-5-389-04958-8"), adminClaims(), http.StatusCreated)
	book := decodeJSON[mediaJSON](t, rec)
	rec = checkContract(t, router, http.MethodPost, "/api/v1/media", audioBookBody("Евгений Онегин"), adminClaims(), http.StatusCreated)
	audio := decodeJSON[mediaJSON](t, rec)

	// Описание
	checkContract(t, router, http.MethodGet, "/api/v1/media/"+audio.ID+"/description", nil, readonlyClaims(), http.StatusOK)
	checkContract(t, router, http.MethodGet, "/api/v1/media/"+uuid.NewString()+"/description", nil, readonlyClaims(), http.StatusNotFound)

	// Скачивание
	checkContract(t, router, http.MethodPost, "/api/v1/media/"+movie.ID+"/download", nil, readonlyClaims(), http.StatusOK)
	checkContract(t, router, http.MethodPost, "/api/v1/media/"+book.ID+"/download", nil, readonlyClaims(), http.StatusConflict)
	checkContract(t, router, http.MethodPost, "/api/v1/media/"+uuid.NewString()+"/download", nil, readonlyClaims(), http.StatusNotFound)

	// Трейлер
	checkContract(t, router, http.MethodGet, "/api/v1/media/"+movie.ID+"/trailer", nil, readonlyClaims(), http.StatusOK)
	checkContract(t, router, http.MethodGet, "/api/v1/media/"+audio.ID+"/trailer", nil, readonlyClaims(), http.StatusConflict)

	// Выдача и возврат
	checkContract(t, router, http.MethodPost, "/api/v1/media/"+book.ID+"/borrow", nil, adminClaims(), http.StatusOK)
	checkContract(t, router, http.MethodPost, "/api/v1/media/"+book.ID+"/borrow", nil, adminClaims(), http.StatusConflict)
	checkContract(t, router, http.MethodPost, "/api/v1/media/"+book.ID+"/return", nil, adminClaims(), http.StatusOK)
	checkContract(t, router, http.MethodPost, "/api/v1/media/"+book.ID+"/return", nil, adminClaims(), http.StatusConflict)
	checkContract(t, router, http.MethodPost, "/api/v1/media/"+movie.ID+"/borrow", nil, adminClaims(), http.StatusConflict)
}

func TestContract_CatalogInfo(t *testing.T) {
	router := newTestRouter(t)

	checkContract(t, router, http.MethodGet, "/api/v1/media-types", nil, readonlyClaims(), http.StatusOK)
	checkContract(t, router, http.MethodGet, "/api/v1/stats", nil, readonlyClaims(), http.StatusOK)

	rec := checkContract(t, router, http.MethodPost, "/api/v1/media", bookBody("Идиот", "978-5-389-04958-8"), adminClaims(), http.StatusCreated)
	book := decodeJSON[mediaJSON](t, rec)
	checkContract(t, router, http.MethodPost, "/api/v1/media/"+book.ID+"/borrow", nil, adminClaims(), http.StatusOK)
	checkContract(t, router, http.MethodGet, "/api/v1/stats", nil, readonlyClaims(), http.StatusOK)
}

func TestContract_Auth(t *testing.T) {
	router := newTestRouter(t)

	checkContract(t, router, http.MethodGet, "/api/v1/media", nil, nil, http.StatusUnauthorized)
	checkContract(t, router, http.MethodPost, "/api/v1/media", movieBody("X"), readonlyClaims(), http.StatusForbidden)
	checkContract(t, router, http.MethodGet, "/api/v1/media", nil, saClaims("other:scope"), http.StatusForbidden)
	checkContract(t, router, http.MethodGet, "/api/v1/media", nil, saClaims(middleware.ScopeMediaRead), http.StatusOK)
}

func TestContract_Health(t *testing.T) {
	router := newTestRouter(t)

	checkContract(t, router, http.MethodGet, "/health/live", nil, nil, http.StatusOK)
	checkContract(t, router, http.MethodGet, "/health/ready", nil, nil, http.StatusOK)
	checkContract(t, router, http.MethodGet, "/metrics", nil, nil, http.StatusOK)

	// Недоступные зависимости — 503 с тем же телом readiness
	degraded := newTestRouterWithHealth(t, nil, nil)
	checkContract(t, degraded, http.MethodGet, "/health/ready", nil, nil, http.StatusServiceUnavailable)
}
