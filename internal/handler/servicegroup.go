package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aidar/service-catalog/internal/domain"
	"github.com/aidar/service-catalog/internal/middleware"
	"github.com/aidar/service-catalog/internal/service"
)

// ServiceGroupHandler обрабатывает эндпоинты групп сервисов
type ServiceGroupHandler struct {
	groupService  *service.ServiceGroupService
	accessService *service.AccessService
}

// NewServiceGroupHandler создает новый ServiceGroupHandler
func NewServiceGroupHandler(groupService *service.ServiceGroupService, accessService *service.AccessService) *ServiceGroupHandler {
	return &ServiceGroupHandler{
		groupService:  groupService,
		accessService: accessService,
	}
}

// CreateServiceGroupRequest представляет тело запроса для создания группы
type CreateServiceGroupRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Create обрабатывает POST /service-group
func (h *ServiceGroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, string(domain.CodeUnauthorized), "unauthorized")
		return
	}

	var req CreateServiceGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	group, err := h.groupService.Create(r.Context(), service.CreateServiceGroupInput{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
	}, identity.UserID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, group)
}

// ListResponse представляет страницу групп и общее число совпадений
type ListResponse struct {
	Items []*domain.ServiceGroupSummary `json:"items"`
	Total int                           `json:"total"`
}

// List обрабатывает GET /service-group?search=&sort=&page=&limit=
func (h *ServiceGroupHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, string(domain.CodeUnauthorized), "unauthorized")
		return
	}

	filter := parseListFilter(r)

	items, total, err := h.groupService.FindAll(r.Context(), filter, identity)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, ListResponse{Items: items, Total: total})
}

// Get обрабатывает GET /service-group/{id}
func (h *ServiceGroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}

	RespondWithJSON(w, r, http.StatusOK, group)
}

// UpdateServiceGroupRequest представляет тело частичного обновления.
// Отсутствующие поля не изменяются.
type UpdateServiceGroupRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Update обрабатывает PATCH /service-group/{id}
func (h *ServiceGroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.GetIdentityFromContext(r.Context())

	group, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}

	var req UpdateServiceGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	updated, err := h.groupService.Update(r.Context(), group.ID, service.UpdateServiceGroupPatch{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
	}, identity.UserID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, updated)
}

// Delete обрабатывает DELETE /service-group/{id}
func (h *ServiceGroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	group, ok := h.loadAuthorized(w, r)
	if !ok {
		return
	}

	result, err := h.groupService.Remove(r.Context(), group.ID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

// loadAuthorized загружает группу по id из пути и проверяет право доступа
// вызывающего через AccessService. Отказ отдается как Forbidden, а не как
// пустой результат.
func (h *ServiceGroupHandler) loadAuthorized(w http.ResponseWriter, r *http.Request) (*domain.ServiceGroup, bool) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		RespondWithError(w, r, http.StatusUnauthorized, string(domain.CodeUnauthorized), "unauthorized")
		return nil, false
	}

	id := chi.URLParam(r, "id")
	group, err := h.groupService.FindOne(r.Context(), id)
	if err != nil {
		HandleError(w, r, err)
		return nil, false
	}

	allowed, err := h.accessService.CanAccess(r.Context(), identity, group.OwnerUserID)
	if err != nil {
		HandleError(w, r, err)
		return nil, false
	}
	if !allowed {
		HandleError(w, r, domain.ErrForbidden)
		return nil, false
	}

	return group, true
}

// parseListFilter разбирает параметры выборки из query string.
// Нормализация страницы и лимита происходит на уровне построителя запроса.
func parseListFilter(r *http.Request) domain.ServiceGroupFilter {
	q := r.URL.Query()

	filter := domain.ServiceGroupFilter{
		Search: q.Get("search"),
		Sort:   domain.SortAsc,
	}

	if strings.EqualFold(q.Get("sort"), string(domain.SortDesc)) {
		filter.Sort = domain.SortDesc
	}

	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}

	return filter
}
