package adaptor

import (
	"encoding/json"
	"net/http"

	"lesson-booking/internal/dto/request"
	"lesson-booking/internal/usecase"
	"lesson-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	service usecase.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(service usecase.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		log:     log.With(zap.String("handler", "catalog")),
	}
}

// ListSports handles GET /api/v1/sports (public)
func (h *CatalogHandler) ListSports(w http.ResponseWriter, r *http.Request) {
	sports, err := h.service.ListSports(r.Context())
	if err != nil {
		handleServiceError(h.log, w, err, "list sports")
		return
	}

	utils.ResponseSuccess(w, "success", sports)
}

// CreateSport handles POST /api/v1/admin/sports (admin)
func (h *CatalogHandler) CreateSport(w http.ResponseWriter, r *http.Request) {
	var req request.SportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	sport, err := h.service.CreateSport(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create sport")
		return
	}

	utils.ResponseCreated(w, "success", sport)
}

// ListLocations handles GET /api/v1/locations (public)
func (h *CatalogHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.ListLocations(r.Context())
	if err != nil {
		handleServiceError(h.log, w, err, "list locations")
		return
	}

	utils.ResponseSuccess(w, "success", locations)
}

// CreateLocation handles POST /api/v1/admin/locations (admin)
func (h *CatalogHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req request.LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	location, err := h.service.CreateLocation(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create location")
		return
	}

	utils.ResponseCreated(w, "success", location)
}

// ListLessonProducts handles GET /api/v1/lesson-products (public)
func (h *CatalogHandler) ListLessonProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListLessonProducts(r.Context(), r.URL.Query().Get("sport_id"))
	if err != nil {
		handleServiceError(h.log, w, err, "list lesson products")
		return
	}

	utils.ResponseSuccess(w, "success", products)
}

// GetLessonProduct handles GET /api/v1/lesson-products/{id} (public)
func (h *CatalogHandler) GetLessonProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.ResponseBadRequest(w, "Lesson product ID is required", nil)
		return
	}

	product, err := h.service.GetLessonProduct(r.Context(), id)
	if err != nil {
		handleServiceError(h.log, w, err, "get lesson product")
		return
	}

	utils.ResponseSuccess(w, "success", product)
}

// CreateLessonProduct handles POST /api/v1/admin/lesson-products (admin)
func (h *CatalogHandler) CreateLessonProduct(w http.ResponseWriter, r *http.Request) {
	var req request.LessonProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	product, err := h.service.CreateLessonProduct(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create lesson product")
		return
	}

	utils.ResponseCreated(w, "success", product)
}
