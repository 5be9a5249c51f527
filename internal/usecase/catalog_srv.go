package usecase

import (
	"context"
	"fmt"

	"lesson-booking/internal/clock"
	"lesson-booking/internal/data/entity"
	"lesson-booking/internal/data/repository"
	"lesson-booking/internal/dto/request"
	"lesson-booking/internal/dto/response"
	"lesson-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService covers the read-mostly reference data: sports, locations
// and the sellable lesson products.
type CatalogService interface {
	CreateSport(ctx context.Context, req *request.SportRequest) (*response.SportResponse, error)
	ListSports(ctx context.Context) ([]response.SportResponse, error)

	CreateLocation(ctx context.Context, req *request.LocationRequest) (*response.LocationResponse, error)
	ListLocations(ctx context.Context) ([]response.LocationResponse, error)

	CreateLessonProduct(ctx context.Context, req *request.LessonProductRequest) (*response.LessonProductResponse, error)
	GetLessonProduct(ctx context.Context, id string) (*response.LessonProductResponse, error)
	ListLessonProducts(ctx context.Context, sportID string) ([]response.LessonProductResponse, error)
}

type catalogService struct {
	repo  *repository.Repository
	clock clock.Clock
	log   *zap.Logger
}

func NewCatalogService(repo *repository.Repository, clk clock.Clock, log *zap.Logger) CatalogService {
	return &catalogService{
		repo:  repo,
		clock: clk,
		log:   log.With(zap.String("service", "catalog")),
	}
}

func (s *catalogService) CreateSport(ctx context.Context, req *request.SportRequest) (*response.SportResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	sport := &entity.Sport{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: s.clock.Now(),
		},
		Name: req.Name,
	}

	if err := s.repo.Sport.Create(ctx, sport); err != nil {
		return nil, err
	}

	out := response.NewSportResponse(sport)
	return &out, nil
}

func (s *catalogService) ListSports(ctx context.Context) ([]response.SportResponse, error) {
	sports, err := s.repo.Sport.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]response.SportResponse, 0, len(sports))
	for _, sp := range sports {
		out = append(out, response.NewSportResponse(sp))
	}
	return out, nil
}

func (s *catalogService) CreateLocation(ctx context.Context, req *request.LocationRequest) (*response.LocationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	now := s.clock.Now()
	location := &entity.Location{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:    req.Name,
		Address: req.Address,
	}

	if err := s.repo.Location.Create(ctx, location); err != nil {
		return nil, err
	}

	out := response.NewLocationResponse(location)
	return &out, nil
}

func (s *catalogService) ListLocations(ctx context.Context) ([]response.LocationResponse, error) {
	locations, err := s.repo.Location.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]response.LocationResponse, 0, len(locations))
	for _, l := range locations {
		out = append(out, response.NewLocationResponse(l))
	}
	return out, nil
}

func (s *catalogService) CreateLessonProduct(ctx context.Context, req *request.LessonProductRequest) (*response.LessonProductResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	sportID, err := uuid.Parse(req.SportID)
	if err != nil {
		return nil, fmt.Errorf("invalid sport ID format %s: %w", req.SportID, err)
	}

	sport, err := s.repo.Sport.FindByID(ctx, sportID)
	if err != nil {
		return nil, err
	}
	if sport == nil {
		return nil, fmt.Errorf("sport %s not found", req.SportID)
	}

	now := s.clock.Now()
	product := &entity.LessonProduct{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		SportID:       sportID,
		Title:         req.Title,
		Description:   req.Description,
		SessionsCount: req.SessionsCount,
		Price:         req.Price,
	}

	if err := s.repo.LessonProduct.Create(ctx, product); err != nil {
		return nil, err
	}

	out := response.NewLessonProductResponse(product)
	return &out, nil
}

func (s *catalogService) GetLessonProduct(ctx context.Context, id string) (*response.LessonProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid lesson product ID format %s: %w", id, err)
	}

	product, err := s.repo.LessonProduct.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("lesson product %s not found", id)
	}

	out := response.NewLessonProductResponse(product)
	return &out, nil
}

func (s *catalogService) ListLessonProducts(ctx context.Context, sportID string) ([]response.LessonProductResponse, error) {
	var filter *uuid.UUID
	if sportID != "" {
		id, err := uuid.Parse(sportID)
		if err != nil {
			return nil, fmt.Errorf("invalid sport ID format %s: %w", sportID, err)
		}
		filter = &id
	}

	products, err := s.repo.LessonProduct.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]response.LessonProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, response.NewLessonProductResponse(p))
	}
	return out, nil
}
