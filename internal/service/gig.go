package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/gigflow/internal/apperror"
	"github.com/sakif/gigflow/internal/model"
	"github.com/sakif/gigflow/internal/repository"
)

// Gig field constraints. These bounds are part of the external contract:
// violating them yields a ValidationError naming the field, never a silent
// failure or a 500.
const (
	MinTitleLength       = 5
	MaxTitleLength       = 100
	MinDescriptionLength = 20
	MaxDescriptionLength = 1000
	MinBudget            = 1

	DefaultGigPageSize = 10
	MaxGigPageSize     = 100
)

// GigService handles gig creation and the read paths. Gig status is never
// touched here — the only open→assigned transition happens inside the hire
// transaction owned by BidService.
type GigService struct {
	gigs   repository.GigRepository
	logger *slog.Logger
}

func NewGigService(gigs repository.GigRepository, logger *slog.Logger) *GigService {
	return &GigService{
		gigs:   gigs,
		logger: logger,
	}
}

// Create validates the field constraints and persists a new open gig owned
// by ownerID.
func (s *GigService) Create(ctx context.Context, ownerID, title, description string, budget float64) (*model.Gig, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if len(title) < MinTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be at least %d characters", MinTitleLength))
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title cannot exceed %d characters", MaxTitleLength))
	}
	if len(description) < MinDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be at least %d characters", MinDescriptionLength))
	}
	if len(description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description cannot exceed %d characters", MaxDescriptionLength))
	}
	if budget < MinBudget {
		return nil, apperror.ValidationFailed("budget", "budget must be at least $1")
	}

	gig := &model.Gig{
		Title:       title,
		Description: description,
		Budget:      budget,
		OwnerID:     ownerID,
	}

	if err := s.gigs.CreateGig(ctx, gig); err != nil {
		s.logger.Error("failed to create gig",
			slog.String("ownerId", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating gig: %w", err)
	}

	s.logger.Info("gig created",
		slog.String("id", gig.ID),
		slog.String("ownerId", ownerID),
		slog.Float64("budget", gig.Budget),
	)

	return gig, nil
}

// ListOpen returns a page of open gigs plus the total match count.
// page is 1-based; limit is clamped to a sane range.
func (s *GigService) ListOpen(ctx context.Context, search string, page, limit int) ([]model.Gig, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultGigPageSize
	}
	if limit > MaxGigPageSize {
		limit = MaxGigPageSize
	}

	gigs, total, err := s.gigs.ListOpenGigs(ctx, repository.GigListOptions{
		Search: strings.TrimSpace(search),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		s.logger.Error("failed to list gigs", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("listing gigs: %w", err)
	}

	return gigs, total, nil
}

// GetByID returns a single gig or NotFound.
func (s *GigService) GetByID(ctx context.Context, id string) (*model.Gig, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "gig ID is required")
	}
	return s.gigs.GetGigByID(ctx, id)
}

// ListMine returns every gig the actor has posted, any status, newest first.
func (s *GigService) ListMine(ctx context.Context, ownerID string) ([]model.Gig, error) {
	gigs, err := s.gigs.ListGigsByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list own gigs",
			slog.String("ownerId", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing own gigs: %w", err)
	}
	return gigs, nil
}
