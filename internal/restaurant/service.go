package restaurant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service validates input and applies timestamps before delegating to a
// Store. Authorization happens in the HTTP layer; the service assumes the
// caller is already allowed to perform the operation.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateRestaurantInput carries the caller-supplied fields for a new
// listing. At least one of the bilingual name pair must be present.
type CreateRestaurantInput struct {
	NameEN        string `json:"name_en"`
	NameAR        string `json:"name_ar"`
	DescriptionEN string `json:"description_en"`
	DescriptionAR string `json:"description_ar"`
	Cuisine       string `json:"cuisine"`
	City          string `json:"city"`
	PriceLevel    int    `json:"price_level"`
}

func (in *CreateRestaurantInput) validate() error {
	in.NameEN = strings.TrimSpace(in.NameEN)
	in.NameAR = strings.TrimSpace(in.NameAR)
	in.Cuisine = strings.TrimSpace(in.Cuisine)
	in.City = strings.TrimSpace(in.City)
	if in.NameEN == "" && in.NameAR == "" {
		return fmt.Errorf("%w: name required in at least one language", ErrInvalidArgument)
	}
	if in.City == "" {
		return fmt.Errorf("%w: city is required", ErrInvalidArgument)
	}
	if in.PriceLevel < 0 || in.PriceLevel > 4 {
		return fmt.Errorf("%w: price_level must be between 0 and 4", ErrInvalidArgument)
	}
	return nil
}

func (s *Service) CreateRestaurant(ctx context.Context, ownerID string, in CreateRestaurantInput) (Restaurant, error) {
	if err := in.validate(); err != nil {
		return Restaurant{}, err
	}
	now := s.now().UTC()
	r := Restaurant{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		NameEN:        in.NameEN,
		NameAR:        in.NameAR,
		DescriptionEN: strings.TrimSpace(in.DescriptionEN),
		DescriptionAR: strings.TrimSpace(in.DescriptionAR),
		Cuisine:       in.Cuisine,
		City:          in.City,
		PriceLevel:    in.PriceLevel,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateRestaurant(ctx, r); err != nil {
		return Restaurant{}, fmt.Errorf("create restaurant: %w", err)
	}
	return r, nil
}

func (s *Service) GetRestaurant(ctx context.Context, id string) (Restaurant, error) {
	return s.store.GetRestaurant(ctx, id)
}

func (s *Service) ListRestaurants(ctx context.Context, city, cuisine string, limit int) ([]Restaurant, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListRestaurants(ctx, strings.TrimSpace(city), strings.TrimSpace(cuisine), limit)
}

// UpdateRestaurantInput is a partial update; empty fields keep their
// current value.
type UpdateRestaurantInput struct {
	NameEN        string `json:"name_en"`
	NameAR        string `json:"name_ar"`
	DescriptionEN string `json:"description_en"`
	DescriptionAR string `json:"description_ar"`
	Cuisine       string `json:"cuisine"`
	City          string `json:"city"`
	PriceLevel    *int   `json:"price_level"`
}

func (s *Service) UpdateRestaurant(ctx context.Context, id string, in UpdateRestaurantInput) (Restaurant, error) {
	r, err := s.store.GetRestaurant(ctx, id)
	if err != nil {
		return Restaurant{}, err
	}
	if v := strings.TrimSpace(in.NameEN); v != "" {
		r.NameEN = v
	}
	if v := strings.TrimSpace(in.NameAR); v != "" {
		r.NameAR = v
	}
	if v := strings.TrimSpace(in.DescriptionEN); v != "" {
		r.DescriptionEN = v
	}
	if v := strings.TrimSpace(in.DescriptionAR); v != "" {
		r.DescriptionAR = v
	}
	if v := strings.TrimSpace(in.Cuisine); v != "" {
		r.Cuisine = v
	}
	if v := strings.TrimSpace(in.City); v != "" {
		r.City = v
	}
	if in.PriceLevel != nil {
		if *in.PriceLevel < 0 || *in.PriceLevel > 4 {
			return Restaurant{}, fmt.Errorf("%w: price_level must be between 0 and 4", ErrInvalidArgument)
		}
		r.PriceLevel = *in.PriceLevel
	}
	r.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateRestaurant(ctx, r); err != nil {
		return Restaurant{}, fmt.Errorf("update restaurant: %w", err)
	}
	return r, nil
}

func (s *Service) DeleteRestaurant(ctx context.Context, id string) error {
	return s.store.DeleteRestaurant(ctx, id)
}

// CreateReviewInput carries the caller-supplied fields for a new review.
type CreateReviewInput struct {
	RestaurantID string `json:"restaurant_id"`
	Rating       int    `json:"rating"`
	BodyEN       string `json:"body_en"`
	BodyAR       string `json:"body_ar"`
}

func (in *CreateReviewInput) validate() error {
	in.RestaurantID = strings.TrimSpace(in.RestaurantID)
	if in.RestaurantID == "" {
		return fmt.Errorf("%w: restaurant_id is required", ErrInvalidArgument)
	}
	if in.Rating < 1 || in.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidArgument)
	}
	return nil
}

func (s *Service) CreateReview(ctx context.Context, userID string, in CreateReviewInput) (Review, error) {
	if err := in.validate(); err != nil {
		return Review{}, err
	}
	if _, err := s.store.GetRestaurant(ctx, in.RestaurantID); err != nil {
		return Review{}, err
	}
	now := s.now().UTC()
	rv := Review{
		ID:           uuid.NewString(),
		RestaurantID: in.RestaurantID,
		UserID:       userID,
		Rating:       in.Rating,
		BodyEN:       strings.TrimSpace(in.BodyEN),
		BodyAR:       strings.TrimSpace(in.BodyAR),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateReview(ctx, rv); err != nil {
		return Review{}, fmt.Errorf("create review: %w", err)
	}
	return rv, nil
}

// UpdateReviewInput is a partial update of an existing review.
type UpdateReviewInput struct {
	Rating *int   `json:"rating"`
	BodyEN string `json:"body_en"`
	BodyAR string `json:"body_ar"`
}

func (s *Service) UpdateReview(ctx context.Context, id string, in UpdateReviewInput) (Review, error) {
	rv, err := s.store.GetReview(ctx, id)
	if err != nil {
		return Review{}, err
	}
	if in.Rating != nil {
		if *in.Rating < 1 || *in.Rating > 5 {
			return Review{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidArgument)
		}
		rv.Rating = *in.Rating
	}
	if v := strings.TrimSpace(in.BodyEN); v != "" {
		rv.BodyEN = v
	}
	if v := strings.TrimSpace(in.BodyAR); v != "" {
		rv.BodyAR = v
	}
	rv.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateReview(ctx, rv); err != nil {
		return Review{}, fmt.Errorf("update review: %w", err)
	}
	return rv, nil
}

func (s *Service) DeleteReview(ctx context.Context, id string) error {
	return s.store.DeleteReview(ctx, id)
}

// OwnerOf exposes the store ownership lookup so the security layer can
// consume the service as its OwnerStore.
func (s *Service) OwnerOf(ctx context.Context, resourceType, resourceID string) (string, error) {
	return s.store.OwnerOf(ctx, resourceType, resourceID)
}
