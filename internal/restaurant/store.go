package restaurant

import "context"

// Store is the persistence contract for restaurants and reviews.
//
// OwnerOf implements the ownership lookup required by the authorization
// layer: it returns the owning user id for a resource row, or ErrNotFound.
type Store interface {
	CreateRestaurant(ctx context.Context, r Restaurant) error
	GetRestaurant(ctx context.Context, id string) (Restaurant, error)
	ListRestaurants(ctx context.Context, city, cuisine string, limit int) ([]Restaurant, error)
	UpdateRestaurant(ctx context.Context, r Restaurant) error
	DeleteRestaurant(ctx context.Context, id string) error

	CreateReview(ctx context.Context, rv Review) error
	GetReview(ctx context.Context, id string) (Review, error)
	UpdateReview(ctx context.Context, rv Review) error
	DeleteReview(ctx context.Context, id string) error

	OwnerOf(ctx context.Context, resourceType, resourceID string) (string, error)
}
