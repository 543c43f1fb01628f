package restaurant

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu          sync.Mutex
	restaurants map[string]Restaurant
	reviews     map[string]Review
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		restaurants: make(map[string]Restaurant),
		reviews:     make(map[string]Review),
	}
}

func (s *MemoryStore) CreateRestaurant(ctx context.Context, r Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants[r.ID] = r
	return nil
}

func (s *MemoryStore) GetRestaurant(ctx context.Context, id string) (Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.restaurants[id]
	if !ok {
		return Restaurant{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) ListRestaurants(ctx context.Context, city, cuisine string, limit int) ([]Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Restaurant
	for _, r := range s.restaurants {
		if city != "" && r.City != city {
			continue
		}
		if cuisine != "" && r.Cuisine != cuisine {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateRestaurant(ctx context.Context, r Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.restaurants[r.ID]; !ok {
		return ErrNotFound
	}
	s.restaurants[r.ID] = r
	return nil
}

func (s *MemoryStore) DeleteRestaurant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.restaurants[id]; !ok {
		return ErrNotFound
	}
	delete(s.restaurants, id)
	for rvID, rv := range s.reviews {
		if rv.RestaurantID == id {
			delete(s.reviews, rvID)
		}
	}
	return nil
}

func (s *MemoryStore) CreateReview(ctx context.Context, rv Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[rv.ID] = rv
	return nil
}

func (s *MemoryStore) GetReview(ctx context.Context, id string) (Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.reviews[id]
	if !ok {
		return Review{}, ErrNotFound
	}
	return rv, nil
}

func (s *MemoryStore) UpdateReview(ctx context.Context, rv Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[rv.ID]; !ok {
		return ErrNotFound
	}
	s.reviews[rv.ID] = rv
	return nil
}

func (s *MemoryStore) DeleteReview(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *MemoryStore) OwnerOf(ctx context.Context, resourceType, resourceID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch resourceType {
	case ResourceRestaurants:
		if r, ok := s.restaurants[resourceID]; ok {
			return r.OwnerID, nil
		}
	case ResourceReviews:
		if rv, ok := s.reviews[resourceID]; ok {
			return rv.UserID, nil
		}
	}
	return "", ErrNotFound
}
