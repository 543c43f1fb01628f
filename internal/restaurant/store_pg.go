package restaurant

import (
	"context"
	"database/sql"
	"errors"

	"shadi-recommendations/pkg/utils"
)

// PGStore implements Store over database/sql (pgx stdlib driver).
//
// Assumed tables: restaurants (owner_id references profiles.id) and
// reviews (user_id references profiles.id).
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) (*PGStore, error) {
	if db == nil {
		return nil, errors.New("restaurant: db is required")
	}
	return &PGStore{db: db}, nil
}

func (s *PGStore) CreateRestaurant(ctx context.Context, r Restaurant) error {
	const q = `
INSERT INTO restaurants (
  id, owner_id, name_en, name_ar, description_en, description_ar,
  cuisine, city, price_level, rating, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`
	_, err := s.db.ExecContext(ctx, q,
		r.ID, r.OwnerID, r.NameEN, r.NameAR, r.DescriptionEN, r.DescriptionAR,
		r.Cuisine, r.City, r.PriceLevel, r.Rating, r.CreatedAt, r.UpdatedAt,
	)
	return err
}

func (s *PGStore) GetRestaurant(ctx context.Context, id string) (Restaurant, error) {
	const q = `
SELECT id, owner_id, name_en, name_ar, description_en, description_ar,
       cuisine, city, price_level, rating, created_at, updated_at
FROM restaurants
WHERE id = $1
`
	var r Restaurant
	if err := s.db.QueryRowContext(ctx, q, id).Scan(
		&r.ID, &r.OwnerID, &r.NameEN, &r.NameAR, &r.DescriptionEN, &r.DescriptionAR,
		&r.Cuisine, &r.City, &r.PriceLevel, &r.Rating, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Restaurant{}, ErrNotFound
		}
		return Restaurant{}, err
	}
	return r, nil
}

func (s *PGStore) ListRestaurants(ctx context.Context, city, cuisine string, limit int) ([]Restaurant, error) {
	const q = `
SELECT id, owner_id, name_en, name_ar, description_en, description_ar,
       cuisine, city, price_level, rating, created_at, updated_at
FROM restaurants
WHERE ($1 = '' OR city = $1)
  AND ($2 = '' OR cuisine = $2)
ORDER BY rating DESC, created_at DESC
LIMIT $3
`
	rows, err := s.db.QueryContext(ctx, q, city, cuisine, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Restaurant
	for rows.Next() {
		var r Restaurant
		if err := rows.Scan(
			&r.ID, &r.OwnerID, &r.NameEN, &r.NameAR, &r.DescriptionEN, &r.DescriptionAR,
			&r.Cuisine, &r.City, &r.PriceLevel, &r.Rating, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdateRestaurant(ctx context.Context, r Restaurant) error {
	const q = `
UPDATE restaurants
SET name_en = $2, name_ar = $3, description_en = $4, description_ar = $5,
    cuisine = $6, city = $7, price_level = $8, updated_at = $9
WHERE id = $1
`
	res, err := s.db.ExecContext(ctx, q,
		r.ID, r.NameEN, r.NameAR, r.DescriptionEN, r.DescriptionAR,
		r.Cuisine, r.City, r.PriceLevel, r.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteRestaurant removes the listing together with its reviews. Both
// deletes commit or neither does; orphaned reviews would break the
// ownership lookup.
func (s *PGStore) DeleteRestaurant(ctx context.Context, id string) error {
	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE restaurant_id = $1`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}

func (s *PGStore) CreateReview(ctx context.Context, rv Review) error {
	const q = `
INSERT INTO reviews (
  id, restaurant_id, user_id, rating, body_en, body_ar, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := s.db.ExecContext(ctx, q,
		rv.ID, rv.RestaurantID, rv.UserID, rv.Rating, rv.BodyEN, rv.BodyAR, rv.CreatedAt, rv.UpdatedAt,
	)
	return err
}

func (s *PGStore) GetReview(ctx context.Context, id string) (Review, error) {
	const q = `
SELECT id, restaurant_id, user_id, rating, body_en, body_ar, created_at, updated_at
FROM reviews
WHERE id = $1
`
	var rv Review
	if err := s.db.QueryRowContext(ctx, q, id).Scan(
		&rv.ID, &rv.RestaurantID, &rv.UserID, &rv.Rating, &rv.BodyEN, &rv.BodyAR, &rv.CreatedAt, &rv.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}
	return rv, nil
}

func (s *PGStore) UpdateReview(ctx context.Context, rv Review) error {
	const q = `
UPDATE reviews
SET rating = $2, body_en = $3, body_ar = $4, updated_at = $5
WHERE id = $1
`
	res, err := s.db.ExecContext(ctx, q, rv.ID, rv.Rating, rv.BodyEN, rv.BodyAR, rv.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) DeleteReview(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// OwnerOf maps resource types onto their owning-identity columns.
// Unknown resource types behave like missing rows: deny, never allow.
func (s *PGStore) OwnerOf(ctx context.Context, resourceType, resourceID string) (string, error) {
	var q string
	switch resourceType {
	case ResourceRestaurants:
		q = `SELECT owner_id FROM restaurants WHERE id = $1`
	case ResourceReviews:
		q = `SELECT user_id FROM reviews WHERE id = $1`
	default:
		return "", ErrNotFound
	}

	var owner string
	if err := s.db.QueryRowContext(ctx, q, resourceID).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return owner, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
