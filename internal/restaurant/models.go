package restaurant

import (
	"errors"
	"time"
)

// Restaurant is a bilingual listing. Name/description pairs carry the
// English and Arabic renderings; the API returns both and clients pick.
type Restaurant struct {
	ID      string `json:"id" db:"id"`
	OwnerID string `json:"owner_id" db:"owner_id"`

	NameEN        string `json:"name_en" db:"name_en"`
	NameAR        string `json:"name_ar" db:"name_ar"`
	DescriptionEN string `json:"description_en,omitempty" db:"description_en"`
	DescriptionAR string `json:"description_ar,omitempty" db:"description_ar"`

	Cuisine    string  `json:"cuisine" db:"cuisine"`
	City       string  `json:"city" db:"city"`
	PriceLevel int     `json:"price_level" db:"price_level"`
	Rating     float64 `json:"rating" db:"rating"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Review is a user-authored rating of a restaurant.
type Review struct {
	ID           string `json:"id" db:"id"`
	RestaurantID string `json:"restaurant_id" db:"restaurant_id"`
	UserID       string `json:"user_id" db:"user_id"`

	Rating int    `json:"rating" db:"rating"`
	BodyEN string `json:"body_en,omitempty" db:"body_en"`
	BodyAR string `json:"body_ar,omitempty" db:"body_ar"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Resource type names used in ownership checks and audit targets.
const (
	ResourceRestaurants = "restaurants"
	ResourceReviews     = "reviews"
)

var (
	ErrNotFound        = errors.New("restaurant: not found")
	ErrInvalidArgument = errors.New("restaurant: invalid argument")
)
