package restaurant

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreOwnerOfRestaurant(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store, err := NewPGStore(db)
	if err != nil {
		t.Fatalf("NewPGStore: %v", err)
	}

	mock.ExpectQuery(`SELECT owner_id FROM restaurants WHERE id = \$1`).
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("owner-1"))

	owner, err := store.OwnerOf(context.Background(), ResourceRestaurants, "r-1")
	if err != nil {
		t.Fatalf("OwnerOf: %v", err)
	}
	if owner != "owner-1" {
		t.Fatalf("owner = %q, want owner-1", owner)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreOwnerOfReview(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store, _ := NewPGStore(db)

	mock.ExpectQuery(`SELECT user_id FROM reviews WHERE id = \$1`).
		WithArgs("rv-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("user-9"))

	owner, err := store.OwnerOf(context.Background(), ResourceReviews, "rv-1")
	if err != nil {
		t.Fatalf("OwnerOf: %v", err)
	}
	if owner != "user-9" {
		t.Fatalf("owner = %q, want user-9", owner)
	}
}

func TestPGStoreOwnerOfUnknownType(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store, _ := NewPGStore(db)

	if _, err := store.OwnerOf(context.Background(), "bookings", "b-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreOwnerOfMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store, _ := NewPGStore(db)

	mock.ExpectQuery(`SELECT owner_id FROM restaurants WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))

	if _, err := store.OwnerOf(context.Background(), ResourceRestaurants, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreDeleteRestaurantCascadesReviews(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store, _ := NewPGStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM reviews WHERE restaurant_id = \$1`).
		WithArgs("r-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM restaurants WHERE id = \$1`).
		WithArgs("r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.DeleteRestaurant(context.Background(), "r-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreDeleteMissingRestaurantRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store, _ := NewPGStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM reviews WHERE restaurant_id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM restaurants WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := store.DeleteRestaurant(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
