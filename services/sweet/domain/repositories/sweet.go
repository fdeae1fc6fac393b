package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/sweetshop/services/sweet/domain/models"
)

// SweetRepository is the persistence interface for the Sweet aggregate.
// The domain layer owns this interface; infrastructure implements it.
//
// Every mutating method is serialized per sweet: two mutations of the same
// sweet never interleave, while mutations of different sweets run in parallel.
type SweetRepository interface {
	Save(ctx context.Context, sweet *models.Sweet) error

	// GetByID returns domain.ErrSweetNotFound when no sweet has the given ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sweet, error)

	// List returns every sweet ordered by creation time, then ID.
	List(ctx context.Context) ([]*models.Sweet, error)

	// Count returns the number of sweets in the catalog.
	Count(ctx context.Context) (int, error)

	// Update loads the sweet under an exclusive lock, applies fn to it and
	// persists the result. Nothing is written if fn returns an error.
	Update(ctx context.Context, id uuid.UUID, fn func(*models.Sweet) error) (*models.Sweet, error)

	// Purchase atomically checks stock and removes n units. On any error the
	// stored quantity is unchanged.
	Purchase(ctx context.Context, id uuid.UUID, n int64) (*models.Sweet, error)

	// Delete removes the sweet permanently. A second delete of the same ID
	// returns domain.ErrSweetNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
}
