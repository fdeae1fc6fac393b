package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/sweetshop/pkg/database"
	"github.com/ghuser/sweetshop/pkg/events"
	"github.com/ghuser/sweetshop/services/sweet/domain"
	domainevents "github.com/ghuser/sweetshop/services/sweet/domain/events"
	"github.com/ghuser/sweetshop/services/sweet/domain/models"
	"github.com/ghuser/sweetshop/services/sweet/infrastructure/persistence"
	"github.com/ghuser/sweetshop/services/sweet/infrastructure/persistence/postgres/db"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"

	quantityConstraint = "sweets_quantity_nonnegative"
)

// SweetRepository implements repositories.SweetRepository against PostgreSQL.
// Each mutation runs in one transaction holding the row lock from
// SELECT ... FOR UPDATE, and its events are written to the outbox in that
// same transaction.
type SweetRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewSweetRepository returns a SweetRepository on the given pool. bus may be
// nil, in which case no events are written.
func NewSweetRepository(database *database.Database, bus *events.EventBus) *SweetRepository {
	return &SweetRepository{db: database, bus: bus}
}

// Save inserts a new sweet and enqueues sweet.created.
func (r *SweetRepository) Save(ctx context.Context, sweet *models.Sweet) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		err := db.New(tx).InsertSweet(ctx, db.InsertSweetParams{
			ID:        sweet.ID,
			Name:      sweet.Name.String(),
			Category:  sweet.Category.String(),
			Price:     sweet.Price.Decimal(),
			Quantity:  int32(sweet.Quantity),
			Version:   sweet.Version,
			CreatedAt: sweet.CreatedAt,
			UpdatedAt: sweet.UpdatedAt,
		})
		if err != nil {
			return mapWriteError("insert sweet", err)
		}
		return r.publish(ctx, tx, domainevents.Outgoing{
			Topic: domainevents.TopicSweetCreated,
			Event: domainevents.NewSweetEvent(sweet),
		})
	})
}

// GetByID returns the committed state of one sweet.
func (r *SweetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Sweet, error) {
	row, err := db.New(r.db.DB()).GetSweet(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("query sweet: %w", err)
	}
	return rowToSweet(row)
}

// List returns every sweet ordered by creation time, then ID.
func (r *SweetRepository) List(ctx context.Context) ([]*models.Sweet, error) {
	rows, err := db.New(r.db.DB()).ListSweets(ctx)
	if err != nil {
		return nil, fmt.Errorf("query sweets: %w", err)
	}
	sweets := make([]*models.Sweet, len(rows))
	for i, row := range rows {
		if sweets[i], err = rowToSweet(row); err != nil {
			return nil, err
		}
	}
	return sweets, nil
}

// Count returns the number of rows in the catalog.
func (r *SweetRepository) Count(ctx context.Context) (int, error) {
	n, err := db.New(r.db.DB()).CountSweets(ctx)
	if err != nil {
		return 0, fmt.Errorf("count sweets: %w", err)
	}
	return int(n), nil
}

// Update locks the row, applies fn and writes the result with sweet.updated.
func (r *SweetRepository) Update(ctx context.Context, id uuid.UUID, fn func(*models.Sweet) error) (*models.Sweet, error) {
	var out *models.Sweet
	err := r.mutate(ctx, id, func(s *models.Sweet) ([]domainevents.Outgoing, error) {
		if err := fn(s); err != nil {
			return nil, err
		}
		out = s
		return []domainevents.Outgoing{{
			Topic: domainevents.TopicSweetUpdated,
			Event: domainevents.NewSweetEvent(s),
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Purchase locks the row, checks stock and decrements it. The CHECK
// constraint on quantity backs the in-transaction check.
func (r *SweetRepository) Purchase(ctx context.Context, id uuid.UUID, n int64) (*models.Sweet, error) {
	if err := models.CheckPurchaseQuantity(n); err != nil {
		return nil, err
	}
	var out *models.Sweet
	err := r.mutate(ctx, id, func(s *models.Sweet) ([]domainevents.Outgoing, error) {
		if err := s.Purchase(n); err != nil {
			return nil, err
		}
		out = s
		return domainevents.ForPurchase(s, n), nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the row and enqueues sweet.deleted.
func (r *SweetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		row, err := q.GetSweetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrSweetNotFound
			}
			return fmt.Errorf("lock sweet: %w", err)
		}
		affected, err := q.DeleteSweet(ctx, id)
		if err != nil {
			return fmt.Errorf("delete sweet: %w", err)
		}
		if affected == 0 {
			return domain.ErrSweetNotFound
		}
		sweet, err := rowToSweet(row)
		if err != nil {
			return err
		}
		return r.publish(ctx, tx, domainevents.ForDelete(sweet))
	})
}

// mutate runs the lock, apply, write, publish sequence shared by Update and
// Purchase. Nothing is written when apply fails.
func (r *SweetRepository) mutate(ctx context.Context, id uuid.UUID, apply func(*models.Sweet) ([]domainevents.Outgoing, error)) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		q := db.New(tx)
		row, err := q.GetSweetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrSweetNotFound
			}
			return fmt.Errorf("lock sweet: %w", err)
		}

		sweet, err := rowToSweet(row)
		if err != nil {
			return err
		}
		out, err := apply(sweet)
		if err != nil {
			return err
		}

		affected, err := q.UpdateSweet(ctx, db.UpdateSweetParams{
			ID:        sweet.ID,
			Name:      sweet.Name.String(),
			Category:  sweet.Category.String(),
			Price:     sweet.Price.Decimal(),
			Quantity:  int32(sweet.Quantity),
			Version:   sweet.Version,
			UpdatedAt: sweet.UpdatedAt,
		})
		if err != nil {
			return mapWriteError("update sweet", err)
		}
		if affected == 0 {
			// The row is locked, so this only happens if apply did not advance the version.
			return fmt.Errorf("update sweet %s: version %d not applied", sweet.ID, sweet.Version)
		}
		return r.publish(ctx, tx, out...)
	})
}

func (r *SweetRepository) publish(ctx context.Context, tx *sql.Tx, out ...domainevents.Outgoing) error {
	if r.bus == nil || len(out) == 0 {
		return nil
	}
	p, err := r.bus.NewTxPublisher(tx)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	return persistence.PublishAll(ctx, func(_ context.Context, topic string, msgs ...*message.Message) error {
		return p.Publish(topic, msgs...)
	}, out...)
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return domain.ErrSweetAlreadyExists
		case pgErr.Code == pgCheckViolation && pgErr.ConstraintName == quantityConstraint:
			return fmt.Errorf("%s: %w", op, domain.ErrInsufficientStock)
		case pgErr.Code == pgCheckViolation:
			return fmt.Errorf("%s: %w: %s", op, domain.ErrInvalidSweet, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// rowToSweet maps a db.SweetRow to a domain models.Sweet. Name and category
// are trusted as stored; the price goes through NewPrice to fix its scale.
func rowToSweet(row db.SweetRow) (*models.Sweet, error) {
	price, err := models.NewPrice(row.Price)
	if err != nil {
		return nil, fmt.Errorf("sweet %s: stored %w", row.ID, err)
	}
	return &models.Sweet{
		ID: row.ID,
		Attributes: models.Attributes{
			Name:     models.SweetName(row.Name),
			Category: models.Category(row.Category),
			Price:    price,
			Quantity: models.Quantity(row.Quantity),
		},
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
