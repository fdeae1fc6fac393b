package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ghuser/sweetshop/migrations/sweet"
	"github.com/ghuser/sweetshop/pkg/database"
	"github.com/ghuser/sweetshop/pkg/logger"
	"github.com/ghuser/sweetshop/pkg/migrator"
	"github.com/ghuser/sweetshop/services/sweet/domain"
	"github.com/ghuser/sweetshop/services/sweet/domain/models"
	"github.com/ghuser/sweetshop/services/sweet/infrastructure/persistence/postgres/db"
)

func TestMapWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pgconn.PgError{Code: pgUniqueViolation}, domain.ErrSweetAlreadyExists},
		{"quantity check", &pgconn.PgError{Code: pgCheckViolation, ConstraintName: quantityConstraint}, domain.ErrInsufficientStock},
		{"other check", &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "sweets_price_nonnegative"}, domain.ErrInvalidSweet},
		{"wrapped check", fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgCheckViolation, ConstraintName: quantityConstraint}), domain.ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapWriteError("op", tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	plain := errors.New("connection reset")
	if got := mapWriteError("op", plain); !errors.Is(got, plain) {
		t.Fatalf("expected wrapped original error, got %v", got)
	}
}

func TestRowToSweet(t *testing.T) {
	row := db.SweetRow{
		ID:       uuid.New(),
		Name:     "Caramel",
		Category: "Caramel",
		Price:    decimal.RequireFromString("2"),
		Quantity: 60,
		Version:  3,
	}
	s, err := rowToSweet(row)
	if err != nil {
		t.Fatal(err)
	}
	if s.Price.String() != "2.00" || s.Quantity != 60 || s.Version != 3 || s.ID != row.ID {
		t.Fatalf("unexpected mapping: %+v", s)
	}

	row.Price = decimal.NewFromInt(-1)
	if _, err := rowToSweet(row); err == nil {
		t.Fatal("expected error for a negative stored price")
	}
}

func newTestRepo(t *testing.T) *SweetRepository {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	ctx := context.Background()
	if err := migrator.RunMigrations(ctx, dsn, sweet.FS, logger.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := database.NewPool(ctx, dsn, logger.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return NewSweetRepository(pool, nil)
}

func insert(t *testing.T, repo *SweetRepository, qty int64) *models.Sweet {
	t.Helper()
	attrs, err := models.NewAttributes("Toffee "+uuid.NewString()[:8], "Hard Candy", decimal.RequireFromString("1.50"), qty)
	if err != nil {
		t.Fatal(err)
	}
	s := models.NewSweet(attrs)
	if err := repo.Save(context.Background(), s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), s.ID) })
	return s
}

func TestSweetRepository_Integration_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := insert(t, repo, 10)

	got, err := repo.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != s.Name || got.Price.String() != "1.50" || got.Quantity != 10 || got.Version != 1 {
		t.Fatalf("unexpected row: %+v", got)
	}

	if err := repo.Save(ctx, s); !errors.Is(err, domain.ErrSweetAlreadyExists) {
		t.Fatalf("duplicate save: expected ErrSweetAlreadyExists, got %v", err)
	}

	if err := repo.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, s.ID); !errors.Is(err, domain.ErrSweetNotFound) {
		t.Fatalf("second delete: expected ErrSweetNotFound, got %v", err)
	}
}

func TestSweetRepository_Integration_Update(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := insert(t, repo, 3)

	attrs := models.Attributes{Name: "Fudge", Category: "Chocolate", Price: models.MustPrice("4.255"), Quantity: 9}
	got, err := repo.Update(ctx, s.ID, func(sw *models.Sweet) error {
		sw.Replace(attrs)
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Version != 2 || got.Price.String() != "4.26" {
		t.Fatalf("unexpected result: %+v", got)
	}
	stored, _ := repo.GetByID(ctx, s.ID)
	if stored.Name != "Fudge" || stored.Quantity != 9 || stored.Version != 2 {
		t.Fatalf("unexpected stored row: %+v", stored)
	}
}

func TestSweetRepository_Integration_PurchaseBoundary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	s := insert(t, repo, 3)

	if got, err := repo.Purchase(ctx, s.ID, 3); err != nil || got.Quantity != 0 {
		t.Fatalf("Purchase(3): %v, %+v", err, got)
	}
	if _, err := repo.Purchase(ctx, s.ID, 1); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if _, err := repo.Purchase(ctx, uuid.New(), 0); !errors.Is(err, domain.ErrInvalidPurchase) {
		t.Fatalf("unknown id with zero quantity: expected ErrInvalidPurchase, got %v", err)
	}
	if _, err := repo.Purchase(ctx, s.ID, 0); !errors.Is(err, domain.ErrInvalidPurchase) {
		t.Fatalf("expected ErrInvalidPurchase, got %v", err)
	}
	if _, err := repo.Purchase(ctx, uuid.New(), 1); !errors.Is(err, domain.ErrSweetNotFound) {
		t.Fatalf("expected ErrSweetNotFound, got %v", err)
	}
	got, _ := repo.GetByID(ctx, s.ID)
	if got.Quantity != 0 {
		t.Fatalf("failed purchases changed stock: %d", got.Quantity)
	}
}

func TestSweetRepository_Integration_ConcurrentPurchasesNeverOversell(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	const stock = 50
	s := insert(t, repo, stock)

	var (
		wg   sync.WaitGroup
		sold atomic.Int64
	)
	for i := range 40 {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			_, err := repo.Purchase(ctx, s.ID, n)
			switch {
			case err == nil:
				sold.Add(n)
			case errors.Is(err, domain.ErrInsufficientStock):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i%3 + 1))
	}
	wg.Wait()

	final, err := repo.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sold.Load() > stock {
		t.Fatalf("oversold: %d of %d", sold.Load(), stock)
	}
	if int64(final.Quantity) != stock-sold.Load() {
		t.Fatalf("final quantity %d, want %d", final.Quantity, stock-sold.Load())
	}
}
