package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/sweetshop/pkg/auth"
	pkgcache "github.com/ghuser/sweetshop/pkg/cache"
	"github.com/ghuser/sweetshop/pkg/logger"
	"github.com/ghuser/sweetshop/pkg/telemetry"
	sweetdomain "github.com/ghuser/sweetshop/services/sweet/domain"
	"github.com/ghuser/sweetshop/services/sweet/domain/models"
	"github.com/ghuser/sweetshop/services/sweet/domain/repositories"
	domainsvcs "github.com/ghuser/sweetshop/services/sweet/domain/services"
)

const cacheWriteTimeout = 2 * time.Second

// SweetCache is the read model the service consults on Get and refreshes
// after each mutation. *cache.SweetCache satisfies it.
type SweetCache interface {
	Get(ctx context.Context, id uuid.UUID) (*pkgcache.CachedSweet, error)
	Set(ctx context.Context, s *pkgcache.CachedSweet) error
	Delete(ctx context.Context, id uuid.UUID, version int64) error
}

// SweetInput carries the four admin-editable fields of a sweet as received
// from a caller, before validation.
type SweetInput struct {
	Name     string
	Category string
	Price    decimal.Decimal
	Quantity int64
}

// SweetService runs every catalog and purchase operation behind the access
// gate. The repository publishes domain events in the same unit of work as
// the write; the service only keeps the cache warm.
type SweetService struct {
	repo    repositories.SweetRepository
	cache   SweetCache
	gate    domainsvcs.Gate
	log     logger.Logger
	metrics *telemetry.ShopMetrics
	tracer  trace.Tracer
}

// NewSweetService wires a SweetService. sweetCache and metrics may be nil.
func NewSweetService(repo repositories.SweetRepository, sweetCache SweetCache, gate domainsvcs.Gate, log logger.Logger, metrics *telemetry.ShopMetrics) *SweetService {
	return &SweetService{
		repo:    repo,
		cache:   sweetCache,
		gate:    gate,
		log:     log,
		metrics: metrics,
		tracer:  otel.Tracer("github.com/ghuser/sweetshop/services/sweet"),
	}
}

// Authorize reports whether caller may run op. Handlers use it to reject a
// request before decoding its body; every operation checks again itself.
func (s *SweetService) Authorize(caller auth.Identity, op domainsvcs.Operation) error {
	return s.gate.Authorize(caller, op)
}

// List returns the whole catalog ordered by creation time.
func (s *SweetService) List(ctx context.Context, caller auth.Identity) ([]*models.Sweet, error) {
	if err := s.gate.Authorize(caller, domainsvcs.OpList); err != nil {
		return nil, err
	}
	sweets, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sweets: %w", err)
	}
	return sweets, nil
}

// Get returns one sweet, from the cache when it holds a live entry.
func (s *SweetService) Get(ctx context.Context, caller auth.Identity, id uuid.UUID) (*models.Sweet, error) {
	if err := s.gate.Authorize(caller, domainsvcs.OpGet); err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		switch {
		case err == nil:
			if sweet, convErr := fromCache(cached); convErr == nil {
				s.metrics.RecordCacheLookup(ctx, true)
				return sweet, nil
			}
		case !errors.Is(err, redis.Nil):
			s.log.WarnContext(ctx, "sweet cache read failed", "sweet_id", id, "error", err)
		}
		s.metrics.RecordCacheLookup(ctx, false)
	}

	sweet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get sweet: %w", err)
	}

	if s.cache != nil {
		snapshot := ToCacheEntry(sweet)
		go s.writeCache(context.WithoutCancel(ctx), snapshot)
	}
	return sweet, nil
}

// Create validates in and stores a new sweet.
func (s *SweetService) Create(ctx context.Context, caller auth.Identity, in SweetInput) (*models.Sweet, error) {
	if err := s.gate.Authorize(caller, domainsvcs.OpCreate); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "SweetService.Create")
	defer span.End()

	attrs, err := models.NewAttributes(in.Name, in.Category, in.Price, in.Quantity)
	if err != nil {
		return nil, recordErr(span, err)
	}
	sweet := models.NewSweet(attrs)
	if err := domainsvcs.ValidateSweet(sweet); err != nil {
		return nil, recordErr(span, err)
	}
	span.SetAttributes(attribute.String("sweet.id", sweet.ID.String()))

	if err := s.repo.Save(ctx, sweet); err != nil {
		return nil, recordErr(span, fmt.Errorf("save sweet: %w", err))
	}
	s.writeCache(ctx, ToCacheEntry(sweet))
	s.log.InfoContext(ctx, "sweet created", "sweet_id", sweet.ID, "name", sweet.Name.String(), "subject", caller.Subject)
	return sweet, nil
}

// Update replaces all editable fields of the sweet at once.
func (s *SweetService) Update(ctx context.Context, caller auth.Identity, id uuid.UUID, in SweetInput) (*models.Sweet, error) {
	if err := s.gate.Authorize(caller, domainsvcs.OpUpdate); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "SweetService.Update", trace.WithAttributes(attribute.String("sweet.id", id.String())))
	defer span.End()

	attrs, err := models.NewAttributes(in.Name, in.Category, in.Price, in.Quantity)
	if err != nil {
		return nil, recordErr(span, err)
	}

	sweet, err := s.repo.Update(ctx, id, func(current *models.Sweet) error {
		current.Replace(attrs)
		return domainsvcs.ValidateSweet(current)
	})
	if err != nil {
		return nil, recordErr(span, fmt.Errorf("update sweet: %w", err))
	}
	s.writeCache(ctx, ToCacheEntry(sweet))
	s.log.InfoContext(ctx, "sweet updated", "sweet_id", id, "version", sweet.Version, "subject", caller.Subject)
	return sweet, nil
}

// Delete removes the sweet permanently. Deleting an unknown or already
// deleted id returns ErrSweetNotFound.
func (s *SweetService) Delete(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if err := s.gate.Authorize(caller, domainsvcs.OpDelete); err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "SweetService.Delete", trace.WithAttributes(attribute.String("sweet.id", id.String())))
	defer span.End()

	// The version is only needed for the cache tombstone; a concurrent delete
	// between these calls surfaces as NotFound from the repository.
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return recordErr(span, fmt.Errorf("delete sweet: %w", err))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return recordErr(span, fmt.Errorf("delete sweet: %w", err))
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, id, current.Version+1); err != nil && !errors.Is(err, pkgcache.ErrStale) {
			s.log.WarnContext(ctx, "sweet cache tombstone failed", "sweet_id", id, "error", err)
		}
	}
	s.log.InfoContext(ctx, "sweet deleted", "sweet_id", id, "subject", caller.Subject)
	return nil
}

// Purchase removes n units from stock. The stock check and the decrement are
// one atomic step in the repository; a failed purchase changes nothing and is
// never retried with a smaller quantity.
func (s *SweetService) Purchase(ctx context.Context, caller auth.Identity, id uuid.UUID, n int64) (*models.Sweet, error) {
	if err := s.gate.Authorize(caller, domainsvcs.OpPurchase); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "SweetService.Purchase", trace.WithAttributes(
		attribute.String("sweet.id", id.String()),
		attribute.Int64("purchase.quantity", n),
	))
	defer span.End()

	if err := models.CheckPurchaseQuantity(n); err != nil {
		s.metrics.RecordPurchase(ctx, telemetry.OutcomeInvalid, 0)
		return nil, recordErr(span, fmt.Errorf("purchase sweet: %w", err))
	}
	sweet, err := s.repo.Purchase(ctx, id, n)
	if err != nil {
		s.metrics.RecordPurchase(ctx, purchaseOutcome(err), 0)
		return nil, recordErr(span, fmt.Errorf("purchase sweet: %w", err))
	}

	s.metrics.RecordPurchase(ctx, telemetry.OutcomeSuccess, n)
	s.writeCache(ctx, ToCacheEntry(sweet))
	s.log.InfoContext(ctx, "sweet purchased",
		"sweet_id", id,
		"quantity", n,
		"remaining", int64(sweet.Quantity),
		"subject", caller.Subject,
	)
	if !sweet.InStock() {
		s.metrics.RecordSoldOut(ctx)
		s.log.InfoContext(ctx, "sweet sold out", "sweet_id", id)
	}
	return sweet, nil
}

func (s *SweetService) writeCache(ctx context.Context, snapshot *pkgcache.CachedSweet) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cacheWriteTimeout)
	defer cancel()
	if err := s.cache.Set(ctx, snapshot); err != nil && !errors.Is(err, pkgcache.ErrStale) {
		s.log.WarnContext(ctx, "sweet cache write failed", "sweet_id", snapshot.ID, "error", err)
	}
}

func purchaseOutcome(err error) string {
	switch {
	case errors.Is(err, sweetdomain.ErrInsufficientStock):
		return telemetry.OutcomeInsufficient
	case errors.Is(err, sweetdomain.ErrSweetNotFound):
		return telemetry.OutcomeNotFound
	case errors.Is(err, sweetdomain.ErrInvalidPurchase):
		return telemetry.OutcomeInvalid
	default:
		return telemetry.OutcomeError
	}
}

func recordErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// ToCacheEntry maps a sweet to its cache hash.
func ToCacheEntry(s *models.Sweet) *pkgcache.CachedSweet {
	return &pkgcache.CachedSweet{
		ID:        s.ID,
		Name:      s.Name.String(),
		Category:  s.Category.String(),
		Price:     s.Price.String(),
		Quantity:  int64(s.Quantity),
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func fromCache(c *pkgcache.CachedSweet) (*models.Sweet, error) {
	price, err := decimal.NewFromString(c.Price)
	if err != nil {
		return nil, fmt.Errorf("cached price: %w", err)
	}
	p, err := models.NewPrice(price)
	if err != nil {
		return nil, err
	}
	return &models.Sweet{
		ID: c.ID,
		Attributes: models.Attributes{
			Name:     models.SweetName(c.Name),
			Category: models.Category(c.Category),
			Price:    p,
			Quantity: models.Quantity(c.Quantity),
		},
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}
