package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ghuser/sweetshop/services/sweet/domain/models"
)

// starterCatalog is the sample stock loaded into an empty shop.
var starterCatalog = []SweetInput{
	{Name: "Chocolate Bar", Category: "Chocolate", Price: decimal.RequireFromString("2.50"), Quantity: 50},
	{Name: "Gummy Bears", Category: "Gummies", Price: decimal.RequireFromString("3.00"), Quantity: 30},
	{Name: "Lollipop", Category: "Hard Candy", Price: decimal.RequireFromString("1.50"), Quantity: 100},
	{Name: "Jelly Beans", Category: "Gummies", Price: decimal.RequireFromString("2.75"), Quantity: 40},
	{Name: "Caramel", Category: "Caramel", Price: decimal.RequireFromString("2.00"), Quantity: 60},
}

// Seed loads the starter catalog when the store is empty and returns how many
// sweets were inserted. It runs as the system, outside the access gate.
func (s *SweetService) Seed(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	for i, in := range starterCatalog {
		attrs, err := models.NewAttributes(in.Name, in.Category, in.Price, in.Quantity)
		if err != nil {
			return i, fmt.Errorf("seed %q: %w", in.Name, err)
		}
		if err := s.repo.Save(ctx, models.NewSweet(attrs)); err != nil {
			return i, fmt.Errorf("seed %q: %w", in.Name, err)
		}
	}
	s.log.InfoContext(ctx, "catalog seeded", "count", len(starterCatalog))
	return len(starterCatalog), nil
}
