package recordstub

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/leasedesk-backend/pkg/db"
	"github.com/angelmondragon/leasedesk-backend/pkg/db/models"
	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
)

var (
	seedCategories = []string{"id_doc", "deposit_receipt", "income_proof", "bank_statement", "guarantor_id"}

	seedRequestStatuses = []string{
		string(enums.LeaseRequestStatusPending),
		string(enums.LeaseRequestStatusChecking),
		string(enums.LeaseRequestStatusChecking),
		string(enums.LeaseRequestStatusUnderReview),
		string(enums.LeaseRequestStatusIncomplete),
	}

	seedRateStatuses = []string{
		string(enums.AnnualRateStatusDraft),
		string(enums.AnnualRateStatusPending),
		string(enums.AnnualRateStatusActive),
		string(enums.AnnualRateStatusExpired),
	}
)

// SeedResult counts what Seed inserted.
type SeedResult struct {
	Requests int
	Rates    int
}

// Seed inserts count demo tenant requests and a few years of rates per property. The same
// seed value always produces the same data.
func Seed(ctx context.Context, repo *Repository, count int, seed int64) (SeedResult, error) {
	var result SeedResult
	if count <= 0 {
		return result, nil
	}
	faker := gofakeit.New(seed)

	for i := 0; i < count; i++ {
		propertyID := int64(faker.Number(1, 5))
		request := &models.TenantRequest{
			PropertyID: propertyID,
			TenantName: faker.Name(),
			Email:      faker.Email(),
			Phone:      faker.Phone(),
			Status:     faker.RandomString(seedRequestStatuses),
		}
		categories := faker.Number(1, len(seedCategories))
		for _, category := range seedCategories[:categories] {
			for n := faker.Number(1, 2); n > 0; n-- {
				request.Attachments = append(request.Attachments, models.TenantAttachment{
					Category: category,
					URL:      fmt.Sprintf("https://files.leasedesk.local/%s/%s.pdf", category, faker.UUID()),
					Status:   string(enums.AttachmentStatusPending),
				})
			}
		}
		if _, err := repo.CreateRequest(ctx, request); err != nil {
			return result, fmt.Errorf("seed tenant request: %w", err)
		}
		result.Requests++
	}

	for propertyID := int64(1); propertyID <= 5; propertyID++ {
		base := faker.Price(800, 2500)
		for offset, year := range []int64{2024, 2025, 2026} {
			rate := &models.AnnualRate{
				PropertyID: propertyID,
				Year:       year,
				Rate:       decimal.NewFromFloat(base).Mul(decimal.NewFromFloat(1 + 0.03*float64(offset))).Round(2),
				Fee:        decimal.NewFromFloat(faker.Price(25, 150)).Round(2),
				Status:     faker.RandomString(seedRateStatuses),
			}
			if _, err := repo.CreateRate(ctx, rate); err != nil {
				// rerunning the seed against the same database keeps the first rows
				if db.IsUniqueViolation(err, "annual_rates_property_year_key") {
					continue
				}
				return result, fmt.Errorf("seed annual rate: %w", err)
			}
			result.Rates++
		}
	}
	return result, nil
}
