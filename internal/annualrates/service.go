package annualrates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/leasedesk-backend/pkg/cache"
	pkgerrors "github.com/angelmondragon/leasedesk-backend/pkg/errors"
	"github.com/angelmondragon/leasedesk-backend/pkg/logger"
	"github.com/angelmondragon/leasedesk-backend/pkg/metrics"
	"github.com/angelmondragon/leasedesk-backend/pkg/upstream"
)

type ratesGateway interface {
	FetchAnnualRates(ctx context.Context, q upstream.AnnualRateQuery) (json.RawMessage, error)
	ApproveAnnualRate(ctx context.Context, propertyID, rateID int64) error
}

// Service exposes annual rate listing and approval to the admin API.
type Service interface {
	List(ctx context.Context, q Query) (*ListView, error)
	Approve(ctx context.Context, propertyID, rateID int64) (*ApprovalView, error)
}

// Query filters the listing. Zero values mean "no filter".
type Query struct {
	PropertyID int64
	Year       int
	Page       int
	PerPage    int
}

type Options struct {
	SnapshotTTL  time.Duration
	MutationWait time.Duration
}

const (
	defaultSnapshotTTL  = 30 * time.Second
	defaultMutationWait = 30 * time.Second
	generationTTL       = 24 * time.Hour

	lookupPageSize = 100
	maxLookupPages = 20

	outcomeApproved = "approved"
	outcomeRefused  = "refused"
	outcomeFailed   = "failed"
)

type service struct {
	gateway   ratesGateway
	snapshots cache.Cache
	metrics   *metrics.WorkflowMetrics
	logg      *logger.Logger
	opts      Options
}

func NewService(gateway ratesGateway, snapshots cache.Cache, workflowMetrics *metrics.WorkflowMetrics, logg *logger.Logger, opts Options) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("records gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = defaultSnapshotTTL
	}
	if opts.MutationWait <= 0 {
		opts.MutationWait = defaultMutationWait
	}
	return &service{
		gateway:   gateway,
		snapshots: snapshots,
		metrics:   workflowMetrics,
		logg:      logg,
		opts:      opts,
	}, nil
}

func (s *service) List(ctx context.Context, q Query) (*ListView, error) {
	if q.PropertyID < 0 || q.Year < 0 || q.Page < 0 || q.PerPage < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "filters must not be negative")
	}
	listing, err := s.fetch(ctx, q.toUpstream(), true)
	if err != nil {
		return nil, err
	}
	return buildListView(listing), nil
}

func (s *service) Approve(ctx context.Context, propertyID, rateID int64) (*ApprovalView, error) {
	if propertyID <= 0 || rateID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property id and rate id must be positive")
	}
	ctx = s.logg.WithAnnualRateID(ctx, fmt.Sprint(propertyID), fmt.Sprint(rateID))

	rate, _, err := s.find(ctx, propertyID, rateID)
	if err != nil {
		return nil, err
	}
	if !CanApprove(rate.Status) {
		s.metrics.IncApproval(outcomeRefused)
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "annual rate in status %q cannot be approved", rate.Status).
			WithDetails(map[string]any{"status": rate.Status})
	}

	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.MutationWait)
	err = s.gateway.ApproveAnnualRate(mctx, propertyID, rateID)
	cancel()
	if err != nil {
		s.metrics.IncApproval(outcomeFailed)
		s.logg.Error(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "annual_rate.approve_failed", err)
		return nil, err
	}
	s.metrics.IncApproval(outcomeApproved)
	s.logg.Info(ctx, "annual_rate.approved")

	s.bumpGeneration(ctx)
	refreshed, catalog, err := s.find(ctx, propertyID, rateID)
	if err != nil {
		return nil, err
	}
	return &ApprovalView{
		Rate:     buildRateView(refreshed, catalog),
		Statuses: catalog.Entries(),
	}, nil
}

// find walks the property's pages until the rate shows up. It always reads upstream so the
// approval gate never runs against a stale snapshot.
func (s *service) find(ctx context.Context, propertyID, rateID int64) (AnnualRate, Catalog, error) {
	for page := 1; page <= maxLookupPages; page++ {
		listing, err := s.fetch(ctx, upstream.AnnualRateQuery{PropertyID: propertyID, Page: page, PerPage: lookupPageSize}, false)
		if err != nil {
			return AnnualRate{}, Catalog{}, err
		}
		if rate, ok := listing.Find(rateID); ok {
			return rate, listing.Catalog, nil
		}
		if len(listing.Items) == 0 || page >= listing.lastPage() {
			break
		}
	}
	return AnnualRate{}, Catalog{}, pkgerrors.Newf(pkgerrors.CodeNotFound, "annual rate %d not found for property %d", rateID, propertyID)
}

func (s *service) fetch(ctx context.Context, q upstream.AnnualRateQuery, useCache bool) (*Listing, error) {
	var key string
	if s.snapshots != nil {
		key = cache.AnnualRatesKey(s.generation(ctx), q.Values().Encode())
	}
	if useCache && key != "" {
		var cached []byte
		hit, err := s.snapshots.Get(ctx, key, &cached)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "annual_rate.cache_read_failed")
		}
		if hit {
			if listing, err := DecodeListing(cached); err == nil {
				return listing, nil
			}
		}
	}

	raw, err := s.gateway.FetchAnnualRates(ctx, q)
	if err != nil {
		return nil, err
	}
	listing, err := DecodeListing(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode annual rate listing")
	}
	if key != "" {
		if err := s.snapshots.Set(ctx, key, []byte(raw), s.opts.SnapshotTTL); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "annual_rate.cache_write_failed")
		}
	}
	return listing, nil
}

func (s *service) generation(ctx context.Context) int64 {
	var gen int64
	if _, err := s.snapshots.Get(ctx, cache.AnnualRatesGenerationKey(), &gen); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "annual_rate.generation_read_failed")
	}
	return gen
}

func (s *service) bumpGeneration(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	next := s.generation(ctx) + 1
	if err := s.snapshots.Set(ctx, cache.AnnualRatesGenerationKey(), next, generationTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "annual_rate.generation_bump_failed")
	}
}

func (q Query) toUpstream() upstream.AnnualRateQuery {
	return upstream.AnnualRateQuery{
		PropertyID: q.PropertyID,
		Year:       q.Year,
		Page:       q.Page,
		PerPage:    q.PerPage,
	}
}
