package annualrates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/leasedesk-backend/pkg/cache"
	"github.com/angelmondragon/leasedesk-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/leasedesk-backend/pkg/errors"
	"github.com/angelmondragon/leasedesk-backend/pkg/logger"
	"github.com/angelmondragon/leasedesk-backend/pkg/metrics"
	"github.com/angelmondragon/leasedesk-backend/pkg/upstream"
)

type stubRate struct {
	ID         int64  `json:"id"`
	PropertyID int64  `json:"property_id"`
	Year       int64  `json:"year"`
	Rate       string `json:"rate"`
	Fee        string `json:"fee"`
	Status     string `json:"status"`
	ApprovedBy any    `json:"approved_by"`
}

type fakeRates struct {
	mu        sync.Mutex
	rates     []stubRate
	perPage   int
	fetches   []upstream.AnnualRateQuery
	approvals [][2]int64
	approveFn func(propertyID, rateID int64) error
}

func (f *fakeRates) FetchAnnualRates(_ context.Context, q upstream.AnnualRateQuery) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, q)

	var matched []stubRate
	for _, r := range f.rates {
		if q.PropertyID > 0 && r.PropertyID != q.PropertyID {
			continue
		}
		matched = append(matched, r)
	}
	perPage := f.perPage
	if perPage <= 0 {
		perPage = 100
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	lastPage := (len(matched) + perPage - 1) / perPage
	start := (page - 1) * perPage
	end := start + perPage
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}
	body := map[string]any{
		"data":     matched[start:end],
		"meta":     map[string]any{"current_page": page, "last_page": lastPage, "total": len(matched)},
		"years":    []int{2026, 2025},
		"statuses": map[string]any{"pending": map[string]any{"label": "Awaiting sign-off"}},
	}
	return json.Marshal(body)
}

func (f *fakeRates) ApproveAnnualRate(_ context.Context, propertyID, rateID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approvals = append(f.approvals, [2]int64{propertyID, rateID})
	if f.approveFn != nil {
		if err := f.approveFn(propertyID, rateID); err != nil {
			return err
		}
	}
	for i := range f.rates {
		if f.rates[i].ID == rateID && f.rates[i].PropertyID == propertyID {
			if f.rates[i].Status != "approved" {
				f.rates[i].Status = "approved"
				f.rates[i].ApprovedBy = map[string]any{"id": 1, "name": "Operator"}
			}
		}
	}
	return nil
}

func newServiceForTests(t *testing.T, gateway ratesGateway, reg *prometheus.Registry) Service {
	t.Helper()
	snapshots := cache.New(nil, config.CacheConfig{LocalSize: 64, LocalTTL: time.Minute})
	logg := logger.New(logger.Options{Output: io.Discard})
	var workflowMetrics *metrics.WorkflowMetrics
	if reg != nil {
		workflowMetrics = metrics.NewWorkflowMetrics(reg)
	}
	svc, err := NewService(gateway, snapshots, workflowMetrics, logg, Options{})
	require.NoError(t, err)
	return svc
}

func approvalCount(t *testing.T, reg *prometheus.Registry, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "annual_rate_approvals_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelValue(metric, "outcome") == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelValue(metric *dto.Metric, name string) string {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil, logger.New(logger.Options{Output: io.Discard}), Options{})
	assert.Error(t, err)
	_, err = NewService(&fakeRates{}, nil, nil, nil, Options{})
	assert.Error(t, err)
}

func TestListResolvesLabelsAndGate(t *testing.T) {
	gateway := &fakeRates{rates: []stubRate{
		{ID: 1, PropertyID: 9, Year: 2026, Rate: "1200", Fee: "50", Status: "pending"},
		{ID: 2, PropertyID: 9, Year: 2025, Rate: "1100", Fee: "50", Status: "active", ApprovedBy: 4},
		{ID: 3, PropertyID: 5, Year: 2026, Rate: "900", Fee: "40", Status: "brand_new"},
	}}
	svc := newServiceForTests(t, gateway, nil)

	view, err := svc.List(context.Background(), Query{PropertyID: 9})
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "Awaiting sign-off", view.Items[0].StatusLabel)
	assert.True(t, view.Items[0].CanApprove)
	assert.Equal(t, "Active", view.Items[1].StatusLabel)
	assert.False(t, view.Items[1].CanApprove)

	all, err := svc.List(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	assert.Equal(t, "brand_new", all.Items[2].StatusLabel)
	assert.True(t, all.Items[2].CanApprove)

	_, err = svc.List(context.Background(), Query{Page: -1})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestListIsCachedPerQuery(t *testing.T) {
	gateway := &fakeRates{rates: []stubRate{{ID: 1, PropertyID: 9, Rate: "1", Fee: "1", Status: "draft"}}}
	svc := newServiceForTests(t, gateway, nil)
	ctx := context.Background()

	_, err := svc.List(ctx, Query{PropertyID: 9})
	require.NoError(t, err)
	_, err = svc.List(ctx, Query{PropertyID: 9})
	require.NoError(t, err)
	assert.Len(t, gateway.fetches, 1)

	_, err = svc.List(ctx, Query{PropertyID: 9, Year: 2026})
	require.NoError(t, err)
	assert.Len(t, gateway.fetches, 2)
}

func TestApproveRefetchesAndInvalidatesListings(t *testing.T) {
	reg := prometheus.NewRegistry()
	gateway := &fakeRates{rates: []stubRate{
		{ID: 11, PropertyID: 9, Year: 2026, Rate: "1200.00", Fee: "50.00", Status: "pending"},
	}}
	svc := newServiceForTests(t, gateway, reg)
	ctx := context.Background()

	before, err := svc.List(ctx, Query{PropertyID: 9})
	require.NoError(t, err)
	require.True(t, before.Items[0].CanApprove)

	result, err := svc.Approve(ctx, 9, 11)
	require.NoError(t, err)
	assert.Equal(t, "approved", result.Rate.Status)
	assert.False(t, result.Rate.CanApprove)
	require.NotNil(t, result.Rate.ApprovedBy)
	assert.Equal(t, "Operator", result.Rate.ApprovedBy.Name)
	assert.Contains(t, result.Statuses, "expired")
	assert.Equal(t, [][2]int64{{9, 11}}, gateway.approvals)
	assert.Equal(t, float64(1), approvalCount(t, reg, "approved"))

	after, err := svc.List(ctx, Query{PropertyID: 9})
	require.NoError(t, err)
	assert.Equal(t, "approved", after.Items[0].Status)
}

func TestApproveRefusedForLockedStatuses(t *testing.T) {
	for _, status := range []string{"approved", "active", "expired", "cancelled"} {
		t.Run(status, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			gateway := &fakeRates{rates: []stubRate{{ID: 3, PropertyID: 2, Rate: "1", Fee: "1", Status: status}}}
			svc := newServiceForTests(t, gateway, reg)

			_, err := svc.Approve(context.Background(), 2, 3)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
			assert.Empty(t, gateway.approvals)
			assert.Equal(t, float64(1), approvalCount(t, reg, "refused"))
		})
	}
}

func TestApproveUnknownStatusIsOffered(t *testing.T) {
	gateway := &fakeRates{rates: []stubRate{{ID: 3, PropertyID: 2, Rate: "1", Fee: "1", Status: "new_unseen_status"}}}
	svc := newServiceForTests(t, gateway, nil)

	result, err := svc.Approve(context.Background(), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, "approved", result.Rate.Status)
}

func TestApproveWalksPages(t *testing.T) {
	rates := make([]stubRate, 0, 5)
	for i := 1; i <= 5; i++ {
		rates = append(rates, stubRate{ID: int64(i), PropertyID: 4, Year: int64(2020 + i), Rate: "1", Fee: "1", Status: "draft"})
	}
	gateway := &fakeRates{rates: rates, perPage: 2}
	svc := newServiceForTests(t, gateway, nil)

	result, err := svc.Approve(context.Background(), 4, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Rate.ID)

	_, err = svc.Approve(context.Background(), 4, 99)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestApproveFailureIsReported(t *testing.T) {
	reg := prometheus.NewRegistry()
	gateway := &fakeRates{
		rates: []stubRate{{ID: 1, PropertyID: 1, Rate: "1", Fee: "1", Status: "pending"}},
		approveFn: func(int64, int64) error {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("connection reset"), "approve annual rate")
		},
	}
	svc := newServiceForTests(t, gateway, reg)

	_, err := svc.Approve(context.Background(), 1, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsRetryable(err))
	assert.Equal(t, float64(1), approvalCount(t, reg, "failed"))

	_, err = svc.Approve(context.Background(), 0, 1)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
