package leaserequests

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/leasedesk-backend/internal/inflight"
	"github.com/angelmondragon/leasedesk-backend/pkg/cache"
	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/leasedesk-backend/pkg/errors"
	"github.com/angelmondragon/leasedesk-backend/pkg/logger"
	"github.com/angelmondragon/leasedesk-backend/pkg/metrics"
	"github.com/angelmondragon/leasedesk-backend/pkg/upstream"
)

type recordsGateway interface {
	FetchLeaseRequest(ctx context.Context, id int64, phase enums.Phase) (json.RawMessage, error)
	SetAttachmentDecision(ctx context.Context, id int64, decisions []upstream.AttachmentDecision) error
	SetLeaseRequestStatus(ctx context.Context, id int64, next string) error
}

// Service exposes the lease request review workflow to the admin API.
type Service interface {
	Get(ctx context.Context, id int64, phase enums.Phase) (*View, error)
	DecideAttachments(ctx context.Context, id int64, decisions []Decision) (*View, error)
	Advance(ctx context.Context, id int64, next string) (*View, error)
}

// Decision is an operator verdict on one attachment category.
type Decision struct {
	Category string
	Status   enums.AttachmentStatus
	Note     string
}

// Options tunes caching and mutation behavior. Zero values fall back to defaults.
type Options struct {
	SnapshotTTL  time.Duration
	MutationWait time.Duration
}

const (
	defaultSnapshotTTL  = 30 * time.Second
	defaultMutationWait = 30 * time.Second
)

type service struct {
	gateway   recordsGateway
	tracker   inflight.Tracker
	snapshots cache.Cache
	metrics   *metrics.WorkflowMetrics
	logg      *logger.Logger
	opts      Options
}

// NewService builds the lease request service. snapshots and workflowMetrics may be nil.
func NewService(gateway recordsGateway, tracker inflight.Tracker, snapshots cache.Cache, workflowMetrics *metrics.WorkflowMetrics, logg *logger.Logger, opts Options) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("records gateway required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("in-flight tracker required")
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
		tracker:   tracker,
		snapshots: snapshots,
		metrics:   workflowMetrics,
		logg:      logg,
		opts:      opts,
	}, nil
}

func (s *service) Get(ctx context.Context, id int64, phase enums.Phase) (*View, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lease request id must be positive")
	}
	if !phase.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown phase %q", phase)
	}
	ctx = s.logg.WithLeaseRequestID(ctx, fmt.Sprint(id))
	req, err := s.load(ctx, id, phase, true)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, req, phase), nil
}

func (s *service) DecideAttachments(ctx context.Context, id int64, decisions []Decision) (*View, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lease request id must be positive")
	}
	if err := validateDecisions(decisions); err != nil {
		return nil, err
	}
	ctx = s.logg.WithLeaseRequestID(ctx, fmt.Sprint(id))

	// gates read the system of record, never the snapshot
	current, err := s.load(ctx, id, enums.PhaseReview, false)
	if err != nil {
		return nil, err
	}
	if !AllowsAttachmentDecisions(current.Status) {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict,
			"attachment decisions are only accepted while the request is checking or incomplete (status %q)", current.Status).
			WithDetails(map[string]any{"status": current.Status})
	}
	for _, d := range decisions {
		records, ok := current.Attachments[d.Category]
		if !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown attachment category %q", d.Category).
				WithDetails(map[string]any{"category": d.Category})
		}
		if len(records) == 0 {
			return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "nothing was submitted for %q", d.Category).
				WithDetails(map[string]any{"category": d.Category})
		}
	}

	release, err := s.begin(ctx, id, decisions)
	if err != nil {
		return nil, err
	}

	payload := make([]upstream.AttachmentDecision, 0, len(decisions))
	for _, d := range decisions {
		payload = append(payload, upstream.AttachmentDecision{Category: d.Category, Status: d.Status, Note: d.Note})
	}
	mutationErr := s.mutate(ctx, func(mctx context.Context) error {
		return s.gateway.SetAttachmentDecision(mctx, id, payload)
	})
	release()
	if mutationErr != nil {
		s.logg.Error(s.logg.WithFields(ctx, pkgerrors.Dump(mutationErr).Fields()), "lease_request.attachment_decision_failed", mutationErr)
		return nil, mutationErr
	}
	for _, d := range decisions {
		s.metrics.IncDecision(string(d.Status))
	}
	s.logg.Info(ctx, "lease_request.attachment_decision_applied")
	return s.refresh(ctx, id)
}

func (s *service) Advance(ctx context.Context, id int64, next string) (*View, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lease request id must be positive")
	}
	target, err := enums.ParseLeaseRequestStatus(next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	ctx = s.logg.WithLeaseRequestID(ctx, fmt.Sprint(id))

	current, err := s.load(ctx, id, enums.PhaseReview, false)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(current.Status, target); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, err.Error()).
			WithDetails(map[string]any{"from": current.Status, "to": target})
	}
	if target == enums.LeaseRequestStatusInContractProcess && !Ready(current.Attachments) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "every attachment category must be approved before moving to contract").
			WithDetails(map[string]any{"blocking_categories": Blocking(current.Attachments)})
	}

	if err := s.mutate(ctx, func(mctx context.Context) error {
		return s.gateway.SetLeaseRequestStatus(mctx, id, string(target))
	}); err != nil {
		s.logg.Error(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "lease_request.transition_failed", err)
		return nil, err
	}
	s.metrics.IncTransition(string(target))
	s.logg.Info(s.logg.WithField(ctx, "to_status", target), "lease_request.transitioned")
	return s.refresh(ctx, id)
}

// begin marks every decided category busy, undoing partial progress if one is already taken.
func (s *service) begin(ctx context.Context, id int64, decisions []Decision) (func(), error) {
	started := make([]string, 0, len(decisions))
	release := func() {
		detached := context.WithoutCancel(ctx)
		for _, category := range started {
			if err := s.tracker.End(detached, id, category); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "category", category), "lease_request.inflight_release_failed")
			}
		}
	}
	for _, d := range decisions {
		if err := s.tracker.Begin(ctx, id, d.Category); err != nil {
			release()
			return nil, err
		}
		started = append(started, d.Category)
	}
	return release, nil
}

// mutate runs an upstream write that outlives the caller's cancellation.
func (s *service) mutate(ctx context.Context, call func(context.Context) error) error {
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.MutationWait)
	defer cancel()
	return call(mctx)
}

// refresh drops cached copies after a mutation and returns the authoritative state.
func (s *service) refresh(ctx context.Context, id int64) (*View, error) {
	if s.snapshots != nil {
		keys := []string{
			cache.LeaseRequestKey(string(enums.PhaseReview), id),
			cache.LeaseRequestKey(string(enums.PhaseApproved), id),
		}
		if err := s.snapshots.Delete(ctx, keys...); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "lease_request.cache_invalidate_failed")
		}
	}
	req, err := s.load(ctx, id, enums.PhaseReview, false)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, req, enums.PhaseReview), nil
}

func (s *service) load(ctx context.Context, id int64, phase enums.Phase, useCache bool) (*LeaseRequest, error) {
	key := cache.LeaseRequestKey(string(phase), id)
	if useCache && s.snapshots != nil {
		var cached []byte
		hit, err := s.snapshots.Get(ctx, key, &cached)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "lease_request.cache_read_failed")
		}
		if hit {
			if req, err := FromPayload(cached, id); err == nil {
				return req, nil
			}
		}
	}

	raw, err := s.gateway.FetchLeaseRequest(ctx, id, phase)
	if err != nil {
		return nil, err
	}
	req, err := FromPayload(raw, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode lease request payload")
	}
	if s.snapshots != nil {
		if err := s.snapshots.Set(ctx, key, []byte(raw), s.opts.SnapshotTTL); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "lease_request.cache_write_failed")
		}
	}
	return req, nil
}

func (s *service) view(ctx context.Context, req *LeaseRequest, phase enums.Phase) *View {
	busy, err := s.tracker.BusyCategories(ctx, req.ID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "lease_request.inflight_read_failed")
		busy = nil
	}
	return BuildView(req, phase, busy)
}

func validateDecisions(decisions []Decision) error {
	if len(decisions) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one attachment decision is required")
	}
	seen := make(map[string]struct{}, len(decisions))
	for i := range decisions {
		d := &decisions[i]
		d.Category = strings.TrimSpace(d.Category)
		d.Note = strings.TrimSpace(d.Note)
		if d.Category == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "attachment category is required")
		}
		if !d.Status.IsDecision() {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "decision for %q must be approved or rejected", d.Category)
		}
		if _, dup := seen[d.Category]; dup {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "category %q appears more than once", d.Category)
		}
		seen[d.Category] = struct{}{}
	}
	return nil
}
