package recordstub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/leasedesk-backend/internal/annualrates"
	"github.com/angelmondragon/leasedesk-backend/internal/attachments"
	"github.com/angelmondragon/leasedesk-backend/internal/leaserequests"
	"github.com/angelmondragon/leasedesk-backend/pkg/db"
	"github.com/angelmondragon/leasedesk-backend/pkg/db/models"
	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/leasedesk-backend/pkg/errors"
	"github.com/angelmondragon/leasedesk-backend/pkg/logger"
	"github.com/angelmondragon/leasedesk-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Decision mirrors one entry of the decision request body.
type Decision struct {
	Category string `json:"category" validate:"required"`
	Status   string `json:"status" validate:"required,oneof=approved rejected"`
	Note     string `json:"note"`
}

// RateQuery filters the stub's rate listing.
type RateQuery struct {
	PropertyID int64
	Year       int64
	Page       pagination.Params
}

// Approver is recorded on rates approved through the stub.
type Approver struct {
	ID   int64
	Name string
}

// Service applies the system-of-record rules the admin backend relies on.
type Service interface {
	ReviewRequest(ctx context.Context, id int64) (map[string]any, error)
	ApprovedRequest(ctx context.Context, id int64) (map[string]any, error)
	DecideAttachments(ctx context.Context, id int64, decisions []Decision) error
	SetStatus(ctx context.Context, id int64, next string) error
	ListRates(ctx context.Context, q RateQuery) (map[string]any, error)
	ApproveRate(ctx context.Context, propertyID, rateID int64, approver Approver) error
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg, now: time.Now}, nil
}

func (s *service) ReviewRequest(ctx context.Context, id int64) (map[string]any, error) {
	request, err := s.findRequest(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return reviewPayload(request), nil
}

func (s *service) ApprovedRequest(ctx context.Context, id int64) (map[string]any, error) {
	request, err := s.findRequest(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	switch enums.LeaseRequestStatus(request.Status) {
	case enums.LeaseRequestStatusInContractProcess, enums.LeaseRequestStatusApproved:
		return approvedPayload(request), nil
	}
	return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "tenant request %d has not been approved", id)
}

func (s *service) DecideAttachments(ctx context.Context, id int64, decisions []Decision) error {
	if len(decisions) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "attachments must not be empty")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := s.findRequest(ctx, repo, id)
		if err != nil {
			return err
		}
		if !leaserequests.AllowsAttachmentDecisions(enums.LeaseRequestStatus(request.Status)) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "attachments cannot be reviewed while the request is %s", request.Status)
		}
		for _, d := range decisions {
			status := enums.ParseAttachmentStatus(d.Status)
			if !status.IsDecision() {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "status for %s must be approved or rejected", d.Category)
			}
			affected, err := repo.UpdateCategory(ctx, id, strings.TrimSpace(d.Category), string(status), strings.TrimSpace(d.Note))
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update attachment category")
			}
			if affected == 0 {
				return pkgerrors.Newf(pkgerrors.CodeStateConflict, "no documents were submitted for %s", d.Category)
			}
		}
		s.logg.Info(s.logg.WithField(ctx, "tenant_request_id", id), "recordstub.attachments_decided")
		return nil
	})
}

func (s *service) SetStatus(ctx context.Context, id int64, next string) error {
	target, err := enums.ParseLeaseRequestStatus(next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := s.findRequest(ctx, repo, id)
		if err != nil {
			return err
		}
		current := enums.LeaseRequestStatus(request.Status)
		if err := leaserequests.ValidateTransition(current, target); err != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, err.Error())
		}
		if target == enums.LeaseRequestStatusInContractProcess && !leaserequests.Ready(mappingOf(request)) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "all documents must be approved before the contract process")
		}
		if err := repo.UpdateRequestStatus(ctx, id, string(target)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update tenant request status")
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"tenant_request_id": id, "status": target}), "recordstub.status_changed")
		return nil
	})
}

func (s *service) ListRates(ctx context.Context, q RateQuery) (map[string]any, error) {
	rows, total, err := s.repo.ListRates(ctx, rateFilter{propertyID: q.PropertyID, year: q.Year, page: q.Page})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list annual rates")
	}
	years, err := s.repo.RateYears(ctx, q.PropertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list annual rate years")
	}
	items := make([]map[string]any, 0, len(rows))
	for i := range rows {
		items = append(items, ratePayload(&rows[i]))
	}
	return map[string]any{
		"data":     items,
		"meta":     pagination.NewMeta(q.Page, total),
		"years":    years,
		"statuses": statusCatalog,
	}, nil
}

// ApproveRate approves a draft, pending or unrecognized rate. Approving an approved rate is a
// no-op; active, expired and cancelled rates refuse.
func (s *service) ApproveRate(ctx context.Context, propertyID, rateID int64, approver Approver) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rate, err := repo.FindRate(ctx, propertyID, rateID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "annual rate %d not found for property %d", rateID, propertyID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load annual rate")
		}
		status := enums.AnnualRateStatus(rate.Status).Normalize()
		if status == enums.AnnualRateStatusApproved {
			return nil
		}
		if !annualrates.CanApprove(string(status)) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "annual rate is %s and can no longer be approved", status)
		}
		if err := repo.MarkRateApproved(ctx, rate.ID, approver.ID, approver.Name, s.now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve annual rate")
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"property_id": propertyID, "annual_rate_id": rateID}), "recordstub.rate_approved")
		return nil
	})
}

func (s *service) findRequest(ctx context.Context, repo *Repository, id int64) (*models.TenantRequest, error) {
	request, err := repo.FindRequest(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "tenant request %d not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tenant request")
	}
	return request, nil
}

func mappingOf(request *models.TenantRequest) attachments.Mapping {
	mapping := attachments.Mapping{}
	for _, a := range request.Attachments {
		record := attachments.Record{
			Category: a.Category,
			URLs:     []string{},
			Status:   enums.ParseAttachmentStatus(a.Status),
			Note:     a.Note,
		}
		if a.URL != "" {
			record.URLs = append(record.URLs, a.URL)
		}
		mapping[a.Category] = append(mapping[a.Category], record)
	}
	return mapping
}
