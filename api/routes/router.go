package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/leasedesk-backend/api/controllers"
	"github.com/angelmondragon/leasedesk-backend/api/middleware"
	"github.com/angelmondragon/leasedesk-backend/internal/annualrates"
	"github.com/angelmondragon/leasedesk-backend/internal/leaserequests"
	"github.com/angelmondragon/leasedesk-backend/pkg/config"
	"github.com/angelmondragon/leasedesk-backend/pkg/enums"
	"github.com/angelmondragon/leasedesk-backend/pkg/logger"
)

// NewRouter wires the console API. limiter and gatherer may be nil; readiness names the
// dependencies probed by /health/ready.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	limiter middleware.WindowLimiter,
	readiness map[string]controllers.Pinger,
	leaseRequestService leaserequests.Service,
	annualRateService annualrates.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	mutations := middleware.NewRateLimitPolicy("admin", cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitMutations)

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.OperatorRoleAdmin, logg))
		r.Use(middleware.RateLimit(mutations, limiter, logg))

		r.Route("/lease-requests/{requestId}", func(r chi.Router) {
			r.Get("/", controllers.LeaseRequestDetail(leaseRequestService, logg))
			r.Post("/attachments/decision", controllers.LeaseRequestAttachmentDecision(leaseRequestService, logg))
			r.Post("/status", controllers.LeaseRequestStatusChange(leaseRequestService, logg))
		})

		r.Get("/annual-rates", controllers.AnnualRatesList(annualRateService, logg))
		r.Post("/properties/{propertyId}/annual-rates/{rateId}/approve", controllers.AnnualRateApprove(annualRateService, logg))
	})

	return r
}
