package consent

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"

	"github.com/doctornoo/pdpa-consent/app/models"
	"github.com/doctornoo/pdpa-consent/app/repository"
	"github.com/doctornoo/pdpa-consent/internal/pkg/metrics"
)

// DefaultTimeout bounds every datastore round trip made by the service.
const DefaultTimeout = 5 * time.Second

// Config tunes a Service. Zero values select the defaults.
type Config struct {
	// Location is the civil time zone stored timestamps are rendered in.
	Location *time.Location
	Timeout  time.Duration
	Metrics  *metrics.Metrics
}

// Service records consent claims and probes the datastore. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	repo     repository.ConsentRepository
	validate *validator.Validate
	location *time.Location
	timeout  time.Duration
	metrics  *metrics.Metrics
}

// NewService wires the service to its datastore gateway.
func NewService(repo repository.ConsentRepository, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		repo:     repo,
		validate: validate,
		location: cfg.Location,
		timeout:  cfg.Timeout,
		metrics:  cfg.Metrics,
	}
}

// RecordConsent validates, normalizes and appends one consent record. It
// returns the new record id, or one of *ValidationError,
// ErrDuplicateSubmission and *StorageFailure.
func (s *Service) RecordConsent(ctx context.Context, claim models.ConsentClaim, transport Transport) (uint64, error) {
	channel := NormalizeChannel(string(claim.SourceChannel))

	if err := s.validateClaim(claim); err != nil {
		s.metrics.IncrementConsentSubmission(metrics.OutcomeRejected, channel)
		return 0, err
	}

	audit := DeriveAuditContext(transport)
	record := Normalize(claim, audit, s.location)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.repo.InsertConsent(ctx, record)
	switch {
	case err == nil:
		s.metrics.IncrementConsentSubmission(metrics.OutcomeAccepted, channel)
		return id, nil
	case errors.Is(err, repository.ErrDuplicateKey):
		log.Infof("[Consent] duplicate submission for session %s", claim.ConsentSessionID)
		s.metrics.IncrementConsentSubmission(metrics.OutcomeDuplicate, channel)
		return 0, ErrDuplicateSubmission
	default:
		log.Errorf("[Consent] failed to store session %s: %v", claim.ConsentSessionID, err)
		s.metrics.IncrementConsentSubmission(metrics.OutcomeFailed, channel)
		return 0, &StorageFailure{Err: err}
	}
}

// CheckHealth pings the datastore. An error means the probe itself failed;
// false with a nil error means the store answered with something unexpected.
func (s *Service) CheckHealth(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.repo.Ping(ctx)
	switch {
	case err != nil:
		log.Warnf("[Health] datastore probe failed: %v", err)
		s.metrics.IncrementHealthCheck("error")
		return false, err
	case ok:
		s.metrics.IncrementHealthCheck("up")
	default:
		s.metrics.IncrementHealthCheck("down")
	}
	return ok, nil
}

func (s *Service) validateClaim(claim models.ConsentClaim) error {
	err := s.validate.Struct(claim)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Missing: RequiredFields}
	}
	vErr := &ValidationError{}
	for _, fe := range fieldErrs {
		if fe.Tag() == "max" {
			vErr.TooLong = append(vErr.TooLong, fe.Field())
			continue
		}
		vErr.Missing = append(vErr.Missing, fe.Field())
	}
	return vErr
}
