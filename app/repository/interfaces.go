package repository

import (
	"context"

	"github.com/doctornoo/pdpa-consent/app/models"
	"gorm.io/gorm"
)

// ConsentRepository is the gateway to the consent datastore. Implementations
// classify write failures themselves: a repeated consent_session_id yields
// ErrDuplicateKey, everything else a *StorageError.
type ConsentRepository interface {
	// Ping runs a trivial round trip and reports whether it returned the expected row.
	Ping(ctx context.Context) (bool, error)
	// InsertConsent appends one record and returns its surrogate key.
	InsertConsent(ctx context.Context, consent *models.PdpaConsent) (uint64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Consent ConsentRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Consent: NewConsentRepository(db),
	}
}
