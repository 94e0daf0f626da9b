package repository

import (
	"context"
	"errors"

	"github.com/doctornoo/pdpa-consent/app/models"
	"gorm.io/gorm"
)

// consentRepository implements the ConsentRepository interface
type consentRepository struct {
	db *gorm.DB
}

// NewConsentRepository creates a new consent repository instance
func NewConsentRepository(db *gorm.DB) ConsentRepository {
	return &consentRepository{db: db}
}

// Ping executes SELECT 1 and reports whether the datastore answered with 1
func (r *consentRepository) Ping(ctx context.Context) (bool, error) {
	if r.db == nil {
		return false, &StorageError{Op: "ping", Err: errors.New("database not configured")}
	}
	var ok int
	if err := r.db.WithContext(ctx).Raw("SELECT 1 AS ok").Scan(&ok).Error; err != nil {
		return false, classifyError("ping", err)
	}
	return ok == 1, nil
}

// InsertConsent inserts a single consent row and returns its id
func (r *consentRepository) InsertConsent(ctx context.Context, consent *models.PdpaConsent) (uint64, error) {
	if r.db == nil {
		return 0, &StorageError{Op: "insert consent", Err: errors.New("database not configured")}
	}
	if err := r.db.WithContext(ctx).Create(consent).Error; err != nil {
		return 0, classifyError("insert consent", err)
	}
	return consent.ID, nil
}
