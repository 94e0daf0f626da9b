package repository

import (
	"context"
	"sync"
	"time"

	"github.com/doctornoo/pdpa-consent/app/models"
)

// InMemoryConsentRepository keeps consent rows in process memory. It enforces
// the same uniqueness rule as the MySQL index and is used by tests and local
// runs without a database.
type InMemoryConsentRepository struct {
	mu        sync.Mutex
	nextID    uint64
	records   []models.PdpaConsent
	bySession map[string]uint64
}

func NewInMemoryConsentRepository() *InMemoryConsentRepository {
	return &InMemoryConsentRepository{bySession: make(map[string]uint64)}
}

func (r *InMemoryConsentRepository) Ping(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &StorageError{Op: "ping", Err: err}
	}
	return true, nil
}

func (r *InMemoryConsentRepository) InsertConsent(ctx context.Context, consent *models.PdpaConsent) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &StorageError{Op: "insert consent", Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bySession[consent.ConsentSessionID]; exists {
		return 0, ErrDuplicateKey
	}
	r.nextID++
	consent.ID = r.nextID
	if consent.CreatedAt.IsZero() {
		consent.CreatedAt = time.Now()
	}
	r.bySession[consent.ConsentSessionID] = consent.ID
	r.records = append(r.records, *consent)
	return consent.ID, nil
}

// Records returns a copy of everything stored so far, in insertion order.
func (r *InMemoryConsentRepository) Records() []models.PdpaConsent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.PdpaConsent{}, r.records...)
}
