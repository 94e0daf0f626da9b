package consent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doctornoo/pdpa-consent/app/models"
	"github.com/doctornoo/pdpa-consent/app/repository"
	"github.com/doctornoo/pdpa-consent/internal/pkg/metrics"
)

// countingRepository wraps the in-memory gateway and counts write attempts.
type countingRepository struct {
	*repository.InMemoryConsentRepository
	inserts atomic.Int32
}

func (r *countingRepository) InsertConsent(ctx context.Context, c *models.PdpaConsent) (uint64, error) {
	r.inserts.Add(1)
	return r.InMemoryConsentRepository.InsertConsent(ctx, c)
}

// stubRepository returns fixed results.
type stubRepository struct {
	pingOK    bool
	pingErr   error
	insertErr error
	block     bool
}

func (s *stubRepository) Ping(ctx context.Context) (bool, error) {
	return s.pingOK, s.pingErr
}

func (s *stubRepository) InsertConsent(ctx context.Context, c *models.PdpaConsent) (uint64, error) {
	if s.block {
		<-ctx.Done()
		return 0, &repository.StorageError{Op: "insert consent", Err: ctx.Err()}
	}
	return 0, s.insertErr
}

func newCountingService() (*Service, *countingRepository) {
	repo := &countingRepository{InMemoryConsentRepository: repository.NewInMemoryConsentRepository()}
	return NewService(repo, Config{Location: time.UTC}), repo
}

func validClaim(sessionID string) models.ConsentClaim {
	return models.ConsentClaim{
		ConsentSessionID: sessionID,
		ConsentVersion:   "v1",
		AcceptedAt:       "2024-01-15T10:30:00Z",
	}
}

func TestRecordConsentValidation(t *testing.T) {
	tests := []struct {
		name        string
		claim       models.ConsentClaim
		wantMissing []string
	}{
		{
			name:        "empty claim",
			claim:       models.ConsentClaim{},
			wantMissing: []string{"consent_session_id", "consent_version", "accepted_at"},
		},
		{
			name:        "missing session id",
			claim:       models.ConsentClaim{ConsentVersion: "v1", AcceptedAt: "2024-01-15T10:30:00Z"},
			wantMissing: []string{"consent_session_id"},
		},
		{
			name:        "missing version",
			claim:       models.ConsentClaim{ConsentSessionID: "s1", AcceptedAt: "2024-01-15T10:30:00Z"},
			wantMissing: []string{"consent_version"},
		},
		{
			name:        "missing accepted_at",
			claim:       models.ConsentClaim{ConsentSessionID: "s1", ConsentVersion: "v1", SourceChannel: "LIFF"},
			wantMissing: []string{"accepted_at"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newCountingService()

			id, err := svc.RecordConsent(context.Background(), tt.claim, Transport{ForwardedFor: "203.0.113.7"})

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantMissing, vErr.Missing)
			assert.Equal(t, "missing required fields: consent_session_id, consent_version, accepted_at", vErr.Error())
			assert.Zero(t, id)
			assert.Equal(t, int32(0), repo.inserts.Load())
			assert.Empty(t, repo.Records())
		})
	}
}

func TestRecordConsentRejectsOversizedKeys(t *testing.T) {
	tests := []struct {
		name        string
		claim       models.ConsentClaim
		wantTooLong []string
		wantMessage string
	}{
		{
			name:        "session id over 128 characters",
			claim:       validClaim(strings.Repeat("s", 129)),
			wantTooLong: []string{"consent_session_id"},
			wantMessage: "fields too long: consent_session_id",
		},
		{
			name: "version over 64 characters",
			claim: models.ConsentClaim{
				ConsentSessionID: "s1",
				ConsentVersion:   strings.Repeat("v", 65),
				AcceptedAt:       "2024-01-15T10:30:00Z",
			},
			wantTooLong: []string{"consent_version"},
			wantMessage: "fields too long: consent_version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newCountingService()

			_, err := svc.RecordConsent(context.Background(), tt.claim, Transport{})

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Empty(t, vErr.Missing)
			assert.Equal(t, tt.wantTooLong, vErr.TooLong)
			assert.Equal(t, tt.wantMessage, vErr.Error())
			assert.Equal(t, int32(0), repo.inserts.Load())
		})
	}
}

func TestRecordConsentAcceptsKeysAtColumnLimit(t *testing.T) {
	svc, repo := newCountingService()
	claim := validClaim(strings.Repeat("ส", 128))
	claim.ConsentVersion = strings.Repeat("v", 64)

	_, err := svc.RecordConsent(context.Background(), claim, Transport{})

	require.NoError(t, err)
	assert.Len(t, repo.Records(), 1)
}

func TestRecordConsentAcceptsAndNormalizes(t *testing.T) {
	svc, repo := newCountingService()

	id, err := svc.RecordConsent(context.Background(), validClaim("s1"), Transport{
		ForwardedFor: "203.0.113.7, 10.0.0.1",
		PeerAddr:     "10.0.0.1",
		UserAgent:    "Mozilla/5.0",
	})

	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	records := repo.Records()
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "s1", r.ConsentSessionID)
	assert.Equal(t, "v1", r.ConsentVersion)
	assert.Equal(t, "2024-01-15 10:30:00", *r.AcceptedAt)
	assert.Equal(t, "WEB", r.SourceChannel)
	assert.Equal(t, "/condition.html", r.PagePath)
	assert.Equal(t, uint8(1), r.RequiredConsent)
	assert.Equal(t, uint8(0), r.MarketingConsent)
	assert.Equal(t, "203.0.113.7", *r.IPAddress)
	assert.Equal(t, "Mozilla/5.0", r.UserAgent)
}

func TestRecordConsentKeepsUnparseableAcceptedAt(t *testing.T) {
	svc, repo := newCountingService()
	claim := validClaim("s-bad-time")
	claim.AcceptedAt = "last tuesday"

	_, err := svc.RecordConsent(context.Background(), claim, Transport{})

	require.NoError(t, err)
	require.Len(t, repo.Records(), 1)
	assert.Nil(t, repo.Records()[0].AcceptedAt)
}

func TestRecordConsentDuplicate(t *testing.T) {
	svc, repo := newCountingService()
	ctx := context.Background()

	id, err := svc.RecordConsent(ctx, validClaim("s1"), Transport{})
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = svc.RecordConsent(ctx, validClaim("s1"), Transport{})
	assert.ErrorIs(t, err, ErrDuplicateSubmission)
	assert.Len(t, repo.Records(), 1)
}

func TestRecordConsentConcurrentDuplicates(t *testing.T) {
	for _, n := range []int{2, 8, 64} {
		svc, repo := newCountingService()

		var (
			wg         sync.WaitGroup
			accepted   atomic.Int32
			duplicates atomic.Int32
			start      = make(chan struct{})
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := svc.RecordConsent(context.Background(), validClaim("race"), Transport{})
				switch {
				case err == nil:
					accepted.Add(1)
				case errors.Is(err, ErrDuplicateSubmission):
					duplicates.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), accepted.Load(), "n=%d", n)
		assert.Equal(t, int32(n-1), duplicates.Load(), "n=%d", n)
		assert.Len(t, repo.Records(), 1)
	}
}

func TestRecordConsentStorageFailure(t *testing.T) {
	cause := &repository.StorageError{Op: "insert consent", Err: errors.New("connection refused")}
	svc := NewService(&stubRepository{insertErr: cause}, Config{})

	_, err := svc.RecordConsent(context.Background(), validClaim("s1"), Transport{})

	var sErr *StorageFailure
	require.ErrorAs(t, err, &sErr)
	assert.NotErrorIs(t, err, ErrDuplicateSubmission)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert consent: connection refused", err.Error())
}

func TestRecordConsentTimesOut(t *testing.T) {
	svc := NewService(&stubRepository{block: true}, Config{Timeout: 20 * time.Millisecond})

	started := time.Now()
	_, err := svc.RecordConsent(context.Background(), validClaim("slow"), Transport{})

	var sErr *StorageFailure
	require.ErrorAs(t, err, &sErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestRecordConsentMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	repo := repository.NewInMemoryConsentRepository()
	svc := NewService(repo, Config{Location: time.UTC, Metrics: m})
	ctx := context.Background()

	liff := validClaim("liff-1")
	liff.SourceChannel = "LIFF"
	_, _ = svc.RecordConsent(ctx, liff, Transport{})
	_, _ = svc.RecordConsent(ctx, liff, Transport{})
	_, _ = svc.RecordConsent(ctx, models.ConsentClaim{}, Transport{})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsentSubmissions.WithLabelValues(metrics.OutcomeAccepted, "LIFF")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsentSubmissions.WithLabelValues(metrics.OutcomeDuplicate, "LIFF")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsentSubmissions.WithLabelValues(metrics.OutcomeRejected, "WEB")))
}

func TestCheckHealth(t *testing.T) {
	pingFailure := &repository.StorageError{Op: "ping", Err: errors.New("too many connections")}

	tests := []struct {
		name    string
		repo    *stubRepository
		wantOK  bool
		wantErr error
	}{
		{name: "store answers 1", repo: &stubRepository{pingOK: true}, wantOK: true},
		{name: "store answers something else", repo: &stubRepository{pingOK: false}, wantOK: false},
		{name: "ping fails", repo: &stubRepository{pingErr: pingFailure}, wantErr: pingFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.repo, Config{})

			ok, err := svc.CheckHealth(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(repository.NewInMemoryConsentRepository(), Config{})

	assert.Equal(t, DefaultTimeout, svc.timeout)
	assert.Equal(t, time.Local, svc.location)
}
