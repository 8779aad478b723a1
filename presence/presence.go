package presence

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	errs "github.com/JoshuaLakeSexton/Reeflux/internal/errors"
)

const (
	keySessionPrefix = "reef:session:"
	keyActiveSet     = "reef:active"
	keyDrift         = "reef:drift"
	keyQueue         = "reef:queue"

	DefaultDrift = "Soft Coral Breeze"
	defaultQueue = "3"

	maxSessionIDLength = 128
)

// Stats is the coarse site activity shown on the landing pages.
type Stats struct {
	AgentsInside  int64  `json:"agents_inside"`
	CurrentDrift  string `json:"current_drift"`
	RequestsQueue int64  `json:"requests_queue"`
	LastUpdated   string `json:"last_updated"`
}

// Service records heartbeats and reports activity. A nil store means
// presence is not configured; callers treat that as degraded.
type Service struct {
	store        Store
	sessionTTL   time.Duration
	activeWindow time.Duration
	nowFunc      func() time.Time
}

type ServiceOption func(*Service)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func NewService(store Store, sessionTTL, activeWindow time.Duration, options ...ServiceOption) *Service {
	s := &Service{
		store:        store,
		sessionTTL:   sessionTTL,
		activeWindow: activeWindow,
		nowFunc:      time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = time.Hour
	}
	if s.activeWindow <= 0 {
		s.activeWindow = 5 * time.Minute
	}
	return s
}

// Enabled reports whether a store is configured.
func (s *Service) Enabled() bool {
	return s.store != nil
}

// Ping records a heartbeat for sessionID and returns the time it was seen.
func (s *Service) Ping(ctx context.Context, sessionID string, drift float64) (time.Time, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || len(sessionID) > maxSessionIDLength {
		return time.Time{}, errs.ErrMissingSessionID
	}
	if s.store == nil {
		return time.Time{}, errs.ErrStoreUnavailable
	}

	now := s.nowFunc()
	nowMs := now.UnixMilli()

	fields := map[string]string{
		"lastSeen": strconv.FormatInt(nowMs, 10),
		"drift":    strconv.FormatFloat(drift, 'f', -1, 64),
	}
	if err := s.store.SetHash(ctx, keySessionPrefix+sessionID, fields, s.sessionTTL); err != nil {
		return time.Time{}, errors.Wrap(err, "[Ping] failed to write session")
	}
	if err := s.store.AddScored(ctx, keyActiveSet, sessionID, float64(nowMs)); err != nil {
		return time.Time{}, errors.Wrap(err, "[Ping] failed to mark session active")
	}
	if err := s.prune(ctx, now); err != nil {
		return time.Time{}, err
	}

	if err := s.store.SetIfAbsent(ctx, keyDrift, DefaultDrift, s.sessionTTL); err != nil {
		return time.Time{}, errors.Wrap(err, "[Ping] failed to seed drift")
	}
	if err := s.store.SetIfAbsent(ctx, keyQueue, defaultQueue, s.sessionTTL); err != nil {
		return time.Time{}, errors.Wrap(err, "[Ping] failed to seed queue")
	}
	return now, nil
}

// Stats prunes stale sessions and reports current activity.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	now := s.nowFunc()
	stats := Stats{
		CurrentDrift: DefaultDrift,
		LastUpdated:  now.UTC().Format(time.RFC3339Nano),
	}
	if s.store == nil {
		return stats, errs.ErrStoreUnavailable
	}

	if err := s.prune(ctx, now); err != nil {
		return stats, err
	}
	count, err := s.store.CountScored(ctx, keyActiveSet)
	if err != nil {
		return stats, errors.Wrap(err, "[Stats] failed to count active sessions")
	}
	stats.AgentsInside = count

	if drift, ok, err := s.store.Get(ctx, keyDrift); err != nil {
		return stats, errors.Wrap(err, "[Stats] failed to read drift")
	} else if ok && drift != "" {
		stats.CurrentDrift = drift
	}

	if queue, ok, err := s.store.Get(ctx, keyQueue); err != nil {
		return stats, errors.Wrap(err, "[Stats] failed to read queue")
	} else if ok {
		n, convErr := strconv.ParseInt(queue, 10, 64)
		if convErr != nil {
			log.Warn().Str("value", queue).Msg("Presence: queue is not a number")
		}
		stats.RequestsQueue = n
	}
	return stats, nil
}

func (s *Service) prune(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-s.activeWindow).UnixMilli()
	if err := s.store.PruneScored(ctx, keyActiveSet, float64(cutoff)); err != nil {
		return errors.Wrap(err, "failed to prune active sessions")
	}
	return nil
}
