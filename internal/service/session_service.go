package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/apperrors"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/csvimport"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/logging"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/mapping"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/metrics"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/repository"
)

// PreviewRows is the number of leading rows returned after an upload.
const PreviewRows = 5

// session is the state of one user's upload, mapping and last analysis.
// Its fields are only accessed with SessionService.mu held.
type session struct {
	// staging serializes ApplyMapping calls, so the staged rows and the
	// recorded mapping always come from the same call.
	staging sync.Mutex

	id         string
	createdAt  time.Time
	lastAccess time.Time

	raw     *model.RawTable
	mapping *model.ColumnMapping

	prepared     bool
	preparedRows int
	// generation changes whenever the prepared data changes, so a forecast
	// started on older data does not overwrite newer state.
	generation uint64

	result *model.AnalysisResult
}

func (s *session) info() *model.SessionInfo {
	info := &model.SessionInfo{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		LastAccess:   s.lastAccess,
		Columns:      append([]string(nil), s.raw.Header...),
		RowCount:     len(s.raw.Rows),
		Prepared:     s.prepared,
		PreparedRows: s.preparedRows,
		Analyzed:     s.result != nil,
	}
	if s.mapping != nil {
		m := *s.mapping
		info.Mapping = &m
	}
	return info
}

// UploadResult describes a freshly created session.
type UploadResult struct {
	Session      *model.SessionInfo `json:"session"`
	Preview      [][]string         `json:"preview"`
	Encoding     string             `json:"encoding"`
	SkippedLines int                `json:"skippedLines"`
}

// SessionOptions configures a SessionService.
type SessionOptions struct {
	TTL           time.Duration
	SweepSchedule string
	Clock         func() time.Time // defaults to time.Now
}

// SessionService owns the per-user session state: the raw upload, the
// prepared canonical table (staged in SQLite) and the last analysis result.
// A new analysis replaces the previous result wholesale.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*session

	salesRepo *repository.SalesRepository
	analysis  *AnalysisService
	runs      singleflight.Group

	opts    SessionOptions
	cron    *cron.Cron
	now     func() time.Time
	metrics *metrics.Metrics
	logger  logging.Logger
}

// NewSessionService creates a new SessionService. metrics may be nil.
func NewSessionService(
	salesRepo *repository.SalesRepository,
	analysis *AnalysisService,
	opts SessionOptions,
	m *metrics.Metrics,
	logger logging.Logger,
) *SessionService {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.SweepSchedule == "" {
		opts.SweepSchedule = "@every 5m"
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SessionService{
		sessions:  make(map[string]*session),
		salesRepo: salesRepo,
		analysis:  analysis,
		opts:      opts,
		now:       opts.Clock,
		metrics:   m,
		logger:    logger.Named("session"),
	}
}

// Upload reads a CSV upload and opens a new session for it.
func (s *SessionService) Upload(r io.Reader) (*UploadResult, error) {
	raw, stats, err := csvimport.Read(r)
	if err != nil {
		return nil, err
	}

	info := s.Create(raw)
	if stats.SkippedLines > 0 {
		s.logger.Info("skipped malformed lines",
			logging.String("session", info.ID),
			logging.Int("skipped", stats.SkippedLines),
		)
	}
	return &UploadResult{
		Session:      info,
		Preview:      raw.Preview(PreviewRows),
		Encoding:     stats.Encoding,
		SkippedLines: stats.SkippedLines,
	}, nil
}

// Create opens a new session holding raw.
func (s *SessionService) Create(raw *model.RawTable) *model.SessionInfo {
	now := s.now()
	sess := &session{
		id:         uuid.New().String(),
		createdAt:  now,
		lastAccess: now,
		raw:        raw,
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	count := len(s.sessions)
	info := sess.info()
	s.mu.Unlock()

	s.metrics.SetActiveSessions(count)
	s.logger.Info("session created", logging.String("session", sess.id), logging.Int("rows", len(raw.Rows)))
	return info
}

// lookup returns the session and marks it as used. Caller must hold s.mu.
func (s *SessionService) lookup(id string) (*session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	sess.lastAccess = s.now()
	return sess, nil
}

// Get returns the state of a session.
func (s *SessionService) Get(id string) (*model.SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.info(), nil
}

// RequirePrepared returns an error unless the session has a prepared table.
func (s *SessionService) RequirePrepared(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	if !sess.prepared {
		return apperrors.ErrDataNotPrepared
	}
	return nil
}

// ApplyMapping prepares the session's upload with m and stages the canonical
// table. Any previous analysis is discarded. Mapping errors leave the session
// as it was.
func (s *SessionService) ApplyMapping(ctx context.Context, id string, m model.ColumnMapping) (mapping.Stats, error) {
	s.mu.Lock()
	sess, err := s.lookup(id)
	var raw *model.RawTable
	if err == nil {
		raw = sess.raw
	}
	s.mu.Unlock()
	if err != nil {
		return mapping.Stats{}, err
	}

	sess.staging.Lock()
	defer sess.staging.Unlock()

	table, stats, err := mapping.Prepare(raw, m)
	if err != nil {
		return stats, err
	}

	if err := s.salesRepo.ReplaceSessionRecords(ctx, id, table.Records); err != nil {
		return stats, fmt.Errorf("%w: %w", apperrors.ErrFailedToStageRecords, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.sessions[id]; !ok || current != sess {
		// Deleted while preparing.
		if _, err := s.salesRepo.DeleteSession(ctx, id); err != nil {
			s.logger.Warn("failed to remove staged records", logging.String("session", id), logging.Err(err))
		}
		return stats, apperrors.ErrSessionNotFound
	}
	mc := m
	sess.mapping = &mc
	sess.prepared = true
	sess.preparedRows = table.Len()
	sess.generation++
	sess.result = nil

	s.logger.Info("mapping applied",
		logging.String("session", id),
		logging.Int("input_rows", stats.InputRows),
		logging.Int("output_rows", stats.OutputRows),
	)
	return stats, nil
}

// RunForecast analyzes the session's prepared table and stores the result,
// replacing any earlier one. Concurrent calls for the same session share a
// single run.
//
// The run is detached from ctx: it completes and stores its result even if
// the caller that started it goes away. A cancelled ctx only stops that
// caller from waiting.
func (s *SessionService) RunForecast(ctx context.Context, id string) (*model.AnalysisResult, error) {
	ch := s.runs.DoChan(id, func() (any, error) {
		return s.runForecast(context.WithoutCancel(ctx), id)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRunForecast, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("forecast run shared", logging.String("session", id))
		}
		return res.Val.(*model.AnalysisResult), nil
	}
}

func (s *SessionService) runForecast(ctx context.Context, id string) (*model.AnalysisResult, error) {
	s.mu.Lock()
	sess, err := s.lookup(id)
	var generation uint64
	if err == nil {
		if !sess.prepared {
			err = apperrors.ErrDataNotPrepared
		}
		generation = sess.generation
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	records, err := s.salesRepo.GetRecords(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveRecords, err)
	}

	result, err := s.analysis.Analyze(ctx, records)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	if sess.generation == generation {
		sess.result = result
	}
	return result, nil
}

// Result returns the session's last analysis.
func (s *SessionService) Result(id string) (*model.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if sess.result == nil {
		return nil, apperrors.ErrAnalysisNotRun
	}
	return sess.result, nil
}

// ProductForecast returns one product's forecast from the last analysis.
func (s *SessionService) ProductForecast(id, product string) (*model.ProductForecast, error) {
	result, err := s.Result(id)
	if err != nil {
		return nil, err
	}
	pf, ok := result.ProductDetails[product]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrProductNotFound, product)
	}
	return pf, nil
}

// Products returns the sorted distinct product names of the prepared table.
func (s *SessionService) Products(ctx context.Context, id string) ([]string, error) {
	if err := s.RequirePrepared(id); err != nil {
		return nil, err
	}
	names, err := s.salesRepo.ProductNames(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveRecords, err)
	}
	return names, nil
}

// Delete closes a session and removes its staged data.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return apperrors.ErrSessionNotFound
	}
	s.metrics.SetActiveSessions(count)

	if _, err := s.salesRepo.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete staged records: %w", err)
	}
	s.logger.Info("session deleted", logging.String("session", id))
	return nil
}

// Count returns the number of open sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many were removed.
func (s *SessionService) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.opts.TTL)

	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.lastAccess.Before(cutoff) {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	for _, id := range expired {
		if _, err := s.salesRepo.DeleteSession(ctx, id); err != nil {
			s.logger.Warn("failed to remove staged records", logging.String("session", id), logging.Err(err))
		}
	}

	s.metrics.SetActiveSessions(count)
	s.metrics.AddEvicted(len(expired))
	if len(expired) > 0 {
		s.logger.Info("evicted idle sessions", logging.Int("evicted", len(expired)), logging.Int("remaining", count))
	}
	return len(expired)
}

// StartSweeper schedules Sweep on the configured cron schedule.
func (s *SessionService) StartSweeper() error {
	c := cron.New()
	if _, err := c.AddFunc(s.opts.SweepSchedule, func() {
		s.Sweep(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.opts.SweepSchedule, err)
	}
	c.Start()

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	s.logger.Info("session sweeper started",
		logging.String("schedule", s.opts.SweepSchedule),
		logging.Duration("ttl", s.opts.TTL),
	)
	return nil
}

// StopSweeper stops the sweeper and waits for a running sweep to finish.
func (s *SessionService) StopSweeper() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
}
