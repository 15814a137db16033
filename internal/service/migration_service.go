package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/logger"
	"ohshop-admin/internal/metrics"
	"ohshop-admin/internal/pagination"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MigrationSteps is the number of progress steps of every run.
const MigrationSteps = 10

// attachCompanyPrefix names the company_id backfill migrations.
const attachCompanyPrefix = "attach-company-id:"

// HistoryRepository stores backfill run entries.
type HistoryRepository interface {
	Create(ctx context.Context, e *data.MigrationHistoryEntry) error
	Save(ctx context.Context, e *data.MigrationHistoryEntry) error
	List(ctx context.Context, migration string, p pagination.Params) ([]*data.MigrationHistoryEntry, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// BackfillRepository reads and patches documents missing a company.
type BackfillRepository interface {
	PendingCompanyID(ctx context.Context, collection string) ([]data.LegacyDocument, error)
	SetCompanyID(ctx context.Context, collection string, id, companyID primitive.ObjectID) (bool, error)
}

// CompanyIndex resolves legacy company names.
type CompanyIndex interface {
	CompanyLookup
	NameIndex(ctx context.Context) (map[string]primitive.ObjectID, error)
}

// StartOptions are the parameters of a run.
type StartOptions struct {
	DefaultCompanyID string `json:"default_company_id"`
	StartedBy        string `json:"-"`
}

// MigrationInfo describes a registered migration.
type MigrationInfo struct {
	Name       string `json:"name"`
	Collection string `json:"collection"`
	Running    bool   `json:"running"`
}

// MigrationStats is the summary clients poll while runs are in progress.
type MigrationStats struct {
	Counts  map[string]int64             `json:"counts"`
	Total   int64                        `json:"total"`
	Running []data.MigrationHistoryEntry `json:"running"`
}

type activeRun struct {
	entry  *data.MigrationHistoryEntry
	cancel context.CancelFunc
}

// MigrationService runs company_id backfills and keeps their history.
type MigrationService struct {
	history   HistoryRepository
	backfill  BackfillRepository
	companies CompanyIndex
	log       logger.Logger
	interval  time.Duration

	registry map[string]string // migration name -> collection

	mu     sync.Mutex
	active map[string]*activeRun
	wg     sync.WaitGroup
}

// NewMigrationService creates a MigrationService pacing each step by interval.
func NewMigrationService(history HistoryRepository, backfill BackfillRepository, companies CompanyIndex, log logger.Logger, interval time.Duration) *MigrationService {
	registry := map[string]string{}
	for _, c := range []string{data.ProductsCollection, data.MembersCollection, data.ContentMediaCollection} {
		registry[attachCompanyPrefix+c] = c
	}
	return &MigrationService{
		history:   history,
		backfill:  backfill,
		companies: companies,
		log:       log.With(map[string]interface{}{"component": "migrations"}),
		interval:  interval,
		registry:  registry,
		active:    map[string]*activeRun{},
	}
}

// Available lists the registered migrations.
func (s *MigrationService) Available() []MigrationInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MigrationInfo, 0, len(s.registry))
	for name, coll := range s.registry {
		_, running := s.active[name]
		out = append(out, MigrationInfo{Name: name, Collection: coll, Running: running})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start launches a run of name in the background and returns its history entry.
// A second start while a run of the same name is active fails with data.ErrConflict.
func (s *MigrationService) Start(ctx context.Context, name string, opts StartOptions) (data.MigrationHistoryEntry, error) {
	collection, ok := s.registry[name]
	if !ok {
		return data.MigrationHistoryEntry{}, fmt.Errorf("migration %q: %w", name, data.ErrNotFound)
	}
	defaultID, err := optionalID(opts.DefaultCompanyID)
	if err != nil {
		return data.MigrationHistoryEntry{}, err
	}
	if defaultID != nil {
		if _, err := s.companies.GetByID(ctx, *defaultID); err != nil {
			return data.MigrationHistoryEntry{}, fmt.Errorf("default company: %w", err)
		}
	}

	entry := &data.MigrationHistoryEntry{
		Migration:        name,
		Status:           data.MigrationRunning,
		DefaultCompanyID: opts.DefaultCompanyID,
		StartedBy:        opts.StartedBy,
		StartedAt:        time.Now().UTC(),
		Logs:             []string{},
	}

	// Reserve the name so the history write happens outside the lock.
	s.mu.Lock()
	if _, running := s.active[name]; running {
		s.mu.Unlock()
		return data.MigrationHistoryEntry{}, fmt.Errorf("migration %q is already running: %w", name, data.ErrConflict)
	}
	runCtx, cancel := context.WithCancel(context.Background())
	reserved := copyEntry(entry)
	run := &activeRun{entry: &reserved, cancel: cancel}
	s.active[name] = run
	s.wg.Add(1)
	s.mu.Unlock()

	if err := s.history.Create(ctx, entry); err != nil {
		s.mu.Lock()
		delete(s.active, name)
		s.mu.Unlock()
		cancel()
		s.wg.Done()
		return data.MigrationHistoryEntry{}, fmt.Errorf("failed to record migration start: %w", err)
	}

	s.mu.Lock()
	run.entry = entry
	snapshot := copyEntry(entry)
	s.mu.Unlock()
	metrics.MigrationsActive.Inc()
	go s.run(runCtx, entry, collection, defaultID)

	return snapshot, nil
}

// Cancel requests the active run of name to stop after its current step.
func (s *MigrationService) Cancel(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.active[name]
	if !ok {
		return fmt.Errorf("no active run of %q: %w", name, data.ErrNotFound)
	}
	run.cancel()
	return nil
}

// Stats returns run totals by status and snapshots of the active runs.
func (s *MigrationService) Stats(ctx context.Context) (MigrationStats, error) {
	counts, err := s.history.CountByStatus(ctx)
	if err != nil {
		return MigrationStats{}, err
	}
	stats := MigrationStats{Counts: counts, Running: []data.MigrationHistoryEntry{}}
	for _, n := range counts {
		stats.Total += n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, run := range s.active {
		stats.Running = append(stats.Running, copyEntry(run.entry))
	}
	sort.Slice(stats.Running, func(i, j int) bool { return stats.Running[i].Migration < stats.Running[j].Migration })
	return stats, nil
}

// History lists run entries newest first, optionally for one migration.
func (s *MigrationService) History(ctx context.Context, name string, p pagination.Params) (pagination.Page[*data.MigrationHistoryEntry], error) {
	items, total, err := s.history.List(ctx, name, p)
	if err != nil {
		return pagination.Page[*data.MigrationHistoryEntry]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

// Shutdown cancels every active run and waits for them to record their outcome.
func (s *MigrationService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, run := range s.active {
		run.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MigrationService) run(ctx context.Context, entry *data.MigrationHistoryEntry, collection string, defaultID *primitive.ObjectID) {
	defer s.wg.Done()
	// Writes must finish even when the run is cancelled mid-step.
	writeCtx := context.WithoutCancel(ctx)
	log := s.log.With(map[string]interface{}{"migration": entry.Migration, "run": entry.ID.Hex()})
	log.Info("Migration started")

	status, runErr := s.process(ctx, writeCtx, entry, collection, defaultID, log)

	s.mu.Lock()
	now := time.Now().UTC()
	entry.Status = status
	entry.FinishedAt = &now
	entry.ProcessingRate = rate(entry.Processed, entry.StartedAt, now)
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	entry.Logs = append(entry.Logs, fmt.Sprintf("%s: processed %d of %d, updated %d, skipped %d, failed %d",
		status, entry.Processed, entry.Total, entry.Updated, entry.Skipped, entry.Failed))
	final := copyEntry(entry)
	delete(s.active, entry.Migration)
	s.mu.Unlock()
	metrics.MigrationsActive.Dec()
	metrics.RecordMigration(final.Migration, final.Status, final.Updated, final.Skipped, final.Failed)

	if err := s.history.Save(writeCtx, &final); err != nil {
		log.Error(err, "Failed to record migration outcome")
	}
	if runErr != nil {
		log.Error(runErr, fmt.Sprintf("Migration %s", status))
		return
	}
	log.Info(fmt.Sprintf("Migration %s", status))
}

// process walks the pending documents in MigrationSteps equal chunks, one per interval.
func (s *MigrationService) process(ctx, writeCtx context.Context, entry *data.MigrationHistoryEntry, collection string, defaultID *primitive.ObjectID, log logger.Logger) (string, error) {
	docs, err := s.backfill.PendingCompanyID(writeCtx, collection)
	if err != nil {
		return data.MigrationFailed, err
	}
	index, err := s.companies.NameIndex(writeCtx)
	if err != nil {
		return data.MigrationFailed, err
	}

	s.mu.Lock()
	entry.Total = int64(len(docs))
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for step := 1; step <= MigrationSteps; step++ {
		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return data.MigrationCancelled, nil
		}

		lo := (step - 1) * len(docs) / MigrationSteps
		hi := step * len(docs) / MigrationSteps
		var updated, skipped int64
		var stepErr error
		for _, doc := range docs[lo:hi] {
			target, ok := resolveCompany(doc, index, defaultID)
			if !ok {
				skipped++
				continue
			}
			modified, err := s.backfill.SetCompanyID(writeCtx, collection, doc.ID, target)
			if err != nil {
				stepErr = err
				break
			}
			if modified {
				updated++
			} else {
				skipped++
			}
		}

		s.mu.Lock()
		entry.Updated += updated
		entry.Skipped += skipped
		entry.Processed += updated + skipped
		if stepErr != nil {
			entry.Failed++
			entry.Processed++
		}
		entry.Progress = step * 100 / MigrationSteps
		entry.ProcessingRate = rate(entry.Processed, entry.StartedAt, time.Now().UTC())
		line := fmt.Sprintf("step %d/%d: %d%% processed %d of %d (updated %d, skipped %d)",
			step, MigrationSteps, entry.Progress, entry.Processed, entry.Total, entry.Updated, entry.Skipped)
		entry.Logs = append(entry.Logs, line)
		snapshot := copyEntry(entry)
		s.mu.Unlock()

		if stepErr != nil {
			return data.MigrationFailed, stepErr
		}
		log.Debug(line)
		if err := s.history.Save(writeCtx, &snapshot); err != nil {
			log.Error(err, "Failed to record migration progress")
		}
	}
	return data.MigrationCompleted, nil
}

// resolveCompany picks the company a legacy document belongs to.
func resolveCompany(doc data.LegacyDocument, index map[string]primitive.ObjectID, defaultID *primitive.ObjectID) (primitive.ObjectID, bool) {
	if doc.CompanyName != "" {
		if id, ok := index[data.NormalizeName(doc.CompanyName)]; ok {
			return id, true
		}
	}
	if defaultID != nil {
		return *defaultID, true
	}
	return primitive.NilObjectID, false
}

func rate(processed int64, start, now time.Time) float64 {
	elapsed := now.Sub(start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(processed) / elapsed
}

func copyEntry(e *data.MigrationHistoryEntry) data.MigrationHistoryEntry {
	c := *e
	c.Logs = append([]string(nil), e.Logs...)
	return c
}
