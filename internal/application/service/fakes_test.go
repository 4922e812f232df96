package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nft-analytics-pipeline/internal/domain/entity"
	"nft-analytics-pipeline/internal/domain/repository"
	domainService "nft-analytics-pipeline/internal/domain/service"
	"nft-analytics-pipeline/internal/infrastructure/logger"
)

func testLogger() *logger.Logger {
	l, err := logger.NewLogger("error")
	if err != nil {
		panic(err)
	}
	return l
}

// --- event store fakes ---

type fakeEventRepo struct {
	addresses []string
	txs       map[string][]*entity.NFTEvent
	cids      []string
	failFor   map[string]error
}

func (f *fakeEventRepo) ActiveAddresses(ctx context.Context, since time.Time) ([]string, error) {
	return f.addresses, nil
}

func (f *fakeEventRepo) TransactionsForAddress(ctx context.Context, address string) ([]*entity.NFTEvent, error) {
	if err, ok := f.failFor[address]; ok {
		return nil, err
	}
	return f.txs[address], nil
}

func (f *fakeEventRepo) RecentContentIDs(ctx context.Context, since time.Time) ([]string, error) {
	return f.cids, nil
}

type fakeActivityRepo struct {
	cohorts map[string][]string // "from" RFC3339 -> users
	active  map[string]int      // "from" RFC3339 -> retained
}

func (f *fakeActivityRepo) CohortUsers(ctx context.Context, from, to time.Time) ([]string, error) {
	return f.cohorts[from.Format(time.RFC3339)], nil
}

func (f *fakeActivityRepo) CountActive(ctx context.Context, users []string, from, to time.Time) (int, error) {
	return f.active[from.Format(time.RFC3339)], nil
}

// --- derived store fakes ---

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*entity.BehaviorProfile
	failFor  map[string]error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*entity.BehaviorProfile)}
}

func (f *fakeProfileRepo) Upsert(ctx context.Context, p *entity.BehaviorProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[p.WalletAddress]; ok {
		return err
	}
	f.profiles[p.WalletAddress] = p
	return nil
}

func (f *fakeProfileRepo) Get(ctx context.Context, address string) (*entity.BehaviorProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[address]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

type fakeCohortRepo struct {
	mu    sync.Mutex
	cells map[string]*entity.RetentionCohort
}

func newFakeCohortRepo() *fakeCohortRepo {
	return &fakeCohortRepo{cells: make(map[string]*entity.RetentionCohort)}
}

func cohortKey(date time.Time, pt entity.PeriodType, n int) string {
	return fmt.Sprintf("%s|%s|%d", date.Format(time.RFC3339), pt, n)
}

func (f *fakeCohortRepo) Upsert(ctx context.Context, c *entity.RetentionCohort) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cells[cohortKey(c.CohortDate, c.PeriodType, c.PeriodNumber)] = c
	return nil
}

func (f *fakeCohortRepo) Get(ctx context.Context, date time.Time, pt entity.PeriodType, n int) (*entity.RetentionCohort, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cells[cohortKey(date, pt, n)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

// --- anomaly fakes ---

type fakeAnomalyRepo struct {
	mu       sync.Mutex
	pending  []*entity.AnomalyDetection
	inserted []*entity.AnomalyDetection
	statuses map[string]entity.AnomalyStatus
	purged   int
}

func newFakeAnomalyRepo(pending ...*entity.AnomalyDetection) *fakeAnomalyRepo {
	return &fakeAnomalyRepo{
		pending:  pending,
		statuses: make(map[string]entity.AnomalyStatus),
	}
}

func (f *fakeAnomalyRepo) Insert(ctx context.Context, a *entity.AnomalyDetection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, a)
	f.pending = append(f.pending, a)
	return nil
}

func (f *fakeAnomalyRepo) ListPendingSince(ctx context.Context, since time.Time) ([]*entity.AnomalyDetection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.AnomalyDetection
	for _, a := range f.pending {
		if !a.DetectedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAnomalyRepo) UpdateStatus(ctx context.Context, id string, status entity.AnomalyStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
	return nil
}

func (f *fakeAnomalyRepo) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.pending[:0]
	removed := 0
	for _, a := range f.pending {
		if a.DetectedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	f.pending = kept
	f.purged += removed
	return removed, nil
}

type fakeClaimStore struct {
	mu     sync.Mutex
	claims map[string]bool
}

func newFakeClaimStore() *fakeClaimStore {
	return &fakeClaimStore{claims: make(map[string]bool)}
}

func (f *fakeClaimStore) Claim(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claims[id] {
		return false, nil
	}
	f.claims[id] = true
	return true, nil
}

func (f *fakeClaimStore) Release(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claims, id)
	return nil
}

// --- webhook fakes ---

type fakeWebhookRepo struct {
	mu        sync.Mutex
	endpoints []*entity.WebhookEndpoint
	logs      []*entity.WebhookDeliveryLog
	purged    int
}

func (f *fakeWebhookRepo) ActiveEndpoints(ctx context.Context) ([]*entity.WebhookEndpoint, error) {
	return f.endpoints, nil
}

func (f *fakeWebhookRepo) LogDelivery(ctx context.Context, log *entity.WebhookDeliveryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeWebhookRepo) PurgeLogsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purged++
	return 7, nil
}

// fakeSender returns scripted outcomes per endpoint id, in order. Past the
// script it succeeds.
type fakeSender struct {
	mu      sync.Mutex
	scripts map[string][]entity.DeliveryOutcome
	calls   map[string]int
	err     error
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		scripts: make(map[string][]entity.DeliveryOutcome),
		calls:   make(map[string]int),
	}
}

func (f *fakeSender) Send(ctx context.Context, endpoint *entity.WebhookEndpoint, payload *entity.AlertPayload) (*domainService.DeliveryAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	n := f.calls[endpoint.ID]
	f.calls[endpoint.ID] = n + 1

	script := f.scripts[endpoint.ID]
	outcome := entity.DeliverySuccess
	if n < len(script) {
		outcome = script[n]
	}
	attempt := &domainService.DeliveryAttempt{Outcome: outcome}
	if outcome == entity.DeliverySuccess {
		attempt.StatusCode = 200
	} else if outcome == entity.DeliveryFailure {
		attempt.StatusCode = 500
	}
	return attempt, nil
}

// --- report fakes ---

type fakeReportRepo struct {
	mu         sync.Mutex
	configs    map[string]*entity.AutomatedReportConfig
	due        []*entity.AutomatedReportConfig
	executions map[string]*entity.ReportExecution
	saved      []*entity.AutomatedReportConfig
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{
		configs:    make(map[string]*entity.AutomatedReportConfig),
		executions: make(map[string]*entity.ReportExecution),
	}
}

func (f *fakeReportRepo) DueConfigs(ctx context.Context, now time.Time) ([]*entity.AutomatedReportConfig, error) {
	return f.due, nil
}

func (f *fakeReportRepo) GetConfig(ctx context.Context, id string) (*entity.AutomatedReportConfig, error) {
	cfg, ok := f.configs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cfg, nil
}

func (f *fakeReportRepo) SaveConfig(ctx context.Context, cfg *entity.AutomatedReportConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, cfg)
	f.configs[cfg.ID] = cfg
	return nil
}

func (f *fakeReportRepo) CreateExecution(ctx context.Context, exec *entity.ReportExecution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *exec
	f.executions[exec.ID] = &copied
	return nil
}

func (f *fakeReportRepo) UpdateExecution(ctx context.Context, exec *entity.ReportExecution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *exec
	f.executions[exec.ID] = &copied
	return nil
}

type fakeGenerator struct {
	failFor map[string]error
	result  *entity.ReportResult
}

func (f *fakeGenerator) Generate(ctx context.Context, req *entity.ReportRequest) (*entity.ReportResult, error) {
	if err, ok := f.failFor[req.ReportType]; ok {
		return nil, err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &entity.ReportResult{
		Files: map[string]string{
			string(entity.FormatCSV): "/tmp/report.csv",
		},
		DataPointsProcessed: 42,
	}, nil
}

type fakeDistributor struct {
	err   error
	calls int
}

func (f *fakeDistributor) Distribute(ctx context.Context, cfg *entity.AutomatedReportConfig, files map[string]string) (*entity.DistributionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &entity.DistributionResult{RecipientsNotified: len(cfg.Recipients), Status: "sent"}, nil
}

// --- snapshot fakes ---

type fakeRollupStore struct {
	refreshErr map[string]error
	refreshed  []string
	entries    map[entity.SnapshotKind][]entity.SnapshotEntry
}

func newFakeRollupStore() *fakeRollupStore {
	return &fakeRollupStore{
		refreshErr: make(map[string]error),
		entries:    make(map[entity.SnapshotKind][]entity.SnapshotEntry),
	}
}

func (f *fakeRollupStore) RefreshView(ctx context.Context, view string) error {
	if err, ok := f.refreshErr[view]; ok {
		return err
	}
	f.refreshed = append(f.refreshed, view)
	return nil
}

func (f *fakeRollupStore) TopN(ctx context.Context, kind entity.SnapshotKind, n int) ([]entity.SnapshotEntry, error) {
	return f.entries[kind], nil
}

type fakeSnapshotCache struct {
	mu          sync.Mutex
	values      map[string]*entity.AggregateSnapshot
	invalidated []string
	setErr      error
}

func newFakeSnapshotCache() *fakeSnapshotCache {
	return &fakeSnapshotCache{values: make(map[string]*entity.AggregateSnapshot)}
}

func (f *fakeSnapshotCache) Get(ctx context.Context, key string) (*entity.AggregateSnapshot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeSnapshotCache) Set(ctx context.Context, key string, snapshot *entity.AggregateSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = snapshot
	return nil
}

func (f *fakeSnapshotCache) Invalidate(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, keys...)
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

// --- metadata fakes ---

type fakeFetcher struct {
	mu      sync.Mutex
	blobs   map[string]map[string]interface{}
	errs    map[string][]error // consumed per call
	fetches int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		blobs: make(map[string]map[string]interface{}),
		errs:  make(map[string][]error),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, cid string) (map[string]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if queue := f.errs[cid]; len(queue) > 0 {
		err := queue[0]
		f.errs[cid] = queue[1:]
		return nil, err
	}
	return f.blobs[cid], nil
}

type fakeMetadataRepo struct {
	mu    sync.Mutex
	metas map[string]*entity.ContentMetadata
}

func newFakeMetadataRepo() *fakeMetadataRepo {
	return &fakeMetadataRepo{metas: make(map[string]*entity.ContentMetadata)}
}

func (f *fakeMetadataRepo) Get(ctx context.Context, cid string) (*entity.ContentMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.metas[cid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

func (f *fakeMetadataRepo) Upsert(ctx context.Context, meta *entity.ContentMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metas[meta.CID] = meta
	return nil
}

// --- detection fake ---

type fakeEngine struct {
	results []*entity.AnomalyDetection
	err     error
}

func (f *fakeEngine) RunDetection(ctx context.Context, detectionType string) ([]*entity.AnomalyDetection, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}
