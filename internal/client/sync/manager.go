package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/openvault/vaultsync/internal/client/vault"
)

const (
	fullRefreshInterval = 30 * time.Second
)

var (
	ErrSyncAlreadyRunning = errors.New("sync already running")
	ErrNoConfig           = errors.New("no repo configuration for vault")
	ErrRemoteUnavailable  = errors.New("remote unreachable, push/pull disabled")
	ErrConflictsPending   = errors.New("unresolved conflicts, push/pull disabled")
	ErrNoPass             = errors.New("no reconciliation pass has completed")
)

// Status is the published outcome of the latest reconciliation pass.
type Status struct {
	Config    *vault.RepoConfig
	Changes   *ChangeSet
	RemoteErr error // verbatim fetch error, nil when the snapshot is fresh
	LastPass  time.Time
}

// SyncManager owns one vault's reconciliation state: it runs refresh
// passes through the coordinator, publishes change sets, and executes
// push/pull on explicit request. Refresh, push and pull never run
// concurrently against the same journal.
type SyncManager struct {
	vault       *vault.Vault
	api         RemoteAPI
	journal     *SyncJournal
	ignore      *IgnoreList
	localState  *LocalState
	remoteState *RemoteState
	watcher     *FileWatcher
	coordinator *RefreshCoordinator
	pusher      *PushExecutor
	puller      *PullExecutor

	// defaultBranch is used when the vault config omits a branch; it is the
	// branch of the last completed push.
	defaultBranch  string
	onBranchPushed func(branch string)

	muSync sync.Mutex // serializes passes with push/pull
	wg     sync.WaitGroup

	stateMu   sync.RWMutex
	cfg       *vault.RepoConfig
	local     map[string]*FileMetadata
	snapshot  map[string]*FileMetadata // last successful remote snapshot
	changes   *ChangeSet
	remoteErr error
	lastPass  time.Time
}

func NewSyncManager(v *vault.Vault, api RemoteAPI) *SyncManager {
	journal := NewSyncJournal(v.JournalPath)
	ignore := NewIgnoreList(v.IgnorePath)

	m := &SyncManager{
		vault:       v,
		api:         api,
		journal:     journal,
		ignore:      ignore,
		localState:  NewLocalState(v.Root, ignore),
		remoteState: NewRemoteState(api),
		watcher:     NewFileWatcher(v.Root),
		pusher:      NewPushExecutor(api, journal),
		puller:      NewPullExecutor(api, journal, v),
	}
	m.coordinator = NewRefreshCoordinator(m.runPass)
	return m
}

// SetDefaultBranch sets the fallback branch for vault configs that omit one.
func (m *SyncManager) SetDefaultBranch(branch string) {
	m.defaultBranch = branch
}

// OnBranchPushed registers the persistence callback invoked with the branch
// name after a push completes, fully or partially.
func (m *SyncManager) OnBranchPushed(fn func(branch string)) {
	m.onBranchPushed = fn
}

// Open prepares the journal and ignore rules without starting background
// work. One-shot commands pair it with Stop.
func (m *SyncManager) Open() error {
	if err := m.journal.Open(); err != nil {
		return err
	}
	m.ignore.Load()
	return nil
}

// Start opens the journal, starts the watcher and schedules the initial
// refresh. Local mutations schedule coalesced refreshes against the last
// snapshot; a periodic timer re-fetches the remote.
func (m *SyncManager) Start(ctx context.Context) error {
	slog.Info("sync manager start", "vault", m.vault.Root)

	if err := m.Open(); err != nil {
		return err
	}

	m.watcher.FilterPaths(func(absPath string) bool {
		relPath, err := m.vault.RelPath(absPath)
		if err != nil {
			return true
		}
		return relPath == vault.RepoConfigFile || m.ignore.ShouldIgnore(relPath)
	})
	if err := m.watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	m.coordinator.Schedule(ctx, &RefreshRequest{FetchRemote: true, Reason: "startup"})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.handleWatcherEvents(ctx)
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		// a timer, not a ticker, so slow passes don't queue ticks
		timer := time.NewTimer(fullRefreshInterval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				m.coordinator.Schedule(ctx, &RefreshRequest{FetchRemote: true, Reason: "interval"})
				timer.Reset(fullRefreshInterval)
			}
		}
	}()

	return nil
}

func (m *SyncManager) Stop() error {
	slog.Info("sync manager stop")
	m.watcher.Stop()
	m.wg.Wait()
	m.coordinator.Wait()
	return m.journal.Close()
}

func (m *SyncManager) handleWatcherEvents(ctx context.Context) {
	events := m.watcher.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			slog.Debug("local mutation", "path", event.Path())
			m.coordinator.Schedule(ctx, &RefreshRequest{Reason: "local mutation"})
		}
	}
}

// Refresh runs one synchronous reconciliation pass.
func (m *SyncManager) Refresh(ctx context.Context, req *RefreshRequest) {
	m.runPass(ctx, req)
}

// ScheduleRefresh submits a coalesced asynchronous refresh.
func (m *SyncManager) ScheduleRefresh(ctx context.Context, req *RefreshRequest) {
	m.coordinator.Schedule(ctx, req)
}

// Status returns the published outcome of the latest pass.
func (m *SyncManager) Status() *Status {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return &Status{
		Config:    m.cfg,
		Changes:   m.changes,
		RemoteErr: m.remoteErr,
		LastPass:  m.lastPass,
	}
}

// ResolveConflict reclassifies a conflicted path into a forced push or
// pull. The resolution holds only until the next pass recomputes
// classifications.
func (m *SyncManager) ResolveConflict(repoPath string, side Side) error {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.changes == nil {
		return ErrNoPass
	}
	return m.changes.ResolveConflict(repoPath, side)
}

// runPass executes config resolution, local scan, conditional remote fetch
// and classification. It is only ever invoked by the coordinator or by an
// explicit synchronous Refresh, never concurrently.
func (m *SyncManager) runPass(ctx context.Context, req *RefreshRequest) {
	m.muSync.Lock()
	defer m.muSync.Unlock()

	tStart := time.Now()

	cfg, err := vault.LoadRepoConfig(m.vault.Root)
	if err != nil {
		if !errors.Is(err, vault.ErrNoRepoConfig) {
			// unparsable config is treated as not found for this vault
			slog.Error("repo config invalid", "vault", m.vault.Root, "error", err)
		}
		m.publish(nil, nil, nil, nil)
		return
	}
	if cfg.Branch == "" {
		cfg.Branch = m.defaultBranch
	}

	local, err := m.localState.Scan(cfg.Path)
	if err != nil {
		slog.Error("local scan failed", "error", err)
		return
	}

	m.stateMu.RLock()
	snapshot := m.snapshot
	m.stateMu.RUnlock()

	var fetchErr error
	if req.FetchRemote || snapshot == nil {
		fresh, err := m.remoteState.Fetch(ctx, cfg)
		if err != nil {
			// degrade to the last successful snapshot; push/pull stay
			// disabled until a fetch succeeds
			slog.Warn("remote fetch failed", "error", err)
			fetchErr = err
		} else {
			snapshot = fresh
		}
	}

	if snapshot == nil {
		// never had a snapshot; classification would misreport everything
		// as locally new
		m.publish(cfg, local, nil, fetchErr)
		return
	}

	if count, err := m.journal.Count(); err == nil && count == 0 && len(local) > 0 && len(snapshot) > 0 {
		slog.Info("rebuilding journal")
		for path, hash := range SeedJournal(local, snapshot) {
			if err := m.journal.Set(path, hash); err != nil {
				slog.Warn("journal seed failed", "path", path, "error", err)
			}
		}
	}

	journalState, err := m.journal.GetState()
	if err != nil {
		slog.Error("get journal state", "error", err)
		return
	}

	changes := Classify(local, snapshot, journalState, cfg.Path)

	for path, hash := range changes.Heals {
		if err := m.journal.Set(path, hash); err != nil {
			slog.Warn("journal heal failed", "path", path, "error", err)
		}
	}
	for path := range changes.Cleanups {
		if err := m.journal.Delete(path); err != nil {
			slog.Warn("journal cleanup failed", "path", path, "error", err)
		}
	}

	m.publishWithChanges(cfg, local, snapshot, changes, fetchErr)

	if changes.HasChanges() {
		slog.Info("reconcile",
			"reason", req.Reason,
			"push", len(changes.Push),
			"pull", len(changes.Pull),
			"conflicts", len(changes.Conflicts),
			"unchanged", len(changes.Unchanged),
			"healed", len(changes.Heals),
			"took", time.Since(tStart),
		)
	}
}

func (m *SyncManager) publish(cfg *vault.RepoConfig, local, snapshot map[string]*FileMetadata, remoteErr error) {
	m.publishWithChanges(cfg, local, snapshot, nil, remoteErr)
}

func (m *SyncManager) publishWithChanges(cfg *vault.RepoConfig, local, snapshot map[string]*FileMetadata, changes *ChangeSet, remoteErr error) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.cfg = cfg
	m.local = local
	if snapshot != nil {
		m.snapshot = snapshot
	}
	m.changes = changes
	m.remoteErr = remoteErr
	m.lastPass = time.Now()
}

// Push uploads the current push set. It refuses to run while another pass
// or transfer is in flight, while conflicts are unresolved, or while the
// remote snapshot is not fresh. After completion, full or partial, the
// branch used is persisted and a refresh is scheduled to re-establish
// ground truth.
func (m *SyncManager) Push(ctx context.Context) error {
	if !m.muSync.TryLock() {
		return ErrSyncAlreadyRunning
	}
	defer m.muSync.Unlock()

	cfg, changes, local, snapshot, err := m.transferState(false)
	if err != nil {
		return err
	}

	defer func() {
		if m.onBranchPushed != nil {
			m.onBranchPushed(cfg.Branch)
		}
		m.defaultBranch = cfg.Branch
		m.coordinator.Schedule(ctx, &RefreshRequest{FetchRemote: true, Reason: "post-push"})
	}()

	return m.pusher.Execute(ctx, cfg, changes.Push, local, snapshot)
}

// Pull applies the current pull set locally, with the same gating and
// post-completion refresh as Push.
func (m *SyncManager) Pull(ctx context.Context) error {
	if !m.muSync.TryLock() {
		return ErrSyncAlreadyRunning
	}
	defer m.muSync.Unlock()

	cfg, changes, _, _, err := m.transferState(false)
	if err != nil {
		return err
	}

	defer m.coordinator.Schedule(ctx, &RefreshRequest{FetchRemote: true, Reason: "post-pull"})

	return m.puller.Execute(ctx, cfg, changes.Pull)
}

// ApplyResolution resolves one conflicted path and immediately executes
// the resulting forced operation as a single-item batch. Unlike Push and
// Pull it runs while other conflicts are still pending; those are left
// untouched. Callers should refresh afterwards to re-establish ground
// truth.
func (m *SyncManager) ApplyResolution(ctx context.Context, repoPath string, side Side) error {
	if !m.muSync.TryLock() {
		return ErrSyncAlreadyRunning
	}
	defer m.muSync.Unlock()

	cfg, changes, local, snapshot, err := m.transferState(true)
	if err != nil {
		return err
	}

	m.stateMu.RLock()
	op, ok := changes.Conflicts[repoPath]
	m.stateMu.RUnlock()
	if !ok {
		return fmt.Errorf("no conflict for %s", repoPath)
	}

	resolved, err := Resolve(op, side)
	if err != nil {
		return err
	}

	m.stateMu.Lock()
	delete(changes.Conflicts, repoPath)
	m.stateMu.Unlock()

	if resolved.Type == OpPush {
		defer func() {
			if m.onBranchPushed != nil {
				m.onBranchPushed(cfg.Branch)
			}
			m.defaultBranch = cfg.Branch
		}()
		return m.pusher.Execute(ctx, cfg, BatchPush{repoPath: resolved}, local, snapshot)
	}
	return m.puller.Execute(ctx, cfg, BatchPull{repoPath: resolved})
}

// transferState snapshots the published state and applies the push/pull
// gating rules. allowConflicts skips the pending-conflicts gate for
// callers that execute a resolved conflict on its own.
func (m *SyncManager) transferState(allowConflicts bool) (*vault.RepoConfig, *ChangeSet, map[string]*FileMetadata, map[string]*FileMetadata, error) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	if m.cfg == nil {
		return nil, nil, nil, nil, ErrNoConfig
	}
	if m.remoteErr != nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, m.remoteErr)
	}
	if m.snapshot == nil {
		return nil, nil, nil, nil, ErrRemoteUnavailable
	}
	if m.changes == nil {
		return nil, nil, nil, nil, ErrNoPass
	}
	if !allowConflicts && m.changes.HasConflicts() {
		return nil, nil, nil, nil, ErrConflictsPending
	}
	return m.cfg, m.changes, m.local, m.snapshot, nil
}
