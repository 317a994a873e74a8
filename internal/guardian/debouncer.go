package guardian

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"regenwasi/internal/guardian/interfaces"
	"regenwasi/internal/providers"
	"regenwasi/internal/structures"
)

const DefaultSaveDebounce = 500 * time.Millisecond

// Autosaver coalesces mutation bursts into a single persistence write.
// A newer Request supersedes the pending one, so the store always ends up
// reflecting the latest in-memory state, never an intermediate one.
type Autosaver struct {
	mu          sync.Mutex
	timer       *time.Timer
	delay       time.Duration
	filePath    string
	fileManager *FileManager
	logger      providers.Logger
	stopped     atomic.Bool
}

func NewAutosaver(conf *structures.Config, fileManager *FileManager, logger providers.Logger) interfaces.AutosaverInterface {
	delay := conf.Persistence.SaveDebounce
	if delay <= 0 {
		delay = DefaultSaveDebounce
	}
	return &Autosaver{
		delay:       delay,
		filePath:    conf.Persistence.FilePath,
		fileManager: fileManager,
		logger:      logger,
	}
}

func (a *Autosaver) Request() {
	if a.stopped.Load() {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *Autosaver) fire() {
	if a.stopped.Load() {
		return
	}
	if err := a.fileManager.SaveToFile(a.filePath); err != nil {
		a.logger.Errorf(providers.TypeApp, "Autosave failed: %s", err)
		return
	}
	a.logger.Debugf(providers.TypeApp, "Autosaved data to file %s", a.filePath)
}

// Flush persists immediately, dropping any pending timer.
func (a *Autosaver) Flush() error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	return a.fileManager.SaveToFile(a.filePath)
}

// Stop cancels any pending write. Writes requested after Stop are ignored.
func (a *Autosaver) Stop() {
	a.stopped.Store(true)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
