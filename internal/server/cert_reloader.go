package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"scanstage/internal/errors"
	"scanstage/internal/observability"

	"github.com/fsnotify/fsnotify"
)

// CertReloader serves the current server certificate to the TLS stack and
// swaps it when the underlying files change on disk. Changes are detected via
// fsnotify and debounced, so atomic rotations (write temp, rename) trigger a
// single reload.
type CertReloader struct {
	mu sync.RWMutex

	certFile string
	keyFile  string

	current *tls.Certificate
	leaf    *x509.Certificate

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	logger  *errors.Logger
	metrics *observability.Metrics

	reloadCount        int64
	reloadFailureCount int64
	lastReloadTime     time.Time
	lastReloadError    string

	running bool
}

// NewCertReloader loads the initial keypair and prepares a watcher for the
// given files. The keypair must be loadable up front; reload failures later
// keep the previous certificate in service.
func NewCertReloader(certFile, keyFile string, debounceDelay time.Duration, logger *errors.Logger, metrics *observability.Metrics) (*CertReloader, error) {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}

	cr := &CertReloader{
		certFile:      certFile,
		keyFile:       keyFile,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1), // Buffered to prevent blocking
		logger:        logger,
		metrics:       metrics,
	}

	if err := cr.load(); err != nil {
		return nil, fmt.Errorf("failed to load initial certificate: %w", err)
	}

	return cr, nil
}

// Start begins watching the certificate files for changes
func (cr *CertReloader) Start() error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.running {
		return fmt.Errorf("certificate reloader is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	cr.fsWatcher = watcher

	for _, file := range []string{cr.certFile, cr.keyFile} {
		if err := cr.addFileToWatcher(file); err != nil && cr.logger != nil {
			cr.logger.Warn("Failed to watch certificate file", "file", file, "error", err)
		}
	}

	cr.running = true
	go cr.watchLoop()

	if cr.logger != nil {
		cr.logger.Info("Certificate file watcher started",
			"cert_file", cr.certFile,
			"key_file", cr.keyFile,
			"debounce_delay", cr.debounceDelay)
	}

	return nil
}

// Stop stops the certificate file watcher
func (cr *CertReloader) Stop() error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if !cr.running {
		return nil
	}

	close(cr.stopChan)

	if cr.debounceTimer != nil {
		cr.debounceTimer.Stop()
	}

	if cr.fsWatcher != nil {
		if err := cr.fsWatcher.Close(); err != nil {
			if cr.logger != nil {
				cr.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	cr.running = false

	if cr.logger != nil {
		cr.logger.Info("Certificate file watcher stopped")
	}

	return nil
}

// GetCertificate hands the currently loaded keypair to the TLS handshake.
func (cr *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.current == nil {
		return nil, fmt.Errorf("no certificate loaded")
	}
	return cr.current, nil
}

// TimeToExpiry returns how long the loaded certificate remains valid.
func (cr *CertReloader) TimeToExpiry() (time.Duration, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.leaf == nil {
		return 0, fmt.Errorf("no certificate loaded")
	}
	return time.Until(cr.leaf.NotAfter), nil
}

// IsRunning returns whether the watcher is currently running
func (cr *CertReloader) IsRunning() bool {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.running
}

// Status returns reload statistics for the health endpoint.
func (cr *CertReloader) Status() map[string]any {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	status := map[string]any{
		"running":              cr.running,
		"watched_files":        []string{cr.certFile, cr.keyFile},
		"reload_count":         cr.reloadCount,
		"reload_failure_count": cr.reloadFailureCount,
	}
	if !cr.lastReloadTime.IsZero() {
		status["last_reload_time"] = cr.lastReloadTime
	}
	if cr.lastReloadError != "" {
		status["last_reload_error"] = cr.lastReloadError
	}
	return status
}

// load reads the keypair from disk and swaps it in. Caller state is only
// mutated on success, except for the failure counters.
func (cr *CertReloader) load() error {
	cert, err := tls.LoadX509KeyPair(cr.certFile, cr.keyFile)
	if err != nil {
		return err
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse leaf certificate: %w", err)
	}

	cr.mu.Lock()
	cr.current = &cert
	cr.leaf = leaf
	cr.mu.Unlock()

	if cr.metrics != nil {
		cr.metrics.RecordCertExpiry(context.Background(), time.Until(leaf.NotAfter).Seconds())
	}

	return nil
}

// reload is the debounced reaction to a file change event.
func (cr *CertReloader) reload() {
	err := cr.load()

	cr.mu.Lock()
	cr.reloadCount++
	cr.lastReloadTime = time.Now()
	if err != nil {
		cr.reloadFailureCount++
		cr.lastReloadError = err.Error()
	} else {
		cr.lastReloadError = ""
	}
	cr.mu.Unlock()

	if cr.metrics != nil {
		cr.metrics.RecordCertReload(context.Background(), err == nil)
	}

	if cr.logger != nil {
		if err != nil {
			cr.logger.LogError(err, "Failed to reload TLS certificates, keeping previous keypair")
		} else {
			cr.logger.Info("TLS certificates reloaded successfully")
		}
	}
}

// addFileToWatcher adds a file and its directory to the file system watcher
func (cr *CertReloader) addFileToWatcher(file string) error {
	if err := cr.fsWatcher.Add(file); err != nil {
		// If the file doesn't exist yet, watch its directory instead
		if os.IsNotExist(err) {
			dir := filepath.Dir(file)
			if err := cr.fsWatcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch directory %s: %w", dir, err)
			}
		} else {
			return fmt.Errorf("failed to watch file %s: %w", file, err)
		}
	}

	// Also watch the directory to catch atomic writes (rename operations)
	dir := filepath.Dir(file)
	if err := cr.fsWatcher.Add(dir); err != nil && cr.logger != nil {
		cr.logger.Warn("Failed to watch directory for atomic writes",
			"directory", dir, "error", err)
	}

	return nil
}

// watchLoop is the main event loop for file watching
func (cr *CertReloader) watchLoop() {
	for {
		select {
		case event, ok := <-cr.fsWatcher.Events:
			if !ok {
				return
			}
			if cr.shouldProcessEvent(event) {
				cr.scheduleReload()
			}

		case err, ok := <-cr.fsWatcher.Errors:
			if !ok {
				return
			}
			if cr.logger != nil {
				cr.logger.LogError(err, "File watcher error")
			}

		case <-cr.reloadChan:
			cr.reload()

		case <-cr.stopChan:
			return
		}
	}
}

// shouldProcessEvent determines if a file system event should trigger a reload
func (cr *CertReloader) shouldProcessEvent(event fsnotify.Event) bool {
	isWatchedFile := false
	for _, file := range []string{cr.certFile, cr.keyFile} {
		if event.Name == file || filepath.Base(event.Name) == filepath.Base(file) {
			isWatchedFile = true
			break
		}
	}
	if !isWatchedFile {
		return false
	}

	// Process write, create, and rename events
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// scheduleReload schedules a debounced reload
func (cr *CertReloader) scheduleReload() {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.debounceTimer != nil {
		cr.debounceTimer.Stop()
	}

	cr.debounceTimer = time.AfterFunc(cr.debounceDelay, func() {
		select {
		case cr.reloadChan <- struct{}{}:
		default:
			// Reload already scheduled
		}
	})
}
