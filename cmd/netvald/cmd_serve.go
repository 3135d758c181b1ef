package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"netval/internal/config"
	"netval/internal/store"
	"netval/pkg/aibridge"
	"netval/pkg/audit"
	"netval/pkg/httpapi"
	"netval/pkg/job"
	"netval/pkg/sshpool"
	"netval/pkg/util"
	"netval/pkg/vault"
	"netval/pkg/version"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the validation service",
	Long: `Run the netvald HTTP/WebSocket service.

The service binds to the loopback interface only. State lives in a single
embedded SQLite database under ~/.netval/; credentials are encrypted at
rest in a separate vault file and never stored in the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(app.cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Bind address (default "+config.DefaultHTTPAddr+")")
}

func runServe(cfg *config.Config) error {
	addr := cfg.GetHTTPAddr()
	if serveAddr != "" {
		addr = serveAddr
	}

	dbPath := cfg.GetDBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	// A crash mid-job leaves rows stuck in queued/running; nothing will
	// ever finish them, so mark them failed up front.
	if n, err := st.FailRunningJobs(); err != nil {
		util.Warnf("cleaning up interrupted jobs: %v", err)
	} else if n > 0 {
		util.Infof("marked %d interrupted job(s) failed", n)
	}

	v, err := openVault(cfg)
	if err != nil {
		return fmt.Errorf("opening credential vault: %w", err)
	}

	auditLogger, err := buildAuditLogger(cfg, st)
	if err != nil {
		util.Warnf("audit file sink unavailable, store-only audit trail: %v", err)
	}
	audit.SetDefaultLogger(auditLogger)
	defer auditLogger.Close()

	hub := job.NewHub(cfg.GetRedisAddr())
	pool := sshpool.New(int64(cfg.GetSSHPoolSize()))
	manager := job.NewManager(st, hub, st)
	ingestion := job.NewIngestionManager(manager, st, v, pool)

	var bridge *aibridge.Bridge
	if url := cfg.GetAIBridgeURL(); url != "" {
		bridge = aibridge.New(url, cfg.GetAIBridgeModel(),
			time.Duration(cfg.GetAIBridgeTimeoutSeconds())*time.Second)
	}

	api := httpapi.New(httpapi.Config{
		Store:             st,
		Hub:               hub,
		Manager:           ingestion,
		Vault:             v,
		AI:                bridge,
		UIOrigin:          cfg.GetUIOrigin(),
		RollbackRetention: time.Duration(cfg.GetRollbackRetentionHours()) * time.Hour,
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: api,
	}

	errCh := make(chan error, 1)
	go func() {
		util.Infof("%s listening on http://%s", version.Info(), addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case sig := <-sigCh:
		util.Infof("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.Warnf("http shutdown: %v", err)
	}

	// Graceful shutdown marks running jobs failed; their
	// subscribers have already been disconnected by the HTTP shutdown.
	if n, err := st.FailRunningJobs(); err != nil {
		util.Warnf("failing running jobs at shutdown: %v", err)
	} else if n > 0 {
		util.Infof("marked %d running job(s) failed at shutdown", n)
	}

	return nil
}

// openVault builds the credential vault from the configured path, creating
// the key material on first run.
func openVault(cfg *config.Config) (*vault.Vault, error) {
	vaultPath := cfg.GetVaultPath()
	if err := os.MkdirAll(filepath.Dir(vaultPath), 0700); err != nil {
		return nil, err
	}
	salt, err := vault.LoadOrCreateSalt(vaultPath)
	if err != nil {
		return nil, err
	}
	passphrase, err := vault.LoadOrCreatePassphrase(vaultPath)
	if err != nil {
		return nil, err
	}
	return vault.New(vault.NewFileBackend(vaultPath), passphrase, salt), nil
}

// buildAuditLogger fans audit writes to the store (authoritative, queryable)
// and a rotating JSON-lines file (tail-able by operators).
func buildAuditLogger(cfg *config.Config, st *store.Store) (audit.Logger, error) {
	storeLogger := audit.NewStoreLogger(st)

	fileLogger, err := audit.NewFileLogger(cfg.GetAuditLogPath(), audit.RotationConfig{
		MaxSize:    int64(cfg.GetAuditMaxSizeMB()) * 1024 * 1024,
		MaxBackups: cfg.GetAuditMaxBackups(),
	})
	if err != nil {
		// Store-only is still a working audit trail.
		return audit.NewMultiLogger(storeLogger), err
	}
	return audit.NewMultiLogger(storeLogger, fileLogger), nil
}
