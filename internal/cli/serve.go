package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/config"
	"github.com/recallhq/recall/internal/notes"
	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review scheduler HTTP API",
	RunE:  runServe,
}

var configPath string

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	serveCmd.Flags().String("server.bind", "", "address to bind")
	serveCmd.Flags().Int("server.port", 0, "port to listen on")
	serveCmd.Flags().String("database.path", "", "path to the sqlite database")
	serveCmd.Flags().String("notes.dir", "", "directory of markdown notes")
	serveCmd.Flags().String("notes.git_url", "", "git repository of markdown notes")
	serveCmd.Flags().String("notes.cache_dir", "", "checkout directory for git-backed notes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = storage.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	catalog, err := buildCatalog(cfg.Notes)
	if err != nil {
		return err
	}
	slog.Info("note catalog loaded", "notes", catalog.Len())

	srv := web.NewServer(db, catalog)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: srv,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("recall serving", "addr", cfg.ListenAddr(), "db", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

// buildCatalog assembles the note catalog from config: a git-backed
// checkout, a local directory, or empty when neither is configured.
func buildCatalog(cfg config.NotesConfig) (*notes.Memory, error) {
	if cfg.GitURL != "" {
		cacheDir, err := notesCacheDir(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		if err := notes.SyncRepo(cfg.GitURL, cacheDir); err != nil {
			return nil, fmt.Errorf("sync notes repo: %w", err)
		}
		catalog, err := notes.LoadDir(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("load notes: %w", err)
		}
		return catalog, nil
	}

	if cfg.Dir != "" {
		catalog, err := notes.LoadDir(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("load notes: %w", err)
		}
		return catalog, nil
	}

	slog.Warn("no notes source configured; catalog is empty")
	return notes.NewMemory(), nil
}

func notesCacheDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".recall", "notes"), nil
}
