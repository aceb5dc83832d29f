package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/config"
	"github.com/recallhq/recall/internal/notes"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the git-backed note catalog",
	RunE:  runSync,
}

var syncConfigPath string

func init() {
	syncCmd.Flags().StringVar(&syncConfigPath, "config", "", "path to YAML config file")
	syncCmd.Flags().String("notes.git_url", "", "git repository of markdown notes")
	syncCmd.Flags().String("notes.cache_dir", "", "checkout directory for git-backed notes")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(syncConfigPath, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Notes.GitURL == "" {
		return fmt.Errorf("notes.git_url is not configured")
	}

	cacheDir, err := notesCacheDir(cfg.Notes.CacheDir)
	if err != nil {
		return err
	}
	if err := notes.SyncRepo(cfg.Notes.GitURL, cacheDir); err != nil {
		return err
	}

	catalog, err := notes.LoadDir(cacheDir)
	if err != nil {
		return fmt.Errorf("load notes: %w", err)
	}
	slog.Info("notes synced", "path", cacheDir, "notes", catalog.Len())
	return nil
}
