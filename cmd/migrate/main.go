package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"alarmserver/internal/config"
	"alarmserver/internal/logger"
	"alarmserver/internal/repository/sqlite"
	"alarmserver/internal/service/storage"
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Index existing captures into the database",
	Long: `Scans the capture directory for image_<YYYYMMDD-HHMMSS>.jpg files and
adds every file missing from the capture index. Face counts and object
detections of such files are unknown and left empty.`,
	SilenceUsage: true,
	RunE:         runMigrate,
}

func init() {
	rootCmd.Flags().String("captures", "", "Directory containing captures (overrides CAPTURE_DIR)")
	rootCmd.Flags().String("db", "", "Database path (overrides DATABASE_PATH)")
	rootCmd.Flags().String("env-file", ".env", "Environment file to load")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg := config.Load(envFile)
	if dir, _ := cmd.Flags().GetString("captures"); dir != "" {
		cfg.CaptureDirectory = dir
	}
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}

	fmt.Printf("Indexing captures from %s into %s\n", cfg.CaptureDirectory, cfg.DatabasePath)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	retention := storage.NewRetentionService(cfg, logger.NewNop(), sqlite.NewCaptureRepository(db), sqlite.NewDetectionRepository(db))
	result, err := retention.Reindex()
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d new capture(s), %d already present\n", result.Indexed, result.Present)
	if result.Skipped > 0 {
		fmt.Printf("Skipped %d file(s) with an unrecognized name\n", result.Skipped)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
