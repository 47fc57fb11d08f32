package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/annetmii/annetmii-english-camp/internal/config"
	"github.com/annetmii/annetmii-english-camp/internal/database"
	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/repository"
	"github.com/annetmii/annetmii-english-camp/internal/service"
)

// app holds what every subcommand needs once the database is open
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB
	backup *service.BackupService
}

func main() {
	a := &app{}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "backup",
		Short:        "Export and import English Camp users and submissions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
		Long: `Export and import English Camp users and submissions as JSON.

Environment variables:
  DB_TYPE        sqlite, postgres or mysql (default: sqlite)
  DB_PATH        SQLite database path (default: ./englishcamp.db)
  DATABASE_URL   PostgreSQL or MySQL connection URL`,
	}

	root.AddCommand(newExportCmd(a), newImportCmd(a), newMigrateCmd(a))
	return root
}

func (a *app) open(ctx context.Context) error {
	a.cfg = config.Load()

	log, err := logger.New(a.cfg.LogMode)
	if err != nil {
		return err
	}
	a.log = log

	db, err := database.InitializeWithConfig(a.cfg)
	if err != nil {
		return err
	}
	a.db = db

	// Run migrations to ensure schema is up to date
	if _, err := db.RunMigrations(ctx); err != nil {
		return err
	}

	a.backup = service.NewBackupService(
		repository.NewUserRepository(db),
		repository.NewSubmissionRepository(db),
		a.cfg.DatabaseType,
		log,
	)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.log != nil {
		a.log.Sync()
	}
}

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the database to a JSON file",
		Example: `  backup export
  backup export --output backups/camp.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
			}
			if dir := filepath.Dir(output); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			a.log.Info("exporting database", "output", output)
			if err := a.backup.Export(cmd.Context(), output); err != nil {
				return err
			}

			info, err := os.Stat(output)
			if err != nil {
				return err
			}
			a.log.Info("export complete", "output", output, "bytes", info.Size())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var (
		input     string
		clearData bool
		yes       bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import users and submissions from a JSON file",
		Long: `Import users and submissions from a JSON file.

Rows that already exist are skipped, so an import merges into the current data
unless --clear is given.`,
		Example: `  backup import --input backup.json
  backup import --input backup.json --clear`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(input); err != nil {
				return fmt.Errorf("input file: %w", err)
			}

			if clearData {
				if !yes && !confirm(cmd, "WARNING: This will delete all existing data. Type 'yes' to confirm: ") {
					a.log.Info("import cancelled")
					return nil
				}
				if err := clearDatabase(cmd.Context(), a.db, a.log); err != nil {
					return err
				}
			}

			a.log.Info("importing database", "input", input)
			stats, err := a.backup.Import(cmd.Context(), input)
			if err != nil {
				return err
			}
			a.log.Info("import complete",
				"users_restored", stats.UsersRestored,
				"users_skipped", stats.UsersSkipped,
				"submissions_restored", stats.SubmissionsRestored,
				"submissions_skipped", stats.SubmissionsSkipped,
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input file path")
	cmd.Flags().BoolVar(&clearData, "clear", false, "clear existing data before import (destructive)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the --clear confirmation prompt")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(*cobra.Command, []string) error {
			// migrations already ran while opening the database
			a.log.Info("schema is up to date", "type", a.db.Dialect.Name())
			return nil
		},
	}
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}

// clearDatabase deletes every row, children first
func clearDatabase(ctx context.Context, db *database.DB, log *logger.Logger) error {
	return db.WithTx(ctx, func(tx *database.Tx) error {
		for _, table := range []string{"submissions", "sessions", "users"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			log.Info("cleared table", "table", table)
		}
		return nil
	})
}
