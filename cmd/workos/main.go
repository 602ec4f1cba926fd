package main

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"workos-go/internal/app"
	"workos-go/internal/config"
	"workos-go/internal/database"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Restore", "Housekeep").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// printResult renders a result record as indented JSON on stdout.
func printResult(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "workos",
	Short: "Personal work management tool",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:        %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:         %s\n", cfg.LogDir)
		fmt.Printf("Record Store:    %s\n", cfg.Database.Path)
		fmt.Printf("Attachments Dir: %s\n", cfg.Attachments.Dir)
		fmt.Printf("Docs Dir:        %s\n", cfg.Restore.DocsDir)
		fmt.Printf("Scratch Dir:     %s\n", cfg.Restore.ScratchDir)
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Backup and restore",
}

var backupValidateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Validate a backup file without restoring it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Validate")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.ValidateFile(args[0])
		if err != nil {
			return err
		}
		if err := printResult(res); err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("backup file failed validation")
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore FILE",
	Short: "Replace all application state from a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.RestoreFile(args[0])
		if err != nil {
			return err
		}
		if err := printResult(res); err != nil {
			return err
		}
		if !res.OK {
			return fmt.Errorf("restore failed at stage %q", res.Stage)
		}
		return nil
	},
}

var backupCreateCmd = &cobra.Command{
	Use:   "create OUT",
	Short: "Write a full backup archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Export")
		if err != nil {
			return err
		}
		defer a.Close()

		counts, err := a.ExportTo(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Backup written to %s (%d tasks, %d events, %d documents, %d attachments)\n",
			args[0], counts.Tasks, counts.Events, counts.Documents, counts.Attachments)
		return nil
	},
}

var backupHousekeepCmd = &cobra.Command{
	Use:   "housekeep",
	Short: "Remove old safety copies and stale scratch directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Housekeep")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Housekeep()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d record-store copies, %d attachment copies, %d scratch directories\n",
			report.RemovedRecordCopies, report.RemovedAttachmentCopies, report.RemovedScratchDirs)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the record store",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		store, err := database.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening record store: %w", err)
		}
		defer store.Close()

		if err := store.Migrate(); err != nil {
			return fmt.Errorf("migrating record store: %w", err)
		}
		fmt.Println("Record store is up to date.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configListCmd)
	backupCmd.AddCommand(backupValidateCmd, backupRestoreCmd, backupCreateCmd, backupHousekeepCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	rootCmd.AddCommand(configCmd, backupCmd, dbCmd)
}
