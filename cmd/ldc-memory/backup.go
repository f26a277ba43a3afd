package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tpcministries/ldc-command-center/internal/backup"
	"github.com/tpcministries/ldc-command-center/internal/config"
)

const backupLongDesc string = `Snapshot the SQLite database with VACUUM INTO, verify the snapshot and
prune old snapshots by the tiered retention policy in the backup config.

Snapshots are consistent while serve is running. Restore is not: stop
serve before restoring.`

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the SQLite database",
		Long:  backupLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newBackupService(cmd)
			if err != nil {
				return err
			}
			result, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.AddCommand(newBackupListCmd())
	cmd.AddCommand(newBackupRestoreCmd())
	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newBackupService(cmd)
			if err != nil {
				return err
			}
			status, err := svc.Status()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <snapshot>",
		Short: "Replace the database with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newBackupService(cmd)
			if err != nil {
				return err
			}
			if err := svc.Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
			return err
		},
	}
}

func newBackupService(cmd *cobra.Command) (*backup.Service, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Engine != "sqlite" {
		return nil, errors.New("backup supports sqlite storage only; use pg_dump for postgres")
	}
	return backup.NewService(backupConfig(cfg), backup.WithLogger(logger))
}

func backupConfig(cfg *config.Config) backup.Config {
	return backup.Config{
		DBPath: cfg.Storage.SQLitePath(),
		Dir:    cfg.BackupDir(),
		Verify: cfg.Backup.Verify,
		Retention: backup.RetentionPolicy{
			Hourly:  cfg.Backup.Hourly,
			Daily:   cfg.Backup.Daily,
			Weekly:  cfg.Backup.Weekly,
			Monthly: cfg.Backup.Monthly,
		},
	}
}
