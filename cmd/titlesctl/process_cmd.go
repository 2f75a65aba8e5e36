package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rpattn/landtitles/internal/db"
	"github.com/rpattn/landtitles/internal/export"
	"github.com/rpattn/landtitles/internal/ingestion"
	"github.com/rpattn/landtitles/internal/table"
	"github.com/rpattn/landtitles/internal/titles"
)

type processOptions struct {
	output string
}

func newProcessCmd(global *globalOptions) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Load an .xlsx or database file and write the export workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadFile(cmd.Context(), global, args[0])
			if err != nil {
				return err
			}
			return runProcess(global, set, opts.output)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", export.FileName, "Path of the workbook to write")
	return cmd
}

func newProcessPostgresCmd(global *globalOptions) *cobra.Command {
	var opts processOptions
	var schema string

	cmd := &cobra.Command{
		Use:   "process-postgres",
		Short: "Read the tables of a Postgres schema and write the export workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadPostgres(cmd.Context(), global, schema)
			if err != nil {
				return err
			}
			return runProcess(global, set, opts.output)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", export.FileName, "Path of the workbook to write")
	cmd.Flags().StringVar(&schema, "schema", "", "Schema to read (default: database.schema from config)")
	return cmd
}

func loadFile(ctx context.Context, global *globalOptions, path string) (*table.Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	defer file.Close()

	svc := ingestion.NewService(
		ingestion.WithHostDatabaseDrivers(global.cfg.Ingestion.AllowDatabaseFiles),
		ingestion.WithODBCDriver(global.cfg.Ingestion.AccessODBCDriver),
		ingestion.WithTempDir(global.cfg.Ingestion.TempDir),
		ingestion.WithMaxUploadBytes(global.cfg.Ingestion.MaxUploadBytes),
		ingestion.WithLogger(global.log),
	)
	set, err := svc.Load(ctx, ingestion.Request{FileName: filepath.Base(path), Data: file})
	if err != nil {
		if errors.Is(err, ingestion.ErrUnsupportedFormat) || errors.Is(err, ingestion.ErrUnsupportedEnvironment) {
			return nil, withCode(exitValidation, err)
		}
		return nil, withCode(exitFailure, err)
	}
	return set, nil
}

func loadPostgres(ctx context.Context, global *globalOptions, schema string) (*table.Set, error) {
	cfg := global.cfg.Database
	if schema == "" {
		schema = cfg.Schema
	}

	conn, err := db.NewConnection(ctx, cfg)
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	defer conn.Close()

	set, err := ingestion.NewPostgresSource(conn.Pool, schema).Tables(ctx)
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	global.log.Info("postgres tables loaded", map[string]interface{}{
		"schema": schema,
		"tables": set.Names(),
	})
	return set, nil
}

func runProcess(global *globalOptions, set *table.Set, output string) error {
	result, err := titles.Process(set)
	if err != nil {
		if errors.Is(err, titles.ErrMissingTables) {
			return withCode(exitValidation, err)
		}
		return withCode(exitFailure, err)
	}

	if err := writeExport(output, result); err != nil {
		return withCode(exitFailure, err)
	}

	global.log.Info("export written", map[string]interface{}{
		"output":       output,
		"full_rows":    result.Full.Len(),
		"compact_rows": result.Compact.Len(),
	})
	return nil
}

// writeExport writes next to the target and renames so a failed run leaves no
// partial workbook behind.
func writeExport(output string, result *titles.Result) error {
	dir := filepath.Dir(output)
	tmp, err := os.CreateTemp(dir, ".titles-export-*.xlsx")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := export.WriteWorkbook(tmp, result.Full, result.Compact); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmpPath, output); err != nil {
		return fmt.Errorf("finalize export file: %w", err)
	}
	return nil
}
