// liftbot-import bulk-loads spreadsheet training logs from a directory into
// the database. A SQLite state file remembers which files were already
// imported, so re-running over the same directory is safe.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/meltforce/liftbot/internal/config"
	"github.com/meltforce/liftbot/internal/sheet"
	"github.com/meltforce/liftbot/internal/storage"
	"github.com/meltforce/liftbot/internal/timeutil"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dir := flag.String("path", "", "directory with CSV/XLSX training logs (required)")
	telegramID := flag.Int64("user", 0, "Telegram id of the owning user (required)")
	stateDir := flag.String("state", ".liftbot-import", "directory for the import state database")
	dryRun := flag.Bool("dry-run", false, "parse and report counts without writing")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dir == "" || *telegramID == 0 {
		fmt.Fprintf(os.Stderr, "Usage: liftbot-import -config config.yaml -path /path/to/logs -user <telegram id> [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*dir)
	if err != nil || !info.IsDir() {
		log.Error("path does not exist or is not a directory", "path", *dir)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	user, err := db.GetOrCreateUser(ctx, *telegramID)
	if err != nil {
		log.Error("resolving user", "error", err)
		os.Exit(1)
	}
	loc := timeutil.UserLocation(user.TZ)

	state, err := sheet.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("opening state db", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	if *dryRun {
		log.Info("DRY RUN mode — no data will be written to the database")
	}

	var processed, skippedFiles, errored, totalWorkouts, totalSets, totalSkippedRows int
	err = filepath.WalkDir(*dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".csv" && ext != ".xlsx" {
			return nil
		}

		rel, _ := filepath.Rel(*dir, path)
		fi, err := d.Info()
		if err != nil {
			return err
		}
		hash, err := sheet.HashFile(path)
		if err != nil {
			log.Error("hashing file", "file", rel, "error", err)
			errored++
			return nil
		}
		done, err := state.IsImported(rel, fi.Size(), hash)
		if err != nil {
			return err
		}
		if done {
			skippedFiles++
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			log.Error("opening file", "file", rel, "error", err)
			errored++
			return nil
		}
		var rows []sheet.Row
		if ext == ".csv" {
			rows, err = sheet.ReadCSV(f)
		} else {
			rows, err = sheet.ReadXLSX(f)
		}
		f.Close()
		if err != nil {
			log.Error("parsing file", "file", rel, "error", err)
			errored++
			return nil
		}

		result := sheet.Parse(rows, loc)
		totalSkippedRows += result.RowsSkipped
		if *dryRun {
			for _, w := range result.Workouts {
				totalWorkouts++
				totalSets += len(w.Sets)
			}
			processed++
			return nil
		}

		workouts, sets, err := db.ImportWorkouts(ctx, user.ID, result.Workouts)
		if err != nil {
			log.Error("importing file", "file", rel, "error", err)
			errored++
			return nil
		}
		totalWorkouts += workouts
		totalSets += sets

		if _, err := db.InsertImportLog(ctx, storage.ImportLog{
			UserID:           user.ID,
			Source:           strings.TrimPrefix(ext, "."),
			Status:           "ok",
			WorkoutsInserted: workouts,
			SetsInserted:     sets,
			RowsSkipped:      result.RowsSkipped,
		}); err != nil {
			log.Error("writing import log", "file", rel, "error", err)
		}
		if err := state.MarkImported(rel, fi.Size(), hash); err != nil {
			log.Error("marking file imported", "file", rel, "error", err)
		}
		processed++
		log.Info("imported", "file", rel, "workouts", workouts, "sets", sets, "rows_skipped", result.RowsSkipped)
		return nil
	})
	if err != nil {
		log.Error("walking directory", "error", err)
		os.Exit(1)
	}

	log.Info("import stats",
		"files_processed", processed,
		"files_skipped", skippedFiles,
		"files_errored", errored,
		"workouts_inserted", totalWorkouts,
		"sets_inserted", totalSets,
		"rows_skipped", totalSkippedRows,
	)
	log.Info("import complete")
}
