package bot

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/meltforce/liftbot/internal/metrics"
	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/sheet"
	"github.com/meltforce/liftbot/internal/storage"
)

func (b *Bot) handleExportCallback(ctx context.Context, chatID int64, user models.UserRow, parts []string) {
	if len(parts) < 2 {
		return
	}
	rows, err := b.db.TrainingLog(ctx, user.ID)
	if err != nil {
		b.reportError(chatID, "export", err)
		return
	}
	if len(rows) == 0 {
		b.send(chatID, "Nothing to export yet.")
		return
	}

	var buf bytes.Buffer
	var name string
	switch parts[1] {
	case "csv":
		name = "training.csv"
		err = sheet.WriteCSV(&buf, rows)
	case "xlsx":
		name = "training.xlsx"
		err = sheet.WriteXLSX(&buf, rows)
	default:
		return
	}
	if err != nil {
		b.reportError(chatID, "export", err)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: buf.Bytes()})
	if _, err := b.api.Send(doc); err != nil {
		b.log.Error("sending export", "chat_id", chatID, "error", err)
		b.send(chatID, "Sending the file failed, please try again later.")
		return
	}
	metrics.UpdatesHandled.WithLabelValues("export", metrics.OutcomeOK).Inc()
}

// handleImportDocument ingests an uploaded CSV or XLSX training log. Every
// run leaves an import-log row, successful or not.
func (b *Bot) handleImportDocument(ctx context.Context, chatID int64, user models.UserRow, doc *tgbotapi.Document) {
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".csv" && ext != ".xlsx" {
		b.send(chatID, "Send a .csv or .xlsx file with the columns Date, Workout, Exercise, Set, Reps, Weight, RIR, Notes.")
		return
	}

	data, err := b.downloadFile(ctx, doc.FileID)
	if err != nil {
		b.reportError(chatID, "import", err)
		return
	}

	var rows []sheet.Row
	if ext == ".csv" {
		rows, err = sheet.ReadCSV(bytes.NewReader(data))
	} else {
		rows, err = sheet.ReadXLSX(bytes.NewReader(data))
	}
	source := strings.TrimPrefix(ext, ".")
	if err != nil {
		b.logImport(ctx, user.ID, source, storage.ImportLog{Status: "error"}, err)
		b.send(chatID, "Could not read that file: "+err.Error())
		return
	}

	result := sheet.Parse(rows, userLocation(user))
	workouts, sets, err := b.db.ImportWorkouts(ctx, user.ID, result.Workouts)
	log := storage.ImportLog{
		Status:           "ok",
		WorkoutsInserted: workouts,
		SetsInserted:     sets,
		RowsSkipped:      result.RowsSkipped,
	}
	if err != nil {
		log.Status = "error"
		b.logImport(ctx, user.ID, source, log, err)
		b.reportError(chatID, "import", err)
		return
	}
	b.logImport(ctx, user.ID, source, log, nil)

	metrics.ImportRows.WithLabelValues("imported").Add(float64(sets))
	metrics.ImportRows.WithLabelValues("skipped").Add(float64(result.RowsSkipped))
	b.send(chatID, fmt.Sprintf("Imported %d workouts with %d sets. Skipped %d rows.",
		workouts, sets, result.RowsSkipped))
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolving file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading file: unexpected status %s", resp.Status)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("reading file body: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *Bot) logImport(ctx context.Context, userID int64, source string, log storage.ImportLog, cause error) {
	log.UserID = userID
	log.Source = source
	if cause != nil {
		msg := cause.Error()
		log.ErrorMessage = &msg
	}
	if _, err := b.db.InsertImportLog(ctx, log); err != nil {
		b.log.Error("writing import log", "error", err)
	}
}
