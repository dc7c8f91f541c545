package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/lachb/grazier/internal/config"
	"github.com/lachb/grazier/internal/domain/models"
)

const (
	snapshotRange = "Valuations!A:H"
	dateLayout    = "2006-01-02"
)

// Exporter appends portfolio valuation snapshots to a reporting spreadsheet.
type Exporter interface {
	AppendSnapshot(ctx context.Context, snapshot models.ValuationSnapshot) error
}

// GoogleSheetExporter implements Exporter using the official Google Sheets API.
type GoogleSheetExporter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetExporter builds a Google Sheets backed exporter instance.
func NewGoogleSheetExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetExporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendSnapshot appends one summary row to the valuations sheet.
func (e *GoogleSheetExporter) AppendSnapshot(ctx context.Context, snapshot models.ValuationSnapshot) error {
	values := []interface{}{
		snapshot.AsOf.Format(dateLayout),
		snapshot.UnrealizedGross.String(),
		snapshot.UnrealizedNet.String(),
		snapshot.RealizedTotal.String(),
		snapshot.ValuedHerds,
		snapshot.UnvaluedHerds,
		snapshot.SoldHerds,
		snapshot.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, snapshotRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append snapshot row into range %s: %w", snapshotRange, err)
	}

	e.logger.Debug("valuation snapshot exported", zap.Time("as_of", snapshot.AsOf))
	return nil
}
