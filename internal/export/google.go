package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// GoogleConfig configures the Sheets exporter. Exactly one of CredentialsJSON
// or CredentialsFile must be set.
type GoogleConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// GoogleClient appends change rows to one sheet of a spreadsheet using a
// service account.
type GoogleClient struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ Exporter = (*GoogleClient)(nil)

func NewGoogleClient(ctx context.Context, cfg GoogleConfig) (*GoogleClient, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	creds, err := resolveCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Changes"
	}

	return &GoogleClient{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func resolveCredentials(cfg GoogleConfig) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		creds, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return creds, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// AppendChange adds one row to the change sheet and returns the updated
// range reported by the API.
func (c *GoogleClient) AppendChange(ctx context.Context, row Row) (string, error) {
	values := &gsheet.ValueRange{Values: [][]any{{
		time.Now().UTC().Format(time.RFC3339),
		row.ScopeID,
		row.Op,
		row.RecordID,
		row.OccurredAt,
		row.Amount,
		row.Desc,
		strings.Join(row.Categories, ", "),
	}}}

	resp, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.sheetName+"!A:H", values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	if resp.Updates == nil {
		return "", nil
	}
	return resp.Updates.UpdatedRange, nil
}
