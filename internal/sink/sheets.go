package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Sheet appends rows to the first worksheet of a Google spreadsheet
type Sheet struct {
	service       *sheets.Service
	label         string
	spreadsheetID string
	worksheet     string
}

// NewSheet wraps an already resolved spreadsheet
func NewSheet(service *sheets.Service, label, spreadsheetID, worksheet string) *Sheet {
	return &Sheet{
		service:       service,
		label:         label,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
	}
}

// Name identifies the sheet in logs and metrics
func (s *Sheet) Name() string {
	return "sheet:" + s.label
}

// Append adds row below the last row of the worksheet
func (s *Sheet) Append(ctx context.Context, row []string) error {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}

	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, quoteSheetRange(s.worksheet), &sheets.ValueRange{
			Values: [][]interface{}{cells},
		}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row to %s: %w", s.worksheet, err)
	}

	return nil
}

// DiscoverCredentials returns the service account files matching pattern, sorted
func DiscoverCredentials(pattern string) ([]string, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCredentials, pattern)
	}

	sort.Strings(files)
	return files, nil
}

// ConnectSheets opens sheetName once per credentials file. Files that fail are logged and skipped.
func ConnectSheets(ctx context.Context, files []string, sheetName string, logger *slog.Logger, opts ...option.ClientOption) []Sink {
	var sinks []Sink

	for _, file := range files {
		sheet, err := ConnectSheet(ctx, file, sheetName, opts...)
		if err != nil {
			logger.Warn("Skipping Google Sheets credentials file",
				slog.String("credentials_file", file),
				slog.Any("error", err),
			)
			continue
		}

		logger.Info("Connected to Google Sheet",
			slog.String("credentials_file", file),
			slog.String("sheet", sheetName),
			slog.String("worksheet", sheet.worksheet),
		)
		sinks = append(sinks, sheet)
	}

	return sinks
}

// ConnectSheet authenticates with a service account file and resolves sheetName to its first worksheet
func ConnectSheet(ctx context.Context, credentialsFile, sheetName string, opts ...option.ClientOption) (*Sheet, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	label := strings.TrimSuffix(filepath.Base(credentialsFile), filepath.Ext(credentialsFile))

	return connectSheet(ctx, data, label, sheetName, opts...)
}

func connectSheet(ctx context.Context, credentials []byte, label, sheetName string, opts ...option.ClientOption) (*Sheet, error) {
	jwtConfig, err := google.JWTConfigFromJSON(credentials, sheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}

	clientOpts := append([]option.ClientOption{option.WithHTTPClient(jwtConfig.Client(ctx))}, opts...)

	sheetsService, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	driveService, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	spreadsheetID, err := findSpreadsheet(ctx, driveService, sheetName)
	if err != nil {
		return nil, err
	}

	spreadsheet, err := sheetsService.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet %q: %w", sheetName, err)
	}
	if len(spreadsheet.Sheets) == 0 || spreadsheet.Sheets[0].Properties == nil {
		return nil, fmt.Errorf("spreadsheet %q has no worksheets", sheetName)
	}

	return NewSheet(sheetsService, label, spreadsheetID, spreadsheet.Sheets[0].Properties.Title), nil
}

// findSpreadsheet looks a spreadsheet up by exact title among the files shared with the account
func findSpreadsheet(ctx context.Context, service *drive.Service, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeDriveQuery(name), spreadsheetMimeType)

	list, err := service.Files.List().
		Q(query).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to search spreadsheet %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: %s", ErrSpreadsheetNotFound, name)
	}

	return list.Files[0].Id, nil
}

func escapeDriveQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func quoteSheetRange(worksheet string) string {
	return "'" + strings.ReplaceAll(worksheet, "'", "''") + "'!A1"
}
