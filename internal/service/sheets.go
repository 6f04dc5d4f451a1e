package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/tableagent/tableagent/internal/models"
)

// CredentialProvider hands out a valid Google token. *Authenticator implements it.
type CredentialProvider interface {
	Authenticate(ctx context.Context) (*oauth2.Token, error)
}

// SheetsConfig controls how spreadsheet values are fetched.
type SheetsConfig struct {
	DefaultRange string
	Timeout      time.Duration
	// FailOnFetchError returns ErrUpstreamFetch instead of an empty result.
	FailOnFetchError bool
}

// SheetsService reads tool catalogs from Google Sheets. It never writes.
type SheetsService struct {
	svc  *sheets.Service
	auth CredentialProvider
	cfg  SheetsConfig
}

// NewSheetsService builds the Sheets client once; the credential is only
// requested when data is fetched.
func NewSheetsService(ctx context.Context, auth CredentialProvider, cfg SheetsConfig, opts ...option.ClientOption) (*SheetsService, error) {
	if cfg.DefaultRange == "" {
		cfg.DefaultRange = "A:C"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientOpts := append([]option.ClientOption{
		option.WithTokenSource(providerTokenSource{provider: auth}),
	}, opts...)

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("sheets.NewService: %w", err)
	}
	return &SheetsService{svc: svc, auth: auth, cfg: cfg}, nil
}

// GetSheetData returns the raw cell values of rangeName (the default range
// when empty). Short rows are not padded. Fetch failures are handled by
// handleFetchError; authentication failures always propagate.
func (s *SheetsService) GetSheetData(ctx context.Context, spreadsheetID, rangeName string) ([][]string, error) {
	if rangeName == "" {
		rangeName = s.cfg.DefaultRange
	}
	if _, err := s.auth.Authenticate(ctx); err != nil {
		return nil, err
	}

	rows, err := s.fetchValues(ctx, spreadsheetID, rangeName)
	if err != nil {
		return nil, s.handleFetchError(spreadsheetID, rangeName, err)
	}
	return rows, nil
}

// GetToolsData fetches the default range and maps it to tool records.
func (s *SheetsService) GetToolsData(ctx context.Context, spreadsheetID string) ([]models.ToolRecord, error) {
	rows, err := s.GetSheetData(ctx, spreadsheetID, "")
	if err != nil {
		return nil, err
	}
	return RowsToTools(rows), nil
}

// FindToolByName returns the first tool whose name contains query, ignoring case.
func (s *SheetsService) FindToolByName(ctx context.Context, spreadsheetID, query string) (*models.ToolRecord, error) {
	tools, err := s.GetToolsData(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}
	if tool, ok := FindTool(tools, query); ok {
		return &tool, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrToolNotFound, query)
}

func (s *SheetsService) fetchValues(ctx context.Context, spreadsheetID, rangeName string) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, rangeName).Context(ctx).Do()
	if err != nil {
		if errors.Is(err, ErrAuthentication) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: spreadsheet %s range %s: %w", ErrUpstreamFetch, spreadsheetID, rangeName, err)
	}

	log.Debug().
		Str("spreadsheet_id", spreadsheetID).
		Str("range", rangeName).
		Int("rows", len(resp.Values)).
		Dur("duration", time.Since(start)).
		Msg("spreadsheet values fetched")

	return cellsToStrings(resp.Values), nil
}

// handleFetchError is the single place deciding what a failed fetch means.
// By default the failure is logged and the caller sees an empty sheet.
func (s *SheetsService) handleFetchError(spreadsheetID, rangeName string, err error) error {
	if errors.Is(err, ErrAuthentication) || s.cfg.FailOnFetchError {
		return err
	}
	log.Warn().
		Err(err).
		Str("spreadsheet_id", spreadsheetID).
		Str("range", rangeName).
		Msg("spreadsheet fetch failed, returning empty result")
	return nil
}

// RowsToTools keeps every row whose first two cells are populated. RowNumber
// is the row's 1-based position in rows, so skipped rows leave gaps.
func RowsToTools(rows [][]string) []models.ToolRecord {
	tools := make([]models.ToolRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 || isBlank(row[0]) || isBlank(row[1]) {
			continue
		}
		tool := models.ToolRecord{
			RowNumber: i + 1,
			Name:      row[0],
			URL:       row[1],
		}
		if len(row) > 2 && !isBlank(row[2]) {
			desc := row[2]
			tool.Description = &desc
		}
		tools = append(tools, tool)
	}
	return tools
}

// FindTool returns the first tool whose name contains query, ignoring case.
func FindTool(tools []models.ToolRecord, query string) (models.ToolRecord, bool) {
	q := strings.ToLower(query)
	for _, tool := range tools {
		if strings.Contains(strings.ToLower(tool.Name), q) {
			return tool, true
		}
	}
	return models.ToolRecord{}, false
}

func cellsToStrings(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			switch c := v.(type) {
			case nil:
			case string:
				cells[j] = c
			default:
				cells[j] = fmt.Sprint(c)
			}
		}
		rows[i] = cells
	}
	return rows
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

type providerTokenSource struct {
	provider CredentialProvider
}

func (s providerTokenSource) Token() (*oauth2.Token, error) {
	return s.provider.Authenticate(context.Background())
}
