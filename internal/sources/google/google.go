// Package google reads the synced accounting feed, the payroll roster and
// the channel metrics from a Google spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"finboard/internal/core"
	"finboard/internal/sources"
	"finboard/internal/sources/mapping"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var (
	_ sources.AggregateReader      = (*Client)(nil)
	_ sources.RosterReader         = (*Client)(nil)
	_ sources.ChannelMetricsReader = (*Client)(nil)
)

// SheetNames are the tab names read by the client. An empty name disables
// the corresponding read.
type SheetNames struct {
	Transactions string
	KPIs         string
	Projections  string
	Payroll      string
	Channels     string
}

func DefaultSheetNames() SheetNames {
	return SheetNames{
		Transactions: "Transactions",
		KPIs:         "KPIs",
		Projections:  "Projections",
		Payroll:      "Payroll",
		Channels:     "Channels",
	}
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheets        SheetNames
	logger        *slog.Logger
}

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID string, sheets SheetNames, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheets: sheets, logger: logger}
}

// Credentials selects how the client authenticates. A service account key
// (JSON wins over File) takes precedence over an OAuth user token.
type Credentials struct {
	JSON string
	File string

	// OAuthClientJSON or OAuthClientFile hold the installed-app client and
	// OAuthTokenFile the token saved by the consent flow.
	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenFile  string
}

// HasServiceAccount reports whether a service account key is configured.
func (c Credentials) HasServiceAccount() bool {
	return strings.TrimSpace(c.JSON) != "" || strings.TrimSpace(c.File) != ""
}

// HasOAuth reports whether an OAuth client and token file are configured.
func (c Credentials) HasOAuth() bool {
	client := strings.TrimSpace(c.OAuthClientJSON) != "" || strings.TrimSpace(c.OAuthClientFile) != ""
	return client && strings.TrimSpace(c.OAuthTokenFile) != ""
}

// NewService builds a read-only Sheets service. Extra options are appended,
// which tests use to point the client at a fake endpoint.
func NewService(ctx context.Context, creds Credentials, opts ...goption.ClientOption) (*gsheet.Service, error) {
	var auth []goption.ClientOption
	switch {
	case creds.HasServiceAccount():
		raw := []byte(creds.JSON)
		if strings.TrimSpace(creds.JSON) == "" {
			b, err := os.ReadFile(creds.File)
			if err != nil {
				return nil, fmt.Errorf("read service account file: %w", err)
			}
			raw = b
		}
		auth = []goption.ClientOption{
			goption.WithCredentialsJSON(raw),
			goption.WithScopes(gsheet.SpreadsheetsReadonlyScope),
		}
	case creds.HasOAuth():
		ts, err := oauthTokenSource(ctx, creds)
		if err != nil {
			return nil, err
		}
		auth = []goption.ClientOption{goption.WithTokenSource(ts)}
	default:
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or an OAuth client and token)")
	}
	svc, err := gsheet.NewService(ctx, append(auth, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// FetchAggregateReport assembles the aggregate from the KPI, projection and
// transaction tabs. Only the KPI tab is required.
func (c *Client) FetchAggregateReport(ctx context.Context) (core.Aggregate, error) {
	if c.svc == nil {
		return core.Aggregate{}, errors.New("sheets service not initialized")
	}
	kv, err := c.read(ctx, c.sheets.KPIs, "A:B")
	if err != nil {
		return core.Aggregate{}, err
	}
	kpis, tag := mapping.KPIs(kv)
	agg := core.Aggregate{KPIs: kpis, DataSource: tag}

	if c.sheets.Projections != "" {
		rows, err := c.read(ctx, c.sheets.Projections, "A:C")
		if err != nil {
			c.logger.WarnContext(ctx, "Projections unavailable", "sheet", c.sheets.Projections, "error", err)
		} else {
			agg.Projections = mapping.Projections(rows)
		}
	}
	if c.sheets.Transactions != "" {
		rows, err := c.read(ctx, c.sheets.Transactions, "A:Z")
		if err != nil {
			return core.Aggregate{}, err
		}
		txs, skipped := mapping.Transactions(rows, core.SourceSynced, c.sheets.Transactions+"!")
		if skipped > 0 {
			c.logger.WarnContext(ctx, "Skipped unreadable feed rows", "sheet", c.sheets.Transactions, "count", skipped)
		}
		agg.EmbeddedTransactions = txs
	}
	return agg, nil
}

func (c *Client) ListPayroll(ctx context.Context) ([]core.PayrollEntry, error) {
	if c.svc == nil || c.sheets.Payroll == "" {
		return nil, sources.ErrNotConnected
	}
	rows, err := c.read(ctx, c.sheets.Payroll, "A:Z")
	if err != nil {
		return nil, err
	}
	return mapping.Payroll(rows), nil
}

func (c *Client) FetchChannelMetrics(ctx context.Context, ch core.Channel) (core.ChannelMetrics, error) {
	if c.svc == nil || c.sheets.Channels == "" {
		return core.ChannelMetrics{}, sources.ErrNotConnected
	}
	rows, err := c.read(ctx, c.sheets.Channels, "A:Z")
	if err != nil {
		return core.ChannelMetrics{}, err
	}
	m, ok := mapping.Channels(rows)[ch]
	if !ok {
		return core.ChannelMetrics{}, fmt.Errorf("channel %s: %w", ch, sources.ErrNotConnected)
	}
	return m, nil
}

func (c *Client) read(ctx context.Context, sheet, cols string) ([][]string, error) {
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = toStrings(row)
	}
	return out, nil
}

// toStrings renders cells as text. Numbers keep full precision without
// exponent notation so they survive amount parsing.
func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}
