/*
Package sheets provides a row store over the Google Sheets v4 values API.

PURPOSE:
  Production persistence. Coordinators read and hand-edit the timesheet in
  the spreadsheet, so the engine writes exactly the cells a person would:
  one appended row per clock-in, three cells per clock-out.

INTERFACES IMPLEMENTED:
  generic.RowStore:     values.get, values.append, values.update
  generic.RangeUpdater: values.update over a one-row range

  It does NOT implement generic.GuardedStore. The API has no conditional
  write, so check-then-write is only serialized within one process.

AUTH:
  A service account key file (the JSON downloaded from the cloud console)
  is exchanged for tokens with the JWT bearer flow. Tests inject an
  *http.Client instead.

DATASETS:
  Each dataset maps to a spreadsheet ID. Ranges are passed through as-is
  ("Sheet1!A:H").

SEE ALSO:
  - generic/store.go: Interface definitions
  - store/cache: read cache decorator used in front of this store
*/
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/warp/timesheet-engine/generic"
	"golang.org/x/oauth2/jwt"
)

const (
	defaultBaseURL  = "https://sheets.googleapis.com"
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	scopeSheets     = "https://www.googleapis.com/auth/spreadsheets"
)

// Config configures the store.
type Config struct {
	// CredentialsFile is the service account key JSON. Ignored when
	// HTTPClient is set.
	CredentialsFile string

	// Spreadsheets maps a dataset name to its spreadsheet ID.
	Spreadsheets map[string]string

	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Store is a Google Sheets backed generic.RowStore.
type Store struct {
	httpClient   *http.Client
	baseURL      string
	spreadsheets map[string]string
}

// serviceAccount is the subset of the key file the JWT flow needs.
type serviceAccount struct {
	ClientEmail  string `json:"client_email"`
	PrivateKey   string `json:"private_key"`
	PrivateKeyID string `json:"private_key_id"`
	TokenURI     string `json:"token_uri"`
}

// New creates a store. Without cfg.HTTPClient it authenticates with the
// service account in cfg.CredentialsFile.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if len(cfg.Spreadsheets) == 0 {
		return nil, fmt.Errorf("sheets: no spreadsheet IDs configured")
	}

	client := cfg.HTTPClient
	if client == nil {
		var err error
		if client, err = serviceAccountClient(ctx, cfg.CredentialsFile); err != nil {
			return nil, err
		}
	}
	if cfg.Timeout > 0 {
		c := *client
		c.Timeout = cfg.Timeout
		client = &c
	}

	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Store{httpClient: client, baseURL: base, spreadsheets: cfg.Spreadsheets}, nil
}

func serviceAccountClient(ctx context.Context, path string) (*http.Client, error) {
	if path == "" {
		return nil, fmt.Errorf("sheets: credentials file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sheets: reading credentials: %w", err)
	}
	var sa serviceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("sheets: decoding credentials: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, fmt.Errorf("sheets: credentials file is not a service account key")
	}
	tokenURL := sa.TokenURI
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}

	conf := &jwt.Config{
		Email:        sa.ClientEmail,
		PrivateKey:   []byte(sa.PrivateKey),
		PrivateKeyID: sa.PrivateKeyID,
		Scopes:       []string{scopeSheets},
		TokenURL:     tokenURL,
	}
	return conf.Client(ctx), nil
}

// =============================================================================
// ROW STORE (generic.RowStore interface)
// =============================================================================

// valueRange is the body of values.get, values.append and values.update.
type valueRange struct {
	Range          string  `json:"range,omitempty"`
	MajorDimension string  `json:"majorDimension,omitempty"`
	Values         [][]any `json:"values"`
}

func (s *Store) ReadRows(ctx context.Context, dataset, rng string) ([][]string, error) {
	endpoint, err := s.valuesURL(dataset, rng, "", nil)
	if err != nil {
		return nil, storeErr("read", dataset, err)
	}

	var vr valueRange
	if err := s.do(ctx, http.MethodGet, endpoint, nil, &vr); err != nil {
		return nil, storeErr("read", dataset, err)
	}
	return toStrings(vr.Values), nil
}

func (s *Store) AppendRows(ctx context.Context, dataset, rng string, rows [][]string) error {
	endpoint, err := s.valuesURL(dataset, rng, ":append", url.Values{
		"valueInputOption": {"RAW"},
		"insertDataOption": {"INSERT_ROWS"},
	})
	if err != nil {
		return storeErr("append", dataset, err)
	}

	body := valueRange{MajorDimension: "ROWS", Values: toValues(rows)}
	if err := s.do(ctx, http.MethodPost, endpoint, body, nil); err != nil {
		return storeErr("append", dataset, err)
	}
	return nil
}

func (s *Store) UpdateCell(ctx context.Context, dataset, address, value string) error {
	return s.UpdateRange(ctx, dataset, address, []string{value})
}

// UpdateRange writes consecutive cells of one row with a single values.update.
func (s *Store) UpdateRange(ctx context.Context, dataset, address string, values []string) error {
	if _, _, err := generic.RowSpan(address, len(values)); err != nil {
		return err
	}
	endpoint, err := s.valuesURL(dataset, address, "", url.Values{"valueInputOption": {"RAW"}})
	if err != nil {
		return storeErr("update", dataset, err)
	}

	body := valueRange{Range: address, MajorDimension: "ROWS", Values: toValues([][]string{values})}
	if err := s.do(ctx, http.MethodPut, endpoint, body, nil); err != nil {
		return storeErr("update", dataset, err)
	}
	return nil
}

// =============================================================================
// HTTP
// =============================================================================

func (s *Store) valuesURL(dataset, rng, verb string, query url.Values) (string, error) {
	id, ok := s.spreadsheets[dataset]
	if !ok || id == "" {
		return "", fmt.Errorf("no spreadsheet configured for dataset %q", dataset)
	}
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s%s",
		s.baseURL, url.PathEscape(id), url.PathEscape(rng), verb)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint, nil
}

func (s *Store) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheets API request failed: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sheets API error %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding sheets response: %w", err)
	}
	return nil
}

// =============================================================================
// VALUE CONVERSION
// =============================================================================

func toValues(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = make([]any, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}

// toStrings flattens cell values. RAW reads return strings, but numbers and
// booleans typed into the sheet by hand come back as JSON scalars.
func toStrings(values [][]any) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			switch x := v.(type) {
			case nil:
			case string:
				out[i][j] = x
			case float64:
				out[i][j] = strconv.FormatFloat(x, 'f', -1, 64)
			default:
				out[i][j] = fmt.Sprint(x)
			}
		}
	}
	return out
}

func storeErr(op, dataset string, err error) error {
	return &generic.StoreError{Op: op, Dataset: dataset, Err: err}
}
