package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"twstock-analyst/internal/models"
	"twstock-analyst/pkg/utils"
)

const (
	defaultTWSEURL = "https://openapi.twse.com.tw/v1/opendata/t187ap03_L"
	defaultTPEXURL = "https://www.tpex.org.tw/openapi/v1/mopsfin_t187ap03_O"
)

// Refresher rebuilds the company catalog from the exchanges' open-data
// rosters. Listed companies get a .TW suffix, OTC companies .TWO.
type Refresher struct {
	client  *http.Client
	twseURL string
	tpexURL string
	retry   utils.RetryConfig
	logger  zerolog.Logger
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) RefresherOption {
	return func(r *Refresher) { r.client = c }
}

// WithEndpoints overrides the exchange roster endpoints.
func WithEndpoints(twseURL, tpexURL string) RefresherOption {
	return func(r *Refresher) { r.twseURL = twseURL; r.tpexURL = tpexURL }
}

// NewRefresher creates a catalog refresher.
func NewRefresher(logger zerolog.Logger, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		client:  &http.Client{Timeout: 30 * time.Second},
		twseURL: defaultTWSEURL,
		tpexURL: defaultTPEXURL,
		retry:   utils.DefaultRetryConfig(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// twseCompany is one row of the TWSE listed-company roster.
type twseCompany struct {
	Code string `json:"公司代號"`
	Name string `json:"公司簡稱"`
}

// tpexCompany is one row of the TPEX OTC roster.
type tpexCompany struct {
	Code string `json:"SecuritiesCompanyCode"`
	Name string `json:"CompanyAbbreviation"`
}

// FetchRoster downloads both exchange rosters and returns symbol -> name.
func (r *Refresher) FetchRoster(ctx context.Context) (map[string]string, error) {
	roster := make(map[string]string)

	var listed []twseCompany
	if err := r.fetchJSON(ctx, r.twseURL, &listed); err != nil {
		return nil, fmt.Errorf("fetching TWSE roster: %w", err)
	}
	for _, c := range listed {
		if c.Code == "" || c.Name == "" {
			continue
		}
		roster[c.Code+".TW"] = c.Name
	}

	var otc []tpexCompany
	if err := r.fetchJSON(ctx, r.tpexURL, &otc); err != nil {
		return nil, fmt.Errorf("fetching TPEX roster: %w", err)
	}
	for _, c := range otc {
		if c.Code == "" || c.Name == "" {
			continue
		}
		roster[c.Code+".TWO"] = c.Name
	}

	if len(roster) == 0 {
		return nil, fmt.Errorf("exchange rosters returned no companies")
	}

	r.logger.Info().Int("companies", len(roster)).Msg("Fetched exchange rosters")
	return roster, nil
}

func (r *Refresher) fetchJSON(ctx context.Context, url string, target interface{}) error {
	body, err := utils.RetryWithResult(ctx, r.retry, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(body, target)
}

// Merge folds a fresh roster into the previous catalog. The fresh run's
// canonical symbol and name always win; aliases from the old file are
// unioned with the new name, case-normalized and deduplicated. Output is
// sorted by symbol.
func Merge(old *models.CatalogFile, roster map[string]string) models.CatalogFile {
	oldAliases := make(map[string][]string)
	if old != nil {
		for _, rec := range old.Companies {
			oldAliases[rec.Symbol] = rec.Aliases
		}
	}

	companies := make([]models.CompanyRecord, 0, len(roster))
	for symbol, name := range roster {
		rec := models.CompanyRecord{
			Symbol:  symbol,
			Name:    name,
			Aliases: oldAliases[symbol],
		}
		rec.NormalizeAliases()
		sort.Strings(rec.Aliases)
		companies = append(companies, rec)
	}

	sort.Slice(companies, func(i, j int) bool {
		return companies[i].Symbol < companies[j].Symbol
	})

	return models.CatalogFile{Companies: companies}
}

// Refresh fetches the rosters, merges them with the existing catalog at
// path, and rewrites the file wholesale. Returns the company count.
func (r *Refresher) Refresh(ctx context.Context, path string) (int, error) {
	roster, err := r.FetchRoster(ctx)
	if err != nil {
		return 0, err
	}

	// A missing or unreadable old catalog is not fatal: manual aliases
	// are simply lost and the file is created fresh.
	var old *models.CatalogFile
	if data, err := os.ReadFile(path); err == nil {
		var prev models.CatalogFile
		if err := json.Unmarshal(data, &prev); err == nil {
			old = &prev
		} else {
			r.logger.Warn().Str("path", path).Err(err).Msg("Old catalog unreadable, rebuilding from scratch")
		}
	}

	merged := Merge(old, roster)

	data, err := json.MarshalIndent(&merged, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encoding catalog: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return 0, fmt.Errorf("writing catalog: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("replacing catalog: %w", err)
	}

	r.logger.Info().Str("path", path).Int("companies", len(merged.Companies)).Msg("Catalog refreshed")
	return len(merged.Companies), nil
}
