// Package edgar provides a client for SEC EDGAR filing data.
//
// Three lookup paths are exposed, matching the filings route's fallback
// chain: the EFTS full-text search API, the browse-edgar Atom feed, and a
// broader EFTS company search. Every request carries the configured
// identifying User-Agent, which the SEC requires for programmatic access.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultSearchBaseURL = "https://efts.sec.gov/LATEST/search-index"
	defaultBrowseBaseURL = "https://www.sec.gov/cgi-bin/browse-edgar"
	archivesBaseURL      = "https://www.sec.gov/Archives/edgar/data"

	requestTimeout = 2 * time.Second
)

// Filing is a normalized filing record derived from any of the lookup paths.
type Filing struct {
	Company  string `json:"company"`
	Ticker   string `json:"ticker,omitempty"`
	CIK      string `json:"cik,omitempty"`
	FormType string `json:"formType"`
	FiledAt  string `json:"filedAt"`
	URL      string `json:"url"`
}

// Client is the SEC EDGAR client.
type Client struct {
	searchBaseURL string
	browseBaseURL string
	userAgent     string
	httpClient    *http.Client
	log           zerolog.Logger
}

// NewClient creates a new EDGAR client. userAgent must identify the caller
// (e.g. "myapp/1.0 (ops@example.com)") per the SEC's fair-access policy.
func NewClient(userAgent string, log zerolog.Logger) *Client {
	return &Client{
		searchBaseURL: defaultSearchBaseURL,
		browseBaseURL: defaultBrowseBaseURL,
		userAgent:     userAgent,
		httpClient:    &http.Client{Timeout: requestTimeout},
		log:           log.With().Str("client", "edgar").Logger(),
	}
}

// eftsResponse mirrors the subset of the EFTS search response we consume.
type eftsResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string `json:"_id"`
			Source struct {
				CIK          string   `json:"cik"`
				DisplayNames []string `json:"display_names"`
				FileType     string   `json:"file_type"`
				FileDate     string   `json:"file_date"`
				Accession    string   `json:"adsh"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// FullTextSearch queries the EFTS API for filings of the given form type
// filed within the last windowDays days.
func (c *Client) FullTextSearch(ctx context.Context, form string, windowDays int, now time.Time) ([]Filing, error) {
	start := now.AddDate(0, 0, -windowDays)

	params := url.Values{}
	params.Set("q", fmt.Sprintf("%q", form))
	params.Set("forms", form)
	params.Set("startdt", start.Format("2006-01-02"))
	params.Set("enddt", now.Format("2006-01-02"))

	return c.searchEFTS(ctx, params)
}

// CompanySearch queries the EFTS API with a broad, undated query. This is the
// widest net in the filings fallback chain.
func (c *Client) CompanySearch(ctx context.Context, form string) ([]Filing, error) {
	params := url.Values{}
	params.Set("q", form)

	return c.searchEFTS(ctx, params)
}

func (c *Client) searchEFTS(ctx context.Context, params url.Values) ([]Filing, error) {
	endpoint := c.searchBaseURL + "?" + params.Encode()

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var decoded eftsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse EFTS response: %w", err)
	}

	filings := make([]Filing, 0, len(decoded.Hits.Hits))
	for _, hit := range decoded.Hits.Hits {
		src := hit.Source

		company := ""
		ticker := ""
		if len(src.DisplayNames) > 0 {
			company = companyFromDisplayName(src.DisplayNames[0])
			ticker = ExtractTicker(src.DisplayNames[0])
		}

		filings = append(filings, Filing{
			Company:  company,
			Ticker:   ticker,
			CIK:      strings.TrimLeft(src.CIK, "0"),
			FormType: src.FileType,
			FiledAt:  src.FileDate,
			URL:      documentURL(src.CIK, src.Accession, hit.ID),
		})
	}

	return filings, nil
}

// documentURL reconstructs the archive URL for a filing document. The EFTS
// _id is "accession:filename".
func documentURL(cik, accession, id string) string {
	filename := ""
	if idx := strings.IndexByte(id, ':'); idx >= 0 {
		filename = id[idx+1:]
	}
	return fmt.Sprintf("%s/%s/%s/%s",
		archivesBaseURL,
		strings.TrimLeft(cik, "0"),
		strings.ReplaceAll(accession, "-", ""),
		filename,
	)
}

// tickerRe matches the parenthesized-ticker convention in EDGAR display
// names, e.g. "Acme Corp  (ACME)  (CIK 0001234567)". CIK parentheticals
// don't match because they contain digits and a space.
var tickerRe = regexp.MustCompile(`\(([A-Z][A-Z.]{0,9})\)`)

// ExtractTicker pulls the ticker out of an EDGAR display name, or returns
// the empty string when no parenthesized ticker is present.
func ExtractTicker(displayName string) string {
	m := tickerRe.FindStringSubmatch(displayName)
	if m == nil {
		return ""
	}
	return m[1]
}

// companyFromDisplayName strips the parenthesized suffixes from a display
// name, leaving just the company name.
func companyFromDisplayName(displayName string) string {
	if idx := strings.IndexByte(displayName, '('); idx >= 0 {
		return strings.TrimSpace(displayName[:idx])
	}
	return strings.TrimSpace(displayName)
}

// get performs a GET with the configured User-Agent and returns the body.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("url", endpoint).
			Msg("EDGAR returned non-200 status")
		return nil, fmt.Errorf("EDGAR returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
