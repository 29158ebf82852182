package edgar

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

// The browse-edgar Atom feed is parsed with a minimal tag scanner rather
// than an XML parser. PRECONDITION: this only works because the feed is a
// stable, narrow subset of Atom - flat <entry> blocks with simple text
// elements and no nesting, namespaces, or CDATA. It is not a general XML
// parser and must not be pointed at other feeds.
var (
	atomEntryRe = regexp.MustCompile(`(?s)<entry>(.*?)</entry>`)

	atomTitleRe      = regexp.MustCompile(`<title>([^<]*)</title>`)
	atomFilingDateRe = regexp.MustCompile(`<filing-date>([^<]*)</filing-date>`)
	atomFilingTypeRe = regexp.MustCompile(`<filing-type>([^<]*)</filing-type>`)
	atomFilingHrefRe = regexp.MustCompile(`<filing-href>([^<]*)</filing-href>`)
)

// RecentFilingsFeed fetches the browse-edgar Atom feed for the given form
// type and derives normalized filings from it.
func (c *Client) RecentFilingsFeed(ctx context.Context, form string) ([]Filing, error) {
	params := url.Values{}
	params.Set("action", "getcompany")
	params.Set("type", form)
	params.Set("company", "")
	params.Set("dateb", "")
	params.Set("owner", "include")
	params.Set("count", "40")
	params.Set("output", "atom")

	endpoint := c.browseBaseURL + "?" + params.Encode()

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return parseAtomFeed(string(body)), nil
}

// parseAtomFeed extracts filings from the feed body. Entries missing a
// title or date are skipped rather than failing the whole feed.
func parseAtomFeed(body string) []Filing {
	entries := atomEntryRe.FindAllStringSubmatch(body, -1)

	filings := make([]Filing, 0, len(entries))
	for _, entry := range entries {
		block := entry[1]

		title := firstMatch(atomTitleRe, block)
		date := firstMatch(atomFilingDateRe, block)
		if title == "" || date == "" {
			continue
		}

		formType, company := splitAtomTitle(title)

		filings = append(filings, Filing{
			Company:  company,
			Ticker:   ExtractTicker(title),
			FormType: formType,
			FiledAt:  date,
			URL:      firstMatch(atomFilingHrefRe, block),
		})

		if ft := firstMatch(atomFilingTypeRe, block); ft != "" {
			filings[len(filings)-1].FormType = ft
		}
	}

	return filings
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// splitAtomTitle splits titles of the form "S-3 - Acme Corp (0001234567) (Filer)"
// into the form type and the company name.
func splitAtomTitle(title string) (formType, company string) {
	parts := strings.SplitN(title, " - ", 2)
	if len(parts) != 2 {
		return "", companyFromDisplayName(title)
	}
	return strings.TrimSpace(parts[0]), companyFromDisplayName(parts[1])
}
