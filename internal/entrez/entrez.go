// Package entrez resolves a free-text literature query into sequencing-run
// accessions through three chained NCBI E-utilities lookups: esearch (PubMed
// hits), elink (PubMed to SRA cross-references) and esummary (run accessions
// embedded in SRA summaries).
//
// Batched lookups respect the remote batch-size limit and pause between
// batches as a courtesy to the service's rate limit. That pause is distinct
// from the transport layer's retry on explicit 429/5xx responses.
package entrez

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"time"

	"github.com/me/seqferry/internal/logging"
	"github.com/me/seqferry/internal/transport"
)

// DefaultBaseURL is the NCBI E-utilities endpoint prefix.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// Batching defaults. The batch size is the largest ID list E-utilities
// accepts comfortably in one call; the delay keeps unauthenticated clients
// under the service's requests-per-second limit.
const (
	DefaultBatchSize  = 200
	DefaultBatchDelay = 340 * time.Millisecond
)

// runAccessionRE matches run accessions embedded in free-text summary
// fields: an S/E/D prefix (SRA, ENA, DDBJ), "RR", then digits.
var runAccessionRE = regexp.MustCompile(`\b([SED]RR\d+)\b`)

// Config holds settings for the E-utilities client.
type Config struct {
	// BaseURL is the E-utilities endpoint prefix.
	BaseURL string

	// Email is passed to NCBI for operator contact (recommended by NCBI).
	Email string

	// APIKey raises NCBI's per-client rate limits when set.
	APIKey string

	// BatchSize caps the number of IDs per elink/esummary call.
	BatchSize int

	// BatchDelay is the fixed pause between successive batched calls.
	BatchDelay time.Duration

	// Transport configures retry behaviour of the underlying HTTP client.
	Transport transport.Config
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		BatchSize:  DefaultBatchSize,
		BatchDelay: DefaultBatchDelay,
		Transport:  transport.DefaultConfig(),
	}
}

// Client talks to the NCBI E-utilities services.
type Client struct {
	transport *transport.Client
	config    Config
	logger    *slog.Logger
}

// NewClient creates an E-utilities client with the given configuration.
func NewClient(config Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}

	return &Client{
		transport: transport.NewClient(config.Transport, logger),
		config:    config,
		logger:    logger.With("component", "entrez"),
	}
}

// params returns the shared query parameters for an E-utilities call.
func (c *Client) params() url.Values {
	p := url.Values{}
	if c.config.Email != "" {
		p.Set("email", c.config.Email)
	}
	if c.config.APIKey != "" {
		p.Set("api_key", c.config.APIKey)
	}
	return p
}

func (c *Client) get(ctx context.Context, endpoint string, p url.Values) ([]byte, error) {
	return c.transport.Get(ctx, c.config.BaseURL+"/"+endpoint, p)
}

// esearchResponse is the JSON shape of an esearch call; only the ID list is
// of interest.
type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// SearchPublications runs an esearch against PubMed and returns the matching
// publication IDs, capped at retMax. An empty result is valid.
func (c *Client) SearchPublications(ctx context.Context, query string, retMax int) ([]string, error) {
	p := c.params()
	p.Set("db", "pubmed")
	p.Set("term", query)
	p.Set("retmax", fmt.Sprintf("%d", retMax))
	p.Set("retmode", "json")

	body, err := c.get(ctx, "esearch.fcgi", p)
	if err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("esearch: decoding response: %w", err)
	}

	c.logger.Debug("esearch complete", "query", query, "hits", len(resp.ESearchResult.IDList))
	return resp.ESearchResult.IDList, nil
}

// elinkResponse is the XML link-tree shape of an elink call.
type elinkResponse struct {
	LinkSets []struct {
		LinkSetDbs []struct {
			Links []struct {
				ID string `xml:"Id"`
			} `xml:"Link"`
		} `xml:"LinkSetDb"`
	} `xml:"LinkSet"`
}

// LinkToArchive cross-references publication IDs into SRA record IDs. Calls
// are batched; results are deduplicated and sorted.
func (c *Client) LinkToArchive(ctx context.Context, pmids []string) ([]string, error) {
	ids := make(map[string]struct{})

	for i, batch := range Chunk(pmids, c.config.BatchSize) {
		if i > 0 {
			if err := c.pause(ctx); err != nil {
				return nil, err
			}
		}

		p := c.params()
		p.Set("dbfrom", "pubmed")
		p.Set("db", "sra")
		p.Set("id", joinIDs(batch))
		p.Set("retmode", "xml")
		p.Set("linkname", "pubmed_sra")

		body, err := c.get(ctx, "elink.fcgi", p)
		if err != nil {
			return nil, fmt.Errorf("elink: %w", err)
		}

		var resp elinkResponse
		if err := xml.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("elink: decoding response: %w", err)
		}

		for _, ls := range resp.LinkSets {
			for _, db := range ls.LinkSetDbs {
				for _, link := range db.Links {
					if link.ID != "" {
						ids[link.ID] = struct{}{}
					}
				}
			}
		}
	}

	out := sortedKeys(ids)
	c.logger.Debug("elink complete", "publications", len(pmids), "archive_records", len(out))
	return out, nil
}

// esummaryResponse is the XML DocSum shape of an esummary call.
type esummaryResponse struct {
	DocSums []struct {
		Items []struct {
			Name  string `xml:"Name,attr"`
			Value string `xml:",chardata"`
		} `xml:"Item"`
	} `xml:"DocSum"`
}

// ExtractRunAccessions fetches SRA summaries for the given record IDs and
// scans their "Runs" items for run-accession-shaped tokens. Calls are
// batched; results are deduplicated and sorted.
func (c *Client) ExtractRunAccessions(ctx context.Context, sraIDs []string) ([]string, error) {
	runs := make(map[string]struct{})

	for i, batch := range Chunk(sraIDs, c.config.BatchSize) {
		if i > 0 {
			if err := c.pause(ctx); err != nil {
				return nil, err
			}
		}

		p := c.params()
		p.Set("db", "sra")
		p.Set("id", joinIDs(batch))
		p.Set("retmode", "xml")

		body, err := c.get(ctx, "esummary.fcgi", p)
		if err != nil {
			return nil, fmt.Errorf("esummary: %w", err)
		}

		var resp esummaryResponse
		if err := xml.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("esummary: decoding response: %w", err)
		}

		for _, doc := range resp.DocSums {
			for _, item := range doc.Items {
				if item.Name != "Runs" {
					continue
				}
				for _, m := range runAccessionRE.FindAllStringSubmatch(item.Value, -1) {
					runs[m[1]] = struct{}{}
				}
			}
		}
	}

	out := sortedKeys(runs)
	c.logger.Debug("esummary complete", "archive_records", len(sraIDs), "run_accessions", len(out))
	return out, nil
}

// pause sleeps for the configured inter-batch delay, honoring cancellation.
func (c *Client) pause(ctx context.Context) error {
	if c.config.BatchDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.config.BatchDelay):
		return nil
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
