// Package ena resolves run accessions to normalized run records through the
// ENA filereport service.
package ena

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/me/seqferry/internal/logging"
	"github.com/me/seqferry/internal/record"
	"github.com/me/seqferry/internal/transport"
)

// DefaultFileReportURL is the ENA portal filereport endpoint.
const DefaultFileReportURL = "https://www.ebi.ac.uk/ena/portal/api/filereport"

// fileReportRow is the JSON row shape returned by the filereport service.
// All fields are optional in practice.
type fileReportRow struct {
	FastqFTP        string `json:"fastq_ftp"`
	SampleAccession string `json:"sample_accession"`
	LibraryLayout   string `json:"library_layout"`
}

// Resolver resolves run accessions against the filereport service.
type Resolver struct {
	transport *transport.Client
	baseURL   string
	logger    *slog.Logger
}

// NewResolver creates a Resolver. An empty baseURL selects the production
// endpoint.
func NewResolver(baseURL string, tc transport.Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.Discard()
	}
	if baseURL == "" {
		baseURL = DefaultFileReportURL
	}

	return &Resolver{
		transport: transport.NewClient(tc, logger),
		baseURL:   baseURL,
		logger:    logger.With("component", "ena"),
	}
}

// Resolve fetches the file report for one run accession and builds a run
// record from it. A missing row or an empty file list yields (nil, nil): the
// run has no resolvable reads and is not an error.
func (r *Resolver) Resolve(ctx context.Context, accession string) (*record.RunRecord, error) {
	p := url.Values{}
	p.Set("accession", accession)
	p.Set("result", "read_run")
	p.Set("fields", "fastq_ftp,sample_accession,library_layout")
	p.Set("format", "json")

	body, err := r.transport.Get(ctx, r.baseURL, p)
	if err != nil {
		return nil, fmt.Errorf("filereport %s: %w", accession, err)
	}

	var rows []fileReportRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("filereport %s: decoding response: %w", accession, err)
	}
	if len(rows) == 0 {
		r.logger.Debug("no file report row", "run", accession)
		return nil, nil
	}

	rec := buildRecord(accession, rows[0])
	if rec == nil {
		r.logger.Debug("file report row without fastq urls", "run", accession)
	}
	return rec, nil
}

// buildRecord applies the normalization and fallback rules to one row.
func buildRecord(accession string, row fileReportRow) *record.RunRecord {
	urls := SplitFileList(row.FastqFTP)
	if len(urls) == 0 {
		return nil
	}

	sample := row.SampleAccession
	if sample == "" {
		// Every record must group into some sample.
		sample = accession
	}

	layout := record.Layout(strings.ToUpper(row.LibraryLayout))
	if layout == "" {
		if len(urls) >= 2 {
			layout = record.LayoutPaired
		} else {
			layout = record.LayoutSingle
		}
	}

	return &record.RunRecord{
		RunAccession:    accession,
		SampleAccession: sample,
		LibraryLayout:   layout,
		FastqURLs:       urls,
	}
}

// SplitFileList parses the semicolon-delimited file list field into
// normalized URLs, skipping empty entries.
func SplitFileList(fileList string) []string {
	var urls []string
	for _, part := range strings.Split(fileList, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		urls = append(urls, NormalizeURL(part))
	}
	return urls
}

// NormalizeURL makes a file-report entry an absolute secure URL. Absolute
// http(s) URLs pass through unchanged; bare hosts and paths get an https
// prefix. Idempotent.
func NormalizeURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}
