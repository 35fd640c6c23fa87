// Package pipeline orchestrates the full discovery-to-dispatch flow:
// literature search, run resolution gated by persisted state, sample
// grouping, and per-run dispatch to the analysis platform.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/me/seqferry/internal/config"
	"github.com/me/seqferry/internal/ena"
	"github.com/me/seqferry/internal/entrez"
	"github.com/me/seqferry/internal/logging"
	"github.com/me/seqferry/internal/record"
	"github.com/me/seqferry/internal/state"
	"github.com/me/seqferry/internal/store"
	"github.com/me/seqferry/pkg/galaxy"
)

// sampleDigestLimit caps the number of sample lines printed in the grouping
// report.
const sampleDigestLimit = 10

// Summary holds the aggregate counts of one pipeline execution.
type Summary struct {
	Publications   int
	ArchiveRecords int
	RunAccessions  int
	Resolved       int
	Samples        int
	Uploaded       int
	Invoked        int
	Skipped        int
	Failed         int
}

// Options carries the pipeline's collaborators. State is required; Cache and
// Galaxy are optional (nil Galaxy selects discovery-only mode).
type Options struct {
	Entrez   *entrez.Client
	Resolver *ena.Resolver
	State    *state.Store
	Cache    store.RecordCache
	Galaxy   *galaxy.Client
	Logger   *slog.Logger
	Out      io.Writer
}

// Pipeline drives one end-to-end execution. Single-threaded: samples are
// dispatched one at a time, runs within a sample one at a time.
type Pipeline struct {
	cfg    config.Config
	entrez *entrez.Client
	ena    *ena.Resolver
	state  *state.Store
	cache  store.RecordCache
	galaxy *galaxy.Client
	logger *slog.Logger
	out    io.Writer
}

// New creates a Pipeline from configuration and collaborators.
func New(cfg config.Config, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return &Pipeline{
		cfg:    cfg,
		entrez: opts.Entrez,
		ena:    opts.Resolver,
		state:  opts.State,
		cache:  opts.Cache,
		galaxy: opts.Galaxy,
		logger: logger.With("component", "pipeline", "execution_id", uuid.NewString()),
		out:    out,
	}
}

// Run executes the pipeline. Identifier-resolution failures are fatal and
// abort with an error; per-run failures are contained and reflected in the
// summary only. Empty intermediate results end the run cleanly.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	fmt.Fprintf(p.out, "Searching PubMed with query: %s\n", p.cfg.Query)
	pmids, err := p.entrez.SearchPublications(ctx, p.cfg.Query, p.cfg.RetMax)
	if err != nil {
		return sum, fmt.Errorf("query literature service: %w", err)
	}
	sum.Publications = len(pmids)

	fmt.Fprintf(p.out, "Found %d PubMed records\n", len(pmids))
	if len(pmids) == 0 {
		return sum, nil
	}

	sraIDs, err := p.entrez.LinkToArchive(ctx, pmids)
	if err != nil {
		return sum, fmt.Errorf("map publications to archive records: %w", err)
	}
	sum.ArchiveRecords = len(sraIDs)

	fmt.Fprintf(p.out, "Found %d linked SRA record IDs\n", len(sraIDs))
	if len(sraIDs) == 0 {
		return sum, nil
	}

	accessions, err := p.entrez.ExtractRunAccessions(ctx, sraIDs)
	if err != nil {
		return sum, fmt.Errorf("resolve run accessions: %w", err)
	}

	// The cap applies after dedup and sort so it is reproducible across
	// executions.
	if p.cfg.MaxRuns > 0 && len(accessions) > p.cfg.MaxRuns {
		accessions = accessions[:p.cfg.MaxRuns]
	}
	sum.RunAccessions = len(accessions)

	fmt.Fprintf(p.out, "Resolved %d run accessions (capped by --max-runs)\n", len(accessions))
	if len(accessions) == 0 {
		return sum, nil
	}

	records := p.resolveRecords(ctx, accessions)
	sum.Resolved = len(records)

	fmt.Fprintf(p.out, "Runs with FASTQ URLs and not already processed: %d\n", len(records))
	if len(records) == 0 {
		return sum, nil
	}

	grouped := record.GroupBySample(records)
	sum.Samples = grouped.Len()
	fmt.Fprintf(p.out, "Grouped into %d biological samples\n", grouped.Len())
	p.printSampleDigest(grouped)

	if p.cfg.DryRun {
		return sum, nil
	}

	if p.galaxy == nil {
		fmt.Fprintln(p.out, "Galaxy parameters missing; provide --galaxy-url and --galaxy-api-key.")
		return sum, nil
	}

	engine := NewEngine(p.galaxy, p.cfg, p.state, p.logger, p.out)
	if err := engine.ResolveWorkflows(ctx); err != nil {
		return sum, err
	}

	for _, sample := range grouped.Samples() {
		for _, rec := range grouped.Runs(sample) {
			switch engine.DispatchRun(ctx, rec) {
			case OutcomeSkipped:
				sum.Skipped++
			case OutcomeFailed:
				sum.Failed++
			}
		}
	}

	sum.Uploaded = engine.Uploaded()
	sum.Invoked = engine.Invoked()
	fmt.Fprintf(p.out, "Completed. Uploaded %d datasets and invoked %d workflows.\n",
		sum.Uploaded, sum.Invoked)
	return sum, nil
}

// resolveRecords resolves every accession not already processed into a run
// record, consulting the record cache first when one is configured. Per-run
// failures are logged and exclude only that run.
func (p *Pipeline) resolveRecords(ctx context.Context, accessions []string) []record.RunRecord {
	var records []record.RunRecord

	for _, run := range accessions {
		if p.state.Processed(run) {
			continue
		}

		if p.cache != nil {
			cached, ok, err := p.cache.Get(ctx, run)
			if err != nil {
				p.logger.Warn("record cache read failed", "run", run, "error", err)
			} else if ok {
				records = append(records, *cached)
				continue
			}
		}

		rec, err := p.ena.Resolve(ctx, run)
		if err != nil {
			p.logger.Warn("failed to resolve FASTQ URLs", "run", run, "error", err)
			continue
		}
		if rec == nil {
			continue
		}

		if p.cache != nil {
			if err := p.cache.Put(ctx, *rec); err != nil {
				p.logger.Warn("record cache write failed", "run", run, "error", err)
			}
		}
		records = append(records, *rec)
	}

	return records
}

// printSampleDigest reports the first few sample groups with their run
// counts and layout sets.
func (p *Pipeline) printSampleDigest(grouped record.Grouping) {
	for i, sample := range grouped.Samples() {
		if i >= sampleDigestLimit {
			break
		}

		runs := grouped.Runs(sample)
		layoutSet := make(map[string]struct{})
		for _, rec := range runs {
			layoutSet[string(rec.LibraryLayout)] = struct{}{}
		}
		layouts := make([]string, 0, len(layoutSet))
		for l := range layoutSet {
			layouts = append(layouts, l)
		}
		sort.Strings(layouts)

		fmt.Fprintf(p.out, "  %s: %d run(s), layouts=%s\n",
			sample, len(runs), strings.Join(layouts, ","))
	}
}
