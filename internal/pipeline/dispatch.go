package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/me/seqferry/internal/config"
	"github.com/me/seqferry/internal/record"
	"github.com/me/seqferry/internal/state"
	"github.com/me/seqferry/pkg/galaxy"
)

// Outcome is the terminal state of one run's dispatch.
type Outcome int

const (
	// OutcomeDispatched means uploads and workflow invocation succeeded.
	OutcomeDispatched Outcome = iota

	// OutcomeSkipped means the run was not dispatched because the matching
	// workflow variant is not configured. Expected, recoverable.
	OutcomeSkipped

	// OutcomeFailed means an upload or invocation failed. The run stays
	// unmarked and is retried on the next execution.
	OutcomeFailed
)

// workflowTargets holds the workflow IDs and input slot IDs resolved once
// before the dispatch loop.
type workflowTargets struct {
	singleID    string
	singleInput string
	singleRef   string

	pairedID    string
	pairedInput string
	pairedRef   string
}

// pairedConfigured reports whether the paired path is fully usable.
func (t workflowTargets) pairedConfigured() bool {
	return t.pairedID != "" && t.pairedInput != "" && t.pairedRef != ""
}

// Engine dispatches resolved runs to the analysis platform. It owns the
// history and reference caches; both are plain maps touched only from the
// single dispatch loop.
type Engine struct {
	client *galaxy.Client
	cfg    config.Config
	state  *state.Store
	logger *slog.Logger
	out    io.Writer

	targets    workflowTargets
	histories  map[string]string // history cache key -> history ID
	references map[string]string // history ID -> reference dataset ID

	uploaded int
	invoked  int
}

// NewEngine creates a dispatch engine. ResolveWorkflows must be called
// before the first DispatchRun.
func NewEngine(client *galaxy.Client, cfg config.Config, st *state.Store, logger *slog.Logger, out io.Writer) *Engine {
	return &Engine{
		client:     client,
		cfg:        cfg,
		state:      st,
		logger:     logger.With("component", "dispatch"),
		out:        out,
		histories:  make(map[string]string),
		references: make(map[string]string),
	}
}

// ResolveWorkflows resolves workflow IDs and their input slots, once, before
// any dispatch. A missing single-end workflow or an unresolvable required
// slot is fatal: nothing may be dispatched against unknown targets.
func (e *Engine) ResolveWorkflows(ctx context.Context) error {
	singleID, err := e.resolveWorkflowID(ctx, e.cfg.SingleWorkflowID, e.cfg.SingleWorkflowName)
	if err != nil {
		return err
	}
	if singleID == "" {
		return fmt.Errorf("no single-end workflow configured")
	}

	e.targets.singleID = singleID
	if e.targets.singleInput, err = e.client.WorkflowInputID(ctx, singleID, e.cfg.SingleInputLabel); err != nil {
		return fmt.Errorf("resolve single-end read input: %w", err)
	}
	if e.targets.singleRef, err = e.client.WorkflowInputID(ctx, singleID, e.cfg.ReferenceInputLabel); err != nil {
		return fmt.Errorf("resolve single-end reference input: %w", err)
	}

	pairedID, err := e.resolveWorkflowID(ctx, e.cfg.PairedWorkflowID, e.cfg.PairedWorkflowName)
	if err != nil {
		return err
	}
	if pairedID != "" {
		e.targets.pairedID = pairedID
		if e.targets.pairedInput, err = e.client.WorkflowInputID(ctx, pairedID, e.cfg.PairedInputLabel); err != nil {
			return fmt.Errorf("resolve paired read input: %w", err)
		}
		if e.targets.pairedRef, err = e.client.WorkflowInputID(ctx, pairedID, e.cfg.ReferenceInputLabel); err != nil {
			return fmt.Errorf("resolve paired reference input: %w", err)
		}
	}

	return nil
}

// resolveWorkflowID prefers an explicit ID over a name lookup. Both empty
// yields "", not an error.
func (e *Engine) resolveWorkflowID(ctx context.Context, id, name string) (string, error) {
	if id != "" {
		return id, nil
	}
	if name == "" {
		return "", nil
	}
	return e.client.FindWorkflowIDByName(ctx, name)
}

// historyFor returns the working history for a sample, creating and caching
// it on first use. An externally supplied history ID is reused for all
// samples.
func (e *Engine) historyFor(ctx context.Context, sample string) (string, error) {
	if e.cfg.HistoryID != "" {
		return e.cfg.HistoryID, nil
	}

	key := "shared"
	name := e.cfg.HistoryName
	if e.cfg.HistoryPerSample {
		key = sample
		name = fmt.Sprintf("%s_%s", e.cfg.HistoryName, sample)
	}

	if id, ok := e.histories[key]; ok {
		return id, nil
	}

	id, err := e.client.CreateHistory(ctx, name)
	if err != nil {
		return "", fmt.Errorf("create history %q: %w", name, err)
	}
	e.histories[key] = id
	return id, nil
}

// referenceFor returns the reference dataset for a history: an externally
// supplied dataset ID takes precedence; otherwise the configured reference
// URL is fetched into the history exactly once and reused. Returns "" when
// no reference is configured.
func (e *Engine) referenceFor(ctx context.Context, historyID string) (string, error) {
	if e.cfg.ReferenceDatasetID != "" {
		return e.cfg.ReferenceDatasetID, nil
	}
	if e.cfg.ReferenceURL == "" {
		return "", nil
	}

	if id, ok := e.references[historyID]; ok {
		return id, nil
	}

	id, err := e.client.FetchURLToHistory(ctx, historyID, e.cfg.ReferenceURL, "reference.fasta")
	if err != nil {
		return "", fmt.Errorf("fetch reference: %w", err)
	}
	e.references[historyID] = id
	return id, nil
}

// DispatchRun carries one run through upload and invocation. Failures are
// contained: they are logged with the run accession and reported as an
// outcome, never propagated to sibling runs.
func (e *Engine) DispatchRun(ctx context.Context, rec record.RunRecord) Outcome {
	historyID, err := e.historyFor(ctx, rec.SampleAccession)
	if err != nil {
		e.logger.Error("processing run failed", "run", rec.RunAccession, "error", err)
		return OutcomeFailed
	}

	refID, err := e.referenceFor(ctx, historyID)
	if err != nil {
		e.logger.Error("processing run failed", "run", rec.RunAccession, "error", err)
		return OutcomeFailed
	}

	var invocationID string
	if rec.Paired() {
		if !e.targets.pairedConfigured() {
			e.logger.Warn("skipping paired run: paired workflow is not configured", "run", rec.RunAccession)
			return OutcomeSkipped
		}
		invocationID, err = e.dispatchPaired(ctx, historyID, refID, rec)
	} else {
		invocationID, err = e.dispatchSingle(ctx, historyID, refID, rec)
	}
	if err != nil {
		e.logger.Error("processing run failed", "run", rec.RunAccession, "error", err)
		return OutcomeFailed
	}

	e.invoked++

	// State is persisted only after the full dispatch succeeded, so a crash
	// before this point re-dispatches the run (at-least-once).
	if err := e.state.MarkProcessed(rec.RunAccession); err != nil {
		e.logger.Error("persisting state failed", "run", rec.RunAccession, "error", err)
		return OutcomeFailed
	}

	kind := "single"
	if rec.Paired() {
		kind = "paired"
	}
	fmt.Fprintf(e.out, "Sample %s: %s run %s uploaded, invocation=%s\n",
		rec.SampleAccession, kind, rec.RunAccession, invocationID)
	return OutcomeDispatched
}

// dispatchPaired uploads both read files, bundles them into a paired
// collection, and invokes the paired workflow. Uploads count as soon as they
// succeed: a later invocation failure does not undo them.
func (e *Engine) dispatchPaired(ctx context.Context, historyID, refID string, rec record.RunRecord) (string, error) {
	if len(rec.FastqURLs) < 2 {
		return "", fmt.Errorf("paired run %s has %d read URL(s)", rec.RunAccession, len(rec.FastqURLs))
	}

	fwd, err := e.client.FetchURLToHistory(ctx, historyID, rec.FastqURLs[0],
		rec.RunAccession+"_R1.fastq.gz")
	if err != nil {
		return "", err
	}
	e.uploaded++

	rev, err := e.client.FetchURLToHistory(ctx, historyID, rec.FastqURLs[1],
		rec.RunAccession+"_R2.fastq.gz")
	if err != nil {
		return "", err
	}
	e.uploaded++

	pairID, err := e.client.CreatePairCollection(ctx, historyID, fwd, rev, rec.RunAccession+"_pair")
	if err != nil {
		return "", err
	}

	inputs := map[string]galaxy.InputBinding{
		e.targets.pairedInput: {Src: galaxy.SrcCollection, ID: pairID},
	}
	if refID != "" {
		inputs[e.targets.pairedRef] = galaxy.InputBinding{Src: galaxy.SrcDataset, ID: refID}
	}

	return e.client.InvokeWorkflow(ctx, e.targets.pairedID, historyID, inputs)
}

// dispatchSingle uploads the one read file and invokes the single-end
// workflow.
func (e *Engine) dispatchSingle(ctx context.Context, historyID, refID string, rec record.RunRecord) (string, error) {
	readID, err := e.client.FetchURLToHistory(ctx, historyID, rec.FastqURLs[0],
		rec.RunAccession+".fastq.gz")
	if err != nil {
		return "", err
	}
	e.uploaded++

	inputs := map[string]galaxy.InputBinding{
		e.targets.singleInput: {Src: galaxy.SrcDataset, ID: readID},
	}
	if refID != "" {
		inputs[e.targets.singleRef] = galaxy.InputBinding{Src: galaxy.SrcDataset, ID: refID}
	}

	return e.client.InvokeWorkflow(ctx, e.targets.singleID, historyID, inputs)
}

// Uploaded returns the number of datasets uploaded so far.
func (e *Engine) Uploaded() int {
	return e.uploaded
}

// Invoked returns the number of workflows invoked so far.
func (e *Engine) Invoked() int {
	return e.invoked
}
