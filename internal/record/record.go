// Package record defines the run record produced by read-file resolution and
// the grouping of records by biological sample.
package record

// Layout categorizes a run's read files.
type Layout string

const (
	// LayoutSingle means one read file per run.
	LayoutSingle Layout = "SINGLE"

	// LayoutPaired means two complementary read files (forward, reverse).
	LayoutPaired Layout = "PAIRED"
)

// RunRecord describes one sequencing run resolvable to downloadable reads.
type RunRecord struct {
	// RunAccession is the stable external identifier of the run.
	RunAccession string `json:"run_accession"`

	// SampleAccession identifies the biological sample the run belongs to.
	// Many runs may share one sample.
	SampleAccession string `json:"sample_accession"`

	// LibraryLayout is SINGLE or PAIRED.
	LibraryLayout Layout `json:"library_layout"`

	// FastqURLs holds normalized download URLs: one for SINGLE, two for
	// PAIRED (forward first). Never empty.
	FastqURLs []string `json:"fastq_urls"`
}

// Paired reports whether the run should be dispatched through the paired
// path: two or more resolved URLs, or an explicit PAIRED layout tag.
func (r RunRecord) Paired() bool {
	return len(r.FastqURLs) >= 2 || r.LibraryLayout == LayoutPaired
}

// Grouping is an order-preserving partition of run records by sample
// accession. Sample order follows first-seen order of the input.
type Grouping struct {
	samples  []string
	bySample map[string][]RunRecord
}

// GroupBySample partitions records by their sample accession. Pure function;
// empty input yields an empty grouping.
func GroupBySample(records []RunRecord) Grouping {
	g := Grouping{bySample: make(map[string][]RunRecord)}
	for _, rec := range records {
		if _, seen := g.bySample[rec.SampleAccession]; !seen {
			g.samples = append(g.samples, rec.SampleAccession)
		}
		g.bySample[rec.SampleAccession] = append(g.bySample[rec.SampleAccession], rec)
	}
	return g
}

// Samples returns sample accessions in first-seen order.
func (g Grouping) Samples() []string {
	return g.samples
}

// Runs returns the records of one sample in discovery order.
func (g Grouping) Runs(sample string) []RunRecord {
	return g.bySample[sample]
}

// Len returns the number of distinct samples.
func (g Grouping) Len() int {
	return len(g.samples)
}
