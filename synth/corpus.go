package synth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultOutputDir is where Generate writes when no directory is given.
const DefaultOutputDir = "financial_intelligence_data"

// Kind identifies one of the four corpora.
type Kind int

const (
	MonetaryPolicySummaries Kind = iota
	EconomicIndicators
	RegulatoryChanges
	PolicyDecisions
)

// Kinds lists the corpora in generation order.
var Kinds = []Kind{MonetaryPolicySummaries, EconomicIndicators, RegulatoryChanges, PolicyDecisions}

type corpusInfo struct {
	file     string
	header   string
	progress string
	noun     string
	next     func(*Rand, *DateTracker) Record
}

var corpora = map[Kind]corpusInfo{
	MonetaryPolicySummaries: {
		file:     "monetary_policy_summaries.txt",
		header:   "MONETARY POLICY REPORT",
		progress: "monetary policy summaries",
		noun:     "monetary policy summaries",
		next:     func(r *Rand, t *DateTracker) Record { return NewMonetaryPolicySummary(r, t) },
	},
	EconomicIndicators: {
		file:     "economic_indicators.txt",
		header:   "ECONOMIC DATA RELEASE",
		progress: "economic indicators",
		noun:     "economic indicators",
		next:     func(r *Rand, t *DateTracker) Record { return NewEconomicIndicator(r, t) },
	},
	RegulatoryChanges: {
		file:     "regulatory_changes.txt",
		header:   "REGULATORY UPDATE",
		progress: "regulatory changes",
		noun:     "regulatory updates",
		next:     func(r *Rand, t *DateTracker) Record { return NewRegulatoryChange(r, t) },
	},
	PolicyDecisions: {
		file:     "policy_decisions.txt",
		header:   "POLICY DECISION ANALYSIS",
		progress: "policy decisions",
		noun:     "policy decisions",
		next:     func(r *Rand, t *DateTracker) Record { return NewPolicyDecision(r, t) },
	},
}

// FileName returns the corpus file name.
func (k Kind) FileName() string { return corpora[k].file }

// Header returns the block header printed before each record.
func (k Kind) Header() string { return corpora[k].header }

func (k Kind) String() string { return corpora[k].progress }

// Records generates n records of kind k from a single date tracker.
func (k Kind) Records(ctx context.Context, r *Rand, tracker *DateTracker, n int) ([]Record, error) {
	info, ok := corpora[k]
	if !ok {
		return nil, fmt.Errorf("unknown corpus kind %d", int(k))
	}
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records = append(records, info.next(r, tracker))
	}
	return records, nil
}

// WriteBlocks writes records in the corpus block layout:
//
//	\n<HEADER> #<n>\n<Label>: <value>\n...\n\n<narrative>\n
func WriteBlocks(w io.Writer, header string, records []Record) error {
	bw := bufio.NewWriter(w)
	for i, rec := range records {
		fmt.Fprintf(bw, "\n%s #%d\n", header, i+1)
		for _, f := range rec.Fields() {
			fmt.Fprintf(bw, "%s: %s\n", f.Label, f.Value)
		}
		fmt.Fprintf(bw, "\n%s\n", rec.Narrative())
	}
	return bw.Flush()
}

// WriteCorpus writes records to dir/<corpus file>, replacing any existing file.
func WriteCorpus(dir string, kind Kind, records []Record) (string, error) {
	path := filepath.Join(dir, kind.FileName())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteBlocks(f, kind.Header(), records); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// Options configures a corpus generation run.
type Options struct {
	OutputDir string
	Records   int
	YearsBack int
	// Today anchors every date tracker; zero means the current date.
	Today time.Time
	// Seed makes the run reproducible; zero means time-seeded.
	Seed   uint64
	Out    io.Writer
	Logger *slog.Logger
}

// Result lists what a run produced.
type Result struct {
	OutputDir string
	Files     map[Kind]string
	Counts    map[Kind]int
}

// Generate produces all four corpora with one date tracker each and writes
// them under opts.OutputDir, reporting progress to opts.Out.
func Generate(ctx context.Context, opts Options) (*Result, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Today.IsZero() {
		opts.Today = time.Now()
	}
	if opts.Records < 1 {
		return nil, fmt.Errorf("records must be at least 1, got %d", opts.Records)
	}
	if opts.YearsBack < 1 {
		return nil, fmt.Errorf("years must be at least 1, got %d", opts.YearsBack)
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	out := opts.Out
	fmt.Fprint(out, "Generating financial intelligence data...\n\n")
	fmt.Fprintf(out, "Total records per category: %d\n", opts.Records)
	fmt.Fprintf(out, "Date range: %d years back to today\n\n", opts.YearsBack)

	rng := NewRand(opts.Seed)
	result := &Result{
		OutputDir: opts.OutputDir,
		Files:     make(map[Kind]string, len(Kinds)),
		Counts:    make(map[Kind]int, len(Kinds)),
	}

	for _, kind := range Kinds {
		fmt.Fprintf(out, "Generating %s...\n", kind)
		start := time.Now()

		tracker, err := NewDateTracker(opts.Records, opts.YearsBack, opts.Today, rng)
		if err != nil {
			return nil, err
		}
		records, err := kind.Records(ctx, rng, tracker, opts.Records)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", kind, err)
		}
		path, err := WriteCorpus(opts.OutputDir, kind, records)
		if err != nil {
			return nil, err
		}

		result.Files[kind] = path
		result.Counts[kind] = len(records)
		opts.Logger.Debug("Corpus written",
			"corpus", kind.String(),
			"path", path,
			"records", len(records),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	fmt.Fprint(out, "\nDATA GENERATION COMPLETE\n")
	for i, kind := range Kinds {
		prefix := ""
		if i == 0 {
			prefix = "\n"
		}
		fmt.Fprintf(out, "%sGenerated %d %s\n", prefix, result.Counts[kind], corpora[kind].noun)
	}
	fmt.Fprintf(out, "\nAll files saved to: %s/\n", opts.OutputDir)
	fmt.Fprint(out, "\nFiles created:\n")
	for _, kind := range Kinds {
		fmt.Fprintf(out, "  - %s\n", kind.FileName())
	}

	return result, nil
}
