package centrality

import (
	"context"
	"runtime"

	"github.com/lcwatch/lcw/pkg/graph"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/lcwatch/lcw/pkg/centrality"

// Result is the analysis of a single node.
type Result struct {
	NodeID string `json:"node_id" yaml:"node_id"`
	Alias  string `json:"alias" yaml:"alias"`
	Hops   Hops   `json:"hops" yaml:"hops"`
	Score  int    `json:"score" yaml:"score"`
}

// Analyzer ties a Scanner and a Scorer together and runs the what-if passes.
// The same weighting and normalisation apply to every score it produces.
type Analyzer struct {
	Scanner Scanner
	Scorer  Scorer
	// Workers bounds concurrent evaluations. 1 reproduces the sequential
	// reference behaviour; <= 0 means GOMAXPROCS.
	Workers int

	tracer trace.Tracer
	scans  metric.Int64Counter
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWorkers sets the evaluation concurrency.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.Workers = n
	}
}

// WithScanner replaces the default capacity-weighted scanner.
func WithScanner(s Scanner) Option {
	return func(a *Analyzer) {
		a.Scanner = s
	}
}

// WithScorer replaces the default hop-sum scorer.
func WithScorer(s Scorer) Option {
	return func(a *Analyzer) {
		a.Scorer = s
	}
}

// NewAnalyzer defaults to capacity weighting, hop-sum normalisation and one
// worker per CPU.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		Scanner: NewScanner(WeightCapacity),
		Scorer:  Scorer{Normalization: NormalizeHopSum},
		tracer:  otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(a)
	}

	counter, err := otel.Meter(instrumentationName).Int64Counter("lcw.centrality.scans",
		metric.WithDescription("Breadth-first scans performed"),
		metric.WithUnit("{scan}"))
	if err != nil {
		counter = noop.Int64Counter{}
	}
	a.scans = counter
	return a
}

func (a *Analyzer) workers() int {
	if a.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return a.Workers
}

// Mode names the weighting and normalisation for reports.
func (a *Analyzer) Mode(g *graph.Graph) string {
	return a.Scanner.Weighting.String() + "/" + a.scorerFor(g).Mode()
}

// SatsPerBTC is the unit capacity hops are scored in.
const SatsPerBTC = 100_000_000

// scorerFor pins the node-count divisor to the graph when unset. Forks share
// the node set, so every score of a run sees the same divisor. Capacity hops
// are scored in BTC.
func (a *Analyzer) scorerFor(g *graph.Graph) Scorer {
	sc := a.Scorer
	if a.Scanner.Weighting == WeightCapacity && sc.Unit == 0 {
		sc.Unit = SatsPerBTC
	}
	if sc.Normalization == NormalizeNodeCount && sc.NodeCount == 0 {
		sc.NodeCount = g.NodeCount()
	}
	return sc
}

func (a *Analyzer) scan(ctx context.Context, g *graph.Graph, id string) (Hops, error) {
	a.scans.Add(ctx, 1, metric.WithAttributes(attribute.String("weighting", a.Scanner.Weighting.String())))
	return a.Scanner.Scan(g, id)
}

func (a *Analyzer) scoreOf(ctx context.Context, g *graph.Graph, id string) (int, error) {
	h, err := a.scan(ctx, g, id)
	if err != nil {
		return 0, err
	}
	return a.scorerFor(g).Score(h), nil
}

// Analyze scans and scores a single node.
func (a *Analyzer) Analyze(ctx context.Context, g *graph.Graph, id string) (Result, error) {
	n, err := g.MustNode(id)
	if err != nil {
		return Result{}, err
	}
	h, err := a.scan(ctx, g, id)
	if err != nil {
		return Result{}, err
	}
	return Result{
		NodeID: n.ID,
		Alias:  n.Alias,
		Hops:   h,
		Score:  a.scorerFor(g).Score(h),
	}, nil
}
