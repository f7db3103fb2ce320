// Package engine wires the daemon client, history store and centrality
// analyzer together behind the operations the CLI exposes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/lcwatch/lcw/pkg/centrality"
	"github.com/lcwatch/lcw/pkg/config"
	"github.com/lcwatch/lcw/pkg/history"
	"github.com/lcwatch/lcw/pkg/lightning"
	"github.com/lcwatch/lcw/pkg/telemetry"
	"github.com/lcwatch/lcw/pkg/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrPanic wraps a panic recovered inside an engine operation.
var ErrPanic = errors.New("internal failure")

// SelfAlias selects the local node wherever a node id is expected.
const SelfAlias = "self"

// Engine is the runtime core.
type Engine struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Client   lightning.Client
	Analyzer *centrality.Analyzer

	config config.Config
	now    func() time.Time

	storeOnce sync.Once
	store     history.Store
	storeErr  error

	telemetry *telemetry.Provider
}

// Option defines a functional configuration override.
type Option func(*Engine)

// WithConfig sets the configuration. Without it config.Default applies.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithLogger overrides the logger built from the logging config.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.Logger = l
	}
}

// WithClient overrides the daemon client built from the lightning config.
func WithClient(c lightning.Client) Option {
	return func(e *Engine) {
		e.Client = c
	}
}

// WithStore overrides the history store built from the history config.
func WithStore(s history.Store) Option {
	return func(e *Engine) {
		e.storeOnce.Do(func() {})
		e.store = s
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New initializes the Engine.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		config: config.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	if e.Logger == nil {
		e.Logger = NewLogger(os.Stderr, e.config.Logging)
	}
	slog.SetDefault(e.Logger)

	// Telemetry goes first so the analyzer's instruments bind to it.
	if !e.config.Telemetry.Disabled {
		p, err := telemetry.Init(ctx, version.AppName, version.Current, e.config.Telemetry.Endpoint)
		if err != nil {
			e.Logger.Warn("Telemetry failed", "error", err)
		} else {
			e.telemetry = p
		}
	}
	e.Tracer = otel.Tracer("lcw/engine")

	analyzer, err := NewAnalyzer(e.config.Analysis)
	if err != nil {
		return nil, err
	}
	e.Analyzer = analyzer

	if e.Client == nil {
		if dir := e.config.Lightning.TestDir; dir != "" {
			e.Logger.Debug("Using fixture client", "dir", dir)
			e.Client = lightning.NewFixtureClient(dir)
		} else {
			c, err := lightning.NewCLIClient(e.config.Lightning, e.Logger)
			if err != nil {
				return nil, err
			}
			e.Client = c
		}
	}
	return e, nil
}

// NewAnalyzer builds an analyzer from the analysis settings.
func NewAnalyzer(cfg config.AnalysisConfig) (*centrality.Analyzer, error) {
	w, err := centrality.ParseWeighting(cfg.Weighting)
	if err != nil {
		return nil, err
	}
	n, err := centrality.ParseNormalization(cfg.Normalization)
	if err != nil {
		return nil, err
	}
	scanner := centrality.NewScanner(w)
	if cfg.MaxDepth > 0 {
		scanner.MaxDepth = cfg.MaxDepth
	}
	return centrality.NewAnalyzer(
		centrality.WithScanner(scanner),
		centrality.WithScorer(centrality.Scorer{Normalization: n}),
		centrality.WithWorkers(cfg.Workers),
	), nil
}

// Config returns the settings the engine runs with.
func (e *Engine) Config() config.Config {
	return e.config
}

// Store opens the history store on first use.
func (e *Engine) Store() (history.Store, error) {
	e.storeOnce.Do(func() {
		e.store, e.storeErr = history.Open(e.config.History)
	})
	return e.store, e.storeErr
}

// Close releases the store and flushes telemetry.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	if e.store != nil {
		errs = append(errs, e.store.Close())
	}
	if e.telemetry != nil {
		if counters, err := e.telemetry.Counters(ctx); err == nil {
			for name, v := range counters {
				e.Logger.Debug("Counter", "name", name, "value", v)
			}
		}
		errs = append(errs, e.telemetry.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// do runs fn inside a span, with a deadline when the analysis timeout is set
// and with panics turned into ErrPanic.
func do[T any](ctx context.Context, e *Engine, name string, timed bool, fn func(ctx context.Context) (T, error)) (out T, err error) {
	ctx, span := e.Tracer.Start(ctx, name)
	defer span.End()
	defer e.recoverPanic(ctx, &err)

	if timed && e.config.Analysis.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Analysis.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err = fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return out, err
	}
	e.Logger.Debug("Operation finished", "op", name, "elapsed", time.Since(start))
	return out, nil
}

// recoverPanic handles failures.
func (e *Engine) recoverPanic(ctx context.Context, err *error) {
	if r := recover(); r != nil {
		_, span := e.Tracer.Start(ctx, "CriticalPanic")
		stack := debug.Stack()

		span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "CRITICAL FAILURE")
		span.SetAttributes(
			attribute.String("crash.stack", string(stack)),
			attribute.String("crash.reason", fmt.Sprintf("%v", r)),
		)
		span.End()

		e.Logger.Error("CRITICAL FAILURE", "error", r, "stack", string(stack))
		*err = fmt.Errorf("%w: %v", ErrPanic, r)
	}
}

// NewLogger builds the process logger: JSON or text on w, at the configured
// level, with secrets redacted.
func NewLogger(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level = slog.LevelInfo
		}
	}
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: redactSensitiveData}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

var sensitiveKeys = map[string]bool{
	"password": true, "token": true, "secret": true, "rune": true,
	"macaroon": true, "api_key": true, "private_key": true, "credential": true,
}

// redactSensitiveData scrubs sensitive keys from logs.
func redactSensitiveData(groups []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.Attr{
			Key:   a.Key,
			Value: slog.StringValue("[REDACTED]"),
		}
	}
	return a
}
