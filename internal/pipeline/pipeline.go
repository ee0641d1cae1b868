// Package pipeline runs the load, parse, decode and store stages for the
// slots of a configuration.
//
// # Basic Usage
//
//	p := pipeline.New(source.NewRegistry(cfg.Source), s, &pipeline.Config{
//	    Workers:      4,
//	    TableOptions: cfg.Table.Options(),
//	})
//	report, err := p.Run(ctx, cfg.Slots)
//
// Slots are independent: a failing slot is reported and the others still
// run. Run returns an error when at least one slot failed.
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ajitpratap0/csvconf/pkg/config"
	"github.com/ajitpratap0/csvconf/pkg/convert"
	"github.com/ajitpratap0/csvconf/pkg/csvtable"
	"github.com/ajitpratap0/csvconf/pkg/errors"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"github.com/ajitpratap0/csvconf/pkg/materialize"
	"github.com/ajitpratap0/csvconf/pkg/metrics"
	"github.com/ajitpratap0/csvconf/pkg/observability"
	"github.com/ajitpratap0/csvconf/pkg/sink"
	"github.com/ajitpratap0/csvconf/pkg/source"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Config controls a pipeline run.
type Config struct {
	Workers      int               // Slots processed in parallel, NumCPU when zero
	Registry     *convert.Registry // Conversion registry, convert.Default() when nil
	TableOptions []csvtable.Option // Dialect of the loaded tables
	SinkName     string            // Backend label of stage metrics
	Tracer       trace.Tracer      // Stage spans, observability.Tracer() when nil
}

// SlotResult is the outcome of one slot.
type SlotResult struct {
	Name     string        `json:"name"`
	URI      string        `json:"uri"`
	Records  int           `json:"records"`
	Columns  int           `json:"columns"`
	Skipped  []string      `json:"skipped,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Report summarizes a run in slot order.
type Report struct {
	Results   []SlotResult `json:"results"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// Pipeline moves tables from a loader to a sink.
type Pipeline struct {
	loader source.Loader
	sink   sink.Sink
	config Config
	logger *zap.Logger
}

// New creates a pipeline. A nil config uses defaults.
func New(loader source.Loader, s sink.Sink, cfg *Config) *Pipeline {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Registry == nil {
		c.Registry = convert.Default()
	}
	if c.SinkName == "" {
		c.SinkName = fmt.Sprintf("%T", s)
	}
	if c.Tracer == nil {
		c.Tracer = observability.Tracer()
	}
	return &Pipeline{
		loader: loader,
		sink:   s,
		config: c,
		logger: logger.Get().With(zap.String("component", "pipeline")),
	}
}

// Decode loads uri and decodes it with its own descriptor row.
func (p *Pipeline) Decode(ctx context.Context, uri string) (ds *materialize.Dataset, err error) {
	scheme, _ := source.Split(uri)
	ctx, span := p.config.Tracer.Start(ctx, "pipeline.decode",
		trace.WithAttributes(attribute.String("table.uri", uri)))
	defer func() {
		if ds != nil {
			span.SetAttributes(
				attribute.Int("table.records", ds.Len()),
				attribute.Int("table.columns", len(ds.Columns)))
		}
		observability.EndSpan(span, err)
	}()

	var text string
	err = p.stage(ctx, "load", scheme, func(ctx context.Context) (err error) {
		text, err = p.loader.Load(ctx, uri)
		return err
	})
	if err != nil {
		return nil, err
	}

	var tbl *csvtable.Table
	err = p.stage(ctx, "parse", scheme, func(context.Context) (err error) {
		tbl, err = csvtable.Parse(text, p.config.TableOptions...)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, "materialize", scheme, func(context.Context) (err error) {
		ds, err = materialize.Dynamic(tbl, p.config.Registry)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// stage runs fn in a child span and records its duration.
func (p *Pipeline) stage(ctx context.Context, name, backend string, fn func(context.Context) error) error {
	ctx, span := p.config.Tracer.Start(ctx, "pipeline."+name)
	timer := metrics.NewTimer()
	err := fn(ctx)
	metrics.ObserveStage(name, backend, timer)
	observability.EndSpan(span, err)
	return err
}

// ProcessSlot decodes one slot and stores it.
func (p *Pipeline) ProcessSlot(ctx context.Context, slot config.SlotConfig) SlotResult {
	start := time.Now()
	res := SlotResult{Name: slot.Name, URI: slot.URI}
	ctx, span := p.config.Tracer.Start(ctx, "pipeline.slot", trace.WithAttributes(
		attribute.String("slot.name", slot.Name),
		attribute.String("slot.uri", slot.URI)))

	ds, err := p.Decode(ctx, slot.URI)
	if err == nil {
		res.Records = ds.Len()
		res.Columns = len(ds.Columns)
		res.Skipped = ds.Skipped
		err = p.stage(ctx, "store", p.config.SinkName, func(ctx context.Context) error {
			return p.sink.Store(ctx, slot.Name, ds)
		})
	}
	res.Err = err
	res.Duration = time.Since(start)
	span.SetAttributes(attribute.Int("slot.records", res.Records))
	observability.EndSpan(span, err)

	log := p.logger.With(zap.String("slot", slot.Name), zap.String("uri", slot.URI))
	if err != nil {
		log.Error("slot failed", zap.Error(err))
	} else {
		log.Info("slot processed",
			zap.Int("records", res.Records),
			zap.Strings("skipped", res.Skipped),
			zap.Duration("duration", res.Duration))
	}
	return res
}

// Run processes every slot with up to Workers slots in flight.
func (p *Pipeline) Run(ctx context.Context, slots []config.SlotConfig) (*Report, error) {
	report := &Report{Results: make([]SlotResult, len(slots))}
	sem := make(chan struct{}, p.config.Workers)
	var wg sync.WaitGroup

	for i, slot := range slots {
		if err := ctx.Err(); err != nil {
			report.Results[i] = SlotResult{Name: slot.Name, URI: slot.URI, Err: err}
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			report.Results[i] = SlotResult{Name: slot.Name, URI: slot.URI, Err: ctx.Err()}
			continue
		}
		wg.Add(1)
		go func(i int, slot config.SlotConfig) {
			defer wg.Done()
			defer func() { <-sem }()
			report.Results[i] = p.ProcessSlot(ctx, slot)
		}(i, slot)
	}
	wg.Wait()

	var errs []error
	for _, r := range report.Results {
		if r.Err != nil {
			report.Failed++
			errs = append(errs, slotError(r))
			continue
		}
		report.Succeeded++
	}
	p.logger.Info("pipeline completed",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	return report, stderrors.Join(errs...)
}

// slotError names the failed slot. A typed cause keeps its type; anything
// else, such as a canceled context, is reported as a data error.
func slotError(r SlotResult) error {
	errType := errors.ErrorTypeData
	var typed *errors.Error
	if stderrors.As(r.Err, &typed) {
		errType = typed.Type
	}
	return errors.Wrap(r.Err, errType, "slot "+r.Name).WithDetail("uri", r.URI)
}
