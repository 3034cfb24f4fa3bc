package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/calltimeline/clients"
	cfg "github.com/maastricht-university/calltimeline/config"
	"github.com/maastricht-university/calltimeline/metrics"
	"github.com/maastricht-university/calltimeline/timeline"
	"github.com/maastricht-university/calltimeline/validation"
)

type Pipeline struct {
	cfg  *cfg.Root
	http *clients.HTTP
	log  logrus.FieldLogger
	ids  []metrics.ID
}

func NewPipeline(c *cfg.Root, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{cfg: c, http: clients.NewHTTP(), log: log, ids: c.Metrics.IDs()}
}

// outcome is the result slot of one call.
type outcome struct {
	report *metrics.Report
	err    *CallError
	warn   bool
	done   bool
}

// Run loads a batch, computes every call on a bounded worker pool, persists
// the records and publishes them when a reporting service is configured.
// Per-call failures are collected in RunResult.Failures. On cancellation
// the calls already computed are still persisted and ctx.Err() is returned.
func (p *Pipeline) Run(ctx context.Context, src Source) (*RunResult, error) {
	runID := newRunID()
	log := p.log.WithField("run_id", runID)

	batch, err := p.load(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(batch); err != nil {
		return nil, fmt.Errorf("batch %s: %w", src, err)
	}
	log.WithFields(logrus.Fields{"source": src.String(), "calls": len(batch.Calls)}).Info("batch loaded")

	outcomes := p.computeAll(ctx, log, batch.Calls)

	res := &RunResult{RunID: runID}
	for _, o := range outcomes {
		switch {
		case !o.done:
			res.Skipped++
		case o.err != nil:
			res.Failures = append(res.Failures, o.err)
		default:
			res.Reports = append(res.Reports, o.report)
		}
		if o.warn {
			res.Warnings++
		}
	}

	m := p.manifest(res, src, len(batch.Calls))
	res.Dir, err = persist(p.cfg.Paths.Outputs, p.cfg.Output.Format, m, res.Reports)
	if err != nil {
		return res, fmt.Errorf("persist: %w", err)
	}
	log.WithFields(logrus.Fields{
		"computed": len(res.Reports),
		"failed":   len(res.Failures),
		"skipped":  res.Skipped,
		"warnings": res.Warnings,
		"dir":      res.Dir,
	}).Info("run complete")

	if err := ctx.Err(); err != nil {
		return res, err
	}

	if url := p.cfg.Services.Reporting.URL; url != "" {
		calls, speakers := flatten(res.Reports)
		out, err := p.http.PublishReport(ctx, url, publication{Manifest: m, Calls: calls, Speakers: speakers})
		if err != nil {
			return res, fmt.Errorf("publish: %w", err)
		}
		log.WithField("status", out.Status).Info("report published")
	}
	return res, nil
}

func (p *Pipeline) load(ctx context.Context, src Source) (*Batch, error) {
	if src.Path != "" {
		return ReadBatch(src.Path)
	}
	url := p.cfg.Services.Ingest.URL
	if url == "" {
		return nil, errors.New("no input: pass a batch file or set services.ingest.url")
	}
	resp, err := p.http.FetchBatch(ctx, url)
	if err != nil {
		return nil, err
	}
	return fromIngest(resp), nil
}

// computeAll fans calls out to the configured number of workers. Results
// land in input order. Calls not dispatched before ctx is done stay
// undone.
func (p *Pipeline) computeAll(ctx context.Context, log logrus.FieldLogger, calls []CallInput) []outcome {
	out := make([]outcome, len(calls))
	if len(calls) == 0 {
		return out
	}
	workers := max(1, min(p.cfg.Metrics.Workers, len(calls)))

	jobs := make(chan int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = p.computeCall(log, calls[i])
			}
		}()
	}

dispatch:
	for i := range calls {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return out
}

func (p *Pipeline) computeCall(log logrus.FieldLogger, c CallInput) outcome {
	clog := log.WithField("call_id", c.CallID)
	opts := p.cfg.Metrics.Options()

	utts, err := timeline.Normalize(c.CallID, c.Utterances)
	if err != nil {
		clog.WithError(err).WithField("reason", failureReason(err)).Error("call skipped")
		return outcome{err: &CallError{CallID: c.CallID, Err: err}, done: true}
	}
	in := metrics.Analyze(c.CallID, utts, c.DurationMeta, opts)

	o := outcome{done: true}
	if err := in.Timeline.Check(opts.Tolerance); err != nil {
		clog.WithError(err).WithField("reason", "invariant").Warn("timeline invariant violated")
		o.warn = true
	}
	if len(in.Valid) == 0 {
		clog.WithField("reason", "no_valid_intervals").Warn("call has no valid intervals")
		o.warn = true
	}
	if c.DurationMeta != nil && *c.DurationMeta < 0 {
		clog.WithFields(logrus.Fields{"reason": "invalid_metadata", "duration_sec_metadata": *c.DurationMeta}).Warn("metadata duration ignored")
		o.warn = true
	}
	if n := len(utts) - len(in.Valid); n > 0 {
		clog.WithFields(logrus.Fields{"reason": "invalid_time", "count": n}).Debug("utterances flagged")
	}

	rep, err := metrics.Compute(in, p.ids...)
	if err != nil {
		clog.WithError(err).WithField("reason", failureReason(err)).Error("call skipped")
		return outcome{err: &CallError{CallID: c.CallID, Err: err}, done: true}
	}
	o.report = rep
	return o
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, timeline.ErrUnusableRecords):
		return "unusable_records"
	case errors.Is(err, metrics.ErrUnknownMetric):
		return "unknown_metric"
	default:
		return "error"
	}
}

func (p *Pipeline) manifest(res *RunResult, src Source, total int) *Manifest {
	m := &Manifest{
		RunID:       res.RunID,
		Pipeline:    p.cfg.Pipeline.Name,
		Version:     p.cfg.Pipeline.Version,
		Source:      src.String(),
		GeneratedAt: time.Now().UTC(),
		Calls:       total,
		Computed:    len(res.Reports),
		Skipped:     res.Skipped,
		Warnings:    res.Warnings,
		Failures:    []Failure{},
		Metrics:     map[string]string{},
	}
	for _, f := range res.Failures {
		m.Failures = append(m.Failures, Failure{CallID: f.CallID, Error: f.Err.Error()})
	}
	ids := p.ids
	if len(ids) == 0 {
		ids = metrics.IDs()
	}
	for _, id := range ids {
		if d, err := metrics.Lookup(id); err == nil {
			m.Metrics[string(id)] = d.Version
		}
	}
	return m
}

type publication struct {
	Manifest *Manifest                `json:"manifest"`
	Calls    []metrics.CallMetrics    `json:"calls"`
	Speakers []metrics.SpeakerMetrics `json:"speakers"`
}
