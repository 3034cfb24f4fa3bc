package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gopkg.in/yaml.v3"

	cfg "github.com/maastricht-university/calltimeline/config"
	"github.com/maastricht-university/calltimeline/metrics"
	"github.com/maastricht-university/calltimeline/timeline"
)

const mixedBatch = `{"calls":[
 {"call_id":"ok","utterances":[
   {"speaker":"AGENT","start_sec":0,"end_sec":7,"text":"good morning"},
   {"speaker":"CUSTOMER","start_sec":"00:00:05","end_sec":10,"text":"hello there"}]},
 {"call_id":"nospeaker","utterances":[{"start_sec":0,"end_sec":1,"text":"x"}]},
 {"call_id":"novalid","utterances":[{"speaker":"AGENT","start_sec":"bad","end_sec":1,"text":"x"}]}
]}`

func testConfig(t *testing.T) *cfg.Root {
	t.Helper()
	c := &cfg.Root{}
	c.Pipeline.Name = "test"
	c.Pipeline.Version = "0.0.1"
	c.Metrics = cfg.Metrics{Workers: 2, Tolerance: 1e-9, LongPauseSec: 3, DeadAirSec: 5, MonologueMinUtterances: 3}
	c.Output.Format = "json"
	c.Paths.Outputs = t.TempDir()
	return c
}

func TestRun_FileBatch(t *testing.T) {
	conf := testConfig(t)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	res, err := NewPipeline(conf, logger).Run(context.Background(), Source{Path: writeBatch(t, "batch.json", mixedBatch)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Reports) != 2 || res.Reports[0].Call.CallID != "ok" || res.Reports[1].Call.CallID != "novalid" {
		t.Fatalf("expected reports for ok and novalid in input order, got %d", len(res.Reports))
	}
	if !res.Reports[1].Call.NoValidIntervals {
		t.Error("expected novalid to be flagged")
	}
	if len(res.Failures) != 1 || res.Failures[0].CallID != "nospeaker" || !errors.Is(res.Failures[0], timeline.ErrUnusableRecords) {
		t.Fatalf("expected one unusable-records failure, got %v", res.Failures)
	}
	if res.Warnings != 1 || res.Skipped != 0 {
		t.Errorf("expected 1 warning 0 skipped, got %d/%d", res.Warnings, res.Skipped)
	}
	if !strings.HasPrefix(filepath.Base(res.Dir), "run_") || filepath.Dir(res.Dir) != conf.Paths.Outputs {
		t.Errorf("unexpected run dir %s", res.Dir)
	}

	var calls []metrics.CallMetrics
	readJSON(t, filepath.Join(res.Dir, "calls.json"), &calls)
	if len(calls) != 2 || calls[0].OverlapTime != 2 {
		t.Errorf("unexpected persisted calls: %+v", calls)
	}
	var speakers []metrics.SpeakerMetrics
	readJSON(t, filepath.Join(res.Dir, "speakers.json"), &speakers)
	if len(speakers) != 2 || speakers[0].ApportionedSpeakingTime != 6 {
		t.Errorf("unexpected persisted speakers: %+v", speakers)
	}
	var m Manifest
	readJSON(t, filepath.Join(res.Dir, "run.json"), &m)
	if m.RunID != res.RunID || m.Calls != 3 || m.Computed != 2 || len(m.Failures) != 1 || m.Failures[0].CallID != "nospeaker" {
		t.Errorf("unexpected manifest: %+v", m)
	}
	if len(m.Metrics) != len(metrics.Catalog) {
		t.Errorf("expected every catalog version in the manifest, got %v", m.Metrics)
	}

	var sawSkip, sawWarn bool
	for _, e := range hook.AllEntries() {
		if e.Data["call_id"] == "nospeaker" && e.Level == logrus.ErrorLevel && e.Data["reason"] == "unusable_records" {
			sawSkip = true
		}
		if e.Data["call_id"] == "novalid" && e.Level == logrus.WarnLevel && e.Data["reason"] == "no_valid_intervals" {
			sawWarn = true
		}
		if e.Data["run_id"] != res.RunID {
			t.Errorf("expected run_id on every entry, got %v", e.Data)
		}
	}
	if !sawSkip || !sawWarn {
		t.Errorf("expected skip and warn log entries, got skip=%v warn=%v", sawSkip, sawWarn)
	}
}

func TestRun_YAMLOutputAndSelection(t *testing.T) {
	conf := testConfig(t)
	conf.Output.Format = "yaml"
	conf.Metrics.Enabled = []string{"timeline"}
	logger, _ := test.NewNullLogger()

	res, err := NewPipeline(conf, logger).Run(context.Background(), Source{Path: writeBatch(t, "batch.json", mixedBatch)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(res.Dir, "calls.yaml"))
	if err != nil {
		t.Fatalf("read calls.yaml: %v", err)
	}
	var calls []metrics.CallMetrics
	if err := yaml.Unmarshal(b, &calls); err != nil {
		t.Fatalf("decode calls.yaml: %v", err)
	}
	if len(calls) != 2 || calls[0].OverlapTime != 2 || !calls[1].NoValidIntervals {
		t.Errorf("unexpected yaml calls: %+v", calls)
	}
	if len(res.Reports[0].Speakers) != 0 {
		t.Error("expected speaker metrics to be skipped")
	}
	if _, err := os.Stat(filepath.Join(res.Dir, "run.yaml")); err != nil {
		t.Errorf("expected run.yaml: %v", err)
	}
}

func TestRun_IngestAndPublish(t *testing.T) {
	var published publication
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/calls":
			_, _ = w.Write([]byte(mixedBatch))
		case "/metrics":
			if err := json.NewDecoder(r.Body).Decode(&published); err != nil {
				t.Errorf("decode publication: %v", err)
			}
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	conf := testConfig(t)
	conf.Services.Ingest.URL = srv.URL
	conf.Services.Reporting.URL = srv.URL
	logger, _ := test.NewNullLogger()

	res, err := NewPipeline(conf, logger).Run(context.Background(), Source{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if published.Manifest == nil || published.Manifest.RunID != res.RunID {
		t.Fatalf("expected the manifest to be published, got %+v", published.Manifest)
	}
	if published.Manifest.Source != "ingest" || len(published.Calls) != 2 || len(published.Speakers) != 2 {
		t.Errorf("unexpected publication: %d calls %d speakers", len(published.Calls), len(published.Speakers))
	}
}

func TestRun_NoSource(t *testing.T) {
	logger, _ := test.NewNullLogger()
	if _, err := NewPipeline(testConfig(t), logger).Run(context.Background(), Source{}); err == nil {
		t.Error("expected an error without a batch file or ingest url")
	}
}

func TestRun_InvalidBatch(t *testing.T) {
	body := `{"calls":[{"call_id":"a","utterances":[]},{"call_id":"a","utterances":[]},{"utterances":[]}]}`
	logger, _ := test.NewNullLogger()
	_, err := NewPipeline(testConfig(t), logger).Run(context.Background(), Source{Path: writeBatch(t, "b.json", body)})
	if err == nil || !strings.Contains(err.Error(), "calls") {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestRun_PerCallDefectsKeepBatch(t *testing.T) {
	label := strings.Repeat("x", 65)
	body := `{"calls":[
 {"call_id":"good","utterances":[{"speaker":"AGENT","start_sec":0,"end_sec":4,"text":"hello"}]},
 {"call_id":"odd","utterances":[{"speaker":"` + label + `","start_sec":0,"end_sec":2,"text":"hm"}]},
 {"call_id":"negmeta","duration_sec_metadata":-1,"utterances":[{"speaker":"CUSTOMER","start_sec":0,"end_sec":3,"text":"hi"}]},
 {"call_id":"` + strings.Repeat("c", 200) + `","utterances":[]}
]}`
	logger, hook := test.NewNullLogger()

	res, err := NewPipeline(testConfig(t), logger).Run(context.Background(), Source{Path: writeBatch(t, "b.json", body)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Reports) != 4 || len(res.Failures) != 0 {
		t.Fatalf("expected 4 reports and no failures, got %d/%d", len(res.Reports), len(res.Failures))
	}
	if res.Reports[0].Call.CallID != "good" || res.Reports[0].Call.TotalDuration != 4 {
		t.Errorf("unexpected good call: %+v", res.Reports[0].Call)
	}

	odd := res.Reports[1]
	if odd.Call.Quality.UnknownSpeakerCount != 1 || len(odd.Speakers) != 1 || odd.Speakers[0].Speaker != timeline.Unknown {
		t.Errorf("expected the long label to be flagged UNKNOWN, got %+v", odd.Speakers)
	}

	neg := res.Reports[2].Call.Quality
	if neg.MetadataDuration != nil || neg.MetadataDelta != nil {
		t.Errorf("expected negative metadata to be ignored, got %+v", neg)
	}
	var sawMeta bool
	for _, e := range hook.AllEntries() {
		if e.Data["call_id"] == "negmeta" && e.Data["reason"] == "invalid_metadata" && e.Level == logrus.WarnLevel {
			sawMeta = true
		}
	}
	if !sawMeta {
		t.Error("expected an invalid_metadata warning for negmeta")
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	logger, _ := test.NewNullLogger()

	res, err := NewPipeline(testConfig(t), logger).Run(ctx, Source{Path: writeBatch(t, "batch.json", mixedBatch)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res == nil || res.Skipped != 3 || len(res.Reports) != 0 {
		t.Fatalf("expected every call skipped, got %+v", res)
	}
	if _, err := os.Stat(filepath.Join(res.Dir, "run.json")); err != nil {
		t.Errorf("expected the manifest to be written: %v", err)
	}
}

func TestComputeAll_PreservesOrder(t *testing.T) {
	conf := testConfig(t)
	conf.Metrics.Workers = 8
	p := NewPipeline(conf, logrus.New())

	calls := make([]CallInput, 50)
	for i := range calls {
		spk := "AGENT"
		calls[i] = CallInput{
			CallID:     string(rune('a'+i%26)) + string(rune('0'+i/26)),
			Utterances: []timeline.RawUtterance{{Speaker: &spk, Start: timeline.Seconds(0), End: timeline.Seconds(float64(i + 1))}},
		}
	}
	out := p.computeAll(context.Background(), logrus.New(), calls)
	for i, o := range out {
		if !o.done || o.report == nil {
			t.Fatalf("call %d not computed", i)
		}
		if o.report.Call.CallID != calls[i].CallID || o.report.Call.TotalDuration != float64(i+1) {
			t.Errorf("slot %d holds %s (%g)", i, o.report.Call.CallID, o.report.Call.TotalDuration)
		}
	}
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}
