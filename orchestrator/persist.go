package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/calltimeline/metrics"
)

func newRunID() string {
	return time.Now().Format("20060102-150405") + "_" + uuid.NewString()[:8]
}

func mkRunDir(outputsRoot, runID string) (string, error) {
	dir := filepath.Join(outputsRoot, "run_"+runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeAs(format, path string, v any) error {
	switch format {
	case "yaml":
		return writeYAML(path, v)
	case "json", "":
		return writeJSON(path, v)
	default:
		return fmt.Errorf("%w: output %s", ErrUnsupportedFormat, format)
	}
}

func fileExt(format string) string {
	if format == "yaml" {
		return ".yaml"
	}
	return ".json"
}

// persist writes calls, speakers and the manifest into a fresh run
// directory and returns its path. The manifest is completed in place.
func persist(outputsRoot, format string, m *Manifest, reports []*metrics.Report) (string, error) {
	dir, err := mkRunDir(outputsRoot, m.RunID)
	if err != nil {
		return "", err
	}

	calls, speakers := flatten(reports)
	ext := fileExt(format)
	m.Files = map[string]string{
		"calls":    "calls" + ext,
		"speakers": "speakers" + ext,
	}
	if err := writeAs(format, filepath.Join(dir, m.Files["calls"]), calls); err != nil {
		return "", err
	}
	if err := writeAs(format, filepath.Join(dir, m.Files["speakers"]), speakers); err != nil {
		return "", err
	}
	if err := writeAs(format, filepath.Join(dir, "run"+ext), m); err != nil {
		return "", err
	}
	return dir, nil
}

func flatten(reports []*metrics.Report) ([]metrics.CallMetrics, []metrics.SpeakerMetrics) {
	calls := make([]metrics.CallMetrics, 0, len(reports))
	speakers := []metrics.SpeakerMetrics{}
	for _, r := range reports {
		calls = append(calls, r.Call)
		speakers = append(speakers, r.Speakers...)
	}
	return calls, speakers
}
