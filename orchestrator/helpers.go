package orchestrator

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/calltimeline/clients"
	"github.com/maastricht-university/calltimeline/timeline"
)

// ErrUnsupportedFormat is returned for batch files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported batch format")

// ReadBatch decodes a batch file by extension: .json, .yaml/.yml or .csv.
// JSON and YAML accept either {"calls": [...]} or a bare list of calls.
func ReadBatch(path string) (*Batch, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return decodeJSON(b)
	case ".yaml", ".yml":
		return decodeYAML(b)
	case ".csv":
		return decodeCSV(bytes.NewReader(b))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func decodeJSON(b []byte) (*Batch, error) {
	b = bytes.TrimSpace(b)
	var out Batch
	if len(b) > 0 && b[0] == '[' {
		if err := json.Unmarshal(b, &out.Calls); err != nil {
			return nil, fmt.Errorf("batch json: %w", err)
		}
		return &out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("batch json: %w", err)
	}
	return &out, nil
}

func decodeYAML(b []byte) (*Batch, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return nil, fmt.Errorf("batch yaml: %w", err)
	}
	var out Batch
	if len(node.Content) == 0 {
		return &out, nil
	}
	var err error
	if node.Content[0].Kind == yaml.SequenceNode {
		err = node.Content[0].Decode(&out.Calls)
	} else {
		err = node.Content[0].Decode(&out)
	}
	if err != nil {
		return nil, fmt.Errorf("batch yaml: %w", err)
	}
	return &out, nil
}

// decodeCSV reads the long export format: one utterance per row, a header
// row naming the columns, semicolon or comma delimited. Rows are grouped by
// call_id in order of first appearance. A missing speaker column leaves
// every speaker absent.
func decodeCSV(r io.Reader) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return &Batch{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("batch csv header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[canonicalColumn(h)] = i
	}
	if _, ok := col["call_id"]; !ok {
		return nil, fmt.Errorf("batch csv: missing call_id column")
	}

	cell := func(rec []string, name string) (string, bool) {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}

	out := &Batch{}
	byID := map[string]int{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("batch csv line %d: %w", line, err)
		}
		id, _ := cell(rec, "call_id")
		if id == "" {
			continue
		}
		idx, ok := byID[id]
		if !ok {
			idx = len(out.Calls)
			byID[id] = idx
			out.Calls = append(out.Calls, CallInput{CallID: id})
		}
		call := &out.Calls[idx]
		if d, ok := cell(rec, "duration"); ok && d != "" && call.DurationMeta == nil {
			if v, err := strconv.ParseFloat(strings.Replace(d, ",", ".", 1), 64); err == nil {
				call.DurationMeta = &v
			}
		}

		u := timeline.RawUtterance{CallID: id}
		if s, ok := cell(rec, "speaker"); ok {
			u.Speaker = &s
		}
		if s, _ := cell(rec, "start"); s != "" {
			u.Start = timeline.Timecode(s)
		}
		if s, _ := cell(rec, "end"); s != "" {
			u.End = timeline.Timecode(s)
		}
		u.Text, _ = cell(rec, "text")
		call.Utterances = append(call.Utterances, u)
	}
	return out, nil
}

func sniffDelimiter(data []byte) rune {
	first, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

func canonicalColumn(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	switch h {
	case "start_sec", "start_time", "begin":
		return "start"
	case "end_sec", "end_time", "stop":
		return "end"
	case "duration_sec_metadata", "duration_sec", "call_duration":
		return "duration"
	case "role", "speaker_role":
		return "speaker"
	case "utterance", "transcript":
		return "text"
	}
	return h
}

// fromIngest converts the ingest service response into a Batch.
func fromIngest(resp *clients.CallsResp) *Batch {
	out := &Batch{Calls: make([]CallInput, 0, len(resp.Calls))}
	for _, c := range resp.Calls {
		out.Calls = append(out.Calls, CallInput{CallID: c.CallID, DurationMeta: c.DurationMeta, Utterances: c.Utterances})
	}
	return out
}
