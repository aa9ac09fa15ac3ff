package pipeline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/hiereval/internal/model"
)

// Input formats
const (
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatJSONL = "jsonl"
)

// ErrInput marks malformed prediction files
var ErrInput = errors.New("invalid predictions file")

// Predictions holds aligned truth and prediction columns read from a file
type Predictions struct {
	Source string
	Truth  []string
	Pred   []string
}

// Len returns the number of rows
func (p *Predictions) Len() int {
	return len(p.Truth)
}

// DetectFormat picks the format from the file extension; csv when unknown
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return FormatTSV
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL
	default:
		return FormatCSV
	}
}

// Reader parses prediction files according to the input configuration
type Reader struct {
	cfg model.InputConfig
}

// NewReader creates a reader, filling empty column names with the defaults
func NewReader(cfg model.InputConfig) *Reader {
	defaults := model.DefaultConfig().Input
	if cfg.TruthColumn == "" {
		cfg.TruthColumn = defaults.TruthColumn
	}
	if cfg.PredictionColumn == "" {
		cfg.PredictionColumn = defaults.PredictionColumn
	}
	return &Reader{cfg: cfg}
}

// Read parses data, named source, into aligned columns
func (r *Reader) Read(source string, data []byte) (*Predictions, error) {
	format := r.cfg.Format
	if format == "" {
		format = DetectFormat(source)
	}

	var (
		preds *Predictions
		err   error
	)
	switch format {
	case FormatCSV:
		preds, err = r.readDelimited(data, ',')
	case FormatTSV:
		preds, err = r.readDelimited(data, '\t')
	case FormatJSONL:
		preds, err = r.readJSONL(data)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInput, format)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	preds.Source = source
	return preds, nil
}

func (r *Reader) readDelimited(data []byte, comma rune) (*Predictions, error) {
	if r.cfg.Delimiter != "" {
		d, size := utf8.DecodeRuneInString(r.cfg.Delimiter)
		if size != len(r.cfg.Delimiter) {
			return nil, fmt.Errorf("%w: delimiter %q must be a single character", ErrInput, r.cfg.Delimiter)
		}
		comma = d
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	if comma == '\t' {
		cr.LazyQuotes = true
	}

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	truthCol, predCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case r.cfg.TruthColumn:
			truthCol = i
		case r.cfg.PredictionColumn:
			predCol = i
		}
	}
	if truthCol < 0 || predCol < 0 {
		return nil, fmt.Errorf("%w: header %v lacks %q or %q", ErrInput, header, r.cfg.TruthColumn, r.cfg.PredictionColumn)
	}

	preds := &Predictions{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if truthCol >= len(record) || predCol >= len(record) {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrInput, line, len(record))
		}
		preds.Truth = append(preds.Truth, strings.TrimSpace(record[truthCol]))
		preds.Pred = append(preds.Pred, strings.TrimSpace(record[predCol]))
	}

	return preds, nil
}

func (r *Reader) readJSONL(data []byte) (*Predictions, error) {
	preds := &Predictions{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var row map[string]interface{}
		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInput, line, err)
		}

		truth, err := field(row, r.cfg.TruthColumn)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInput, line, err)
		}
		pred, err := field(row, r.cfg.PredictionColumn)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInput, line, err)
		}

		preds.Truth = append(preds.Truth, truth)
		preds.Pred = append(preds.Pred, pred)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lines: %w", err)
	}

	return preds, nil
}

// field renders a JSON value as a label; numbers keep their literal form
func field(row map[string]interface{}, key string) (string, error) {
	v, ok := row[key]
	if !ok {
		return "", fmt.Errorf("missing key %q", key)
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case json.Number:
		return t.String(), nil
	default:
		return "", fmt.Errorf("key %q has unsupported type %T", key, v)
	}
}
