// Package survey holds the DKAP analyses. Each exported Runner method reads
// its inputs from the data directory, writes its results into the output
// directory and records them in the study manifest.
package survey

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/chart"
	"github.com/KaramelBytes/dkap-cli/internal/config"
	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/study"
	"github.com/KaramelBytes/dkap-cli/internal/utils"
	"go.uber.org/zap"
)

// Runner carries what every analysis needs.
type Runner struct {
	Cfg   *config.Global
	Log   *zap.Logger
	Out   io.Writer
	Study *study.Study
	Chart chart.Options

	// Command is stored with every artifact the run records.
	Command string
}

// NewRunner opens (or starts) the manifest of the configured output
// directory. A nil logger or writer is replaced by a no-op one.
func NewRunner(cfg *config.Global, log *zap.Logger, out io.Writer, command string) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	st, err := study.Open(cfg.OutputPath())
	if err != nil {
		return nil, fmt.Errorf("open output manifest: %w", err)
	}
	return &Runner{
		Cfg:     cfg,
		Log:     log,
		Out:     out,
		Study:   st,
		Chart:   chart.Options{DPI: cfg.PlotDPI},
		Command: command,
	}, nil
}

// Finish persists the manifest.
func (r *Runner) Finish() error {
	if err := r.Study.Save(); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}

// input locates a dataset by name: data directory first, then the output
// directory, where earlier analyses leave their results.
func (r *Runner) input(name string) (string, error) {
	if filepath.IsAbs(name) {
		if utils.FileExists(name) {
			return name, nil
		}
		return "", fmt.Errorf("input %s: %w", name, fs.ErrNotExist)
	}
	for _, dir := range []string{r.Cfg.DataPath(), r.Cfg.OutputPath()} {
		p := filepath.Join(dir, name)
		if utils.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("input %s (looked in %s and %s): %w", name, r.Cfg.DataPath(), r.Cfg.OutputPath(), fs.ErrNotExist)
}

func (r *Runner) load(name string, opt dataset.ReadOptions) (*dataset.Table, error) {
	path, err := r.input(name)
	if err != nil {
		return nil, err
	}
	t, err := dataset.Load(path, opt)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	r.Log.Debug("loaded dataset", zap.String("file", path), zap.Int("rows", t.Len()), zap.Int("cols", len(t.Columns)))
	return t, nil
}

// optional loads a dataset that an analysis can do without. A missing file
// yields a warning and a nil table.
func (r *Runner) optional(name string, opt dataset.ReadOptions) (*dataset.Table, error) {
	if _, err := r.input(name); err != nil {
		r.warn(fmt.Sprintf("%s not found, skipping", name), zap.String("file", name))
		return nil, nil
	}
	return r.load(name, opt)
}

func (r *Runner) path(name string) string { return r.Study.Path(name) }

// record registers an artifact already written to path.
func (r *Runner) record(path, description string) error {
	if _, err := r.Study.Record(path, r.Command, description); err != nil {
		return err
	}
	r.Log.Info("artifact written", zap.String("artifact", path), zap.String("command", r.Command))
	r.printf("✓ Saved %s\n", filepath.Base(path))
	return nil
}

func (r *Runner) writeCSV(t *dataset.Table, name, description string) error {
	p := r.path(name)
	if err := t.WriteCSV(p); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return r.record(p, description)
}

// writeIndexedCSV writes t with a leading index column holding labels. The
// index header may be empty.
func (r *Runner) writeIndexedCSV(t *dataset.Table, name, indexName string, labels []string, description string) error {
	if len(labels) != t.Len() {
		return fmt.Errorf("write %s: %d index labels for %d rows", name, len(labels), t.Len())
	}
	out := t.Clone()
	out.InsertColumn(0, indexName, labels)
	var buf bytes.Buffer
	if err := out.Encode(&buf, "", nil); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return r.writeFile(name, buf.Bytes(), description)
}

func (r *Runner) writeText(name, text, description string) error {
	return r.writeFile(name, []byte(text), description)
}

func (r *Runner) writeFile(name string, data []byte, description string) error {
	p := r.path(name)
	if err := utils.SafeWriteFile(p, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return r.record(p, description)
}

// plot renders a chart through draw and records the PNG.
func (r *Runner) plot(name, description string, draw func(path string) error) error {
	p := r.path(name)
	if err := draw(p); err != nil {
		return fmt.Errorf("plot %s: %w", name, err)
	}
	return r.record(p, description)
}

func (r *Runner) warn(msg string, fields ...zap.Field) {
	r.Log.Warn(msg, fields...)
	r.printf("⚠ %s\n", msg)
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.Out, format, args...)
}

// exists reports whether an output of an earlier analysis is present.
func (r *Runner) exists(name string) bool {
	_, err := os.Stat(r.path(name))
	return err == nil
}

// questionColumns returns the columns named like survey items (Q followed
// by digits), in table order.
func questionColumns(t *dataset.Table) []string {
	var out []string
	for _, c := range t.Columns {
		if isQuestion(c.Name) {
			out = append(out, c.Name)
		}
	}
	return out
}

func isQuestion(name string) bool {
	if len(name) < 2 || name[0] != 'Q' {
		return false
	}
	for _, r := range name[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// prefixed returns the columns starting with any of the prefixes.
func prefixed(t *dataset.Table, prefixes []string) []string {
	var out []string
	for _, c := range t.Columns {
		for _, p := range prefixes {
			if strings.HasPrefix(c.Name, p) {
				out = append(out, c.Name)
				break
			}
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
