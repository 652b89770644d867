package survey

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/report"
	"github.com/KaramelBytes/dkap-cli/internal/store"
	"github.com/KaramelBytes/dkap-cli/internal/study"
	"go.uber.org/zap"
)

// csvArtifacts loads every recorded CSV artifact still on disk.
func (r *Runner) csvArtifacts() ([]*study.Artifact, []*dataset.Table, error) {
	var arts []*study.Artifact
	var tables []*dataset.Table
	for _, a := range r.Study.List(study.KindCSV) {
		t, err := dataset.Load(r.Study.Abs(a), dataset.ReadOptions{})
		if err != nil {
			r.warn(fmt.Sprintf("skipping %s: %v", a.Name, err), zap.String("artifact", a.Path))
			continue
		}
		arts = append(arts, a)
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		return nil, nil, fmt.Errorf("no CSV artifacts recorded in %s: %w", r.Study.RootDir(), dataset.ErrEmptyTable)
	}
	return arts, tables, nil
}

func artifactLabel(a *study.Artifact) string {
	return strings.TrimSuffix(a.Name, filepath.Ext(a.Name))
}

// ExportSQLite loads every CSV artifact into its own table of the SQLite
// database at path.
func (r *Runner) ExportSQLite(ctx context.Context, path string) error {
	arts, tables, err := r.csvArtifacts()
	if err != nil {
		return err
	}
	in := make([]store.Table, len(arts))
	for i, a := range arts {
		in[i] = store.Table{Name: artifactLabel(a), Table: tables[i]}
	}
	path = r.outputFile(path)
	names, err := store.Export(ctx, path, in)
	if err != nil {
		return err
	}
	r.printf("Exported %d tables: %s\n", len(names), strings.Join(names, ", "))
	return r.record(path, fmt.Sprintf("SQLite database of %d CSV artifacts", len(names)))
}

// ExportWorkbook writes every CSV artifact as a worksheet of one XLSX file.
func (r *Runner) ExportWorkbook(path string) error {
	arts, tables, err := r.csvArtifacts()
	if err != nil {
		return err
	}
	sheets := make([]report.Sheet, len(arts))
	for i, a := range arts {
		sheets[i] = report.Sheet{Name: artifactLabel(a), Table: tables[i]}
	}
	path = r.outputFile(path)
	if err := report.WriteWorkbook(path, sheets); err != nil {
		return err
	}
	return r.record(path, fmt.Sprintf("Workbook of %d CSV artifacts", len(sheets)))
}

// outputFile places a relative export path inside the output directory.
func (r *Runner) outputFile(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return r.path(path)
}

// Artifacts prints the manifest, optionally limited to one kind.
func (r *Runner) Artifacts(kind string) {
	list := r.Study.List(kind)
	t := dataset.New("artifacts", "Name", "Kind", "Command", "Size", "Created")
	for _, a := range list {
		t.Append(a.Name, a.Kind, a.Command, a.Size, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	report.Print(r.Out, fmt.Sprintf("Artifacts in %s", r.Study.RootDir()), t, 0)
}
