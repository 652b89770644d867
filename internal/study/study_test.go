package study_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/dkap-cli/internal/study"
)

func TestRecordSaveLoad(t *testing.T) {
	tdir := t.TempDir()
	out := filepath.Join(tdir, "out")
	s, err := study.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Name != "out" {
		t.Fatalf("expected name from dir, got %q", s.Name)
	}

	csvPath := s.Path("clusters.csv")
	pngPath := s.Path("plots/knowledge_score_boxplot.png")
	if err := os.MkdirAll(filepath.Dir(pngPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(csvPath, []byte("respondent_id,Cluster\n1,0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pngPath, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := s.Record(csvPath, "cluster knowledge", "cluster labels")
	if err != nil {
		t.Fatalf("record csv: %v", err)
	}
	if _, err := s.Record(pngPath, "cluster knowledge", "boxplot"); err != nil {
		t.Fatalf("record png: %v", err)
	}
	again, err := s.Record(csvPath, "cluster knowledge", "cluster labels (rerun)")
	if err != nil {
		t.Fatalf("re-record: %v", err)
	}
	if again.ID != a.ID {
		t.Fatalf("re-recording should keep the id")
	}
	if len(s.Artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(s.Artifacts))
	}
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := study.Load(out)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	all := loaded.List("")
	if len(all) != 2 || all[0].Path != "clusters.csv" || all[1].Path != "plots/knowledge_score_boxplot.png" {
		t.Fatalf("unexpected listing: %+v", all)
	}
	csvs := loaded.List(study.KindCSV)
	if len(csvs) != 1 || csvs[0].Description != "cluster labels (rerun)" || csvs[0].Size == 0 {
		t.Fatalf("unexpected csv listing: %+v", csvs)
	}
	if loaded.Abs(csvs[0]) != csvPath {
		t.Fatalf("abs path mismatch: %s", loaded.Abs(csvs[0]))
	}
}

func TestRecordMissingFile(t *testing.T) {
	s := study.New("x", "", t.TempDir())
	if _, err := s.Record(s.Path("nope.csv"), "describe", ""); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := study.Load(t.TempDir()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestKindOf(t *testing.T) {
	cases := map[string]string{
		"a.CSV":          study.KindCSV,
		"b.png":          study.KindPNG,
		"cfa_model.dot":  study.KindDot,
		"summary.txt":    study.KindText,
		"dkap.sqlite":    study.KindDB,
		"README":         study.KindOther,
		"final_dkap.pdf": study.KindPDF,
	}
	for in, want := range cases {
		if got := study.KindOf(in); got != want {
			t.Errorf("KindOf(%q)=%q want %q", in, got, want)
		}
	}
}
