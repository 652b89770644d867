package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "github.com/KaramelBytes/dkap-cli/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCmd is a helper to execute the root command with args and return its
// standard output.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func execCmd(args ...string) (string, error) {
	// Reset bound variables that would otherwise stick between invocations
	cfgFile, flagDataDir, flagOutputDir = "", "", ""
	exportDB, exportXLSX, listKind = "", "", ""
	proOutputPath, proSave = "", false
	for _, name := range []string{"config", "data-dir", "output-dir"} {
		if fl := rootCmd.PersistentFlags().Lookup(name); fl != nil {
			fl.Changed = false
		}
	}
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func newStudy(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir = filepath.Join(t.TempDir(), "study")
	out := runCmd(t, "init", dir, "-d", "integration test")
	assert.Contains(t, out, "✓ Study initialized")
	return dir, filepath.Join(dir, "dkap.yaml")
}

func writeKnowledgeQuestions(t *testing.T, dir string) {
	t.Helper()
	lines := []string{"respondent_id,K1,K2,K3"}
	for i := 0; i < 16; i++ {
		row := []string{fmt.Sprintf("R%02d", i+1)}
		for j := 1; j <= 3; j++ {
			v := 0
			if i%6 >= j {
				v = 1
			}
			row = append(row, fmt.Sprint(v))
		}
		lines = append(lines, strings.Join(row, ","))
	}
	path := filepath.Join(dir, "data", "database_knowledge_questions.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func TestCLI_Init_Alpha_Artifacts_Export(t *testing.T) {
	dir, cfgPath := newStudy(t)
	assert.DirExists(t, filepath.Join(dir, "data"))
	assert.FileExists(t, filepath.Join(dir, "out", "manifest.json"))

	writeKnowledgeQuestions(t, dir)
	out := runCmd(t, "--config", cfgPath, "reliability", "alpha")
	assert.Contains(t, out, "Cronbach's alpha:")
	assert.FileExists(t, filepath.Join(dir, "out", "knowledge_cronbach_alpha.csv"))

	out = runCmd(t, "--config", cfgPath, "artifacts")
	assert.Contains(t, out, "knowledge_cronbach_alpha.csv")

	runCmd(t, "--config", cfgPath, "export", "--xlsx", "all.xlsx", "--db", "all.sqlite")
	assert.FileExists(t, filepath.Join(dir, "out", "all.xlsx"))
	assert.FileExists(t, filepath.Join(dir, "out", "all.sqlite"))
}

func TestCLI_InitRefusesExistingStudy(t *testing.T) {
	dir, _ := newStudy(t)
	_, err := execCmd("init", dir)
	assert.Error(t, err)
}

func TestCLI_ConfigSet(t *testing.T) {
	_, cfgPath := newStudy(t)
	runCmd(t, "--config", cfgPath, "config", "set", "cluster.k", "3")
	runCmd(t, "--config", cfgPath, "config", "set", "likert_questions", "Q1,Q2")

	c, err := cfgpkg.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Cluster.K)
	assert.Equal(t, []string{"Q1", "Q2"}, c.LikertQuestions)

	out := runCmd(t, "--config", cfgPath, "config", "show")
	assert.Contains(t, out, "likert_questions:")

	_, err = execCmd("--config", cfgPath, "config", "set", "no_such_key", "1")
	assert.Error(t, err)
}

func TestCLI_OutputDirOverride(t *testing.T) {
	dir, cfgPath := newStudy(t)
	writeKnowledgeQuestions(t, dir)
	alt := filepath.Join(t.TempDir(), "elsewhere")
	runCmd(t, "--config", cfgPath, "--output-dir", alt, "reliability", "alpha")
	assert.FileExists(t, filepath.Join(alt, "knowledge_cronbach_alpha.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "out", "knowledge_cronbach_alpha.csv"))
}

func TestCLI_DataDirOverride(t *testing.T) {
	dir, cfgPath := newStudy(t)
	elsewhere := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(elsewhere, "data"), 0o755))
	writeKnowledgeQuestions(t, elsewhere)

	_, err := execCmd("--config", cfgPath, "reliability", "alpha")
	require.Error(t, err)

	out := runCmd(t, "--config", cfgPath, "--data-dir", filepath.Join(elsewhere, "data"), "reliability", "alpha")
	assert.Contains(t, out, "Cronbach's alpha:")
	assert.FileExists(t, filepath.Join(dir, "out", "knowledge_cronbach_alpha.csv"))
}

func TestCLI_MissingInputFails(t *testing.T) {
	_, cfgPath := newStudy(t)
	_, err := execCmd("--config", cfgPath, "awareness", "descriptives")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_awareness_AW1.csv")
}

func TestCLI_Profile(t *testing.T) {
	dir, cfgPath := newStudy(t)
	writeKnowledgeQuestions(t, dir)
	data := filepath.Join(dir, "data", "database_knowledge_questions.csv")

	out := runCmd(t, "--config", cfgPath, "profile", data)
	assert.Contains(t, out, "K1")

	runCmd(t, "--config", cfgPath, "profile", "--save", data)
	assert.FileExists(t, filepath.Join(dir, "out", "database_knowledge_questions.profile.md"))
}
