package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI runs the command line and captures its output.
func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const genome = "# This data file generated by 23andMe\n" +
	"# rsid\tchromosome\tposition\tgenotype\n" +
	"rs4680\t22\t19951271\tAG\n" +
	"rs6265\t11\t27679916\tTC\n" +
	"rs1\t1\t100\tAA\n"

func TestRun_NoCommand(t *testing.T) {
	isolateHome(t)
	code, _, _ := runCLI(t)
	assert.Equal(t, ExitUsage, code)
}

func TestRun_UnknownCommand(t *testing.T) {
	isolateHome(t)
	code, _, stderr := runCLI(t, "bogus")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "bogus")
}

func TestRun_Version(t *testing.T) {
	isolateHome(t)
	code, stdout, _ := runCLI(t, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "vibe-genotype version dev")
}

func TestExtract(t *testing.T) {
	isolateHome(t)
	in := writeInput(t, "genome.txt", genome)
	outPath := filepath.Join(t.TempDir(), "panel.tsv")

	code, stdout, stderr := runCLI(t, "extract", "-o", outPath, in)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Status:               PARTIAL")
	assert.Contains(t, stdout, "Format: 23andme")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# methylation\nrs4680\t22\t19951271\tA\tG\n")
}

func TestExtract_MissingArgument(t *testing.T) {
	isolateHome(t)
	code, _, _ := runCLI(t, "extract")
	assert.Equal(t, ExitUsage, code)
}

func TestExtract_BadFlag(t *testing.T) {
	isolateHome(t)
	code, _, _ := runCLI(t, "extract", "--no-such-flag", "x")
	assert.Equal(t, ExitUsage, code)
}

func TestExtract_BadFormat(t *testing.T) {
	isolateHome(t)
	in := writeInput(t, "genome.txt", genome)
	code, _, stderr := runCLI(t, "extract", "--format", "bam", in)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "unknown format")
}

func TestExtract_MissingInput(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	code, _, stderr := runCLI(t, "extract", "--output-dir", dir, filepath.Join(dir, "nope.txt"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "input not found")
	assert.Contains(t, stderr, "Hint:")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtract_MissingInputDoesNotCreateStore(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	store := filepath.Join(dir, "history.duckdb")

	code, _, _ := runCLI(t, "extract", "--store", store, filepath.Join(dir, "nope.txt"))
	assert.Equal(t, ExitError, code)

	_, err := os.Stat(store)
	assert.True(t, os.IsNotExist(err))
}

func TestExtract_ZeroMatchExitsZero(t *testing.T) {
	isolateHome(t)
	in := writeInput(t, "g.txt", "rs1\t1\t100\tAA\n")
	code, stdout, stderr := runCLI(t, "extract", "-q", in)
	assert.Equal(t, ExitSuccess, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "no panel markers found")
}

func TestExtract_CustomPanelAndHistory(t *testing.T) {
	isolateHome(t)
	in := writeInput(t, "genome.txt", genome)
	panelFile := writeInput(t, "panel.tsv", "category\tmarker\nmy_set\trs6265\n")
	store := filepath.Join(t.TempDir(), "history.duckdb")

	code, stdout, stderr := runCLI(t, "extract", "--panel", panelFile, "--store", store, in)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Run ID:")

	code, stdout, stderr = runCLI(t, "history", "--store", store)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "genome.txt")
	assert.Contains(t, stdout, "23andme")

	code, stdout, stderr = runCLI(t, "history", "--store", store, "--marker", "rs6265")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "my_set")
	assert.Contains(t, stdout, "27679916")
}

func TestHistory_NoStore(t *testing.T) {
	isolateHome(t)
	code, _, _ := runCLI(t, "history")
	assert.Equal(t, ExitUsage, code)
}

func TestDetect(t *testing.T) {
	isolateHome(t)
	in := writeInput(t, "data.vcf", "##fileformat=VCFv4.2\n1\t100\trs1\tA\tG\n")
	code, stdout, _ := runCLI(t, "detect", in)
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "vcf\n", stdout)
}

func TestPanel(t *testing.T) {
	isolateHome(t)
	code, stdout, _ := runCLI(t, "panel")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "methylation")
	assert.Contains(t, stdout, "nutrient metabolism")
	assert.Contains(t, stdout, "categories")
}

func TestConfigSetAndGet(t *testing.T) {
	home := isolateHome(t)

	code, stdout, stderr := runCLI(t, "config", "set", "workers", "4")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Set workers = 4")

	data, err := os.ReadFile(filepath.Join(home, configName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "workers: 4")

	code, stdout, _ = runCLI(t, "config", "get", "workers")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "4", strings.TrimSpace(stdout))

	code, stdout, _ = runCLI(t, "config")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "workers: 4")
}

func TestConfig_EnvOverride(t *testing.T) {
	isolateHome(t)
	t.Setenv("VIBE_GENOTYPE_TOP_CATEGORIES", "2")

	code, stdout, _ := runCLI(t, "config", "get", "top_categories")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "2", strings.TrimSpace(stdout))
}
