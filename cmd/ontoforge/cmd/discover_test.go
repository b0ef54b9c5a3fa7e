package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const portalText = "Staff reported that Vendor Portal was slow again."

func portalCorpus(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	for i := 1; i <= n; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("memo-%d.txt", i)), portalText)
	}
	return dir
}

func TestDiscoverPromotesAndExports(t *testing.T) {
	dir := portalCorpus(t, 3)
	schemaPath := filepath.Join(t.TempDir(), "schema.json")
	metricsPath := filepath.Join(t.TempDir(), "ontoforge.prom")

	out, err := executeCommand(t, "discover", dir, "--out", schemaPath, "--metrics-textfile", metricsPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Mode:               hybrid")
	assert.Contains(t, out, "Documents:          3")
	assert.Contains(t, out, "+ entity type Vendor Portal")
	assert.Contains(t, out, "Entity types:       11 (1 discovered)")
	assert.Contains(t, out, "Schema written to "+schemaPath)

	data, err := os.ReadFile(schemaPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Vendor Portal"`)

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "ontoforge_documents_scanned_total 3")
}

func TestDiscoverParallelMatchesSequential(t *testing.T) {
	dir := portalCorpus(t, 4)

	seq, err := executeCommand(t, "discover", dir)
	require.NoError(t, err)
	par, err := executeCommand(t, "discover", dir, "--parallel")
	require.NoError(t, err)

	for _, out := range []string{seq, par} {
		assert.Contains(t, out, "+ entity type Vendor Portal")
		assert.Contains(t, out, "Entity types:       11 (1 discovered)")
	}
}

func TestDiscoverGuidedRaisesProposal(t *testing.T) {
	dir := portalCorpus(t, 3)

	out, err := executeCommand(t, "discover", dir, "--mode", "guided")
	require.NoError(t, err)
	assert.Contains(t, out, "? proposal entity:Vendor Portal")
	assert.Contains(t, out, "Entity types:       10 (0 discovered)")
}

func TestDiscoverStrictDiscoversNothing(t *testing.T) {
	dir := portalCorpus(t, 3)

	out, err := executeCommand(t, "discover", dir, "--mode", "strict")
	require.NoError(t, err)
	assert.Contains(t, out, "No new types, attributes or proposals.")
	assert.Contains(t, out, "No pending candidates.")
}

func TestDiscoverBelowThresholdIsPending(t *testing.T) {
	dir := portalCorpus(t, 2)

	out, err := executeCommand(t, "discover", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No new types")
	assert.Contains(t, out, "Vendor Portal")
	assert.Contains(t, out, "THRESHOLD")
}

func TestDiscoverSingleFileAndSchemaSeed(t *testing.T) {
	dir := portalCorpus(t, 3)
	schemaPath := filepath.Join(t.TempDir(), "schema.json")

	_, err := executeCommand(t, "discover", dir, "--out", schemaPath)
	require.NoError(t, err)

	// Seeding from the exported schema keeps the promoted type.
	out, err := executeCommand(t, "discover", filepath.Join(dir, "memo-1.txt"), "--schema", schemaPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Documents:          1")
	assert.Contains(t, out, "Entity types:       11 (1 discovered)")
}

func TestDiscoverStdoutExportOnly(t *testing.T) {
	dir := portalCorpus(t, 3)

	out, err := executeCommand(t, "discover", dir, "--out", "-", "--format", "owl")
	require.NoError(t, err)
	assert.NotContains(t, out, "Discovery Run")
	assert.Contains(t, out, "<owl:Class")
	assert.Contains(t, out, "Vendor_Portal")
}

func TestDiscoverErrors(t *testing.T) {
	dir := portalCorpus(t, 1)

	_, err := executeCommand(t, "discover", filepath.Join(dir, "nope"))
	assert.Error(t, err)

	_, err = executeCommand(t, "discover", dir, "--out", "-", "--format", "turtle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "turtle")

	_, err = executeCommand(t, "discover", dir, "--snapshot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshots are disabled")

	_, err = executeCommand(t, "discover", dir, "--schema", "a.json", "--from-snapshot")
	assert.Error(t, err)
}

func TestWatchProcessesExistingDocuments(t *testing.T) {
	dir := portalCorpus(t, 3)
	schemaPath := filepath.Join(t.TempDir(), "schema.json")

	out, err := executeCommand(t, "watch", dir, "--timeout", "300ms", "--out", schemaPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Watching "+dir)
	assert.Contains(t, out, "+ entity type Vendor Portal")
	assert.Contains(t, out, "Stopped after 3 document(s)")

	data, err := os.ReadFile(schemaPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Vendor Portal"`)
}

func TestWatchSkipExisting(t *testing.T) {
	dir := portalCorpus(t, 3)

	out, err := executeCommand(t, "watch", dir, "--timeout", "200ms", "--skip-existing")
	require.NoError(t, err)
	assert.Contains(t, out, "Stopped after 0 document(s)")
	assert.NotContains(t, out, "Vendor Portal")
}

func TestWatchRequiresDirectory(t *testing.T) {
	_, err := executeCommand(t, "watch")
	assert.Error(t, err)
}
