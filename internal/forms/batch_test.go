package forms

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docketforge/mcp-form-filler/internal/forms/rowset"
)

// fakeLoader serves template bytes from memory.
type fakeLoader struct {
	files map[string][]byte
}

func (l *fakeLoader) Load(source string) ([]byte, error) {
	data, ok := l.files[source]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", source)
	}
	return data, nil
}

func batchLoader() *fakeLoader {
	return &fakeLoader{files: map[string][]byte{
		"complaint.pdf": []byte("tpl-complaint"),
		"summons.pdf":   []byte("tpl-summons"),
	}}
}

// batchFactory hands every unit a fresh in-memory document. Values trigger
// failure modes so tests can target individual rows.
func batchFactory() DocumentFactory {
	return func(template []byte) (FormDocument, error) {
		doc := newFakeDoc([]string{"∆", "π"}, nil, nil)
		doc.failSaveValue = "BOOM"
		doc.panicOnValue = "PANIC!"
		return doc, nil
	}
}

func complaintDescriptor() OutputDescriptor {
	return OutputDescriptor{
		Source: "complaint.pdf",
		Label:  "Complaint",
		Mapping: FieldMapping{
			MapField("Tenant", "∆"),
			MapField("Landlord", "π"),
		},
	}
}

func summonsDescriptor() OutputDescriptor {
	return OutputDescriptor{
		Source:  "summons.pdf",
		Label:   "Summons",
		Mapping: FieldMapping{MapField("Tenant", "∆")},
	}
}

func batchRegistry(t *testing.T, docs ...OutputDescriptor) *Registry {
	t.Helper()
	registry, err := NewRegistry([]Template{{
		ID:          "test-packet",
		DisplayName: "Test Packet",
		NameColumn:  "Tenant",
		Documents:   docs,
	}})
	require.NoError(t, err)
	return registry
}

func newTestBatch(t *testing.T, registry *Registry, config ...BatchConfig) *Batch {
	t.Helper()
	filler := NewFiller(batchFactory(), FillerConfig{Now: fixedNow})
	cfg := BatchConfig{Now: fixedNow}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.Now == nil {
			cfg.Now = fixedNow
		}
	}
	return NewBatch(registry, batchLoader(), filler, cfg)
}

func tenantTable(names ...string) *rowset.Table {
	table := &rowset.Table{Columns: []string{"Tenant", "Landlord"}}
	for _, name := range names {
		table.Rows = append(table.Rows, rowset.Row{"Tenant": name, "Landlord": "Acme Property LLC"})
	}
	return table
}

func archiveEntries(t *testing.T, data []byte) map[string]string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := make(map[string]string, len(reader.File))
	for _, file := range reader.File {
		rc, err := file.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[file.Name] = string(content)
	}
	return entries
}

func archiveEntryNames(t *testing.T, data []byte) []string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	return names
}

func TestBatchRunPreconditions(t *testing.T) {
	registry := batchRegistry(t, complaintDescriptor(), summonsDescriptor())

	t.Run("unknown_template", func(t *testing.T) {
		batch := newTestBatch(t, registry)
		result, err := batch.Run(context.Background(), "no-such-template", tenantTable("Smith"))
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "is not registered")
	})

	t.Run("nil_table", func(t *testing.T) {
		batch := newTestBatch(t, registry)
		_, err := batch.Run(context.Background(), "test-packet", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no data rows")
	})

	t.Run("empty_table", func(t *testing.T) {
		batch := newTestBatch(t, registry)
		_, err := batch.Run(context.Background(), "test-packet", &rowset.Table{Columns: []string{"Tenant"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no data rows")
	})

	t.Run("row_limit_exceeded", func(t *testing.T) {
		batch := newTestBatch(t, registry, BatchConfig{MaxRows: 2})
		_, err := batch.Run(context.Background(), "test-packet", tenantTable("A", "B", "C"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "limit is 2")
	})

	t.Run("missing_template_source", func(t *testing.T) {
		filler := NewFiller(batchFactory(), FillerConfig{Now: fixedNow})
		loader := &fakeLoader{files: map[string][]byte{"complaint.pdf": []byte("tpl")}}
		batch := NewBatch(registry, loader, filler, BatchConfig{Now: fixedNow})

		result, err := batch.Run(context.Background(), "test-packet", tenantTable("Smith"))
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), `failed to load template source "summons.pdf"`)
	})
}

func TestBatchRunProducesArchive(t *testing.T) {
	registry := batchRegistry(t, complaintDescriptor())
	batch := newTestBatch(t, registry)

	result, err := batch.Run(context.Background(), "test-packet", tenantTable("Jane Q. Public", "Smith"))
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "test-packet", result.TemplateID)
	assert.Equal(t, "test-packet_2026-08-25.zip", result.ArchiveName)
	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.FailureCount)
	assert.Equal(t, 0, result.WarningCount)

	entries := archiveEntries(t, result.Archive)
	require.Len(t, entries, 2)
	assert.Contains(t, entries["Jane_Q__Public_1.pdf"], "∆=Jane Q. Public;")
	assert.Contains(t, entries["Smith_2.pdf"], "∆=Smith;")
	assert.Contains(t, entries["Smith_2.pdf"], "π=Acme Property LLC;")

	require.Len(t, result.Units, 2)
	for _, unit := range result.Units {
		assert.True(t, unit.Succeeded())
		assert.Greater(t, unit.SizeBytes, 0)
	}
}

func TestBatchRunMultiDocumentNaming(t *testing.T) {
	registry := batchRegistry(t, complaintDescriptor(), summonsDescriptor())
	batch := newTestBatch(t, registry)

	result, err := batch.Run(context.Background(), "test-packet", tenantTable("Smith"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Smith_1_complaint.pdf", "Smith_1_summons.pdf"},
		archiveEntryNames(t, result.Archive))
	assert.Equal(t, 2, result.SuccessCount)
}

func TestBatchRunUnitFailureIsolation(t *testing.T) {
	registry := batchRegistry(t, complaintDescriptor())
	batch := newTestBatch(t, registry)

	result, err := batch.Run(context.Background(), "test-packet", tenantTable("Good", "BOOM", "Also Good"))
	require.NoError(t, err, "a unit failure must not abort the run")

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.Equal(t, []string{"Good_1.pdf", "Also_Good_3.pdf"}, archiveEntryNames(t, result.Archive))

	failed := result.Units[1]
	assert.False(t, failed.Succeeded())
	assert.Equal(t, "BOOM_2.pdf", failed.OutputName)
	assert.Contains(t, failed.Error, "failed to serialize filled document")
}

func TestBatchRunPanicIsolation(t *testing.T) {
	registry := batchRegistry(t, complaintDescriptor())
	batch := newTestBatch(t, registry)

	result, err := batch.Run(context.Background(), "test-packet", tenantTable("Fine", "PANIC!"))
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.Contains(t, result.Units[1].Error, "panic while filling document")
	assert.Equal(t, []string{"Fine_1.pdf"}, archiveEntryNames(t, result.Archive))
}

func TestBatchRunCountsWarnings(t *testing.T) {
	descriptor := OutputDescriptor{
		Source: "complaint.pdf",
		Label:  "Complaint",
		Mapping: FieldMapping{
			MapField("Tenant", "∆"),
			MapField("Landlord", "No Such Field"),
		},
	}
	registry := batchRegistry(t, descriptor)
	batch := newTestBatch(t, registry)

	result, err := batch.Run(context.Background(), "test-packet", tenantTable("A", "B"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.SuccessCount, "warnings do not fail units")
	assert.Equal(t, 2, result.WarningCount)
	for _, unit := range result.Units {
		require.Len(t, unit.Warnings, 1)
		assert.Equal(t, WarningFieldMissing, unit.Warnings[0].Kind)
	}
}

func TestBatchRunWorkerPoolMatchesSequential(t *testing.T) {
	registry := batchRegistry(t, complaintDescriptor(), summonsDescriptor())
	table := tenantTable("A", "B", "BOOM", "D", "E", "F")

	sequential := newTestBatch(t, registry, BatchConfig{Workers: 1})
	concurrent := newTestBatch(t, registry, BatchConfig{Workers: 4})

	seqResult, err := sequential.Run(context.Background(), "test-packet", table)
	require.NoError(t, err)
	conResult, err := concurrent.Run(context.Background(), "test-packet", table)
	require.NoError(t, err)

	assert.Equal(t, seqResult.SuccessCount, conResult.SuccessCount)
	assert.Equal(t, seqResult.FailureCount, conResult.FailureCount)
	assert.Equal(t, seqResult.Archive, conResult.Archive,
		"worker count must not change archive bytes")
}

func TestBatchRunProgress(t *testing.T) {
	registry := batchRegistry(t, complaintDescriptor())

	var progress []string
	batch := newTestBatch(t, registry, BatchConfig{
		OnProgress: func(completed, total int) {
			progress = append(progress, fmt.Sprintf("%d of %d", completed, total))
		},
	})

	_, err := batch.Run(context.Background(), "test-packet", tenantTable("A", "B"))
	require.NoError(t, err)

	assert.Equal(t, []string{"1 of 2", "2 of 2"}, progress)
}

func TestBatchRunCanceled(t *testing.T) {
	registry := batchRegistry(t, complaintDescriptor())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	t.Run("sequential", func(t *testing.T) {
		batch := newTestBatch(t, registry)
		result, err := batch.Run(ctx, "test-packet", tenantTable("A"))
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "batch run canceled")
	})

	t.Run("worker_pool", func(t *testing.T) {
		batch := newTestBatch(t, registry, BatchConfig{Workers: 3})
		result, err := batch.Run(ctx, "test-packet", tenantTable("A", "B"))
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "batch run canceled")
	})
}
