package forms

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceRegistry(t *testing.T, source string) *Registry {
	t.Helper()
	registry, err := NewRegistry([]Template{{
		ID:          "test-packet",
		DisplayName: "Test Packet",
		NameColumn:  "Tenant",
		Documents: []OutputDescriptor{{
			Source: source,
			Label:  "Complaint",
			Mapping: FieldMapping{
				MapField("Tenant", "∆"),
				MapField("Landlord", "π"),
			},
		}},
	}})
	require.NoError(t, err)
	return registry
}

func newTestService(t *testing.T, cfg ServiceConfig) *Service {
	t.Helper()
	if cfg.ServerName == "" {
		cfg.ServerName = "test-form-filler"
	}
	if cfg.Version == "" {
		cfg.Version = "0.0.1"
	}
	if cfg.TemplateDirectory == "" {
		cfg.TemplateDirectory = t.TempDir()
	}
	if cfg.OutputDirectory == "" {
		cfg.OutputDirectory = t.TempDir()
	}
	service, err := NewService(cfg)
	require.NoError(t, err)
	return service
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(ServiceConfig{OutputDirectory: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template directory")

	_, err = NewService(ServiceConfig{TemplateDirectory: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory")
}

func TestServiceListTemplates(t *testing.T) {
	templateDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "jdf99_complaint.pdf"), []byte("pdf bytes"), 0o644))

	service := newTestService(t, ServiceConfig{TemplateDirectory: templateDir})

	result, err := service.ListTemplates()
	require.NoError(t, err)

	assert.Equal(t, templateDir, result.TemplateDirectory)
	assert.GreaterOrEqual(t, result.TotalCount, 3, "built-in catalog should be present")

	ids := make([]string, 0, len(result.Templates))
	for _, tmpl := range result.Templates {
		ids = append(ids, tmpl.ID)
	}
	assert.Contains(t, ids, "co-fed-packet")

	require.Len(t, result.AvailableFiles, 1)
	assert.Equal(t, "jdf99_complaint.pdf", result.AvailableFiles[0].Name)
}

func TestServiceValidateRows(t *testing.T) {
	service := newTestService(t, ServiceConfig{Registry: serviceRegistry(t, "complaint.pdf")})

	t.Run("unknown_template", func(t *testing.T) {
		_, err := service.ValidateRows(RowValidationRequest{TemplateID: "nope", CSVContent: "Tenant\nA"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is not registered")
	})

	t.Run("no_input", func(t *testing.T) {
		_, err := service.ValidateRows(RowValidationRequest{TemplateID: "test-packet"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no CSV input")
	})

	t.Run("inline_content", func(t *testing.T) {
		result, err := service.ValidateRows(RowValidationRequest{
			TemplateID: "test-packet",
			CSVContent: "Tenant,Extra\nJane,x\nSmith,y",
		})
		require.NoError(t, err)

		assert.Equal(t, 2, result.RowCount)
		assert.Equal(t, []string{"Tenant", "Landlord"}, result.RequiredColumns)
		assert.Equal(t, []string{"Landlord"}, result.MissingColumns)
		assert.Equal(t, []string{"Extra"}, result.UnusedColumns)
		assert.True(t, result.Ready, "missing columns are advisory, not blocking")
	})

	t.Run("csv_path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rows.csv")
		require.NoError(t, os.WriteFile(path, []byte("Tenant,Landlord\nJane,Acme"), 0o644))

		result, err := service.ValidateRows(RowValidationRequest{TemplateID: "test-packet", CSVPath: path})
		require.NoError(t, err)
		assert.Equal(t, 1, result.RowCount)
		assert.Empty(t, result.MissingColumns)
	})

	t.Run("header_only", func(t *testing.T) {
		result, err := service.ValidateRows(RowValidationRequest{
			TemplateID: "test-packet",
			CSVContent: "Tenant,Landlord\n",
		})
		require.NoError(t, err)
		assert.Equal(t, 0, result.RowCount)
		assert.False(t, result.Ready)
	})
}

func TestServiceGeneratePacketErrors(t *testing.T) {
	service := newTestService(t, ServiceConfig{Registry: serviceRegistry(t, "complaint.pdf")})

	t.Run("no_input", func(t *testing.T) {
		_, err := service.GeneratePacket(context.Background(), GenerateRequest{TemplateID: "test-packet"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no CSV input")
	})

	t.Run("unknown_template", func(t *testing.T) {
		_, err := service.GeneratePacket(context.Background(), GenerateRequest{
			TemplateID: "nope",
			CSVContent: "Tenant\nJane",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is not registered")
	})

	t.Run("missing_template_source", func(t *testing.T) {
		_, err := service.GeneratePacket(context.Background(), GenerateRequest{
			TemplateID: "test-packet",
			CSVContent: "Tenant\nJane",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load template source")
	})
}

func TestServiceServerInfo(t *testing.T) {
	service := newTestService(t, ServiceConfig{ServerName: "form-filler", Version: "1.2.3"})

	info, err := service.ServerInfo()
	require.NoError(t, err)

	assert.Equal(t, "form-filler", info.ServerName)
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, int64(100*1024*1024), info.MaxFileSize)
	assert.Equal(t, 10000, info.MaxRows)
	assert.Equal(t, 1, info.Workers)
	assert.Contains(t, info.Counties, "boulder")

	require.Len(t, info.AvailableTools, 6)
	names := make([]string, 0, len(info.AvailableTools))
	for _, tool := range info.AvailableTools {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "form_list_templates")
	assert.Contains(t, names, "form_generate_packet")
	assert.Contains(t, names, "form_audit_template")

	assert.Contains(t, info.UsageGuidance, "form_validate_rows")
	assert.Contains(t, info.UsageGuidance, "100MB")

	for i := 1; i < len(info.Templates); i++ {
		assert.LessOrEqual(t, info.Templates[i-1].ID, info.Templates[i].ID)
	}
}

func TestServiceGeneratePacketIntegration(t *testing.T) {
	fixtureDir := filepath.Join("acroform", "testdata")
	if _, err := os.Stat(filepath.Join(fixtureDir, "sample_form.pdf")); os.IsNotExist(err) {
		t.Skip("Test PDF file not found, skipping integration test")
	}

	outputDir := t.TempDir()
	service := newTestService(t, ServiceConfig{
		TemplateDirectory: fixtureDir,
		OutputDirectory:   outputDir,
		Registry:          serviceRegistry(t, "sample_form.pdf"),
		Now:               fixedNow,
	})

	result, err := service.GeneratePacket(context.Background(), GenerateRequest{
		TemplateID: "test-packet",
		CSVContent: "Tenant,Landlord\nJane Q. Public,Acme Property LLC",
	})
	require.NoError(t, err)

	assert.Equal(t, "test-packet_2026-08-25.zip", result.ArchiveName)
	assert.Equal(t, 1, result.RowCount)
	assert.Equal(t, 1, result.SuccessCount)
	assert.FileExists(t, result.ArchivePath)
	assert.Greater(t, result.ArchiveSize, 0)

	require.Len(t, result.Units, 1)
	assert.Equal(t, "Jane_Q__Public_1.pdf", result.Units[0].OutputName)

	t.Run("custom_output_name", func(t *testing.T) {
		custom, err := service.GeneratePacket(context.Background(), GenerateRequest{
			TemplateID: "test-packet",
			CSVContent: "Tenant\nSmith",
			OutputName: "my-packet",
		})
		require.NoError(t, err)
		assert.Equal(t, "my-packet.zip", custom.ArchiveName)
		assert.FileExists(t, filepath.Join(outputDir, "my-packet.zip"))
	})
}
