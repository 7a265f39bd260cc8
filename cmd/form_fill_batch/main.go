package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/docketforge/mcp-form-filler/internal/audit"
	"github.com/docketforge/mcp-form-filler/internal/forms"
	"github.com/docketforge/mcp-form-filler/internal/forms/acroform"
)

var (
	templateID   = flag.String("template", "", "Identifier of the registered template to fill")
	csvPath      = flag.String("csv", "", "Path to the CSV input with a header row")
	outputDir    = flag.String("out", ".", "Directory the zip archive is written to")
	templatesDir = flag.String("templates-dir", ".", "Directory holding the template PDF files")
	fieldsPath   = flag.String("fields", "", "List the interactive fields of a PDF file and exit")
	auditMode    = flag.Bool("audit", false, "Audit the template mapping against its source PDFs and exit")
	outputFormat = flag.String("format", "text", "Output format: text, json")
	verbose      = flag.Bool("verbose", false, "Enable verbose output")
	help         = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	switch {
	case *fieldsPath != "":
		os.Exit(runFields(*fieldsPath))
	case *auditMode:
		os.Exit(runAudit())
	default:
		os.Exit(runFill())
	}
}

func printHelp() {
	fmt.Println("Form Fill Batch - Batch-fill PDF court forms from CSV rows")
	fmt.Println()
	fmt.Println("The tool fills every document of a registered form template once per CSV")
	fmt.Println("row and bundles the filled PDFs into a single zip archive. It can also")
	fmt.Println("list the interactive fields of a PDF and audit a template mapping.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -template      Identifier of the registered template to fill")
	fmt.Println("  -csv           Path to the CSV input with a header row")
	fmt.Println("  -out           Directory the zip archive is written to (default: current directory)")
	fmt.Println("  -templates-dir Directory holding the template PDF files (default: current directory)")
	fmt.Println("  -fields        List the interactive fields of a PDF file and exit")
	fmt.Println("  -audit         Audit the template mapping against its source PDFs and exit")
	fmt.Println("  -format        Output format: text (default), json")
	fmt.Println("  -verbose       Enable verbose output")
	fmt.Println("  -help          Show this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  form_fill_batch -template co-fed-packet -csv tenants.csv -templates-dir ./forms -out ./packets")
	fmt.Println("  form_fill_batch -fields ./forms/jdf99.pdf")
	fmt.Println("  form_fill_batch -template co-fed-packet -templates-dir ./forms -audit")
	fmt.Println("  form_fill_batch -template co-fed-packet -csv tenants.csv -format json")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  form_fill_batch -template <id> -csv <file> [OPTIONS]")
	fmt.Println("  form_fill_batch -fields <pdf_file>")
	fmt.Println("  form_fill_batch -template <id> -audit")
}

// newLogger builds the pipeline logger. Non-verbose runs stay quiet; the
// results themselves go to stdout.
func newLogger() *zap.Logger {
	if !*verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newService(logger *zap.Logger) (*forms.Service, error) {
	return forms.NewService(forms.ServiceConfig{
		ServerName:        "form-fill-batch",
		Version:           "1.0.0",
		TemplateDirectory: *templatesDir,
		OutputDirectory:   *outputDir,
		Logger:            logger,
	})
}

// FieldListResult is the field inventory of one PDF file.
type FieldListResult struct {
	FilePath   string           `json:"file_path"`
	Success    bool             `json:"success"`
	PageCount  int              `json:"page_count,omitempty"`
	FieldCount int              `json:"field_count"`
	Fields     []acroform.Field `json:"fields,omitempty"`
	RawNames   []string         `json:"raw_names,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// runFields lists the interactive fields of a single PDF file. When the form
// tree does not parse, field names are recovered from a raw byte scan.
func runFields(path string) int {
	absPath, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve path: %v\n", err)
		return 1
	}

	result := &FieldListResult{FilePath: absPath}

	doc, err := acroform.LoadFile(absPath)
	if err != nil {
		data, readErr := os.ReadFile(absPath)
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read file: %v\n", readErr)
			return 1
		}
		result.Error = err.Error()
		result.RawNames = audit.ScanFieldNames(data)
		result.FieldCount = len(result.RawNames)
	} else {
		result.Success = true
		result.PageCount = doc.PageCount()
		result.Fields = doc.Fields()
		result.FieldCount = len(result.Fields)
	}

	switch *outputFormat {
	case "json":
		if err := outputJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error outputting results: %v\n", err)
			return 1
		}
	case "text":
		textFieldList(result)
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported output format: %s\n", *outputFormat)
		return 1
	}
	return 0
}

func textFieldList(result *FieldListResult) {
	if !result.Success {
		fmt.Printf("⚠️  Form tree did not parse: %s\n", result.Error)
		if result.FieldCount == 0 {
			fmt.Println("   No field names recovered by the raw scan either.")
			return
		}
		fmt.Printf("   %d field name(s) recovered from a raw scan:\n", result.FieldCount)
		for i, name := range result.RawNames {
			fmt.Printf("[%d] %s\n", i+1, name)
		}
		return
	}

	if result.FieldCount == 0 {
		fmt.Println("⚠️  No interactive form fields found in the PDF")
		return
	}

	fmt.Printf("✅ Found %d interactive field(s) across %d page(s)\n", result.FieldCount, result.PageCount)
	fmt.Println()
	for i, field := range result.Fields {
		fmt.Printf("[%d] %s\n", i+1, field.Name)
		fmt.Printf("    Kind: %s\n", field.Kind)
		if field.Value != "" {
			fmt.Printf("    Value: %s\n", field.Value)
		}
	}
}

// runAudit checks the template mapping against the fields of its source PDFs.
// Error findings make the exit code non-zero so the audit gates CI.
func runAudit() int {
	if *templateID == "" {
		fmt.Fprintf(os.Stderr, "Error: -template is required with -audit\n\n")
		printUsage()
		return 1
	}

	logger := newLogger()
	defer func() {
		_ = logger.Sync()
	}()

	service, err := newService(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	auditor := audit.NewAuditor(service.Registry(), service.Loader(), logger)
	report, err := auditor.Audit(*templateID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	switch *outputFormat {
	case "json":
		if err := outputJSON(report); err != nil {
			fmt.Fprintf(os.Stderr, "Error outputting results: %v\n", err)
			return 1
		}
	case "text":
		textAuditReport(report)
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported output format: %s\n", *outputFormat)
		return 1
	}

	if report.ErrorCount > 0 {
		return 1
	}
	return 0
}

func textAuditReport(report *audit.Report) {
	if report.Clean {
		fmt.Printf("✅ Template %s is clean\n", report.TemplateID)
	} else {
		fmt.Printf("❌ Template %s has %d error(s), %d warning(s)\n",
			report.TemplateID, report.ErrorCount, report.WarningCount)
	}

	fmt.Println()
	fmt.Println("Documents scanned:")
	for i, doc := range report.Documents {
		fmt.Printf("[%d] %s (%s): %d field(s), %s scan\n",
			i+1, doc.Label, doc.Source, doc.FieldCount, doc.ScanMode)
	}

	if len(report.Findings) > 0 {
		fmt.Println()
		fmt.Println("Findings:")
		for _, finding := range report.Findings {
			if finding.Label != "" {
				fmt.Printf("  [%s] %s: %s\n", finding.Severity, finding.Label, finding.Message)
			} else {
				fmt.Printf("  [%s] %s\n", finding.Severity, finding.Message)
			}
		}
	}
}

// runFill is the main path: one batch run, one zip archive.
func runFill() int {
	if *templateID == "" {
		fmt.Fprintf(os.Stderr, "Error: -template is required\n\n")
		printUsage()
		return 1
	}
	if *csvPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -csv is required\n\n")
		printUsage()
		return 1
	}
	if _, err := os.Stat(*csvPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found: %s\n", *csvPath)
		return 1
	}

	logger := newLogger()
	defer func() {
		_ = logger.Sync()
	}()

	service, err := newService(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	result, err := service.GeneratePacket(context.Background(), forms.GenerateRequest{
		TemplateID: *templateID,
		CSVPath:    *csvPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	switch *outputFormat {
	case "json":
		if err := outputJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error outputting results: %v\n", err)
			return 1
		}
	case "text":
		textGenerateResult(result)
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported output format: %s\n", *outputFormat)
		return 1
	}

	// A run with nothing to deliver is a failure even though the batch
	// itself completed.
	if result.SuccessCount == 0 {
		return 1
	}
	return 0
}

func textGenerateResult(result *forms.GenerateResult) {
	if result.SuccessCount == 0 {
		fmt.Printf("❌ No documents could be filled (%d row(s), %d failure(s))\n",
			result.RowCount, result.FailureCount)
	} else {
		fmt.Printf("✅ Packet generated: %s\n", result.ArchivePath)
	}

	fmt.Printf("   Run ID: %s\n", result.RunID)
	fmt.Printf("   Rows: %d, documents: %d succeeded, %d failed, %d field warning(s)\n",
		result.RowCount, result.SuccessCount, result.FailureCount, result.WarningCount)
	fmt.Printf("   Archive: %d entries, %d bytes, %d ms\n",
		result.EntryCount, result.ArchiveSize, result.DurationMS)

	if result.FailureCount > 0 {
		fmt.Println()
		fmt.Println("Failed documents:")
		for _, unit := range result.Units {
			if unit.Succeeded() {
				continue
			}
			fmt.Printf("  - %s (row %d): %s\n", unit.OutputName, unit.RowIndex+1, unit.Error)
		}
	}

	if *verbose {
		fmt.Println()
		fmt.Println("Documents:")
		for i, unit := range result.Units {
			if unit.Succeeded() {
				fmt.Printf("[%d] %s (%d bytes)\n", i+1, unit.OutputName, unit.SizeBytes)
				for _, warning := range unit.Warnings {
					fmt.Printf("    ⚠️  %s: %s\n", warning.Kind, warning.Detail)
				}
			} else {
				fmt.Printf("[%d] %s FAILED: %s\n", i+1, unit.OutputName, unit.Error)
			}
		}
	}
}

// outputJSON renders any result as indented JSON on stdout.
func outputJSON(result any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func init() {
	// Custom flag usage
	flag.Usage = func() {
		printHelp()
	}
}
