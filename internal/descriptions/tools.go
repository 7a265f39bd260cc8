package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	// Discovery Tools
	FormListTemplatesDescription = `List the registered form templates and the PDF files available in the template directory.

**When to use:** Starting a filling session, or when you need the exact template identifier for the other tools.

**Why it's useful:** Shows every registered template with its documents, required CSV columns, and which source PDFs are actually present on disk.

**Examples:**
• Session startup: "List templates to see which eviction packets can be generated"
• Identifier lookup: "Find the template_id for the complaint-plus-summons packet"
• Directory check: "See which template PDFs exist before configuring a new template"

**Common workflows:**
1. Discovery: List templates → Pick a template_id → Inspect it with form_template_info
2. Setup Check: List templates → Compare registered sources against directory contents → Fix missing files
3. Batch Planning: List templates → Note required columns → Prepare the CSV accordingly

**Best practices:** Run first in new sessions, the required_columns listing tells you what the CSV header should contain.`

	FormTemplateInfoDescription = `Describe one template in full: its documents, column-to-field mappings, enrichment steps, and source file state.

**When to use:** Before generating with a template, or when diagnosing why fields come out empty or warnings appear.

**Why it's useful:** Shows exactly which CSV column feeds which PDF field per document, and can enumerate the interactive fields of each source PDF for comparison.

**Examples:**
• Mapping review: "Show how co-fed-packet maps CSV columns onto the complaint and summons forms"
• Field discovery: "List the interactive fields of the demand notice PDF with include_fields"
• Source check: "Verify the summons source file is valid before a large run"

**Common workflows:**
1. Pre-run Review: Template info → Check mappings → Validate rows → Generate
2. Field Debugging: Template info with include_fields → Compare field names against the mapping → Correct the template
3. Template Authoring: Inspect an existing template → Model a new one on it

**Best practices:** Set include_fields to true when field names are in doubt, mapping targets must match PDF field names exactly.`

	FormAuditTemplateDescription = `Cross-check a template's mappings and enrichment steps against the interactive fields of its source PDFs.

**When to use:** After changing a template or its source PDFs, or before a large batch when per-row warnings would be expensive to triage.

**Why it's useful:** Finds mapping targets that do not exist or cannot be filled while the run is still cheap to fix, instead of as hundreds of repeated per-document warnings.

**Examples:**
• Pre-flight check: "Audit co-fed-packet before generating 500 packets"
• Template migration: "Audit after swapping in the revised JDF 99 form to catch renamed fields"
• Troubleshooting: "Explain why every generated complaint carries a field_missing warning"

**Common workflows:**
1. Pre-flight: Audit template → Fix error findings → Validate rows → Generate
2. Form Updates: Replace source PDF → Audit → Adjust mappings to the new field names
3. Continuous Checks: Audit each registered template → Report findings → Keep templates healthy

**Best practices:** A clean audit means every mapping target exists and is fillable, warnings about fields hidden in compressed streams may still fill correctly at run time.`

	// Input Tools
	FormValidateRowsDescription = `Parse a CSV input and report how its columns fit a template before generating.

**When to use:** After preparing a CSV and before running a batch, especially for large inputs or unfamiliar templates.

**Why it's useful:** Previews the row count and flags missing or unused columns without touching any PDF, so header mistakes surface before a run.

**Examples:**
• Header check: "Validate tenants.csv against co-fed-packet to confirm the column names"
• Row preview: "Check how many data rows the export produced before generating"
• Column cleanup: "See which CSV columns the template never reads"

**Common workflows:**
1. Input Preparation: Export CSV → Validate rows → Fix headers → Generate
2. Template Selection: Validate the same CSV against candidate templates → Pick the best fit
3. Automation Guard: Validate → Proceed only when row_count is plausible → Generate

**Best practices:** Missing columns are advisory, affected fields simply keep their template defaults, but reviewing them prevents silently empty documents.`

	// Generation Tools
	FormGeneratePacketDescription = `Fill every template document for every CSV row and bundle the results into one zip archive.

**When to use:** The actual generation step, once the template and CSV have been checked.

**Why it's useful:** Produces court-ready filled PDFs in bulk with deterministic names, isolating per-document failures so one bad row never sinks the batch.

**Examples:**
• Batch filing: "Generate co-fed-packet archives for this week's tenants.csv"
• Single case: "Generate a demand notice for one inline CSV row"
• Named output: "Generate with output_name weekly-filings for a predictable archive path"

**Common workflows:**
1. Standard Run: Validate rows → Generate packet → Review failure_count and warnings → Deliver the archive
2. Iterative Fix: Generate → Inspect per-unit outcomes → Correct offending rows → Regenerate
3. Automation: Generate on schedule → Alert when failure_count is nonzero → Archive the zip

**Best practices:** Check success_count and the per-unit outcomes in the response, warnings list skipped fields and never blanked values.`

	// Utility Tools
	FormServerInfoDescription = `Get server configuration, registered templates, template directory contents, and usage guidance.

**When to use:** Starting work with the form server, troubleshooting paths and limits, or discovering capabilities.

**Why it's useful:** Reports the configured directories, size and row limits, cache statistics, known counties, and every available tool in one call.

**Examples:**
• System check: "Verify the template and output directories before a batch session"
• Limit check: "Confirm the row limit before submitting a large CSV"
• County lookup: "See which counties resolve to a court address"

**Common workflows:**
1. Session Startup: Server info → Verify directories → List templates → Proceed
2. Debugging: Server info → Compare configured paths against expectations → Fix configuration
3. Capability Discovery: Server info → Review available tools → Plan the workflow

**Best practices:** Run at the start of sessions, the usage_guidance field walks through the discover, check, generate sequence.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	"form_list_templates":  FormListTemplatesDescription,
	"form_template_info":   FormTemplateInfoDescription,
	"form_audit_template":  FormAuditTemplateDescription,
	"form_validate_rows":   FormValidateRowsDescription,
	"form_generate_packet": FormGeneratePacketDescription,
	"form_server_info":     FormServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
