package enrich

import (
	"strings"

	"github.com/stockrx/importer/constants"
)

// buildCollectionPrompt asks for unstructured descriptive knowledge about a
// medicine by name only — no batch-specific data leaks into this call.
func buildCollectionPrompt(medicineName string) string {
	var b strings.Builder
	b.WriteString("Medicine Name: ")
	b.WriteString(medicineName)
	b.WriteString(`

Please provide comprehensive information about this medicine:

1. Category: (the most appropriate pharmacological category)
2. Form: (dosage form such as Tablet, Capsule, Syrup, Injection, etc.)
3. Quantity per Pack: (e.g. 60ml Bottle, 10 Tablets, 1 Vial)

Details to collect:

- Cover Disease: (what diseases or conditions the medicine treats)
- Symptoms: (which symptoms it addresses - when it can be taken)
- Side Effects: (possible adverse effects)
- Instructions: (how to take/use it correctly - dosage, timing)
- Localized Description: (a short one-line description in the shop's local vernacular, mixing the local language and English)

Please provide detailed information for all these fields.`)
	return b.String()
}

// buildExtractionPrompt converts collected raw text into the fixed field
// set, constrained to the closed category and form vocabularies. Batch id
// and name are client-supplied identifiers the model must echo verbatim.
func buildExtractionPrompt(batchID, medicineName, rawText string) string {
	var b strings.Builder
	b.WriteString("You are a data extraction assistant. Provide ONLY valid JSON output, no Markdown, no extra text, no explanations.\n\n")
	b.WriteString("Input:\n")
	b.WriteString("Batch ID: \"" + batchID + "\"\n")
	b.WriteString("Medicine name: \"" + medicineName + "\"\n")
	b.WriteString("Raw text: \"" + rawText + "\"\n\n")
	b.WriteString("Available categories: " + strings.Join(constants.Categories, ", ") + "\n")
	b.WriteString("Available forms: " + strings.Join(constants.Forms, ", ") + "\n\n")
	b.WriteString(`Output format (strict JSON):
{
  "batch_id": "` + batchID + `",
  "name": "` + medicineName + `",
  "category": "<select 1 value from available categories>",
  "form": "<select 1 value from available forms>",
  "quantity_per_pack": "<example: 60ml Bottle, 10 Tablets, 1 Vial>",
  "cover_disease": "<3-4 keywords, comma-separated>",
  "symptoms": "<3-4 keywords, comma-separated>",
  "side_effects": "<3-4 keywords, comma-separated>",
  "instructions": "<full phrase>",
  "localized_description": "<full phrase>"
}

Rules:
- Do NOT modify batch_id or name; return them exactly as given.
- Provide 3-4 concise keywords for cover_disease, symptoms, and side_effects.
- Provide full phrases for instructions and localized_description.
- Choose category and form from the available lists only.
- Return ONE JSON object. Output ONLY the JSON, no markdown code blocks, no extra text.`)
	return b.String()
}
