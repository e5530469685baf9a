package constants

import "strings"

// Categories is the closed vocabulary the enricher may assign to a medicine.
// The extraction prompt embeds this list verbatim; answers outside it are
// rejected during schema validation.
var Categories = []string{
	"Antipyretics",
	"Analgesics",
	"Antivirals",
	"Antibiotics",
	"Antifungals",
	"Antimalarials",
	"Anthelmintics",
	"Antihistamines",
	"Decongestants",
	"Cough Suppressants",
	"Expectorants",
	"Bronchodilators",
	"Corticosteroids",
	"Immunosuppressants",
	"Anticoagulants",
	"Antiplatelets",
	"Antihypertensives",
	"Beta-blockers",
	"ACE Inhibitors",
	"Calcium Channel Blockers",
	"Diuretics",
	"Lipid-lowering Drugs (Statins)",
	"Antidiabetics (Oral)",
	"Insulin",
	"Antacids",
	"Proton Pump Inhibitors",
	"H2 Receptor Blockers",
	"Laxatives",
	"Antidiarrheals",
	"Anti-emetics",
	"Antispasmodics",
	"Antiulcer Agents",
	"Antiseptics",
	"Vaccines",
	"Eye Drops (Lubricant)",
	"Eye Drops (Antibiotic)",
	"Ear Drops (Antibiotic)",
	"Nasal Sprays (Decongestant)",
	"Nasal Sprays (Steroid)",
	"Oral Rehydration Salts",
	"Nutritional Supplements",
	"Vitamins",
	"Minerals",
	"Multivitamins",
	"Herbal Medicines",
	"Ayurvedic Medicines",
	"Thyroid Medications",
	"Corticosteroid Creams",
	"Topical Antibiotics",
	"Topical Antifungals",
	"Muscle Relaxants",
	"Antipsychotics",
	"Antidepressants",
	"Anxiolytics",
	"Mood Stabilizers",
	"Stimulants",
	"Antivertigo Drugs",
	"Anti-Motion Sickness Drugs",
	"Anti-Allergic Drugs",
	"Immunomodulators",
	"Antidotes",
	"Local Anesthetics",
	"Pain Patches",
	"Combination Drugs (Multi-Action)",
	"Analgesics & Pain Relief",
	"Antacids & Acid Reducers",
	"Multivitamins & Supplements",
	"Antidiabetics",
	"Digestive & Laxatives",
	"Anti-Parkinson Drugs",
	"Antiepileptics",
	"Hypnotics",
	"Sedatives",
	"Antioxidants",
	"Cough & Cold Medicines",
	"Blood Pressure / Hypertension Medicines",
	"Antihistamines & Allergy Medicines",
	"Appetite Stimulants",
	"Electrolyte Replacements",
}

// IsCategory reports whether input matches a vocabulary entry, ignoring case
// and surrounding whitespace.
func IsCategory(input string) bool {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, c := range Categories {
		if normalized == strings.ToLower(c) {
			return true
		}
	}
	return false
}
