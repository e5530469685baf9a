package constants

import "strings"

// Forms is the closed vocabulary for dosage forms. Same contract as
// Categories: embedded in the extraction prompt, enforced at validation.
var Forms = []string{
	"Tablet",
	"Capsule",
	"Syrup",
	"Suspension",
	"Oral Suspension",
	"Injection",
	"Cream",
	"Ointment",
	"Gel",
	"Lotion",
	"Paste",
	"Powder",
	"Sachet",
	"Solution",
	"Drops",
	"Oral Drops",
	"Eye Drops",
	"Ear Drops",
	"Nasal Drops",
	"Nasal Spray",
	"Spray",
	"Inhaler",
	"Nebulizer Solution",
	"Effervescent Tablet",
	"Chewable Tablet",
	"Enteric Coated Tablet",
	"Sublingual Tablet",
	"Lozenge",
	"Transdermal Patch",
	"Patch",
	"Mouthwash",
	"Liquid",
	"IV Solution",
	"Gum",
}

// IsForm reports whether input matches a vocabulary entry, ignoring case and
// surrounding whitespace.
func IsForm(input string) bool {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, f := range Forms {
		if normalized == strings.ToLower(f) {
			return true
		}
	}
	return false
}
