package risk

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const maxDescriptionBytes = 500

// Normalization regexes compiled once at package init.
var (
	reNumber     = regexp.MustCompile(`\d+([.,]\d+)*`)
	rePunct      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Dedupe collapses risk items whose descriptions normalize to the same text.
// The item with the higher O×S×D product wins; on a tie the earlier one stays.
// Output keeps first-appearance order.
func Dedupe(items []models.RiskItem) []models.RiskItem {
	if len(items) == 0 {
		return []models.RiskItem{}
	}

	index := make(map[string]int, len(items))
	out := make([]models.RiskItem, 0, len(items))
	for _, item := range items {
		item.Description = truncateString(item.Description, maxDescriptionBytes)

		fp := Fingerprint(item.Description)
		if i, seen := index[fp]; seen {
			if product(item) > product(out[i]) {
				out[i] = item
			}
			continue
		}
		index[fp] = len(out)
		out = append(out, item)
	}
	return out
}

// Fingerprint computes a stable SHA-256 fingerprint for a risk description.
func Fingerprint(description string) string {
	hash := sha256.Sum256([]byte(NormalizeDescription(description)))
	return fmt.Sprintf("%x", hash)
}

// NormalizeDescription lowercases a description and strips numbers and punctuation.
func NormalizeDescription(desc string) string {
	desc = strings.ToLower(desc)
	desc = reNumber.ReplaceAllString(desc, "N")
	desc = rePunct.ReplaceAllString(desc, " ")
	desc = reWhitespace.ReplaceAllString(desc, " ")
	return strings.TrimSpace(desc)
}

func product(item models.RiskItem) int {
	return item.Occurrence * item.Severity * item.Detection
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
