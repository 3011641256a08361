package clean

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// mojibakeRepairs maps the UTF-8-decoded-as-Latin-1 forms of common accented
// characters back to their intended runes. Longer sequences come first so the
// replacer never leaves a partial artifact behind.
var mojibakeRepairs = []string{
	"â€™", "'",
	"â€œ", "“",
	"â€", "”",
	"â€“", "–",
	"â€”", "—",
	"Ã©", "é",
	"Ã¨", "è",
	"Ãª", "ê",
	"Ã«", "ë",
	"Ã¢", "â",
	"Ã®", "î",
	"Ã´", "ô",
	"Ã»", "û",
	"Ã¹", "ù",
	"Ã§", "ç",
	"Ã¼", "ü",
	"Ã¶", "ö",
	"Ã¤", "ä",
	"Ã±", "ñ",
	"Ã¡", "á",
	"Ã­", "í",
	"Ã³", "ó",
	"Ãº", "ú",
	"Ã ", "à",
	"Â°", "°",
	"Â ", " ",
}

var mojibakeReplacer = strings.NewReplacer(mojibakeRepairs...)

// repairMojibake undoes double-encoded Latin accented characters.
// Returns the repaired string and the number of repairs applied.
func repairMojibake(s string) (string, int) {
	count := 0
	for i := 0; i < len(mojibakeRepairs); i += 2 {
		count += strings.Count(s, mojibakeRepairs[i])
	}
	if count == 0 {
		return s, 0
	}
	return mojibakeReplacer.Replace(s), count
}

// normalizeText repairs mojibake, applies Unicode NFC normalization, strips
// control characters and collapses runs of whitespace. Returns the normalized
// text and a count of characters that were repaired or removed.
func normalizeText(s string) (string, int) {
	repaired, changed := repairMojibake(s)
	repaired = norm.NFC.String(repaired)

	var b strings.Builder
	b.Grow(len(repaired))
	lastSpace := false
	for _, r := range repaired {
		switch {
		case unicode.IsControl(r):
			changed++
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
			} else {
				changed++
			}
			lastSpace = true
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	out := strings.TrimSpace(b.String())
	return out, changed
}

// normalizeIngredientsText applies normalizeText plus punctuation rules for
// ingredient lists: semicolons become commas, separators get exactly one
// trailing space and none before, and dangling separators are dropped.
func normalizeIngredientsText(s string) (string, int) {
	out, changed := normalizeText(s)

	replaced := strings.ReplaceAll(out, ";", ",")
	changed += strings.Count(out, ";")
	out = replaced

	// No space before a comma, exactly one after.
	for strings.Contains(out, " ,") {
		out = strings.ReplaceAll(out, " ,", ",")
		changed++
	}
	for strings.Contains(out, ",,") {
		out = strings.ReplaceAll(out, ",,", ",")
		changed++
	}
	out = strings.ReplaceAll(out, ",", ", ")
	for strings.Contains(out, ",  ") {
		out = strings.ReplaceAll(out, ",  ", ", ")
	}

	out = strings.Trim(out, " ,.")
	return out, changed
}
