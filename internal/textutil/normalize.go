package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letterReplacer handles letters that do not decompose under NFKD.
var letterReplacer = strings.NewReplacer(
	"Æ", "AE", "æ", "ae",
	"Œ", "OE", "œ", "oe",
	"Ø", "O", "ø", "o",
	"Ł", "L", "ł", "l",
	"Đ", "D", "đ", "d",
	"Þ", "Th", "þ", "th",
	"ß", "ss",
	"&", " and ",
	"'", "", "’", "", "‘", "", "`", "",
	"+", " plus ",
)

var folder = cases.Fold()

// NormalizeTitle case-folds, strips diacritics, and collapses punctuation so
// that cosmetic variants of a title compare equal. Letters outside the Latin
// script are preserved.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	title = letterReplacer.Replace(title)

	stripper := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripper, title)
	if err == nil {
		title = stripped
	}
	title = folder.String(title)

	var b strings.Builder
	b.Grow(len(title))
	pendingSpace := false
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}
