package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// cyrillicTranslit maps Cyrillic letters to Latin sequences. The mapping is
// fixed so the same original name always yields the same storage key.
var cyrillicTranslit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	'і': "i", 'ї': "yi", 'є': "ye", 'ґ': "g",
}

// latinFold maps common accented Latin letters to their base form
var latinFold = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n', 'ý': 'y', 'ß': 's',
}

const minNormalizedLength = 3

// NormalizeFilename maps an arbitrary original filename (possibly non-Latin)
// to a deterministic ASCII-safe storage key fragment. The human-readable
// original name is kept elsewhere for display; this value only ever appears
// inside object keys.
//
// Pathological inputs (empty, pure punctuation, anything that normalizes to
// fewer than three characters) fall back to a hex digest of the original
// bytes, so the output always has a usable length and distinct inputs keep
// distinct keys.
func NormalizeFilename(original string) string {
	base := strings.TrimSuffix(original, extensionOf(original))

	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			if tr, ok := cyrillicTranslit[r]; ok {
				b.WriteString(tr)
			} else if folded, ok := latinFold[r]; ok {
				b.WriteRune(folded)
			} else if unicode.IsSpace(r) || unicode.IsPunct(r) {
				b.WriteRune('-')
			}
			// anything else (emoji, CJK, control chars) is dropped
		}
	}

	normalized := collapseDashes(b.String())
	if len(normalized) < minNormalizedLength {
		sum := sha256.Sum256([]byte(original))
		return hex.EncodeToString(sum[:8])
	}

	const maxLen = 100
	if len(normalized) > maxLen {
		normalized = strings.Trim(normalized[:maxLen], "-")
	}
	return normalized
}

// extensionOf returns the final dot-extension including the dot, or ""
func extensionOf(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 && i < len(name)-1 {
		return name[i:]
	}
	return ""
}

// collapseDashes squeezes dash runs and trims leading/trailing dashes
func collapseDashes(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range s {
		if r == '-' {
			if prevDash {
				continue
			}
			prevDash = true
		} else {
			prevDash = false
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "-")
}
