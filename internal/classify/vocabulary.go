package classify

import "strings"

// Unknown is returned by classifiers that cannot map a crop to any label.
const Unknown = "?"

// Vocabulary is the closed set of labels a classifier may return, in the
// order the label set is conventionally listed.
var Vocabulary = []string{
	"(", ")", "π",
	"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
	"cos", "∫", "log", "sin", "√", "tan",
	"+", "÷", "=", "×", "-",
	"a", "b", "c", "x", "y",
}

var vocabularySet = func() map[string]bool {
	m := make(map[string]bool, len(Vocabulary))
	for _, label := range Vocabulary {
		m[label] = true
	}
	return m
}()

// aliases maps common OCR spellings of a symbol onto its vocabulary label.
var aliases = map[string]string{
	"*": "×",
	"·": "×",
	"/": "÷",
	"—": "-",
	"–": "-",
	"_": "-",
	"O": "0",
	"o": "0",
	"l": "1",
	"I": "1",
	"|": "1",
	"[": "(",
	"{": "(",
	"]": ")",
	"}": ")",
}

// IsLabel reports whether s belongs to the vocabulary.
func IsLabel(s string) bool {
	return vocabularySet[s]
}

// Normalize maps raw recognizer output onto a vocabulary label.
//
// Surrounding whitespace is ignored and known aliases are translated. Output
// that still falls outside the vocabulary yields Unknown.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if IsLabel(s) {
		return s
	}
	if label, ok := aliases[s]; ok {
		return label
	}
	if lower := strings.ToLower(s); IsLabel(lower) {
		return lower
	}
	return Unknown
}
