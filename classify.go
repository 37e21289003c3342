package lineedit

import "unicode"

// defaultClassifier answers word-class questions using the standard
// library's Unicode category tables. No third-party classifier in the
// reference pack improves on unicode.IsLetter/IsNumber for this single
// binary predicate (see DESIGN.md), so the default Classifier is a thin
// wrapper around them rather than a pulled-in dependency.
type defaultClassifier struct{}

// DefaultClassifier is a Classifier backed by unicode.IsLetter and
// unicode.IsNumber.
var DefaultClassifier Classifier = defaultClassifier{}

func (defaultClassifier) IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
