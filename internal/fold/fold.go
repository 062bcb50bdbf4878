// Package fold applies the configured case sensitivity to names.
//
// When case-insensitive matching is enabled every stored and looked-up name
// is passed through Unicode case folding, so "KITCHEN", "Kitchen" and
// "kitchen" compare equal. When it is disabled names are used verbatim.
package fold

import (
	"regexp"

	"golang.org/x/text/cases"
)

// Folder folds names according to a fixed case-sensitivity setting.
// The zero value is case-sensitive.
type Folder struct {
	insensitive bool
}

// New returns a Folder. insensitive mirrors hubitat.case_insensitive.
func New(insensitive bool) Folder {
	return Folder{insensitive: insensitive}
}

// CaseInsensitive reports whether names are folded.
func (f Folder) CaseInsensitive() bool {
	return f.insensitive
}

// Fold returns the comparison key for s.
func (f Folder) Fold(s string) string {
	if !f.insensitive {
		return s
	}
	// A Caser holds state and must not be shared between goroutines.
	return cases.Fold().String(s)
}

// Equal reports whether a and b are the same name under f.
func (f Folder) Equal(a, b string) bool {
	return f.Fold(a) == f.Fold(b)
}

// Compile compiles a user or configuration pattern, adding the (?i) flag
// when f is case-insensitive. The pattern text itself is never folded, so
// escapes such as \S keep their meaning.
func (f Folder) Compile(expr string) (*regexp.Regexp, error) {
	if f.insensitive {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}
