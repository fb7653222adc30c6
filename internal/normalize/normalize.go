package normalize

import "golang.org/x/text/cases"

// Fold returns s case folded for case-insensitive comparison. Surrounding
// spaces are kept.
func Fold(s string) string {
	return cases.Fold().String(s)
}
