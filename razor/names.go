package razor

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeClassName derives a CLS-compliant class name from a template file name:
// the base name without extension, with every rune that cannot appear in an
// identifier replaced by '_'.
func SanitizeClassName(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))

	var b strings.Builder
	for _, r := range norm.NFC.String(base) {
		if isIdentRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return fixLeading(b.String())
}

// TransliteratePath maps an app-relative template path to an identifier.
// Path separators, dots, dashes and spaces become '_', so "a-b.cshtml" and
// "a_b.cshtml" share a name; engine.GenerateFiles reports such collisions. Any
// other rune that is not a letter, digit or underscore is spelled out as _xHHHH.
// The input is NFC-normalised first so that composed and decomposed spellings of
// the same path agree.
func TransliteratePath(p string) string {
	p = norm.NFC.String(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimLeft(p, "~/")

	var b strings.Builder
	for _, r := range p {
		switch {
		case isIdentRune(r):
			b.WriteRune(r)
		case r == '/' || r == '.' || r == '-' || r == ' ':
			b.WriteByte('_')
		default:
			fmt.Fprintf(&b, "_x%04X", r)
		}
	}
	return fixLeading(b.String())
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func fixLeading(name string) string {
	if name == "" {
		return "_"
	}
	for _, r := range name {
		if unicode.IsDigit(r) {
			return "_" + name
		}
		break
	}
	return name
}
