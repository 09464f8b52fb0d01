package codetree

import "fmt"

type LinePragmaKind int

const (
	// PragmaLine maps following code to a template line: #line N "file".
	PragmaLine LinePragmaKind = iota
	// PragmaDefault restores default line numbering: #line default.
	PragmaDefault
	// PragmaHidden hides following code from the debugger: #line hidden.
	PragmaHidden
)

func (k LinePragmaKind) String() string {
	switch k {
	case PragmaLine:
		return "line"
	case PragmaDefault:
		return "default"
	case PragmaHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

type LinePragma struct {
	Kind LinePragmaKind
	Line int
	File string
}

// Directive renders the pragma as a C# preprocessor directive. File names are
// not escaped; C# reads them verbatim up to the closing quote.
func (p LinePragma) Directive() string {
	switch p.Kind {
	case PragmaLine:
		return fmt.Sprintf("#line %d \"%s\"", p.Line, p.File)
	case PragmaDefault:
		return "#line default"
	default:
		return "#line hidden"
	}
}

// Statement is one line of a member body. A statement with an empty Text and a
// non-nil Pragma is a bare marker.
type Statement struct {
	Text   string
	Pragma *LinePragma
}

func (s Statement) IsMarker() bool {
	return s.Text == "" && s.Pragma != nil
}

// Marker returns a bare pragma statement of the given kind.
func Marker(kind LinePragmaKind) Statement {
	return Statement{Pragma: &LinePragma{Kind: kind}}
}

// CountPragmas counts pragma markers of kind across the class snippets and member bodies.
func (u *Unit) CountPragmas(kind LinePragmaKind) int {
	if u.Class == nil {
		return 0
	}
	n := 0
	for _, m := range u.Class.Members {
		for _, s := range m.Body {
			if s.Pragma != nil && s.Pragma.Kind == kind {
				n++
			}
		}
	}
	return n
}

// RemovePragmas deletes every marker of kind and returns how many were removed.
// Bare markers are dropped; a pragma attached to a statement with text is cleared.
// Snippet members left with an empty body are removed from the class.
func (u *Unit) RemovePragmas(kind LinePragmaKind) int {
	if u.Class == nil {
		return 0
	}
	removed := 0
	members := u.Class.Members[:0]
	for _, m := range u.Class.Members {
		body := m.Body[:0]
		for _, s := range m.Body {
			if s.Pragma != nil && s.Pragma.Kind == kind {
				removed++
				if s.IsMarker() {
					continue
				}
				s.Pragma = nil
			}
			body = append(body, s)
		}
		m.Body = body
		if m.Kind == MemberSnippet && len(m.Body) == 0 {
			continue
		}
		members = append(members, m)
	}
	u.Class.Members = members
	return removed
}
