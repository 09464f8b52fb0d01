// Package diagnose turns template failures into readable reports: the failing
// stage, the position in the template, a source excerpt and suggestions.
package diagnose

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cpcf/razorgen/engine"
	"github.com/cpcf/razorgen/razor"
	"github.com/cpcf/razorgen/transform"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic describes one problem found in a template.
type Diagnostic struct {
	Severity    Severity `json:"severity"`
	Template    string   `json:"template"`
	Stage       string   `json:"stage,omitempty"`
	Line        int      `json:"line,omitempty"`
	Column      int      `json:"column,omitempty"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
	// Excerpt is the template line at Line, when known.
	Excerpt string `json:"excerpt,omitempty"`

	err error
}

// FromError builds an error diagnostic for template. Stage and position are
// taken from the GenerationError and ParseError in err's chain.
func FromError(template string, err error) *Diagnostic {
	if err == nil {
		return nil
	}

	d := &Diagnostic{
		Severity: SeverityError,
		Template: template,
		Message:  err.Error(),
		err:      err,
	}

	var genErr *engine.GenerationError
	if errors.As(err, &genErr) {
		d.Stage = genErr.Stage
		if genErr.Path != "" {
			d.Template = genErr.Path
		}
		d.Message = genErr.Message
		if genErr.Err != nil {
			d.Message += ": " + rootMessage(genErr.Err)
		}
	}

	var parseErr *razor.ParseError
	if errors.As(err, &parseErr) {
		d.Line = parseErr.Line
		d.Column = parseErr.Column
	}

	d.Suggestions = Suggest(err)
	return d
}

// rootMessage drops the position prefix of a ParseError, since the diagnostic
// reports it separately.
func rootMessage(err error) string {
	var parseErr *razor.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Message
	}
	return err.Error()
}

func (d *Diagnostic) Error() string {
	return d.String()
}

func (d *Diagnostic) Unwrap() error {
	return d.err
}

// String renders the diagnostic on one line, compiler style.
func (d *Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Template)
	if d.Line > 0 {
		fmt.Fprintf(&b, ":%d", d.Line)
		if d.Column > 0 {
			fmt.Fprintf(&b, ":%d", d.Column)
		}
	}
	fmt.Fprintf(&b, ": %s: %s", d.Severity, d.Message)
	return b.String()
}

// WithSource fills in the excerpt from the template source.
func (d *Diagnostic) WithSource(source string) *Diagnostic {
	if d.Line <= 0 {
		return d
	}
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	if d.Line <= len(lines) {
		d.Excerpt = lines[d.Line-1]
	}
	return d
}

// FormatDetailed renders the diagnostic over several lines, with the excerpt
// and a caret under the failing column.
func (d *Diagnostic) FormatDetailed() string {
	var b strings.Builder
	b.WriteString(d.String())
	b.WriteString("\n")

	if d.Stage != "" {
		fmt.Fprintf(&b, "  stage: %s\n", d.Stage)
	}

	if d.Excerpt != "" {
		fmt.Fprintf(&b, "  %4d | %s\n", d.Line, d.Excerpt)
		if d.Column > 0 && d.Column <= utf8.RuneCountInString(d.Excerpt)+1 {
			fmt.Fprintf(&b, "       | %s^\n", caretPadding(d.Excerpt, d.Column))
		}
	}

	if len(d.Suggestions) > 0 {
		b.WriteString("  suggestions:\n")
		for i, s := range d.Suggestions {
			fmt.Fprintf(&b, "    %d. %s\n", i+1, s)
		}
	}
	return b.String()
}

// caretPadding keeps tabs so the caret lines up with the excerpt.
func caretPadding(line string, column int) string {
	var b strings.Builder
	n := 0
	for _, r := range line {
		if n >= column-1 {
			break
		}
		n++
		if r == '\t' {
			b.WriteRune('\t')
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// Suggest returns hints for fixing err.
func Suggest(err error) []string {
	if err == nil {
		return nil
	}

	var suggestions []string

	var cfgErr *transform.ConfigurationError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Field {
		case transform.DirectiveGenerator:
			suggestions = append(suggestions,
				"Check the Generator directive names a registered flavor (see razorgen flavors)")
		case "":
		default:
			suggestions = append(suggestions,
				fmt.Sprintf("Check the value of the %s directive or setting", cfgErr.Field))
		}
	}

	var transformErr *transform.TransformError
	if errors.As(err, &transformErr) {
		suggestions = append(suggestions,
			fmt.Sprintf("Unit %s could not apply; check the directives that configure it", transformErr.Unit))
	}

	var parseErr *razor.ParseError
	if errors.As(err, &parseErr) {
		msg := strings.ToLower(parseErr.Message)
		switch {
		case strings.Contains(msg, "unterminated"), strings.Contains(msg, "missing closing"), strings.Contains(msg, "unbalanced"):
			suggestions = append(suggestions, "Check for an unclosed block, expression, string or comment")
		case strings.Contains(msg, "end of template"), strings.Contains(msg, "empty expression"):
			suggestions = append(suggestions, "Follow @ with an expression, a block or a directive")
		default:
			suggestions = append(suggestions, "Check the Razor syntax around the reported position")
		}
		suggestions = append(suggestions, "Use @@ to write a literal @")
	}

	var genErr *engine.GenerationError
	if errors.As(err, &genErr) {
		switch genErr.Stage {
		case engine.StageRead:
			suggestions = append(suggestions, "Check the template exists and is readable")
		case engine.StageWrite:
			suggestions = append(suggestions, "Ensure the output directory is writable")
		case engine.StageInitialize:
			suggestions = append(suggestions, "Check the template path and the web.config files above it")
		}
	}

	return suggestions
}
