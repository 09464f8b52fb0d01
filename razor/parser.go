package razor

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

type SpanKind int

const (
	SpanMarkup SpanKind = iota
	SpanExpression
	SpanCode
	SpanDirective
	SpanComment
	SpanFunctions
)

func (k SpanKind) String() string {
	switch k {
	case SpanMarkup:
		return "markup"
	case SpanExpression:
		return "expression"
	case SpanCode:
		return "code"
	case SpanDirective:
		return "directive"
	case SpanComment:
		return "comment"
	case SpanFunctions:
		return "functions"
	default:
		return "unknown"
	}
}

// Span is a contiguous piece of a template. Line and Column are 1-based and point
// at the start of the span in the template source.
type Span struct {
	Kind    SpanKind
	Keyword string
	Content string
	Line    int
	Column  int
}

type Document struct {
	Spans []Span
}

// Directives returns the directive spans for keyword in document order.
func (d *Document) Directives(keyword string) []Span {
	var spans []Span
	for _, s := range d.Spans {
		if s.Kind == SpanDirective && s.Keyword == keyword {
			spans = append(spans, s)
		}
	}
	return spans
}

// Parser turns template source into a Document.
type Parser interface {
	Parse(source string) (*Document, error)
}

type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

var coreKeywords = []string{"using", "inherits"}

// CoreParser parses the language-neutral subset of Razor: comments, code blocks,
// explicit and implicit expressions, @functions blocks and line directives.
type CoreParser struct {
	keywords []string
}

// NewCoreParser returns a parser that recognises the core line directives plus
// any extra keywords, such as "model".
func NewCoreParser(extraKeywords ...string) *CoreParser {
	keywords := slices.Clone(coreKeywords)
	for _, k := range extraKeywords {
		if !slices.Contains(keywords, k) {
			keywords = append(keywords, k)
		}
	}
	return &CoreParser{keywords: keywords}
}

// Keywords returns the line directive keywords the parser recognises.
func (p *CoreParser) Keywords() []string {
	return slices.Clone(p.keywords)
}

func (p *CoreParser) Parse(source string) (*Document, error) {
	s := newScanner(source)
	doc := &Document{}
	markupStart := 0

	flush := func(end int) {
		if end > markupStart {
			line, col := s.position(markupStart)
			doc.Spans = append(doc.Spans, Span{Kind: SpanMarkup, Content: source[markupStart:end], Line: line, Column: col})
		}
	}

	i := 0
	for i < len(source) {
		if source[i] != '@' {
			i++
			continue
		}

		if i+1 < len(source) && source[i+1] == '@' {
			flush(i + 1)
			i += 2
			markupStart = i
			continue
		}

		if i > 0 && isIdentByte(source[i-1]) {
			// user@example.com
			i++
			continue
		}

		flush(i)
		span, next, err := p.parseTransition(s, i)
		if err != nil {
			return nil, err
		}
		doc.Spans = append(doc.Spans, span)
		i = next
		markupStart = i
	}
	flush(len(source))

	return doc, nil
}

// parseTransition parses the construct introduced by the '@' at offset at and
// returns the span and the offset following it.
func (p *CoreParser) parseTransition(s *scanner, at int) (Span, int, error) {
	src := s.src
	line, col := s.position(at)
	span := Span{Line: line, Column: col}
	next := at + 1

	if next >= len(src) {
		return span, 0, s.errorf(at, "unexpected end of template after '@'")
	}

	switch c := src[next]; {
	case c == '*':
		end := strings.Index(src[next+1:], "*@")
		if end < 0 {
			return span, 0, s.errorf(at, "unterminated comment")
		}
		span.Kind = SpanComment
		span.Content = src[next+1 : next+1+end]
		return span, next + 1 + end + 2, nil

	case c == '{':
		closeAt, err := s.matchBracket(next)
		if err != nil {
			return span, 0, err
		}
		span.Kind = SpanCode
		span.Content = strings.TrimSpace(src[next+1 : closeAt])
		return span, closeAt + 1, nil

	case c == '(':
		closeAt, err := s.matchBracket(next)
		if err != nil {
			return span, 0, err
		}
		span.Kind = SpanExpression
		span.Content = strings.TrimSpace(src[next+1 : closeAt])
		if span.Content == "" {
			return span, 0, s.errorf(at, "empty expression")
		}
		return span, closeAt + 1, nil

	case isIdentStart(src, next):
		return p.parseIdentifier(s, span, next)
	}

	return span, 0, s.errorf(at, "unexpected %q after '@'", src[next])
}

func (p *CoreParser) parseIdentifier(s *scanner, span Span, start int) (Span, int, error) {
	src := s.src
	end := scanIdent(src, start)
	ident := src[start:end]

	if ident == "functions" {
		open := skipSpace(src, end)
		if open >= len(src) || src[open] != '{' {
			return span, 0, s.errorf(start-1, "expected '{' after @functions")
		}
		closeAt, err := s.matchBracket(open)
		if err != nil {
			return span, 0, err
		}
		span.Kind = SpanFunctions
		span.Keyword = ident
		span.Content = strings.TrimSpace(src[open+1 : closeAt])
		return span, closeAt + 1, nil
	}

	if slices.Contains(p.keywords, ident) && end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		eol := strings.IndexByte(src[end:], '\n')
		lineEnd := len(src)
		next := len(src)
		if eol >= 0 {
			lineEnd = end + eol
			next = lineEnd + 1
		}
		value := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(src[end:lineEnd]), ";"))
		if value == "" {
			return span, 0, s.errorf(start-1, "@%s requires a value", ident)
		}
		span.Kind = SpanDirective
		span.Keyword = ident
		span.Content = value
		return span, next, nil
	}

	// Implicit expression: identifier followed by member access, calls and indexers.
	pos := end
	for pos < len(src) {
		switch {
		case src[pos] == '.' && isIdentStart(src, pos+1):
			pos = scanIdent(src, pos+1)
		case src[pos] == '(' || src[pos] == '[':
			closeAt, err := s.matchBracket(pos)
			if err != nil {
				return span, 0, err
			}
			pos = closeAt + 1
		default:
			span.Kind = SpanExpression
			span.Content = src[start:pos]
			return span, pos, nil
		}
	}
	span.Kind = SpanExpression
	span.Content = src[start:pos]
	return span, pos, nil
}

type scanner struct {
	src        string
	lineStarts []int
}

func newScanner(src string) *scanner {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &scanner{src: src, lineStarts: starts}
}

func (s *scanner) position(offset int) (int, int) {
	idx := sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > offset
	}) - 1
	col := utf8.RuneCountInString(s.src[s.lineStarts[idx]:offset]) + 1
	return idx + 1, col
}

func (s *scanner) errorf(offset int, format string, args ...any) error {
	line, col := s.position(offset)
	return &ParseError{Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

var closers = map[byte]byte{'{': '}', '(': ')', '[': ']'}

// matchBracket returns the offset of the bracket closing the one at open. String
// and character literals are skipped.
func (s *scanner) matchBracket(open int) (int, error) {
	src := s.src
	var stack []byte
	for i := open; i < len(src); i++ {
		c := src[i]
		switch c {
		case '{', '(', '[':
			stack = append(stack, closers[c])
		case '}', ')', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, s.errorf(i, "unbalanced %q", c)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, nil
			}
		case '"', '\'':
			end := skipLiteral(src, i)
			if end < 0 {
				return 0, s.errorf(i, "unterminated literal")
			}
			i = end
		}
	}
	return 0, s.errorf(open, "missing closing %q", closers[src[open]])
}

// skipLiteral returns the offset of the quote closing the literal starting at i.
func skipLiteral(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case quote:
			return j
		case '\n':
			return -1
		}
	}
	return -1
}

func skipSpace(src string, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\r' || src[i] == '\n') {
		i++
	}
	return i
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isIdentStart(src string, i int) bool {
	if i >= len(src) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(src[i:])
	return r == '_' || unicode.IsLetter(r)
}

func scanIdent(src string, i int) int {
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		i += size
	}
	return i
}
