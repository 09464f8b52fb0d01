// Package processors provides built-in post-processors for generated C# files.
package processors

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// isCSharpFile reports whether filePath names a C# source file.
func isCSharpFile(filePath string) bool {
	return strings.EqualFold(filepath.Ext(filePath), ".cs")
}

// Header stamps generated files with an auto-generated banner so analyzers and
// style checkers skip them.
//
// Example usage:
//
//	eng := engine.New()
//	eng.AddPostProcessor(processors.NewHeader("razorgen"))
type Header struct {
	// Tool is named in the banner.
	Tool string
	// Source, when set, is called with the output path and its result is added
	// to the banner, e.g. the template the file was generated from.
	Source func(filePath string) string
}

func NewHeader(tool string) *Header {
	return &Header{Tool: tool}
}

func (h *Header) Name() string { return "header" }

const autoGeneratedMarker = "// <auto-generated>"

func (h *Header) ProcessContent(filePath string, content []byte) ([]byte, error) {
	if !isCSharpFile(filePath) {
		return content, nil
	}
	if bytes.HasPrefix(content, []byte(autoGeneratedMarker)) {
		return content, nil
	}

	var b bytes.Buffer
	b.WriteString(autoGeneratedMarker + "\n")
	fmt.Fprintf(&b, "//     This code was generated by %s.\n", h.toolName())
	if h.Source != nil {
		if src := h.Source(filePath); src != "" {
			fmt.Fprintf(&b, "//     Source: %s\n", src)
		}
	}
	b.WriteString("//\n")
	b.WriteString("//     Changes to this file may cause incorrect behavior and will be lost if\n")
	b.WriteString("//     the code is regenerated.\n")
	b.WriteString("// </auto-generated>\n")
	b.Write(content)
	return b.Bytes(), nil
}

func (h *Header) toolName() string {
	if h.Tool == "" {
		return "a tool"
	}
	return h.Tool
}

type LineEnding string

const (
	LF   LineEnding = "\n"
	CRLF LineEnding = "\r\n"
)

// ParseLineEnding accepts "lf" or "crlf", case-insensitively.
func ParseLineEnding(s string) (LineEnding, error) {
	switch strings.ToLower(s) {
	case "lf":
		return LF, nil
	case "crlf":
		return CRLF, nil
	}
	return "", fmt.Errorf("unknown line ending %q", s)
}

// LineEndings rewrites every line break in C# files to Ending.
type LineEndings struct {
	Ending LineEnding
}

func NewLineEndings(ending LineEnding) *LineEndings {
	return &LineEndings{Ending: ending}
}

func (l *LineEndings) Name() string { return "line-endings" }

func (l *LineEndings) ProcessContent(filePath string, content []byte) ([]byte, error) {
	if !isCSharpFile(filePath) {
		return content, nil
	}
	switch l.Ending {
	case LF, CRLF:
	default:
		return nil, fmt.Errorf("unsupported line ending %q", string(l.Ending))
	}

	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if l.Ending == LF {
		return normalized, nil
	}
	return bytes.ReplaceAll(normalized, []byte("\n"), []byte("\r\n")), nil
}

// TrimTrailingWhitespace removes spaces and tabs at the end of every line and
// ensures the file ends with exactly one line break.
type TrimTrailingWhitespace struct{}

func NewTrimTrailingWhitespace() *TrimTrailingWhitespace {
	return &TrimTrailingWhitespace{}
}

func (TrimTrailingWhitespace) Name() string { return "trim-trailing-whitespace" }

func (TrimTrailingWhitespace) ProcessContent(filePath string, content []byte) ([]byte, error) {
	if !isCSharpFile(filePath) {
		return content, nil
	}

	crlf := bytes.Contains(content, []byte("\r\n"))
	lines := bytes.Split(bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n")), []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimRight(line, " \t")
	}
	for len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}

	sep := []byte("\n")
	if crlf {
		sep = []byte("\r\n")
	}
	if len(lines) == 0 {
		return []byte{}, nil
	}
	out := bytes.Join(lines, sep)
	return append(out, sep...), nil
}
