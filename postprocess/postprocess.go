// Package postprocess applies text transformations to emitted C# sources before
// they are written.
//
// Processors run after the code tree has been emitted, in the order they were
// added. Typical processors stamp an auto-generated header, normalize line
// endings or trim trailing whitespace.
//
// Example usage:
//
//	import (
//		"github.com/cpcf/razorgen/engine"
//		"github.com/cpcf/razorgen/processors"
//	)
//
//	eng, err := engine.New(engine.AddPostProcessor(processors.NewTrimTrailingWhitespace()))
//	if err != nil {
//		return err
//	}
//	eng.AddPostProcessorFunc(func(path string, content []byte) ([]byte, error) {
//		return bytes.ReplaceAll(content, []byte("\t"), []byte("    ")), nil
//	})
package postprocess

import "fmt"

// Processor transforms the content of one generated file.
// Implementations must be safe for concurrent use; the engine shares one chain
// across its workers.
type Processor interface {
	// ProcessContent returns the transformed content. filePath is the output path
	// of the generated file. Processors that do not apply to a file return content
	// unchanged.
	ProcessContent(filePath string, content []byte) ([]byte, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(filePath string, content []byte) ([]byte, error)

func (f ProcessorFunc) ProcessContent(filePath string, content []byte) ([]byte, error) {
	return f(filePath, content)
}

// Named is implemented by processors that report a name in errors.
type Named interface {
	Name() string
}

// Chain runs processors in sequence.
type Chain struct {
	processors []Processor
}

func NewChain(processors ...Processor) *Chain {
	c := &Chain{processors: make([]Processor, 0, len(processors))}
	for _, p := range processors {
		c.Add(p)
	}
	return c
}

// Add appends a processor. Nil processors are ignored.
func (c *Chain) Add(processor Processor) {
	if processor == nil {
		return
	}
	c.processors = append(c.processors, processor)
}

func (c *Chain) AddFunc(fn func(filePath string, content []byte) ([]byte, error)) {
	c.processors = append(c.processors, ProcessorFunc(fn))
}

// Process runs every processor on content. The first failure stops the chain.
func (c *Chain) Process(filePath string, content []byte) ([]byte, error) {
	result := content
	for i, processor := range c.processors {
		processed, err := processor.ProcessContent(filePath, result)
		if err != nil {
			return nil, fmt.Errorf("processor %s failed for %s: %w", processorName(i, processor), filePath, err)
		}
		result = processed
	}
	return result, nil
}

func (c *Chain) HasProcessors() bool {
	return len(c.processors) > 0
}

func (c *Chain) Len() int {
	return len(c.processors)
}

func (c *Chain) Clear() {
	c.processors = c.processors[:0]
}

func processorName(i int, p Processor) string {
	if n, ok := p.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%d", i)
}
