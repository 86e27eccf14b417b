// Package langtest extracts executable language examples from Markdown
// documentation so the documented programs double as compiler test cases.
package langtest

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Example is one documented program: an "Example: <name>" heading, a "bcl"
// code fence with the source, and an optional "asm" fence whose lines must
// all appear in the compiled output.
type Example struct {
	Name   string
	Source string
	Expect []string
}

// ExtractExamples parses a Markdown document and collects all examples.
func ExtractExamples(markdown []byte) ([]Example, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(markdown))

	var examples []Example
	var current *Example

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := extractText(n, markdown)
			if !strings.HasPrefix(heading, "Example: ") {
				return ast.WalkContinue, nil
			}
			if current != nil {
				if err := validate(current); err != nil {
					return ast.WalkStop, err
				}
				examples = append(examples, *current)
			}
			current = &Example{Name: strings.TrimPrefix(heading, "Example: ")}

		case *ast.FencedCodeBlock:
			language := string(n.Language(markdown))
			if current == nil {
				return ast.WalkContinue, nil
			}
			content := fenceContent(n, markdown)
			switch language {
			case "bcl":
				if current.Source != "" {
					return ast.WalkStop, fmt.Errorf("example %q has more than one bcl fence", current.Name)
				}
				current.Source = content
			case "asm":
				for _, line := range strings.Split(content, "\n") {
					line = strings.TrimSpace(line)
					if line != "" {
						current.Expect = append(current.Expect, line)
					}
				}
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	if current != nil {
		if err := validate(current); err != nil {
			return nil, err
		}
		examples = append(examples, *current)
	}
	return examples, nil
}

func validate(e *Example) error {
	if e.Source == "" {
		return fmt.Errorf("example %q has no bcl fence", e.Name)
	}
	return nil
}

// extractText collects the plain text content of an inline container node.
func extractText(node ast.Node, source []byte) string {
	var sb strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
	}
	return sb.String()
}

// fenceContent returns the body of a fenced code block.
func fenceContent(fence *ast.FencedCodeBlock, source []byte) string {
	var sb strings.Builder
	lines := fence.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}
