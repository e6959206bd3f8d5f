// Package planner implements the default markdown-checklist Planner: an
// objective written as a `- [ ] subtask` list decomposes into one subtask
// per item. Only a single checklist is read; frontmatter and task sections
// of a full plan document are not interpreted.
package planner

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ChecklistPlanner decomposes an objective by reading it as markdown and
// collecting every top-level list item's text as one subtask. An objective
// with no list items has no further decomposition: Plan returns an empty
// slice, and the caller treats the task as a leaf.
type ChecklistPlanner struct {
	markdown goldmark.Markdown
}

// New returns a ChecklistPlanner ready for use.
func New() *ChecklistPlanner {
	return &ChecklistPlanner{markdown: goldmark.New()}
}

// Plan implements supervisor.Planner.
func (p *ChecklistPlanner) Plan(ctx context.Context, objective string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source := []byte(objective)
	doc := p.markdown.Parser().Parse(text.NewReader(source))

	var subtasks []string
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		item, ok := n.(*ast.ListItem)
		if !ok {
			return ast.WalkContinue, nil
		}
		content := strings.TrimSpace(itemText(item, source))
		content = strings.TrimPrefix(content, "[ ]")
		content = strings.TrimPrefix(content, "[x]")
		content = strings.TrimPrefix(content, "[X]")
		content = strings.TrimSpace(content)
		if content != "" {
			subtasks = append(subtasks, content)
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}
	return subtasks, nil
}

// itemText flattens a list item's direct text content by concatenating its
// text segments, writing a space only after a soft or hard line break;
// nested lists are excluded by the caller skipping the item's children
// during Walk.
func itemText(item *ast.ListItem, source []byte) string {
	var buf bytes.Buffer
	var collect func(ast.Node)
	collect = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.Text:
				buf.Write(v.Segment.Value(source))
				if v.SoftLineBreak() || v.HardLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.TextBlock:
				collect(v)
			case *ast.Paragraph:
				collect(v)
			}
		}
	}
	collect(item)
	return buf.String()
}
