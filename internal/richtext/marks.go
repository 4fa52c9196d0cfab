package richtext

import (
	"slices"
	"strings"
)

// knownDecorators orders decorators that span the same range of text.
var knownDecorators = []string{"strong", "em", "code", "underline", "strike-through"}

// markNode is an element of the inline tree built from a block's children.
// Exactly one of mark, span or object is set, except for the root.
type markNode struct {
	mark     string
	span     *Span
	object   *Span
	children []*markNode
}

// buildMarkTree nests the block's spans under shared mark elements so that a
// mark covering several adjacent spans renders as a single element.
func buildMarkTree(children []Span) *markNode {
	root := &markNode{}
	stack := []*markNode{root}
	for i := range children {
		child := children[i]
		if !child.IsText() {
			stack = stack[:1]
			root.children = append(root.children, &markNode{object: &children[i]})
			continue
		}

		needed := sortMarks(children, i)
		pos := 1
		for ; pos < len(stack); pos++ {
			idx := slices.Index(needed, stack[pos].mark)
			if idx < 0 {
				break
			}
			needed = slices.Delete(needed, idx, idx+1)
		}
		stack = stack[:pos]

		current := stack[len(stack)-1]
		for _, mark := range needed {
			node := &markNode{mark: mark}
			current.children = append(current.children, node)
			stack = append(stack, node)
			current = node
		}
		current.children = append(current.children, &markNode{span: &children[i]})
	}
	return root
}

// sortMarks orders the marks of children[i] so that marks continuing into
// more of the following spans open first.
func sortMarks(children []Span, i int) []string {
	marks := slices.Clone(children[i].Marks)
	if len(marks) == 0 {
		return marks
	}
	occurrences := make(map[string]int, len(marks))
	for _, mark := range marks {
		occurrences[mark] = 1
		for j := i + 1; j < len(children); j++ {
			sibling := children[j]
			if !sibling.IsText() || !slices.Contains(sibling.Marks, mark) {
				break
			}
			occurrences[mark]++
		}
	}
	slices.SortStableFunc(marks, func(a, b string) int {
		if occurrences[a] != occurrences[b] {
			return occurrences[b] - occurrences[a]
		}
		aPos := decoratorPosition(a)
		bPos := decoratorPosition(b)
		if aPos != bPos {
			return aPos - bPos
		}
		return strings.Compare(a, b)
	})
	return marks
}

func decoratorPosition(mark string) int {
	idx := slices.Index(knownDecorators, mark)
	if idx < 0 {
		return len(knownDecorators)
	}
	return idx
}

// text concatenates the text under the node.
func (n *markNode) text() string {
	if n.span != nil {
		return n.span.Text
	}
	var b strings.Builder
	for _, child := range n.children {
		b.WriteString(child.text())
	}
	return b.String()
}

// IsDecorator reports whether mark is a built-in decorator.
func IsDecorator(mark string) bool {
	return slices.Contains(knownDecorators, mark)
}
