package richtext

// segment is one top-level render unit: a single node or a list built from
// consecutive list blocks.
type segment struct {
	node  Node
	index int
	list  *list
}

type list struct {
	listItem string
	level    int
	items    []*listEntry
}

type listEntry struct {
	node     Node
	index    int
	children []*list
}

// groupLists folds consecutive list blocks into nested lists. A block one
// level deeper than the open list nests under that list's last item; a
// change of list type at the same level closes the open list.
func groupLists(doc Document) []segment {
	segments := make([]segment, 0, len(doc))
	var stack []*list
	for i, node := range doc {
		if !node.IsListItem() {
			stack = nil
			segments = append(segments, segment{node: node, index: i})
			continue
		}

		level := node.ListLevel()
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.level > level || (top.level == level && top.listItem != node.ListItem) {
				stack = stack[:len(stack)-1]
				continue
			}
			break
		}

		entry := &listEntry{node: node, index: i}
		if len(stack) == 0 {
			root := &list{listItem: node.ListItem, level: level, items: []*listEntry{entry}}
			stack = []*list{root}
			segments = append(segments, segment{index: i, list: root})
			continue
		}

		top := stack[len(stack)-1]
		if top.level == level {
			top.items = append(top.items, entry)
			continue
		}

		parent := top.items[len(top.items)-1]
		nested := &list{listItem: node.ListItem, level: level, items: []*listEntry{entry}}
		parent.children = append(parent.children, nested)
		stack = append(stack, nested)
	}
	return segments
}
