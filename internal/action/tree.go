package action

import "sort"

// Namespace is an intermediate node in an actions tree: a named branch
// whose children are either further namespaces or leaf actions.
type Namespace map[string]any

// LeafAction is one entry yielded by IterActions: a concrete action found
// at a specific path inside a specific workspace's tree.
type LeafAction struct {
	WorkspaceID string
	ActionPath  []string
	Action      *Action
}

// IterActions walks one workspace's action tree depth-first and yields
// every leaf exactly once. Sibling keys are visited in lexical order so
// that the overall traversal is stable across runs (§6 "stable,
// depth-first order"); the engine composes this per workspace, in
// assembly order, to get the full cross-workspace iteration.
func IterActions(workspaceID string, tree Namespace) []LeafAction {
	var out []LeafAction
	var walk func(path []string, node Namespace)
	walk = func(path []string, node Namespace) {
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			childPath := append(append([]string{}, path...), k)
			switch v := node[k].(type) {
			case *Action:
				out = append(out, LeafAction{WorkspaceID: workspaceID, ActionPath: childPath, Action: v})
			case Namespace:
				walk(childPath, v)
			}
		}
	}
	walk(nil, tree)
	return out
}
