package workspace

import (
	"fmt"
	"sort"

	"github.com/epicenter-sh/epicenter/internal/action"
)

// register builds the id→config map, rejecting duplicate ids (§4.5 phase
// 1).
func register(configs []Config) (map[string]Config, []string, error) {
	byID := make(map[string]Config, len(configs))
	order := make([]string, 0, len(configs))
	for _, c := range configs {
		if _, exists := byID[c.ID]; exists {
			return nil, nil, fmt.Errorf("epicenter/workspace: duplicate workspace id %q", c.ID)
		}
		byID[c.ID] = c
		order = append(order, c.ID)
	}
	return byID, order, nil
}

// verifyDependencies ensures every declared dependency is itself a
// registered workspace (§4.5 phase 2). No recursive descent: a missing
// transitive dependency must be hoisted to the root list by the caller.
func verifyDependencies(byID map[string]Config) error {
	for id, cfg := range byID {
		for _, dep := range cfg.Dependencies {
			if _, ok := byID[dep]; !ok {
				return fmt.Errorf(
					"epicenter/workspace: workspace %q depends on %q, which is not registered; "+
						"hoist %q to the root workspace list", id, dep, dep)
			}
		}
	}
	return nil
}

// topoSort runs Kahn's algorithm over the dependency graph (§4.5 phase
// 3). Ties are broken lexically by workspace id so the result is
// deterministic regardless of registration order.
func topoSort(byID map[string]Config) ([]string, error) {
	inDegree := make(map[string]int, len(byID))
	dependents := make(map[string][]string, len(byID))
	for id := range byID {
		inDegree[id] = 0
	}
	for id, cfg := range byID {
		inDegree[id] = len(cfg.Dependencies)
		for _, dep := range cfg.Dependencies {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []string
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		children := append([]string(nil), dependents[next]...)
		sort.Strings(children)
		for _, child := range children {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if len(order) != len(byID) {
		unresolved := make([]string, 0)
		for id, deg := range inDegree {
			if deg > 0 {
				unresolved = append(unresolved, id)
			}
		}
		sort.Strings(unresolved)
		return nil, fmt.Errorf("epicenter/workspace: dependency cycle among workspaces %v", unresolved)
	}

	return order, nil
}

// AllActions concatenates iterActions across every assembled client, in
// the client's assembly (topological) order (§6 "stable, depth-first
// order of workspace-id then action path").
func AllActions(clients []*Client) []action.LeafAction {
	var out []action.LeafAction
	for _, c := range clients {
		out = append(out, action.IterActions(c.ID, c.Actions)...)
	}
	return out
}
