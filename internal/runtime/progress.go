package runtime

import (
	"math"

	"github.com/aretw0/sopflow/pkg/domain"
)

// Progress is a completion estimate for one object.
type Progress struct {
	Steps      int `json:"steps"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
	// EndReachable is false when no end node can be reached from the start
	// node and Total fell back to the number of nodes in the definition.
	EndReachable bool `json:"endReachable"`
}

// EstimateProgress compares the transitions an object has taken against the
// shortest hop count from the start node to any end node.
func EstimateProgress(def *domain.Definition, obj *domain.Object) Progress {
	if def == nil || obj == nil || len(obj.Path) == 0 {
		return Progress{}
	}

	steps := obj.Steps()
	total, reachable := shortestToEnd(def)
	if !reachable {
		total = len(def.Nodes)
	}

	p := Progress{Steps: steps, Total: total, EndReachable: reachable}
	if total <= 0 {
		return p
	}
	pct := int(math.Round(float64(steps) / float64(total) * 100))
	if pct > 100 {
		pct = 100
	}
	p.Percentage = pct
	return p
}

// shortestToEnd runs a breadth-first search from the start node.
// Nodes are marked visited when enqueued, so cycles terminate.
func shortestToEnd(def *domain.Definition) (int, bool) {
	start, ok := def.StartNode()
	if !ok {
		return 0, false
	}

	adjacency := make(map[string][]string, len(def.Nodes))
	for _, e := range def.Edges {
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
	}
	kinds := make(map[string]domain.NodeKind, len(def.Nodes))
	for _, n := range def.Nodes {
		kinds[n.ID] = n.Kind
	}

	type item struct {
		id    string
		depth int
	}
	visited := map[string]bool{start.ID: true}
	queue := []item{{id: start.ID}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if kinds[cur.id] == domain.NodeKindEnd {
			return cur.depth, true
		}
		for _, next := range adjacency[cur.id] {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, item{id: next, depth: cur.depth + 1})
		}
	}
	return 0, false
}
