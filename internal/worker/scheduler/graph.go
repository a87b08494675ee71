package scheduler

import (
	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
)

// graph is the scheduler's in-memory adjacency view of a Workflow (spec.md
// §4.6 Phase 2), grounded on the teacher's executor/dag.go BuildDAG/
// TopologicalSort — but kept as plain adjacency/in-degree bookkeeping rather
// than precomputing a topo order, since the BFS traversal (Phase 4) needs
// live in-degree gating, not a flat sorted slice.
type graph struct {
	nodeMap  map[string]*models.Node
	adj      map[string][]string // source -> target ids, in edge-enumeration order
	parents  map[string][]string // target -> source ids
	inDegree map[string]int
	order    []string // node ids in workflow.Nodes document order
}

// buildGraph treats unknown edge targets as no-ops and ignores edges with an
// unknown source, per spec.md §9's "Cyclic edge refs" guidance.
func buildGraph(wf *models.Workflow) *graph {
	g := &graph{
		nodeMap:  make(map[string]*models.Node, len(wf.Nodes)),
		adj:      make(map[string][]string, len(wf.Nodes)),
		parents:  make(map[string][]string, len(wf.Nodes)),
		inDegree: make(map[string]int, len(wf.Nodes)),
	}

	for i := range wf.Nodes {
		n := &wf.Nodes[i]
		g.nodeMap[n.ID] = n
		g.order = append(g.order, n.ID)
		g.adj[n.ID] = nil
		g.inDegree[n.ID] = 0
	}

	for _, e := range wf.Edges {
		if _, ok := g.nodeMap[e.Source]; !ok {
			continue
		}
		if _, ok := g.nodeMap[e.Target]; !ok {
			continue
		}
		g.adj[e.Source] = append(g.adj[e.Source], e.Target)
		g.parents[e.Target] = append(g.parents[e.Target], e.Source)
		g.inDegree[e.Target]++
	}

	return g
}

// startNodes returns every node with in-degree zero, in workflow document
// order (spec.md §4.6 Phase 3) — this is also what gives the BFS its
// deterministic tie-break, since enqueue order follows this order.
func (g *graph) startNodes() []string {
	var starts []string
	for _, id := range g.order {
		if g.inDegree[id] == 0 {
			starts = append(starts, id)
		}
	}
	return starts
}

// descendants returns every node reachable from id via adj, used to cascade
// `skipped` status on node failure (spec.md §4.6 Phase 4 step 3).
func (g *graph) descendants(id string) []string {
	var result []string
	seen := make(map[string]bool)
	queue := append([]string{}, g.adj[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		result = append(result, cur)
		queue = append(queue, g.adj[cur]...)
	}
	return result
}
