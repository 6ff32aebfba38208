package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/gclearnbot/internal/errs"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/pkg/models"
)

// Graph is the loaded lesson graph: a forest of simple chains linked by Next.
// It is built once at startup and immutable thereafter.
type Graph struct {
	nodes map[string]models.LessonNode
	// position is the 0-based chain-order index of each node, used by the
	// progress service for monotonicity checks.
	position map[string]int
	head     string
}

// Load reads and validates lessons.json from dir. A missing or malformed file
// returns an empty graph together with the error; callers decide whether
// that is fatal (it is at startup) or should be treated as "no content".
func Load(dir string, log *logger.Logger) (*Graph, error) {
	empty := &Graph{nodes: map[string]models.LessonNode{}, position: map[string]int{}}

	path := filepath.Join(dir, "lessons.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Error("lesson content not readable", "path", path, "error", err)
		return empty, errs.ContentLoadf("read %s: %v", path, err)
	}
	if err := validateSchema(raw); err != nil {
		log.Error("lesson content failed schema validation", "path", path, "error", err)
		return empty, errs.ContentLoadf("%s: %v", path, err)
	}

	var rawNodes map[string]struct {
		Text string `json:"text"`
		Next string `json:"next"`
	}
	if err := json.Unmarshal(raw, &rawNodes); err != nil {
		log.Error("lesson content not parseable", "path", path, "error", err)
		return empty, errs.ContentLoadf("parse %s: %v", path, err)
	}

	nodes := make(map[string]models.LessonNode, len(rawNodes))
	for id, n := range rawNodes {
		nodes[id] = models.LessonNode{ID: id, Text: n.Text, Next: n.Next}
	}

	g := &Graph{nodes: nodes, position: make(map[string]int, len(nodes))}
	if err := g.validate(); err != nil {
		log.Error("lesson graph invalid", "error", err)
		return empty, err
	}

	log.Info("lesson content loaded", "nodes", len(g.nodes), "steps", g.TotalSteps(), "head", g.head)
	return g, nil
}

// validate enforces the chain invariants: every next resolves to an existing
// node, no node has more than one predecessor, and there are no cycles. It
// also assigns chain positions and picks the head node.
func (g *Graph) validate() error {
	predecessors := make(map[string]string, len(g.nodes))
	for id, n := range g.nodes {
		if n.Next == "" {
			continue
		}
		if _, ok := g.nodes[n.Next]; !ok {
			return errs.ContentLoadf("node %q: dangling next reference %q", id, n.Next)
		}
		if prev, dup := predecessors[n.Next]; dup {
			return errs.ContentLoadf("node %q has two predecessors: %q and %q", n.Next, prev, id)
		}
		predecessors[n.Next] = id
	}

	// Chain heads are the nodes nothing points to.
	var heads []string
	for id := range g.nodes {
		if _, ok := predecessors[id]; !ok {
			heads = append(heads, id)
		}
	}
	if len(heads) == 0 && len(g.nodes) > 0 {
		return errs.ContentLoadf("lesson graph contains a cycle")
	}
	sort.Strings(heads)

	// Walk each chain, assigning positions and detecting cycles.
	pos := 0
	for _, head := range heads {
		for id := head; id != ""; id = g.nodes[id].Next {
			if _, seen := g.position[id]; seen {
				return errs.ContentLoadf("cycle detected at node %q", id)
			}
			g.position[id] = pos
			pos++
		}
	}
	if pos != len(g.nodes) {
		return errs.ContentLoadf("lesson graph contains an unreachable cycle")
	}

	if len(heads) > 0 {
		g.head = heads[0]
		// Prefer the conventional entry node when present.
		for _, h := range heads {
			if h == "lesson_1" {
				g.head = h
				break
			}
		}
	}
	return nil
}

// Get returns the node for the given ID.
func (g *Graph) Get(id string) (models.LessonNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Exists reports whether the graph contains the given node ID.
func (g *Graph) Exists(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Successor returns the ID of the node following id, or "" for a terminal
// node or unknown ID.
func (g *Graph) Successor(id string) string {
	return g.nodes[id].Next
}

// IsStep distinguishes a graded step node from an introductory lesson node.
// Only steps count toward completion metrics.
func IsStep(id string) bool {
	return strings.Contains(id, "_step_")
}

// Head returns the ID of the first node of the course, or "" for an empty
// graph.
func (g *Graph) Head() string {
	return g.head
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// TotalSteps counts the graded step nodes across all lessons.
func (g *Graph) TotalSteps() int {
	total := 0
	for id := range g.nodes {
		if IsStep(id) {
			total++
		}
	}
	return total
}

// Position returns the chain-order index of a node; unknown IDs sort first.
func (g *Graph) Position(id string) int {
	p, ok := g.position[id]
	if !ok {
		return -1
	}
	return p
}

// Structure groups step IDs under their parent lesson, sorted within each
// lesson in chain order.
func (g *Graph) Structure() map[string][]string {
	structure := make(map[string][]string)
	for id := range g.nodes {
		if !IsStep(id) {
			continue
		}
		parent := strings.SplitN(id, "_step_", 2)[0]
		structure[parent] = append(structure[parent], id)
	}
	for parent := range structure {
		steps := structure[parent]
		sort.Slice(steps, func(i, j int) bool { return g.position[steps[i]] < g.position[steps[j]] })
	}
	return structure
}

// LessonNumber extracts the human lesson number from a node ID, e.g.
// "lesson_2_step_3" -> ("2", "3"). Step is empty for intro nodes.
func LessonNumber(id string) (lesson, step string) {
	parts := strings.Split(id, "_")
	if len(parts) > 1 {
		lesson = parts[1]
	}
	if len(parts) > 3 && parts[2] == "step" {
		step = parts[3]
	}
	return lesson, step
}

// String renders a short description for logging.
func (g *Graph) String() string {
	return fmt.Sprintf("Graph(%d nodes, %d steps)", len(g.nodes), g.TotalSteps())
}
