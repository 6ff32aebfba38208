package models

// LessonNode is a single unit of the lesson graph: an introductory lesson or a
// graded step. Nodes are loaded once from static content and never mutated.
type LessonNode struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	// Next is the ID of the successor node, or empty for a terminal node.
	Next string `json:"next,omitempty"`
}

// Terminal reports whether the node has no successor.
func (n LessonNode) Terminal() bool {
	return n.Next == ""
}
