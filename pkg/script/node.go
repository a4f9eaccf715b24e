package script

import (
	"fmt"
	"sort"

	"github.com/aretw0/threadbare/pkg/domain"
)

// NodeFunc is the body of a node. It must branch on n.ResumeLabel and end by
// calling a control-transfer or suspension primitive; returning without one
// ends the node.
type NodeFunc func(r *Runner, n *NodeState)

// Node identifies a node procedure. The pointer is the identity; Name is used
// for logs, metrics and snapshots.
type Node struct {
	Name string
	Run  NodeFunc
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.Name
}

// NodeState is the activation record of one node.
type NodeState struct {
	Node        *Node
	ResumeLabel int
	Tags        []domain.NodeTag
	TagParams   []int
}

func (f *NodeState) reset(node *Node) {
	f.Node = node
	f.ResumeLabel = 0
	f.Tags = f.Tags[:0]
	f.TagParams = f.TagParams[:0]
}

// AddTag records a node tag and its parameters on the frame.
func (f *NodeState) AddTag(tag domain.NodeTag, params ...int) {
	if len(f.Tags) == cap(f.Tags) {
		domain.Violate("NodeState.AddTag", domain.ErrBufferOverflow, "node tag capacity %d", cap(f.Tags))
	}
	if len(f.TagParams)+len(params) > cap(f.TagParams) {
		domain.Violate("NodeState.AddTag", domain.ErrBufferOverflow, "node tag param capacity %d", cap(f.TagParams))
	}
	f.Tags = append(f.Tags, tag)
	f.TagParams = append(f.TagParams, params...)
}

// HasTag reports whether the frame carries tag.
func (f *NodeState) HasTag(tag domain.NodeTag) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// InvalidStep panics for a resume label the node does not know. Generated
// procedures call it from the default branch of their label switch.
func (f *NodeState) InvalidStep() {
	domain.Violate("Execute", domain.ErrInvalidStep, "label %d in node %s", f.ResumeLabel, f.Node)
}

// Registry maps node names back to nodes, for snapshot restore.
type Registry map[string]*Node

// NewRegistry indexes nodes by name.
func NewRegistry(nodes ...*Node) Registry {
	reg := make(Registry, len(nodes))
	for _, n := range nodes {
		reg[n.Name] = n
	}
	return reg
}

// Lookup returns the node called name.
func (reg Registry) Lookup(name string) (*Node, error) {
	n, ok := reg[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownNode, name)
	}
	return n, nil
}

// Names returns the registered node names in sorted order.
func (reg Registry) Names() []string {
	names := make([]string, 0, len(reg))
	for name := range reg {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
