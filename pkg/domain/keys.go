package domain

// The key types below are closed enumerations generated per story by the
// script compiler. The runtime only uses them as array indices.

// VisitedNodeKey identifies a node whose "visited" bit is tracked.
type VisitedNodeKey int

// OnceKey identifies a one-shot flag.
type OnceKey int

// VisitCountKey identifies a node whose visits are counted.
type VisitCountKey int

// NodeTag is a tag annotating a node header.
type NodeTag int

// LineTag is a tag annotating a line or an option.
type LineTag int

// Attribute is a markup attribute kind. Generated code emits an opening and a
// closing kind for every attribute name.
type Attribute int
