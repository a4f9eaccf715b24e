package domain

import "fmt"

// DefaultTickRate is the number of scheduler ticks per second of script time.
const DefaultTickRate = 59.73

// Limits are the fixed capacities a story is compiled against.
// Every bounded container in the runner is allocated once from these values.
type Limits struct {
	MaxStackDepth int `yaml:"max_stack_depth" json:"max_stack_depth"`

	LineBufferSize   int `yaml:"line_buffer_size" json:"line_buffer_size"`
	OptionBufferSize int `yaml:"option_buffer_size" json:"option_buffer_size"`
	MaxOptions       int `yaml:"max_options" json:"max_options"`

	MaxTags            int `yaml:"max_tags" json:"max_tags"`
	MaxTagParams       int `yaml:"max_tag_params" json:"max_tag_params"`
	MaxAttributes      int `yaml:"max_attributes" json:"max_attributes"`
	MaxAttributeParams int `yaml:"max_attribute_params" json:"max_attribute_params"`

	MaxNodeTags      int `yaml:"max_node_tags" json:"max_node_tags"`
	MaxNodeTagParams int `yaml:"max_node_tag_params" json:"max_node_tag_params"`

	VisitedNodeCount    int `yaml:"visited_node_count" json:"visited_node_count"`
	OnceCount           int `yaml:"once_count" json:"once_count"`
	VisitCountNodeCount int `yaml:"visit_count_node_count" json:"visit_count_node_count"`
}

// DefaultLimits returns capacities large enough for small hand-written stories.
func DefaultLimits() Limits {
	return Limits{
		MaxStackDepth:       4,
		LineBufferSize:      300,
		OptionBufferSize:    100,
		MaxOptions:          8,
		MaxTags:             4,
		MaxTagParams:        4,
		MaxAttributes:       8,
		MaxAttributeParams:  8,
		MaxNodeTags:         2,
		MaxNodeTagParams:    2,
		VisitedNodeCount:    32,
		OnceCount:           32,
		VisitCountNodeCount: 32,
	}
}

// MarkupLimits returns the capacities of a single markup block.
func (l Limits) MarkupLimits() MarkupLimits {
	return MarkupLimits{
		Tags:            l.MaxTags,
		TagParams:       l.MaxTagParams,
		Attributes:      l.MaxAttributes,
		AttributeParams: l.MaxAttributeParams,
	}
}

// Validate rejects negative capacities and an unusable stack.
func (l Limits) Validate() error {
	if l.MaxStackDepth < 1 {
		return fmt.Errorf("max_stack_depth must be at least 1, got %d", l.MaxStackDepth)
	}
	fields := []struct {
		name string
		v    int
	}{
		{"line_buffer_size", l.LineBufferSize},
		{"option_buffer_size", l.OptionBufferSize},
		{"max_options", l.MaxOptions},
		{"max_tags", l.MaxTags},
		{"max_tag_params", l.MaxTagParams},
		{"max_attributes", l.MaxAttributes},
		{"max_attribute_params", l.MaxAttributeParams},
		{"max_node_tags", l.MaxNodeTags},
		{"max_node_tag_params", l.MaxNodeTagParams},
		{"visited_node_count", l.VisitedNodeCount},
		{"once_count", l.OnceCount},
		{"visit_count_node_count", l.VisitCountNodeCount},
	}
	for _, f := range fields {
		if f.v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", f.name, f.v)
		}
	}
	return nil
}

// MarkupLimits are the capacities of the tag and attribute pools of one text buffer.
type MarkupLimits struct {
	Tags            int
	TagParams       int
	Attributes      int
	AttributeParams int
}
