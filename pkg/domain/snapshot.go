package domain

import "slices"

// FrameSnapshot is the plain-data image of one node frame.
type FrameSnapshot struct {
	Node        string    `json:"node"`
	ResumeLabel int       `json:"resume_label"`
	Tags        []NodeTag `json:"tags,omitempty"`
	TagParams   []int     `json:"tag_params,omitempty"`
}

// ParamSnapshot is the plain-data image of one attribute parameter. Kind
// follows the text package's ParamKind numbering.
type ParamSnapshot struct {
	Kind uint8  `json:"kind"`
	Int  int    `json:"int,omitempty"`
	Str  string `json:"str,omitempty"`
	Bool bool   `json:"bool,omitempty"`
}

// MarkupSnapshot is the plain-data image of the markup of one text buffer.
type MarkupSnapshot struct {
	Tags               []LineTag       `json:"tags,omitempty"`
	TagParams          []int           `json:"tag_params,omitempty"`
	Attributes         []Attribute     `json:"attributes,omitempty"`
	AttributePositions []int           `json:"attribute_positions,omitempty"`
	AttributeParams    []ParamSnapshot `json:"attribute_params,omitempty"`
}

// Clone returns a deep copy of the markup.
func (m *MarkupSnapshot) Clone() *MarkupSnapshot {
	if m == nil {
		return nil
	}
	return &MarkupSnapshot{
		Tags:               slices.Clone(m.Tags),
		TagParams:          slices.Clone(m.TagParams),
		Attributes:         slices.Clone(m.Attributes),
		AttributePositions: slices.Clone(m.AttributePositions),
		AttributeParams:    slices.Clone(m.AttributeParams),
	}
}

// OptionSnapshot is the plain-data image of one presented option.
type OptionSnapshot struct {
	Text               string          `json:"text"`
	Markup             *MarkupSnapshot `json:"markup,omitempty"`
	NextStep           int             `json:"next_step"`
	Condition          bool            `json:"condition"`
	ConditionCount     int             `json:"condition_count,omitempty"`
	TrueConditionCount int             `json:"true_condition_count,omitempty"`
	Complexity         int             `json:"complexity,omitempty"`
}

// VariableSnapshot is the plain-data image of one story variable.
type VariableSnapshot struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// Snapshot captures everything needed to resume a runner later: the frame
// stack (bottom first), the suspension state, the pending line or options
// with their markup, the story variables and the flag storage blob.
type Snapshot struct {
	State      State              `json:"state"`
	WaitTimer  int                `json:"wait_timer"`
	Frames     []FrameSnapshot    `json:"frames"`
	Line       string             `json:"line,omitempty"`
	LineMarkup *MarkupSnapshot    `json:"line_markup,omitempty"`
	Options    []OptionSnapshot   `json:"options,omitempty"`
	Variables  []VariableSnapshot `json:"variables,omitempty"`
	Flags      []byte             `json:"flags"`

	// Sealed carries an encrypted snapshot. Only store middleware sets it;
	// a sealed snapshot cannot be restored as is.
	Sealed []byte `json:"sealed,omitempty"`
}

// Top returns the name of the active node, or "" when the stack is empty.
func (s *Snapshot) Top() string {
	if s == nil || len(s.Frames) == 0 {
		return ""
	}
	return s.Frames[len(s.Frames)-1].Node
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Frames = slices.Clone(s.Frames)
	for i := range c.Frames {
		c.Frames[i].Tags = slices.Clone(s.Frames[i].Tags)
		c.Frames[i].TagParams = slices.Clone(s.Frames[i].TagParams)
	}
	c.LineMarkup = s.LineMarkup.Clone()
	c.Options = slices.Clone(s.Options)
	for i := range c.Options {
		c.Options[i].Markup = s.Options[i].Markup.Clone()
	}
	c.Variables = slices.Clone(s.Variables)
	c.Flags = slices.Clone(s.Flags)
	c.Sealed = slices.Clone(s.Sealed)
	return &c
}
