package text

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/aretw0/threadbare/pkg/domain"
)

// ParamKind discriminates AttributeParam values.
type ParamKind uint8

const (
	ParamInt ParamKind = iota
	ParamString
	ParamBool
)

func (k ParamKind) String() string {
	switch k {
	case ParamInt:
		return "int"
	case ParamString:
		return "string"
	case ParamBool:
		return "bool"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// AttributeParam is one entry of the shared attribute parameter pool.
type AttributeParam struct {
	Kind ParamKind
	Int  int
	Str  string
	Bool bool
}

func IntParam(v int) AttributeParam       { return AttributeParam{Kind: ParamInt, Int: v} }
func StringParam(v string) AttributeParam { return AttributeParam{Kind: ParamString, Str: v} }
func BoolParam(v bool) AttributeParam     { return AttributeParam{Kind: ParamBool, Bool: v} }

// AsInt returns the integer value. It panics if the parameter is not an int.
func (p AttributeParam) AsInt() int {
	p.expect(ParamInt)
	return p.Int
}

// AsString returns the text value. It panics if the parameter is not a string.
func (p AttributeParam) AsString() string {
	p.expect(ParamString)
	return p.Str
}

// AsBool returns the boolean value. It panics if the parameter is not a bool.
func (p AttributeParam) AsBool() bool {
	p.expect(ParamBool)
	return p.Bool
}

func (p AttributeParam) expect(k ParamKind) {
	if p.Kind != k {
		domain.Violate("AttributeParam", domain.ErrParamKind, "have %s, want %s", p.Kind, k)
	}
}

func (p AttributeParam) String() string {
	switch p.Kind {
	case ParamInt:
		return strconv.Itoa(p.Int)
	case ParamString:
		return p.Str
	case ParamBool:
		return strconv.FormatBool(p.Bool)
	}
	return "?"
}

// Markup describes formatting spans within a text buffer as parallel bounded
// sequences. The parameter pools are positional: how many entries a tag or an
// attribute owns depends on its kind and is only known to the compiler (see
// ParamSchema). Append through AddTag and AddAttribute so the capacity and
// the Attributes/AttributePositions pairing hold.
type Markup struct {
	Tags               []domain.LineTag
	TagParams          []int
	Attributes         []domain.Attribute
	AttributePositions []int
	AttributeParams    []AttributeParam
}

// NewMarkup preallocates every pool.
func NewMarkup(l domain.MarkupLimits) Markup {
	return Markup{
		Tags:               make([]domain.LineTag, 0, l.Tags),
		TagParams:          make([]int, 0, l.TagParams),
		Attributes:         make([]domain.Attribute, 0, l.Attributes),
		AttributePositions: make([]int, 0, l.Attributes),
		AttributeParams:    make([]AttributeParam, 0, l.AttributeParams),
	}
}

// Clear empties all pools, keeping their storage.
func (m *Markup) Clear() {
	m.Tags = m.Tags[:0]
	m.TagParams = m.TagParams[:0]
	m.Attributes = m.Attributes[:0]
	m.AttributePositions = m.AttributePositions[:0]
	m.AttributeParams = m.AttributeParams[:0]
}

// Empty reports whether the markup carries no tag and no attribute.
func (m *Markup) Empty() bool {
	return len(m.Tags) == 0 && len(m.Attributes) == 0
}

// AddTag appends a tag and its parameters.
func (m *Markup) AddTag(tag domain.LineTag, params ...int) {
	if len(m.Tags) == cap(m.Tags) {
		domain.Violate("AddTag", domain.ErrBufferOverflow, "tag capacity %d", cap(m.Tags))
	}
	if len(m.TagParams)+len(params) > cap(m.TagParams) {
		domain.Violate("AddTag", domain.ErrBufferOverflow, "tag param capacity %d", cap(m.TagParams))
	}
	m.Tags = append(m.Tags, tag)
	m.TagParams = append(m.TagParams, params...)
}

// AddAttribute appends an attribute starting at position (a rune offset into
// the owning text) together with its parameters.
func (m *Markup) AddAttribute(attr domain.Attribute, position int, params ...AttributeParam) {
	if len(m.Attributes) == cap(m.Attributes) {
		domain.Violate("AddAttribute", domain.ErrBufferOverflow, "attribute capacity %d", cap(m.Attributes))
	}
	if len(m.AttributeParams)+len(params) > cap(m.AttributeParams) {
		domain.Violate("AddAttribute", domain.ErrBufferOverflow, "attribute param capacity %d", cap(m.AttributeParams))
	}
	m.Attributes = append(m.Attributes, attr)
	m.AttributePositions = append(m.AttributePositions, position)
	m.AttributeParams = append(m.AttributeParams, params...)
}

// Snapshot returns a plain-data copy of the markup, or nil when it is empty.
func (m *Markup) Snapshot() *domain.MarkupSnapshot {
	if m.Empty() {
		return nil
	}
	s := &domain.MarkupSnapshot{
		Tags:               slices.Clone(m.Tags),
		TagParams:          slices.Clone(m.TagParams),
		Attributes:         slices.Clone(m.Attributes),
		AttributePositions: slices.Clone(m.AttributePositions),
	}
	for _, p := range m.AttributeParams {
		s.AttributeParams = append(s.AttributeParams, domain.ParamSnapshot{
			Kind: uint8(p.Kind), Int: p.Int, Str: p.Str, Bool: p.Bool,
		})
	}
	return s
}

// CheckFits reports an error when s does not fit the pools of m.
func (m *Markup) CheckFits(s *domain.MarkupSnapshot) error {
	if s == nil {
		return nil
	}
	switch {
	case len(s.Tags) > cap(m.Tags):
		return fmt.Errorf("markup has %d tags, pool holds %d", len(s.Tags), cap(m.Tags))
	case len(s.TagParams) > cap(m.TagParams):
		return fmt.Errorf("markup has %d tag params, pool holds %d", len(s.TagParams), cap(m.TagParams))
	case len(s.Attributes) > cap(m.Attributes):
		return fmt.Errorf("markup has %d attributes, pool holds %d", len(s.Attributes), cap(m.Attributes))
	case len(s.AttributePositions) != len(s.Attributes):
		return fmt.Errorf("markup has %d attribute positions for %d attributes", len(s.AttributePositions), len(s.Attributes))
	case len(s.AttributeParams) > cap(m.AttributeParams):
		return fmt.Errorf("markup has %d attribute params, pool holds %d", len(s.AttributeParams), cap(m.AttributeParams))
	}
	for _, p := range s.AttributeParams {
		if ParamKind(p.Kind) > ParamBool {
			return fmt.Errorf("markup param has unknown kind %d", p.Kind)
		}
	}
	return nil
}

// Load replaces the markup with s, which must pass CheckFits.
func (m *Markup) Load(s *domain.MarkupSnapshot) {
	m.Clear()
	if s == nil {
		return
	}
	m.Tags = append(m.Tags, s.Tags...)
	m.TagParams = append(m.TagParams, s.TagParams...)
	m.Attributes = append(m.Attributes, s.Attributes...)
	m.AttributePositions = append(m.AttributePositions, s.AttributePositions...)
	for _, p := range s.AttributeParams {
		m.AttributeParams = append(m.AttributeParams, AttributeParam{
			Kind: ParamKind(p.Kind), Int: p.Int, Str: p.Str, Bool: p.Bool,
		})
	}
}

// ParamSchema tells how many pool entries each tag or attribute kind owns.
// It is emitted by the compiler alongside the enumerations; kinds that are
// absent own no parameters.
type ParamSchema struct {
	Tags       map[domain.LineTag]int
	Attributes map[domain.Attribute]int
}

// TagSpan is a tag with the parameters it owns.
type TagSpan struct {
	Tag    domain.LineTag
	Params []int
}

// AttributeSpan is an attribute with its position and the parameters it owns.
type AttributeSpan struct {
	Attribute domain.Attribute
	Position  int
	Params    []AttributeParam
}

// TagSpans slices the tag parameter pool by schema.
func (m *Markup) TagSpans(schema ParamSchema) ([]TagSpan, error) {
	spans := make([]TagSpan, 0, len(m.Tags))
	off := 0
	for _, tag := range m.Tags {
		n := schema.Tags[tag]
		if off+n > len(m.TagParams) {
			return nil, fmt.Errorf("tag %d wants %d params, pool has %d left", tag, n, len(m.TagParams)-off)
		}
		spans = append(spans, TagSpan{Tag: tag, Params: m.TagParams[off : off+n]})
		off += n
	}
	if off != len(m.TagParams) {
		return nil, fmt.Errorf("%d tag params not owned by any tag", len(m.TagParams)-off)
	}
	return spans, nil
}

// AttributeSpans slices the attribute parameter pool by schema.
func (m *Markup) AttributeSpans(schema ParamSchema) ([]AttributeSpan, error) {
	spans := make([]AttributeSpan, 0, len(m.Attributes))
	off := 0
	for i, attr := range m.Attributes {
		n := schema.Attributes[attr]
		if off+n > len(m.AttributeParams) {
			return nil, fmt.Errorf("attribute %d wants %d params, pool has %d left", attr, n, len(m.AttributeParams)-off)
		}
		spans = append(spans, AttributeSpan{
			Attribute: attr,
			Position:  m.AttributePositions[i],
			Params:    m.AttributeParams[off : off+n],
		})
		off += n
	}
	if off != len(m.AttributeParams) {
		return nil, fmt.Errorf("%d attribute params not owned by any attribute", len(m.AttributeParams)-off)
	}
	return spans, nil
}
