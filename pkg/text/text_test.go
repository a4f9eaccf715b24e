package text_test

import (
	"fmt"
	"testing"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMarkup = domain.MarkupLimits{Tags: 2, TagParams: 3, Attributes: 2, AttributeParams: 2}

func requireViolation(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a contract violation")
		cv, ok := r.(*domain.ContractViolation)
		require.True(t, ok, "panic value %T", r)
		assert.ErrorIs(t, cv, target)
	}()
	fn()
}

func TestBuffer_Accumulates(t *testing.T) {
	b := text.NewBuffer(64, testMarkup)
	b.Text("gold: ").Int(42).Text(", ratio ").Float(0.5).Text(" ").Bool(true)
	fmt.Fprint(b, "!")

	assert.Equal(t, "gold: 42, ratio 0.5 true!", b.String())
	assert.Equal(t, 64, b.Cap())
	assert.True(t, b.Condition)
}

func TestBuffer_OverflowPanics(t *testing.T) {
	b := text.NewBuffer(4, testMarkup)
	b.Text("abcd")
	requireViolation(t, domain.ErrBufferOverflow, func() { b.Text("e") })
	assert.Equal(t, "abcd", b.String(), "failed write must not corrupt the text")
}

func TestBuffer_StartNewLineResets(t *testing.T) {
	b := text.NewBuffer(16, testMarkup)
	b.Text("hi").Tag(1, 7)
	b.Mark(2, text.IntParam(3))
	b.Condition = false

	b.StartNewLine()

	assert.Zero(t, b.Len())
	assert.True(t, b.Condition)
	assert.True(t, b.Markup.Empty())
	assert.Empty(t, b.Markup.TagParams)
	assert.Empty(t, b.Markup.AttributeParams)
}

func TestBuffer_MarkUsesRunePositions(t *testing.T) {
	b := text.NewBuffer(32, testMarkup)
	b.Text("héllo ")
	b.Mark(0)
	b.Text("world")
	b.Mark(1)

	assert.Equal(t, []int{6, 11}, b.Markup.AttributePositions)
	assert.Len(t, b.Markup.Attributes, len(b.Markup.AttributePositions))
}

func TestMarkup_CapacityPanics(t *testing.T) {
	m := text.NewMarkup(testMarkup)
	m.AddTag(0, 1, 2)
	requireViolation(t, domain.ErrBufferOverflow, func() { m.AddTag(1, 3, 4) })
	m.AddTag(1, 3)
	requireViolation(t, domain.ErrBufferOverflow, func() { m.AddTag(2) })

	m.AddAttribute(0, 0, text.BoolParam(true), text.StringParam("x"))
	requireViolation(t, domain.ErrBufferOverflow, func() { m.AddAttribute(1, 0, text.IntParam(1)) })
}

func TestMarkup_Spans(t *testing.T) {
	m := text.NewMarkup(domain.MarkupLimits{Tags: 4, TagParams: 4, Attributes: 4, AttributeParams: 4})
	m.AddTag(0, 10, 11)
	m.AddTag(1)
	m.AddAttribute(5, 0, text.StringParam("Sally"))
	m.AddAttribute(6, 4)

	schema := text.ParamSchema{
		Tags:       map[domain.LineTag]int{0: 2},
		Attributes: map[domain.Attribute]int{5: 1},
	}

	tags, err := m.TagSpans(schema)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, []int{10, 11}, tags[0].Params)
	assert.Empty(t, tags[1].Params)

	attrs, err := m.AttributeSpans(schema)
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, "Sally", attrs[0].Params[0].AsString())
	assert.Equal(t, 4, attrs[1].Position)

	_, err = m.TagSpans(text.ParamSchema{})
	assert.ErrorContains(t, err, "not owned")
}

func TestAttributeParam_KindMismatchPanics(t *testing.T) {
	p := text.IntParam(3)
	assert.Equal(t, 3, p.AsInt())
	assert.Equal(t, "3", p.String())
	requireViolation(t, domain.ErrParamKind, func() { p.AsBool() })
}

func TestOptionList(t *testing.T) {
	l := text.NewOptionList(2, 16, testMarkup)

	o := l.Add(7)
	o.Text("Go left")
	o.ConditionCount = 2
	o.TrueConditionCount = 1
	o.Condition = false
	l.Add(9).Text("Go right")

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 7, l.At(0).NextStep)
	assert.Equal(t, []int{1}, l.Enabled())
	requireViolation(t, domain.ErrBufferOverflow, func() { l.Add(11) })
	requireViolation(t, domain.ErrOptionOutOfRange, func() { l.At(2) })

	// Slots are reset on reuse.
	l.Clear()
	o = l.Add(3)
	assert.Empty(t, o.String())
	assert.True(t, o.Enabled())
	assert.Zero(t, o.ConditionCount)
}
