package dsl

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/plural"
)

type storyDoc struct {
	Name      string         `yaml:"name"`
	Start     string         `yaml:"start"`
	Locale    string         `yaml:"locale"`
	Limits    *domain.Limits `yaml:"limits"`
	Variables map[string]any `yaml:"variables"`
	Nodes     []nodeDoc      `yaml:"nodes"`
}

type nodeDoc struct {
	Name  string   `yaml:"name"`
	When  *condDoc `yaml:"when"`
	Once  bool     `yaml:"once"`
	Steps []any    `yaml:"steps"`
}

// stepDoc is one mapping entry of a node's steps. A bare string is a line.
type stepDoc struct {
	Line    string         `yaml:"line"`
	If      *condDoc       `yaml:"if"`
	Once    bool           `yaml:"once"`
	Plural  *pluralDoc     `yaml:"plural"`
	Wait    *float64       `yaml:"wait"`
	Pause   bool           `yaml:"pause"`
	Options []optionDoc    `yaml:"options"`
	Jump    string         `yaml:"jump"`
	Detour  string         `yaml:"detour"`
	Stop    bool           `yaml:"stop"`
	End     bool           `yaml:"end"`
	Set     map[string]any `yaml:"set"`
	Add     map[string]int `yaml:"add"`
	Group   []string       `yaml:"group"`
}

type condDoc struct {
	Visited       string     `yaml:"visited"`
	NotVisited    string     `yaml:"not_visited"`
	VisitsAtLeast *visitsDoc `yaml:"visits_at_least"`
	Chance        *float64   `yaml:"chance"`
	Var           *varDoc    `yaml:"var"`
	All           []condDoc  `yaml:"all"`
}

// varDoc tests a story variable. Several comparisons on one variable must all hold.
type varDoc struct {
	Name string `yaml:"name"`
	Eq   any    `yaml:"eq"`
	Gte  *int   `yaml:"gte"`
	Lte  *int   `yaml:"lte"`
}

type visitsDoc struct {
	Node  string `yaml:"node"`
	Count int    `yaml:"count"`
}

type pluralDoc struct {
	Node  string       `yaml:"node"`
	Forms plural.Forms `yaml:"forms"`
}

type optionDoc struct {
	Text string   `yaml:"text"`
	To   string   `yaml:"to"`
	If   *condDoc `yaml:"if"`
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	base domain.Limits
}

// WithBaseLimits sets the capacities a story starts from before its own
// limits block is applied.
func WithBaseLimits(l domain.Limits) LoadOption {
	return func(c *loadConfig) {
		c.base = l
	}
}

// LoadFile reads and builds a YAML story.
func LoadFile(path string, opts ...LoadOption) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story: %w", err)
	}
	story, err := Load(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return story, nil
}

// Load builds a story from its YAML form:
//
//	name: tavern
//	start: Start
//	nodes:
//	  - name: Start
//	    steps:
//	      - The door creaks open.
//	      - wait: 0.5
//	      - options:
//	          - {text: Order an ale, to: Bar}
//	          - {text: Leave, if: {visited: Bar}}
//	      - line: Welcome back.
//	        if: {visited: Bar}
//
// A story may also set a locale for plural rules, declare variables with
// their initial values, change them with set and add steps, test them with
// var conditions, and pick among member nodes with a group step. Group
// members are gated by their node's when condition and once flag.
func Load(data []byte, opts ...LoadOption) (*Story, error) {
	cfg := loadConfig{base: domain.DefaultLimits()}
	for _, opt := range opts {
		opt(&cfg)
	}

	var doc storyDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse story: %w", err)
	}

	b := New(doc.Name)
	if doc.Start != "" {
		b.Start(doc.Start)
	}
	limits := cfg.base
	if doc.Limits != nil {
		overlayLimits(&limits, *doc.Limits)
	}
	b.Limits(limits)
	if doc.Locale != "" {
		tag, err := language.Parse(doc.Locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", doc.Locale, err)
		}
		b.Locale(tag)
	}
	for _, name := range sortedKeys(doc.Variables) {
		b.Declare(name, doc.Variables[name])
	}
	for _, nd := range doc.Nodes {
		if nd.Name == "" {
			return nil, fmt.Errorf("node without a name")
		}
		if _, dup := b.nodes[nd.Name]; dup {
			return nil, fmt.Errorf("node %s is defined twice", nd.Name)
		}
		nb := b.Add(nd.Name)
		when, err := nd.When.cond()
		if err != nil {
			return nil, fmt.Errorf("node %s when: %w", nd.Name, err)
		}
		nb.When(when)
		if nd.Once {
			nb.Once()
		}
		for i, raw := range nd.Steps {
			if err := addStep(nb, raw); err != nil {
				return nil, fmt.Errorf("node %s step %d: %w", nd.Name, i+1, err)
			}
		}
	}
	return b.Build()
}

// overlayLimits copies the non-zero capacities of src over dst.
func overlayLimits(dst *domain.Limits, src domain.Limits) {
	set := func(d *int, v int) {
		if v != 0 {
			*d = v
		}
	}
	set(&dst.MaxStackDepth, src.MaxStackDepth)
	set(&dst.LineBufferSize, src.LineBufferSize)
	set(&dst.OptionBufferSize, src.OptionBufferSize)
	set(&dst.MaxOptions, src.MaxOptions)
	set(&dst.MaxTags, src.MaxTags)
	set(&dst.MaxTagParams, src.MaxTagParams)
	set(&dst.MaxAttributes, src.MaxAttributes)
	set(&dst.MaxAttributeParams, src.MaxAttributeParams)
	set(&dst.MaxNodeTags, src.MaxNodeTags)
	set(&dst.MaxNodeTagParams, src.MaxNodeTagParams)
}

func addStep(nb *NodeBuilder, raw any) error {
	if text, ok := raw.(string); ok {
		nb.Line(text)
		return nil
	}

	var sd stepDoc
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "yaml",
		ErrorUnused: true,
		Result:      &sd,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return err
	}

	actions := 0
	count := func(b bool) {
		if b {
			actions++
		}
	}
	count(sd.Line != "")
	count(sd.Plural != nil)
	count(sd.Wait != nil)
	count(sd.Pause)
	count(len(sd.Options) > 0)
	count(sd.Jump != "")
	count(sd.Detour != "")
	count(sd.Stop)
	count(sd.End)
	count(len(sd.Set) > 0)
	count(len(sd.Add) > 0)
	count(len(sd.Group) > 0)
	if actions != 1 {
		return fmt.Errorf("step must have exactly one action, found %d", actions)
	}
	if sd.If != nil && sd.Line == "" {
		return fmt.Errorf("if is only allowed on lines and options")
	}
	if sd.Once && sd.Line == "" {
		return fmt.Errorf("once is only allowed on lines")
	}

	switch {
	case sd.Line != "" && sd.Once:
		if sd.If != nil {
			return fmt.Errorf("a line cannot be both once and conditional")
		}
		nb.LineOnce(sd.Line)
	case sd.Line != "":
		c, err := sd.If.cond()
		if err != nil {
			return err
		}
		nb.LineIf(c, sd.Line)
	case sd.Plural != nil:
		nb.Plural(sd.Plural.Node, sd.Plural.Forms)
	case sd.Wait != nil:
		nb.Wait(*sd.Wait)
	case sd.Pause:
		nb.Pause()
	case len(sd.Options) > 0:
		opts := make([]OptionSpec, len(sd.Options))
		for i, o := range sd.Options {
			c, err := o.If.cond()
			if err != nil {
				return fmt.Errorf("option %d: %w", i+1, err)
			}
			opts[i] = Opt(o.Text, o.To).If(c)
		}
		nb.Choice(opts...)
	case sd.Jump != "":
		nb.Jump(sd.Jump)
	case sd.Detour != "":
		nb.Detour(sd.Detour)
	case sd.Stop:
		nb.Stop()
	case sd.End:
		nb.End()
	case len(sd.Set) > 0:
		for _, name := range sortedKeys(sd.Set) {
			nb.Set(name, sd.Set[name])
		}
	case len(sd.Add) > 0:
		for _, name := range sortedKeys(sd.Add) {
			nb.Add(name, sd.Add[name])
		}
	case len(sd.Group) > 0:
		nb.Group(sd.Group...)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *condDoc) cond() (Cond, error) {
	if c == nil {
		return Cond{}, nil
	}
	var out []Cond
	if c.Visited != "" {
		out = append(out, Visited(c.Visited))
	}
	if c.NotVisited != "" {
		out = append(out, NotVisited(c.NotVisited))
	}
	if c.VisitsAtLeast != nil {
		out = append(out, VisitsAtLeast(c.VisitsAtLeast.Node, c.VisitsAtLeast.Count))
	}
	if c.Chance != nil {
		out = append(out, Chance(*c.Chance))
	}
	if c.Var != nil {
		v, err := c.Var.cond()
		if err != nil {
			return Cond{}, err
		}
		out = append(out, v)
	}
	if c.All != nil {
		parts := make([]Cond, len(c.All))
		for i := range c.All {
			p, err := c.All[i].cond()
			if err != nil {
				return Cond{}, fmt.Errorf("all %d: %w", i+1, err)
			}
			parts[i] = p
		}
		out = append(out, All(parts...))
	}
	if len(out) != 1 {
		return Cond{}, fmt.Errorf("condition must have exactly one test, found %d", len(out))
	}
	return out[0], nil
}

func (v *varDoc) cond() (Cond, error) {
	if v.Name == "" {
		return Cond{}, fmt.Errorf("var condition without a name")
	}
	var parts []Cond
	if v.Eq != nil {
		parts = append(parts, VarEquals(v.Name, v.Eq))
	}
	if v.Gte != nil {
		parts = append(parts, VarAtLeast(v.Name, *v.Gte))
	}
	if v.Lte != nil {
		parts = append(parts, VarAtMost(v.Name, *v.Lte))
	}
	switch len(parts) {
	case 0:
		return Cond{}, fmt.Errorf("var condition on %q compares nothing", v.Name)
	case 1:
		return parts[0], nil
	}
	return All(parts...), nil
}
