/*
Package dsl builds threadbare stories without a separate compiler.

A Builder collects nodes as lists of steps and compiles each node into a
script.NodeFunc that dispatches on its resume label, exactly like generated
node code: every step owns one label (a choice owns one per option), and each
step ends by calling the runner primitive that hands control on.

	b := dsl.New("tavern")

	b.Add("Start").
		Line("The door creaks open.").
		Wait(0.5).
		Choice(
			dsl.Opt("Order an ale", "Bar"),
			dsl.Opt("Leave", "").If(dsl.Visited("Bar")),
		).
		Line("Goodbye.")

	b.Add("Bar").
		Plural("Bar", plural.Forms{One: "First round!", Other: "Round {n}!"}).
		Jump("Start")

	story, err := b.Build()

Stories can also be written in YAML and loaded with Load or LoadFile.
Visited flags, visit counters and once keys are assigned at build time and the
story's Limits are sized to match.
*/
package dsl
