/*
Package threadbare is a runtime for branching dialogue scripts compiled to resumable node procedures.

A story is a set of nodes. Each node is a procedure that the runner re-enters at a resume label,
so a node can hand a line of dialogue or a set of options to the host, suspend on a timer or a pause,
and continue exactly where it stopped once the host answers.

# Concept

The runner owns a fixed-capacity stack of frames, the current line, the option list and the story flags
(visited nodes, visit counters and one-shot keys). The host drives it: Execute advances until the next
suspension, and ChooseOption, WaitTick and Resume answer each kind of suspension. Everything the runner
holds can be captured as a Snapshot and restored later, in another process if needed.

# Key Features

  - Fixed Memory: buffers, stack depth and flag counts are sized up front and never grow.
  - Durable Sessions: snapshots go to memory, files or Redis through one SaveStore port.
  - Hosts Included: a terminal loop (text or JSON lines) and an HTTP adapter with SSE updates.
  - Stories Without a Compiler: the dsl package builds nodes in Go or from YAML.

# Usage

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/threadbare"
		"github.com/aretw0/threadbare/pkg/host"
	)

	func main() {
		eng, err := threadbare.Open("tavern.yaml")
		if err != nil {
			log.Fatal(err)
		}

		handler := host.NewTextHandler(os.Stdin, os.Stdout)
		if _, err := eng.Run(context.Background(), handler, "local"); err != nil {
			log.Fatal(err)
		}
	}
*/
package threadbare
