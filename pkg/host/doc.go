/*
Package host drives a script runner from a terminal or a pipe.

A Loop calls Execute, branches on the returned state, and talks to the player
through an IOHandler: TextHandler for humans, JSONHandler for programs speaking
newline-delimited JSON.

	r, _ := script.New()
	r.Jump(story.Start)
	loop := host.New(host.NewTextHandler(os.Stdin, os.Stdout))
	if _, err := loop.Run(ctx, r); err != nil {
		log.Fatal(err)
	}

Timer suspensions are paced at the runner's tick rate in realtime mode, or
drained immediately otherwise (useful in tests and headless runs).
*/
package host
