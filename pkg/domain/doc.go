/*
Package domain contains the core vocabulary of the threadbare dialogue runtime.

It defines the runner states observed by a host loop, the closed key enumerations
used by the flag storage and markup lists, the fixed capacities a story is compiled
against, and the contract errors raised when generated node code or a host misuses
the engine. The package is kept free of I/O and of the engine itself so that
adapters (stores, HTTP, metrics) can depend on it without importing the runner.

# Key Entities

  - State: what the host must do next (Line, Options, Timer, Paused, Off).
  - Limits: per-story capacities for the frame stack, buffers and flag stores.
  - Snapshot: a plain-data image of a runner, suitable for save games.
  - Value: a typed story variable value (int, bool or string).
  - ContractViolation: the fail-fast panic value for programmer errors.
*/
package domain
