/*
Package ports defines the driven ports (interfaces) of the threadbare runtime.

These interfaces decouple the runner and its hosts from external implementations,
so the same story can be saved to memory, disk or Redis.

# Key Interfaces

  - SaveStore: persists runner snapshots by session ID.
  - DistributedLocker: serializes access to a session across replicas.
*/
package ports
