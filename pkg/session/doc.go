/*
Package session manages many live script runners keyed by session ID.

A Manager serializes every operation on a session (a runner is single-threaded),
optionally across replicas through a ports.DistributedLocker, and saves a snapshot
to a ports.SaveStore after each operation so a session survives restarts.
*/
package session
