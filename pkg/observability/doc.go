/*
Package observability turns runner lifecycle hooks into Prometheus metrics and
structured log events.

Both helpers return domain.LifecycleHooks, so they compose with each other and
with user hooks through script.WithLifecycleHooks.
*/
package observability
