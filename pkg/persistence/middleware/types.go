// Package middleware wraps a ports.SaveStore with extra behavior applied to
// every snapshot on its way in or out.
package middleware

import "github.com/aretw0/threadbare/pkg/ports"

// Middleware wraps a SaveStore.
type Middleware func(ports.SaveStore) ports.SaveStore

// Chain applies middlewares so the first one listed sees calls first.
func Chain(store ports.SaveStore, mws ...Middleware) ports.SaveStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
