// Package middleware wraps an ObjectStore with cross-cutting storage behavior
// such as encryption at rest and masking of sensitive field values.
package middleware

import "github.com/aretw0/sopflow/pkg/ports"

// Middleware allows wrapping an ObjectStore to add behavior.
type Middleware func(ports.ObjectStore) ports.ObjectStore

// Chain applies middlewares so the first one listed is the outermost.
func Chain(store ports.ObjectStore, mws ...Middleware) ports.ObjectStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
