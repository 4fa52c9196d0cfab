// Package module defines the feature contract used by storefront composition.
package module

import "net/http"

// Mount describes a module route mount.
type Mount struct {
	Prefix  string
	Handler http.Handler
}

// Module declares the minimum contract required by storefront composition.
type Module interface {
	ID() string
	Mount() (Mount, error)
}

// HealthReporter is implemented by modules whose backing store can be
// checked by the health endpoint.
type HealthReporter interface {
	Healthy(r *http.Request) error
}
