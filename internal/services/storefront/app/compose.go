// Package app composes storefront modules into one root handler.
package app

import (
	"fmt"
	"net/http"
	"strings"

	module "github.com/louisbranch/storefront/internal/services/storefront/module"
)

// ComposeInput carries the modules to mount and the shared root routes.
type ComposeInput struct {
	Modules []module.Module
	// Routes are exact-path handlers mounted beside the modules, such as
	// /metrics and /healthz.
	Routes map[string]http.Handler
	// Wrap decorates every mounted handler; nil leaves them unchanged.
	Wrap func(route string, next http.Handler) http.Handler
}

// Compose builds a root HTTP handler from modules.
func Compose(input ComposeInput) (http.Handler, error) {
	root := http.NewServeMux()
	seen := make(map[string]string)

	for _, feature := range input.Modules {
		if feature == nil {
			return nil, fmt.Errorf("module is nil")
		}
		mount, prefix, err := resolveMount(feature)
		if err != nil {
			return nil, err
		}
		if previous, ok := seen[prefix]; ok {
			return nil, fmt.Errorf("module %q duplicates prefix %q owned by module %q", feature.ID(), prefix, previous)
		}
		seen[prefix] = feature.ID()
		root.Handle(prefix, wrap(input.Wrap, prefix, mount.Handler))
	}

	for route, handler := range input.Routes {
		route = strings.TrimSpace(route)
		if !strings.HasPrefix(route, "/") || strings.HasSuffix(route, "/") {
			return nil, fmt.Errorf("route %q must begin with / and name an exact path", route)
		}
		if handler == nil {
			return nil, fmt.Errorf("route %q: handler is required", route)
		}
		if previous, ok := seen[route+"/"]; ok {
			return nil, fmt.Errorf("route %q collides with module %q", route, previous)
		}
		root.Handle("GET "+route, wrap(input.Wrap, route, handler))
	}

	return root, nil
}

func wrap(fn func(string, http.Handler) http.Handler, route string, next http.Handler) http.Handler {
	if fn == nil {
		return next
	}
	return fn(route, next)
}

func resolveMount(feature module.Module) (module.Mount, string, error) {
	mount, err := feature.Mount()
	if err != nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q: %w", feature.ID(), err)
	}
	prefix := mount.Prefix
	if err := validatePrefix(prefix); err != nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q has invalid prefix %q: %w", feature.ID(), mount.Prefix, err)
	}
	if mount.Handler == nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q: handler is required", feature.ID())
	}
	return mount, prefix, nil
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("prefix is required")
	}
	if strings.TrimSpace(prefix) != prefix {
		return fmt.Errorf("prefix must not include surrounding whitespace")
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("prefix must begin with /")
	}
	if !strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("prefix must end with /")
	}
	return nil
}
