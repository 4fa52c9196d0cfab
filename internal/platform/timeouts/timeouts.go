// Package timeouts defines the timeout constants shared by storefront
// commands.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Write caps the time spent writing one HTTP response.
const Write = 15 * time.Second

// Idle limits how long a keep-alive connection may sit unused.
const Idle = 60 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// StoreRequest caps a single catalog store lookup made while serving a page.
const StoreRequest = 2 * time.Second
