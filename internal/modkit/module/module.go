// Package module is the contract the console mounts. It sits apart from
// modkit so a module's own ports package can import it without a cycle
package module

import (
	phttp "facegate/internal/platform/net/http"
)

// Module is one mountable slice of the console
type Module interface {
	// MountRoutes attaches the module under its Prefix on r
	MountRoutes(r phttp.Router)
	// Ports is the module's port set, see PortsOf
	Ports() any
	Name() string
	// Prefix is the mount path below /api/v1, e.g. /attempts
	Prefix() string
}
