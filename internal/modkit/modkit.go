package modkit

import "facegate/internal/modkit/module"

// Module is what the console mounts: routes, a port set and a name
type Module = module.Module
