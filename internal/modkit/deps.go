// Package modkit builds console modules from shared deps and functional options
package modkit

import (
	"facegate/internal/modkit/repokit"
	"facegate/internal/platform/config"
	"facegate/internal/platform/logger"
)

// Deps are handed to every module constructor
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	// PG is nil when the outcome journal is disabled
	PG repokit.TxRunner
}
