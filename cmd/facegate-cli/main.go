// Command facegate-cli runs one liveness attempt on a terminal instead of the console
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"facegate/internal/modkit"
	"facegate/internal/modkit/module"
	"facegate/internal/platform/config"
	"facegate/internal/platform/logger"

	"facegate/internal/services/attempt/domain"
	attemptmod "facegate/internal/services/attempt/module"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	root := config.New()
	appCfg := root.Prefix("FACEGATE_")

	mode := flag.String("mode", appCfg.MayEnum("MODE", "verify", "register", "verify"), "attempt mode: register or verify")
	ic := flag.String("ic", "", "ic number (register mode prompts when empty)")
	flag.Parse()

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := attemptmod.New(modkit.Deps{Log: *l, Cfg: appCfg}, attemptmod.FromConfig(root))
	if err := m.Open(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "camera:", err)
		_ = m.Close()
		os.Exit(2)
	}

	orc := module.MustPortsOf[domain.OrchestratorPort](m)
	events := module.MustPortsOf[domain.EventsPort](m)

	s, err := newFlow(orc, events, os.Stdin, os.Stdout).run(ctx, domain.StartInput{Mode: *mode, ICNumber: *ic})
	if cerr := m.Close(); cerr != nil {
		l.Error().Err(cerr).Msg("failed to close attempt session")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if s.State != domain.Succeeded {
		os.Exit(1)
	}
}
