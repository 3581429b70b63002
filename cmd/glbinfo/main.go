// glbinfo is a CLI utility for inspecting GLB files with the incremental
// loader.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/glbloader/internal/config"
	"github.com/Faultbox/glbloader/internal/engine/host"
	"github.com/Faultbox/glbloader/internal/loader"
	"github.com/Faultbox/glbloader/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	var code int
	switch command {
	case "info":
		code = cmdInfo(cfg, args)
	case "tree":
		code = cmdTree(cfg, args)
	case "stats":
		code = cmdStats(cfg, args)
	case "check":
		code = cmdCheck(cfg, args)
	case "config":
		code = cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		code = 1
	}
	logger.Sync()
	os.Exit(code)
}

func printUsage() {
	fmt.Println(`glbinfo - GLB inspection utility

Usage:
  glbinfo [flags] <command> [options] <file.glb>

Commands:
  info <file.glb>              Show asset metadata and element counts
  tree [-all] <file.glb>       Print the node hierarchy
  stats <file.glb>             Show scheduler statistics per stage
  check <file.glb>             Cross-check the load against a reference reader
  config [-save <path>|-]      Print or save the effective configuration

Flags:
  -config <path>   Config file
  -budget <dur>    Per-tick time budget (e.g. 4ms)
  -debug           Enable debug logging

Examples:
  glbinfo info avatar.glb
  glbinfo -budget 1ms stats avatar.glb
  glbinfo check scene.glb`)
}

// loadFile runs a complete load of path into a headless engine. Ctrl-C
// aborts between ticks.
func loadFile(cfg *config.Config, path string) (*loader.Loader, *host.Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	opts, err := loader.OptionsFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine := host.NewMemory()
	l := loader.New(engine, opts)
	if err := l.Load(ctx, data); err != nil {
		logger.Error("load failed", zap.String("file", path), zap.Error(err))
		return l, engine, err
	}
	return l, engine, nil
}
