// glbview displays a GLB file while it loads, one tick per frame.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/glbloader/internal/config"
	"github.com/Faultbox/glbloader/internal/logger"
	"github.com/Faultbox/glbloader/internal/viewer"
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
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: glbview [flags] <file.glb>")
		os.Exit(1)
	}

	logger.Info("=== glbview ===")

	v, err := viewer.New(cfg, args[0])
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}
