package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"anoa.com/poemhub/internal/app"
	"anoa.com/poemhub/internal/cli"
	"anoa.com/poemhub/internal/config"
	"anoa.com/poemhub/pkg/logger"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	open := func(flags *pflag.FlagSet) (*app.App, error) {
		cfg, err := config.Load(flags)
		if err != nil {
			return nil, err
		}
		log := logger.New(cfg.LogLevel, cfg.AppEnv, os.Stderr)
		return app.New(cfg, log, app.WithOutput(os.Stdout))
	}

	c := cli.New(open, os.Stdin, os.Stdout)
	err := c.Execute(ctx, os.Args[1:])
	if cerr := c.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
