package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/markis/bizcoach/internal/args"
	"github.com/markis/bizcoach/internal/config"
	"github.com/markis/bizcoach/internal/logging"
)

// main function to parse arguments and dispatch the requested command.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.Init(cfg.Log.Level, os.Stderr)

	a, err := args.ParseArgs(ctx, *cfg, os.Args[1:])
	if err != nil {
		return err
	}
	if a.Command == "" {
		return nil
	}
	if err := a.Apply(cfg); err != nil {
		return err
	}
	if a.UsePlainText {
		color.NoColor = true
	}

	schema, err := cfg.SectionSchema()
	if err != nil {
		return err
	}

	switch a.Command {
	case args.CommandServe:
		return serve(ctx, cfg, schema)
	case args.CommandAsk:
		return ask(ctx, cfg, schema, a.Utterance(), a.UsePlainText)
	case args.CommandPractice:
		return practice(ctx, cfg, schema, a.UsePlainText)
	case args.CommandScenes:
		return listScenes(cfg)
	default:
		return fmt.Errorf("unknown command %q", a.Command)
	}
}
