package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/markis/bizcoach/internal/client"
	"github.com/markis/bizcoach/internal/coach"
	"github.com/markis/bizcoach/internal/config"
	"github.com/markis/bizcoach/internal/logging"
	"github.com/markis/bizcoach/internal/quota"
	"github.com/markis/bizcoach/internal/render"
	"github.com/markis/bizcoach/internal/segment"
	"github.com/markis/bizcoach/internal/server"
)

var (
	sceneColor   = color.New(color.FgCyan, color.Bold).SprintFunc()
	partnerColor = color.New(color.FgGreen).SprintFunc()
	grayColor    = color.New(color.FgHiBlack).SprintFunc()
)

func serve(ctx context.Context, cfg *config.Config, schema segment.Schema) error {
	producer, err := coach.NewProducer(ctx, cfg, schema)
	if err != nil {
		return fmt.Errorf("failed to create %s producer: %w", cfg.Provider, err)
	}

	limiter, closeStore, err := newLimiter(ctx, cfg.Quota)
	if err != nil {
		return err
	}
	defer closeStore()

	scenes := coach.NewCatalogue(cfg.Scenes)
	srv := server.New(cfg.Server, coach.NewPrompter(schema, scenes), scenes, producer, limiter)
	return srv.Run(ctx)
}

func newLimiter(ctx context.Context, cfg config.QuotaConfig) (*quota.Limiter, func(), error) {
	var store quota.Store = quota.NewMemoryStore()
	closeStore := func() {}

	if cfg.Store == config.StoreSQLite {
		s, err := quota.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open quota store: %w", err)
		}
		store = s
		closeStore = func() {
			if err := s.Close(); err != nil {
				logging.Warnf("failed to close quota store: %v", err)
			}
		}
	}

	limiter, err := quota.NewLimiter(store, cfg.DailyLimit, cfg.Timezone, quota.WithProUsers(cfg.ProUsers...))
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return limiter, closeStore, nil
}

// askOnce renders one coached turn as it streams in.
func askOnce(cfg *config.Config, schema segment.Schema, usePlainText bool, send func(onSection func(segment.Snapshot)) (segment.Snapshot, error)) error {
	r, err := render.NewTerminalRenderer(schema, cfg.Render, usePlainText, os.Stdout)
	if err != nil {
		return err
	}

	r.Start()
	_, err = send(r.Update)
	if ferr := r.Finish(); err == nil {
		err = ferr
	}
	return explain(err)
}

func ask(ctx context.Context, cfg *config.Config, schema segment.Schema, utterance string, usePlainText bool) error {
	c := client.New(cfg.Client, schema)
	return askOnce(cfg, schema, usePlainText, func(onSection func(segment.Snapshot)) (segment.Snapshot, error) {
		return c.Ask(ctx, server.ChatRequest{Scene: cfg.Client.Scene, UserMessage: utterance}, onSection)
	})
}

func practice(ctx context.Context, cfg *config.Config, schema segment.Schema, usePlainText bool) error {
	scene, ok := coach.NewCatalogue(cfg.Scenes).Lookup(cfg.Client.Scene)
	if !ok {
		return fmt.Errorf("unknown scene %q", cfg.Client.Scene)
	}

	fmt.Println(sceneColor(scene.Label), grayColor(scene.Context))
	if scene.Opening != "" {
		fmt.Println(partnerColor(scene.Opening))
		if scene.OpeningJP != "" {
			fmt.Println(grayColor(scene.OpeningJP))
		}
	}
	fmt.Println(grayColor("Type your reply. /quit to finish."))

	session := client.NewSession(client.New(cfg.Client, schema), scene.ID, scene.Opening)
	logging.Debugf("practising scene %s with schema %s", session.Scene(), schema.Name)
	return practiceLoop(ctx, os.Stdin, func(line string) error {
		return askOnce(cfg, schema, usePlainText, func(onSection func(segment.Snapshot)) (segment.Snapshot, error) {
			return session.Send(ctx, line, onSection)
		})
	})
}

// practiceLoop feeds each non-empty input line to turn until EOF or /quit. Only a
// spent quota or a cancelled context ends the loop early.
func practiceLoop(ctx context.Context, in io.Reader, turn func(string) error) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}

		if err := turn(line); err != nil {
			if errors.Is(err, client.ErrQuotaExceeded) || ctx.Err() != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
}

func listScenes(cfg *config.Config) error {
	for _, s := range coach.NewCatalogue(cfg.Scenes).List() {
		fmt.Printf("%s %s\n", sceneColor(fmt.Sprintf("%-20s", s.ID)), s.Label)
		if s.Context != "" {
			fmt.Printf("%-20s %s\n", "", grayColor(s.Context))
		}
	}
	return nil
}

// explain adds a hint to the client errors a user can act on.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, client.ErrUnauthorized):
		return fmt.Errorf("%w: set client.user_id or pass --user", err)
	case errors.Is(err, client.ErrQuotaExceeded):
		return fmt.Errorf("%w: the limit resets at midnight", err)
	case errors.Is(err, client.ErrEmptyResponse):
		return fmt.Errorf("%w: the reply did not follow the expected format, try again", err)
	default:
		return err
	}
}
