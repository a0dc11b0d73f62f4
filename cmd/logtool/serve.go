package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/tybalex/otto8-log-tool/internal/httpserver"
)

// runServe starts the HTTP API and blocks until SIGINT/SIGTERM.
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "config file (default is $HOME/.config/logtool/config.yml)")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatalJSON(err)
	}
	a, err := newApp(cfg)
	if err != nil {
		fatalJSON(err)
	}

	api := httpserver.NewServer(cfg.APIAddr, a)
	if err := api.Start(); err != nil {
		fatalJSON(fmt.Errorf("start API server: %w", err))
	}
	log.Printf("serve: HTTP API listening on %s", api.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-sigCh:
			return errors.New("signal received")
		case <-gctx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil {
		log.Printf("serve: shutting down: %v", err)
	}
	signal.Stop(sigCh)

	if err := api.Stop(); err != nil {
		log.Printf("serve: stop API server: %v", err)
	}
}
