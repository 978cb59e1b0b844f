package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/flat-request/internal/app"
	"github.com/samvad-hq/flat-request/internal/config"
	"github.com/samvad-hq/flat-request/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "client failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := app.NewUserService(cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize user service", "error", err)
		return err
	}

	// cancel whatever is still in flight when a signal arrives
	go func() {
		<-ctx.Done()
		svc.CancelAll()
	}()

	res := svc.GetUserInfo(ctx)
	if res.Err != nil {
		return fmt.Errorf("get user info: %w", res.Err)
	}
	fmt.Printf("%s is %d years old\n", res.Data.Name, res.Data.Age)
	return nil
}
