package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"talentAgent/internal/cli"
	"talentAgent/internal/config"
	"talentAgent/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка конфигурации:", err)
		return cli.ExitConfig
	}

	log, err := logger.New(cfg.Logger.Env, cfg.Logger.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка логгера:", err)
		return cli.ExitConfig
	}
	defer log.Sync()

	// Ctrl+C прерывает прогон между шагами; итог всё равно печатается.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, cfg, log, os.Stdout, os.Args[1:])
}
