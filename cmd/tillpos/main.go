package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"tillpos/internal/config"
	"tillpos/internal/http/handlers"
	applog "tillpos/internal/log"
	"tillpos/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			applog.Error(nil, "log.file.open", err, map[string]any{"file": cfg.LogFile})
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	applog.Init(out, cfg.LogLevel)

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		fatal("db.open", err)
	}
	defer db.Close()

	if cfg.SeedDemo {
		if err := repos.SeedIfEmpty(context.Background(), db); err != nil {
			fatal("db.seed", err)
		}
	}

	deps, err := handlers.NewDeps(db, cfg)
	if err != nil {
		fatal("app.deps", err)
	}
	app := handlers.NewApp(cfg, deps)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		applog.Info(nil, "server.shutdown", nil)
		_ = app.Shutdown()
	}()

	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port})
	if err := app.Listen(":" + cfg.Port); err != nil {
		fatal("server.listen", err)
	}
}

func fatal(action string, err error) {
	applog.Error(nil, action, err, nil)
	os.Exit(1)
}
