package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	subjectcache "focuslog/internal/cache/subjects"
	"focuslog/internal/cli"
	"focuslog/internal/focus"
	"focuslog/internal/gateway/app"
	"focuslog/internal/gateway/config"
	"focuslog/internal/gateway/service/study"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.LoadFrom(nil, os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint("error: ")+err.Error())
		os.Exit(1)
	}

	cliApp := &cli.App{}
	client, err := app.NotionClient(cfg)
	if err != nil {
		cliApp.FocusErr = err
	} else {
		acc := focus.NewStoreAccumulator(client, cfg.MatchStrategy)
		cliApp.Focus = study.New(study.Deps{
			Accumulator:  acc,
			Days:         acc,
			Subjects:     client,
			SubjectCache: subjectcache.NewCache(subjectcache.DefaultCacheConfig()),
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = cli.NewRootCmd(cliApp).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint("error: ")+cli.Describe(err))
		os.Exit(1)
	}
}
