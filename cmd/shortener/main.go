package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsdevblog/shortlinks/internal/app"
	"github.com/fsdevblog/shortlinks/internal/bmeta"
	"github.com/fsdevblog/shortlinks/internal/config"
)

// Заполняются через -ldflags "-X main.buildVersion=..."
//
//nolint:gochecknoglobals
var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	meta := bmeta.New(buildVersion, buildDate, buildCommit)
	meta.Print(os.Stdout)

	appConf := config.MustLoadConfig(os.Args[1:])

	a := app.Must(app.New(*appConf, meta))
	defer func() { _ = a.Logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}
