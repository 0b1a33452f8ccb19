package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/phsym/console-slog"

	"github.com/roscale/veshell-prototype/internal/api"
	"github.com/roscale/veshell-prototype/internal/build"
	"github.com/roscale/veshell-prototype/internal/bus"
	"github.com/roscale/veshell-prototype/internal/config"
	"github.com/roscale/veshell-prototype/internal/shell"
	"github.com/roscale/veshell-prototype/pkg/sutureext"
)

type Options struct {
	Debug  bool   `doc:"enable debug"`
	HTTP   string `doc:"address of the state API" default:"127.0.0.1:8080"`
	Config string `doc:"config file" default:".veshell.yaml"`
}

func main() {
	godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		if options.Debug {
			InitLogger(slog.LevelDebug)
		} else {
			InitLogger(slog.LevelInfo)
		}

		OnServe(hooks, func(ctx context.Context) error {
			configFilePath, err := filepath.Abs(options.Config)
			if err != nil {
				return err
			}

			store, err := config.NewStore(config.NewYAML(configFilePath))
			if err != nil {
				return err
			}
			cfg, err := store.GetConfig()
			if err != nil {
				return err
			}

			b := bus.New()
			b.SetContext(ctx)

			s := shell.New(b, shell.LogTransport{})
			s.SetVisibleLength(cfg.VisibleTiles)
			for _, appID := range cfg.Autostart {
				s.Submit(shell.EventLaunchSucceeded{AppID: appID})
			}

			super := sutureext.NewSimple("veshell")
			sutureext.Add(super, s)
			sutureext.Add(super, api.NewServer(s, b, options.HTTP))

			return super.Serve(ctx)
		})
	})

	cli.Root().Version = build.Current.Version

	cli.Run()
}

func InitLogger(level slog.Level) {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level: level,
	})))
}

func OnServe(hooks humacli.Hooks, serveFn func(ctx context.Context) error) {
	stopC := make(chan struct{})
	hooks.OnStart(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errC := make(chan error, 1)

		go func() { errC <- serveFn(ctx) }()

		select {
		case <-stopC:
			cancel()
		case err := <-errC:
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Fatal(err)
			}
			return
		}

		<-errC
		<-stopC
	})
	hooks.OnStop(func() {
		stopC <- struct{}{}
		stopC <- struct{}{}
	})
}
