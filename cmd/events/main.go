package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lomoval/eventregistry/internal/app"
	"github.com/lomoval/eventregistry/internal/console"
	"github.com/lomoval/eventregistry/internal/logger"
	"github.com/lomoval/eventregistry/internal/notify"
	"github.com/lomoval/eventregistry/internal/rabbit"
	filestorage "github.com/lomoval/eventregistry/internal/storage/file"
	"github.com/lomoval/eventregistry/internal/user"
	log "github.com/sirupsen/logrus"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	if flag.Arg(0) == "version" {
		printVersion()
		return
	}

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		os.Exit(1)
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		os.Exit(1)
	}

	notifier, closeNotifier, err := newNotifier(config, os.Stdout)
	if err != nil {
		log.Errorf("failed to start %v", err)
		os.Exit(1)
	}
	defer closeNotifier()

	registry := app.New(
		filestorage.New(config.Storage.EventsFile),
		user.NewStore(config.Storage.UserFile),
		notifier,
		app.WithNotifyWindow(config.Notifier.Window),
	)
	if err := registry.Load(); err != nil {
		log.Warnf("starting with incomplete data: %v", err)
	}

	if flag.Arg(0) == "export" {
		path := config.Console.ExportFile
		if flag.Arg(1) != "" {
			path = flag.Arg(1)
		}
		if err := export(registry, path); err != nil {
			log.Errorf("failed to export events: %v", err)
			closeNotifier()
			os.Exit(1) //nolint:gocritic
		}
		return
	}

	if err := console.New(config.Console, registry, os.Stdin, os.Stdout).Run(context.Background()); err != nil {
		log.Errorf("console stopped: %v", err)
		closeNotifier()
		os.Exit(1)
	}
}

func newNotifier(config Config, out io.Writer) (notify.Notifier, func(), error) {
	switch config.Notifier.Type {
	case "", "console":
		return notify.NewConsole(out), func() {}, nil
	case "rabbit":
		provider := rabbit.New(config.Rabbit)
		if err := provider.Connect(); err != nil {
			return nil, nil, err
		}
		return notify.NewQueue(provider), provider.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifier type %q", config.Notifier.Type)
	}
}

func export(registry *app.App, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := registry.ExportICS(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
