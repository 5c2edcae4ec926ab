package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/lomoval/eventregistry/internal/logger"
	"github.com/lomoval/eventregistry/internal/notify"
	"github.com/lomoval/eventregistry/internal/rabbit"
	log "github.com/sirupsen/logrus"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/sender_config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger, os.Stdout)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer r.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	err = r.Consume(ctx, func(body []byte) {
		n := notify.Notice{}
		if err := json.Unmarshal(body, &n); err != nil {
			log.Errorf("failed to parse notice: %s", err)
			return
		}
		log.WithField("event", n.EventID).Infof("upcoming event: %s in %d min", n.Name, n.Minutes)
	})
	if err != nil {
		log.Errorf("consume stopped: %v", err)
	}
}
