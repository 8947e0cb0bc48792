package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"cansig/loader"
	"cansig/publish"
	"cansig/transport"
	"cansig/utils"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "JSON config file")
		iface    = flag.String("iface", "vcan0", "SocketCAN interface name")
		catalog  = flag.String("catalog", "", "Catalog file (.json, .csv or .xlsx)")
		logLevel = flag.String("log", "info", "trace|debug|info|warn|error|critical")
		loopback = flag.Bool("loopback", false, "Use an in-memory bus instead of SocketCAN")
	)
	flag.Parse()

	cfg := DefaultConfig()
	if *cfgPath != "" {
		var err error
		if cfg, err = LoadConfig(*cfgPath); err != nil {
			_, _ = os.Stderr.WriteString("ERROR: config " + *cfgPath + ": " + err.Error() + "\n")
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "iface":
			cfg.Interface = *iface
		case "catalog":
			cfg.CatalogPath = *catalog
		case "log":
			cfg.Log.Level = *logLevel
		case "loopback":
			cfg.Loopback = *loopback
		}
	})
	if err := cfg.Validate(); err != nil {
		_, _ = os.Stderr.WriteString("ERROR: " + err.Error() + "\n")
		os.Exit(2)
	}

	logFile, err := utils.SetupLogger(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: cannot set up logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logFile.Close()
	log := utils.Logger

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("bridge failed")
		logFile.Close()
		os.Exit(1)
	}
}

func run(cfg Config) error {
	log := utils.Logger

	cat, err := loader.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var dev transport.Device
	if cfg.Loopback {
		dev = transport.NewLoopback(cfg.QueueSize, true)
	} else {
		sc, err := transport.DialSocketCAN(ctx, cfg.Interface)
		if err != nil {
			return err
		}
		dev = sc
	}

	var pub publish.Publisher
	if cfg.MQTT != nil {
		m, err := publish.DialMQTT(ctx, *cfg.MQTT)
		if err != nil {
			_ = dev.Close()
			return err
		}
		defer m.Close()
		pub = m
		log.WithField("broker", cfg.MQTT.Broker).Info("MQTT connected")
	}

	runner, err := NewRunner(cfg, log, cat, dev, pub)
	if err != nil {
		_ = dev.Close()
		return err
	}
	return runner.Run(ctx)
}
