package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"justapengu.in/bestlap/internal/acserver"
	"justapengu.in/bestlap/internal/acserver/plugins"
	"justapengu.in/bestlap/internal/api"
	"justapengu.in/bestlap/pkg/bestlap"
	"justapengu.in/bestlap/pkg/udp"
)

const shutdownTimeout = 15 * time.Second

func main() {
	var configPath string

	flag.StringVar(&configPath, "c", "./config.yml", "config path")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	config, err := readConfig(configPath)

	if err != nil {
		logger.WithError(err).Fatalf("Could not read config at %s", configPath)
	}

	level, err := logrus.ParseLevel(config.LogLevel)

	if err != nil {
		logger.WithError(err).Fatalf("Invalid log level %q", config.LogLevel)
	}

	logger.SetLevel(level)

	if err := config.BestLap.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid best lap config")
	}

	store := bestlap.NewStore()
	notifier := bestlap.NewHTTPNotifier(config.BestLap.NotificationURL, config.BestLap.NotificationTimeout())
	coordinator := bestlap.NewCoordinator(config.BestLap, store, notifier, logger)

	if err := coordinator.Load(); err != nil {
		logger.WithError(err).Warn("Continuing with an empty best lap table")
	}

	pluginList := []acserver.Plugin{plugins.NewBestLapPlugin(coordinator)}

	var forward *plugins.ForwardPlugin

	if config.ForwardPluginAddress != "" {
		forward, err = plugins.NewForwardPlugin(config.ForwardPluginLocalPort, config.ForwardPluginAddress)

		if err != nil {
			logger.WithError(err).Fatal("Could not initialise forward plugin")
		}

		pluginList = append(pluginList, forward)
	}

	listener, err := udp.NewListener(config.UDPPluginLocalPort, config.UDPPluginAddress, acserver.MultiPlugin(pluginList...), logger)

	if err != nil {
		logger.WithError(err).Fatal("Could not initialise UDP plugin listener")
	}

	var httpServer *api.Server

	if config.HTTPListenAddress != "" {
		httpServer = api.NewServer(config.HTTPListenAddress, store, logger)

		if err := httpServer.Listen(); err != nil {
			logger.WithError(err).Fatal("Could not start HTTP server")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Infof("Shutting down")
		cancel()
	}()

	logger.Infof("Starting best lap tracker")

	if err := listener.Run(ctx); err != nil {
		logger.WithError(err).Error("UDP plugin listener stopped")
	}

	cancel()

	if forward != nil {
		if err := forward.Shutdown(); err != nil {
			logger.WithError(err).Error("Could not stop forward plugin")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Could not stop HTTP server")
		}
	}

	if err := coordinator.Close(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Exiting with notifications in flight")
	}

	logger.Infof("Stopped. Exiting")
}

type Config struct {
	LogLevel string `yaml:"log_level"`

	// UDPPluginLocalPort is the port the AC server sends plugin events to.
	UDPPluginLocalPort int `yaml:"udp_plugin_local_port"`
	// UDPPluginAddress is the AC server's plugin command address.
	UDPPluginAddress string `yaml:"udp_plugin_address"`
	// ServerConfigPath, if set, reads both UDP plugin settings from an AC server_cfg.ini.
	ServerConfigPath string `yaml:"server_cfg"`

	ForwardPluginLocalPort int    `yaml:"forward_plugin_local_port"`
	ForwardPluginAddress   string `yaml:"forward_plugin_address"`

	HTTPListenAddress string `yaml:"http_listen_address"`

	BestLap bestlap.Config `yaml:"best_lap"`
}

func readConfig(path string) (*Config, error) {
	conf := &Config{
		LogLevel: "info",
		BestLap:  bestlap.DefaultConfig(),
	}

	f, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(conf); err != nil {
		return nil, errors.Wrap(err, "could not decode config")
	}

	if conf.ServerConfigPath != "" {
		legacy, err := readLegacyServerConfig(conf.ServerConfigPath)

		if err != nil {
			return nil, errors.Wrapf(err, "could not read server config %s", conf.ServerConfigPath)
		}

		conf.UDPPluginLocalPort, conf.UDPPluginAddress, err = legacy.PluginAddresses()

		if err != nil {
			return nil, errors.Wrapf(err, "server config %s", conf.ServerConfigPath)
		}
	}

	if conf.UDPPluginLocalPort <= 0 || conf.UDPPluginAddress == "" {
		return nil, errors.New("udp_plugin_local_port and udp_plugin_address are required, or server_cfg")
	}

	return conf, nil
}
