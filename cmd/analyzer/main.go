// entry point to app :)
package main

import (
	"github.com/ds124wfegd/image-analyser/config"
	"github.com/ds124wfegd/image-analyser/internal/appServer"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	viperInstance, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}

	logrus.WithFields(logrus.Fields{
		"provider": cfg.Inference.Provider,
		"model":    cfg.Inference.Model,
		"session":  cfg.Session.Backend,
	}).Info("Config loaded")

	appServer.NewServer(cfg)
}
