package main

import (
	"flag"
	"fmt"
	"os"

	"deedles.dev/thing/internal/config"
	"deedles.dev/thing/internal/util"
	"deedles.dev/wlr"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the config file")
	level := util.Flag("log-level", new(util.LevelFlag), "log level, overriding the config file")
	run := util.StringsFlag("run", nil, "command to run once the compositor is started (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %v [options]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	logrus.SetLevel(cfg.Level())
	if level.IsSet {
		logrus.SetLevel(level.Level)
	}
	wlr.InitLog(wlr.Debug, wlrLog)

	server := NewServer(cfg)
	err = server.Start()
	if err != nil {
		logrus.WithError(err).Fatal("start server")
	}

	for _, cmd := range *run {
		server.exec(cmd)
	}

	err = server.Run()
	if err != nil {
		logrus.WithError(err).Fatal("run server")
	}
}

// wlrLog forwards wlroots' log messages to logrus.
func wlrLog(importance wlr.LogImportance, msg string) {
	entry := logrus.WithField("source", "wlroots")
	switch importance {
	case wlr.Error:
		entry.Error(msg)
	case wlr.Info:
		entry.Info(msg)
	default:
		entry.Debug(msg)
	}
}
