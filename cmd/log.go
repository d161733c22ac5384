package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var log = logrus.WithField("component", "cmd")

type logFormat string

const (
	text logFormat = "text"
	json logFormat = "json"
)

var expectedLogFormats = []logFormat{text, json}

const logLevelOff = "off"

var expectedLogLevels = []string{
	logrus.TraceLevel.String(),
	logrus.DebugLevel.String(),
	logrus.InfoLevel.String(),
	logrus.WarnLevel.String(),
	logrus.ErrorLevel.String(),
	logLevelOff,
}

// configureLog sets the format and level of the standard logger
func configureLog(cfg *viper.Viper) error {
	switch format := logFormat(cfg.GetString(rootLogFormatKey)); format {
	case json:
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case text:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format specified %q expecting one "+
			"of %v", format, expectedLogFormats)
	}

	level := cfg.GetString(rootLogLevelKey)
	if level == logLevelOff {
		logrus.SetLevel(logrus.PanicLevel)
		return nil
	}
	for _, expected := range expectedLogLevels {
		if expected == level {
			logLevel, err := logrus.ParseLevel(level)
			if err != nil {
				return err
			}
			logrus.SetLevel(logLevel)
			return nil
		}
	}
	return fmt.Errorf("invalid log level specified %q expecting one of %v",
		level, expectedLogLevels)
}
