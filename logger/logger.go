package logger

import (
	"fmt"
	"strings"

	"github.com/gruntwork-io/go-commons/logging"
	"github.com/sirupsen/logrus"
)

// ProjectName is attached to every log entry so engine output can be told
// apart from backend/transport noise.
const ProjectName = "cueline"

// GetProjectLogger returns the project logger
func GetProjectLogger() *logrus.Entry {
	logger := logging.GetLogger("")
	return logger.WithField("name", ProjectName)
}

// SetLevel applies one of the recognized log-level selectors
// {debug, warning, info} to the project logger.
func SetLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		logging.SetGlobalLogLevel(logrus.DebugLevel)
	case "warning":
		logging.SetGlobalLogLevel(logrus.WarnLevel)
	case "info", "":
		logging.SetGlobalLogLevel(logrus.InfoLevel)
	default:
		return fmt.Errorf("unrecognized log level: %q", level)
	}
	return nil
}
