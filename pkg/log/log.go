package log

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// LibraryName is attached to every log entry produced by this binary.
const LibraryName = "servicebus-plugin"

// PiperLogFormatter is the custom formatter of the step library.
type PiperLogFormatter struct {
	logrus.TextFormatter
	messageOnly bool
}

var logger *logrus.Entry

var secrets []string

// Format the log message
func (formatter *PiperLogFormatter) Format(entry *logrus.Entry) (bytes []byte, err error) {
	message := ""

	if formatter.messageOnly {
		message = entry.Message + "\n"
	} else {
		stepName := entry.Data["stepName"]
		if stepName == nil {
			stepName = "(noStepName)"
		}

		errorMessageSnippet := ""
		if entry.Data[logrus.ErrorKey] != nil {
			errorMessageSnippet = fmt.Sprintf(" - %s", entry.Data[logrus.ErrorKey])
		}

		level, _ := entry.Level.MarshalText()
		levelString := string(level)
		if levelString == "warning" {
			levelString = "warn"
		}

		message = fmt.Sprintf("%-5s %-6s - %s%s\n", levelString, stepName, entry.Message, errorMessageSnippet)
	}

	for _, secret := range secrets {
		message = strings.Replace(message, secret, "****", -1)
	}

	return []byte(message), nil
}

// Entry returns the logger entry or creates one if none is present.
func Entry() *logrus.Entry {
	if logger == nil {
		logger = logrus.WithField("library", LibraryName)
		logger.Logger.SetFormatter(&PiperLogFormatter{})
	}

	return logger
}

// Writer returns a LineWriter into which a tool's output can be redirected.
func Writer() *LineWriter {
	return &LineWriter{logger: Entry()}
}

// SetVerbose sets the log level with respect to verbose flag.
func SetVerbose(verbose bool) {
	if verbose {
		//Logger().Debugf("logging set to level: %s", level)
		logrus.SetLevel(logrus.DebugLevel)
	}
}

// SetFormatter specifies whether only the log message is printed.
func SetFormatter(messageOnly bool) {
	Entry().Logger.SetFormatter(&PiperLogFormatter{messageOnly: messageOnly})
}

// SetStepName sets the stepName field.
func SetStepName(stepName string) {
	logger = Entry().WithField("stepName", stepName)
}

// RegisterSecret registers a value which should be masked in every log message
func RegisterSecret(secret string) {
	if len(secret) > 0 {
		secrets = append(secrets, secret)
	}
}

// RegisterHook registers a logrus hook
func RegisterHook(hook logrus.Hook) {
	logrus.AddHook(hook)
}
