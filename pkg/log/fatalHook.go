package log

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FatalHook provides a logrus hook which persists details about a fatal error into the file system.
// This is helpful in order to transfer the error details to an orchestrating CI/CD system
// and by that make it possible to provide better error messages to the user.
type FatalHook struct {
	Path          string
	CorrelationID string
}

// ErrorDetails is the content of a persisted errorDetails.json file.
type ErrorDetails struct {
	Message       string `json:"message"`
	Error         string `json:"error"`
	Category      string `json:"category"`
	Result        string `json:"result"`
	CorrelationID string `json:"correlationId"`
	StepName      string `json:"stepName,omitempty"`
}

// Levels returns the supported log level of the hook.
func (f *FatalHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.FatalLevel}
}

// Fire persists the error message of the fatal error as json file into the file system.
func (f *FatalHook) Fire(entry *logrus.Entry) error {
	details := ErrorDetails{
		Message:       entry.Message,
		Error:         fmt.Sprint(entry.Data[logrus.ErrorKey]),
		Category:      GetErrorCategory().String(),
		Result:        "failure",
		CorrelationID: f.CorrelationID,
	}

	fileName := "errorDetails.json"
	if entry.Data["stepName"] != nil {
		details.StepName = fmt.Sprint(entry.Data["stepName"])
		fileName = fmt.Sprintf("%v_%v", details.StepName, fileName)
	}
	filePath := filepath.Join(f.Path, fileName)

	if _, err := os.Stat(filePath); err == nil {
		// do not overwrite file in case it already exists
		// this helps to report the first error which occurred - instead of the last one
		return nil
	}

	errDetails, err := json.Marshal(&details)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.Path, 0777); err != nil {
		return err
	}
	if err := os.WriteFile(filePath, errDetails, 0666); err != nil {
		return err
	}
	Entry().Debugf("persisted error information in %v", filePath)
	return nil
}

// ReadErrorDetails reads a persisted errorDetails.json file.
func ReadErrorDetails(filePath string) (ErrorDetails, error) {
	errorDetails := ErrorDetails{}
	content, err := os.ReadFile(filePath)
	if err != nil {
		return ErrorDetails{}, err
	}
	if err := json.Unmarshal(content, &errorDetails); err != nil {
		return ErrorDetails{}, err
	}
	return errorDetails, nil
}
