package config

import (
	"fmt"
	"io"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// PipelineDefaults holds the default configurations in the order they were passed.
// Later entries take precedence over earlier ones.
type PipelineDefaults struct {
	Defaults []Config `json:"defaults"`
}

// ReadPipelineDefaults parses every default source and closes all of them.
func (d *PipelineDefaults) ReadPipelineDefaults(defaultSources []io.ReadCloser) error {
	defer func() {
		for _, source := range defaultSources {
			source.Close()
		}
	}()

	for i, source := range defaultSources {
		content, err := io.ReadAll(source)
		if err != nil {
			return errors.Wrapf(err, "error reading defaults #%d", i)
		}

		var c Config
		if err := yaml.Unmarshal(content, &c); err != nil {
			return NewParseError(fmt.Sprintf("error unmarshalling defaults #%d: %v", i, err))
		}
		d.Defaults = append(d.Defaults, c)
	}
	return nil
}
