//go:build unit
// +build unit

package config

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestReadPipelineDefaults(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		var d PipelineDefaults
		d0 := &closeRecorder{Reader: strings.NewReader("general:\n  outputDirectory: target\n")}
		d1 := &closeRecorder{Reader: strings.NewReader("steps:\n  servicebusDeploy:\n    requestTimeout: 300\n")}

		err := d.ReadPipelineDefaults([]io.ReadCloser{d0, d1})

		require.NoError(t, err)
		require.Len(t, d.Defaults, 2)
		assert.Equal(t, "target", d.Defaults[0].General["outputDirectory"])
		assert.Equal(t, float64(300), d.Defaults[1].Steps["servicebusDeploy"]["requestTimeout"])
		assert.True(t, d0.closed)
		assert.True(t, d1.closed)
	})

	t.Run("read failure", func(t *testing.T) {
		var d PipelineDefaults
		err := d.ReadPipelineDefaults([]io.ReadCloser{errReadCloser(0)})
		assert.EqualError(t, err, "error reading defaults #0: read error")
	})

	t.Run("unmarshalling failure closes all sources", func(t *testing.T) {
		var d PipelineDefaults
		valid := &closeRecorder{Reader: strings.NewReader("general: {}")}
		invalid := &closeRecorder{Reader: strings.NewReader("general:\n\toutputDirectory: target")}
		pending := &closeRecorder{Reader: strings.NewReader("general: {}")}

		err := d.ReadPipelineDefaults([]io.ReadCloser{valid, invalid, pending})

		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr)
		assert.Contains(t, err.Error(), "error unmarshalling defaults #1")
		assert.True(t, pending.closed)
	})
}
