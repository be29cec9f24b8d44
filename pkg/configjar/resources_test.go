//go:build unit
// +build unit

package configjar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadResourceList(t *testing.T) {
	t.Parallel()

	t.Run("includes and excludes", func(t *testing.T) {
		t.Parallel()
		content := `<resources>
  <includes>
    <include>Orders/**</include>
    <include> Customers/** </include>
    <include/>
  </includes>
  <excludes>
    <exclude>Orders/Test/**</exclude>
  </excludes>
</resources>`

		includes, excludes, err := ReadResourceList(strings.NewReader(content))

		require.NoError(t, err)
		assert.Equal(t, []string{"Orders/**", "Customers/**"}, includes)
		assert.Equal(t, []string{"Orders/Test/**"}, excludes)
	})

	t.Run("no excludes", func(t *testing.T) {
		t.Parallel()
		includes, excludes, err := ReadResourceList(strings.NewReader(`<resources><includes><include>Orders/**</include></includes></resources>`))

		require.NoError(t, err)
		assert.Equal(t, []string{"Orders/**"}, includes)
		assert.Empty(t, excludes)
	})

	t.Run("malformed file", func(t *testing.T) {
		t.Parallel()
		_, _, err := ReadResourceList(strings.NewReader(`<resources><includes>`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse resources file")
	})
}
