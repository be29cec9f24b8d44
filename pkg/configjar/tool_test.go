//go:build unit
// +build unit

package configjar

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/whitehorses/servicebus-plugin/pkg/log"
	"github.com/whitehorses/servicebus-plugin/pkg/mock"
)

func TestToolExecutable(t *testing.T) {
	t.Parallel()
	home := filepath.Join("opt", "oracle")

	assert.Equal(t, filepath.Join(home, "osb", "tools", "configjar", "configjar.sh"), (&Tool{OracleHome: home, GOOS: "linux"}).Executable())
	assert.Equal(t, filepath.Join(home, "osb", "tools", "configjar", "configjar.cmd"), (&Tool{OracleHome: home, GOOS: "windows"}).Executable())
}

func TestToolRun(t *testing.T) {
	t.Parallel()
	home := filepath.Join("opt", "oracle")
	executable := filepath.Join(home, "osb", "tools", "configjar", "configjar.sh")

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		runner := &mock.ExecMockRunner{}
		tool := Tool{OracleHome: home, Runner: runner, GOOS: "linux"}

		err := tool.Run("target/configjar/settings.xml")

		assert.NoError(t, err)
		assert.Equal(t, []mock.ExecCall{{Exec: executable, Params: []string{"-settingsfile", "target/configjar/settings.xml"}, Env: []string{"ORACLE_HOME=" + home}}}, runner.Calls)
		stdout, stderr := runner.Output()
		assert.NotNil(t, stdout)
		assert.NotNil(t, stderr)
	})

	t.Run("working directory and java home", func(t *testing.T) {
		t.Parallel()
		runner := &mock.ExecMockRunner{}
		tool := Tool{OracleHome: home, JavaHome: "/usr/java/jdk8", WorkDir: "/workspace/osb", Runner: runner, GOOS: "linux"}

		err := tool.Run("/workspace/target/configjar/settings.xml")

		assert.NoError(t, err)
		if assert.Len(t, runner.Calls, 1) {
			assert.Equal(t, "/workspace/osb", runner.Calls[0].Dir)
			assert.Equal(t, []string{"ORACLE_HOME=" + home, "JAVA_HOME=/usr/java/jdk8"}, runner.Calls[0].Env)
		}
	})

	t.Run("tool fails", func(t *testing.T) {
		t.Parallel()
		runner := &mock.ExecMockRunner{ExitCode: 2, ShouldFailOnCommand: map[string]error{"configjar": errors.New("exit status 2")}}
		tool := Tool{OracleHome: home, Runner: runner, GOOS: "linux"}

		err := tool.Run("settings.xml")

		assert.EqualError(t, err, "configjar failed with exit code 2: exit status 2")
	})

	t.Run("missing oracle home", func(t *testing.T) {
		t.Parallel()
		runner := &mock.ExecMockRunner{}
		err := (&Tool{Runner: runner}).Run("settings.xml")

		assert.EqualError(t, err, "oracle home is not set")
		assert.Empty(t, runner.Calls)
	})
}

func TestErrorCategories(t *testing.T) {
	for category := range ErrorCategories {
		assert.NotEqual(t, log.ErrorUndefined, log.ErrorCategoryByString(category), category)
	}
}
