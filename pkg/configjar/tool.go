package configjar

import (
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"

	"github.com/whitehorses/servicebus-plugin/pkg/command"
	"github.com/whitehorses/servicebus-plugin/pkg/log"
)

// ErrorCategories maps configjar console output to the error category of a failed export.
var ErrorCategories = map[string][]string{
	"configuration": {
		"FileNotFoundException",
		"project*does not exist",
		"Invalid settings file",
	},
	"infrastructure": {
		"OutOfMemoryError",
		"JAVA_HOME*not",
	},
}

// Tool runs the configjar utility of an Oracle home.
type Tool struct {
	OracleHome string
	// JavaHome is passed as JAVA_HOME when set, otherwise the launcher's own lookup applies.
	JavaHome string
	// WorkDir is the working directory of the run, relative paths of the settings resolve against it.
	WorkDir string
	Runner  command.ExecRunner
	// GOOS selects the launcher script, defaults to runtime.GOOS.
	GOOS string
}

// Executable returns the path of the configjar launcher script.
func (t *Tool) Executable() string {
	script := "configjar.sh"
	goos := t.GOOS
	if len(goos) == 0 {
		goos = runtime.GOOS
	}
	if goos == "windows" {
		script = "configjar.cmd"
	}
	return filepath.Join(t.OracleHome, "osb", "tools", "configjar", script)
}

// Run exports the resources described by settingsFile.
func (t *Tool) Run(settingsFile string) error {
	if len(t.OracleHome) == 0 {
		return errors.New("oracle home is not set")
	}
	stdout, stderr := log.Writer(), log.Writer()
	defer stdout.Flush()
	defer stderr.Flush()
	t.Runner.Stdout(stdout)
	t.Runner.Stderr(stderr)
	if len(t.WorkDir) > 0 {
		t.Runner.SetDir(t.WorkDir)
	}
	t.Runner.AppendEnv(t.environment())

	executable := t.Executable()
	if err := t.Runner.RunExecutable(executable, "-settingsfile", settingsFile); err != nil {
		return errors.Wrapf(err, "configjar failed with exit code %v", t.Runner.GetExitCode())
	}
	return nil
}

func (t *Tool) environment() []string {
	env := []string{"ORACLE_HOME=" + t.OracleHome}
	if len(t.JavaHome) > 0 {
		env = append(env, "JAVA_HOME="+t.JavaHome)
	}
	return env
}
