//go:build !release
// +build !release

package mock

import (
	"io"
	"regexp"
	"strings"
)

// ExecMockRunner records the tool runs of a test. Output and failures are configured per
// command line, either as the exact line or as a regular expression matching it.
type ExecMockRunner struct {
	Dir                 string
	Env                 []string
	ExitCode            int
	Calls               []ExecCall
	Stub                func(call string, stdoutReturn map[string]string, shouldFailOnCommand map[string]error, stdout io.Writer) error
	StdoutReturn        map[string]string
	ShouldFailOnCommand map[string]error
	stdout              io.Writer
	stderr              io.Writer
}

// ExecCall is one recorded run.
type ExecCall struct {
	Exec   string
	Params []string
	Dir    string
	Env    []string
}

func (m *ExecMockRunner) SetDir(dir string) {
	m.Dir = dir
}

func (m *ExecMockRunner) AppendEnv(env []string) {
	m.Env = append(m.Env, env...)
}

func (m *ExecMockRunner) Stdout(out io.Writer) {
	m.stdout = out
}

func (m *ExecMockRunner) Stderr(err io.Writer) {
	m.stderr = err
}

// Output returns the writers configured for the tool output.
func (m *ExecMockRunner) Output() (stdout, stderr io.Writer) {
	return m.stdout, m.stderr
}

func (m *ExecMockRunner) GetExitCode() int {
	return m.ExitCode
}

func (m *ExecMockRunner) RunExecutable(executable string, params ...string) error {
	m.Calls = append(m.Calls, ExecCall{Exec: executable, Params: params, Dir: m.Dir, Env: append([]string(nil), m.Env...)})
	call := strings.Join(append([]string{executable}, params...), " ")
	if m.Stub != nil {
		return m.Stub(call, m.StdoutReturn, m.ShouldFailOnCommand, m.stdout)
	}
	return handleCall(call, m.StdoutReturn, m.ShouldFailOnCommand, m.stdout)
}

func handleCall(call string, stdoutReturn map[string]string, shouldFailOnCommand map[string]error, stdout io.Writer) error {
	for pattern, output := range stdoutReturn {
		found, err := matchesCall(call, pattern)
		if err != nil {
			return err
		}
		if found && stdout != nil {
			stdout.Write([]byte(output))
		}
	}
	for pattern, failure := range shouldFailOnCommand {
		found, err := matchesCall(call, pattern)
		if err != nil {
			return err
		}
		if found {
			return failure
		}
	}
	return nil
}

func matchesCall(call, pattern string) (bool, error) {
	if call == pattern {
		return true, nil
	}
	expr, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	return expr.MatchString(call), nil
}
