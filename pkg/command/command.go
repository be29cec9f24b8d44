package command

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/whitehorses/servicebus-plugin/pkg/log"
	"github.com/whitehorses/servicebus-plugin/pkg/piperutils"
)

// maxScannedLine is the longest console line checked against the error category mapping.
const maxScannedLine = 32767

// ExecRunner runs an external tool like configjar.
type ExecRunner interface {
	SetDir(dir string)
	AppendEnv(env []string)
	Stdout(out io.Writer)
	Stderr(err io.Writer)
	RunExecutable(executable string, params ...string) error
	GetExitCode() int
}

// Command runs executables and derives the error category of a failed run from its console output.
type Command struct {
	// ErrorCategoryMapping maps a category name to console patterns, '*' matches anything.
	ErrorCategoryMapping map[string][]string
	dir                  string
	env                  []string
	stdout               io.Writer
	stderr               io.Writer
	exitCode             int
}

// ExecCommand creates the process of a run.
var ExecCommand = exec.Command

// SetDir sets the working directory of the tool.
func (c *Command) SetDir(dir string) {
	c.dir = dir
}

// AppendEnv adds variables to the environment inherited from the current process.
func (c *Command) AppendEnv(env []string) {
	c.env = append(c.env, env...)
}

// Stdout sets the destination of the tool's standard output, os.Stdout if unset.
func (c *Command) Stdout(stdout io.Writer) {
	c.stdout = stdout
}

// Stderr sets the destination of the tool's error output, os.Stderr if unset.
func (c *Command) Stderr(stderr io.Writer) {
	c.stderr = stderr
}

// GetExitCode returns the exit code of the last run.
func (c *Command) GetExitCode() int {
	return c.exitCode
}

// RunExecutable runs the executable and waits for it to finish. The executable is resolved
// against the PATH of the current process, not the appended environment.
func (c *Command) RunExecutable(executable string, params ...string) error {
	cmd := ExecCommand(executable, params...)
	if len(c.dir) > 0 {
		cmd.Dir = c.dir
	}
	if len(c.env) > 0 {
		if len(cmd.Env) == 0 {
			cmd.Env = os.Environ()
		}
		cmd.Env = append(cmd.Env, c.env...)
	}

	log.Entry().Infof("running command: %v %v", executable, strings.Join(params, " "))

	if err := c.run(cmd); err != nil {
		return errors.Wrapf(err, "running command '%v' failed", executable)
	}
	return nil
}

func (c *Command) run(cmd *exec.Cmd) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "getting Stdout pipe failed")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.Wrap(err, "getting Stderr pipe failed")
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "starting command failed")
	}

	outScanner, errScanner := c.categoryScanner(), c.categoryScanner()
	var wg sync.WaitGroup
	var errCopyStdout, errCopyStderr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errCopyStdout = piperutils.CopyData(c.output(c.stdout, os.Stdout, outScanner), stdout)
	}()
	go func() {
		defer wg.Done()
		_, errCopyStderr = piperutils.CopyData(c.output(c.stderr, os.Stderr, errScanner), stderr)
	}()
	wg.Wait()
	err = cmd.Wait()
	if outScanner != nil {
		outScanner.flush()
		errScanner.flush()
	}

	if errCopyStdout != nil || errCopyStderr != nil {
		return errors.Errorf("failed to capture stdout/stderr: '%v'/'%v'", errCopyStdout, errCopyStderr)
	}
	if err != nil {
		c.exitCode = 1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			c.exitCode = exitErr.ExitCode()
		}
		return errors.Wrap(err, "cmd.Run() failed")
	}
	c.exitCode = 0
	return nil
}

func (c *Command) output(configured, fallback io.Writer, scanner *categoryScanner) io.Writer {
	out := configured
	if out == nil {
		out = fallback
	}
	if scanner == nil {
		return out
	}
	return io.MultiWriter(out, scanner)
}

func (c *Command) categoryScanner() *categoryScanner {
	if len(c.ErrorCategoryMapping) == 0 {
		return nil
	}
	return &categoryScanner{mapping: c.ErrorCategoryMapping}
}

// categoryScanner sets the error category of the first mapping pattern found in a console line.
type categoryScanner struct {
	mapping  map[string][]string
	line     []byte
	skipping bool
}

func (s *categoryScanner) Write(p []byte) (int, error) {
	rest := p
	for len(rest) > 0 {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			s.collect(rest)
			break
		}
		s.collect(rest[:i])
		s.flush()
		rest = rest[i+1:]
	}
	return len(p), nil
}

func (s *categoryScanner) collect(part []byte) {
	if s.skipping {
		return
	}
	if len(s.line)+len(part) > maxScannedLine {
		s.line = s.line[:0]
		s.skipping = true
		return
	}
	s.line = append(s.line, part...)
}

func (s *categoryScanner) flush() {
	if !s.skipping && len(s.line) > 0 {
		s.match(strings.TrimSuffix(string(s.line), "\r"))
	}
	s.line = s.line[:0]
	s.skipping = false
}

func (s *categoryScanner) match(line string) {
	for category, patterns := range s.mapping {
		for _, pattern := range patterns {
			if matchPattern(line, pattern) {
				log.SetErrorCategory(log.ErrorCategoryByString(category))
				return
			}
		}
	}
}

func matchPattern(text, pattern string) bool {
	if len(pattern) == 0 {
		return len(text) == 0
	}
	for _, part := range strings.Split(pattern, "*") {
		if !strings.Contains(text, part) {
			return false
		}
	}
	return true
}
