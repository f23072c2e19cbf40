package collaborator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vcheck/internal/parser"
)

// InvocationEnv carries the correlation id to the process
const InvocationEnv = "VCHECK_INVOCATION_ID"

// FunctionEnv carries the function name to the process
const FunctionEnv = "VCHECK_FUNCTION"

// Process invokes an executable once per case as `command args... a b`.
// Events are read from stdout, see parser.EventParser for the line format.
type Process struct {
	Command  string
	Args     []string
	Dir      string
	Function string

	parser parser.Parser
}

// NewProcess creates a process collaborator
func NewProcess(command string, args []string, dir, function string) *Process {
	return &Process{
		Command:  command,
		Args:     args,
		Dir:      dir,
		Function: function,
		parser:   parser.NewEventParser(),
	}
}

// Describe implements Deployer
func (p *Process) Describe() string {
	return "process:" + strings.Join(append([]string{p.Command}, p.Args...), " ")
}

// Deploy checks that the command can be started. Each invocation is its own
// process, so there is no state to reset.
func (p *Process) Deploy(ctx context.Context) (FunctionUnderTest, error) {
	if p.Command == "" {
		return nil, unavailable("no command configured")
	}
	if p.Dir != "" {
		if info, err := os.Stat(p.Dir); err != nil || !info.IsDir() {
			return nil, unavailable("working directory %s is not usable", p.Dir)
		}
	}
	path, err := p.resolve()
	if err != nil {
		return nil, unavailable("resolve %s: %v", p.Command, err)
	}
	zap.L().Debug("Process collaborator ready", zap.String("path", path))
	return &processInstance{Process: p, path: path}, nil
}

// resolve finds the executable the way it will be started. A relative path
// such as ./oracle.sh is taken relative to Dir when Dir is set; bare names go
// through PATH. The result is absolute whenever it names a file.
func (p *Process) resolve() (string, error) {
	command := p.Command
	if p.Dir != "" && !filepath.IsAbs(command) && strings.ContainsRune(command, filepath.Separator) {
		command = filepath.Join(p.Dir, command)
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return "", err
	}
	if strings.ContainsRune(path, filepath.Separator) {
		return filepath.Abs(path)
	}
	return path, nil
}

type processInstance struct {
	*Process
	path string
}

func (pi *processInstance) Call(ctx context.Context, a, b int64) (*Call, error) {
	call := NewCall(uuid.NewString())

	args := append(append([]string{}, pi.Args...), strconv.FormatInt(a, 10), strconv.FormatInt(b, 10))
	cmd := exec.CommandContext(ctx, pi.path, args...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("%s=%s", InvocationEnv, call.ID),
		fmt.Sprintf("%s=%s", FunctionEnv, pi.Function),
	)
	cmd.Dir = pi.Dir
	// Children that keep stdout open must not hold the call past its deadline
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, unavailable("start %s: %v", pi.path, err)
		}
		return nil, fmt.Errorf("start %s: %w", pi.path, err)
	}

	go func() {
		err := cmd.Wait()
		events := pi.parser.ParseEvents(stdout.String())
		if err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg != "" {
				err = fmt.Errorf("%w: %s", err, msg)
			}
		}
		zap.L().Debug("Invocation finished",
			zap.String("invocation", call.ID),
			zap.Int64("a", a),
			zap.Int64("b", b),
			zap.Int("events", len(events)),
			zap.Error(err))
		call.Resolve(events, err)
	}()

	return call, nil
}

func (pi *processInstance) Close() error {
	return nil
}
