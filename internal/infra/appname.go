package infra

import (
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/eliteGoblin/clipguard/internal/domain"
)

// UnknownApp is substituted whenever the foreground application
// cannot be resolved. The policy evaluator treats it like any other
// unrecognized name (default-block while the guard is active).
const UnknownApp = "Unknown"

// CommandRunner abstracts command execution for testing.
type CommandRunner interface {
	Run(name string, args ...string) error
	Output(name string, args ...string) ([]byte, error)
}

// RealCommandRunner executes real system commands.
type RealCommandRunner struct{}

// Run executes a command and waits for it to complete.
func (r *RealCommandRunner) Run(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Output executes a command and returns its stdout.
func (r *RealCommandRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// appNameStrategy resolves the foreground application name on one
// platform. Strategies are tried in order; the first non-empty answer
// wins.
type appNameStrategy interface {
	Name() string
	Resolve() (string, bool)
}

// AppResolverImpl implements domain.AppResolver with per-platform
// strategies.
type AppResolverImpl struct {
	strategies []appNameStrategy
	logger     *zap.Logger
}

// NewAppResolver creates a resolver with the strategies available on
// this platform.
func NewAppResolver(logger *zap.Logger) *AppResolverImpl {
	runner := &RealCommandRunner{}

	var strategies []appNameStrategy
	switch runtime.GOOS {
	case "darwin":
		strategies = append(strategies, &osascriptStrategy{runner: runner})
	case "linux":
		strategies = append(strategies, &x11Strategy{runner: runner})
	}

	return &AppResolverImpl{strategies: strategies, logger: logger}
}

// NewAppResolverWithStrategies creates a resolver with injected
// strategies (for testing).
func NewAppResolverWithStrategies(logger *zap.Logger, strategies ...appNameStrategy) *AppResolverImpl {
	return &AppResolverImpl{strategies: strategies, logger: logger}
}

// ActiveAppName returns the foreground application name, or
// UnknownApp on any platform/permission failure. Never errors: a
// lookup failure must not stall a poll tick.
func (r *AppResolverImpl) ActiveAppName() string {
	for _, s := range r.strategies {
		if name, ok := s.Resolve(); ok && name != "" {
			return name
		}
		r.logger.Debug("app name strategy failed", zap.String("strategy", s.Name()))
	}
	return UnknownApp
}

// osascriptStrategy asks System Events for the frontmost process.
type osascriptStrategy struct {
	runner CommandRunner
}

func (s *osascriptStrategy) Name() string { return "osascript" }

func (s *osascriptStrategy) Resolve() (string, bool) {
	out, err := s.runner.Output("osascript", "-e",
		`tell application "System Events" to get name of first application process whose frontmost is true`)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(out)), true
}

// x11Strategy resolves the active window's PID via xprop and looks up
// the owning process name with gopsutil.
type x11Strategy struct {
	runner CommandRunner
}

func (s *x11Strategy) Name() string { return "x11" }

func (s *x11Strategy) Resolve() (string, bool) {
	out, err := s.runner.Output("xprop", "-root", "_NET_ACTIVE_WINDOW")
	if err != nil {
		return "", false
	}
	windowID := lastField(string(out))
	if windowID == "" {
		return "", false
	}

	out, err = s.runner.Output("xprop", "-id", windowID, "_NET_WM_PID")
	if err != nil {
		return "", false
	}
	pid, err := strconv.Atoi(lastField(string(out)))
	if err != nil {
		return "", false
	}

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", false
	}
	name, err := proc.Name()
	if err != nil {
		return "", false
	}
	return name, true
}

func lastField(s string) string {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Ensure AppResolverImpl implements domain.AppResolver.
var _ domain.AppResolver = (*AppResolverImpl)(nil)
