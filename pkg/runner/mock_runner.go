package runner

import (
	"context"
	"sync"
)

// Ensure MockRunner implements Runner
var _ Runner = (*MockRunner)(nil)

// Call records one invocation made through a MockRunner.
type Call struct {
	Name string
	Args []string
}

// String renders the call as a command line.
func (c Call) String() string { return CommandLine(c.Name, c.Args...) }

// HasArg reports whether the call's arguments contain arg.
func (c Call) HasArg(arg string) bool {
	for _, a := range c.Args {
		if a == arg {
			return true
		}
	}
	return false
}

// HandlerFunc produces the scripted outcome for a call.
type HandlerFunc func(name string, args []string) (*Result, error)

// MockRunner is a scripted Runner for tests. Calls are recorded in order.
// When Handler is nil every command succeeds with empty output.
type MockRunner struct {
	Handler HandlerFunc

	mu    sync.Mutex
	calls []Call
}

// NewMockRunner creates a mock runner that answers every call with handler.
func NewMockRunner(handler HandlerFunc) *MockRunner {
	return &MockRunner{Handler: handler}
}

// Run records the call and returns the handler's outcome. A Result with a
// non-zero ExitCode is turned into an *ExitError, matching ExecRunner.
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Name: name, Args: append([]string(nil), args...)})
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.Handler == nil {
		return &Result{}, nil
	}

	result, err := m.Handler(name, args)
	if err != nil {
		return result, err
	}
	if result == nil {
		result = &Result{}
	}
	if result.ExitCode != 0 {
		return result, &ExitError{Name: name, Args: args, Result: result}
	}
	return result, nil
}

// Calls returns a copy of all recorded calls.
func (m *MockRunner) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallsMatching returns recorded calls to name whose arguments contain every
// entry of args.
func (m *MockRunner) CallsMatching(name string, args ...string) []Call {
	var matched []Call
	for _, c := range m.Calls() {
		if c.Name != name {
			continue
		}
		ok := true
		for _, a := range args {
			if !c.HasArg(a) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, c)
		}
	}
	return matched
}

// Fail returns a Result describing a failed command with the given stderr.
func Fail(code int, stderr string) *Result {
	return &Result{ExitCode: code, Stderr: stderr}
}

// Output returns a successful Result with the given stdout.
func Output(stdout string) *Result {
	return &Result{Stdout: stdout}
}

