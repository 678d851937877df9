// Package automation maps well-known message payloads to local OS commands.
package automation

import (
	"context"
	"errors"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"mqtt-client-gui/internal/eventbus"
	"mqtt-client-gui/internal/logger"
)

const component = "Automation"

var ErrNoAutomation = errors.New("no automation for this message")

// Command is one entry of the action table
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner executes a command and returns its combined output
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecRunner runs commands as child processes
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, cmd Command) ([]byte, error) {
	return exec.CommandContext(ctx, cmd.Name, cmd.Args...).CombinedOutput()
}

// Result describes a finished action
type Result struct {
	Action   string
	Command  Command
	Output   string
	Err      error
	Duration time.Duration
}

type Automator struct {
	actions map[string]Command
	runner  Runner
	logger  logger.Logger
	events  *eventbus.Bus

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	wg     sync.WaitGroup
}

// New builds an automator over the given action table
func New(actions map[string]Command, runner Runner, log logger.Logger) *Automator {
	if runner == nil {
		runner = ExecRunner{}
	}
	if log == nil {
		log = logger.NoOpLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Automator{
		actions: actions,
		runner:  runner,
		logger:  log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Actions lists the payloads that trigger a command
func (a *Automator) Actions() []string {
	names := make([]string, 0, len(a.actions))
	for name := range a.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the command bound to payload
func (a *Automator) Lookup(payload string) (Command, bool) {
	cmd, ok := a.actions[payload]
	return cmd, ok
}

// Perform runs the command bound to payload and waits for it to exit
func (a *Automator) Perform(ctx context.Context, payload string) (Result, error) {
	cmd, ok := a.Lookup(payload)
	if !ok {
		a.logger.Debug(component, "No Automation for this message.", map[string]interface{}{
			"payload": payload,
		})
		return Result{Action: payload}, ErrNoAutomation
	}

	a.logger.Info(component, "running action", map[string]interface{}{
		"action":  payload,
		"command": cmd.String(),
	})

	started := time.Now()
	out, err := a.runner.Run(ctx, cmd)
	result := Result{
		Action:   payload,
		Command:  cmd,
		Output:   string(out),
		Err:      err,
		Duration: time.Since(started),
	}

	fields := map[string]interface{}{
		"action":   payload,
		"output":   strings.TrimSpace(result.Output),
		"duration": result.Duration.String(),
	}
	if err != nil {
		a.logger.Error(component, err, fields)
	} else {
		a.logger.Info(component, "action finished", fields)
	}

	a.report(result)
	return result, err
}

// Attach performs actions for every received message. Commands run in the
// background so a long-running action never stalls event delivery.
func (a *Automator) Attach(bus *eventbus.Bus) {
	a.events = bus
	bus.Subscribe(eventbus.EventMessage, eventbus.NewHandlerFunc(func(e eventbus.Event) {
		payload := e.String("payload")
		if _, ok := a.Lookup(payload); !ok {
			return
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		if a.ctx.Err() != nil {
			a.logger.Debug(component, "action skipped after shutdown", map[string]interface{}{
				"action": payload,
			})
			return
		}

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			_, _ = a.Perform(a.ctx, payload)
		}()
	}))
}

// Shutdown cancels running commands and waits for them to exit. Messages
// delivered afterwards are ignored.
func (a *Automator) Shutdown() {
	a.mu.Lock()
	a.cancel()
	a.mu.Unlock()
	a.wg.Wait()
}

func (a *Automator) report(result Result) {
	if a.events == nil {
		return
	}
	outcome := "success"
	if result.Err != nil {
		outcome = "failure"
	}
	a.events.Publish(eventbus.Event{
		Type: eventbus.EventAutomation,
		Data: map[string]interface{}{
			"action": result.Action,
			"result": outcome,
		},
	})
}
