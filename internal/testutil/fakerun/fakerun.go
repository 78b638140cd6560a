// Package fakerun provides a scripted tools.CommandRunner for tests.
package fakerun

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/SizzinSeal/ZestCLI/internal/tools"
)

// Result is the scripted outcome of one run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int32
	Err      error
}

// Runner records every command and replays scripted results per tool name.
// Tools without a script succeed with empty output.
type Runner struct {
	Commands []tools.Command
	scripts  map[string][]Result
}

func New() *Runner {
	return &Runner{scripts: make(map[string][]Result)}
}

// On queues results for the tool matching name (full path or base name).
// The last queued result repeats once the queue drains.
func (r *Runner) On(name string, results ...Result) *Runner {
	if r.scripts == nil {
		r.scripts = make(map[string][]Result)
	}
	r.scripts[name] = append(r.scripts[name], results...)
	return r
}

func (r *Runner) Run(cmd tools.Command) (int32, error) {
	r.Commands = append(r.Commands, cmd)
	res := r.next(cmd.Name)
	if res.Stdout != "" && cmd.Stdout != nil {
		_, _ = io.WriteString(cmd.Stdout, res.Stdout)
	}
	if res.Stderr != "" && cmd.Stderr != nil {
		_, _ = io.WriteString(cmd.Stderr, res.Stderr)
	}
	if res.Err != nil {
		return res.ExitCode, res.Err
	}
	if res.ExitCode != 0 {
		return res.ExitCode, &tools.ExitError{Name: cmd.Name, Code: res.ExitCode}
	}
	return 0, nil
}

func (r *Runner) next(name string) Result {
	key := name
	queue, ok := r.scripts[key]
	if !ok {
		key = filepath.Base(name)
		queue, ok = r.scripts[key]
	}
	if !ok || len(queue) == 0 {
		return Result{}
	}
	res := queue[0]
	if len(queue) > 1 {
		r.scripts[key] = queue[1:]
	}
	return res
}

// Calls returns the recorded commands whose tool matches name.
func (r *Runner) Calls(name string) []tools.Command {
	var out []tools.Command
	for _, cmd := range r.Commands {
		if cmd.Name == name || filepath.Base(cmd.Name) == name {
			out = append(out, cmd)
		}
	}
	return out
}

// Called reports whether any command for name was run.
func (r *Runner) Called(name string) bool {
	return len(r.Calls(name)) > 0
}

// NotFound scripts a missing tool.
func NotFound(name string) Result {
	return Result{
		ExitCode: tools.ExitCodeNotFound,
		Err:      fmt.Errorf("%w: %s", tools.ErrToolNotFound, name),
	}
}

// CargoArtifact renders one cargo compiler-artifact JSON message line.
// An empty executable renders a library artifact.
func CargoArtifact(name string, executable string) string {
	msg := map[string]any{
		"reason":     "compiler-artifact",
		"package_id": name + " 0.1.0",
		"target": map[string]any{
			"name": name,
			"kind": []string{"bin"},
		},
		"executable": nil,
	}
	if executable != "" {
		msg["executable"] = executable
	} else {
		msg["target"] = map[string]any{"name": name, "kind": []string{"lib"}}
	}
	data, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	return string(data) + "\n"
}

// CargoFinished renders the trailing build-finished message line.
func CargoFinished(success bool) string {
	return fmt.Sprintf("{\"reason\":\"build-finished\",\"success\":%t}\n", success)
}
