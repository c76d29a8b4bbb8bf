package shell

import (
	"context"
	"fmt"

	"github.com/jihwankim/flipsim/internal/shellarg"
)

// Command is one named shell command: its parameter schema, a one-line
// doc string, and the typed handler invoked once the schema validates.
type Command struct {
	Name    string
	Doc     string
	Schema  shellarg.Schema
	Handler func(ctx context.Context, s *Session, v shellarg.Values) error
}

// Registry is the shell's user-command namespace.
type Registry struct {
	commands map[string]Command
	order    []string
}

// NewRegistry builds the registry hosting exactly the ten commands named in
// spec.md §6: listram, listreg, stop_delayed, inject, inject_reg,
// loginject, autoinject, snapinject, loop, appinject.
func NewRegistry() *Registry {
	r := &Registry{commands: map[string]Command{}}
	for _, c := range builtinCommands(r) {
		r.register(c)
	}
	return r
}

func (r *Registry) register(c Command) {
	r.commands[c.Name] = c
	r.order = append(r.order, c.Name)
}

// Names returns every registered command name in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the named command, if registered.
func (r *Registry) Lookup(name string) (Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// Dispatch tokenizes raw against name's schema and runs its handler.
// A schema violation or handler error is returned, never panics or exits —
// the caller (the REPL) prints it and keeps the session alive.
func (r *Registry) Dispatch(ctx context.Context, s *Session, name, raw string) error {
	cmd, ok := r.commands[name]
	if !ok {
		return fmt.Errorf("shell: unknown command %q", name)
	}
	vals, err := shellarg.Parse(cmd.Schema, raw)
	if err != nil {
		return err
	}
	return cmd.Handler(ctx, s, vals)
}
