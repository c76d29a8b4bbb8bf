package shell

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"
)

// REPL drives an interactive command loop over a Registry and Session,
// using liner for line editing and history.
type REPL struct {
	reg     *Registry
	session *Session

	historyPath string
}

// NewREPL builds a REPL bound to reg and session. historyPath, if non-empty,
// is read at Run and written back on exit.
func NewREPL(reg *Registry, session *Session, historyPath string) *REPL {
	return &REPL{reg: reg, session: session, historyPath: historyPath}
}

// Run starts the read-eval-print loop. It returns only on EOF (Ctrl-D),
// Ctrl-C, or an explicit "exit"/"quit" command — a command's own error never ends the
// session (spec.md §4.A: a malformed or failed command never aborts the
// host process).
func (r *REPL) Run(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if r.historyPath != "" {
		if f, err := os.Open(r.historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	line.SetCompleter(func(prefix string) []string {
		var out []string
		for _, n := range r.reg.Names() {
			if strings.HasPrefix(n, prefix) {
				out = append(out, n)
			}
		}
		return out
	})

	fmt.Println("flipsim shell. type 'help' for commands, 'exit' to quit.")

	for {
		input, err := line.Prompt("flipsim> ")
		if err != nil {
			break // EOF or Ctrl-C
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		name, rest := splitCommand(input)
		switch name {
		case "exit", "quit":
			r.saveHistory(line)
			return nil
		case "help":
			r.printHelp(rest)
			continue
		}

		if err := r.reg.Dispatch(ctx, r.session, name, rest); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}

	r.saveHistory(line)
	return nil
}

func (r *REPL) printHelp(name string) {
	if name != "" {
		cmd, ok := r.reg.Lookup(name)
		if !ok {
			fmt.Printf("no such command: %s\n", name)
			return
		}
		fmt.Printf("%s — %s\n", cmd.Name, cmd.Doc)
		return
	}
	fmt.Println("commands:")
	for _, n := range r.reg.Names() {
		cmd, _ := r.reg.Lookup(n)
		fmt.Printf("  %-14s %s\n", cmd.Name, cmd.Doc)
	}
}

func (r *REPL) saveHistory(line *liner.State) {
	if r.historyPath == "" {
		return
	}
	f, err := os.Create(r.historyPath)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}

// splitCommand splits "name rest-of-line" into its first whitespace-
// delimited token and the remainder, exactly as typed.
func splitCommand(input string) (name, rest string) {
	i := strings.IndexAny(input, " \t")
	if i < 0 {
		return input, ""
	}
	return input[:i], strings.TrimSpace(input[i+1:])
}
