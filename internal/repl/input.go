package repl

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
)

// commands lists every shell command with its argument completions.
var commands = map[string][]string{
	"/list":    {"enabled", "disabled"},
	"/due":     nil,
	"/show":    nil,
	"/agenda":  nil,
	"/done":    nil,
	"/toggle":  nil,
	"/trigger": nil,
	"/delete":  nil,
	"/help":    nil,
	"/quit":    nil,
}

func (r *REPL) readInput() (string, error) {
	line, err := r.rl.Readline()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// parseCommand splits input into a command and its argument string. Known
// commands may be typed without the leading slash.
func (r *REPL) parseCommand(input string) (bool, string, string) {
	parts := strings.SplitN(input, " ", 2)
	command := strings.ToLower(parts[0])

	if !strings.HasPrefix(command, "/") {
		if _, ok := commands["/"+command]; !ok {
			return false, "", ""
		}
		command = "/" + command
	}

	args := ""
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	return true, command, args
}

func newCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for name, sub := range commands {
		children := make([]readline.PrefixCompleterInterface, 0, len(sub))
		for _, s := range sub {
			children = append(children, readline.PcItem(s))
		}
		items = append(items, readline.PcItem(name, children...))
	}
	return readline.NewPrefixCompleter(items...)
}

// historyPath keeps the shell history next to the database.
func historyPath(dbPath string) string {
	if dbPath == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(dbPath), "shell_history")
}

func setupReadline(historyFile string) (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		HistoryFile:         historyFile,
		HistoryLimit:        500,
		AutoComplete:        newCompleter(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
}

func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt)
}
