package core

import (
	"errors"
	"sync"

	"godaq/protocol"
)

var (
	// ErrUnknownCommand is returned for a letter with no registered handler
	ErrUnknownCommand = errors.New("unknown command")

	// ErrSyntax is returned when a line carries the wrong number of parameters
	ErrSyntax = errors.New("command syntax error")

	// ErrDuplicateCommand is returned when a letter is registered twice
	ErrDuplicateCommand = errors.New("command already registered")
)

// Response lines for failed commands.
const (
	SettingErrorMessage = protocol.ResponseSettingError + protocol.LineEnd
	SyntaxErrorMessage  = protocol.ResponseSyntaxError + protocol.LineEnd
)

// CommandHandler handles a decoded line and writes its response into out
type CommandHandler func(line *protocol.Line, out *protocol.ScratchOutput) error

// Command represents one single-letter command
type Command struct {
	Letter  byte
	Name    string
	Params  int
	Format  string // Parameter list for the help listing (e.g., "ch,mV")
	Handler CommandHandler
}

// CommandRegistry holds all registered commands
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[byte]*Command
	order    []byte
	help     string // Serialized listing for the '?' command
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[byte]*Command),
	}
}

// Register adds a command to the registry
func (r *CommandRegistry) Register(letter byte, name string, params int, format string, handler CommandHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[letter]; exists {
		return ErrDuplicateCommand
	}

	r.commands[letter] = &Command{
		Letter:  letter,
		Name:    name,
		Params:  params,
		Format:  format,
		Handler: handler,
	}
	r.order = append(r.order, letter)

	r.rebuildHelp()
	return nil
}

// GetCommand retrieves a command by letter
func (r *CommandRegistry) GetCommand(letter byte) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[letter]
	return cmd, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler for line after checking its parameter count
func (r *CommandRegistry) Dispatch(line *protocol.Line, out *protocol.ScratchOutput) error {
	cmd, ok := r.GetCommand(line.Cmd)
	if !ok {
		return ErrUnknownCommand
	}
	if line.Count != cmd.Params {
		return ErrSyntax
	}
	return cmd.Handler(line, out)
}

// Help returns the command listing
func (r *CommandRegistry) Help() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.help
}

// rebuildHelp rebuilds the listing in registration order
// Must be called with lock held
func (r *CommandRegistry) rebuildHelp() {
	help := ""
	for _, letter := range r.order {
		cmd := r.commands[letter]
		help += string(cmd.Letter)
		if cmd.Format != "" {
			help += cmd.Format
		}
		help += " " + cmd.Name + protocol.LineEnd
	}
	r.help = help
}
