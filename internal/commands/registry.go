// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/ollachat/internal/util"
)

// ErrUnknownCommand is returned by Execute for a name that is not registered.
var ErrUnknownCommand = errors.New("unknown command")

// ErrNotCommand is returned by Execute for input that is a message.
var ErrNotCommand = errors.New("not a command")

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/model <name>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Run executes the command
	Run func(env *Env, args []string) (Result, error)

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString       ArgType = iota // Free-form string
	ArgTypeModel                       // Model identifier
	ArgTypeConversation                // Conversation name
	ArgTypeFile                        // File path
	ArgTypeEnum                        // One of predefined values
)

// Help categories, in display order.
var categoryOrder = []string{"Conversation", "Model", "Files", "General"}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands in registration order.
type Registry struct {
	order    []*Command
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry, replacing one of the same name.
func (r *Registry) Register(cmd *Command) {
	if _, exists := r.commands[cmd.Name]; !exists {
		r.order = append(r.order, cmd)
	} else {
		for i, c := range r.order {
			if c.Name == cmd.Name {
				r.order[i] = cmd
			}
		}
	}
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands in registration order.
func (r *Registry) All() []*Command {
	return append([]*Command(nil), r.order...)
}

// ByCategory returns commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.order {
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// Execute parses input and runs the command it names.
func (r *Registry) Execute(env *Env, input string) (Result, error) {
	parsed := NewParser(r).Parse(input)
	if !parsed.IsCommand {
		return Result{}, ErrNotCommand
	}
	if parsed.Command == nil {
		return Result{}, fmt.Errorf("%w: %s (try /help)", ErrUnknownCommand, parsed.CommandName)
	}
	if err := ValidateArgs(parsed.Command, parsed.Args); err != nil {
		return Result{}, err
	}
	return parsed.Command.Run(env, parsed.Args)
}

// Help renders the command list grouped by category.
func (r *Registry) Help() string {
	groups := r.ByCategory()

	width := 0
	for _, cmd := range r.order {
		width = max(width, util.StringWidth(usage(cmd)))
	}

	var sb strings.Builder
	for _, category := range categoryOrder {
		cmds := groups[category]
		if len(cmds) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(category + "\n")
		for _, cmd := range cmds {
			sb.WriteString("  " + util.PadRight(usage(cmd), width) + "  " + cmd.Description + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// HelpFor renders the detail for one command.
func (r *Registry) HelpFor(name string) (string, error) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	cmd := r.Get(strings.ToLower(name))
	if cmd == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	var sb strings.Builder
	sb.WriteString(usage(cmd) + "\n  " + cmd.Description)
	if len(cmd.Aliases) > 0 {
		sb.WriteString("\n  Aliases: " + strings.Join(cmd.Aliases, ", "))
	}
	for _, arg := range cmd.Args {
		req := "optional"
		if arg.Required {
			req = "required"
		}
		sb.WriteString(fmt.Sprintf("\n  %s (%s): %s", arg.Name, req, arg.Description))
	}
	return sb.String(), nil
}

func usage(cmd *Command) string {
	if cmd.Usage != "" {
		return cmd.Usage
	}
	return cmd.Name
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Conversation commands
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new conversation",
		Category:    "Conversation",
		Run:         handleNew,
	})

	r.Register(&Command{
		Name:        "/rename",
		Description: "Rename the active conversation",
		Usage:       "/rename <name>",
		Args: []ArgDef{
			{Name: "name", Required: true, Type: ArgTypeString, Description: "New conversation name"},
		},
		Category: "Conversation",
		Run:      handleRename,
	})

	r.Register(&Command{
		Name:        "/delete",
		Aliases:     []string{"/del"},
		Description: "Delete a conversation (default: the active one)",
		Usage:       "/delete [name]",
		Args: []ArgDef{
			{Name: "name", Type: ArgTypeConversation, Description: "Conversation to delete"},
		},
		Category: "Conversation",
		Run:      handleDelete,
	})

	r.Register(&Command{
		Name:        "/switch",
		Aliases:     []string{"/s"},
		Description: "Switch to a conversation by name or number",
		Usage:       "/switch <name|number>",
		Args: []ArgDef{
			{Name: "conversation", Required: true, Type: ArgTypeConversation, Description: "Conversation name or list number"},
		},
		Category: "Conversation",
		Run:      handleSwitch,
	})

	r.Register(&Command{
		Name:        "/list",
		Aliases:     []string{"/ls"},
		Description: "List conversations",
		Category:    "Conversation",
		Run:         handleList,
	})

	// Model commands
	r.Register(&Command{
		Name:        "/model",
		Aliases:     []string{"/m"},
		Description: "Show or switch the model",
		Usage:       "/model [name]",
		Args: []ArgDef{
			{Name: "name", Type: ArgTypeModel, Description: "Model to switch to"},
		},
		Category: "Model",
		Run:      handleModel,
	})

	r.Register(&Command{
		Name:        "/models",
		Description: "List available models",
		Category:    "Model",
		Run:         handleModels,
	})

	r.Register(&Command{
		Name:        "/temp",
		Aliases:     []string{"/temperature"},
		Description: "Show or set the temperature (0 to 1.5)",
		Usage:       "/temp [value]",
		Args: []ArgDef{
			{Name: "value", Type: ArgTypeString, Description: "Temperature between 0 and 1.5"},
		},
		Category: "Model",
		Run:      handleTemp,
	})

	r.Register(&Command{
		Name:        "/tokens",
		Aliases:     []string{"/max-tokens"},
		Description: "Show or set the reply token limit (64 to 4000)",
		Usage:       "/tokens [n]",
		Args: []ArgDef{
			{Name: "n", Type: ArgTypeString, Description: "Maximum reply tokens between 64 and 4000"},
		},
		Category: "Model",
		Run:      handleTokens,
	})

	// File commands
	r.Register(&Command{
		Name:        "/upload",
		Aliases:     []string{"/u"},
		Description: "Add a file's text to the conversation",
		Usage:       "/upload <path>",
		Args: []ArgDef{
			{Name: "path", Required: true, Type: ArgTypeFile, Description: "File to read (txt, py, md, json, yaml, csv, pdf)"},
		},
		Category: "Files",
		Run:      handleUpload,
	})

	r.Register(&Command{
		Name:        "/export",
		Description: "Export the conversation (or all) to a file",
		Usage:       "/export [all] [txt|md|json]",
		Args: []ArgDef{
			{Name: "scope", Type: ArgTypeEnum, Values: []string{"all", "txt", "md", "json"}, Description: "\"all\" or a format"},
			{Name: "format", Type: ArgTypeEnum, Values: []string{"all", "txt", "md", "json"}, Description: "Export format"},
		},
		Category: "Files",
		Run:      handleExport,
	})

	// General
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show help and available commands",
		Usage:       "/help [command]",
		Args: []ArgDef{
			{Name: "command", Type: ArgTypeString, Description: "Command to describe"},
		},
		Category: "General",
		Run: func(env *Env, args []string) (Result, error) {
			if len(args) > 0 {
				text, err := r.HelpFor(args[0])
				return Result{Output: text}, err
			}
			return Result{Output: r.Help()}, nil
		},
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit ollachat",
		Category:    "General",
		Run: func(env *Env, args []string) (Result, error) {
			return Result{Quit: true}, nil
		},
	})
}
