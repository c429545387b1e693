// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/ollachat/internal/export"
	"github.com/jeranaias/ollachat/internal/inference"
	"github.com/jeranaias/ollachat/internal/model"
	"github.com/jeranaias/ollachat/internal/session"
	"github.com/jeranaias/ollachat/internal/turn"
	"github.com/jeranaias/ollachat/internal/util"
)

// =============================================================================
// ENVIRONMENT AND RESULT
// =============================================================================

// Env provides handlers with the application state they act on.
type Env struct {
	// Runner owns the session and handles uploads
	Runner *turn.Runner

	// Models is the configured model enumeration
	Models []string

	// ListModels asks the backend for its models; nil means use Models
	ListModels func(ctx context.Context) ([]string, error)

	// Export holds the default export directory and format
	Export export.Options

	// ReadFile reads uploads (default: os.ReadFile)
	ReadFile func(name string) ([]byte, error)

	Log *zap.Logger
}

func (e *Env) sessions() *session.Manager {
	return e.Runner.Sessions()
}

func (e *Env) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// Result is what a command hands back to the front-end.
type Result struct {
	// Output is shown to the user as a notice
	Output string

	// Quit asks the front-end to exit
	Quit bool

	// Deferred is read-only work that may block on the network. The
	// front-end runs it and shows the text it returns.
	Deferred func(ctx context.Context) (string, error)
}

// =============================================================================
// CONVERSATION HANDLERS
// =============================================================================

func handleNew(env *Env, args []string) (Result, error) {
	name, err := env.sessions().CreateConversation()
	return Result{Output: "Started " + name}, err
}

func handleRename(env *Env, args []string) (Result, error) {
	sess := env.sessions()
	oldName := sess.Active()
	newName := strings.TrimSpace(strings.Join(args, " "))

	if newName == "" || newName == oldName {
		return Result{Output: "Name unchanged"}, nil
	}
	if err := sess.RenameConversation(oldName, newName); err != nil {
		if errors.Is(err, session.ErrNameTaken) {
			return Result{}, fmt.Errorf("a conversation named %q already exists", newName)
		}
		return Result{Output: fmt.Sprintf("Renamed %q to %q", oldName, newName)}, err
	}
	return Result{Output: fmt.Sprintf("Renamed %q to %q", oldName, newName)}, nil
}

func handleDelete(env *Env, args []string) (Result, error) {
	sess := env.sessions()
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		name = sess.Active()
	}

	if err := sess.DeleteConversation(name); err != nil && errors.Is(err, session.ErrConversationNotFound) {
		return Result{}, fmt.Errorf("no conversation named %q", name)
	} else if err != nil {
		return Result{Output: "Deleted " + name}, err
	}
	return Result{Output: fmt.Sprintf("Deleted %s; now in %s", name, sess.Active())}, nil
}

func handleSwitch(env *Env, args []string) (Result, error) {
	sess := env.sessions()
	target := strings.TrimSpace(strings.Join(args, " "))
	names := sess.Names()

	// Exact names win over list numbers
	if !slices.Contains(names, target) {
		if n, err := strconv.Atoi(target); err == nil && n >= 1 && n <= len(names) {
			target = names[n-1]
		}
	}

	if err := sess.Select(target); err != nil {
		return Result{}, fmt.Errorf("no conversation named %q (see /list)", target)
	}
	return Result{Output: "Switched to " + target}, nil
}

func handleList(env *Env, args []string) (Result, error) {
	return Result{Output: FormatConversationList(env.sessions())}, nil
}

// FormatConversationList lists conversations, numbered from 1, with message
// counts and the active one marked.
func FormatConversationList(sess *session.Manager) string {
	active := sess.Active()
	var sb strings.Builder
	for i, name := range sess.Names() {
		msgs, _ := sess.Messages(name)

		marker := " "
		if name == active {
			marker = "*"
		}
		noun := "messages"
		if len(msgs) == 1 {
			noun = "message"
		}
		fmt.Fprintf(&sb, "%s %d. %s (%d %s)\n", marker, i+1, name, len(msgs), noun)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// =============================================================================
// MODEL HANDLERS
// =============================================================================

func handleModel(env *Env, args []string) (Result, error) {
	sess := env.sessions()
	if len(args) == 0 {
		return Result{Output: "Model: " + sess.Params().Model}, nil
	}

	id := strings.TrimSpace(args[0])
	if err := sess.SetModel(id); err != nil {
		return Result{}, err
	}

	out := "Model set to " + id
	if len(env.Models) > 0 && !slices.Contains(env.Models, id) {
		out += " (not in the configured model list)"
	}
	return Result{Output: out}, nil
}

func handleModels(env *Env, args []string) (Result, error) {
	current := env.sessions().Params().Model
	configured := slices.Clone(env.Models)

	if env.ListModels == nil {
		return Result{Output: FormatModelList(configured, current)}, nil
	}

	list := env.ListModels
	log := env.logger()
	return Result{
		Output: "Fetching models...",
		Deferred: func(ctx context.Context) (string, error) {
			ids, err := list(ctx)
			if err != nil {
				log.Info("model listing failed, using configured list", zap.Error(err))
				return "Could not list backend models: " + inference.Describe(err) + "\n" +
					"Configured models:\n" + FormatModelList(configured, current), nil
			}
			if len(ids) == 0 {
				return "The backend reports no models.\nConfigured models:\n" + FormatModelList(configured, current), nil
			}
			return FormatModelList(ids, current), nil
		},
	}, nil
}

// FormatModelList renders ids one per line with the current model marked.
func FormatModelList(ids []string, current string) string {
	var sb strings.Builder
	for _, info := range model.Catalog(ids) {
		marker := " "
		if info.ID == current {
			marker = "*"
		}
		sb.WriteString(marker + " " + info.Label() + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func handleTemp(env *Env, args []string) (Result, error) {
	sess := env.sessions()
	if len(args) == 0 {
		return Result{Output: fmt.Sprintf("Temperature: %.2f", sess.Params().Temperature)}, nil
	}

	t, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
	if err != nil {
		return Result{}, fmt.Errorf("%w: temperature %q is not a number", session.ErrOutOfRange, args[0])
	}
	if err := sess.SetTemperature(t); err != nil {
		return Result{}, err
	}
	return Result{Output: fmt.Sprintf("Temperature set to %.2f", t)}, nil
}

func handleTokens(env *Env, args []string) (Result, error) {
	sess := env.sessions()
	if len(args) == 0 {
		return Result{Output: fmt.Sprintf("Max tokens: %d", sess.Params().MaxTokens)}, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return Result{}, fmt.Errorf("%w: max tokens %q is not a whole number", session.ErrOutOfRange, args[0])
	}
	if err := sess.SetMaxTokens(n); err != nil {
		return Result{}, err
	}
	return Result{Output: fmt.Sprintf("Max tokens set to %d", n)}, nil
}

// =============================================================================
// FILE HANDLERS
// =============================================================================

func handleUpload(env *Env, args []string) (Result, error) {
	path, err := util.ExpandHome(strings.Join(args, " "))
	if err != nil {
		return Result{}, err
	}

	read := env.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	res, err := env.Runner.Upload(turn.File{Name: path, Data: data})
	return Result{Output: DescribeUpload(res)}, err
}

// DescribeUpload renders the acknowledgment for an upload and what became
// of its content.
func DescribeUpload(res turn.UploadResult) string {
	switch {
	case res.Err != nil:
		return res.Ack + "\nNo text was added: " + res.Err.Error()
	case !res.Appended:
		return res.Ack + "\nNo text was found in the file."
	default:
		return res.Ack + "\nIts text was added and goes with your next message."
	}
}

func handleExport(env *Env, args []string) (Result, error) {
	opts := env.Export
	all := false
	for _, arg := range args {
		if strings.EqualFold(arg, "all") {
			all = true
		} else {
			opts.Format = strings.ToLower(arg)
		}
	}

	lib := env.sessions().Library()
	doc := export.ForAll(lib)
	if !all {
		var err error
		doc, err = export.ForConversation(lib, env.sessions().Active())
		if err != nil {
			return Result{}, err
		}
	}

	path, err := export.WriteFile(doc, opts)
	if err != nil {
		return Result{}, err
	}
	env.logger().Info("conversation exported", zap.String("path", path), zap.Bool("all", all))
	return Result{Output: "Exported to " + path}, nil
}
