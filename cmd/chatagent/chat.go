package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
	"github.com/ChamsBouzaiene/chatagent/internal/session"
)

const chatHelp = `Commands:
  help     show this help
  tools    list the available tools
  history  print the conversation so far
  reset    start a new conversation
  exit     quit (also: quit)`

type chatOptions struct {
	message   string
	sessionID string
	markdown  bool
}

func newChatCommand(a *app) *cobra.Command {
	opts := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the agent (interactive, or one-shot with -m)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runChat(ctx, a, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "send one message, print the reply and exit")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "resume a saved session")
	cmd.Flags().BoolVar(&opts.markdown, "markdown", false, "render replies as markdown")
	return cmd
}

// chatSession ties an engine to its persisted transcript.
type chatSession struct {
	env    *runtimeEnv
	eng    *engine.Engine
	sess   *session.Session
	render func(string) string
	out    io.Writer
}

func runChat(ctx context.Context, a *app, opts *chatOptions, out io.Writer) error {
	env, err := prepareRuntimeEnv(ctx, a.cfg, a.logger, runtimeOptions{})
	if err != nil {
		return err
	}
	defer env.Close()

	eng, err := env.newEngine()
	if err != nil {
		return err
	}

	cs := &chatSession{env: env, eng: eng, out: out, render: plainRenderer}
	if opts.markdown {
		cs.render = markdownRenderer(a)
	}
	if err := cs.open(opts.sessionID); err != nil {
		return err
	}

	if opts.message != "" {
		cs.turn(ctx, opts.message)
		return nil
	}
	return cs.repl(ctx)
}

func (cs *chatSession) open(id string) error {
	store := cs.env.Sessions
	if id == "" {
		if store != nil {
			cs.sess = session.New(cs.env.Resolved.Provider, cs.env.Resolved.Model)
		}
		return nil
	}
	if store == nil {
		return errors.New("sessions are disabled (sessions.enabled=false)")
	}
	sess, err := store.Load(id)
	if err != nil {
		return err
	}
	if err := cs.eng.LoadHistory(sess.History); err != nil {
		return err
	}
	cs.sess = sess
	fmt.Fprintf(cs.out, "Resumed session %s (%q, %d messages)\n", sess.ID, sess.Title, len(sess.History))
	return nil
}

func (cs *chatSession) turn(ctx context.Context, input string) {
	reply := cs.eng.Chat(ctx, input)
	fmt.Fprintf(cs.out, "Assistant: %s\n", cs.render(reply))
	cs.save(ctx)
}

// save persists the transcript; failures are logged and never end the chat.
func (cs *chatSession) save(ctx context.Context) {
	if cs.sess == nil {
		return
	}
	cs.sess.History = cs.eng.History()
	if cs.sess.Title == "" && len(cs.sess.History) > 0 {
		title, err := session.NewSummarizer(cs.env.LLM).GenerateTitle(ctx, cs.sess.History)
		if err != nil {
			cs.env.Logger.Debug().Err(err).Msg("generate session title")
		}
		cs.sess.Title = title
	}
	if err := cs.env.Sessions.Save(cs.sess); err != nil {
		cs.env.Logger.Warn().Err(err).Str("session", cs.sess.ID).Msg("save session")
	}
}

func (cs *chatSession) repl(ctx context.Context) error {
	rl, err := readline.New("You: ")
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(cs.out, "Chat agent ready (%s, model %s). Type 'help' for commands.\n", cs.env.Resolved.Provider, cs.env.Resolved.Model)
	if cs.sess != nil {
		fmt.Fprintf(cs.out, "Session: %s\n", cs.sess.ID)
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			fmt.Fprintln(cs.out, "Goodbye!")
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		input := strings.TrimSpace(line)
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(cs.out, "Goodbye!")
			return nil
		case "help":
			fmt.Fprintln(cs.out, chatHelp)
		case "tools":
			for _, t := range cs.env.Tools.All() {
				fmt.Fprintf(cs.out, "- %s: %s\n", t.Name(), t.Description())
			}
		case "history":
			for _, m := range cs.eng.History() {
				fmt.Fprintf(cs.out, "[%s] %s\n", m.Role, m.Content)
			}
		case "reset":
			cs.eng.Reset()
			if cs.sess != nil {
				cs.sess = session.New(cs.env.Resolved.Provider, cs.env.Resolved.Model)
			}
			fmt.Fprintln(cs.out, "Conversation reset.")
		default:
			cs.turn(ctx, input)
		}
	}
}

func plainRenderer(s string) string { return s }

func markdownRenderer(a *app) func(string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		a.logger.Warn().Err(err).Msg("markdown renderer unavailable")
		return plainRenderer
	}
	return func(s string) string {
		styled, err := r.Render(s)
		if err != nil {
			return s
		}
		return "\n" + strings.TrimSpace(styled)
	}
}
