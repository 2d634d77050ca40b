package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casualjim/parley"
	"github.com/casualjim/parley/conversation"
	"github.com/casualjim/parley/pkg/slogx"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "interactive multi-turn conversation, type exit to quit",
		Flags: append(providerFlags(),
			&cli.StringFlag{
				Name:  "system",
				Usage: "system prompt for a new conversation",
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "resume and save the conversation under this name (needs side_store.enabled)",
			},
			&cli.BoolFlag{
				Name:  "render",
				Usage: "render replies as markdown instead of streaming them",
			},
		),
		Action: chatAction,
	}
}

func chatAction(ctx context.Context, cmd *cli.Command) error {
	tk, err := newToolkit(cmd)
	if err != nil {
		return err
	}
	defer tk.Close()

	session := cmd.String("session")
	id := resume(tk, session)
	if id == "" {
		id = tk.CreateConversation(cmd.String("system"))
	}

	out := cmd.Root().Writer
	options := callOptions(cmd)
	scanner := bufio.NewScanner(cmd.Root().Reader)

	for {
		fmt.Fprintf(out, "%s: ", color.CyanString("User"))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") {
			break
		}

		fmt.Fprint(out, color.MagentaString("Assistant")+": ")
		if cmd.Bool("render") {
			reply, err := tk.SendCompletion(ctx, id, input, options...)
			if err != nil {
				return err
			}
			if err := render(out, reply); err != nil {
				return err
			}
		} else {
			_, err := tk.StreamCompletion(ctx, id, input, func(chunk string) {
				fmt.Fprint(out, chunk)
			}, options...)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
		}

		if session != "" {
			if err := tk.PersistConversation(id); err != nil {
				slog.WarnContext(ctx, "could not persist conversation", slogx.Conversation(id), slogx.Error(err))
			}
			tk.SaveSession(session, id)
		}
	}
	return scanner.Err()
}

// resume returns the id of the conversation saved under session, or "" when
// there is none to restore.
func resume(tk *parley.Toolkit, session string) string {
	if session == "" {
		return ""
	}
	id, ok := tk.LoadSession(session)
	if !ok {
		return ""
	}
	conv, err := tk.RestoreConversation(id)
	if err != nil {
		if !errors.Is(err, conversation.ErrNotFound) {
			slog.Warn("could not restore conversation", slog.String("session", session), slogx.Error(err))
		}
		return ""
	}
	return conv.ID
}
