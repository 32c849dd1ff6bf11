// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command for the askai CLI.
//
// USABILITY: Markdown rendering and history for better CLI experience
//
// Commands:
//   askai chat              Start a new conversation
//   askai chat <id>         Resume a conversation
//   askai chat list         List saved conversations
//   askai chat delete <id>  Delete a conversation
//
// Conversations persist in SQLite; recent messages replay as context for
// each completion, capped by chat.max_context_messages.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/askai/internal/cloud"
	"github.com/jeranaias/askai/internal/config"
	"github.com/jeranaias/askai/internal/model"
	"github.com/jeranaias/askai/internal/storage"
	"github.com/jeranaias/askai/internal/util"
)

// chatHistoryFile is the liner input-history file name under the config dir.
const chatHistoryFile = "chat_history"

// chatClient is the completion surface the REPL needs; narrowed for tests.
type chatClient interface {
	Complete(ctx context.Context, messages []model.Message, cfg model.ModelConfiguration) (*cloud.Response, error)
}

// HandleChatCommand handles the "chat" command.
func HandleChatCommand(args Args) error {
	cfg := config.Global()

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return WrapError(err, "failed to resolve database path")
	}
	store, err := storage.Open(dbPath, cfg.Chat.MaxContextMessages)
	if err != nil {
		return WrapError(err, "failed to open chat history")
	}
	defer store.Close()

	ctx := context.Background()

	switch args.Subcommand {
	case "list", "ls":
		return handleChatList(ctx, store)
	case "delete", "rm":
		if args.Query == "" {
			return ErrMissingArgument("conversation id", "askai chat delete <id>")
		}
		if err := store.DeleteConversation(ctx, args.Query); err != nil {
			return err
		}
		Notice(args, "Deleted conversation %s", args.Query)
		return nil
	}

	if !IsTTY() {
		return fmt.Errorf("chat requires an interactive terminal")
	}

	modelName := args.Model
	if modelName == "" {
		modelName = cfg.DefaultModel
	}

	// First positional is a conversation id to resume.
	var conv *storage.Conversation
	if args.Subcommand != "" {
		conv, err = store.GetConversation(ctx, args.Subcommand)
		if err != nil {
			return err
		}
	} else {
		conv, err = store.CreateConversation(ctx, "", modelName)
		if err != nil {
			return WrapError(err, "failed to create conversation")
		}
	}

	client := newCloudClient(cfg)
	if !client.IsConfigured() {
		return fmt.Errorf("no API key configured: run 'askai setup' or set OPENROUTER_API_KEY")
	}

	return runChatLoop(ctx, cfg, args, store, client, conv, modelName)
}

// handleChatList prints saved conversations, most recent first.
func handleChatList(ctx context.Context, store *storage.Store) error {
	convs, err := store.ListConversations(ctx)
	if err != nil {
		return WrapError(err, "failed to list conversations")
	}

	fmt.Println(TitleStyle.Render("Conversations"))
	if len(convs) == 0 {
		fmt.Println(DimStyle.Render("  (none - start one with 'askai chat')"))
		return nil
	}
	for _, c := range convs {
		// UNICODE: pad by display width so CJK titles keep the columns aligned.
		title := util.TruncateWidth(c.Title, 48)
		title += strings.Repeat(" ", 50-util.StringWidth(title))
		fmt.Printf("  %s  %s%s\n",
			DimStyle.Render(c.ID[:8]),
			ValueStyle.Render(title),
			DimStyle.Render(fmt.Sprintf("%d msgs, %s", c.MessageCount, c.UpdatedAt.Format("2006-01-02 15:04"))))
	}
	return nil
}

// runChatLoop is the interactive REPL.
func runChatLoop(ctx context.Context, cfg *config.Config, args Args, store *storage.Store, client chatClient, conv *storage.Conversation, modelName string) error {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	historyPath := ""
	if dir, err := config.ConfigDir(); err == nil {
		historyPath = filepath.Join(dir, chatHistoryFile)
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Printf("%s %s\n", TitleStyle.Render("askai chat"), DimStyle.Render("("+modelName+")"))
	fmt.Println(DimStyle.Render("Conversation " + conv.ID[:8] + " - /help for commands, /exit to leave"))
	fmt.Println(RenderSeparator(60))

	replay, err := store.RecentMessages(ctx, conv.ID)
	if err != nil {
		return WrapError(err, "failed to load conversation history")
	}
	for _, msg := range replay {
		printStoredMessage(msg)
	}

	modelCfg := resolveModelConfig(cfg, modelName, nil, cfg.WebSearch.Enabled)

	for {
		input, err := line.Prompt("> ")
		if err != nil {
			// Ctrl+C or Ctrl+D ends the session.
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if done := handleChatSlashCommand(input, conv); done {
				break
			}
			continue
		}

		if err := store.AppendMessage(ctx, conv.ID, model.RoleUser.String(), input); err != nil {
			Warn(args, "failed to persist message: %v", err)
		}

		history, err := store.RecentMessages(ctx, conv.ID)
		if err != nil {
			return WrapError(err, "failed to load context")
		}

		spinner := NewSpinner("Thinking", args)
		spinner.Start()
		resp, err := client.Complete(ctx, toModelMessages(history), modelCfg)
		spinner.Stop()
		if err != nil {
			DisplayError(WrapError(err, "completion failed"))
			continue
		}

		content := resp.Content()
		displayResponse(content, cfg.ResponseFormat, cfg.Output.RenderMarkdown)

		if err := store.AppendMessage(ctx, conv.ID, model.RoleAssistant.String(), content); err != nil {
			Warn(args, "failed to persist response: %v", err)
		}
	}

	if historyPath != "" {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}

	fmt.Println(DimStyle.Render("\nResume later with: askai chat " + conv.ID))
	return nil
}

// handleChatSlashCommand handles in-REPL commands. Returns true when the
// loop should end.
func handleChatSlashCommand(input string, conv *storage.Conversation) bool {
	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/exit", "/quit", "/q":
		return true
	case "/id":
		fmt.Println(conv.ID)
	case "/help":
		fmt.Println(DimStyle.Render("  /id    Show the conversation id"))
		fmt.Println(DimStyle.Render("  /exit  Leave the chat (also Ctrl+D)"))
	default:
		fmt.Println(WarningStyle.Render("Unknown command: " + input))
	}
	return false
}

// printStoredMessage replays one persisted message when resuming.
func printStoredMessage(msg storage.StoredMessage) {
	switch model.Role(msg.Role) {
	case model.RoleUser:
		fmt.Printf("%s %s\n", DimStyle.Render(">"), msg.Content)
	case model.RoleAssistant:
		fmt.Println(msg.Content)
	}
}

// toModelMessages converts persisted history into request messages. The
// store keeps roles as plain strings; they map back onto model.Role here.
func toModelMessages(history []storage.StoredMessage) []model.Message {
	messages := make([]model.Message, 0, len(history))
	for _, msg := range history {
		messages = append(messages, model.Message{
			Role:  model.Role(msg.Role),
			Parts: []model.ContentPart{model.TextPart(msg.Content)},
		})
	}
	return messages
}
