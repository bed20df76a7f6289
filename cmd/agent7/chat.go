package main

import (
	"fmt"
	"strings"

	"github.com/fentz26/agent7/internal/models"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the Agent7 chat agent",
}

var chatSendCmd = &cobra.Command{
	Use:   "send [message...]",
	Short: "Send a chat message",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChatSend,
}

var chatResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the chat conversation",
	RunE:  runChatReset,
}

func init() {
	chatCmd.AddCommand(chatSendCmd, chatResetCmd)

	chatResetCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
}

func runChatSend(cmd *cobra.Command, args []string) error {
	ctrl := newController(false, nil)

	before := len(ctrl.Snapshot().Chat)
	sendErr := ctrl.SendChat(cmd.Context(), strings.Join(args, " "))

	doc := ctrl.Snapshot()
	for _, m := range doc.Chat[before:] {
		if m.Type == models.ChatMessageUser {
			continue
		}
		fmt.Printf("%s: %s\n", m.Sender, m.Text)
	}
	printOutput(ctrl, 0)
	return sendErr
}

func runChatReset(cmd *cobra.Command, args []string) error {
	ctrl := newController(assumeYes, nil)
	if err := ctrl.ResetChat(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Chat reset")
	return nil
}
