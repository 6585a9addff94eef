package commands

import (
	"context"
	"fmt"
)

// Start greets the user and then shows the command list.
type Start struct {
	help *Help
}

func NewStart(help *Help) *Start { return &Start{help: help} }

func (s *Start) Trigger() string  { return "/start" }
func (s *Start) Describe() string { return "Start interacting with the bot" }

func (s *Start) Execute(ctx context.Context, inv *Invocation) error {
	name := "there"
	if inv.Msg != nil && inv.Msg.Sender != nil && inv.Msg.Sender.FirstName != "" {
		name = inv.Msg.Sender.FirstName
	}
	greeting := fmt.Sprintf("Hello %s! I am up and running.", name)
	if err := inv.Bot.SendMessage(ctx, inv.ChatID(), greeting, nil); err != nil {
		return err
	}
	return s.help.Execute(ctx, inv)
}
