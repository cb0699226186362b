package recovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/yndrdev/totalrecover/internal/cli"
	"github.com/yndrdev/totalrecover/internal/constants"
	"github.com/yndrdev/totalrecover/internal/models"
)

type MessageCmd struct {
	Patient string `arg:"" help:"Patient ID, ID prefix or name."`
	Body    string `arg:"" help:"Message text."`
	Role    string `short:"r" default:"patient" enum:"patient,assistant,provider" help:"Sender role (patient|assistant|provider)."`
}

func (c *MessageCmd) Validate() error {
	if strings.TrimSpace(c.Body) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}

func (c *MessageCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePatient(c.Patient)
	if err != nil {
		return err
	}
	msg, err := ctx.Tracker.AddMessage(context.Background(), p.ID, models.MessageRole(c.Role), c.Body)
	if err != nil {
		return err
	}
	ctx.Printf("Message filed under %s\n", cli.FormatDay(msg.Day))
	return nil
}

type MessagesCmd struct {
	Patient string `arg:"" help:"Patient ID, ID prefix or name."`
	Day     string `arg:"" optional:"" default:"today" help:"Recovery day number, date (YYYY-MM-DD) or 'today'."`
}

func (c *MessagesCmd) Run(ctx *cli.Context) error {
	p, err := ctx.ResolvePatient(c.Patient)
	if err != nil {
		return err
	}
	st, err := ctx.Tracker.State(context.Background(), p.ID)
	if err != nil {
		return err
	}
	day, err := resolveDay(st, c.Day)
	if err != nil {
		return err
	}
	msgs, err := ctx.Store.GetMessages(p.ID, day)
	if err != nil {
		return fmt.Errorf("failed to get messages: %w", err)
	}
	if len(msgs) == 0 {
		ctx.Printf("No messages on %s\n", cli.FormatDay(day))
		return nil
	}
	for _, m := range msgs {
		ctx.Printf("[%s] %s: %s\n", m.CreatedAt.In(st.Clock.Location()).Format(constants.TimeFormat), m.Role, m.Body)
	}
	return nil
}
