// Package dispatch routes interactions to their handlers and makes sure each one is acknowledged exactly once.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
	"github.com/Jacobbrewer1/v0bot/pkg/platform"
	"github.com/Jacobbrewer1/v0bot/pkg/reject"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultTimeout bounds the work done for one interaction.
	DefaultTimeout = 10 * time.Second

	msgGenericFailure = "❌ Something went wrong. Please try again later."
	msgUnknown        = "❌ Unknown interaction."
	msgDone           = "✅ Done."
)

// ButtonHandler handles the buttons of one tag kind.
type ButtonHandler func(ctx context.Context, ack *Ack, i *discordgo.Interaction, tag Tag) error

// CommandHandler handles an application command or its autocomplete.
type CommandHandler func(ctx context.Context, ack *Ack, i *discordgo.Interaction) error

// Command is a registered application command.
type Command struct {
	Definition *discordgo.ApplicationCommand

	Handler CommandHandler

	// Autocomplete answers autocomplete requests for the command's options. Optional.
	Autocomplete CommandHandler
}

// Dispatcher routes interactions.
type Dispatcher struct {
	l      *slog.Logger
	client platform.Client

	buttons  map[TagKind]ButtonHandler
	commands map[string]*Command

	timeout time.Duration
}

// NewDispatcher creates a dispatcher with no handlers.
func NewDispatcher(l *slog.Logger, client platform.Client) *Dispatcher {
	return &Dispatcher{
		l:        l,
		client:   client,
		buttons:  make(map[TagKind]ButtonHandler),
		commands: make(map[string]*Command),
		timeout:  DefaultTimeout,
	}
}

// HandleButton registers the handler of a tag kind, replacing any earlier one.
func (d *Dispatcher) HandleButton(kind TagKind, h ButtonHandler) {
	d.buttons[kind] = h
}

// HandleCommand registers a command by its definition's name.
func (d *Dispatcher) HandleCommand(c *Command) {
	d.commands[c.Definition.Name] = c
}

// Commands returns the definitions of the registered commands, sorted by name.
func (d *Dispatcher) Commands() []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, 0, len(d.commands))
	for _, c := range d.commands {
		defs = append(defs, c.Definition)
	}
	sort.Slice(defs, func(a, b int) bool { return defs[a].Name < defs[b].Name })
	return defs
}

// Dispatch handles one interaction. It never panics and never returns an error: everything that goes wrong is logged
// and, where an acknowledgement is owed, answered.
func (d *Dispatcher) Dispatch(ctx context.Context, i *discordgo.Interaction) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var (
		kind string
		run  func(ack *Ack) error
		// fallback acknowledges an interaction the handler left unanswered.
		fallback func(ack *Ack) error
	)

	switch i.Type {
	case discordgo.InteractionMessageComponent:
		tag := ParseTag(i.MessageComponentData().CustomID)
		kind = tag.Kind.String()
		h, ok := d.buttons[tag.Kind]
		if !ok {
			h = unknownButton
		}
		run = func(ack *Ack) error { return h(ctx, ack, i, tag) }
		fallback = func(ack *Ack) error {
			return ack.Reply(&discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate})
		}

	case discordgo.InteractionApplicationCommand:
		c, ok := d.commands[i.ApplicationCommandData().Name]
		if !ok {
			return
		}
		kind = "command"
		run = func(ack *Ack) error { return c.Handler(ctx, ack, i) }
		fallback = func(ack *Ack) error { return ack.Message(msgDone, true) }

	case discordgo.InteractionApplicationCommandAutocomplete:
		c, ok := d.commands[i.ApplicationCommandData().Name]
		if !ok || c.Autocomplete == nil {
			return
		}
		kind = "autocomplete"
		run = func(ack *Ack) error { return c.Autocomplete(ctx, ack, i) }
		fallback = func(ack *Ack) error {
			return ack.Reply(&discordgo.InteractionResponse{
				Type: discordgo.InteractionApplicationCommandAutocompleteResult,
				Data: &discordgo.InteractionResponseData{Choices: []*discordgo.ApplicationCommandOptionChoice{}},
			})
		}

	default:
		return
	}

	t := prometheus.NewTimer(InteractionDuration.WithLabelValues(kind))
	defer t.ObserveDuration()

	l := d.l.With(
		slog.String("interaction_id", i.ID),
		slog.String("kind", kind),
		slog.String(logging.KeyGuild, i.GuildID),
		slog.String(logging.KeyChannel, i.ChannelID),
		slog.String(logging.KeyUser, userID(i)),
	)
	ack := NewAck(l, d.client, i)

	err := d.safeRun(run, ack)
	d.finish(l, ack, err, fallback)
}

func (d *Dispatcher) safeRun(run func(ack *Ack) error, ack *Ack) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return run(ack)
}

// finish reports the outcome of a handler through whatever acknowledgement is still allowed.
func (d *Dispatcher) finish(l *slog.Logger, ack *Ack, err error, fallback func(ack *Ack) error) {
	if err == nil {
		var ackErr error
		switch {
		case ack.Deferred():
			ackErr = ack.FollowUp(msgDone, true)
		case !ack.Acknowledged():
			ackErr = fallback(ack)
		}
		if ackErr != nil {
			l.Error("Error acknowledging interaction", slog.String(logging.KeyError, ackErr.Error()))
		}
		return
	}

	content := msgGenericFailure
	if r, ok := reject.From(err); ok {
		content = r.Message
		l.Debug("Interaction rejected", slog.String("reason", r.Reason.String()), slog.String(logging.KeyError, r.Message))
		InteractionRejections.WithLabelValues(r.Reason.String()).Inc()
	} else {
		l.Error("Error handling interaction", slog.String(logging.KeyError, err.Error()))
		InteractionErrors.Inc()
	}

	var ackErr error
	switch {
	case ack.Deferred():
		ackErr = ack.FollowUp(content, true)
	case !ack.Acknowledged():
		ackErr = ack.Message(content, true)
	default:
		// Already answered; the user saw the handler's reply.
		return
	}
	if ackErr != nil {
		l.Error("Error reporting interaction failure", slog.String(logging.KeyError, ackErr.Error()))
	}
}

func unknownButton(_ context.Context, ack *Ack, _ *discordgo.Interaction, _ Tag) error {
	return ack.Message(msgUnknown, true)
}

func userID(i *discordgo.Interaction) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.ID
	case i.User != nil:
		return i.User.ID
	}
	return ""
}

// User returns the user who triggered the interaction.
func User(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
