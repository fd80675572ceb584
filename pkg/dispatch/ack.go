package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
	"github.com/Jacobbrewer1/v0bot/pkg/platform"
)

var (
	// ErrAlreadyAcknowledged is returned when a second reply or deferral is attempted.
	ErrAlreadyAcknowledged = errors.New("interaction already acknowledged")

	// ErrNotDeferred is returned when a follow-up is attempted without a deferral.
	ErrNotDeferred = errors.New("interaction not deferred")

	// ErrAlreadyFollowedUp is returned when a second follow-up is attempted.
	ErrAlreadyFollowedUp = errors.New("interaction already followed up")
)

type ackState int

const (
	ackNone ackState = iota
	ackReplied
	ackDeferred
	ackFollowedUp
)

// Ack acknowledges one interaction. It allows either a single reply, or a single deferral followed by at most one
// follow-up. Every other attempt fails with an error and is not sent.
type Ack struct {
	l      *slog.Logger
	client platform.Client
	i      *discordgo.Interaction

	mu    sync.Mutex
	state ackState
}

// NewAck creates the acknowledgement tracker of an interaction.
func NewAck(l *slog.Logger, client platform.Client, i *discordgo.Interaction) *Ack {
	return &Ack{
		l:      l,
		client: client,
		i:      i,
	}
}

// Reply acknowledges the interaction with a response.
func (a *Ack) Reply(resp *discordgo.InteractionResponse) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != ackNone {
		return ErrAlreadyAcknowledged
	}
	if err := a.respond(resp); err != nil {
		return err
	}
	a.state = ackReplied
	return nil
}

// Message replies with a text message.
func (a *Ack) Message(content string, ephemeral bool) error {
	return a.Reply(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags(ephemeral),
		},
	})
}

// Defer acknowledges the interaction now and leaves the answer to FollowUp.
func (a *Ack) Defer(ephemeral bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != ackNone {
		return ErrAlreadyAcknowledged
	}
	err := a.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: flags(ephemeral),
		},
	})
	if err != nil {
		return err
	}
	a.state = ackDeferred
	return nil
}

// FollowUp answers a deferred interaction.
func (a *Ack) FollowUp(content string, ephemeral bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case ackNone, ackReplied:
		return ErrNotDeferred
	case ackFollowedUp:
		return ErrAlreadyFollowedUp
	}

	err := a.client.FollowUp(a.i, &discordgo.WebhookParams{
		Content: content,
		Flags:   flags(ephemeral),
	})
	if err != nil && !a.stale(err) {
		return fmt.Errorf("error sending follow-up: %w", err)
	}
	a.state = ackFollowedUp
	return nil
}

// Acknowledged reports whether a reply or deferral was sent.
func (a *Ack) Acknowledged() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state != ackNone
}

// Deferred reports whether the interaction was deferred and still waits for its follow-up.
func (a *Ack) Deferred() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == ackDeferred
}

// respond sends the response. Stale tokens count as acknowledged since nothing else can be sent for them.
func (a *Ack) respond(resp *discordgo.InteractionResponse) error {
	err := a.client.Respond(a.i, resp)
	if err != nil && !a.stale(err) {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	return nil
}

func (a *Ack) stale(err error) bool {
	if !platform.IsStaleInteraction(err) {
		return false
	}
	a.l.Debug("Interaction token is stale", slog.String(logging.KeyError, err.Error()))
	return true
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}
