package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/dispatch"
	"github.com/Jacobbrewer1/v0bot/pkg/layout"
	"github.com/Jacobbrewer1/v0bot/pkg/onboarding"
	"github.com/Jacobbrewer1/v0bot/pkg/platform"
	"github.com/Jacobbrewer1/v0bot/pkg/reject"
	"github.com/Jacobbrewer1/v0bot/pkg/tickets"
)

const (
	msgClosing         = "🔒 Closing ticket..."
	msgClosed          = "🔒 Ticket closed successfully."
	msgCloseCancelled  = "❎ Ticket closure cancelled."
	msgClaimedBy       = "✅ Ticket claimed by <@%s>."
	msgUnclaimedBy     = "🔄 Ticket unclaimed by <@%s>."
	msgSupportCreated  = "✅ Your support ticket has been created: <#%s>"
	msgSlayerCreated   = "✅ Your %s Tier %d ticket has been created: <#%s>"
	msgUnknownCategory = "❌ Unknown ticket category."
)

// interactions glues the dispatcher to the ticket manager, onboarding and the panel command.
type interactions struct {
	l          *slog.Logger
	client     platform.Client
	layouts    *layout.Registry
	tickets    *tickets.Manager
	onboarding *onboarding.Onboarding
	footerIcon string
}

func newInteractions(
	l *slog.Logger,
	client platform.Client,
	layouts *layout.Registry,
	tm *tickets.Manager,
	ob *onboarding.Onboarding,
	footerIcon string,
) *interactions {
	return &interactions{
		l:          l,
		client:     client,
		layouts:    layouts,
		tickets:    tm,
		onboarding: ob,
		footerIcon: footerIcon,
	}
}

// register adds every button and command handler to the dispatcher.
func (in *interactions) register(d *dispatch.Dispatcher) {
	d.HandleButton(dispatch.KindCreateSupportTicket, in.createSupportTicket)
	d.HandleButton(dispatch.KindOpenTicket, in.openTicket)
	d.HandleButton(dispatch.KindClaim, in.claim)
	d.HandleButton(dispatch.KindUnclaim, in.unclaim)
	d.HandleButton(dispatch.KindClose, in.closeNow)
	d.HandleButton(dispatch.KindCloseTicket, in.requestClose)
	d.HandleButton(dispatch.KindConfirmClose, in.confirmClose)
	d.HandleButton(dispatch.KindCancelClose, in.cancelClose)
	d.HandleButton(dispatch.KindVerifyUser, in.verify)

	d.HandleCommand(&dispatch.Command{
		Definition:   panelCmd,
		Handler:      in.panel,
		Autocomplete: in.panelAutocomplete,
	})
}

// Channel creation and sorting can outlast the acknowledgement window, so ticket creation is deferred.
func (in *interactions) createSupportTicket(ctx context.Context, ack *dispatch.Ack, i *discordgo.Interaction, _ dispatch.Tag) error {
	if err := ack.Defer(true); err != nil {
		return err
	}

	ch, err := in.tickets.Create(ctx, i.GuildID, dispatch.User(i), tickets.KindSupport, 0)
	if err != nil {
		return err
	}
	return ack.FollowUp(fmt.Sprintf(msgSupportCreated, ch.ID), true)
}

func (in *interactions) openTicket(ctx context.Context, ack *dispatch.Ack, i *discordgo.Interaction, tag dispatch.Tag) error {
	kind, ok := tickets.ParseKind(tag.Category)
	if !ok || !kind.IsSlayer() {
		return reject.NotFound(msgUnknownCategory)
	}

	if err := ack.Defer(true); err != nil {
		return err
	}

	ch, err := in.tickets.Create(ctx, i.GuildID, dispatch.User(i), kind, tag.Tier)
	if err != nil {
		return err
	}
	return ack.FollowUp(fmt.Sprintf(msgSlayerCreated, kind.Title(), tag.Tier, ch.ID), true)
}

func (in *interactions) claim(ctx context.Context, ack *dispatch.Ack, i *discordgo.Interaction, tag dispatch.Tag) error {
	user := dispatch.User(i)
	if _, err := in.tickets.Claim(ctx, i.GuildID, tag.ChannelID, user.ID); err != nil {
		return err
	}
	return ack.Message(fmt.Sprintf(msgClaimedBy, user.ID), false)
}

func (in *interactions) unclaim(ctx context.Context, ack *dispatch.Ack, i *discordgo.Interaction, tag dispatch.Tag) error {
	user := dispatch.User(i)
	if _, err := in.tickets.Unclaim(ctx, i.GuildID, tag.ChannelID, user.ID); err != nil {
		return err
	}
	return ack.Message(fmt.Sprintf(msgUnclaimedBy, user.ID), false)
}

func (in *interactions) closeNow(ctx context.Context, ack *dispatch.Ack, _ *discordgo.Interaction, tag dispatch.Tag) error {
	if _, err := in.tickets.Close(ctx, tag.ChannelID); err != nil {
		return err
	}
	return ack.Message(msgClosing, true)
}

func (in *interactions) requestClose(_ context.Context, ack *dispatch.Ack, _ *discordgo.Interaction, _ dispatch.Tag) error {
	return ack.Reply(tickets.CloseConfirmation())
}

func (in *interactions) confirmClose(ctx context.Context, ack *dispatch.Ack, i *discordgo.Interaction, _ dispatch.Tag) error {
	if _, err := in.tickets.Close(ctx, i.ChannelID); err != nil {
		return err
	}
	return ack.Message(msgClosed, true)
}

func (in *interactions) cancelClose(_ context.Context, ack *dispatch.Ack, _ *discordgo.Interaction, _ dispatch.Tag) error {
	return ack.Message(msgCloseCancelled, true)
}

func (in *interactions) verify(ctx context.Context, ack *dispatch.Ack, i *discordgo.Interaction, _ dispatch.Tag) error {
	msg, err := in.onboarding.Verify(ctx, i.GuildID, dispatch.User(i).ID)
	if err != nil {
		return err
	}
	return ack.Message(msg, true)
}
