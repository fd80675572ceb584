package main

import (
	"context"
	"slices"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/dispatch"
	"github.com/Jacobbrewer1/v0bot/pkg/reject"
	"github.com/Jacobbrewer1/v0bot/pkg/tickets"
)

const (
	// panelCmdName is the command that posts the ticket panels.
	panelCmdName = "panel"

	// panelSupportCmdName is the sub command for the support panel.
	panelSupportCmdName = "support"

	// panelSlayerCmdName is the sub command for a slayer panel.
	panelSlayerCmdName = "slayer"

	// kindOptionName is the option naming the slayer of a panel.
	kindOptionName = "kind"

	msgPanelPosted = "✅ Panel posted."
)

// panelCmd posts a ticket panel in the channel it is used in.
var panelCmd = &discordgo.ApplicationCommand{
	Name:        panelCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "Post a ticket panel in this channel.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        panelSupportCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Post the support ticket panel.",
		},
		{
			Name:        panelSlayerCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Post the carry panel of a slayer.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:         kindOptionName,
					Type:         discordgo.ApplicationCommandOptionString,
					Description:  "The slayer the panel opens tickets for.",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
	},
}

func (in *interactions) panel(_ context.Context, ack *dispatch.Ack, i *discordgo.Interaction) error {
	lay, ok := in.layouts.Current()
	if !ok || i.Member == nil || lay.OwnerRoleID == "" || !slices.Contains(i.Member.Roles, lay.OwnerRoleID) {
		return reject.Unauthorized("🚫 Access denied – Owner role required.")
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return reject.NotFound("❌ Unknown panel.")
	}
	sub := data.Options[0]

	var msg *discordgo.MessageSend
	switch sub.Name {
	case panelSupportCmdName:
		msg = tickets.SupportPanel(in.footerIcon)
	case panelSlayerCmdName:
		var raw string
		for _, o := range sub.Options {
			if o.Name == kindOptionName {
				raw = o.StringValue()
			}
		}
		kind, ok := tickets.ParseKind(raw)
		if !ok || !kind.IsSlayer() {
			return reject.NotFound("❌ Unknown slayer %q.", raw)
		}
		msg = tickets.SlayerPanel(kind, in.footerIcon)
	default:
		return reject.NotFound("❌ Unknown panel.")
	}

	if _, err := in.client.SendMessage(i.ChannelID, msg); err != nil {
		return err
	}
	return ack.Message(msgPanelPosted, true)
}

// panelAutocomplete suggests the slayers whose name starts with what has been typed.
func (in *interactions) panelAutocomplete(_ context.Context, ack *dispatch.Ack, i *discordgo.Interaction) error {
	var typed string
	for _, sub := range i.ApplicationCommandData().Options {
		for _, o := range sub.Options {
			if o.Name == kindOptionName && o.Focused {
				typed = strings.ToLower(strings.TrimSpace(o.StringValue()))
			}
		}
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(tickets.SlayerKinds))
	for _, k := range tickets.SlayerKinds {
		if strings.HasPrefix(string(k), typed) {
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: k.Title(), Value: string(k)})
		}
	}

	return ack.Reply(&discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
}
