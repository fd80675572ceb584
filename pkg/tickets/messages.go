package tickets

import (
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/dispatch"
)

const gold = 0xFFD700

// SupportPanel is the message with the button that opens support tickets.
func SupportPanel(footerIcon string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embed: &discordgo.MessageEmbed{
			Color: gold,
			Title: "💎 V0 Support",
			Description: "Need help or have a question about carries?\n\n" +
				"Our support team is here for you! Click the button below to open a private ticket.\n\n" +
				"⚠️ Only use this for **support-related issues.**",
			Footer: &discordgo.MessageEmbedFooter{Text: "V0 | Support System", IconURL: footerIcon},
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						CustomID: dispatch.Tag{Kind: dispatch.KindCreateSupportTicket}.String(),
						Label:    "🎟️ Create Support Ticket",
						Style:    discordgo.PrimaryButton,
					},
				},
			},
		},
	}
}

// SlayerPanel is the message with one button per tier that opens tickets of the kind.
func SlayerPanel(kind Kind, footerIcon string) *discordgo.MessageSend {
	buttons := make([]discordgo.MessageComponent, 0, MaxTier-MinTier+1)
	for tier := MinTier; tier <= MaxTier; tier++ {
		buttons = append(buttons, discordgo.Button{
			CustomID: dispatch.Tag{Kind: dispatch.KindOpenTicket, Category: string(kind), Tier: tier}.String(),
			Label:    fmt.Sprintf("Tier %d", tier),
			Style:    discordgo.PrimaryButton,
		})
	}

	return &discordgo.MessageSend{
		Embed: &discordgo.MessageEmbed{
			Color:       gold,
			Title:       fmt.Sprintf("⚔️ %s Slayer Carries", kind.Title()),
			Description: "Pick the tier you need below and a private ticket will be opened for you.",
			Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("V0 | %s Slayer", kind.Title()), IconURL: footerIcon},
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: buttons},
		},
	}
}

// openingMessage is the first message of a new ticket.
func openingMessage(kind Kind, tier int, owner *discordgo.User, channelID, footerIcon string) *discordgo.MessageSend {
	if kind == KindSupport {
		return &discordgo.MessageSend{
			Embed: &discordgo.MessageEmbed{
				Color: gold,
				Title: "🎟️ V0 Support Ticket",
				Description: fmt.Sprintf("Hey <@%s>, 👋\n\nPlease describe your issue below. A team member will assist you shortly.\n\n", owner.ID) +
					"Click **🔒 Close Ticket** when you are done.",
				Footer: &discordgo.MessageEmbedFooter{Text: "V0 | Support", IconURL: footerIcon},
			},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							CustomID: dispatch.Tag{Kind: dispatch.KindCloseTicket}.String(),
							Label:    "🔒 Close Ticket",
							Style:    discordgo.DangerButton,
						},
					},
				},
			},
		}
	}

	return &discordgo.MessageSend{
		Content: fmt.Sprintf("|| @Tier %d %s ||\n|| <@%s> ||", tier, kind.Title(), owner.ID),
		Embed: &discordgo.MessageEmbed{
			Color:       gold,
			Title:       fmt.Sprintf("%s Tier %d Ticket", kind.Title(), tier),
			Description: "Please wait for a carrier to claim your ticket.",
			Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("V0 | %s Slayer", kind.Title()), IconURL: footerIcon},
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						CustomID: dispatch.Tag{Kind: dispatch.KindClaim, ChannelID: channelID}.String(),
						Label:    "✅ Claim",
						Style:    discordgo.SuccessButton,
					},
					discordgo.Button{
						CustomID: dispatch.Tag{Kind: dispatch.KindUnclaim, ChannelID: channelID}.String(),
						Label:    "🔄 Unclaim",
						Style:    discordgo.SecondaryButton,
					},
					discordgo.Button{
						CustomID: dispatch.Tag{Kind: dispatch.KindClose, ChannelID: channelID}.String(),
						Label:    "🔒 Close",
						Style:    discordgo.DangerButton,
					},
				},
			},
		},
	}
}

// CloseConfirmation is the prompt shown before a ticket is closed.
func CloseConfirmation() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Are you sure you want to close this ticket?",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							CustomID: dispatch.Tag{Kind: dispatch.KindConfirmClose}.String(),
							Label:    "✅ Confirm Close",
							Style:    discordgo.DangerButton,
						},
						discordgo.Button{
							CustomID: dispatch.Tag{Kind: dispatch.KindCancelClose}.String(),
							Label:    "❌ Cancel",
							Style:    discordgo.SecondaryButton,
						},
					},
				},
			},
		},
	}
}
