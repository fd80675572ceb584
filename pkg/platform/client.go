// Package platform is the boundary between the bot and the chat platform. Everything the bot asks of Discord goes
// through Client so that the ticket, reaction role and dashboard logic can run against an in-memory guild in tests.
package platform

import (
	"github.com/Jacobbrewer1/discordgo"
)

// Client is the set of platform commands the bot issues.
type Client interface {
	// Channel gets a channel by ID.
	Channel(channelID string) (*discordgo.Channel, error)

	// GuildChannels lists the channels of a guild.
	GuildChannels(guildID string) ([]*discordgo.Channel, error)

	// GuildRoles lists the roles of a guild.
	GuildRoles(guildID string) ([]*discordgo.Role, error)

	// GuildMember gets a member of a guild.
	GuildMember(guildID, userID string) (*discordgo.Member, error)

	// CreateChannel creates a channel in a guild.
	CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)

	// DeleteChannel deletes a channel.
	DeleteChannel(channelID string) error

	// SetChannelPosition moves a channel to the given position within its parent.
	SetChannelPosition(channelID string, position int) error

	// SetPermission creates or replaces the permission overwrite of a role or member on a channel.
	SetPermission(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64) error

	// DeletePermission removes the permission overwrite of a role or member from a channel.
	DeletePermission(channelID, targetID string) error

	// SendMessage sends a message to a channel.
	SendMessage(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)

	// EditMessageEmbed replaces the embed of a message.
	EditMessageEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error

	// DeleteMessage deletes a message.
	DeleteMessage(channelID, messageID string) error

	// ClearRecentMessages deletes up to limit of the most recent messages of a channel.
	ClearRecentMessages(channelID string, limit int) error

	// AddReaction adds a reaction of the bot to a message.
	AddReaction(channelID, messageID, emoji string) error

	// RemoveAllReactions removes every reaction from a message.
	RemoveAllReactions(channelID, messageID string) error

	// AddMemberRole gives a role to a member. Giving a role the member already holds succeeds.
	AddMemberRole(guildID, userID, roleID string) error

	// RemoveMemberRole takes a role from a member. Taking a role the member does not hold succeeds.
	RemoveMemberRole(guildID, userID, roleID string) error

	// Respond acknowledges an interaction.
	Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error

	// FollowUp sends a follow-up message to a deferred interaction.
	FollowUp(i *discordgo.Interaction, params *discordgo.WebhookParams) error
}
