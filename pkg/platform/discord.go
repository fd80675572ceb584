package platform

import (
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
)

// Discord is the Client backed by a discord session.
type Discord struct {
	s *discordgo.Session
}

// NewDiscord creates a new Client for the given session.
func NewDiscord(s *discordgo.Session) *Discord {
	return &Discord{s: s}
}

func (d *Discord) Channel(channelID string) (*discordgo.Channel, error) {
	// Prefer the state cache, it is kept up to date by the gateway.
	if d.s.State != nil {
		if ch, err := d.s.State.Channel(channelID); err == nil {
			return ch, nil
		}
	}

	ch, err := d.s.Channel(channelID)
	if err != nil {
		return nil, fmt.Errorf("error getting channel: %w", err)
	}
	return ch, nil
}

func (d *Discord) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	channels, err := d.s.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting guild channels: %w", err)
	}
	return channels, nil
}

func (d *Discord) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	roles, err := d.s.GuildRoles(guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting guild roles: %w", err)
	}
	return roles, nil
}

func (d *Discord) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	member, err := d.s.GuildMember(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting member: %w", err)
	}
	return member, nil
}

func (d *Discord) CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	ch, err := d.s.GuildChannelCreateComplex(guildID, data)
	if err != nil {
		return nil, fmt.Errorf("error creating channel: %w", err)
	}
	return ch, nil
}

func (d *Discord) DeleteChannel(channelID string) error {
	if _, err := d.s.ChannelDelete(channelID); err != nil {
		return fmt.Errorf("error deleting channel: %w", err)
	}
	return nil
}

func (d *Discord) SetChannelPosition(channelID string, position int) error {
	if _, err := d.s.ChannelEditComplex(channelID, &discordgo.ChannelEdit{
		Position: &position,
	}); err != nil {
		return fmt.Errorf("error editing channel position: %w", err)
	}
	return nil
}

func (d *Discord) SetPermission(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64) error {
	if err := d.s.ChannelPermissionSet(channelID, targetID, targetType, allow, deny); err != nil {
		return fmt.Errorf("error setting channel permission: %w", err)
	}
	return nil
}

func (d *Discord) DeletePermission(channelID, targetID string) error {
	if err := d.s.ChannelPermissionDelete(channelID, targetID); err != nil {
		return fmt.Errorf("error deleting channel permission: %w", err)
	}
	return nil
}

func (d *Discord) SendMessage(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	msg, err := d.s.ChannelMessageSendComplex(channelID, data)
	if err != nil {
		return nil, fmt.Errorf("error sending message: %w", err)
	}
	return msg, nil
}

func (d *Discord) EditMessageEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error {
	if _, err := d.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: channelID,
		ID:      messageID,
		Embed:   embed,
	}); err != nil {
		return fmt.Errorf("error editing message: %w", err)
	}
	return nil
}

func (d *Discord) DeleteMessage(channelID, messageID string) error {
	if err := d.s.ChannelMessageDelete(channelID, messageID); err != nil {
		return fmt.Errorf("error deleting message: %w", err)
	}
	return nil
}

func (d *Discord) ClearRecentMessages(channelID string, limit int) error {
	msgs, err := d.s.ChannelMessages(channelID, limit, "", "", "")
	if err != nil {
		return fmt.Errorf("error getting channel messages: %w", err)
	}

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}

	switch len(ids) {
	case 0:
		return nil
	case 1:
		// Bulk delete requires at least two messages.
		return d.DeleteMessage(channelID, ids[0])
	}

	if err := d.s.ChannelMessagesBulkDelete(channelID, ids); err != nil {
		return fmt.Errorf("error bulk deleting messages: %w", err)
	}
	return nil
}

func (d *Discord) AddReaction(channelID, messageID, emoji string) error {
	if err := d.s.MessageReactionAdd(channelID, messageID, ReactionEmoji(emoji)); err != nil {
		return fmt.Errorf("error adding reaction: %w", err)
	}
	return nil
}

func (d *Discord) RemoveAllReactions(channelID, messageID string) error {
	if err := d.s.MessageReactionsRemoveAll(channelID, messageID); err != nil {
		return fmt.Errorf("error removing reactions: %w", err)
	}
	return nil
}

func (d *Discord) AddMemberRole(guildID, userID, roleID string) error {
	if err := d.s.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return fmt.Errorf("error adding member role: %w", err)
	}
	return nil
}

func (d *Discord) RemoveMemberRole(guildID, userID, roleID string) error {
	if err := d.s.GuildMemberRoleRemove(guildID, userID, roleID); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("error removing member role: %w", err)
	}
	return nil
}

func (d *Discord) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	if err := d.s.InteractionRespond(i, resp); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	return nil
}

func (d *Discord) FollowUp(i *discordgo.Interaction, params *discordgo.WebhookParams) error {
	if _, err := d.s.FollowupMessageCreate(i, true, params); err != nil {
		return fmt.Errorf("error sending follow up: %w", err)
	}
	return nil
}
