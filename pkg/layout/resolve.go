package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/platform"
)

// Resolve looks up every ref of the file in the guild. The names of the refs that could not be resolved are returned
// alongside the layout so the caller can report them; the matching IDs stay empty.
func Resolve(c platform.Client, guildID string, f *File) (*Layout, []string, error) {
	channels, err := c.GuildChannels(guildID)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting channels: %w", err)
	}

	roles, err := c.GuildRoles(guildID)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting roles: %w", err)
	}

	var unresolved []string
	channel := func(key string, ref Ref, typ discordgo.ChannelType) string {
		if ref.IsZero() {
			return ""
		}
		id := resolveChannel(channels, ref, typ)
		if id == "" {
			unresolved = append(unresolved, key)
		}
		return id
	}
	role := func(key string, ref Ref) string {
		if ref.IsZero() {
			return ""
		}
		id := resolveRole(roles, ref)
		if id == "" {
			unresolved = append(unresolved, key)
		}
		return id
	}

	l := &Layout{
		GuildID:               guildID,
		SupportCategoryID:     channel("support_category", f.SupportCategory, discordgo.ChannelTypeGuildCategory),
		SupportStaffRoleID:    role("support_staff_role", f.SupportStaffRole),
		SlayerCategoryIDs:     make(map[string]string, len(f.SlayerCategories)),
		VerifiedRoleID:        role("verified_role", f.VerifiedRole),
		OwnerRoleID:           role("owner_role", f.OwnerRole),
		WelcomeChannelID:      channel("welcome_channel", f.WelcomeChannel, discordgo.ChannelTypeGuildText),
		VerifyChannelID:       channel("verify_channel", f.VerifyChannel, discordgo.ChannelTypeGuildText),
		RulesChannelID:        channel("rules_channel", f.RulesChannel, discordgo.ChannelTypeGuildText),
		SupportPanelChannelID: channel("support_panel_channel", f.SupportPanelChannel, discordgo.ChannelTypeGuildText),
	}

	kinds := make([]string, 0, len(f.SlayerCategories))
	for k := range f.SlayerCategories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	for _, k := range kinds {
		l.SlayerCategoryIDs[k] = channel("slayer_categories."+k, f.SlayerCategories[k], discordgo.ChannelTypeGuildCategory)
	}

	return l, unresolved, nil
}

func resolveChannel(channels []*discordgo.Channel, ref Ref, typ discordgo.ChannelType) string {
	if ref.ID != "" {
		return ref.ID
	}
	for _, ch := range channels {
		if ch.Type != typ {
			continue
		}
		if matches(ch.Name, ref) {
			return ch.ID
		}
	}
	return ""
}

func resolveRole(roles []*discordgo.Role, ref Ref) string {
	if ref.ID != "" {
		return ref.ID
	}
	for _, r := range roles {
		if matches(r.Name, ref) {
			return r.ID
		}
	}
	return ""
}

func matches(name string, ref Ref) bool {
	if ref.Name != "" {
		return strings.EqualFold(name, ref.Name)
	}
	return ref.Contains != "" && strings.Contains(strings.ToLower(name), strings.ToLower(ref.Contains))
}
