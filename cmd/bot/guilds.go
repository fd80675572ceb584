package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/v0bot/pkg/layout"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
	"github.com/Jacobbrewer1/v0bot/pkg/reactionroles"
)

// serves reports whether the guild is the one the bot is configured for. The ID wins over the name.
func (a *App) serves(g *discordgo.Guild) bool {
	if a.cfg.GuildId != "" {
		return g.ID == a.cfg.GuildId
	}
	return strings.EqualFold(g.Name, a.cfg.GuildName)
}

func (a *App) guildJoinedHandler() func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		l := a.With(slog.String(logging.KeyGuild, g.ID))
		l.Info("Joined guild", slog.String("name", g.Name))
		monitoring.TotalDiscordGuilds.Inc()

		if !a.serves(g.Guild) {
			return
		}

		if err := a.loadLayout(g.ID); err != nil {
			l.Error("Error resolving guild layout", slog.String(logging.KeyError, err.Error()))
			return
		}

		if err := a.tickets.PostSupportPanel(context.Background(), g.ID); err != nil {
			l.Warn("Error posting support panel", slog.String(logging.KeyError, err.Error()))
		}
	}
}

// loadLayout resolves the layout file against the guild and makes it current.
func (a *App) loadLayout(guildID string) error {
	lay, unresolved, err := layout.Resolve(a.client, guildID, a.layoutFile)
	if err != nil {
		return err
	}

	monitoring.UnresolvedLayoutEntries.Set(float64(len(unresolved)))
	for _, key := range unresolved {
		a.Warn("Layout entry not found in guild", slog.String("entry", key), slog.String(logging.KeyGuild, guildID))
	}

	a.layouts.Set(lay)
	a.Info("Guild layout resolved", slog.String(logging.KeyGuild, guildID), slog.Int("unresolved", len(unresolved)))
	return nil
}

func (a *App) guildLeaveHandler() func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		a.Info("Left guild", slog.String(logging.KeyGuild, g.ID))
		monitoring.TotalDiscordGuilds.Dec()

		if lay, ok := a.layouts.Current(); ok && lay.GuildID == g.ID {
			a.layouts.Set(nil)
		}
	}
}

func (a *App) memberJoinedHandler() func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	return func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		if m.Member == nil || m.User == nil {
			return
		}
		if err := a.onboarding.Welcome(context.Background(), m.GuildID, m.User); err != nil {
			a.Error("Error welcoming member",
				slog.String(logging.KeyGuild, m.GuildID),
				slog.String(logging.KeyUser, m.User.ID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
}

func (a *App) interactionHandler() func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		a.dispatcher.Dispatch(context.Background(), i.Interaction)
	}
}

func (a *App) reactionAddHandler() func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	return func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		a.listener.OnAdd(context.Background(), reaction(r.MessageReaction))
	}
}

func (a *App) reactionRemoveHandler() func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	return func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
		a.listener.OnRemove(context.Background(), reaction(r.MessageReaction))
	}
}

func reaction(r *discordgo.MessageReaction) *reactionroles.Reaction {
	return &reactionroles.Reaction{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji,
	}
}
