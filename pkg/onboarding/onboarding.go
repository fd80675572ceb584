// Package onboarding greets new members and verifies them.
package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/layout"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
	"github.com/Jacobbrewer1/v0bot/pkg/platform"
	"github.com/Jacobbrewer1/v0bot/pkg/reject"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MsgVerified        = "💎 You have been verified successfully! Welcome to V0."
	MsgAlreadyVerified = "✅ You are already verified!"

	gold = 0xFFD700
)

// Events counts the onboarding events handled, by outcome.
var Events = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "onboarding_events_total",
		Help: "Total number of onboarding events handled",
	},
	[]string{"event", "result"},
)

// LayoutSource gives the current guild layout.
type LayoutSource interface {
	Current() (*layout.Layout, bool)
}

// Onboarding welcomes and verifies members.
type Onboarding struct {
	l          *slog.Logger
	client     platform.Client
	layouts    LayoutSource
	footerIcon string
}

// New creates the onboarding flows.
func New(l *slog.Logger, client platform.Client, layouts LayoutSource, footerIcon string) *Onboarding {
	return &Onboarding{
		l:          l,
		client:     client,
		layouts:    layouts,
		footerIcon: footerIcon,
	}
}

// Verify gives the member the verified role. The returned message is the reply for the member.
func (o *Onboarding) Verify(ctx context.Context, guildID, userID string) (msg string, err error) {
	defer func() { count("verify", err) }()

	lay, ok := o.layouts.Current()
	if !ok || lay.VerifiedRoleID == "" {
		return "", reject.NotFound("❌ The '💎 Verified' role doesn't exist! Please create it first.")
	}

	member, err := o.client.GuildMember(guildID, userID)
	if err != nil {
		return "", fmt.Errorf("error getting member: %w", err)
	}
	if slices.Contains(member.Roles, lay.VerifiedRoleID) {
		return MsgAlreadyVerified, nil
	}

	if err := o.client.AddMemberRole(guildID, userID, lay.VerifiedRoleID); err != nil {
		return "", fmt.Errorf("error adding verified role: %w", err)
	}

	o.l.Info("Member verified", slog.String(logging.KeyUser, userID))
	return MsgVerified, nil
}

// Welcome posts the welcome message for a member that joined. Guilds without a welcome channel get nothing.
func (o *Onboarding) Welcome(ctx context.Context, guildID string, user *discordgo.User) (err error) {
	defer func() { count("welcome", err) }()

	lay, ok := o.layouts.Current()
	if !ok || lay.GuildID != guildID || lay.WelcomeChannelID == "" {
		o.l.Debug("No welcome channel", slog.String(logging.KeyGuild, guildID))
		return nil
	}

	if _, err := o.client.SendMessage(lay.WelcomeChannelID, &discordgo.MessageSend{
		Embed: WelcomeEmbed(lay, user, o.footerIcon),
	}); err != nil {
		return fmt.Errorf("error sending welcome message: %w", err)
	}
	return nil
}

// WelcomeEmbed is the embed greeting the user.
func WelcomeEmbed(lay *layout.Layout, user *discordgo.User, footerIcon string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color: gold,
		Title: "👋 Welcome to V0 Carries!",
		Description: fmt.Sprintf("Hey <@%s>, welcome to **V0 Carries**!\n\n", user.ID) +
			"We're glad to have you here. Please make sure to:\n" +
			fmt.Sprintf("✅ Verify yourself in %s\n", mention(lay.VerifyChannelID, "#verify")) +
			fmt.Sprintf("📜 Read the rules in %s\n\n", mention(lay.RulesChannelID, "#rules")) +
			"We hope you enjoy your stay 💎",
		Footer: &discordgo.MessageEmbedFooter{Text: "V0 | Welcome System", IconURL: footerIcon},
	}
}

func mention(channelID, fallback string) string {
	if channelID == "" {
		return fallback
	}
	return "<#" + channelID + ">"
}

func count(event string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
		if r, ok := reject.From(err); ok {
			result = r.Reason.String()
		}
	}
	Events.WithLabelValues(event, result).Inc()
}
