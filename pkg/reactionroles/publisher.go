package reactionroles

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/entities"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
	"github.com/Jacobbrewer1/v0bot/pkg/platform"
	"github.com/Jacobbrewer1/v0bot/pkg/reject"
	"golang.org/x/time/rate"
)

const (
	// DefaultColor is the embed color when none, or an invalid one, is given.
	DefaultColor = "#FFD700"

	defaultColorValue = 0xFFD700

	kindAnnouncement = "announcement"
	kindReactionRole = "reaction_role"
)

// reactionInterval paces the reactions added to one message. Discord rate limits reactions far more tightly than
// other message endpoints.
const reactionInterval = 250 * time.Millisecond

// EmbedDefaults fill in the fields an operator left empty.
type EmbedDefaults struct {
	Title       string
	Description string
	Footer      string
}

var (
	announcementDefaults = EmbedDefaults{
		Title:  "Untitled Embed",
		Footer: "V0 | Embed System",
	}
	reactionRoleDefaults = EmbedDefaults{
		Title:       "Reaction Roles",
		Description: "React below to get roles!",
		Footer:      "V0 | Reaction Roles",
	}
	reactionRoleEditDefaults = EmbedDefaults{
		Title:  "Reaction Roles",
		Footer: "V0 | Reaction Roles",
	}
)

// Announcement is a message composed on the dashboard.
type Announcement struct {
	ChannelID string
	Embed     entities.Embed

	// Restock pings the restock role before the embed.
	Restock bool
}

// Publisher sends the dashboard's messages and keeps the reaction role messages in sync with their mappings.
type Publisher struct {
	l      *slog.Logger
	client platform.Client
	store  *Store

	footerIcon    string
	restockRoleID string

	reactLimiter *rate.Limiter
}

// NewPublisher creates a publisher.
func NewPublisher(l *slog.Logger, client platform.Client, store *Store, footerIcon, restockRoleID string) *Publisher {
	return &Publisher{
		l:             l,
		client:        client,
		store:         store,
		footerIcon:    footerIcon,
		restockRoleID: restockRoleID,
		reactLimiter:  rate.NewLimiter(rate.Every(reactionInterval), 1),
	}
}

// Announce sends an announcement, preceded by the restock ping when asked for and configured.
func (p *Publisher) Announce(ctx context.Context, a *Announcement) (err error) {
	defer func() { countPublish(kindAnnouncement, err) }()

	if _, err := p.channel(a.ChannelID); err != nil {
		return err
	}

	if a.Restock && p.restockRoleID != "" {
		_, err := p.client.SendMessage(a.ChannelID, &discordgo.MessageSend{
			Content: RestockPing(p.restockRoleID),
			AllowedMentions: &discordgo.MessageAllowedMentions{
				Roles: []string{p.restockRoleID},
			},
		})
		if err != nil {
			return fmt.Errorf("error sending restock ping: %w", err)
		}
	}

	_, err = p.client.SendMessage(a.ChannelID, &discordgo.MessageSend{
		Embed: p.RenderEmbed(a.Embed, announcementDefaults),
	})
	if err != nil {
		return fmt.Errorf("error sending announcement: %w", err)
	}
	return nil
}

// CreateReactionRole publishes the embed, reacts with every emoji and stores the mapping under the new message. When
// any step fails the message is removed again.
func (p *Publisher) CreateReactionRole(ctx context.Context, channelID string, embed entities.Embed, pairs []entities.RolePair) (messageID string, err error) {
	defer func() { countPublish(kindReactionRole, err) }()

	if len(pairs) == 0 {
		return "", reject.Conflict("No emoji-role pairs.")
	}

	ch, err := p.channel(channelID)
	if err != nil {
		return "", err
	}

	msg, err := p.client.SendMessage(channelID, &discordgo.MessageSend{
		Embed: p.RenderEmbed(embed, reactionRoleDefaults),
	})
	if err != nil {
		return "", fmt.Errorf("error sending reaction role message: %w", err)
	}

	l := p.l.With(slog.String(logging.KeyChannel, channelID), slog.String(logging.KeyMessage, msg.ID))

	mapping := &entities.RoleMapping{
		ChannelID:   channelID,
		ChannelName: ch.Name,
		Pairs:       pairs,
		Embed:       embed,
	}

	err = p.react(ctx, channelID, msg.ID, pairs)
	if err == nil {
		err = p.store.Put(ctx, msg.ID, mapping)
	}
	if err != nil {
		if delErr := p.client.DeleteMessage(channelID, msg.ID); delErr != nil {
			l.Error("Error removing unfinished reaction role message", slog.String(logging.KeyError, delErr.Error()))
		}
		return "", err
	}

	l.Info("Reaction role created", slog.Int("pairs", len(pairs)))
	return msg.ID, nil
}

// UpdateReactionRole replaces the embed and pairs of a published reaction role message.
func (p *Publisher) UpdateReactionRole(ctx context.Context, messageID string, embed entities.Embed, pairs []entities.RolePair) (err error) {
	defer func() { countPublish(kindReactionRole, err) }()

	current, ok := p.store.Get(messageID)
	if !ok {
		return reject.NotFound("Unknown message ID.")
	}

	if err := p.client.EditMessageEmbed(current.ChannelID, messageID, p.RenderEmbed(embed, reactionRoleEditDefaults)); err != nil {
		return fmt.Errorf("error editing reaction role message: %w", err)
	}

	next := current.Clone()
	next.Pairs = pairs
	next.Embed = embed
	if err := p.store.Put(ctx, messageID, next); err != nil {
		return err
	}

	if err := p.client.RemoveAllReactions(current.ChannelID, messageID); err != nil && !platform.IsNotFound(err) {
		return fmt.Errorf("error clearing reactions: %w", err)
	}
	return p.react(ctx, current.ChannelID, messageID, pairs)
}

// DeleteReactionRole deletes a reaction role message and forgets its mapping. A message that is already gone is
// forgotten all the same.
func (p *Publisher) DeleteReactionRole(ctx context.Context, messageID string) error {
	current, ok := p.store.Get(messageID)
	if !ok {
		return reject.NotFound("Unknown message ID.")
	}

	if err := p.client.DeleteMessage(current.ChannelID, messageID); err != nil && !platform.IsNotFound(err) {
		return fmt.Errorf("error deleting reaction role message: %w", err)
	}
	return p.store.Delete(ctx, messageID)
}

func (p *Publisher) react(ctx context.Context, channelID, messageID string, pairs []entities.RolePair) error {
	for _, pair := range pairs {
		if err := p.reactLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("error waiting to react: %w", err)
		}
		if err := p.client.AddReaction(channelID, messageID, pair.Emoji); err != nil {
			return fmt.Errorf("error reacting with %s: %w", pair.Emoji, err)
		}
	}
	return nil
}

func (p *Publisher) channel(channelID string) (*discordgo.Channel, error) {
	ch, err := p.client.Channel(channelID)
	if err != nil {
		if platform.IsNotFound(err) {
			return nil, reject.NotFound("Channel not found")
		}
		return nil, fmt.Errorf("error getting channel: %w", err)
	}
	return ch, nil
}

// RenderEmbed builds the message embed, falling back to the defaults for empty fields.
func (p *Publisher) RenderEmbed(e entities.Embed, d EmbedDefaults) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       orDefault(e.Title, d.Title),
		Description: orDefault(e.Description, d.Description),
		Color:       ParseColor(e.Color),
		Footer: &discordgo.MessageEmbedFooter{
			Text:    orDefault(e.Footer, d.Footer),
			IconURL: p.footerIcon,
		},
	}
}

// RestockPing is the content of the message that pings the restock role.
func RestockPing(roleID string) string {
	return fmt.Sprintf("<@&%s> 🔔 **Restock Alert!**", roleID)
}

// ParseColor parses a #RRGGBB color. Empty or invalid colors give the default gold.
func ParseColor(s string) int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return defaultColorValue
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || v > 0xFFFFFF {
		return defaultColorValue
	}
	return int(v)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func countPublish(kind string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultFailure
		if r, ok := reject.From(err); ok {
			result = r.Reason.String()
		}
	}
	Published.WithLabelValues(kind, result).Inc()
}
