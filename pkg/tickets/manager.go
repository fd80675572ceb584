// Package tickets runs the support and slayer ticket lifecycle. A ticket is a private text channel; everything the
// manager needs to know about a ticket is read back from the channel's name, topic and permission overwrites.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/layout"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
	"github.com/Jacobbrewer1/v0bot/pkg/platform"
	"github.com/Jacobbrewer1/v0bot/pkg/reject"
	"golang.org/x/time/rate"
)

const (
	// DefaultCloseDelay leaves the closing notice visible before the channel disappears.
	DefaultCloseDelay = 2 * time.Second

	sortInterval = 500 * time.Millisecond

	participant = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles
)

// LayoutSource gives the current guild layout.
type LayoutSource interface {
	Current() (*layout.Layout, bool)
}

// Manager creates, claims, unclaims, closes and sorts tickets.
type Manager struct {
	l       *slog.Logger
	client  platform.Client
	layouts LayoutSource

	footerIcon string
	closeDelay time.Duration

	// after schedules f to run once d has passed.
	after func(d time.Duration, f func())

	sortLimiter *rate.Limiter
	locks       *keyedMutex
}

// NewManager creates a ticket manager.
func NewManager(l *slog.Logger, client platform.Client, layouts LayoutSource, footerIcon string) *Manager {
	return &Manager{
		l:           l,
		client:      client,
		layouts:     layouts,
		footerIcon:  footerIcon,
		closeDelay:  DefaultCloseDelay,
		after:       func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		sortLimiter: rate.NewLimiter(rate.Every(sortInterval), 2),
		locks:       newKeyedMutex(),
	}
}

func (m *Manager) layout() (*layout.Layout, error) {
	l, ok := m.layouts.Current()
	if !ok {
		return nil, reject.NotFound("❌ The server layout has not been loaded yet. Please try again shortly.")
	}
	return l, nil
}

// Create opens a ticket of the kind for the requester. Each user has at most one open ticket per kind.
func (m *Manager) Create(ctx context.Context, guildID string, requester *discordgo.User, kind Kind, tier int) (ch *discordgo.Channel, err error) {
	defer func() { count(kind, "create", err) }()

	if kind == KindSupport {
		tier = 0
	} else if !kind.IsSlayer() {
		return nil, reject.NotFound("❌ Unknown ticket category %q.", kind)
	}
	if err := kind.ValidateTier(tier); err != nil {
		return nil, err
	}

	lay, err := m.layout()
	if err != nil {
		return nil, err
	}

	categoryID, ok := categoryFor(lay, kind)
	if !ok {
		if kind == KindSupport {
			return nil, reject.NotFound("❌ Category **SUPPORT TICKETS** not found. Please create it first.")
		}
		return nil, reject.NotFound("❌ Category \"%s Slayer\" not found!", kind.Title())
	}

	unlock := m.locks.Lock("create:" + requester.ID + ":" + string(kind))
	defer unlock()

	channels, err := m.client.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting channels: %w", err)
	}
	for _, c := range channels {
		if c.ParentID != categoryID {
			continue
		}
		t, ok := Parse(c)
		if ok && t.Kind == kind && t.IsOwnedBy(requester) {
			if kind == KindSupport {
				return nil, reject.Duplicate("❌ You already have an open ticket: <#%s>", c.ID)
			}
			return nil, reject.Duplicate("❌ You already have an open %s ticket: <#%s>", kind, c.ID)
		}
	}

	overwrites := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: requester.ID, Type: discordgo.PermissionOverwriteTypeMember, Allow: participant},
	}

	staff, err := m.staffRoles(guildID, lay, kind, tier)
	if err != nil {
		return nil, err
	}
	for _, id := range staff {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    id,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: participant,
		})
	}

	ch, err = m.client.CreateChannel(guildID, discordgo.GuildChannelCreateData{
		Name:                 ChannelName(kind, tier, requester.Username),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                Topic(kind, tier, requester),
		ParentID:             categoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating ticket channel: %w", err)
	}

	l := m.l.With(slog.String(logging.KeyChannel, ch.ID), slog.String(logging.KeyUser, requester.ID), slog.String("kind", string(kind)))

	if _, err := m.client.SendMessage(ch.ID, openingMessage(kind, tier, requester, ch.ID, m.footerIcon)); err != nil {
		if delErr := m.client.DeleteChannel(ch.ID); delErr != nil {
			l.Error("Error removing ticket without opening message", slog.String(logging.KeyError, delErr.Error()))
		}
		return nil, fmt.Errorf("error sending opening message: %w", err)
	}

	if kind.IsSlayer() {
		if err := m.Sort(ctx, guildID, categoryID); err != nil {
			l.Warn("Error sorting tickets", slog.String(logging.KeyError, err.Error()))
		}
	}

	l.Info("Ticket created", slog.Int("tier", tier))
	return ch, nil
}

// staffRoles are the roles that take part in a ticket besides its owner.
func (m *Manager) staffRoles(guildID string, lay *layout.Layout, kind Kind, tier int) ([]string, error) {
	if kind == KindSupport {
		if lay.SupportStaffRoleID == "" {
			return nil, nil
		}
		return []string{lay.SupportStaffRoleID}, nil
	}

	roles, err := m.client.GuildRoles(guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting roles: %w", err)
	}
	entitled := Entitled(roles, kind, tier)
	ids := make([]string, 0, len(entitled))
	for _, r := range entitled {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// ticket reads the ticket of a channel, rejecting channels that are not tickets.
func (m *Manager) ticket(channelID string) (*Ticket, *discordgo.Channel, error) {
	lay, err := m.layout()
	if err != nil {
		return nil, nil, err
	}

	ch, err := m.client.Channel(channelID)
	if err != nil {
		if platform.IsNotFound(err) {
			return nil, nil, reject.NotFound("❌ This ticket no longer exists.")
		}
		return nil, nil, fmt.Errorf("error getting channel: %w", err)
	}

	t, ok := Parse(ch)
	if !ok || !lay.IsTicketCategory(ch.ParentID) {
		return nil, nil, reject.NotFound("❌ This channel is not a ticket.")
	}
	return t, ch, nil
}

// mayHandle checks the member holds a role that may work on the ticket. Support tickets have no gate.
func (m *Manager) mayHandle(guildID string, t *Ticket, userID string) (bool, error) {
	if !t.Kind.IsSlayer() {
		return true, nil
	}

	member, err := m.client.GuildMember(guildID, userID)
	if err != nil {
		return false, fmt.Errorf("error getting member: %w", err)
	}
	roles, err := m.client.GuildRoles(guildID)
	if err != nil {
		return false, fmt.Errorf("error getting roles: %w", err)
	}

	for _, r := range Entitled(roles, t.Kind, t.Tier) {
		if slices.Contains(member.Roles, r.ID) {
			return true, nil
		}
	}
	return false, nil
}

// Claim gives the actor the ticket: every other participant except the owner loses the right to send messages.
func (m *Manager) Claim(ctx context.Context, guildID, channelID, actorID string) (t *Ticket, err error) {
	unlock := m.locks.Lock("channel:" + channelID)
	defer unlock()

	t, ch, err := m.ticket(channelID)
	if err != nil {
		return nil, err
	}
	kind := t.Kind
	defer func() { count(kind, "claim", err) }()

	switch {
	case t.ClaimedBy == actorID:
		return nil, reject.Conflict("❌ You have already claimed this ticket.")
	case t.ClaimedBy != "":
		return nil, reject.Conflict("❌ This ticket is already claimed by <@%s>.", t.ClaimedBy)
	case t.OwnerID == actorID:
		return nil, reject.Conflict("❌ You can't claim your own ticket.")
	}

	ok, err := m.mayHandle(guildID, t, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reject.Unauthorized("❌ You don't have permission to claim this ticket.")
	}

	for _, po := range ch.PermissionOverwrites {
		if po.ID == actorID || po.ID == t.OwnerID || po.Allow&discordgo.PermissionSendMessages == 0 {
			continue
		}
		allow := po.Allow &^ discordgo.PermissionSendMessages
		deny := po.Deny | discordgo.PermissionSendMessages
		if err := m.client.SetPermission(channelID, po.ID, po.Type, allow, deny); err != nil {
			return nil, fmt.Errorf("error revoking send permission: %w", err)
		}
	}

	if err := m.client.SetPermission(channelID, actorID, discordgo.PermissionOverwriteTypeMember, participant, 0); err != nil {
		return nil, fmt.Errorf("error granting claimer: %w", err)
	}

	t.ClaimedBy = actorID
	m.l.Info("Ticket claimed", slog.String(logging.KeyChannel, channelID), slog.String(logging.KeyUser, actorID))
	return t, nil
}

// Unclaim releases the claim. The staff roles are recomputed from the current roster and may send again; the claimer
// loses their overwrite.
func (m *Manager) Unclaim(ctx context.Context, guildID, channelID, actorID string) (t *Ticket, err error) {
	unlock := m.locks.Lock("channel:" + channelID)
	defer unlock()

	t, _, err = m.ticket(channelID)
	if err != nil {
		return nil, err
	}
	kind := t.Kind
	defer func() { count(kind, "unclaim", err) }()

	if t.ClaimedBy == "" {
		return nil, reject.Conflict("❌ This ticket is not claimed.")
	}

	if t.ClaimedBy != actorID {
		ok, err := m.mayHandle(guildID, t, actorID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, reject.Unauthorized("❌ You don't have permission to unclaim this ticket.")
		}
	}

	lay, err := m.layout()
	if err != nil {
		return nil, err
	}
	staff, err := m.staffRoles(guildID, lay, t.Kind, t.Tier)
	if err != nil {
		return nil, err
	}
	for _, id := range staff {
		if err := m.client.SetPermission(channelID, id, discordgo.PermissionOverwriteTypeRole, participant, 0); err != nil {
			return nil, fmt.Errorf("error restoring send permission: %w", err)
		}
	}

	if err := m.client.DeletePermission(channelID, t.ClaimedBy); err != nil && !platform.IsNotFound(err) {
		return nil, fmt.Errorf("error removing claimer: %w", err)
	}

	m.l.Info("Ticket unclaimed", slog.String(logging.KeyChannel, channelID), slog.String(logging.KeyUser, actorID))
	t.ClaimedBy = ""
	return t, nil
}

// Close schedules the deletion of the ticket channel after the close delay.
func (m *Manager) Close(ctx context.Context, channelID string) (t *Ticket, err error) {
	t, _, err = m.ticket(channelID)
	if err != nil {
		return nil, err
	}
	kind := t.Kind
	defer func() { count(kind, "close", err) }()

	l := m.l.With(slog.String(logging.KeyChannel, channelID))
	m.after(m.closeDelay, func() {
		if err := m.client.DeleteChannel(channelID); err != nil && !platform.IsNotFound(err) {
			l.Error("Error deleting ticket channel", slog.String(logging.KeyError, err.Error()))
			return
		}
		l.Info("Ticket closed")
	})
	return t, nil
}

// Sort orders the slayer tickets of a category by tier, highest first. Tickets of the same tier keep their creation
// order.
func (m *Manager) Sort(ctx context.Context, guildID, categoryID string) error {
	channels, err := m.client.GuildChannels(guildID)
	if err != nil {
		return fmt.Errorf("error getting channels: %w", err)
	}

	type entry struct {
		ch   *discordgo.Channel
		tier int
	}
	var entries []entry
	for _, c := range channels {
		if c.ParentID != categoryID {
			continue
		}
		if t, ok := Parse(c); ok && t.Kind.IsSlayer() {
			entries = append(entries, entry{ch: c, tier: t.Tier})
		}
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		if a.tier != b.tier {
			return b.tier - a.tier
		}
		return compareSnowflakes(a.ch.ID, b.ch.ID)
	})

	var errs []error
	for pos, e := range entries {
		if e.ch.Position == pos {
			continue
		}
		if err := m.sortLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("error waiting to sort: %w", err)
		}
		if err := m.client.SetChannelPosition(e.ch.ID, pos); err != nil {
			errs = append(errs, fmt.Errorf("error moving %s: %w", e.ch.ID, err))
		}
	}
	return errors.Join(errs...)
}

// supportPanelHistory is how many of the panel channel's latest messages are cleared before the panel is posted.
const supportPanelHistory = 10

// PostSupportPanel replaces the recent messages of the support panel channel with the support panel.
func (m *Manager) PostSupportPanel(ctx context.Context, guildID string) error {
	lay, err := m.layout()
	if err != nil {
		return err
	}
	if lay.GuildID != guildID || lay.SupportPanelChannelID == "" {
		return reject.NotFound("❌ Support panel channel not found.")
	}

	if err := m.client.ClearRecentMessages(lay.SupportPanelChannelID, supportPanelHistory); err != nil {
		m.l.Warn("Error clearing support panel channel",
			slog.String(logging.KeyChannel, lay.SupportPanelChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	if _, err := m.client.SendMessage(lay.SupportPanelChannelID, SupportPanel(m.footerIcon)); err != nil {
		return fmt.Errorf("error sending support panel: %w", err)
	}
	return nil
}

func categoryFor(lay *layout.Layout, kind Kind) (string, bool) {
	if kind == KindSupport {
		return lay.SupportCategoryID, lay.SupportCategoryID != ""
	}
	return lay.SlayerCategoryID(string(kind))
}

// compareSnowflakes orders IDs numerically. Snowflakes grow with time, so this is creation order.
func compareSnowflakes(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func count(kind Kind, action string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
		if r, ok := reject.From(err); ok {
			result = r.Reason.String()
		}
	}
	Actions.WithLabelValues(string(kind), action, result).Inc()
}
