package reactionroles

import (
	"context"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
	"github.com/Jacobbrewer1/v0bot/pkg/platform"
	"github.com/sethvargo/go-retry"
)

const defaultRetryDelay = 500 * time.Millisecond

// Reaction is a reaction added to or removed from a message.
type Reaction struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Emoji     discordgo.Emoji
}

// Listener gives and takes roles when members react to tracked messages. It has no caller to report to, so failures
// are retried once and then logged.
type Listener struct {
	l      *slog.Logger
	client platform.Client
	store  *Store

	retryDelay time.Duration
}

// NewListener creates a listener over the store.
func NewListener(l *slog.Logger, client platform.Client, store *Store) *Listener {
	return &Listener{
		l:          l,
		client:     client,
		store:      store,
		retryDelay: defaultRetryDelay,
	}
}

// OnAdd gives the role mapped to the reaction.
func (li *Listener) OnAdd(ctx context.Context, r *Reaction) {
	li.apply(ctx, r, actionAdd, li.client.AddMemberRole)
}

// OnRemove takes the role mapped to the reaction.
func (li *Listener) OnRemove(ctx context.Context, r *Reaction) {
	li.apply(ctx, r, actionRemove, li.client.RemoveMemberRole)
}

func (li *Listener) apply(ctx context.Context, r *Reaction, action string, update func(guildID, userID, roleID string) error) {
	roleID, ok := li.resolve(r)
	if !ok {
		return
	}

	l := li.l.With(
		slog.String("action", action),
		slog.String(logging.KeyGuild, r.GuildID),
		slog.String(logging.KeyMessage, r.MessageID),
		slog.String(logging.KeyUser, r.UserID),
		slog.String("role_id", roleID),
	)

	member, err := li.client.GuildMember(r.GuildID, r.UserID)
	if err != nil {
		l.Error("Error getting reacting member", slog.String(logging.KeyError, err.Error()))
		RoleUpdates.WithLabelValues(action, resultFailure).Inc()
		return
	}
	if member.User != nil && member.User.Bot {
		return
	}

	b := retry.WithMaxRetries(1, retry.NewConstant(li.retryDelay))
	err = retry.Do(ctx, b, func(_ context.Context) error {
		if err := update(r.GuildID, r.UserID, roleID); err != nil {
			if platform.IsNotFound(err) {
				return err
			}
			l.Debug("Retrying role update", slog.String(logging.KeyError, err.Error()))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		l.Error("Error updating member role", slog.String(logging.KeyError, err.Error()))
		RoleUpdates.WithLabelValues(action, resultFailure).Inc()
		return
	}

	RoleUpdates.WithLabelValues(action, resultSuccess).Inc()
	l.Debug("Member role updated")
}

// resolve finds the role of the first pair of the reacted message that refers to the reacted emoji.
func (li *Listener) resolve(r *Reaction) (string, bool) {
	m, ok := li.store.Get(r.MessageID)
	if !ok {
		return "", false
	}
	for _, p := range m.Pairs {
		if platform.EmojiMatches(p.Emoji, r.Emoji) {
			return p.RoleID, true
		}
	}
	return "", false
}
