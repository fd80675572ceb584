package reactionroles

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/dataaccess"
	"github.com/Jacobbrewer1/v0bot/pkg/entities"
	"github.com/Jacobbrewer1/v0bot/pkg/platform/platformtest"
	"github.com/Jacobbrewer1/v0bot/pkg/reject"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// flakyDal fails the next save or delete when failNext is set.
type flakyDal struct {
	dataaccess.RoleMappingDal
	failNext bool
}

func (d *flakyDal) Save(ctx context.Context, id string, m *entities.RoleMapping) error {
	if d.failNext {
		d.failNext = false
		return errors.New("disk full")
	}
	return d.RoleMappingDal.Save(ctx, id, m)
}

func (d *flakyDal) Delete(ctx context.Context, id string) error {
	if d.failNext {
		d.failNext = false
		return errors.New("disk full")
	}
	return d.RoleMappingDal.Delete(ctx, id)
}

func newStore(t *testing.T, path string) (*Store, *flakyDal) {
	t.Helper()
	dal := &flakyDal{RoleMappingDal: dataaccess.NewFileDal(testLogger(), path)}
	s := NewStore(dal)
	require.NoError(t, s.Load(context.Background()))
	return s, dal
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reactionroles.json")
	s, _ := newStore(t, path)

	m := &entities.RoleMapping{
		ChannelID:   "123",
		ChannelName: "roles",
		Pairs:       []entities.RolePair{{Emoji: "✅", RoleID: "999"}, {Emoji: "✅", RoleID: "1000"}},
		Embed:       entities.Embed{Title: "Pick"},
	}
	require.NoError(t, s.Put(ctx, "42", m))

	got, ok := s.Get("42")
	require.True(t, ok)
	require.Equal(t, m, got)

	// Mutating the returned copy does not reach the store.
	got.Pairs[0].RoleID = "1"
	roleID, ok := s.ResolveRole("42", "✅")
	require.True(t, ok)
	require.Equal(t, "999", roleID)

	_, ok = s.ResolveRole("42", "❌")
	require.False(t, ok)
	_, ok = s.ResolveRole("43", "✅")
	require.False(t, ok)

	reloaded, _ := newStore(t, path)
	got, ok = reloaded.Get("42")
	require.True(t, ok)
	require.Equal(t, m, got)
	require.Len(t, reloaded.All(), 1)

	require.NoError(t, reloaded.Delete(ctx, "42"))
	_, ok = reloaded.Get("42")
	require.False(t, ok)

	again, _ := newStore(t, path)
	require.Empty(t, again.All())
}

func TestStore_PersistenceFailure(t *testing.T) {
	ctx := context.Background()
	s, dal := newStore(t, filepath.Join(t.TempDir(), "reactionroles.json"))

	first := &entities.RoleMapping{ChannelID: "123", Pairs: []entities.RolePair{{Emoji: "✅", RoleID: "999"}}}
	require.NoError(t, s.Put(ctx, "42", first))

	dal.failNext = true
	err := s.Put(ctx, "42", &entities.RoleMapping{ChannelID: "456"})
	require.Error(t, err)

	got, ok := s.Get("42")
	require.True(t, ok)
	require.Equal(t, first, got)

	dal.failNext = true
	require.Error(t, s.Delete(ctx, "42"))
	_, ok = s.Get("42")
	require.True(t, ok)
}

type listenerFixture struct {
	guild    *platformtest.Guild
	store    *Store
	listener *Listener
	role     string
}

func newListenerFixture(t *testing.T) *listenerFixture {
	t.Helper()
	g := platformtest.NewGuild("1")
	role := g.AddRole("Carrier Ping")
	g.AddMember("100", "alice", false)
	g.AddMember("200", "v0bot", true)

	s, _ := newStore(t, filepath.Join(t.TempDir(), "reactionroles.json"))
	require.NoError(t, s.Put(context.Background(), "42", &entities.RoleMapping{
		ChannelID: "123",
		Pairs: []entities.RolePair{
			{Emoji: "✅", RoleID: role},
			{Emoji: "<:pepe:77>", RoleID: role},
		},
	}))

	li := NewListener(testLogger(), g, s)
	li.retryDelay = time.Millisecond
	return &listenerFixture{guild: g, store: s, listener: li, role: role}
}

func reaction(userID, messageID string, emoji discordgo.Emoji) *Reaction {
	return &Reaction{GuildID: "1", ChannelID: "123", MessageID: messageID, UserID: userID, Emoji: emoji}
}

func TestListener_AddIsIdempotent(t *testing.T) {
	f := newListenerFixture(t)
	ctx := context.Background()

	f.listener.OnAdd(ctx, reaction("100", "42", discordgo.Emoji{Name: "✅"}))
	f.listener.OnAdd(ctx, reaction("100", "42", discordgo.Emoji{Name: "✅"}))
	require.Equal(t, []string{f.role}, f.guild.MemberRoles("100"))

	f.listener.OnRemove(ctx, reaction("100", "42", discordgo.Emoji{Name: "✅"}))
	require.Empty(t, f.guild.MemberRoles("100"))

	// Removing again is quiet.
	f.listener.OnRemove(ctx, reaction("100", "42", discordgo.Emoji{Name: "✅"}))
	require.Empty(t, f.guild.MemberRoles("100"))
}

func TestListener_Ignores(t *testing.T) {
	tests := []struct {
		name string
		r    *Reaction
	}{
		{name: "bot", r: reaction("200", "42", discordgo.Emoji{Name: "✅"})},
		{name: "untracked message", r: reaction("100", "43", discordgo.Emoji{Name: "✅"})},
		{name: "untracked emoji", r: reaction("100", "42", discordgo.Emoji{Name: "❌"})},
		{name: "custom emoji with another id", r: reaction("100", "42", discordgo.Emoji{Name: "pepe", ID: "78"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newListenerFixture(t)
			f.listener.OnAdd(context.Background(), tt.r)
			require.Empty(t, f.guild.MemberRoles(tt.r.UserID))
			require.NotContains(t, f.guild.Calls, "AddMemberRole")
		})
	}
}

func TestListener_CustomEmoji(t *testing.T) {
	f := newListenerFixture(t)
	f.listener.OnAdd(context.Background(), reaction("100", "42", discordgo.Emoji{Name: "pepe", ID: "77"}))
	require.Equal(t, []string{f.role}, f.guild.MemberRoles("100"))
}

func TestListener_RetriesOnce(t *testing.T) {
	t.Run("second attempt succeeds", func(t *testing.T) {
		f := newListenerFixture(t)
		f.guild.Fail("AddMemberRole", errors.New("gateway timeout"))

		f.listener.OnAdd(context.Background(), reaction("100", "42", discordgo.Emoji{Name: "✅"}))
		require.Equal(t, []string{f.role}, f.guild.MemberRoles("100"))
	})

	t.Run("gives up after the retry", func(t *testing.T) {
		f := newListenerFixture(t)
		f.guild.Fail("AddMemberRole", errors.New("gateway timeout"), errors.New("gateway timeout"))

		f.listener.OnAdd(context.Background(), reaction("100", "42", discordgo.Emoji{Name: "✅"}))
		require.Empty(t, f.guild.MemberRoles("100"))

		var calls int
		for _, c := range f.guild.Calls {
			if c == "AddMemberRole" {
				calls++
			}
		}
		require.Equal(t, 2, calls)
	})

	t.Run("not found is not retried", func(t *testing.T) {
		f := newListenerFixture(t)
		f.guild.Fail("AddMemberRole", platformtest.NotFoundError(10011))

		f.listener.OnAdd(context.Background(), reaction("100", "42", discordgo.Emoji{Name: "✅"}))

		var calls int
		for _, c := range f.guild.Calls {
			if c == "AddMemberRole" {
				calls++
			}
		}
		require.Equal(t, 1, calls)
	})
}

type publisherFixture struct {
	guild     *platformtest.Guild
	store     *Store
	dal       *flakyDal
	publisher *Publisher
	channel   string
}

func newPublisherFixture(t *testing.T) *publisherFixture {
	t.Helper()
	g := platformtest.NewGuild("1")
	ch := g.AddChannel("roles", discordgo.ChannelTypeGuildText, "")

	s, dal := newStore(t, filepath.Join(t.TempDir(), "reactionroles.json"))
	p := NewPublisher(testLogger(), g, s, "https://example.com/icon.png", "555")
	p.reactLimiter = rate.NewLimiter(rate.Inf, 1)
	return &publisherFixture{guild: g, store: s, dal: dal, publisher: p, channel: ch}
}

func TestPublisher_CreateUpdateDelete(t *testing.T) {
	f := newPublisherFixture(t)
	ctx := context.Background()

	pairs := []entities.RolePair{{Emoji: "✅", RoleID: "999"}, {Emoji: "<:pepe:77>", RoleID: "1000"}}
	id, err := f.publisher.CreateReactionRole(ctx, f.channel, entities.Embed{}, pairs)
	require.NoError(t, err)

	msg, ok := f.guild.Message(id)
	require.True(t, ok)
	require.Len(t, msg.Embeds, 1)
	require.Equal(t, "Reaction Roles", msg.Embeds[0].Title)
	require.Equal(t, "React below to get roles!", msg.Embeds[0].Description)
	require.Equal(t, "V0 | Reaction Roles", msg.Embeds[0].Footer.Text)
	require.Equal(t, "https://example.com/icon.png", msg.Embeds[0].Footer.IconURL)
	require.Equal(t, 0xFFD700, msg.Embeds[0].Color)
	require.Equal(t, []string{"✅", "pepe:77"}, f.guild.Reactions(id))

	stored, ok := f.store.Get(id)
	require.True(t, ok)
	require.Equal(t, &entities.RoleMapping{ChannelID: f.channel, ChannelName: "roles", Pairs: pairs}, stored)

	edited := entities.Embed{Title: "Pick a role", Color: "#00ff00"}
	require.NoError(t, f.publisher.UpdateReactionRole(ctx, id, edited, pairs[:1]))

	msg, _ = f.guild.Message(id)
	require.Equal(t, "Pick a role", msg.Embeds[0].Title)
	require.Equal(t, "", msg.Embeds[0].Description)
	require.Equal(t, 0x00FF00, msg.Embeds[0].Color)
	require.Equal(t, []string{"✅"}, f.guild.Reactions(id))

	stored, _ = f.store.Get(id)
	require.Equal(t, edited, stored.Embed)
	require.Equal(t, pairs[:1], stored.Pairs)

	require.NoError(t, f.publisher.DeleteReactionRole(ctx, id))
	_, ok = f.guild.Message(id)
	require.False(t, ok)
	_, ok = f.store.Get(id)
	require.False(t, ok)
}

func TestPublisher_Rejections(t *testing.T) {
	f := newPublisherFixture(t)
	ctx := context.Background()

	_, err := f.publisher.CreateReactionRole(ctx, f.channel, entities.Embed{}, nil)
	require.True(t, reject.Is(err, reject.ReasonConflict))

	_, err = f.publisher.CreateReactionRole(ctx, "404", entities.Embed{}, []entities.RolePair{{Emoji: "✅", RoleID: "999"}})
	require.True(t, reject.Is(err, reject.ReasonNotFound))

	err = f.publisher.UpdateReactionRole(ctx, "404", entities.Embed{}, nil)
	require.True(t, reject.Is(err, reject.ReasonNotFound))

	err = f.publisher.DeleteReactionRole(ctx, "404")
	require.True(t, reject.Is(err, reject.ReasonNotFound))
}

func TestPublisher_CreateRollsBackOnStoreFailure(t *testing.T) {
	f := newPublisherFixture(t)
	f.dal.failNext = true

	_, err := f.publisher.CreateReactionRole(context.Background(), f.channel, entities.Embed{}, []entities.RolePair{{Emoji: "✅", RoleID: "999"}})
	require.Error(t, err)
	_, isReject := reject.From(err)
	require.False(t, isReject)

	require.Empty(t, f.guild.ChannelMessages(f.channel))
	require.Empty(t, f.store.All())
}

func TestPublisher_DeleteMissingMessage(t *testing.T) {
	f := newPublisherFixture(t)
	ctx := context.Background()

	id, err := f.publisher.CreateReactionRole(ctx, f.channel, entities.Embed{}, []entities.RolePair{{Emoji: "✅", RoleID: "999"}})
	require.NoError(t, err)
	require.NoError(t, f.guild.DeleteMessage(f.channel, id))

	require.NoError(t, f.publisher.DeleteReactionRole(ctx, id))
	require.Empty(t, f.store.All())
}

func TestPublisher_Announce(t *testing.T) {
	f := newPublisherFixture(t)
	ctx := context.Background()

	require.NoError(t, f.publisher.Announce(ctx, &Announcement{
		ChannelID: f.channel,
		Embed:     entities.Embed{Description: "New stock"},
		Restock:   true,
	}))

	msgs := f.guild.ChannelMessages(f.channel)
	require.Len(t, msgs, 2)
	require.Equal(t, "<@&555> 🔔 **Restock Alert!**", msgs[0].Content)
	require.Equal(t, "Untitled Embed", msgs[1].Embeds[0].Title)
	require.Equal(t, "New stock", msgs[1].Embeds[0].Description)
	require.Equal(t, "V0 | Embed System", msgs[1].Embeds[0].Footer.Text)

	require.NoError(t, f.publisher.Announce(ctx, &Announcement{ChannelID: f.channel}))
	require.Len(t, f.guild.ChannelMessages(f.channel), 3)

	err := f.publisher.Announce(ctx, &Announcement{ChannelID: "404"})
	require.True(t, reject.Is(err, reject.ReasonNotFound))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "", want: 0xFFD700},
		{in: "#FFD700", want: 0xFFD700},
		{in: "#ff0000", want: 0xFF0000},
		{in: "00ff00", want: 0x00FF00},
		{in: "#zzzzzz", want: 0xFFD700},
		{in: "#1234567", want: 0xFFD700},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, ParseColor(tt.in))
		})
	}
}
