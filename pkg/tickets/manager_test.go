package tickets

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/layout"
	"github.com/Jacobbrewer1/v0bot/pkg/platform/platformtest"
	"github.com/Jacobbrewer1/v0bot/pkg/reject"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fixture struct {
	guild   *platformtest.Guild
	manager *Manager

	supportCategory  string
	revenantCategory string
	welcome          string

	tier1, tier3, tier5, staff string

	owner, carrier5, carrier3, carrier1 *discordgo.User

	scheduled []func()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g := platformtest.NewGuild("1")
	f := &fixture{guild: g}

	f.supportCategory = g.AddChannel("SUPPORT TICKETS", discordgo.ChannelTypeGuildCategory, "")
	f.revenantCategory = g.AddChannel("Revenant Slayer", discordgo.ChannelTypeGuildCategory, "")
	f.welcome = g.AddChannel("👋・welcome", discordgo.ChannelTypeGuildText, "")

	f.tier1 = g.AddRole("Revenant Tier 1")
	f.tier3 = g.AddRole("Revenant Tier 3")
	f.tier5 = g.AddRole("Revenant Tier 5")
	f.staff = g.AddRole("Support Team")
	g.AddRole("Sven Tier 5")

	user := func(id, name string, roles ...string) *discordgo.User {
		return g.AddMember(id, name, false, roles...).User
	}
	f.owner = user("100", "Alice")
	f.carrier5 = user("200", "bob", f.tier5)
	f.carrier3 = user("300", "carol", f.tier3)
	f.carrier1 = user("400", "dave", f.tier1)

	reg := layout.NewRegistry()
	reg.Set(&layout.Layout{
		GuildID:            "1",
		SupportCategoryID:  f.supportCategory,
		SupportStaffRoleID: f.staff,
		SlayerCategoryIDs:  map[string]string{"revenant": f.revenantCategory},
	})

	l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	f.manager = NewManager(l, g, reg, "https://example.com/icon.png")
	f.manager.sortLimiter = rate.NewLimiter(rate.Inf, 1)
	f.manager.after = func(_ time.Duration, fn func()) { f.scheduled = append(f.scheduled, fn) }
	return f
}

func (f *fixture) overwrite(t *testing.T, channelID, targetID string) *discordgo.PermissionOverwrite {
	t.Helper()
	po, ok := f.guild.Overwrite(channelID, targetID)
	require.True(t, ok, "no overwrite for %s", targetID)
	return po
}

// senders returns the targets of every overwrite that allows sending messages.
func (f *fixture) senders(t *testing.T, channelID string) []string {
	t.Helper()
	ch, err := f.guild.Channel(channelID)
	require.NoError(t, err)
	var out []string
	for _, po := range ch.PermissionOverwrites {
		if po.Allow&discordgo.PermissionSendMessages != 0 {
			out = append(out, po.ID)
		}
	}
	return out
}

func TestCreate_Slayer(t *testing.T) {
	f := newFixture(t)

	ch, err := f.manager.Create(context.Background(), "1", f.owner, KindRevenant, 3)
	require.NoError(t, err)
	require.Equal(t, "revenant-t3-alice", ch.Name)
	require.Equal(t, f.revenantCategory, ch.ParentID)
	require.Equal(t, "Revenant Tier 3 Carry for Alice (100)", ch.Topic)

	everyone := f.overwrite(t, ch.ID, "1")
	require.Equal(t, int64(discordgo.PermissionViewChannel), everyone.Deny)
	require.Equal(t, int64(participant), f.overwrite(t, ch.ID, f.owner.ID).Allow)
	require.Equal(t, int64(participant), f.overwrite(t, ch.ID, f.tier3).Allow)
	require.Equal(t, int64(participant), f.overwrite(t, ch.ID, f.tier5).Allow)
	_, ok := f.guild.Overwrite(ch.ID, f.tier1)
	require.False(t, ok)

	msgs := f.guild.ChannelMessages(ch.ID)
	require.Len(t, msgs, 1)
	require.Equal(t, "|| @Tier 3 Revenant ||\n|| <@100> ||", msgs[0].Content)
	require.Equal(t, "Revenant Tier 3 Ticket", msgs[0].Embeds[0].Title)

	row := msgs[0].Components[0].(discordgo.ActionsRow)
	require.Len(t, row.Components, 3)
	require.Equal(t, "claim_"+ch.ID, row.Components[0].(discordgo.Button).CustomID)
	require.Equal(t, "unclaim_"+ch.ID, row.Components[1].(discordgo.Button).CustomID)
	require.Equal(t, "close_"+ch.ID, row.Components[2].(discordgo.Button).CustomID)
}

func TestCreate_Support(t *testing.T) {
	f := newFixture(t)

	ch, err := f.manager.Create(context.Background(), "1", f.owner, KindSupport, 4)
	require.NoError(t, err)
	require.Equal(t, "ticket-alice", ch.Name)
	require.Equal(t, f.supportCategory, ch.ParentID)
	require.Equal(t, int64(participant), f.overwrite(t, ch.ID, f.staff).Allow)

	msgs := f.guild.ChannelMessages(ch.ID)
	require.Len(t, msgs, 1)
	row := msgs[0].Components[0].(discordgo.ActionsRow)
	require.Equal(t, "close_ticket", row.Components[0].(discordgo.Button).CustomID)
}

func TestCreate_AtMostOneOpenTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.manager.Create(ctx, "1", f.owner, KindRevenant, 3)
	require.NoError(t, err)

	for _, tier := range []int{3, 5} {
		_, err = f.manager.Create(ctx, "1", f.owner, KindRevenant, tier)
		require.True(t, reject.Is(err, reject.ReasonDuplicate), "tier %d", tier)
		r, _ := reject.From(err)
		require.Contains(t, r.Message, "<#"+first.ID+">")
	}

	_, err = f.manager.Create(ctx, "1", f.owner, KindSupport, 0)
	require.NoError(t, err)
	_, err = f.manager.Create(ctx, "1", f.owner, KindSupport, 0)
	require.True(t, reject.Is(err, reject.ReasonDuplicate))

	// Someone else can still open one.
	_, err = f.manager.Create(ctx, "1", f.carrier1, KindRevenant, 3)
	require.NoError(t, err)

	// Once the channel is gone a new one can be opened.
	require.NoError(t, f.guild.DeleteChannel(first.ID))
	_, err = f.manager.Create(ctx, "1", f.owner, KindRevenant, 2)
	require.NoError(t, err)
}

func TestCreate_Concurrent(t *testing.T) {
	f := newFixture(t)

	const attempts = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.manager.Create(context.Background(), "1", f.owner, KindRevenant, 3)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if reject.Is(err, reject.ReasonDuplicate) {
				rejected++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, created)
	require.Equal(t, attempts-1, rejected)
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Create(ctx, "1", f.owner, KindSven, 3)
	require.True(t, reject.Is(err, reject.ReasonNotFound))

	_, err = f.manager.Create(ctx, "1", f.owner, KindRevenant, 6)
	require.True(t, reject.Is(err, reject.ReasonNotFound))

	_, err = f.manager.Create(ctx, "1", f.owner, Kind("wither"), 1)
	require.True(t, reject.Is(err, reject.ReasonNotFound))

	empty := NewManager(f.manager.l, f.guild, layout.NewRegistry(), "")
	_, err = empty.Create(ctx, "1", f.owner, KindSupport, 0)
	require.True(t, reject.Is(err, reject.ReasonNotFound))

	_, ok := f.guild.ChannelByName("sven-t3-alice")
	require.False(t, ok)
}

func TestCreate_RemovesChannelWhenOpeningMessageFails(t *testing.T) {
	f := newFixture(t)
	f.guild.Fail("SendMessage", platformtest.NotFoundError(50001))

	_, err := f.manager.Create(context.Background(), "1", f.owner, KindRevenant, 3)
	require.Error(t, err)

	_, ok := f.guild.ChannelByName("revenant-t3-alice")
	require.False(t, ok)
}

func TestClaim_Exclusivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ch, err := f.manager.Create(ctx, "1", f.owner, KindRevenant, 3)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{f.owner.ID, f.tier3, f.tier5}, f.senders(t, ch.ID))

	ticket, err := f.manager.Claim(ctx, "1", ch.ID, f.carrier5.ID)
	require.NoError(t, err)
	require.Equal(t, f.carrier5.ID, ticket.ClaimedBy)

	require.ElementsMatch(t, []string{f.owner.ID, f.carrier5.ID}, f.senders(t, ch.ID))
	tier3 := f.overwrite(t, ch.ID, f.tier3)
	require.NotZero(t, tier3.Allow&discordgo.PermissionViewChannel, "claim keeps view")
	require.NotZero(t, tier3.Deny&discordgo.PermissionSendMessages)

	// The claim is read back from the channel.
	reread, err := f.guild.Channel(ch.ID)
	require.NoError(t, err)
	parsed, ok := Parse(reread)
	require.True(t, ok)
	require.Equal(t, f.carrier5.ID, parsed.ClaimedBy)

	_, err = f.manager.Claim(ctx, "1", ch.ID, f.carrier3.ID)
	require.True(t, reject.Is(err, reject.ReasonConflict))
	_, err = f.manager.Claim(ctx, "1", ch.ID, f.carrier5.ID)
	require.True(t, reject.Is(err, reject.ReasonConflict))
	require.ElementsMatch(t, []string{f.owner.ID, f.carrier5.ID}, f.senders(t, ch.ID))

	ticket, err = f.manager.Unclaim(ctx, "1", ch.ID, f.carrier5.ID)
	require.NoError(t, err)
	require.Empty(t, ticket.ClaimedBy)

	require.ElementsMatch(t, []string{f.owner.ID, f.tier3, f.tier5}, f.senders(t, ch.ID))
	_, ok = f.guild.Overwrite(ch.ID, f.carrier5.ID)
	require.False(t, ok)

	_, err = f.manager.Unclaim(ctx, "1", ch.ID, f.carrier5.ID)
	require.True(t, reject.Is(err, reject.ReasonConflict))

	// Another entitled carrier can claim now.
	_, err = f.manager.Claim(ctx, "1", ch.ID, f.carrier3.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{f.owner.ID, f.carrier3.ID}, f.senders(t, ch.ID))
}

func TestClaim_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ch, err := f.manager.Create(ctx, "1", f.owner, KindRevenant, 3)
	require.NoError(t, err)

	_, err = f.manager.Claim(ctx, "1", ch.ID, f.carrier1.ID)
	require.True(t, reject.Is(err, reject.ReasonUnauthorized))

	_, err = f.manager.Claim(ctx, "1", ch.ID, f.owner.ID)
	require.True(t, reject.Is(err, reject.ReasonConflict))

	_, err = f.manager.Claim(ctx, "1", f.welcome, f.carrier5.ID)
	require.True(t, reject.Is(err, reject.ReasonNotFound))

	_, err = f.manager.Claim(ctx, "1", "999999", f.carrier5.ID)
	require.True(t, reject.Is(err, reject.ReasonNotFound))

	// Nothing changed.
	require.ElementsMatch(t, []string{f.owner.ID, f.tier3, f.tier5}, f.senders(t, ch.ID))

	_, err = f.manager.Claim(ctx, "1", ch.ID, f.carrier5.ID)
	require.NoError(t, err)
	_, err = f.manager.Unclaim(ctx, "1", ch.ID, f.carrier1.ID)
	require.True(t, reject.Is(err, reject.ReasonUnauthorized))
}

func TestClaim_Support(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ch, err := f.manager.Create(ctx, "1", f.owner, KindSupport, 0)
	require.NoError(t, err)

	// Support tickets have no entitlement gate.
	_, err = f.manager.Claim(ctx, "1", ch.ID, f.carrier1.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{f.owner.ID, f.carrier1.ID}, f.senders(t, ch.ID))

	_, err = f.manager.Unclaim(ctx, "1", ch.ID, f.carrier1.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{f.owner.ID, f.staff}, f.senders(t, ch.ID))
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ch, err := f.manager.Create(ctx, "1", f.owner, KindRevenant, 3)
	require.NoError(t, err)

	_, err = f.manager.Close(ctx, f.welcome)
	require.True(t, reject.Is(err, reject.ReasonNotFound))
	require.Empty(t, f.scheduled)

	ticket, err := f.manager.Close(ctx, ch.ID)
	require.NoError(t, err)
	require.Equal(t, KindRevenant, ticket.Kind)
	require.Len(t, f.scheduled, 1)

	// Still there until the delay passes.
	_, err = f.guild.Channel(ch.ID)
	require.NoError(t, err)

	f.scheduled[0]()
	_, err = f.guild.Channel(ch.ID)
	require.Error(t, err)

	// A second close of a channel deleted in between is quiet.
	f.scheduled[0]()
}

func TestSort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	users := []struct {
		user *discordgo.User
		tier int
	}{
		{user: &discordgo.User{ID: "501", Username: "a"}, tier: 1},
		{user: &discordgo.User{ID: "502", Username: "b"}, tier: 4},
		{user: &discordgo.User{ID: "503", Username: "c"}, tier: 2},
		{user: &discordgo.User{ID: "504", Username: "d"}, tier: 4},
		{user: &discordgo.User{ID: "505", Username: "e"}, tier: 5},
	}
	for _, u := range users {
		_, err := f.manager.Create(ctx, "1", u.user, KindRevenant, u.tier)
		require.NoError(t, err)
	}

	// A stray channel in the category is left alone.
	stray := f.guild.AddChannel("rules", discordgo.ChannelTypeGuildText, f.revenantCategory)

	require.NoError(t, f.manager.Sort(ctx, "1", f.revenantCategory))

	want := []string{"revenant-t5-e", "revenant-t4-b", "revenant-t4-d", "revenant-t2-c", "revenant-t1-a"}
	for pos, name := range want {
		ch, ok := f.guild.ChannelByName(name)
		require.True(t, ok)
		require.Equal(t, pos, ch.Position, name)
	}

	strayCh, err := f.guild.Channel(stray)
	require.NoError(t, err)
	require.NotEqual(t, 0, strayCh.Position)
}

func TestPostSupportPanel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.manager.PostSupportPanel(ctx, "1")
	require.True(t, reject.Is(err, reject.ReasonNotFound))

	panel := f.guild.AddChannel("🎟️・support-ticket", discordgo.ChannelTypeGuildText, "")
	for i := 0; i < 3; i++ {
		_, err := f.guild.SendMessage(panel, &discordgo.MessageSend{Content: "old"})
		require.NoError(t, err)
	}
	lay, _ := f.manager.layouts.Current()
	next := *lay
	next.SupportPanelChannelID = panel
	f.manager.layouts.(*layout.Registry).Set(&next)

	require.NoError(t, f.manager.PostSupportPanel(ctx, "1"))

	msgs := f.guild.ChannelMessages(panel)
	require.Len(t, msgs, 1)
	require.Equal(t, "💎 V0 Support", msgs[0].Embeds[0].Title)
	row := msgs[0].Components[0].(discordgo.ActionsRow)
	require.Equal(t, "create_support_ticket", row.Components[0].(discordgo.Button).CustomID)
}
