package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/platform/platformtest"
	"github.com/Jacobbrewer1/v0bot/pkg/reject"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func button(id, customID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:      id,
		Type:    discordgo.InteractionMessageComponent,
		GuildID: "1",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "100"}},
		Data:    discordgo.MessageComponentInteractionData{CustomID: customID},
	}
}

func command(id, name string, typ discordgo.InteractionType) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:      id,
		Type:    typ,
		GuildID: "1",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "100"}},
		Data:    discordgo.ApplicationCommandInteractionData{Name: name},
	}
}

func content(t *testing.T, g *platformtest.Guild, id string) string {
	t.Helper()
	resp, ok := g.LastResponse(id)
	require.True(t, ok)
	require.NotNil(t, resp.Data)
	return resp.Data.Content
}

// TestDispatcher_ExactlyOneAcknowledgement runs handlers that misbehave in every way and checks that each
// interaction gets either one reply, or one deferral and at most one follow-up.
func TestDispatcher_ExactlyOneAcknowledgement(t *testing.T) {
	tests := []struct {
		name          string
		handler       ButtonHandler
		wantResponses int
		wantFollowUps int
		wantContent   string
	}{
		{
			name:          "replies",
			handler:       func(_ context.Context, ack *Ack, _ *discordgo.Interaction, _ Tag) error { return ack.Message("hi", true) },
			wantResponses: 1,
			wantContent:   "hi",
		},
		{
			name: "replies twice",
			handler: func(_ context.Context, ack *Ack, _ *discordgo.Interaction, _ Tag) error {
				require.NoError(t, ack.Message("hi", true))
				return ack.Message("again", true)
			},
			wantResponses: 1,
			wantContent:   "hi",
		},
		{
			name:          "returns nothing",
			handler:       func(context.Context, *Ack, *discordgo.Interaction, Tag) error { return nil },
			wantResponses: 1,
		},
		{
			name:          "fails",
			handler:       func(context.Context, *Ack, *discordgo.Interaction, Tag) error { return errors.New("boom") },
			wantResponses: 1,
			wantContent:   msgGenericFailure,
		},
		{
			name: "rejects",
			handler: func(context.Context, *Ack, *discordgo.Interaction, Tag) error {
				return reject.Unauthorized("❌ You don't have permission to claim this ticket.")
			},
			wantResponses: 1,
			wantContent:   "❌ You don't have permission to claim this ticket.",
		},
		{
			name:          "panics",
			handler:       func(context.Context, *Ack, *discordgo.Interaction, Tag) error { panic("nil map") },
			wantResponses: 1,
			wantContent:   msgGenericFailure,
		},
		{
			name: "replies then fails",
			handler: func(_ context.Context, ack *Ack, _ *discordgo.Interaction, _ Tag) error {
				require.NoError(t, ack.Message("claimed", false))
				return errors.New("boom")
			},
			wantResponses: 1,
			wantContent:   "claimed",
		},
		{
			name: "defers then fails",
			handler: func(_ context.Context, ack *Ack, _ *discordgo.Interaction, _ Tag) error {
				require.NoError(t, ack.Defer(true))
				return errors.New("boom")
			},
			wantResponses: 1,
			wantFollowUps: 1,
		},
		{
			name: "defers and follows up twice",
			handler: func(_ context.Context, ack *Ack, _ *discordgo.Interaction, _ Tag) error {
				require.NoError(t, ack.Defer(true))
				require.NoError(t, ack.FollowUp("one", true))
				require.ErrorIs(t, ack.FollowUp("two", true), ErrAlreadyFollowedUp)
				return nil
			},
			wantResponses: 1,
			wantFollowUps: 1,
		},
		{
			name: "defers and returns",
			handler: func(_ context.Context, ack *Ack, _ *discordgo.Interaction, _ Tag) error {
				return ack.Defer(false)
			},
			wantResponses: 1,
			wantFollowUps: 1,
		},
		{
			name: "follows up without deferring",
			handler: func(_ context.Context, ack *Ack, _ *discordgo.Interaction, _ Tag) error {
				require.ErrorIs(t, ack.FollowUp("hi", true), ErrNotDeferred)
				return nil
			},
			wantResponses: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := platformtest.NewGuild("1")
			d := NewDispatcher(testLogger(), g)
			d.HandleButton(KindVerifyUser, tt.handler)

			d.Dispatch(context.Background(), button("9", "verify_user"))

			responses, followUps := g.Acks("9")
			require.Equal(t, tt.wantResponses, responses)
			require.Equal(t, tt.wantFollowUps, followUps)
			if tt.wantContent != "" {
				require.Equal(t, tt.wantContent, content(t, g, "9"))
			}
		})
	}
}

func TestDispatcher_UnknownTag(t *testing.T) {
	g := platformtest.NewGuild("1")
	d := NewDispatcher(testLogger(), g)

	d.Dispatch(context.Background(), button("9", "nobody_knows_me"))

	responses, _ := g.Acks("9")
	require.Equal(t, 1, responses)
	require.Equal(t, msgUnknown, content(t, g, "9"))

	// A recognised tag without a handler is answered the same way.
	d.Dispatch(context.Background(), button("10", "verify_user"))
	require.Equal(t, msgUnknown, content(t, g, "10"))
}

func TestDispatcher_PassesTag(t *testing.T) {
	g := platformtest.NewGuild("1")
	d := NewDispatcher(testLogger(), g)

	var got Tag
	d.HandleButton(KindClaim, func(_ context.Context, ack *Ack, _ *discordgo.Interaction, tag Tag) error {
		got = tag
		return ack.Message("ok", false)
	})

	d.Dispatch(context.Background(), button("9", "claim_555"))
	require.Equal(t, Tag{Kind: KindClaim, ChannelID: "555"}, got)
}

func TestDispatcher_Commands(t *testing.T) {
	g := platformtest.NewGuild("1")
	d := NewDispatcher(testLogger(), g)

	var autocompleted bool
	d.HandleCommand(&Command{
		Definition: &discordgo.ApplicationCommand{Name: "panel"},
		Handler: func(_ context.Context, ack *Ack, _ *discordgo.Interaction) error {
			return ack.Message("posted", true)
		},
		Autocomplete: func(_ context.Context, ack *Ack, _ *discordgo.Interaction) error {
			autocompleted = true
			return nil
		},
	})
	d.HandleCommand(&Command{
		Definition: &discordgo.ApplicationCommand{Name: "about"},
		Handler:    func(context.Context, *Ack, *discordgo.Interaction) error { return nil },
	})

	require.Len(t, d.Commands(), 2)
	require.Equal(t, "about", d.Commands()[0].Name)

	d.Dispatch(context.Background(), command("1", "panel", discordgo.InteractionApplicationCommand))
	require.Equal(t, "posted", content(t, g, "1"))

	// Unregistered commands are not acknowledged.
	d.Dispatch(context.Background(), command("2", "nope", discordgo.InteractionApplicationCommand))
	responses, _ := g.Acks("2")
	require.Zero(t, responses)

	// An autocomplete hook that does not answer gets an empty choice list.
	d.Dispatch(context.Background(), command("3", "panel", discordgo.InteractionApplicationCommandAutocomplete))
	require.True(t, autocompleted)
	resp, ok := g.LastResponse("3")
	require.True(t, ok)
	require.Equal(t, discordgo.InteractionApplicationCommandAutocompleteResult, resp.Type)

	// No autocomplete hook, no answer.
	d.Dispatch(context.Background(), command("4", "about", discordgo.InteractionApplicationCommandAutocomplete))
	responses, _ = g.Acks("4")
	require.Zero(t, responses)

	// A command that does not answer is acknowledged generically.
	d.Dispatch(context.Background(), command("5", "about", discordgo.InteractionApplicationCommand))
	require.Equal(t, msgDone, content(t, g, "5"))
}

func TestAck_StaleToken(t *testing.T) {
	g := platformtest.NewGuild("1")
	g.Fail("Respond", platformtest.StaleInteractionError())

	ack := NewAck(testLogger(), g, button("9", "verify_user"))
	require.NoError(t, ack.Message("hi", true))
	require.True(t, ack.Acknowledged())
	require.ErrorIs(t, ack.Message("again", true), ErrAlreadyAcknowledged)

	responses, _ := g.Acks("9")
	require.Zero(t, responses)
}

func TestAck_TransportFailureAllowsRetry(t *testing.T) {
	g := platformtest.NewGuild("1")
	g.Fail("Respond", errors.New("connection reset"))

	ack := NewAck(testLogger(), g, button("9", "verify_user"))
	require.Error(t, ack.Message("hi", true))
	require.False(t, ack.Acknowledged())

	require.NoError(t, ack.Message("hi", true))
	responses, _ := g.Acks("9")
	require.Equal(t, 1, responses)
}
