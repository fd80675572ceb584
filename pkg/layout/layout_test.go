package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/platform/platformtest"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	f, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "SUPPORT TICKETS", f.SupportCategory.Name)
	require.Len(t, f.SlayerCategories, 6)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
support_category:
  id: "42"
verified_role:
  name: Member
slayer_categories:
  sven:
    id: "77"
`), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "42", f.SupportCategory.ID)
	require.Equal(t, "Member", f.VerifiedRole.Name)
	require.Equal(t, "77", f.SlayerCategories["sven"].ID)

	// Keys not in the file keep their defaults.
	require.Equal(t, "Revenant Slayer", f.SlayerCategories["revenant"].Name)
	require.Equal(t, "👑 Owner", f.OwnerRole.Name)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("support_category: [nope"), 0o600))

	_, err := Load(path)
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestResolve(t *testing.T) {
	g := platformtest.NewGuild("1")
	support := g.AddChannel("Support Tickets", discordgo.ChannelTypeGuildCategory, "")
	sven := g.AddChannel("Sven Slayer", discordgo.ChannelTypeGuildCategory, "")
	// A text channel with the category name must not be picked for a category.
	g.AddChannel("revenant slayer", discordgo.ChannelTypeGuildText, "")
	welcome := g.AddChannel("👋・welcome", discordgo.ChannelTypeGuildText, "")
	verify := g.AddChannel("✅・verify-here", discordgo.ChannelTypeGuildText, "")
	verified := g.AddRole("💎 Verified")
	owner := g.AddRole("👑 OWNER")

	f := Default()
	l, unresolved, err := Resolve(g, "1", f)
	require.NoError(t, err)

	require.Equal(t, "1", l.GuildID)
	require.Equal(t, support, l.SupportCategoryID)
	require.Equal(t, sven, l.SlayerCategoryIDs["sven"])
	require.Equal(t, welcome, l.WelcomeChannelID)
	require.Equal(t, verify, l.VerifyChannelID)
	require.Equal(t, verified, l.VerifiedRoleID)
	require.Equal(t, owner, l.OwnerRoleID)

	_, ok := l.SlayerCategoryID("revenant")
	require.False(t, ok)
	require.True(t, l.IsTicketCategory(support))
	require.True(t, l.IsTicketCategory(sven))
	require.False(t, l.IsTicketCategory(welcome))
	require.False(t, l.IsTicketCategory(""))

	require.ElementsMatch(t, []string{
		"rules_channel",
		"support_panel_channel",
		"slayer_categories.blaze",
		"slayer_categories.enderman",
		"slayer_categories.revenant",
		"slayer_categories.tarantula",
		"slayer_categories.vampire",
	}, unresolved)
}

func TestResolve_IDWins(t *testing.T) {
	g := platformtest.NewGuild("1")
	f := &File{SupportCategory: Ref{ID: "999", Name: "ignored"}}

	l, unresolved, err := Resolve(g, "1", f)
	require.NoError(t, err)
	require.Equal(t, "999", l.SupportCategoryID)
	require.Empty(t, unresolved)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Current()
	require.False(t, ok)

	r.Set(&Layout{GuildID: "1"})
	l, ok := r.Current()
	require.True(t, ok)
	require.Equal(t, "1", l.GuildID)
}
