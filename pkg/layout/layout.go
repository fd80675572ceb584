// Package layout maps the logical places the bot works with (the support category, the verified role, ...) to the
// stable IDs of one guild. The mapping is resolved once when the guild becomes available, so the handlers never scan
// channels or roles by display name.
package layout

import (
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Ref points at a channel or role. ID wins over Name, Name wins over Contains. Name and Contains are compared
// case-insensitively.
type Ref struct {
	ID       string `yaml:"id,omitempty"`
	Name     string `yaml:"name,omitempty"`
	Contains string `yaml:"contains,omitempty"`
}

// IsZero reports whether the ref points at nothing.
func (r Ref) IsZero() bool {
	return r.ID == "" && r.Name == "" && r.Contains == ""
}

// File is the layout configuration as read from disk.
type File struct {
	SupportCategory     Ref            `yaml:"support_category"`
	SupportStaffRole    Ref            `yaml:"support_staff_role"`
	SlayerCategories    map[string]Ref `yaml:"slayer_categories"`
	VerifiedRole        Ref            `yaml:"verified_role"`
	OwnerRole           Ref            `yaml:"owner_role"`
	WelcomeChannel      Ref            `yaml:"welcome_channel"`
	VerifyChannel       Ref            `yaml:"verify_channel"`
	RulesChannel        Ref            `yaml:"rules_channel"`
	SupportPanelChannel Ref            `yaml:"support_panel_channel"`
}

// Default returns the layout of the V0 Carries server.
func Default() *File {
	return &File{
		SupportCategory: Ref{Name: "SUPPORT TICKETS"},
		SlayerCategories: map[string]Ref{
			"revenant":  {Name: "Revenant Slayer"},
			"tarantula": {Name: "Tarantula Slayer"},
			"sven":      {Name: "Sven Slayer"},
			"enderman":  {Name: "Enderman Slayer"},
			"blaze":     {Name: "Blaze Slayer"},
			"vampire":   {Name: "Vampire Slayer"},
		},
		VerifiedRole:        Ref{Name: "💎 Verified"},
		OwnerRole:           Ref{Name: "👑 Owner"},
		WelcomeChannel:      Ref{Name: "👋・welcome"},
		VerifyChannel:       Ref{Contains: "verify"},
		RulesChannel:        Ref{Contains: "rules"},
		SupportPanelChannel: Ref{Name: "🎟️・support-ticket"},
	}
}

// Load reads a layout file on top of the defaults. An empty path returns the defaults.
func Load(path string) (*File, error) {
	f := Default()
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading layout file: %w", err)
	}

	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("error parsing layout file: %w", err)
	}
	return f, nil
}

// Layout is the resolved layout of one guild. Empty IDs could not be resolved.
type Layout struct {
	GuildID               string
	SupportCategoryID     string
	SupportStaffRoleID    string
	SlayerCategoryIDs     map[string]string
	VerifiedRoleID        string
	OwnerRoleID           string
	WelcomeChannelID      string
	VerifyChannelID       string
	RulesChannelID        string
	SupportPanelChannelID string
}

// SlayerCategoryID returns the category ID for a slayer kind.
func (l *Layout) SlayerCategoryID(kind string) (string, bool) {
	id, ok := l.SlayerCategoryIDs[kind]
	return id, ok && id != ""
}

// IsTicketCategory reports whether the channel ID is one of the ticket categories.
func (l *Layout) IsTicketCategory(id string) bool {
	if id == "" {
		return false
	}
	if id == l.SupportCategoryID {
		return true
	}
	for _, c := range l.SlayerCategoryIDs {
		if c == id {
			return true
		}
	}
	return false
}

// Registry holds the current layout. It is safe for concurrent use.
type Registry struct {
	current atomic.Pointer[Layout]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return new(Registry)
}

// Set replaces the current layout.
func (r *Registry) Set(l *Layout) {
	r.current.Store(l)
}

// Current returns the current layout, if one has been resolved.
func (r *Registry) Current() (*Layout, bool) {
	l := r.current.Load()
	return l, l != nil
}
