package tickets

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/reject"
)

// Kind is the category of a ticket.
type Kind string

const (
	KindSupport   Kind = "support"
	KindRevenant  Kind = "revenant"
	KindTarantula Kind = "tarantula"
	KindSven      Kind = "sven"
	KindEnderman  Kind = "enderman"
	KindBlaze     Kind = "blaze"
	KindVampire   Kind = "vampire"
)

const (
	MinTier = 1
	MaxTier = 5
)

// SlayerKinds are the tiered ticket kinds, in panel order.
var SlayerKinds = []Kind{KindRevenant, KindTarantula, KindSven, KindEnderman, KindBlaze, KindVampire}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == KindSupport || k.IsSlayer() {
		return k, true
	}
	return "", false
}

// IsSlayer reports whether the kind is tiered.
func (k Kind) IsSlayer() bool {
	for _, s := range SlayerKinds {
		if k == s {
			return true
		}
	}
	return false
}

// Title is the capitalised kind, as shown to users.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// ValidateTier checks the tier is one a ticket of the kind can be opened at.
func (k Kind) ValidateTier(tier int) error {
	if !k.IsSlayer() {
		return nil
	}
	if tier < MinTier || tier > MaxTier {
		return reject.NotFound("❌ Unknown tier %d for %s tickets.", tier, k.Title())
	}
	return nil
}

var tierPattern = regexp.MustCompile(`(?i)tier\s*(\d+)`)

// RoleTier parses the tier a role name encodes, e.g. "Revenant Tier 4 Carrier".
func RoleTier(name string) (int, bool) {
	m := tierPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsEntitled reports whether a role may see and claim a ticket of the kind at the tier. Only slayer kinds have
// entitled roles.
func IsEntitled(role *discordgo.Role, kind Kind, tier int) bool {
	if !kind.IsSlayer() {
		return false
	}
	if !strings.Contains(strings.ToLower(role.Name), string(kind)) {
		return false
	}
	n, ok := RoleTier(role.Name)
	return ok && n >= tier
}

// Entitled returns the roles entitled for the kind at the tier, in roster order.
func Entitled(roles []*discordgo.Role, kind Kind, tier int) []*discordgo.Role {
	var out []*discordgo.Role
	for _, r := range roles {
		if IsEntitled(r, kind, tier) {
			out = append(out, r)
		}
	}
	return out
}

// ChannelName is the name of the ticket channel of a user.
func ChannelName(kind Kind, tier int, username string) string {
	user := channelSafe(username)
	if kind == KindSupport {
		return "ticket-" + user
	}
	return fmt.Sprintf("%s-t%d-%s", kind, tier, user)
}

// channelSafe lower-cases the name and replaces whitespace the way the platform does for text channel names.
func channelSafe(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
