package tickets

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Jacobbrewer1/discordgo"
)

// Ticket is the state of a ticket, read back from its channel. The channel is the only record of a ticket.
type Ticket struct {
	ChannelID  string
	CategoryID string

	Kind Kind
	Tier int

	// Username is the owner's name as encoded in the channel name.
	Username string

	// OwnerID is read from the channel topic. It is empty for channels that predate the encoding.
	OwnerID string

	// ClaimedBy is the member holding the claim, empty when unclaimed.
	ClaimedBy string
}

var (
	supportName = regexp.MustCompile(`^ticket-(.+)$`)
	slayerName  = regexp.MustCompile(`^([a-z]+)-t(\d+)-(.+)$`)
	topicOwner  = regexp.MustCompile(`\((\d+)\)\s*$`)
)

// Parse reads the ticket of a channel. The second return is false for channels that are not named like tickets.
func Parse(ch *discordgo.Channel) (*Ticket, bool) {
	if ch == nil || ch.Type != discordgo.ChannelTypeGuildText {
		return nil, false
	}

	t := &Ticket{
		ChannelID:  ch.ID,
		CategoryID: ch.ParentID,
	}

	switch m, sm := slayerName.FindStringSubmatch(ch.Name), supportName.FindStringSubmatch(ch.Name); {
	case m != nil && Kind(m[1]).IsSlayer():
		tier, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, false
		}
		t.Kind, t.Tier, t.Username = Kind(m[1]), tier, m[3]
	case sm != nil:
		t.Kind, t.Username = KindSupport, sm[1]
	default:
		return nil, false
	}

	if m := topicOwner.FindStringSubmatch(ch.Topic); m != nil {
		t.OwnerID = m[1]
	}

	for _, po := range ch.PermissionOverwrites {
		if po.Type != discordgo.PermissionOverwriteTypeMember || po.ID == t.OwnerID {
			continue
		}
		if po.Allow&discordgo.PermissionSendMessages != 0 {
			t.ClaimedBy = po.ID
			break
		}
	}

	return t, true
}

// IsOwnedBy reports whether the ticket belongs to the user. Channels without an owner in the topic fall back to the
// username in the channel name.
func (t *Ticket) IsOwnedBy(user *discordgo.User) bool {
	if t.OwnerID != "" {
		return t.OwnerID == user.ID
	}
	return t.Username == channelSafe(user.Username)
}

// Topic is the channel topic of a new ticket. The owner ID is kept at the end so the ticket can be read back.
func Topic(kind Kind, tier int, owner *discordgo.User) string {
	if kind == KindSupport {
		return fmt.Sprintf("Support ticket for %s (%s)", owner.Username, owner.ID)
	}
	return fmt.Sprintf("%s Tier %d Carry for %s (%s)", kind.Title(), tier, owner.Username, owner.ID)
}
