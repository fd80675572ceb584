package dispatch

import (
	"fmt"
	"strconv"
	"strings"
)

// TagKind is the discriminator of a Tag.
type TagKind int

const (
	KindUnknown TagKind = iota
	KindCreateSupportTicket
	KindCloseTicket
	KindVerifyUser
	KindConfirmClose
	KindCancelClose
	KindOpenTicket
	KindClaim
	KindUnclaim
	KindClose
)

const (
	exactCreateSupportTicket = "create_support_ticket"
	exactCloseTicket         = "close_ticket"
	exactVerifyUser          = "verify_user"
	exactConfirmClose        = "confirm_close"
	exactCancelClose         = "cancel_close"

	prefixOpenTicket = "open_ticket_"
	prefixClaim      = "claim_"
	prefixUnclaim    = "unclaim_"
	prefixClose      = "close_"
)

var exactKinds = map[string]TagKind{
	exactCreateSupportTicket: KindCreateSupportTicket,
	exactCloseTicket:         KindCloseTicket,
	exactVerifyUser:          KindVerifyUser,
	exactConfirmClose:        KindConfirmClose,
	exactCancelClose:         KindCancelClose,
}

func (k TagKind) String() string {
	switch k {
	case KindCreateSupportTicket:
		return exactCreateSupportTicket
	case KindCloseTicket:
		return exactCloseTicket
	case KindVerifyUser:
		return exactVerifyUser
	case KindConfirmClose:
		return exactConfirmClose
	case KindCancelClose:
		return exactCancelClose
	case KindOpenTicket:
		return "open_ticket"
	case KindClaim:
		return "claim"
	case KindUnclaim:
		return "unclaim"
	case KindClose:
		return "close"
	}
	return "unknown"
}

// Tag is the payload carried in the custom ID of a button. Category and Tier are set for KindOpenTicket, ChannelID
// for KindClaim, KindUnclaim and KindClose.
type Tag struct {
	Kind      TagKind
	Category  string
	Tier      int
	ChannelID string
}

// ParseTag decodes a custom ID. Custom IDs that do not decode give a tag of KindUnknown.
func ParseTag(customID string) Tag {
	if k, ok := exactKinds[customID]; ok {
		return Tag{Kind: k}
	}

	switch {
	case strings.HasPrefix(customID, prefixOpenTicket):
		rest := strings.TrimPrefix(customID, prefixOpenTicket)
		idx := strings.LastIndex(rest, "_")
		if idx <= 0 {
			break
		}
		tier, err := strconv.Atoi(rest[idx+1:])
		if err != nil || tier < 0 {
			break
		}
		return Tag{Kind: KindOpenTicket, Category: rest[:idx], Tier: tier}
	case strings.HasPrefix(customID, prefixUnclaim):
		if id := strings.TrimPrefix(customID, prefixUnclaim); isSnowflake(id) {
			return Tag{Kind: KindUnclaim, ChannelID: id}
		}
	case strings.HasPrefix(customID, prefixClaim):
		if id := strings.TrimPrefix(customID, prefixClaim); isSnowflake(id) {
			return Tag{Kind: KindClaim, ChannelID: id}
		}
	case strings.HasPrefix(customID, prefixClose):
		if id := strings.TrimPrefix(customID, prefixClose); isSnowflake(id) {
			return Tag{Kind: KindClose, ChannelID: id}
		}
	}

	return Tag{Kind: KindUnknown}
}

// String encodes the tag as a custom ID.
func (t Tag) String() string {
	switch t.Kind {
	case KindOpenTicket:
		return fmt.Sprintf("%s%s_%d", prefixOpenTicket, t.Category, t.Tier)
	case KindClaim:
		return prefixClaim + t.ChannelID
	case KindUnclaim:
		return prefixUnclaim + t.ChannelID
	case KindClose:
		return prefixClose + t.ChannelID
	case KindUnknown:
		return ""
	}
	return t.Kind.String()
}

func isSnowflake(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
