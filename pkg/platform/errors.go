package platform

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
)

// Discord JSON error codes the bot reacts to.
const (
	codeUnknownChannel     = 10003
	codeUnknownMember      = 10007
	codeUnknownMessage     = 10008
	codeUnknownRole        = 10011
	codeUnknownInteraction = 10062
	codeAlreadyAcked       = 40060
)

func restCode(err error) (int, int, bool) {
	var er *discordgo.RESTError
	if !errors.As(err, &er) {
		return 0, 0, false
	}

	status := 0
	if er.Response != nil {
		status = er.Response.StatusCode
	}

	code := 0
	if er.Message != nil {
		code = er.Message.Code
	}
	return code, status, true
}

// IsNotFound reports whether err is the platform saying the target does not exist.
func IsNotFound(err error) bool {
	code, status, ok := restCode(err)
	if !ok {
		return false
	}

	switch code {
	case codeUnknownChannel, codeUnknownMember, codeUnknownMessage, codeUnknownRole:
		return true
	}
	return status == http.StatusNotFound
}

// IsStaleInteraction reports whether err is the platform refusing an acknowledgement because the interaction token
// has expired or was already used. Nothing can be done about these.
func IsStaleInteraction(err error) bool {
	code, _, ok := restCode(err)
	if !ok {
		return false
	}
	return code == codeUnknownInteraction || code == codeAlreadyAcked
}

// ReactionEmoji converts an emoji as typed by an operator into the form the reaction endpoints expect. Unicode emoji
// are returned as is, custom emoji like <:name:id> or <a:name:id> become name:id.
func ReactionEmoji(emoji string) string {
	e := strings.TrimSpace(emoji)
	if !strings.HasPrefix(e, "<") || !strings.HasSuffix(e, ">") {
		return e
	}

	e = strings.TrimSuffix(strings.TrimPrefix(e, "<"), ">")
	e = strings.TrimPrefix(e, "a:")
	return strings.TrimPrefix(e, ":")
}

// EmojiMatches reports whether the configured emoji string refers to the reacted emoji.
func EmojiMatches(configured string, reacted discordgo.Emoji) bool {
	c := ReactionEmoji(configured)
	if c == "" {
		return false
	}
	if c == reacted.Name {
		return true
	}
	return reacted.ID != "" && c == reacted.Name+":"+reacted.ID
}
