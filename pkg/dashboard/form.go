package dashboard

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/Jacobbrewer1/v0bot/pkg/entities"
)

const (
	emojiPrefix = "emoji_"
	rolePrefix  = "role_"
)

// parsePairs reads the emoji_<n>/role_<n> fields of a form, ordered by n. Rows missing either half are skipped.
func parsePairs(form url.Values) []entities.RolePair {
	type row struct {
		n    int
		pair entities.RolePair
	}

	var rows []row
	for key := range form {
		suffix, ok := strings.CutPrefix(key, emojiPrefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		emoji := strings.TrimSpace(form.Get(key))
		roleID := strings.TrimSpace(form.Get(rolePrefix + suffix))
		if emoji == "" || roleID == "" {
			continue
		}
		rows = append(rows, row{n: n, pair: entities.RolePair{Emoji: emoji, RoleID: roleID}})
	}

	slices.SortFunc(rows, func(a, b row) int { return a.n - b.n })

	pairs := make([]entities.RolePair, 0, len(rows))
	for _, r := range rows {
		pairs = append(pairs, r.pair)
	}
	return pairs
}

// parseEmbed reads the embed fields of a form as the operator typed them.
func parseEmbed(form url.Values) entities.Embed {
	return entities.Embed{
		Title:       form.Get("title"),
		Description: form.Get("description"),
		Color:       form.Get("color"),
		Footer:      form.Get("footer"),
	}
}
