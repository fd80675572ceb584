package entities

// RoleMapping is the reaction role configuration of one published message.
type RoleMapping struct {
	// ChannelID is the ID of the channel the message was published in.
	ChannelID string `json:"channelId" bson:"channel_id"`

	// ChannelName is the name of the channel at the time of publishing.
	ChannelName string `json:"channelName" bson:"channel_name"`

	// Pairs are the emoji to role pairs, in the order they were configured.
	Pairs []RolePair `json:"pairs" bson:"pairs"`

	// Embed is the last rendered content of the message.
	Embed Embed `json:"embed" bson:"embed"`
}

// RolePair maps an emoji to the role it grants.
type RolePair struct {
	// Emoji is the unicode emoji or the custom emoji in <:name:id> form.
	Emoji string `json:"emoji" bson:"emoji"`

	// RoleID is the ID of the role granted by the emoji.
	RoleID string `json:"roleId" bson:"role_id"`
}

// Embed is the content of an announcement.
type Embed struct {
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	Color       string `json:"color" bson:"color"`
	Footer      string `json:"footer" bson:"footer"`
}

// ResolveRole returns the role of the first pair with the given emoji.
func (m *RoleMapping) ResolveRole(emoji string) (string, bool) {
	for _, p := range m.Pairs {
		if p.Emoji == emoji {
			return p.RoleID, true
		}
	}
	return "", false
}

// Clone returns a deep copy of the mapping.
func (m *RoleMapping) Clone() *RoleMapping {
	if m == nil {
		return nil
	}
	cp := *m
	if m.Pairs != nil {
		cp.Pairs = make([]RolePair, len(m.Pairs))
		copy(cp.Pairs, m.Pairs)
	}
	return &cp
}
