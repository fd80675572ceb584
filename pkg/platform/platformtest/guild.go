// Package platformtest provides an in-memory guild that implements platform.Client for tests.
package platformtest

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/platform"
)

var _ platform.Client = (*Guild)(nil)

// Response is an interaction acknowledgement recorded by the fake.
type Response struct {
	InteractionID string
	Response      *discordgo.InteractionResponse
}

// FollowUp is a follow-up message recorded by the fake.
type FollowUp struct {
	InteractionID string
	Params        *discordgo.WebhookParams
}

// Guild is a single in-memory guild.
type Guild struct {
	mu sync.Mutex

	ID string

	nextID    int
	channels  []*discordgo.Channel
	roles     []*discordgo.Role
	members   map[string]*discordgo.Member
	messages  map[string]*discordgo.Message
	reactions map[string][]string
	failures  map[string][]error

	// Responses are the interaction acknowledgements, in order.
	Responses []Response

	// FollowUps are the follow-up messages, in order.
	FollowUps []FollowUp

	// Calls are the names of the mutating calls, in order.
	Calls []string
}

// NewGuild creates an empty guild with the given ID. The guild has the @everyone role, which shares the guild ID.
func NewGuild(id string) *Guild {
	g := &Guild{
		ID:        id,
		nextID:    1000,
		members:   make(map[string]*discordgo.Member),
		messages:  make(map[string]*discordgo.Message),
		reactions: make(map[string][]string),
		failures:  make(map[string][]error),
	}
	g.roles = append(g.roles, &discordgo.Role{ID: id, Name: "@everyone"})
	return g
}

// NotFoundError is the error the fake returns for unknown entities.
func NotFoundError(code int) error {
	return &discordgo.RESTError{
		Response:     &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"},
		ResponseBody: []byte(`{"message": "Unknown"}`),
		Message:      &discordgo.APIErrorMessage{Code: code, Message: "Unknown"},
	}
}

// StaleInteractionError is the error the platform returns for an expired interaction token.
func StaleInteractionError() error {
	return &discordgo.RESTError{
		Response:     &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"},
		ResponseBody: []byte(`{"message": "Unknown interaction"}`),
		Message:      &discordgo.APIErrorMessage{Code: 10062, Message: "Unknown interaction"},
	}
}

// Fail makes the next calls of method return the given errors, one per call.
func (g *Guild) Fail(method string, errs ...error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[method] = append(g.failures[method], errs...)
}

func (g *Guild) failure(method string) error {
	errs := g.failures[method]
	if len(errs) == 0 {
		return nil
	}
	g.failures[method] = errs[1:]
	return errs[0]
}

func (g *Guild) newID() string {
	g.nextID++
	return strconv.Itoa(g.nextID)
}

// AddRole adds a role to the guild and returns its ID.
func (g *Guild) AddRole(name string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := &discordgo.Role{ID: g.newID(), Name: name}
	g.roles = append(g.roles, r)
	return r.ID
}

// AddMember adds a member holding the given roles.
func (g *Guild) AddMember(userID, username string, bot bool, roleIDs ...string) *discordgo.Member {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := &discordgo.Member{
		GuildID: g.ID,
		User:    &discordgo.User{ID: userID, Username: username, Bot: bot},
		Roles:   append([]string(nil), roleIDs...),
	}
	g.members[userID] = m
	return m
}

// AddChannel adds a channel of the given type and returns its ID.
func (g *Guild) AddChannel(name string, typ discordgo.ChannelType, parentID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := &discordgo.Channel{
		ID:       g.newID(),
		GuildID:  g.ID,
		Name:     name,
		Type:     typ,
		ParentID: parentID,
		Position: len(g.channels),
	}
	g.channels = append(g.channels, ch)
	return ch.ID
}

// MemberRoles returns the roles a member holds.
func (g *Guild) MemberRoles(userID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.members[userID]
	if !ok {
		return nil
	}
	return append([]string(nil), m.Roles...)
}

// Message returns a message sent through the fake.
func (g *Guild) Message(messageID string) (*discordgo.Message, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.messages[messageID]
	return m, ok
}

// ChannelMessages returns the messages of a channel in the order they were sent.
func (g *Guild) ChannelMessages(channelID string) []*discordgo.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*discordgo.Message
	for _, m := range g.messages {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b *discordgo.Message) int {
		return compareIDs(a.ID, b.ID)
	})
	return out
}

// Reactions returns the emoji the bot reacted with on a message.
func (g *Guild) Reactions(messageID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.reactions[messageID]...)
}

// ChannelByName returns the first channel with the given name.
func (g *Guild) ChannelByName(name string) (*discordgo.Channel, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ch := range g.channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return nil, false
}

// Overwrite returns the permission overwrite of target on a channel.
func (g *Guild) Overwrite(channelID, targetID string) (*discordgo.PermissionOverwrite, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := g.channel(channelID)
	if ch == nil {
		return nil, false
	}
	for _, po := range ch.PermissionOverwrites {
		if po.ID == targetID {
			return po, true
		}
	}
	return nil, false
}

func (g *Guild) channel(id string) *discordgo.Channel {
	for _, ch := range g.channels {
		if ch.ID == id {
			return ch
		}
	}
	return nil
}

func (g *Guild) record(call string) {
	g.Calls = append(g.Calls, call)
}

func (g *Guild) Channel(channelID string) (*discordgo.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure("Channel"); err != nil {
		return nil, err
	}
	ch := g.channel(channelID)
	if ch == nil {
		return nil, NotFoundError(10003)
	}
	return copyChannel(ch), nil
}

func (g *Guild) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure("GuildChannels"); err != nil {
		return nil, err
	}
	if guildID != g.ID {
		return nil, NotFoundError(10004)
	}
	out := make([]*discordgo.Channel, 0, len(g.channels))
	for _, ch := range g.channels {
		out = append(out, copyChannel(ch))
	}
	return out, nil
}

func (g *Guild) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure("GuildRoles"); err != nil {
		return nil, err
	}
	if guildID != g.ID {
		return nil, NotFoundError(10004)
	}
	out := make([]*discordgo.Role, 0, len(g.roles))
	for _, r := range g.roles {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (g *Guild) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failure("GuildMember"); err != nil {
		return nil, err
	}
	m, ok := g.members[userID]
	if !ok || guildID != g.ID {
		return nil, NotFoundError(10007)
	}
	cp := *m
	cp.Roles = append([]string(nil), m.Roles...)
	return &cp, nil
}

func (g *Guild) CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CreateChannel")
	if err := g.failure("CreateChannel"); err != nil {
		return nil, err
	}
	if guildID != g.ID {
		return nil, NotFoundError(10004)
	}

	ch := &discordgo.Channel{
		ID:       g.newID(),
		GuildID:  g.ID,
		Name:     data.Name,
		Topic:    data.Topic,
		Type:     data.Type,
		ParentID: data.ParentID,
		Position: len(g.channels),
	}
	for _, po := range data.PermissionOverwrites {
		cp := *po
		ch.PermissionOverwrites = append(ch.PermissionOverwrites, &cp)
	}
	g.channels = append(g.channels, ch)
	return copyChannel(ch), nil
}

func (g *Guild) DeleteChannel(channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("DeleteChannel")
	if err := g.failure("DeleteChannel"); err != nil {
		return err
	}
	for idx, ch := range g.channels {
		if ch.ID == channelID {
			g.channels = slices.Delete(g.channels, idx, idx+1)
			return nil
		}
	}
	return NotFoundError(10003)
}

func (g *Guild) SetChannelPosition(channelID string, position int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("SetChannelPosition")
	if err := g.failure("SetChannelPosition"); err != nil {
		return err
	}
	ch := g.channel(channelID)
	if ch == nil {
		return NotFoundError(10003)
	}
	ch.Position = position
	return nil
}

func (g *Guild) SetPermission(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("SetPermission")
	if err := g.failure("SetPermission"); err != nil {
		return err
	}
	ch := g.channel(channelID)
	if ch == nil {
		return NotFoundError(10003)
	}
	for _, po := range ch.PermissionOverwrites {
		if po.ID == targetID {
			po.Type = targetType
			po.Allow = allow
			po.Deny = deny
			return nil
		}
	}
	ch.PermissionOverwrites = append(ch.PermissionOverwrites, &discordgo.PermissionOverwrite{
		ID:    targetID,
		Type:  targetType,
		Allow: allow,
		Deny:  deny,
	})
	return nil
}

func (g *Guild) DeletePermission(channelID, targetID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("DeletePermission")
	if err := g.failure("DeletePermission"); err != nil {
		return err
	}
	ch := g.channel(channelID)
	if ch == nil {
		return NotFoundError(10003)
	}
	ch.PermissionOverwrites = slices.DeleteFunc(ch.PermissionOverwrites, func(po *discordgo.PermissionOverwrite) bool {
		return po.ID == targetID
	})
	return nil
}

func (g *Guild) SendMessage(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("SendMessage")
	if err := g.failure("SendMessage"); err != nil {
		return nil, err
	}
	if g.channel(channelID) == nil {
		return nil, NotFoundError(10003)
	}

	msg := &discordgo.Message{
		ID:         g.newID(),
		ChannelID:  channelID,
		GuildID:    g.ID,
		Content:    data.Content,
		Embeds:     data.Embeds,
		Components: data.Components,
	}
	if data.Embed != nil {
		msg.Embeds = append(msg.Embeds, data.Embed)
	}
	g.messages[msg.ID] = msg
	cp := *msg
	return &cp, nil
}

func (g *Guild) EditMessageEmbed(channelID, messageID string, embed *discordgo.MessageEmbed) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("EditMessageEmbed")
	if err := g.failure("EditMessageEmbed"); err != nil {
		return err
	}
	msg, ok := g.messages[messageID]
	if !ok || msg.ChannelID != channelID {
		return NotFoundError(10008)
	}
	msg.Embeds = []*discordgo.MessageEmbed{embed}
	return nil
}

func (g *Guild) DeleteMessage(channelID, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("DeleteMessage")
	if err := g.failure("DeleteMessage"); err != nil {
		return err
	}
	msg, ok := g.messages[messageID]
	if !ok || msg.ChannelID != channelID {
		return NotFoundError(10008)
	}
	delete(g.messages, messageID)
	delete(g.reactions, messageID)
	return nil
}

func (g *Guild) ClearRecentMessages(channelID string, limit int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("ClearRecentMessages")
	if err := g.failure("ClearRecentMessages"); err != nil {
		return err
	}

	var ids []string
	for id, m := range g.messages {
		if m.ChannelID == channelID {
			ids = append(ids, id)
		}
	}
	// Newest first.
	slices.SortFunc(ids, func(a, b string) int { return compareIDs(b, a) })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	for _, id := range ids {
		delete(g.messages, id)
		delete(g.reactions, id)
	}
	return nil
}

func (g *Guild) AddReaction(channelID, messageID, emoji string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("AddReaction")
	if err := g.failure("AddReaction"); err != nil {
		return err
	}
	msg, ok := g.messages[messageID]
	if !ok || msg.ChannelID != channelID {
		return NotFoundError(10008)
	}
	e := platform.ReactionEmoji(emoji)
	if !slices.Contains(g.reactions[messageID], e) {
		g.reactions[messageID] = append(g.reactions[messageID], e)
	}
	return nil
}

func (g *Guild) RemoveAllReactions(channelID, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("RemoveAllReactions")
	if err := g.failure("RemoveAllReactions"); err != nil {
		return err
	}
	msg, ok := g.messages[messageID]
	if !ok || msg.ChannelID != channelID {
		return NotFoundError(10008)
	}
	delete(g.reactions, messageID)
	return nil
}

func (g *Guild) AddMemberRole(guildID, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("AddMemberRole")
	if err := g.failure("AddMemberRole"); err != nil {
		return err
	}
	m, ok := g.members[userID]
	if !ok || guildID != g.ID {
		return NotFoundError(10007)
	}
	if !slices.Contains(m.Roles, roleID) {
		m.Roles = append(m.Roles, roleID)
	}
	return nil
}

func (g *Guild) RemoveMemberRole(guildID, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("RemoveMemberRole")
	if err := g.failure("RemoveMemberRole"); err != nil {
		return err
	}
	m, ok := g.members[userID]
	if !ok || guildID != g.ID {
		return NotFoundError(10007)
	}
	m.Roles = slices.DeleteFunc(m.Roles, func(r string) bool { return r == roleID })
	return nil
}

func (g *Guild) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("Respond")
	if err := g.failure("Respond"); err != nil {
		return err
	}
	g.Responses = append(g.Responses, Response{InteractionID: i.ID, Response: resp})
	return nil
}

func (g *Guild) FollowUp(i *discordgo.Interaction, params *discordgo.WebhookParams) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("FollowUp")
	if err := g.failure("FollowUp"); err != nil {
		return err
	}
	g.FollowUps = append(g.FollowUps, FollowUp{InteractionID: i.ID, Params: params})
	return nil
}

// Acks returns the number of acknowledgements and follow-ups recorded for an interaction.
func (g *Guild) Acks(interactionID string) (responses, followUps int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.Responses {
		if r.InteractionID == interactionID {
			responses++
		}
	}
	for _, f := range g.FollowUps {
		if f.InteractionID == interactionID {
			followUps++
		}
	}
	return responses, followUps
}

// LastResponse returns the last acknowledgement recorded for an interaction.
func (g *Guild) LastResponse(interactionID string) (*discordgo.InteractionResponse, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for idx := len(g.Responses) - 1; idx >= 0; idx-- {
		if g.Responses[idx].InteractionID == interactionID {
			return g.Responses[idx].Response, true
		}
	}
	return nil, false
}

func copyChannel(ch *discordgo.Channel) *discordgo.Channel {
	cp := *ch
	cp.PermissionOverwrites = make([]*discordgo.PermissionOverwrite, 0, len(ch.PermissionOverwrites))
	for _, po := range ch.PermissionOverwrites {
		poCopy := *po
		cp.PermissionOverwrites = append(cp.PermissionOverwrites, &poCopy)
	}
	return &cp
}

func compareIDs(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// String implements fmt.Stringer for debugging failed tests.
func (g *Guild) String() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fmt.Sprintf("guild %s: %d channels, %d roles, %d members, %d messages", g.ID, len(g.channels), len(g.roles), len(g.members), len(g.messages))
}
