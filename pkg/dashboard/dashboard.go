// Package dashboard serves the operator web dashboard: Discord login, the embed builder and the reaction role editor.
package dashboard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/pkg/entities"
	"github.com/Jacobbrewer1/v0bot/pkg/layout"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
	"github.com/Jacobbrewer1/v0bot/pkg/platform"
	"github.com/Jacobbrewer1/v0bot/pkg/reactionroles"
	"github.com/Jacobbrewer1/v0bot/pkg/reject"
	"github.com/Jacobbrewer1/v0bot/pkg/request"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

const (
	PathIndex              = "/"
	PathLogin              = "/login"
	PathCallback           = "/callback"
	PathLogout             = "/logout"
	PathDashboard          = "/dashboard"
	PathSend               = "/send"
	PathReactionRole       = "/reactionrole"
	PathReactionRoleUpdate = "/reactionrole/update"
	PathReactionRoleDelete = "/reactionrole/delete"
	PathAPIReactionRoles   = "/api/reactionroles"
)

// newPairRows is the number of empty emoji/role rows offered on the forms.
const newPairRows = 5

//go:embed templates/*.html
var templateFS embed.FS

// LayoutSource gives the current guild layout.
type LayoutSource interface {
	Current() (*layout.Layout, bool)
}

// Service is the dashboard.
type Service struct {
	l         *slog.Logger
	client    platform.Client
	layouts   LayoutSource
	store     *reactionroles.Store
	publisher *reactionroles.Publisher
	auth      Authenticator
	sessions  sessions.Store
	templates *template.Template
}

// NewService creates the dashboard.
func NewService(
	l *slog.Logger,
	client platform.Client,
	layouts LayoutSource,
	store *reactionroles.Store,
	publisher *reactionroles.Publisher,
	auth Authenticator,
	sessionStore sessions.Store,
) (*Service, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing templates: %w", err)
	}

	return &Service{
		l:         l,
		client:    client,
		layouts:   layouts,
		store:     store,
		publisher: publisher,
		auth:      auth,
		sessions:  sessionStore,
		templates: tmpl,
	}, nil
}

// Register adds the dashboard routes to the router.
func (s *Service) Register(r *mux.Router) {
	r.HandleFunc(PathIndex, s.index).Methods(http.MethodGet)
	r.HandleFunc(PathLogin, s.login).Methods(http.MethodGet)
	r.HandleFunc(PathCallback, s.callback).Methods(http.MethodGet)
	r.HandleFunc(PathLogout, s.logout).Methods(http.MethodGet)

	r.HandleFunc(PathDashboard, s.operator(s.dashboard)).Methods(http.MethodGet)
	r.HandleFunc(PathSend, s.operator(s.send)).Methods(http.MethodPost)
	r.HandleFunc(PathReactionRole, s.operator(s.createReactionRole)).Methods(http.MethodPost)
	r.HandleFunc(PathReactionRoleUpdate, s.operator(s.updateReactionRole)).Methods(http.MethodPost)
	r.HandleFunc(PathReactionRoleDelete, s.operator(s.deleteReactionRole)).Methods(http.MethodPost)
	r.HandleFunc(PathAPIReactionRoles, s.operator(s.listReactionRoles)).Methods(http.MethodGet)
}

// operatorHandler handles a request of an operator that passed the owner role gate.
type operatorHandler func(w http.ResponseWriter, r *http.Request, op *Identity, lay *layout.Layout)

// operator lets through logged in members of the guild that hold the owner role.
func (s *Service) operator(next operatorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := s.sessions.Get(r, sessionName)
		op, ok := identity(sess)
		if !ok {
			http.Redirect(w, r, PathLogin, http.StatusFound)
			return
		}

		lay, ok := s.layouts.Current()
		if !ok {
			s.message(w, http.StatusServiceUnavailable, "❌ Server not found. Is the bot in your server?")
			return
		}

		member, err := s.client.GuildMember(lay.GuildID, op.ID)
		switch {
		case platform.IsNotFound(err):
			s.message(w, http.StatusForbidden, "❌ You are not a member of the server.")
			return
		case err != nil:
			s.l.Error("Error checking operator", slog.String(logging.KeyUser, op.ID), slog.String(logging.KeyError, err.Error()))
			s.message(w, http.StatusInternalServerError, "⚠️ Error checking permissions.")
			return
		}

		if lay.OwnerRoleID == "" || !slices.Contains(member.Roles, lay.OwnerRoleID) {
			s.message(w, http.StatusForbidden, "🚫 Access denied – Owner role required.")
			return
		}

		next(w, r, op, lay)
	}
}

func (s *Service) index(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.sessions.Get(r, sessionName)
	if _, ok := identity(sess); !ok {
		http.Redirect(w, r, PathLogin, http.StatusFound)
		return
	}
	http.Redirect(w, r, PathDashboard, http.StatusFound)
}

func (s *Service) login(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.sessions.Get(r, sessionName)

	state := newState()
	sess.Values[sessionState] = state
	if err := sess.Save(r, w); err != nil {
		s.l.Error("Error saving session", slog.String(logging.KeyError, err.Error()))
		s.message(w, http.StatusInternalServerError, request.ErrInternalServer.Error())
		return
	}

	http.Redirect(w, r, s.auth.AuthCodeURL(state), http.StatusFound)
}

func (s *Service) callback(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.sessions.Get(r, sessionName)

	want, _ := sess.Values[sessionState].(string)
	delete(sess.Values, sessionState)

	q := r.URL.Query()
	if want == "" || q.Get("state") != want {
		s.l.Warn("Login callback with unexpected state")
		http.Redirect(w, r, PathIndex, http.StatusFound)
		return
	}

	op, err := s.auth.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		s.l.Warn("Error logging in", slog.String(logging.KeyError, err.Error()))
		http.Redirect(w, r, PathIndex, http.StatusFound)
		return
	}

	sess.Values[sessionUserID] = op.ID
	sess.Values[sessionUsername] = op.Username
	if err := sess.Save(r, w); err != nil {
		s.l.Error("Error saving session", slog.String(logging.KeyError, err.Error()))
		s.message(w, http.StatusInternalServerError, request.ErrInternalServer.Error())
		return
	}

	s.l.Info("Operator logged in", slog.String(logging.KeyUser, op.ID))
	http.Redirect(w, r, PathDashboard, http.StatusFound)
}

func (s *Service) logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.sessions.Get(r, sessionName)
	sess.Values = make(map[any]any)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		s.l.Error("Error clearing session", slog.String(logging.KeyError, err.Error()))
	}
	http.Redirect(w, r, PathIndex, http.StatusFound)
}

func (s *Service) dashboard(w http.ResponseWriter, r *http.Request, op *Identity, lay *layout.Layout) {
	s.render(w, op, lay, "")
}

func (s *Service) send(w http.ResponseWriter, r *http.Request, op *Identity, lay *layout.Layout) {
	if err := r.ParseForm(); err != nil {
		s.message(w, http.StatusBadRequest, "❌ Invalid form.")
		return
	}

	err := s.publisher.Announce(r.Context(), &reactionroles.Announcement{
		ChannelID: r.PostForm.Get("channelId"),
		Embed:     parseEmbed(r.PostForm),
		Restock:   r.PostForm.Get("restock") == "on",
	})
	if err != nil {
		s.fail(w, err, "Error sending embed")
		return
	}

	s.render(w, op, lay, "✅ Embed sent successfully!")
}

func (s *Service) createReactionRole(w http.ResponseWriter, r *http.Request, op *Identity, lay *layout.Layout) {
	if err := r.ParseForm(); err != nil {
		s.message(w, http.StatusBadRequest, "❌ Invalid form.")
		return
	}

	_, err := s.publisher.CreateReactionRole(r.Context(), r.PostForm.Get("channelId"), parseEmbed(r.PostForm), parsePairs(r.PostForm))
	if err != nil {
		s.fail(w, err, "Error creating reaction role")
		return
	}

	s.render(w, op, lay, "✅ Reaction Role created!")
}

func (s *Service) updateReactionRole(w http.ResponseWriter, r *http.Request, _ *Identity, _ *layout.Layout) {
	if err := r.ParseForm(); err != nil {
		s.message(w, http.StatusBadRequest, "❌ Invalid form.")
		return
	}

	err := s.publisher.UpdateReactionRole(r.Context(), r.PostForm.Get("messageId"), parseEmbed(r.PostForm), parsePairs(r.PostForm))
	if err != nil {
		s.fail(w, err, "Error updating reaction role")
		return
	}

	http.Redirect(w, r, PathDashboard, http.StatusSeeOther)
}

func (s *Service) deleteReactionRole(w http.ResponseWriter, r *http.Request, _ *Identity, _ *layout.Layout) {
	if err := r.ParseForm(); err != nil {
		s.message(w, http.StatusBadRequest, "❌ Invalid form.")
		return
	}

	if err := s.publisher.DeleteReactionRole(r.Context(), r.PostForm.Get("messageId")); err != nil {
		s.fail(w, err, "Error deleting reaction role")
		return
	}

	http.Redirect(w, r, PathDashboard, http.StatusSeeOther)
}

// ReactionRole is a reaction role mapping as listed by the API.
type ReactionRole struct {
	MessageID string `json:"messageId"`
	*entities.RoleMapping
}

func (s *Service) listReactionRoles(w http.ResponseWriter, r *http.Request, _ *Identity, _ *layout.Layout) {
	all := s.store.All()
	out := make([]ReactionRole, 0, len(all))
	for id, m := range all {
		out = append(out, ReactionRole{MessageID: id, RoleMapping: m})
	}
	slices.SortFunc(out, func(a, b ReactionRole) int { return strings.Compare(a.MessageID, b.MessageID) })

	request.Encode(s.l, w, http.StatusOK, out)
}

// fail answers a failed action. Rejections are shown as they are; anything else is logged and answered with the
// generic message.
func (s *Service) fail(w http.ResponseWriter, err error, generic string) {
	if r, ok := reject.From(err); ok {
		s.message(w, rejectionStatus(r.Reason), r.Message)
		return
	}

	s.l.Error(generic, slog.String(logging.KeyError, err.Error()))
	s.message(w, http.StatusInternalServerError, generic)
}

func rejectionStatus(reason reject.Reason) int {
	switch reason {
	case reject.ReasonNotFound:
		return http.StatusNotFound
	case reject.ReasonUnauthorized:
		return http.StatusForbidden
	case reject.ReasonDuplicate:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

type pairRow struct {
	N      int
	Emoji  string
	RoleID string
	Roles  []*discordgo.Role
}

type mappingView struct {
	MessageID   string
	ChannelName string
	Embed       entities.Embed
	Color       string
	Pairs       []pairRow
}

type page struct {
	User         *Identity
	Message      string
	DefaultColor string
	Channels     []*discordgo.Channel
	NewPairs     []pairRow
	Mappings     []mappingView
}

// render shows the dashboard with an optional notice.
func (s *Service) render(w http.ResponseWriter, op *Identity, lay *layout.Layout, notice string) {
	channels, err := s.client.GuildChannels(lay.GuildID)
	if err != nil {
		s.l.Error("Error getting channels", slog.String(logging.KeyError, err.Error()))
		s.message(w, http.StatusInternalServerError, "Error loading the dashboard")
		return
	}
	roles, err := s.client.GuildRoles(lay.GuildID)
	if err != nil {
		s.l.Error("Error getting roles", slog.String(logging.KeyError, err.Error()))
		s.message(w, http.StatusInternalServerError, "Error loading the dashboard")
		return
	}

	channels = slices.DeleteFunc(channels, func(c *discordgo.Channel) bool { return c.Type != discordgo.ChannelTypeGuildText })
	slices.SortStableFunc(channels, func(a, b *discordgo.Channel) int { return a.Position - b.Position })
	roles = slices.DeleteFunc(roles, func(r *discordgo.Role) bool { return r.ID == lay.GuildID })

	p := &page{
		User:         op,
		Message:      notice,
		DefaultColor: reactionroles.DefaultColor,
		Channels:     channels,
		NewPairs:     pairRows(nil, roles, newPairRows),
	}

	all := s.store.All()
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		m := all[id]
		color := m.Embed.Color
		if color == "" {
			color = reactionroles.DefaultColor
		}
		p.Mappings = append(p.Mappings, mappingView{
			MessageID:   id,
			ChannelName: m.ChannelName,
			Embed:       m.Embed,
			Color:       color,
			Pairs:       pairRows(m.Pairs, roles, len(m.Pairs)+1),
		})
	}

	s.execute(w, http.StatusOK, "dashboard", p)
}

// pairRows lays out the existing pairs followed by empty rows, n rows in total.
func pairRows(pairs []entities.RolePair, roles []*discordgo.Role, n int) []pairRow {
	rows := make([]pairRow, 0, n)
	for i := 0; i < n; i++ {
		row := pairRow{N: i + 1, Roles: roles}
		if i < len(pairs) {
			row.Emoji, row.RoleID = pairs[i].Emoji, pairs[i].RoleID
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Service) message(w http.ResponseWriter, status int, text string) {
	s.execute(w, status, "message", struct{ Text string }{Text: text})
}

func (s *Service) execute(w http.ResponseWriter, status int, name string, data any) {
	buf := new(bytes.Buffer)
	if err := s.templates.ExecuteTemplate(buf, name, data); err != nil {
		s.l.Error("Error rendering page", slog.String("template", name), slog.String(logging.KeyError, err.Error()))
		http.Error(w, request.ErrInternalServer.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.l.Error("Error writing page", slog.String(logging.KeyError, err.Error()))
	}
}
