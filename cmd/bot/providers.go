package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/cmd/bot/config"
	"github.com/Jacobbrewer1/v0bot/pkg/dashboard"
	"github.com/Jacobbrewer1/v0bot/pkg/dataaccess"
	"github.com/Jacobbrewer1/v0bot/pkg/layout"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
	"github.com/Jacobbrewer1/v0bot/pkg/onboarding"
	"github.com/Jacobbrewer1/v0bot/pkg/platform"
	"github.com/Jacobbrewer1/v0bot/pkg/reactionroles"
	"github.com/Jacobbrewer1/v0bot/pkg/tickets"
	"github.com/gorilla/sessions"
)

func newSession(cfg *config.Values) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	return s, nil
}

func newLayoutFile(cfg *config.Values) (*layout.File, error) {
	return layout.Load(cfg.LayoutFile)
}

func newRoleMappingDal(l *slog.Logger, cfg *config.Values) (dataaccess.RoleMappingDal, func(), error) {
	dal, err := dataaccess.NewRoleMappingDal(context.Background(), l, cfg.Store())
	if err != nil {
		return nil, nil, fmt.Errorf("error opening reaction role store: %w", err)
	}

	cleanup := func() {
		if err := dal.Close(context.Background()); err != nil {
			l.Error("Error closing reaction role store", slog.String(logging.KeyError, err.Error()))
		}
	}
	return dal, cleanup, nil
}

func newPublisher(l *slog.Logger, client platform.Client, store *reactionroles.Store, cfg *config.Values) *reactionroles.Publisher {
	return reactionroles.NewPublisher(l, client, store, cfg.FooterIcon, cfg.RestockRoleId)
}

func newTicketManager(l *slog.Logger, client platform.Client, layouts *layout.Registry, cfg *config.Values) *tickets.Manager {
	return tickets.NewManager(l, client, layouts, cfg.FooterIcon)
}

func newOnboarding(l *slog.Logger, client platform.Client, layouts *layout.Registry, cfg *config.Values) *onboarding.Onboarding {
	return onboarding.New(l, client, layouts, cfg.FooterIcon)
}

func newAuthenticator(cfg *config.Values) dashboard.Authenticator {
	return dashboard.NewDiscordAuth(cfg.ClientId, cfg.ClientSecret, cfg.OAuthRedirectUrl)
}

func newSessionStore(cfg *config.Values) sessions.Store {
	return dashboard.NewCookieStore(cfg.SessionSecret)
}

func newDashboard(
	l *slog.Logger,
	client platform.Client,
	layouts *layout.Registry,
	store *reactionroles.Store,
	publisher *reactionroles.Publisher,
	auth dashboard.Authenticator,
	sessionStore sessions.Store,
) (*dashboard.Service, error) {
	return dashboard.NewService(l, client, layouts, store, publisher, auth, sessionStore)
}
