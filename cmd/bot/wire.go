//go:build wireinject
// +build wireinject

package main

import (
	"github.com/Jacobbrewer1/v0bot/cmd/bot/config"
	"github.com/Jacobbrewer1/v0bot/pkg/dispatch"
	"github.com/Jacobbrewer1/v0bot/pkg/layout"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
	"github.com/Jacobbrewer1/v0bot/pkg/platform"
	"github.com/Jacobbrewer1/v0bot/pkg/reactionroles"
	"github.com/google/wire"
)

func InitializeApp() (*App, func(), error) {
	wire.Build(
		wire.Value(logging.Name(config.AppName)),
		logging.NewConfig,
		logging.CommonLogger,
		config.Parse,
		newSession,
		platform.NewDiscord,
		wire.Bind(new(platform.Client), new(*platform.Discord)),
		newLayoutFile,
		layout.NewRegistry,
		newRoleMappingDal,
		reactionroles.NewStore,
		reactionroles.NewListener,
		newPublisher,
		newTicketManager,
		newOnboarding,
		dispatch.NewDispatcher,
		newAuthenticator,
		newSessionStore,
		newDashboard,
		NewApp,
	)
	return nil, nil, nil
}
