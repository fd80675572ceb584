package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/v0bot/cmd/bot/config"
	"github.com/Jacobbrewer1/v0bot/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/v0bot/pkg/dashboard"
	"github.com/Jacobbrewer1/v0bot/pkg/dataaccess"
	"github.com/Jacobbrewer1/v0bot/pkg/dispatch"
	"github.com/Jacobbrewer1/v0bot/pkg/layout"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
	"github.com/Jacobbrewer1/v0bot/pkg/onboarding"
	"github.com/Jacobbrewer1/v0bot/pkg/platform"
	"github.com/Jacobbrewer1/v0bot/pkg/reactionroles"
	"github.com/Jacobbrewer1/v0bot/pkg/tickets"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"

	shutdownTimeout = 10 * time.Second
)

type App struct {
	// is the logger.
	*slog.Logger

	cfg *config.Values

	// s is the discord session.
	s      *discordgo.Session
	client platform.Client

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any

	layoutFile *layout.File
	layouts    *layout.Registry

	dal        dataaccess.RoleMappingDal
	store      *reactionroles.Store
	listener   *reactionroles.Listener
	tickets    *tickets.Manager
	onboarding *onboarding.Onboarding
	dispatcher *dispatch.Dispatcher
	dashboard  *dashboard.Service

	servers []*http.Server
}

// NewApp creates a new instance of App.
func NewApp(
	l *slog.Logger,
	cfg *config.Values,
	s *discordgo.Session,
	client platform.Client,
	layoutFile *layout.File,
	layouts *layout.Registry,
	dal dataaccess.RoleMappingDal,
	store *reactionroles.Store,
	listener *reactionroles.Listener,
	tm *tickets.Manager,
	ob *onboarding.Onboarding,
	dispatcher *dispatch.Dispatcher,
	dash *dashboard.Service,
) *App {
	a := &App{
		Logger:     l,
		cfg:        cfg,
		s:          s,
		client:     client,
		layoutFile: layoutFile,
		layouts:    layouts,
		dal:        dal,
		store:      store,
		listener:   listener,
		tickets:    tm,
		onboarding: ob,
		dispatcher: dispatcher,
		dashboard:  dash,
	}

	newInteractions(l, client, layouts, tm, ob, cfg.FooterIcon).register(dispatcher)
	return a
}

func (a *App) Run() error {
	ctx := context.Background()

	if err := a.store.Load(ctx); err != nil {
		return fmt.Errorf("error loading reaction roles: %w", err)
	}

	a.RegisterBot()

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s", r.User.Username))
	})
	a.RegisterDiscordHandlers()

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	// Register slash commands.
	if err := a.registerSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	a.Info("Bot is now running.")

	a.runServer(serverMonitoring, a.cfg.MonitoringPort, a.monitoringRoutes())
	a.runServer(serverDashboard, a.cfg.Port, a.dashboardRoutes())

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	sig := <-c
	a.Info("Received shutdown signal", slog.String("signal", sig.String()))
	return a.ShutdownHook()
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for _, svr := range a.servers {
		if err := svr.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down server %s: %w", svr.Addr, err))
		}
	}

	// Unregister slash commands.
	if _, err := a.s.ApplicationCommandBulkOverwrite(a.cfg.ApplicationId, a.cfg.GuildId, []*discordgo.ApplicationCommand{}); err != nil {
		errs = append(errs, fmt.Errorf("error unregistering slash commands: %w", err))
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing connection to Discord: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) RegisterBot() {
	// Default the number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	a.s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions

	if a.eventNotifier == nil {
		// Buffered to prevent blocking.
		a.eventNotifier = make(chan any, 100)
	}

	a.s.SetEventNotifier(a.eventNotifier)
}

func (a *App) RegisterDiscordHandlers() {
	// Bot joined guild.
	a.s.AddHandler(a.guildJoinedHandler())

	// Bot left guild.
	a.s.AddHandler(a.guildLeaveHandler())

	// Member joined guild.
	a.s.AddHandler(a.memberJoinedHandler())

	// Interaction create handler.
	a.s.AddHandler(a.interactionHandler())

	// Reaction roles.
	a.s.AddHandler(a.reactionAddHandler())
	a.s.AddHandler(a.reactionRemoveHandler())
}

func (a *App) monitoringRoutes() http.Handler {
	r := newRouter(a.Logger, serverMonitoring)
	r.Handle(PathMetrics, promhttp.Handler()).Methods(http.MethodGet)
	r.Handle(PathHealth, a.healthCheck()).Methods(http.MethodGet)
	return r
}

func (a *App) dashboardRoutes() http.Handler {
	r := newRouter(a.Logger, serverDashboard)
	a.dashboard.Register(r)
	return r
}

func (a *App) runServer(name, port string, h http.Handler) {
	svr := &http.Server{
		Addr:              ":" + port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.servers = append(a.servers, svr)

	go func() {
		a.Info("Starting server", slog.String("server", name), slog.String("addr", svr.Addr))
		if err := svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Error("Error running server", slog.String("server", name), slog.String(logging.KeyError, err.Error()))
			a.Warn("Server will not be available", slog.String("server", name))
		}
	}()
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

// registerSlashCommands replaces the application's commands with the dispatcher's, globally or in the served guild.
func (a *App) registerSlashCommands() error {
	cmds, err := a.s.ApplicationCommandBulkOverwrite(a.cfg.ApplicationId, a.cfg.GuildId, a.dispatcher.Commands())
	if err != nil {
		return fmt.Errorf("error overwriting commands: %w", err)
	}
	a.Info("Registered slash commands", slog.Int("count", len(cmds)))
	return nil
}
