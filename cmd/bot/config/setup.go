package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Jacobbrewer1/v0bot/pkg/dataaccess"
	"github.com/joho/godotenv"
)

// Parse reads the configuration from the environment. Variables in a .env file in the working directory are loaded
// first, without overriding the environment.
func Parse(l *slog.Logger) (*Values, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	} else if err == nil {
		l.Debug("Loaded .env file")
	}

	v := &Values{
		BotToken:         lookup(l, EnvBotToken, ""),
		ApplicationId:    lookup(l, EnvApplicationId, ""),
		ClientId:         lookup(l, EnvClientId, ""),
		ClientSecret:     lookup(l, EnvClientSecret, ""),
		OAuthRedirectUrl: lookup(l, EnvOAuthRedirectUrl, ""),
		SessionSecret:    lookup(l, EnvSessionSecret, ""),
		FooterIcon:       lookup(l, EnvFooterIcon, ""),
		RestockRoleId:    lookup(l, EnvRestockRoleId, ""),
		Port:             lookup(l, EnvPort, defaultPort),
		MonitoringPort:   lookup(l, EnvMonitoringPort, defaultMonitoringPort),
		GuildId:          lookup(l, EnvGuildId, ""),
		GuildName:        lookup(l, EnvGuildName, defaultGuildName),
		LayoutFile:       lookup(l, EnvLayoutFile, ""),
		StoreBackend:     strings.ToLower(lookup(l, EnvStoreBackend, string(dataaccess.BackendFile))),
		MongoUri:         lookup(l, EnvMongoUri, ""),
	}

	defaultPath := defaultFilePath
	if v.StoreBackend == string(dataaccess.BackendSQLite) {
		defaultPath = defaultSQLitePath
	}
	v.StorePath = lookup(l, EnvStorePath, defaultPath)

	if err := v.validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func lookup(l *slog.Logger, key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		l.Debug("Found value in environment", slog.String("key", key))
		return v
	}
	if def != "" {
		l.Debug("No value in environment, using default", slog.String("key", key), slog.String("default", def))
	}
	return def
}

func (v *Values) validate() error {
	var missing []string
	require := func(key, value string) {
		if value == "" {
			missing = append(missing, key)
		}
	}

	require(EnvBotToken, v.BotToken)
	require(EnvApplicationId, v.ApplicationId)
	require(EnvClientId, v.ClientId)
	require(EnvClientSecret, v.ClientSecret)
	require(EnvOAuthRedirectUrl, v.OAuthRedirectUrl)
	require(EnvSessionSecret, v.SessionSecret)

	switch dataaccess.Backend(v.StoreBackend) {
	case dataaccess.BackendFile, dataaccess.BackendSQLite:
	case dataaccess.BackendMongo:
		require(EnvMongoUri, v.MongoUri)
	default:
		return fmt.Errorf("unsupported %s %q", EnvStoreBackend, v.StoreBackend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Store returns the reaction role store configuration.
func (v *Values) Store() *dataaccess.Config {
	return &dataaccess.Config{
		Backend:  dataaccess.Backend(v.StoreBackend),
		Path:     v.StorePath,
		MongoURI: v.MongoUri,
	}
}
