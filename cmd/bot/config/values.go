package config

const (
	// AppName is the name of the application.
	AppName = "v0bot"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvClientId is the environment variable for the OAuth2 client ID of the dashboard.
	EnvClientId = `CLIENT_ID`

	// EnvClientSecret is the environment variable for the OAuth2 client secret of the dashboard.
	EnvClientSecret = `CLIENT_SECRET`

	// EnvOAuthRedirectUrl is the environment variable for the dashboard's login callback URL.
	EnvOAuthRedirectUrl = `OAUTH_REDIRECT_URL`

	// EnvSessionSecret is the environment variable for the key that signs dashboard sessions.
	EnvSessionSecret = `SESSION_SECRET`

	// EnvFooterIcon is the environment variable for the icon shown in embed footers.
	EnvFooterIcon = `FOOTER_ICON`

	// EnvRestockRoleId is the environment variable for the role pinged by restock announcements.
	EnvRestockRoleId = `RESTOCK_ROLE_ID`

	// EnvPort is the environment variable for the dashboard port.
	EnvPort = `PORT`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	// EnvGuildId is the environment variable for the ID of the guild the bot serves.
	EnvGuildId = `GUILD_ID`

	// EnvGuildName is the environment variable for the name of the guild the bot serves, used when no ID is given.
	EnvGuildName = `GUILD_NAME`

	// EnvLayoutFile is the environment variable for the guild layout file.
	EnvLayoutFile = `LAYOUT_FILE`

	// EnvStoreBackend is the environment variable for the reaction role store backend.
	EnvStoreBackend = `STORE_BACKEND`

	// EnvStorePath is the environment variable for the path of the file or sqlite store.
	EnvStorePath = `STORE_PATH`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`
)

const (
	defaultPort           = "3000"
	defaultMonitoringPort = "8080"
	defaultGuildName      = "V0 Carries"
	defaultFilePath       = "reactionroles.json"
	defaultSQLitePath     = "v0bot.db"
)

// Values is the configuration of the application.
type Values struct {
	BotToken      string
	ApplicationId string

	ClientId         string
	ClientSecret     string
	OAuthRedirectUrl string
	SessionSecret    string

	FooterIcon    string
	RestockRoleId string

	Port           string
	MonitoringPort string

	GuildId    string
	GuildName  string
	LayoutFile string

	StoreBackend string
	StorePath    string
	MongoUri     string
}
