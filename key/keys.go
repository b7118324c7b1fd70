// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Catalog - these keys locate the streaming aggregator whose episode pages are resolved.
const (
	CatalogBaseURL = "catalog.base_url"
)

// Network - these keys tune the HTTP fetcher shared by every resolution stage.
const (
	NetworkTimeout        = "network.timeout"
	NetworkUserAgent      = "network.user_agent"
	NetworkProxy          = "network.proxy"
	NetworkTLSFingerprint = "network.tls_fingerprint"
	NetworkRateLimit      = "network.rate_limit"
)

// Anonymizing proxy - these keys configure the Tor data plane and control channel.
const (
	TorEnable          = "tor.enable"
	TorSocksAddress    = "tor.socks_address"
	TorControlAddress  = "tor.control_address"
	TorControlPassword = "tor.control_password"
	TorSettleSeconds   = "tor.settle_seconds"
)

// Anti-bot detection - these keys hold the block signatures matched against fetched pages.
const (
	GuardSignatures = "guard.signatures"
)

// Resolution - these keys drive provider and language selection.
const (
	ResolveLanguage         = "resolve.language"
	ResolveProvider         = "resolve.provider"
	ResolveFallbackOrder    = "resolve.fallback_order"
	ResolveMaxHops          = "resolve.max_hops"
	ResolveRememberProvider = "resolve.remember_provider"
	ResolveWorkers          = "resolve.workers"
)

// HTTP service - these keys configure the serve command.
const (
	ServerAddress = "server.address"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the command-line behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
