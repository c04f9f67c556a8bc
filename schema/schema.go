// Package schema has models, enums and records shared by all parts of ipaudit.
package schema

// Custom string types for type safety.
type (
	// Origin represents the ownership category of a file.
	Origin string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// PointerStrategy represents how the "latest" archive pointer is installed.
	PointerStrategy string
)

// All origins supported.
const (
	ThirdPartyOrigin Origin = "third_party"
	ForegroundOrigin Origin = "foreground"
	BackgroundOrigin Origin = "background"
	UnknownOrigin    Origin = "unknown"
)

// AllOrigins lists origins in display order.
var AllOrigins = []Origin{ForegroundOrigin, BackgroundOrigin, ThirdPartyOrigin, UnknownOrigin}

// ValidOrigins lists all valid origins.
var ValidOrigins = map[Origin]struct{}{
	ThirdPartyOrigin: {},
	ForegroundOrigin: {},
	BackgroundOrigin: {},
	UnknownOrigin:    {},
}

// Placeholder values used when evidence is missing.
const (
	UnknownLicense = "unknown"
	NoLicense      = "none"
	UnknownAuthor  = "unknown"
)

// ThirdPartyReason is the score reason attached to third-party files.
const ThirdPartyReason = "Third-party package"

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	CSVOut  OutputMode = "csv"
	JSONOut OutputMode = "json"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	CSVOut:  {},
	JSONOut: {},
}

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// All pointer strategies supported.
const (
	AutoPointer    PointerStrategy = "auto" // default: symlink, falling back to copy
	SymlinkPointer PointerStrategy = "symlink"
	CopyPointer    PointerStrategy = "copy"
)

// ValidPointerStrategies lists all valid pointer strategies.
var ValidPointerStrategies = map[PointerStrategy]struct{}{
	AutoPointer:    {},
	SymlinkPointer: {},
	CopyPointer:    {},
}
