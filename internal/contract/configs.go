package contract

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/huangsam/ipaudit/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit    = 25
	MaxResultLimit        = 1000
	DefaultPrecision      = 2
	DefaultOutputDir      = "ipaudit-output"
	DefaultMaxRunsPerRepo = 50
)

// Default cost model parameters.
const (
	DefaultDaysPerKLOC          = 15.0
	DefaultHoursPerDay          = 8.0
	DefaultHourlyRate           = 150.0
	DefaultComplexityMultiplier = 1.5
	DefaultCurrency             = "USD"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DefaultPermissiveLicenses are licenses that mark a file as third-party on their own.
var DefaultPermissiveLicenses = []string{"MIT", "Apache-2.0", "BSD-3-Clause"}

// DefaultHighRiskLicenses are license prefixes counted as compliance risks.
var DefaultHighRiskLicenses = []string{"GPL", "AGPL", "LGPL", "SSPL"}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// CostRawInput holds the cost model overrides from the YAML config file.
// Pointers distinguish "unset" from an explicit zero.
type CostRawInput struct {
	DaysPerKLOC          *float64 `mapstructure:"days_per_kloc"`
	HoursPerDay          *float64 `mapstructure:"hours_per_day"`
	HourlyRate           *float64 `mapstructure:"hourly_rate"`
	ComplexityMultiplier *float64 `mapstructure:"complexity_multiplier"`
	Currency             string   `mapstructure:"currency"`
}

// ClassifyRawInput holds classifier settings from the YAML config file.
type ClassifyRawInput struct {
	PermissiveLicenses []string `mapstructure:"permissive_licenses"`
	BackgroundPatterns []string `mapstructure:"background_patterns"`
	HighRiskLicenses   []string `mapstructure:"high_risk_licenses"`
}

// ArchiveRawInput holds the output.archive section.
type ArchiveRawInput struct {
	Enabled        *bool  `mapstructure:"enabled"`
	RootDir        string `mapstructure:"root_dir"`
	MaxRunsPerRepo *int   `mapstructure:"max_runs_per_repo"`
	Pointer        string `mapstructure:"pointer"`
	SigningKey     string `mapstructure:"signing_key"`
}

// OutputRawInput holds the output section.
type OutputRawInput struct {
	Dir     string          `mapstructure:"dir"`
	Archive ArchiveRawInput `mapstructure:"archive"`
}

// ClassifyConfig is the validated classifier configuration.
type ClassifyConfig struct {
	PermissiveLicenses []string
	BackgroundPatterns []string
	HighRiskLicenses   []string
}

// ArchiveConfig is the validated archive configuration.
type ArchiveConfig struct {
	Enabled        bool
	RootDir        string // Empty means runs are not archived
	MaxRunsPerRepo int    // 0 disables pruning
	Pointer        schema.PointerStrategy
	SigningKey     string // Path to an armored OpenPGP private key
}

// Config holds the runtime configuration for the audit.
// This struct remains the "final, validated" config.
type Config struct {
	RepoPath       string
	IsGitRepo      bool
	FindingsPath   string
	AggregatesPath string
	ResultLimit    int
	Workers        int
	Excludes       []string
	Precision      int
	Output         schema.OutputMode
	OutputFile     string
	OutputDir      string
	Width          int // Terminal width override (0 = auto-detect)

	Cost     schema.CostModel
	Classify ClassifyConfig
	Archive  ArchiveConfig

	// Metadata is echoed into the archive metadata of every run
	Metadata map[string]any

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Findings         string `mapstructure:"findings"`
	Aggregates       string `mapstructure:"aggregates"`
	OutputFile       string `mapstructure:"output-file"`
	Limit            int    `mapstructure:"limit"`
	Workers          int    `mapstructure:"workers"`
	Exclude          string `mapstructure:"exclude"`
	Precision        int    `mapstructure:"precision"`
	Format           string `mapstructure:"format"`
	Width            int    `mapstructure:"width"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	Color            string `mapstructure:"color"`

	// --- Sections from the config file ---
	Cost     CostRawInput     `mapstructure:"cost"`
	Classify ClassifyRawInput `mapstructure:"classify"`
	Output   OutputRawInput   `mapstructure:"output"`
	Metadata map[string]any   `mapstructure:"metadata"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Excludes = slices.Clone(c.Excludes)
	clone.Classify.PermissiveLicenses = slices.Clone(c.Classify.PermissiveLicenses)
	clone.Classify.BackgroundPatterns = slices.Clone(c.Classify.BackgroundPatterns)
	clone.Classify.HighRiskLicenses = slices.Clone(c.Classify.HighRiskLicenses)
	if c.Metadata != nil {
		clone.Metadata = maps.Clone(c.Metadata)
	}
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processCostModel(cfg, input); err != nil {
		return err
	}
	if err := processClassify(cfg, input); err != nil {
		return err
	}
	if err := processOutput(cfg, input); err != nil {
		return err
	}
	if err := processEvidencePaths(cfg, input); err != nil {
		return err
	}
	if err := resolveRepoPath(ctx, cfg, client, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache-db-connect: %w", err)
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("history-db-connect: %w", err)
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if cachePath == historyPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Format))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Format)
	}

	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}

	cfg.Excludes = []string{".git/"}
	if input.Exclude != "" {
		for p := range strings.SplitSeq(input.Exclude, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.Excludes = append(cfg.Excludes, trimmed)
			}
		}
	}

	return nil
}

// processCostModel fills the cost model from defaults and config overrides.
func processCostModel(cfg *Config, input *ConfigRawInput) error {
	model := schema.CostModel{
		DaysPerKLOC:          DefaultDaysPerKLOC,
		HoursPerDay:          DefaultHoursPerDay,
		HourlyRate:           DefaultHourlyRate,
		ComplexityMultiplier: DefaultComplexityMultiplier,
		Currency:             DefaultCurrency,
	}
	raw := input.Cost
	if raw.DaysPerKLOC != nil {
		model.DaysPerKLOC = *raw.DaysPerKLOC
	}
	if raw.HoursPerDay != nil {
		model.HoursPerDay = *raw.HoursPerDay
	}
	if raw.HourlyRate != nil {
		model.HourlyRate = *raw.HourlyRate
	}
	if raw.ComplexityMultiplier != nil {
		model.ComplexityMultiplier = *raw.ComplexityMultiplier
	}
	if c := strings.TrimSpace(raw.Currency); c != "" {
		model.Currency = strings.ToUpper(c)
	}

	if err := validateCostModel(model); err != nil {
		return err
	}
	cfg.Cost = model
	return nil
}

// validateCostModel rejects parameters that would produce a meaningless estimate.
func validateCostModel(model schema.CostModel) error {
	if model.DaysPerKLOC < 0 {
		return fmt.Errorf("cost.days_per_kloc cannot be negative (received %.2f)", model.DaysPerKLOC)
	}
	if model.HoursPerDay <= 0 || model.HoursPerDay > 24 {
		return fmt.Errorf("cost.hours_per_day must be in (0, 24] (received %.2f)", model.HoursPerDay)
	}
	if model.HourlyRate < 0 {
		return fmt.Errorf("cost.hourly_rate cannot be negative (received %.2f)", model.HourlyRate)
	}
	if model.ComplexityMultiplier <= 0 {
		return fmt.Errorf("cost.complexity_multiplier must be greater than 0 (received %.2f)", model.ComplexityMultiplier)
	}
	return nil
}

// processClassify validates the classifier allow-lists and patterns.
func processClassify(cfg *Config, input *ConfigRawInput) error {
	cls := ClassifyConfig{
		PermissiveLicenses: cleanList(input.Classify.PermissiveLicenses),
		BackgroundPatterns: cleanList(input.Classify.BackgroundPatterns),
		HighRiskLicenses:   cleanList(input.Classify.HighRiskLicenses),
	}
	if len(cls.PermissiveLicenses) == 0 {
		cls.PermissiveLicenses = slices.Clone(DefaultPermissiveLicenses)
	}
	if len(cls.HighRiskLicenses) == 0 {
		cls.HighRiskLicenses = slices.Clone(DefaultHighRiskLicenses)
	}
	for _, pattern := range cls.BackgroundPatterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid classify.background_patterns entry %q", pattern)
		}
	}
	cfg.Classify = cls
	return nil
}

// processOutput handles the output directory, archive settings and metadata.
func processOutput(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputDir = strings.TrimSpace(input.Output.Dir)
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	raw := input.Output.Archive
	archive := ArchiveConfig{
		Enabled:        true,
		RootDir:        strings.TrimSpace(raw.RootDir),
		MaxRunsPerRepo: DefaultMaxRunsPerRepo,
		Pointer:        schema.AutoPointer,
		SigningKey:     strings.TrimSpace(raw.SigningKey),
	}
	if raw.Enabled != nil {
		archive.Enabled = *raw.Enabled
	}
	if raw.MaxRunsPerRepo != nil {
		if *raw.MaxRunsPerRepo < 0 {
			return fmt.Errorf("output.archive.max_runs_per_repo cannot be negative (received %d)", *raw.MaxRunsPerRepo)
		}
		archive.MaxRunsPerRepo = *raw.MaxRunsPerRepo
	}
	if raw.Pointer != "" {
		archive.Pointer = schema.PointerStrategy(strings.ToLower(raw.Pointer))
		if _, ok := schema.ValidPointerStrategies[archive.Pointer]; !ok {
			return fmt.Errorf("invalid output.archive.pointer '%s'. must be auto, symlink, copy", raw.Pointer)
		}
	}
	if archive.RootDir != "" {
		abs, err := filepath.Abs(ExpandHome(archive.RootDir))
		if err != nil {
			return fmt.Errorf("cannot resolve archive root %q: %w", archive.RootDir, err)
		}
		archive.RootDir = abs
	}
	if archive.SigningKey != "" {
		archive.SigningKey = ExpandHome(archive.SigningKey)
	}
	cfg.Archive = archive

	cfg.Metadata = make(map[string]any, len(input.Metadata))
	maps.Copy(cfg.Metadata, input.Metadata)
	return nil
}

// processEvidencePaths checks that explicitly provided evidence files exist.
func processEvidencePaths(cfg *Config, input *ConfigRawInput) error {
	resolve := func(flag, p string) (string, error) {
		p = strings.TrimSpace(p)
		if p == "" {
			return "", nil
		}
		abs, err := filepath.Abs(ExpandHome(p))
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(abs); err != nil {
			return "", fmt.Errorf("%s file %q is not readable: %w", flag, p, err)
		}
		return abs, nil
	}

	var err error
	if cfg.FindingsPath, err = resolve("findings", input.Findings); err != nil {
		return err
	}
	if cfg.AggregatesPath, err = resolve("aggregates", input.Aggregates); err != nil {
		return err
	}
	return nil
}

// RevalidateRepoPath points cfg at another repository and re-detects whether it is under git.
func RevalidateRepoPath(ctx context.Context, cfg *Config, client GitClient, repoPath string) error {
	return resolveRepoPath(ctx, cfg, client, &ConfigRawInput{RepoPathStr: repoPath})
}

// RevalidateFindings replaces the findings document, keeping the aggregates override.
func RevalidateFindings(cfg *Config, findings string) error {
	return processEvidencePaths(cfg, &ConfigRawInput{Findings: findings, Aggregates: cfg.AggregatesPath})
}

// RevalidateCost applies cost overrides on top of the configured model.
// Nil values keep the current setting.
func RevalidateCost(cfg *Config, hourlyRate, daysPerKLOC *float64, currency string) error {
	model := cfg.Cost
	if hourlyRate != nil {
		model.HourlyRate = *hourlyRate
	}
	if daysPerKLOC != nil {
		model.DaysPerKLOC = *daysPerKLOC
	}
	if c := strings.TrimSpace(currency); c != "" {
		model.Currency = strings.ToUpper(c)
	}
	if err := validateCostModel(model); err != nil {
		return err
	}
	cfg.Cost = model
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveRepoPath resolves the repository root. Directories outside of git are
// accepted as-is and audited through a plain directory walk.
func resolveRepoPath(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	searchPath := input.RepoPathStr
	if searchPath == "" {
		searchPath = "."
	}
	absSearchPath, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	info, err := os.Stat(absSearchPath)
	if err != nil {
		return fmt.Errorf("repository path %q is not accessible: %w", searchPath, err)
	}
	if !info.IsDir() {
		absSearchPath = filepath.Dir(absSearchPath)
	}

	gitRoot, err := client.GetRepoRoot(ctx, absSearchPath)
	if err != nil || gitRoot == "" {
		cfg.RepoPath = absSearchPath
		cfg.IsGitRepo = false
		return nil
	}

	cfg.RepoPath = filepath.Clean(gitRoot)
	cfg.IsGitRepo = true
	return nil
}

// cleanList trims entries and drops empty ones.
func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
