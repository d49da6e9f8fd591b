package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultServerAddress  = ":7007"
	DefaultWorkers        = 5
	DefaultMetadataFile   = "catalog-info.yaml"
	DefaultBranchName     = "backstage-integration"
	DefaultMaxPages       = 50
	DefaultRequestTimeout = 30 * time.Second
	DefaultReadRetries    = 2
	DefaultPRTitle        = "Add catalog-info.yaml config file"
	DefaultPRBody         = "This pull request adds a **Backstage entity metadata file** to this repository " +
		"so that the component can be added to the software catalog.\n\n" +
		"After this pull request is merged, the component will become available.\n\n" +
		"For more information, read an [overview of the Backstage software catalog]" +
		"(https://backstage.io/docs/features/software-catalog/)."
)

// Settings is the top-level configuration.
type Settings struct {
	LogLevel  string             `yaml:"log_level"`
	Server    ServerSettings     `yaml:"server"`
	Catalog   CatalogSettings    `yaml:"catalog"`
	Import    ImportSettings     `yaml:"import"`
	Providers []ProviderSettings `yaml:"providers"`
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	Address string `yaml:"address"`
}

// CatalogSettings points at the catalog service.
type CatalogSettings struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// ImportSettings tunes the import engine.
type ImportSettings struct {
	Workers        int           `yaml:"workers"`
	MetadataFile   string        `yaml:"metadata_file"`
	BranchName     string        `yaml:"branch_name"`
	MaxPages       int           `yaml:"max_pages"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ReadRetries    int           `yaml:"read_retries"` // negative disables read retries
	PRTitle        string        `yaml:"pull_request_title"`
	PRBody         string        `yaml:"pull_request_body"`
}

// ProviderSettings describes a single Git hosting provider instance.
type ProviderSettings struct {
	Type      string             `yaml:"type"`       // "github", "gitlab"
	Token     string             `yaml:"token"`      // Inline, ${ENV_VAR}, or file path
	BaseURL   string             `yaml:"base_url"`   // API base URL for self-hosted instances
	RateLimit float64            `yaml:"rate_limit"` // Requests per second, 0 disables
	App       *GitHubAppSettings `yaml:"app"`
}

// GitHubAppSettings authenticates as a GitHub App installation instead of a token.
type GitHubAppSettings struct {
	AppID          int64  `yaml:"app_id"`
	InstallationID int64  `yaml:"installation_id"`
	PrivateKey     string `yaml:"private_key"` // PEM, ${ENV_VAR}, or file path
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// NewSettings reads and parses a configuration file, expanding environment
// variables, resolving token file paths and applying defaults.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var settings Settings
	if unmarshalErr := yaml.Unmarshal(data, &settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	settings.Catalog.Token = resolveToken(settings.Catalog.Token)
	for i := range settings.Providers {
		provider := &settings.Providers[i]
		provider.Type = strings.ToLower(strings.TrimSpace(provider.Type))
		provider.Token = resolveToken(provider.Token)
		if provider.Token == "" {
			provider.Token = resolveTokenFromEnv(provider.Type)
		}
		if provider.App != nil {
			provider.App.PrivateKey = resolveToken(provider.App.PrivateKey)
		}
	}

	settings.ApplyDefaults()

	if validateErr := validate(&settings); validateErr != nil {
		return nil, validateErr
	}

	return &settings, nil
}

// ApplyDefaults fills every unset tunable.
func (s *Settings) ApplyDefaults() {
	if s.Server.Address == "" {
		s.Server.Address = DefaultServerAddress
	}
	if s.Catalog.Timeout <= 0 {
		s.Catalog.Timeout = DefaultRequestTimeout
	}
	s.Import.ApplyDefaults()
}

// ApplyDefaults fills every unset import tunable.
func (s *ImportSettings) ApplyDefaults() {
	if s.Workers <= 0 {
		s.Workers = DefaultWorkers
	}
	if s.MetadataFile == "" {
		s.MetadataFile = DefaultMetadataFile
	}
	if s.BranchName == "" {
		s.BranchName = DefaultBranchName
	}
	if s.MaxPages <= 0 {
		s.MaxPages = DefaultMaxPages
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = DefaultRequestTimeout
	}
	switch {
	case s.ReadRetries == 0:
		s.ReadRetries = DefaultReadRetries
	case s.ReadRetries < 0: // explicitly disabled
		s.ReadRetries = 0
	}
	if s.PRTitle == "" {
		s.PRTitle = DefaultPRTitle
	}
	if s.PRBody == "" {
		s.PRBody = DefaultPRBody
	}
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".bulkimport.yaml",
		".bulkimport.yml",
		"bulkimport.yaml",
		"bulkimport.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	// Expand ${ENV_VAR} references
	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	// PEM blocks and multi-line values are never file paths
	if strings.Contains(resolved, "\n") {
		return resolved
	}

	// If the resolved value is a path to an existing file, read the token from it
	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

func resolveTokenFromEnv(providerType string) string {
	switch providerType {
	case ProviderGitHub:
		if t := os.Getenv("GITHUB_TOKEN"); t != "" {
			return t
		}
		return os.Getenv("GH_TOKEN")
	case ProviderGitLab:
		if t := os.Getenv("GITLAB_TOKEN"); t != "" {
			return t
		}
		return os.Getenv("GL_TOKEN")
	default:
		return ""
	}
}

// validate checks for required configuration values.
func validate(settings *Settings) error {
	if settings.Catalog.BaseURL == "" {
		return errors.New("catalog.base_url is required")
	}
	if len(settings.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	for i, p := range settings.Providers {
		if p.Type != ProviderGitHub && p.Type != ProviderGitLab {
			return fmt.Errorf("providers[%d].type must be %q or %q", i, ProviderGitHub, ProviderGitLab)
		}
		if p.App != nil {
			if p.Type != ProviderGitHub {
				return fmt.Errorf("providers[%d].app is only supported for %q", i, ProviderGitHub)
			}
			if p.App.AppID == 0 || p.App.InstallationID == 0 || p.App.PrivateKey == "" {
				return fmt.Errorf(
					"providers[%d].app requires app_id, installation_id and private_key", i,
				)
			}
			continue
		}
		if p.Token == "" {
			return fmt.Errorf(
				"providers[%d].token is required (set inline, via ${ENV_VAR}, as file path, or in %s)",
				i, tokenEnvHint(p.Type),
			)
		}
	}

	return nil
}

func tokenEnvHint(providerType string) string {
	switch providerType {
	case ProviderGitHub:
		return "GITHUB_TOKEN or GH_TOKEN"
	case ProviderGitLab:
		return "GITLAB_TOKEN or GL_TOKEN"
	default:
		return "<unknown provider>"
	}
}
