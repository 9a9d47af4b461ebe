package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bundlesmith/bundlesmith/pkg/env"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/parser"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = ".bundlesmith.yaml"

// maxConfigSize bounds how much of a config file is read.
const maxConfigSize = 1024 * 1024

// Config represents the complete bundlesmith configuration
type Config struct {
	Project   ProjectConfig   `yaml:"project"`
	Build     BuildConfig     `yaml:"build,omitempty"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Windows   WindowsConfig   `yaml:"windows,omitempty"`
	Linux     LinuxConfig     `yaml:"linux,omitempty"`
	Mac       MacConfig       `yaml:"mac,omitempty"`
	Notarize  NotarizeConfig  `yaml:"notarize,omitempty"`
	Changelog ChangelogConfig `yaml:"changelog,omitempty"`
	Release   ReleaseConfig   `yaml:"release,omitempty"`
}

// ProjectConfig describes the application being packaged
type ProjectConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version,omitempty"`
	// Module is the application module, MainModule the entry point
	// ("module" or "module/class").
	Module     string `yaml:"module"`
	MainModule string `yaml:"main_module"`
	// Artifact is the built module jar, staged into the first ModulePath entry.
	Artifact    string   `yaml:"artifact,omitempty"`
	ModulePath  []string `yaml:"module_path"`
	Icon        string   `yaml:"icon,omitempty"`
	ResourceDir string   `yaml:"resource_dir,omitempty"`
}

// BuildConfig controls where intermediate and final outputs go
type BuildConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// RuntimeImage is the jlink output directory.
func (b BuildConfig) RuntimeImage() string { return filepath.Join(b.Dir, "runtime") }

// Dist is the jpackage destination directory, <build>/appdir. Every
// published file is written there.
func (b BuildConfig) Dist() string { return filepath.Join(b.Dir, "appdir") }

// RuntimeConfig lists what jlink puts into the runtime image
type RuntimeConfig struct {
	Modules    []string `yaml:"modules"`
	ModulePath []string `yaml:"module_path,omitempty"`
}

// WindowsConfig contains MSI/EXE installer settings
type WindowsConfig struct {
	InstallerType string `yaml:"installer_type,omitempty"`
	UpgradeUUID   string `yaml:"upgrade_uuid,omitempty"`
	MenuGroup     string `yaml:"menu_group,omitempty"`
}

// LinuxConfig contains deb/rpm settings. Format is auto, deb or rpm.
type LinuxConfig struct {
	Format     string `yaml:"format,omitempty"`
	Maintainer string `yaml:"maintainer,omitempty"`
	MenuGroup  string `yaml:"menu_group,omitempty"`
}

// MacConfig contains bundle, DMG and code signing settings
type MacConfig struct {
	PackageIdentifier string             `yaml:"package_identifier,omitempty"`
	PackageName       string             `yaml:"package_name,omitempty"`
	DeveloperID       string             `yaml:"developer_id,omitempty"`
	RuntimeDir        string             `yaml:"runtime_dir,omitempty"`
	Entitlements      EntitlementsConfig `yaml:"entitlements,omitempty"`
}

// EntitlementsConfig points at custom entitlements files. Empty paths use
// the built-in defaults.
type EntitlementsConfig struct {
	Runtime  string `yaml:"runtime,omitempty"`
	Launcher string `yaml:"launcher,omitempty"`
}

// NotarizeConfig contains notarytool settings. Credentials are never stored
// here: KeychainProfile names a profile created with
// `xcrun notarytool store-credentials`.
type NotarizeConfig struct {
	KeychainProfile  string `yaml:"keychain_profile,omitempty"`
	PollInterval     string `yaml:"poll_interval,omitempty"`
	MaxAttempts      int    `yaml:"max_attempts,omitempty"`
	VerifyGatekeeper bool   `yaml:"verify_gatekeeper,omitempty"`
}

// Interval parses PollInterval.
func (n NotarizeConfig) Interval() (time.Duration, error) {
	d, err := time.ParseDuration(n.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("notarize.poll_interval: %w", err)
	}
	return d, nil
}

// ChangelogConfig controls the release notes generated from commit subjects
type ChangelogConfig struct {
	Disable bool                   `yaml:"disable,omitempty"`
	Sort    string                 `yaml:"sort,omitempty"` // "asc" or "desc" (git order)
	Filters ChangelogFiltersConfig `yaml:"filters,omitempty"`
	Groups  []ChangelogGroupConfig `yaml:"groups,omitempty"`
}

// ChangelogFiltersConfig holds regular expressions matched against commit
// subjects. Include is applied before Exclude.
type ChangelogFiltersConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// ChangelogGroupConfig is one titled section. A group without Regexp
// collects the commits no other group matched.
type ChangelogGroupConfig struct {
	Title  string `yaml:"title"`
	Regexp string `yaml:"regexp,omitempty"`
	Order  int    `yaml:"order,omitempty"`
}

// ReleaseConfig contains release configuration
type ReleaseConfig struct {
	GitHub GitHubConfig `yaml:"github,omitempty"`
}

// GitHubConfig contains GitHub-specific release configuration. APIURL and
// UploadURL point at a GitHub Enterprise server; empty means github.com.
type GitHubConfig struct {
	Owner     string `yaml:"owner,omitempty"`
	Repo      string `yaml:"repo,omitempty"`
	Draft     bool   `yaml:"draft,omitempty"`
	Token     string `yaml:"token,omitempty"`
	APIURL    string `yaml:"api_url,omitempty"`
	UploadURL string `yaml:"upload_url,omitempty"`
}

// Enabled reports whether a release target is configured.
func (g GitHubConfig) Enabled() bool { return g.Owner != "" || g.Repo != "" }

// ApplyDefaults fills optional fields that were left empty.
func (c *Config) ApplyDefaults() {
	if c.Build.Dir == "" {
		c.Build.Dir = "target"
	}
	if c.Windows.InstallerType == "" {
		c.Windows.InstallerType = "msi"
	}
	if c.Linux.Format == "" {
		c.Linux.Format = "auto"
	}
	if c.Mac.RuntimeDir == "" {
		c.Mac.RuntimeDir = "Contents/runtime"
	}
	if c.Notarize.PollInterval == "" {
		c.Notarize.PollInterval = "30s"
	}
	if c.Notarize.MaxAttempts == 0 {
		c.Notarize.MaxAttempts = 120
	}
}

// LoadConfig reads, env-substitutes and strictly decodes a configuration
// file, then applies defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	cleanPath, err := validateConfigPath(path)
	if err != nil {
		return nil, err
	}

	data, err := readConfigFile(cleanPath)
	if err != nil {
		return nil, err
	}

	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(file.Docs) == 0 || file.Docs[0].Body == nil {
		return nil, fmt.Errorf("failed to parse config: empty document")
	}

	if err := env.SubstituteEnvVarsNode(file.Docs[0].Body); err != nil {
		return nil, fmt.Errorf("environment variable substitution failed: %w", err)
	}

	var config Config
	if err := yaml.NodeToValue(file.Docs[0].Body, &config, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.ApplyDefaults()

	return &config, nil
}

// SaveConfig writes config as YAML. The file is created 0600 since it may
// hold a release token.
func SaveConfig(path string, config *Config) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateConfigPath resolves path and rejects relative paths that climb out
// of the working directory. Absolute paths elsewhere are allowed.
func validateConfigPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	wd = filepath.Clean(wd)

	if cleanPath == wd || strings.HasPrefix(cleanPath, wd+string(filepath.Separator)) {
		rel, err := filepath.Rel(wd, cleanPath)
		if err != nil {
			return "", fmt.Errorf("invalid config path: %w", err)
		}
		if !filepath.IsLocal(rel) {
			return "", fmt.Errorf("invalid config path: path traversal detected")
		}
	}

	return cleanPath, nil
}

// readConfigFile follows symlinks and reads a bounded regular file.
func readConfigFile(cleanPath string) ([]byte, error) {
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config path is not a regular file")
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: maximum size is 1MB")
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return data, nil
}
