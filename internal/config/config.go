package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect run
	// behavior, keep these in sync:
	// - CLI flags in internal/cli/run.go
	// - config-file override mapping in internal/cli/run.go:mergeFlagOverrides
	Source     Source     `yaml:"source"`
	Checkout   Checkout   `yaml:"checkout"`
	Discovery  Discovery  `yaml:"discovery"`
	Extraction Extraction `yaml:"extraction"`
	Output     Output     `yaml:"output"`
	Runtime    Runtime    `yaml:"runtime"`
}

type Source struct {
	// ReposFile is a text file with one Git clone URL per line (see --repos-file).
	// Blank lines and lines starting with '#' are ignored.
	ReposFile string `yaml:"repos_file"`

	// GroupPath is a GitLab group path to enumerate (see --group-path).
	GroupPath string `yaml:"group_path"`

	// GitLabBase is the GitLab base URL (see --gitlab-base).
	GitLabBase string `yaml:"gitlab_base"`

	// IncludeSubgroups includes projects of nested subgroups (see --include-subgroups).
	IncludeSubgroups bool `yaml:"include_subgroups"`

	// GitLabToken authenticates GitLab API calls. Defaults to the
	// GITLAB_TOKEN environment variable. In a config file it may be given
	// inline, as ${ENV_VAR}, or as a path to a token file.
	GitLabToken string `yaml:"gitlab_token"`

	// GitHubOrg is a GitHub organization to enumerate (see --github-org).
	GitHubOrg string `yaml:"github_org"`

	// GitHubToken authenticates GitHub API calls. Defaults to the
	// GITHUB_TOKEN environment variable. Same resolution rules as GitLabToken.
	GitHubToken string `yaml:"github_token"`
}

type Checkout struct {
	// WorkDir is where repositories are cloned (see --work-dir). The
	// directory is reusable across runs; each repo maps to a unique
	// URL-derived subdirectory.
	WorkDir string `yaml:"work_dir"`

	// Branch optionally overrides the branch to clone (see --branch).
	// Empty means the remote's default branch.
	Branch string `yaml:"branch"`

	// CloneTimeout bounds each git clone/fetch/rev-parse call (see --clone-timeout).
	CloneTimeout time.Duration `yaml:"clone_timeout"`
}

type Discovery struct {
	// MarkerFile is the file a directory must directly contain to qualify
	// as a cookbook root.
	MarkerFile string `yaml:"marker_file"`

	// MarkerDirs is the set of subdirectory names of which at least one
	// must exist next to the marker file.
	MarkerDirs []string `yaml:"marker_dirs"`

	// MaxDepth bounds how deep marker files are searched for, counted in
	// path components from the repository root (see --max-depth).
	MaxDepth int `yaml:"max_depth"`
}

type Extraction struct {
	// Extractor is the path to the single-cookbook extractor executable
	// (see --extractor).
	Extractor string `yaml:"extractor"`

	// Timeout bounds each extractor invocation (see --extract-timeout).
	Timeout time.Duration `yaml:"extract_timeout"`

	// Overwrite redoes cookbooks whose output file already exists (see --overwrite).
	Overwrite bool `yaml:"overwrite"`

	// DryRun lists discovered cookbooks without running the extractor (see --dry-run).
	DryRun bool `yaml:"dry_run"`
}

type Output struct {
	// Dir is where per-cookbook JSON files and the manifest/errors logs are
	// written (see --out-dir).
	Dir string `yaml:"dir"`
}

type Runtime struct {
	// Concurrency controls how many repositories are processed in parallel
	// (see --concurrency). Must be >= 1.
	Concurrency int `yaml:"concurrency"`

	// Limit processes only the first N repositories; 0 means no limit (see --limit).
	Limit int `yaml:"limit"`
}

// UnmarshalYAML parses Checkout with clone_timeout as a Go duration string
// ("900s", "15m"). Absent fields keep their defaults.
func (c *Checkout) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		WorkDir      string `yaml:"work_dir"`
		Branch       string `yaml:"branch"`
		CloneTimeout string `yaml:"clone_timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.WorkDir != "" {
		c.WorkDir = raw.WorkDir
	}
	if raw.Branch != "" {
		c.Branch = raw.Branch
	}
	if raw.CloneTimeout != "" {
		d, err := time.ParseDuration(raw.CloneTimeout)
		if err != nil {
			return fmt.Errorf("invalid clone_timeout: %w", err)
		}
		c.CloneTimeout = d
	}
	return nil
}

// UnmarshalYAML parses Extraction with extract_timeout as a Go duration
// string. Absent fields keep their defaults.
func (e *Extraction) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Extractor string `yaml:"extractor"`
		Timeout   string `yaml:"extract_timeout"`
		Overwrite bool   `yaml:"overwrite"`
		DryRun    bool   `yaml:"dry_run"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Extractor != "" {
		e.Extractor = raw.Extractor
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("invalid extract_timeout: %w", err)
		}
		e.Timeout = d
	}
	e.Overwrite = raw.Overwrite
	e.DryRun = raw.DryRun
	return nil
}

func New() *Config {
	return &Config{
		Source: Source{
			GitLabBase: "https://gitlab.com",
		},
		Checkout: Checkout{
			CloneTimeout: 15 * time.Minute,
		},
		Discovery: Discovery{
			MarkerFile: "metadata.rb",
			MarkerDirs: []string{"recipes", "resources"},
			MaxDepth:   6,
		},
		Extraction: Extraction{
			Timeout: 10 * time.Minute,
		},
		Runtime: Runtime{
			Concurrency: 8,
		},
	}
}

// Load reads a YAML config file on top of the defaults, expanding ${ENV_VAR}
// references in token fields and resolving token file paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Source.GitLabToken = resolveToken(cfg.Source.GitLabToken)
	cfg.Source.GitHubToken = resolveToken(cfg.Source.GitHubToken)
	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		return strings.TrimSpace(string(data))
	}

	return resolved
}

func (c *Config) Validate() error {
	// Source validation: exactly one input mode.
	modes := 0
	if strings.TrimSpace(c.Source.ReposFile) != "" {
		modes++
	}
	if strings.TrimSpace(c.Source.GroupPath) != "" {
		modes++
	}
	if strings.TrimSpace(c.Source.GitHubOrg) != "" {
		modes++
	}
	if modes == 0 {
		return errors.New("one of --repos-file, --group-path, or --github-org must be provided")
	}
	if modes > 1 {
		return errors.New("--repos-file, --group-path, and --github-org are mutually exclusive")
	}

	if c.Source.GitLabBase == "" {
		c.Source.GitLabBase = "https://gitlab.com"
	}
	c.Source.GitLabBase = strings.TrimRight(c.Source.GitLabBase, "/")

	if c.Output.Dir == "" {
		return errors.New("--out-dir is required")
	}
	if c.Checkout.WorkDir == "" {
		return errors.New("--work-dir is required")
	}
	if c.Extraction.Extractor == "" {
		return errors.New("--extractor is required")
	}

	if c.Discovery.MarkerFile == "" {
		c.Discovery.MarkerFile = "metadata.rb"
	}
	if len(c.Discovery.MarkerDirs) == 0 {
		c.Discovery.MarkerDirs = []string{"recipes", "resources"}
	}
	if c.Discovery.MaxDepth <= 0 {
		return fmt.Errorf("--max-depth must be >= 1, got %d", c.Discovery.MaxDepth)
	}

	if c.Checkout.CloneTimeout <= 0 {
		return errors.New("--clone-timeout must be > 0")
	}
	if c.Extraction.Timeout <= 0 {
		return errors.New("--extract-timeout must be > 0")
	}

	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Limit < 0 {
		return errors.New("--limit must be >= 0")
	}

	return nil
}
