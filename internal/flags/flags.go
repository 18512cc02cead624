// Package flags defines canonical CLI flag names shared across the CLI and
// runner. Keeping these as constants avoids drift between Cobra flag wiring
// and code paths that reference flags by name (e.g. config-file overrides).
package flags

// Flag names, without leading dashes.
const (
	// Source
	FlagReposFile        = "repos-file"
	FlagGroupPath        = "group-path"
	FlagGitLabBase       = "gitlab-base"
	FlagIncludeSubgroups = "include-subgroups"
	FlagGitHubOrg        = "github-org"

	// Checkout
	FlagWorkDir      = "work-dir"
	FlagBranch       = "branch"
	FlagCloneTimeout = "clone-timeout"

	// Discovery
	FlagMaxDepth = "max-depth"

	// Extraction
	FlagExtractor      = "extractor"
	FlagExtractTimeout = "extract-timeout"
	FlagOverwrite      = "overwrite"
	FlagDryRun         = "dry-run"

	// Output
	FlagOutDir = "out-dir"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagLimit       = "limit"

	// Misc
	FlagConfig = "config"
)
