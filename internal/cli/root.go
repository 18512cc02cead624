package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cookbatch",
	Short: "Bulk-run the Chef cookbook facts extractor across many Git repositories",
	Long: `Cookbatch orchestrates the single-cookbook facts extractor across many Git
repositories: it shallow-clones each repository, discovers cookbook roots
(directories with metadata.rb and recipes/ or resources/), runs the extractor
per cookbook, and writes one JSON artifact per cookbook plus per-repo JSONL
logs.

Runs are idempotent and resumable: cookbooks whose output already exists are
skipped unless --overwrite is set, so rerunning after a partial failure only
redoes the missing work.

Examples:
	# Show available commands and global flags
	cookbatch --help

	# Process every project of a GitLab group
	cookbatch run --group-path my-dept/chef-cookbooks --include-subgroups \
	  --out-dir out --work-dir work --extractor ./extractor.py

	# Print build info
	cookbatch version`,
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
