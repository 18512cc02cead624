package cli

import (
	"context"
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cookbatch/internal/config"
	"cookbatch/internal/flags"
	"cookbatch/internal/runner"
)

var (
	cfg     = config.New()
	cfgFile string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a batch of Git repositories",
	Long: `Process a batch of Git repositories: clone, discover cookbooks, extract.

Repositories come from exactly one of three sources:
  --repos-file   text file with one clone URL per line
  --group-path   GitLab group (paginated API discovery; --include-subgroups optional)
  --github-org   GitHub organization

Authentication:
  GitLab API discovery uses GITLAB_TOKEN; GitHub discovery uses GITHUB_TOKEN.
  Tokens may also be supplied via --config (inline, ${ENV_VAR}, or file path).

Output:
  <out-dir>/manifest.jsonl   one JSON line per repo (done / no_cookbooks)
  <out-dir>/errors.jsonl     clone/fatal failures with reason
  <out-dir>/<host>/<namespace>/<project>/<commit>/<cookbook>.json

The exit status reports whether the run executed to completion; per-repo
failures are expected, recorded outcomes, not run failures.

Examples:
  # From a GitLab group
  export GITLAB_TOKEN=glpat_xxx
  cookbatch run --gitlab-base https://gitlab.example.com \
    --group-path my-dept/chef-cookbooks --include-subgroups \
    --out-dir out --work-dir work --concurrency 24 --extractor ./extractor.py

  # From a text file of repos
  cookbatch run --repos-file repos.txt --out-dir out --work-dir work \
    --concurrency 16 --extractor ./extractor.py

  # List cookbooks only, extract nothing
  cookbatch run --repos-file repos.txt --out-dir out --work-dir work \
    --extractor ./extractor.py --dry-run`,
	Run: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			fileCfg, err := config.Load(cfgFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			mergeFlagOverrides(cmd, fileCfg, cfg)
			cfg = fileCfg
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		resolveEnvTokens(cfg)

		if err := runner.Run(context.Background(), cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// resolveEnvTokens fills API tokens from the environment when the config did
// not provide them. A remote source without a token only warns; anonymous
// API access may still work for public groups.
func resolveEnvTokens(cfg *config.Config) {
	if cfg.Source.GitLabToken == "" {
		cfg.Source.GitLabToken = os.Getenv("GITLAB_TOKEN")
	}
	if cfg.Source.GitHubToken == "" {
		cfg.Source.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.Source.GroupPath != "" && cfg.Source.GitLabToken == "" {
		logger.Warn("GITLAB_TOKEN not set; public/anonymous API access may be limited.")
	}
	if cfg.Source.GitHubOrg != "" && cfg.Source.GitHubToken == "" {
		logger.Warn("GITHUB_TOKEN not set; public/anonymous API access may be limited.")
	}
}

// mergeFlagOverrides copies every explicitly-set flag value from flagCfg over
// dst, so CLI flags win over the config file.
func mergeFlagOverrides(cmd *cobra.Command, dst, flagCfg *config.Config) {
	set := cmd.Flags().Changed

	if set(flags.FlagReposFile) {
		dst.Source.ReposFile = flagCfg.Source.ReposFile
	}
	if set(flags.FlagGroupPath) {
		dst.Source.GroupPath = flagCfg.Source.GroupPath
	}
	if set(flags.FlagGitLabBase) {
		dst.Source.GitLabBase = flagCfg.Source.GitLabBase
	}
	if set(flags.FlagIncludeSubgroups) {
		dst.Source.IncludeSubgroups = flagCfg.Source.IncludeSubgroups
	}
	if set(flags.FlagGitHubOrg) {
		dst.Source.GitHubOrg = flagCfg.Source.GitHubOrg
	}
	if set(flags.FlagWorkDir) {
		dst.Checkout.WorkDir = flagCfg.Checkout.WorkDir
	}
	if set(flags.FlagBranch) {
		dst.Checkout.Branch = flagCfg.Checkout.Branch
	}
	if set(flags.FlagCloneTimeout) {
		dst.Checkout.CloneTimeout = flagCfg.Checkout.CloneTimeout
	}
	if set(flags.FlagMaxDepth) {
		dst.Discovery.MaxDepth = flagCfg.Discovery.MaxDepth
	}
	if set(flags.FlagExtractor) {
		dst.Extraction.Extractor = flagCfg.Extraction.Extractor
	}
	if set(flags.FlagExtractTimeout) {
		dst.Extraction.Timeout = flagCfg.Extraction.Timeout
	}
	if set(flags.FlagOverwrite) {
		dst.Extraction.Overwrite = flagCfg.Extraction.Overwrite
	}
	if set(flags.FlagDryRun) {
		dst.Extraction.DryRun = flagCfg.Extraction.DryRun
	}
	if set(flags.FlagOutDir) {
		dst.Output.Dir = flagCfg.Output.Dir
	}
	if set(flags.FlagConcurrency) {
		dst.Runtime.Concurrency = flagCfg.Runtime.Concurrency
	}
	if set(flags.FlagLimit) {
		dst.Runtime.Limit = flagCfg.Runtime.Limit
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	// MAINTAINER NOTE: If you add/change/remove any run-affecting flags here,
	// keep mergeFlagOverrides above and internal/config in sync.

	// Source
	runCmd.Flags().StringVar(&cfg.Source.ReposFile, flags.FlagReposFile, "", "Text file with one Git clone URL per line")
	runCmd.Flags().StringVar(&cfg.Source.GroupPath, flags.FlagGroupPath, "", "GitLab group path to enumerate (e.g. team/platform)")
	runCmd.Flags().StringVar(&cfg.Source.GitLabBase, flags.FlagGitLabBase, cfg.Source.GitLabBase, "GitLab base URL")
	runCmd.Flags().BoolVar(&cfg.Source.IncludeSubgroups, flags.FlagIncludeSubgroups, false, "Include subgroups when using --group-path")
	runCmd.Flags().StringVar(&cfg.Source.GitHubOrg, flags.FlagGitHubOrg, "", "GitHub organization to enumerate")

	// Checkout
	runCmd.Flags().StringVar(&cfg.Checkout.WorkDir, flags.FlagWorkDir, "", "Directory to clone repositories into (reusable across runs)")
	runCmd.Flags().StringVar(&cfg.Checkout.Branch, flags.FlagBranch, "", "Git branch to clone (default: the remote's default branch)")
	runCmd.Flags().DurationVar(&cfg.Checkout.CloneTimeout, flags.FlagCloneTimeout, cfg.Checkout.CloneTimeout, "Timeout per git clone/fetch call")

	// Discovery
	runCmd.Flags().IntVar(&cfg.Discovery.MaxDepth, flags.FlagMaxDepth, cfg.Discovery.MaxDepth, "Maximum path depth when searching for cookbooks")

	// Extraction
	runCmd.Flags().StringVar(&cfg.Extraction.Extractor, flags.FlagExtractor, "", "Path to the single-cookbook extractor executable")
	runCmd.Flags().DurationVar(&cfg.Extraction.Timeout, flags.FlagExtractTimeout, cfg.Extraction.Timeout, "Timeout per cookbook extraction")
	runCmd.Flags().BoolVar(&cfg.Extraction.Overwrite, flags.FlagOverwrite, false, "Overwrite existing outputs instead of skipping")
	runCmd.Flags().BoolVar(&cfg.Extraction.DryRun, flags.FlagDryRun, false, "Do not run the extractor; just list discovered cookbooks")

	// Output
	runCmd.Flags().StringVar(&cfg.Output.Dir, flags.FlagOutDir, "", "Directory for JSON outputs and logs")

	// Runtime
	runCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Number of repositories processed in parallel")
	runCmd.Flags().IntVar(&cfg.Runtime.Limit, flags.FlagLimit, 0, "Process only the first N repos (0 = no limit)")

	// Misc
	runCmd.Flags().StringVar(&cfgFile, flags.FlagConfig, "", "YAML config file (explicit flags override file values)")
}
