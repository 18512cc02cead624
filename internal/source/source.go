// Package source produces the ordered list of repositories to process, from
// a static repos file, a GitLab group, or a GitHub organization.
package source

import (
	"context"
	"fmt"

	"cookbatch/internal/config"
)

// Ref identifies one repository to process: its clone URL plus an optional
// branch override. Refs are immutable and consumed once per run.
type Ref struct {
	URL    string
	Branch string
}

// Resolve builds the repository list for the configured input mode. Any
// enumeration error is fatal to the whole run: the list is the one stage
// that cannot be partially recovered.
func Resolve(ctx context.Context, cfg *config.Config) ([]Ref, error) {
	var (
		refs []Ref
		err  error
	)

	switch {
	case cfg.Source.ReposFile != "":
		refs, err = FromFile(cfg.Source.ReposFile)
	case cfg.Source.GroupPath != "":
		refs, err = FromGitLabGroup(ctx, GitLabOptions{
			BaseURL:          cfg.Source.GitLabBase,
			Token:            cfg.Source.GitLabToken,
			GroupPath:        cfg.Source.GroupPath,
			IncludeSubgroups: cfg.Source.IncludeSubgroups,
		})
	case cfg.Source.GitHubOrg != "":
		refs, err = FromGitHubOrg(ctx, GitHubOptions{
			Token: cfg.Source.GitHubToken,
			Org:   cfg.Source.GitHubOrg,
		})
	default:
		err = fmt.Errorf("no repository source configured")
	}
	if err != nil {
		return nil, err
	}

	if cfg.Checkout.Branch != "" {
		for i := range refs {
			refs[i].Branch = cfg.Checkout.Branch
		}
	}
	return refs, nil
}
