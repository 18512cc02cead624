package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

// GitHubOptions scopes a paginated repository enumeration to one GitHub
// organization.
type GitHubOptions struct {
	Token string
	Org   string
}

// FromGitHubOrg lists an organization's repositories and returns their HTTPS
// clone URLs (SSH as fallback).
func FromGitHubOrg(ctx context.Context, opts GitHubOptions) ([]Ref, error) {
	return listOrgRepos(ctx, newGitHubClient(opts.Token), opts.Org)
}

func newGitHubClient(token string) *github.Client {
	transport := http.DefaultTransport
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	return github.NewClient(&http.Client{Transport: transport})
}

func listOrgRepos(ctx context.Context, client *github.Client, org string) ([]Ref, error) {
	listOpts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var refs []Ref
	for {
		repos, resp, err := client.Repositories.ListByOrg(ctx, org, listOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repos of org %q: %w", org, err)
		}
		for _, repo := range repos {
			url := repo.GetCloneURL()
			if url == "" {
				url = repo.GetSSHURL()
			}
			if url == "" {
				continue
			}
			refs = append(refs, Ref{URL: url})
		}
		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}
	return refs, nil
}
