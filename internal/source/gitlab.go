package source

import (
	"context"
	"fmt"

	gl "gitlab.com/gitlab-org/api/client-go"
)

const gitlabPerPage = 100

// GitLabOptions scopes a paginated project enumeration to one GitLab group.
type GitLabOptions struct {
	BaseURL          string
	Token            string
	GroupPath        string
	IncludeSubgroups bool
}

// FromGitLabGroup lists all projects under a group, optionally including
// nested subgroups. Pagination ends on the first empty page. Each project's
// HTTPS clone URL is preferred; the SSH URL is a fallback when the project
// does not expose one.
func FromGitLabGroup(ctx context.Context, opts GitLabOptions) ([]Ref, error) {
	var clientOpts []gl.ClientOptionFunc
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, gl.WithBaseURL(opts.BaseURL))
	}
	client, err := gl.NewClient(opts.Token, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}
	return listGroupProjects(ctx, client, opts.GroupPath, opts.IncludeSubgroups)
}

func listGroupProjects(ctx context.Context, client *gl.Client, group string, includeSubgroups bool) ([]Ref, error) {
	listOpts := &gl.ListGroupProjectsOptions{
		ListOptions:      gl.ListOptions{PerPage: gitlabPerPage, Page: 1},
		IncludeSubGroups: gl.Ptr(includeSubgroups),
		Simple:           gl.Ptr(true),
		Archived:         gl.Ptr(false),
		WithShared:       gl.Ptr(false),
		OrderBy:          gl.Ptr("path"),
		Sort:             gl.Ptr("asc"),
	}

	var refs []Ref
	for {
		projects, resp, err := client.Groups.ListGroupProjects(group, listOpts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list projects of group %q: %w", group, err)
		}
		if len(projects) == 0 {
			break
		}
		for _, proj := range projects {
			url := proj.HTTPURLToRepo
			if url == "" {
				url = proj.SSHURLToRepo
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
