package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"

	"github.com/google/go-github/v81/github"
)

func newTestGitHubClient(t *testing.T, mux *http.ServeMux) *github.Client {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	u, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("parse base URL: %v", err)
	}
	client.BaseURL = u
	return client
}

func TestListOrgRepos_PrefersCloneURLWithSSHFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":1,"name":"one","clone_url":"https://github.com/acme/one.git","ssh_url":"git@github.com:acme/one.git"},
			{"id":2,"name":"two","ssh_url":"git@github.com:acme/two.git"}
		]`)
	})

	refs, err := listOrgRepos(context.Background(), newTestGitHubClient(t, mux), "acme")
	if err != nil {
		t.Fatalf("listOrgRepos: %v", err)
	}

	want := []Ref{
		{URL: "https://github.com/acme/one.git"},
		{URL: "git@github.com:acme/two.git"},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Fatalf("refs = %v, want %v", refs, want)
	}
}

func TestListOrgRepos_EnumerationErrorIsFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	})

	if _, err := listOrgRepos(context.Background(), newTestGitHubClient(t, mux), "acme"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
