package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gogithub "github.com/google/go-github/v57/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// Client queries the GitHub GraphQL API for one user's contribution
// activity. "Today" is always evaluated in loc, never the host timezone.
type Client struct {
	v4  *githubv4.Client
	loc *time.Location
}

// NewClient builds a client authenticated with the given token.
func NewClient(token string, loc *time.Location) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	return &Client{
		v4:  githubv4.NewClient(tc),
		loc: loc,
	}
}

// NewClientForEndpoint is like NewClient but targets a custom GraphQL
// endpoint. Used by tests.
func NewClientForEndpoint(url string, httpClient *http.Client, loc *time.Location) *Client {
	return &Client{
		v4:  githubv4.NewEnterpriseClient(url, httpClient),
		loc: loc,
	}
}

// ValidateToken checks a token against the REST API and returns the login
// it authenticates as.
func ValidateToken(ctx context.Context, token string) (string, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := gogithub.NewClient(tc)

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to validate token: %v", err)
	}
	return user.GetLogin(), nil
}
