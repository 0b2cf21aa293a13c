package ticket

import (
	"context"
	"sync"

	"github.com/matiasleandrokruk/relengjira/internal/infra/config"
	"github.com/matiasleandrokruk/relengjira/internal/infra/jira"
)

// Tracker is the remote ticketing contract the service depends on.
// *jira.Client satisfies it.
type Tracker interface {
	CreateIssue(ctx context.Context, fields map[string]any) (*jira.CreatedIssue, error)
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]jira.Issue, error)
}

// TrackerSource hands out the Tracker a call should use.
type TrackerSource interface {
	Tracker() (Tracker, error)
}

// Connector builds a Tracker from credentials. It must not perform I/O.
type Connector func(creds config.JiraCredentials) Tracker

// Bootstrap resolves credentials and builds the Tracker on first use, then
// keeps returning the same one. A failed attempt leaves nothing cached, so
// the next call re-reads the environment.
type Bootstrap struct {
	mu          sync.Mutex
	credentials func() (config.JiraCredentials, error)
	connect     Connector
	tracker     Tracker
}

// NewBootstrap returns a Bootstrap that talks to the Jira Cloud site with
// credentials from JIRA_USERNAME and JIRA_TOKEN.
func NewBootstrap() *Bootstrap {
	return NewBootstrapWith(config.LoadJiraCredentials, func(creds config.JiraCredentials) Tracker {
		return jira.NewClient(jira.BaseURL, creds.Username, creds.Token)
	})
}

// NewBootstrapWith wires custom credential lookup and construction.
func NewBootstrapWith(credentials func() (config.JiraCredentials, error), connect Connector) *Bootstrap {
	return &Bootstrap{credentials: credentials, connect: connect}
}

// Tracker returns the cached Tracker, building it if needed.
// Missing credentials yield a *config.ConfigurationError.
func (b *Bootstrap) Tracker() (Tracker, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tracker != nil {
		return b.tracker, nil
	}
	creds, err := b.credentials()
	if err != nil {
		return nil, err
	}
	b.tracker = b.connect(creds)
	return b.tracker, nil
}
