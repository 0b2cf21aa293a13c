// Package ticket turns tool arguments into Jira requests and Jira issues
// into flat search results.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/matiasleandrokruk/relengjira/internal/domain/jql"
	"github.com/matiasleandrokruk/relengjira/internal/infra/jira"
)

// DefaultMaxResults caps a search when the caller gives no limit.
const DefaultMaxResults = 50

var ErrInvalidArgument = errors.New("invalid argument")

// SearchResult is the normalized view of one remote issue.
type SearchResult struct {
	Key      string  `json:"key"`
	Summary  string  `json:"summary"`
	Status   string  `json:"status"`
	Assignee *string `json:"assignee"`
	URL      string  `json:"url"`
}

// SummarySearch finds issues whose summary contains Text.
type SummarySearch struct {
	Text       string
	ProjectKey string
	MaxResults int
}

// AssigneeSearch finds issues assigned to Assignee.
type AssigneeSearch struct {
	Assignee        string
	SummaryContains string
	ProjectKey      string
	MaxResults      int
}

// Service is the ticket operations facade.
type Service struct {
	source TrackerSource
	logger *slog.Logger
	fields FieldIDs
}

// NewService returns a Service drawing its Tracker from source.
// A nil logger falls back to slog.Default().
func NewService(source TrackerSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger, fields: DefaultFieldIDs()}
}

// WithFieldIDs sets the custom field ids promotion tickets are created with.
func (s *Service) WithFieldIDs(ids FieldIDs) *Service {
	s.fields = ids
	return s
}

// CreatePromotionTicket files one promotion ticket and returns its key.
// Every call creates a new ticket.
func (s *Service) CreatePromotionTicket(ctx context.Context, req PromotionRequest) (string, error) {
	fields := NewPromotionFields(req)
	if err := fields.Validate(); err != nil {
		return "", err
	}

	tracker, err := s.source.Tracker()
	if err != nil {
		return "", err
	}

	payload := fields.Payload(s.fields)
	s.logger.DebugContext(ctx, "creating promotion ticket", "fields", payload)

	created, err := tracker.CreateIssue(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("create promotion ticket for %s %s: %w", fields.Product, fields.BuildIdentifier, err)
	}

	s.logger.InfoContext(ctx, "promotion ticket created",
		"product", fields.Product,
		"build", fields.BuildIdentifier,
		"release_config", fields.ReleaseConfig,
		"ticket", created.Key,
	)
	return created.Key, nil
}

// SummaryQuery builds `[project = K AND ]summary ~ "text"`.
func SummaryQuery(in SummarySearch) jql.Query {
	q := jql.And(jql.SummaryContains(in.Text))
	if key := strings.TrimSpace(in.ProjectKey); key != "" {
		q = q.Prepend(jql.Project(key))
	}
	return q
}

// AssigneeQuery builds `[project = K AND ]assignee = "u"[ AND summary ~ "t"]`.
func AssigneeQuery(in AssigneeSearch) jql.Query {
	q := jql.And(jql.Assignee(in.Assignee))
	if text := strings.TrimSpace(in.SummaryContains); text != "" {
		q = q.Append(jql.SummaryContains(text))
	}
	if key := strings.TrimSpace(in.ProjectKey); key != "" {
		q = q.Prepend(jql.Project(key))
	}
	return q
}

// SearchBySummary runs a summary text search.
func (s *Service) SearchBySummary(ctx context.Context, in SummarySearch) ([]SearchResult, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: search string is required", ErrInvalidArgument)
	}
	return s.search(ctx, SummaryQuery(in), in.MaxResults)
}

// SearchByAssignee runs an assignee search, optionally narrowed by summary text.
func (s *Service) SearchByAssignee(ctx context.Context, in AssigneeSearch) ([]SearchResult, error) {
	if strings.TrimSpace(in.Assignee) == "" {
		return nil, fmt.Errorf("%w: assignee is required", ErrInvalidArgument)
	}
	return s.search(ctx, AssigneeQuery(in), in.MaxResults)
}

func (s *Service) search(ctx context.Context, q jql.Query, maxResults int) ([]SearchResult, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	tracker, err := s.source.Tracker()
	if err != nil {
		return nil, err
	}

	query := q.String()
	s.logger.DebugContext(ctx, "searching issues", "jql", query, "max_results", maxResults)

	issues, err := tracker.SearchIssues(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	out := make([]SearchResult, 0, len(issues))
	for _, issue := range issues {
		out = append(out, toSearchResult(issue))
	}
	return out, nil
}

func toSearchResult(issue jira.Issue) SearchResult {
	res := SearchResult{
		Key:     issue.Key,
		Summary: issue.Fields.Summary,
		URL:     jira.BrowseURL + issue.Key,
	}
	if issue.Fields.Status != nil {
		res.Status = issue.Fields.Status.Name
	}
	if a := issue.Fields.Assignee; a != nil {
		name := a.DisplayName
		res.Assignee = &name
	}
	return res
}
