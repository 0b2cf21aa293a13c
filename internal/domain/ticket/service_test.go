package ticket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/matiasleandrokruk/relengjira/internal/infra/config"
	"github.com/matiasleandrokruk/relengjira/internal/infra/jira"
)

type fakeTracker struct {
	created    []map[string]any
	createKey  string
	createErr  error
	queries    []string
	maxResults []int
	issues     []jira.Issue
	searchErr  error
}

func (f *fakeTracker) CreateIssue(_ context.Context, fields map[string]any) (*jira.CreatedIssue, error) {
	f.created = append(f.created, fields)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &jira.CreatedIssue{Key: f.createKey}, nil
}

func (f *fakeTracker) SearchIssues(_ context.Context, jql string, maxResults int) ([]jira.Issue, error) {
	f.queries = append(f.queries, jql)
	f.maxResults = append(f.maxResults, maxResults)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.issues, nil
}

type staticSource struct {
	tracker Tracker
	err     error
}

func (s staticSource) Tracker() (Tracker, error) { return s.tracker, s.err }

func newTestService(tr Tracker) *Service {
	return NewService(staticSource{tracker: tr}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ===== CreatePromotionTicket =====

func TestService_CreatePromotionTicket_ReturnsKey(t *testing.T) {
	t.Parallel()

	tr := &fakeTracker{createKey: "RELENG-101"}
	key, err := newTestService(tr).CreatePromotionTicket(context.Background(), PromotionRequest{
		Product: "CDSW", Build: "2.0.53-b125", TargetRegistry: "Stage",
	})
	if err != nil {
		t.Fatalf("CreatePromotionTicket() error = %v", err)
	}
	if key != "RELENG-101" {
		t.Fatalf("key = %q; want RELENG-101", key)
	}
	if len(tr.created) != 1 {
		t.Fatalf("expected 1 create call, got %d", len(tr.created))
	}
	if tr.created[0][DefaultFieldIDs().ReleaseConfig] != "public_cloud_stage" {
		t.Fatalf("release config = %v", tr.created[0][DefaultFieldIDs().ReleaseConfig])
	}
}

func TestService_CreatePromotionTicket_NotDeduplicated(t *testing.T) {
	t.Parallel()

	tr := &fakeTracker{createKey: "RELENG-1"}
	svc := newTestService(tr)
	req := PromotionRequest{Product: "CML-SERVING", Build: "1.2.3", TargetRegistry: "Prod"}

	for i := 0; i < 2; i++ {
		if _, err := svc.CreatePromotionTicket(context.Background(), req); err != nil {
			t.Fatalf("call %d error = %v", i, err)
		}
	}
	if len(tr.created) != 2 {
		t.Fatalf("expected 2 create calls, got %d", len(tr.created))
	}
}

func TestService_CreatePromotionTicket_BlankBuild_NoRemoteCall(t *testing.T) {
	t.Parallel()

	tr := &fakeTracker{createKey: "X-1"}
	_, err := newTestService(tr).CreatePromotionTicket(context.Background(), PromotionRequest{Product: "CDSW", Build: " "})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(tr.created) != 0 {
		t.Fatalf("expected no create call, got %d", len(tr.created))
	}
}

func TestService_CreatePromotionTicket_RemoteErrorPropagates(t *testing.T) {
	t.Parallel()

	remote := &jira.RemoteServiceError{Op: "create issue", StatusCode: 400, Messages: []string{"Component not found"}}
	tr := &fakeTracker{createErr: remote}
	_, err := newTestService(tr).CreatePromotionTicket(context.Background(), PromotionRequest{Product: "CDSW", Build: "1"})

	var rse *jira.RemoteServiceError
	if !errors.As(err, &rse) {
		t.Fatalf("expected *jira.RemoteServiceError, got %v", err)
	}
	if rse != remote {
		t.Fatal("remote error was replaced instead of wrapped")
	}
}

func TestService_CreatePromotionTicket_ConfigurationErrorPropagates(t *testing.T) {
	t.Parallel()

	svc := NewService(staticSource{err: &config.ConfigurationError{Key: config.EnvJiraToken}}, nil)
	_, err := svc.CreatePromotionTicket(context.Background(), PromotionRequest{Product: "CDSW", Build: "1"})

	var cfgErr *config.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *config.ConfigurationError, got %v", err)
	}
}

// ===== Query construction =====

func TestSummaryQuery(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   SummarySearch
		want string
	}{
		{name: "with project", in: SummarySearch{Text: "login bug", ProjectKey: "ABC"}, want: `project = ABC AND summary ~ "login bug"`},
		{name: "without project", in: SummarySearch{Text: "login bug"}, want: `summary ~ "login bug"`},
		{name: "quote in text", in: SummarySearch{Text: `a"b`}, want: `summary ~ "a\"b"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := SummaryQuery(tc.in).String(); got != tc.want {
				t.Fatalf("SummaryQuery() = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestAssigneeQuery(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   AssigneeSearch
		want string
	}{
		{name: "with project", in: AssigneeSearch{Assignee: "a@cloudera.com", ProjectKey: "ABC"}, want: `project = ABC AND assignee = "a@cloudera.com"`},
		{name: "assignee only", in: AssigneeSearch{Assignee: "a@cloudera.com"}, want: `assignee = "a@cloudera.com"`},
		{name: "all filters", in: AssigneeSearch{Assignee: "u1", SummaryContains: "flaky", ProjectKey: "DSE"}, want: `project = DSE AND assignee = "u1" AND summary ~ "flaky"`},
		{name: "summary without project", in: AssigneeSearch{Assignee: "u1", SummaryContains: "flaky"}, want: `assignee = "u1" AND summary ~ "flaky"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := AssigneeQuery(tc.in).String(); got != tc.want {
				t.Fatalf("AssigneeQuery() = %q; want %q", got, tc.want)
			}
		})
	}
}

// ===== Search =====

func sampleIssues() []jira.Issue {
	return []jira.Issue{
		{Key: "ABC-2", Fields: jira.IssueFields{Summary: "login bug", Status: &jira.Status{Name: "Open"}, Assignee: &jira.User{DisplayName: "Ada Lovelace"}}},
		{Key: "ABC-1", Fields: jira.IssueFields{Summary: "login bug again", Status: &jira.Status{Name: "Done"}}},
	}
}

func TestService_SearchBySummary_MapsResults(t *testing.T) {
	t.Parallel()

	tr := &fakeTracker{issues: sampleIssues()}
	got, err := newTestService(tr).SearchBySummary(context.Background(), SummarySearch{Text: "login bug", ProjectKey: "ABC"})
	if err != nil {
		t.Fatalf("SearchBySummary() error = %v", err)
	}
	if tr.queries[0] != `project = ABC AND summary ~ "login bug"` {
		t.Fatalf("query = %q", tr.queries[0])
	}
	if tr.maxResults[0] != DefaultMaxResults {
		t.Fatalf("maxResults = %d; want %d", tr.maxResults[0], DefaultMaxResults)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Key != "ABC-2" || got[1].Key != "ABC-1" {
		t.Fatalf("remote order not preserved: %s, %s", got[0].Key, got[1].Key)
	}
	if got[0].Assignee == nil || *got[0].Assignee != "Ada Lovelace" {
		t.Fatalf("assignee = %v", got[0].Assignee)
	}
	if got[0].Status != "Open" {
		t.Fatalf("status = %q", got[0].Status)
	}
}

func TestService_SearchBySummary_UnassignedIsNil(t *testing.T) {
	t.Parallel()

	tr := &fakeTracker{issues: sampleIssues()}
	got, err := newTestService(tr).SearchBySummary(context.Background(), SummarySearch{Text: "login"})
	if err != nil {
		t.Fatalf("SearchBySummary() error = %v", err)
	}
	if got[1].Assignee != nil {
		t.Fatalf("expected nil assignee, got %q", *got[1].Assignee)
	}
}

func TestService_SearchResultURL(t *testing.T) {
	t.Parallel()

	keys := []string{"ABC-1", "RELENG-99999", "X-0"}
	issues := make([]jira.Issue, len(keys))
	for i, k := range keys {
		issues[i] = jira.Issue{Key: k}
	}
	got, err := newTestService(&fakeTracker{issues: issues}).SearchBySummary(context.Background(), SummarySearch{Text: "x"})
	if err != nil {
		t.Fatalf("SearchBySummary() error = %v", err)
	}
	for i, k := range keys {
		if want := "https://cloudera.atlassian.net/browse/" + k; got[i].URL != want {
			t.Errorf("URL = %q; want %q", got[i].URL, want)
		}
	}
}

func TestService_SearchBySummary_CustomMax(t *testing.T) {
	t.Parallel()

	tr := &fakeTracker{}
	if _, err := newTestService(tr).SearchBySummary(context.Background(), SummarySearch{Text: "x", MaxResults: 7}); err != nil {
		t.Fatalf("SearchBySummary() error = %v", err)
	}
	if tr.maxResults[0] != 7 {
		t.Fatalf("maxResults = %d; want 7", tr.maxResults[0])
	}
}

func TestService_SearchBySummary_BlankText(t *testing.T) {
	t.Parallel()

	tr := &fakeTracker{}
	_, err := newTestService(tr).SearchBySummary(context.Background(), SummarySearch{Text: "  "})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(tr.queries) != 0 {
		t.Fatal("no search should be sent for blank text")
	}
}

func TestService_SearchByAssignee(t *testing.T) {
	t.Parallel()

	tr := &fakeTracker{issues: sampleIssues()}
	got, err := newTestService(tr).SearchByAssignee(context.Background(), AssigneeSearch{Assignee: "a@cloudera.com", ProjectKey: "ABC"})
	if err != nil {
		t.Fatalf("SearchByAssignee() error = %v", err)
	}
	if tr.queries[0] != `project = ABC AND assignee = "a@cloudera.com"` {
		t.Fatalf("query = %q", tr.queries[0])
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
}

func TestService_SearchByAssignee_BlankAssignee(t *testing.T) {
	t.Parallel()

	_, err := newTestService(&fakeTracker{}).SearchByAssignee(context.Background(), AssigneeSearch{})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestService_Search_RemoteErrorPropagates(t *testing.T) {
	t.Parallel()

	tr := &fakeTracker{searchErr: &jira.RemoteServiceError{Op: "search", StatusCode: 400}}
	_, err := newTestService(tr).SearchByAssignee(context.Background(), AssigneeSearch{Assignee: "u"})
	var rse *jira.RemoteServiceError
	if !errors.As(err, &rse) {
		t.Fatalf("expected *jira.RemoteServiceError, got %v", err)
	}
}

func TestService_WithFieldIDs_KeysPayload(t *testing.T) {
	t.Parallel()

	ids := FieldIDs{
		BuildIdentifier: "customfield_1",
		Product:         "customfield_2",
		ReleaseType:     "customfield_3",
		PublicCloud:     "customfield_4",
		ReleaseConfig:   "customfield_5",
	}
	tr := &fakeTracker{createKey: "RELENG-9"}
	svc := newTestService(tr).WithFieldIDs(ids)
	if _, err := svc.CreatePromotionTicket(context.Background(), PromotionRequest{
		Product: "CDSW", Build: "2.0.53-b125", TargetRegistry: "Prod",
	}); err != nil {
		t.Fatalf("CreatePromotionTicket() error = %v", err)
	}

	got := tr.created[0]
	if got["customfield_2"] != "CDSW" || got["customfield_5"] != "public_cloud_prod" {
		t.Fatalf("payload = %v", got)
	}
	if _, ok := got[DefaultFieldIDs().Product]; ok {
		t.Fatal("payload still keyed by the embedded field ids")
	}
}
