package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/matiasleandrokruk/relengjira/internal/domain/ticket"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ToolAdd                    = "add"
	ToolCreatePromotion        = "create_releng_promotion_ticket"
	ToolSearchIssues           = "search_jira_issues"
	ToolSearchIssuesByAssignee = "search_jira_by_assignee"
)

const mustAsk = " - MUST be provided by user, do not assume"

// Tickets is the facade the tools forward to. *ticket.Service satisfies it.
type Tickets interface {
	CreatePromotionTicket(ctx context.Context, req ticket.PromotionRequest) (string, error)
	SearchBySummary(ctx context.Context, in ticket.SummarySearch) ([]ticket.SearchResult, error)
	SearchByAssignee(ctx context.Context, in ticket.AssigneeSearch) ([]ticket.SearchResult, error)
}

// ─── tool inputs / outputs ─────────────────────────────────────────────────

type AddInput struct {
	A int `json:"a" jsonschema:"first addend"`
	B int `json:"b" jsonschema:"second addend"`
}

type AddOutput struct {
	Result int `json:"result"`
}

type PromotionInput struct {
	Product        string `json:"product" jsonschema:"the product name, one of CDSW / MODEL-REGISTRY / CML-SERVING - MUST be provided by user, do not assume"`
	Build          string `json:"build" jsonschema:"the build identifier, e.g. 2.0.53-b125 - MUST be provided by user, do not assume"`
	TargetRegistry string `json:"target_registry" jsonschema:"the target registry, Stage or Prod - MUST be provided by user, do not assume"`
}

type ProductPromotionInput struct {
	Build          string `json:"build" jsonschema:"the build identifier, e.g. 2.0.53-b125 - MUST be provided by user, do not assume"`
	TargetRegistry string `json:"target_registry" jsonschema:"the target registry, Stage or Prod - MUST be provided by user, do not assume"`
}

type PromotionOutput struct {
	Key string `json:"key"`
}

type SearchIssuesInput struct {
	SearchString string `json:"search_string" jsonschema:"the text to search for in issue summaries"`
	ProjectKey   string `json:"project_key,omitempty" jsonschema:"limit the search to one project"`
	MaxResults   int    `json:"max_results,omitempty" jsonschema:"maximum number of issues to return, default 50"`
}

type SearchByAssigneeInput struct {
	Assignee        string `json:"assignee" jsonschema:"the assignee, an @cloudera.com email address or an Atlassian account id"`
	SummaryContains string `json:"summary_contains,omitempty" jsonschema:"only issues whose summary contains this text"`
	ProjectKey      string `json:"project_key,omitempty" jsonschema:"limit the search to one project"`
	MaxResults      int    `json:"max_results,omitempty" jsonschema:"maximum number of issues to return, default 50"`
}

type SearchOutput struct {
	Issues []ticket.SearchResult `json:"issues"`
}

// ─── registration ──────────────────────────────────────────────────────────

type toolset struct {
	tickets Tickets
	logger  *slog.Logger
}

func registerTools(s *mcp.Server, ts *toolset, products []ticket.Product) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        ToolAdd,
		Description: "Add two numbers",
	}, logged(ts.logger, ToolAdd, ts.add))

	mcp.AddTool(s, &mcp.Tool{
		Name: ToolCreatePromotion,
		Description: fmt.Sprintf("Create a releng promotion ticket in Jira. product accepts only %s%s. Returns the created ticket key.",
			strings.Join(ticket.ProductNames(products), " / "), mustAsk),
	}, logged(ts.logger, ToolCreatePromotion, ts.createPromotion))

	for _, p := range products {
		name := p.ToolName()
		mcp.AddTool(s, &mcp.Tool{
			Name:        name,
			Description: fmt.Sprintf("Create a releng promotion ticket in Jira to promote %s builds (%s). Returns the created ticket key.", p.Name, p.Description),
		}, logged(ts.logger, name, ts.createProductPromotion(p.Name)))
	}

	mcp.AddTool(s, &mcp.Tool{
		Name:        ToolSearchIssues,
		Description: "Search Jira issues by summary string. Returns key, summary, status, assignee and url for each match.",
	}, logged(ts.logger, ToolSearchIssues, ts.searchIssues))

	mcp.AddTool(s, &mcp.Tool{
		Name:        ToolSearchIssuesByAssignee,
		Description: "Search Jira issues by assignee, optionally narrowed by summary text and project.",
	}, logged(ts.logger, ToolSearchIssuesByAssignee, ts.searchByAssignee))
}

// ─── handlers ──────────────────────────────────────────────────────────────

func (ts *toolset) add(_ context.Context, _ *mcp.CallToolRequest, in AddInput) (*mcp.CallToolResult, AddOutput, error) {
	return nil, AddOutput{Result: in.A + in.B}, nil
}

func (ts *toolset) createPromotion(ctx context.Context, _ *mcp.CallToolRequest, in PromotionInput) (*mcp.CallToolResult, PromotionOutput, error) {
	return ts.promote(ctx, ticket.PromotionRequest{
		Product:        in.Product,
		Build:          in.Build,
		TargetRegistry: in.TargetRegistry,
	})
}

func (ts *toolset) createProductPromotion(product string) mcp.ToolHandlerFor[ProductPromotionInput, PromotionOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ProductPromotionInput) (*mcp.CallToolResult, PromotionOutput, error) {
		return ts.promote(ctx, ticket.PromotionRequest{
			Product:        product,
			Build:          in.Build,
			TargetRegistry: in.TargetRegistry,
		})
	}
}

func (ts *toolset) promote(ctx context.Context, req ticket.PromotionRequest) (*mcp.CallToolResult, PromotionOutput, error) {
	key, err := ts.tickets.CreatePromotionTicket(ctx, req)
	if err != nil {
		return nil, PromotionOutput{}, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Promotion ticket created: " + key}},
	}, PromotionOutput{Key: key}, nil
}

func (ts *toolset) searchIssues(ctx context.Context, _ *mcp.CallToolRequest, in SearchIssuesInput) (*mcp.CallToolResult, SearchOutput, error) {
	issues, err := ts.tickets.SearchBySummary(ctx, ticket.SummarySearch{
		Text:       in.SearchString,
		ProjectKey: in.ProjectKey,
		MaxResults: in.MaxResults,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Issues: issues}, nil
}

func (ts *toolset) searchByAssignee(ctx context.Context, _ *mcp.CallToolRequest, in SearchByAssigneeInput) (*mcp.CallToolResult, SearchOutput, error) {
	issues, err := ts.tickets.SearchByAssignee(ctx, ticket.AssigneeSearch{
		Assignee:        in.Assignee,
		SummaryContains: in.SummaryContains,
		ProjectKey:      in.ProjectKey,
		MaxResults:      in.MaxResults,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Issues: issues}, nil
}

// logged records the name, duration and outcome of every call.
func logged[In, Out any](logger *slog.Logger, name string, h mcp.ToolHandlerFor[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		start := time.Now()
		res, out, err := h(ctx, req, in)
		if err != nil {
			logger.ErrorContext(ctx, "tool call failed", "tool", name, "duration", time.Since(start), "error", err)
			return res, out, err
		}
		logger.InfoContext(ctx, "tool call", "tool", name, "duration", time.Since(start))
		return res, out, nil
	}
}
