package ticket

import (
	"fmt"
	"strings"
)

// Registry is the image registry a build is promoted to.
type Registry string

const (
	RegistryStage Registry = "Stage"
	RegistryProd  Registry = "Prod"
)

// ReleaseConfig selects the downstream automation profile for a promotion.
type ReleaseConfig string

const (
	ReleaseConfigStage ReleaseConfig = "public_cloud_stage"
	ReleaseConfigProd  ReleaseConfig = "public_cloud_prod"
)

// Fixed routing of promotion tickets.
const (
	PromotionProject   = "RELENG"
	PromotionIssueType = "Release"
	PromotionComponent = "Releasing"
	SummaryPrefix      = "[RELENG-MCP] "
	publicCloudValue   = "True"
)

// PromotionRequest asks release engineering to push a build's images.
type PromotionRequest struct {
	Product        string
	Build          string
	TargetRegistry string
}

// Registry resolves the target. Only the exact value "Prod" selects
// production; anything else is treated as stage.
func (r PromotionRequest) Registry() Registry {
	if Registry(r.TargetRegistry) == RegistryProd {
		return RegistryProd
	}
	return RegistryStage
}

// ReleaseConfig returns the selector matching the resolved registry.
func (r PromotionRequest) ReleaseConfig() ReleaseConfig {
	if r.Registry() == RegistryProd {
		return ReleaseConfigProd
	}
	return ReleaseConfigStage
}

// PromotionFields is every field a promotion ticket is created with.
type PromotionFields struct {
	Project         string
	IssueType       string
	Components      []string
	Summary         string
	Description     string
	BuildIdentifier string
	Product         string
	ReleaseType     string
	PublicCloud     string
	ReleaseConfig   ReleaseConfig
}

// NewPromotionFields derives the ticket fields from r. It is a pure function
// of its input.
func NewPromotionFields(r PromotionRequest) PromotionFields {
	product := strings.TrimSpace(r.Product)
	build := strings.TrimSpace(r.Build)
	registry := strings.ToLower(string(r.Registry()))

	return PromotionFields{
		Project:    PromotionProject,
		IssueType:  PromotionIssueType,
		Components: []string{PromotionComponent},
		Summary:    fmt.Sprintf("%sPlease push %s %s images to %s registry", SummaryPrefix, product, build, registry),
		Description: fmt.Sprintf(
			"We (CML) would like to promote our release to stage and prod asap. We'd like to request to start pushing the docker images.\n"+
				"Please push %s - %s to %s registry", product, build, registry),
		BuildIdentifier: build,
		Product:         product,
		ReleaseType:     r.TargetRegistry,
		PublicCloud:     publicCloudValue,
		ReleaseConfig:   r.ReleaseConfig(),
	}
}

// Validate rejects payloads Jira would refuse or misroute.
func (f PromotionFields) Validate() error {
	switch {
	case f.Product == "":
		return fmt.Errorf("%w: product is required", ErrInvalidArgument)
	case f.BuildIdentifier == "":
		return fmt.Errorf("%w: build is required", ErrInvalidArgument)
	case f.Project == "" || f.IssueType == "":
		return fmt.Errorf("%w: project and issue type are required", ErrInvalidArgument)
	case f.ReleaseConfig != ReleaseConfigStage && f.ReleaseConfig != ReleaseConfigProd:
		return fmt.Errorf("%w: unknown release config %q", ErrInvalidArgument, f.ReleaseConfig)
	}
	return nil
}

// Payload renders the fields in Jira's create-issue shape, keying the
// custom fields by ids.
func (f PromotionFields) Payload(ids FieldIDs) map[string]any {
	components := make([]map[string]string, len(f.Components))
	for i, name := range f.Components {
		components[i] = map[string]string{"name": name}
	}
	return map[string]any{
		"project":           map[string]string{"key": f.Project},
		"issuetype":         map[string]string{"name": f.IssueType},
		"summary":           f.Summary,
		"description":       f.Description,
		"components":        components,
		ids.BuildIdentifier: f.BuildIdentifier,
		ids.Product:         f.Product,
		ids.ReleaseType:     map[string]string{"value": f.ReleaseType},
		ids.PublicCloud:     []map[string]string{{"value": f.PublicCloud}},
		ids.ReleaseConfig:   string(f.ReleaseConfig),
	}
}
