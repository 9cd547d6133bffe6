package tools

import (
	"context"

	"github.com/spigell/gig-assistant/internal/review"
)

// Handler runs a tool with loosely typed arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool describes an operation to a transport.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Handler     Handler        `json:"-"`
}

// Tools returns every operation in a stable order.
func (s *Service) Tools() []Tool {
	return []Tool{
		{
			Name:        OpSearch,
			Description: "Filter the supplied gigs and rank them by fit with the profile.",
			InputSchema: object(map[string]any{
				"profile": profileSchema(),
				"gigs":    array(gigSchema()),
				"filters": object(map[string]any{
					"platforms":         array(str()),
					"project_type":      enum("fixed_price", "hourly"),
					"min_budget":        number(0, nil),
					"max_budget":        number(0, nil),
					"min_client_rating": number(0, 5),
					"max_proposals":     integer(0),
				}),
				"limit": integer(0),
			}, "profile", "gigs"),
			Handler: handler(OpSearch, s.Search),
		},
		{
			Name:        OpAnalyzeFit,
			Description: "Score how well a profile fits one gig and explain the result.",
			InputSchema: object(map[string]any{
				"profile": profileSchema(),
				"gig":     gigSchema(),
			}, "profile", "gig"),
			Handler: handler(OpAnalyzeFit, s.AnalyzeFit),
		},
		{
			Name:        OpCodeReview,
			Description: "Run static analysis on a file inside the sandbox. The file is not modified.",
			InputSchema: object(map[string]any{
				"file_path":   str(),
				"review_type": enum("general", "security", "performance"),
				"language":    str(),
			}, "file_path"),
			Handler: handler(OpCodeReview, s.CodeReview),
		},
		{
			Name:        OpCodeDebug,
			Description: "Apply mechanical fixes (auto) or explicit line edits (review) to a sandboxed file, keeping a backup.",
			InputSchema: object(map[string]any{
				"file_path":         str(),
				"issue_description": str(),
				"fix_type":          enum("auto", "review"),
				"language":          str(),
				"rules":             array(enum(review.RuleIDs()...)),
				"edits": array(object(map[string]any{
					"start_line":  integer(1),
					"end_line":    integer(1),
					"replacement": str(),
				}, "start_line", "end_line", "replacement")),
				"dry_run":    map[string]any{"type": "boolean"},
				"max_passes": integer(0),
			}, "file_path"),
			Handler: handler(OpCodeDebug, s.CodeDebug),
		},
		{
			Name:        OpNegotiateRate,
			Description: "Draft a rate negotiation message with strategy and alternatives.",
			InputSchema: object(map[string]any{
				"current_rate":         number(0, nil),
				"target_rate":          number(0, nil),
				"project_complexity":   enum("low", "medium", "high"),
				"justification_points": array(str()),
			}, "current_rate", "target_rate"),
			Handler: handler(OpNegotiateRate, s.NegotiateRate),
		},
		{
			Name:        OpGenerateProposal,
			Description: "Draft a proposal for a gig on behalf of a profile.",
			InputSchema: object(map[string]any{
				"profile":           profileSchema(),
				"gig":               gigSchema(),
				"name":              str(),
				"title":             str(),
				"tone":              enum("professional", "friendly", "confident"),
				"include_portfolio": map[string]any{"type": "boolean"},
				"proposed_rate":     number(0, nil),
				"custom_message":    str(),
			}, "profile", "gig"),
			Handler: handler(OpGenerateProposal, s.GenerateProposal),
		},
		{
			Name:        OpOptimizeProfile,
			Description: "Suggest improvements to a freelancer profile.",
			InputSchema: object(map[string]any{
				"profile":      profileSchema(),
				"title":        str(),
				"success_rate": number(0, 100),
				"target_niche": str(),
			}, "profile"),
			Handler: handler(OpOptimizeProfile, s.OptimizeProfile),
		},
		{
			Name:        OpTrack,
			Description: "Summarise application outcomes by status and platform.",
			InputSchema: object(map[string]any{
				"applications": array(object(map[string]any{
					"gig_id":        str(),
					"platform":      str(),
					"status":        str(),
					"applied_date":  str(),
					"response_date": str(),
				})),
			}, "applications"),
			Handler: handler(OpTrack, s.TrackApplications),
		},
	}
}

func handler[In, Out any](op string, fn func(context.Context, In) (Out, error)) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		var in In
		if err := Decode(op, args, &in); err != nil {
			return nil, err
		}
		return fn(ctx, in)
	}
}

func profileSchema() map[string]any {
	return object(map[string]any{
		"skills":                      array(str()),
		"hourly_rate":                 number(0, nil),
		"years_experience":            number(0, nil),
		"portfolio_score":             number(0, 1),
		"availability_hours_per_week": number(0, nil),
	}, "skills", "hourly_rate")
}

func gigSchema() map[string]any {
	return object(map[string]any{
		"id":              str(),
		"title":           str(),
		"description":     str(),
		"platform":        str(),
		"required_skills": array(str()),
		"budget":          number(0, nil),
		"project_type":    enum("fixed_price", "hourly"),
		"complexity":      enum("low", "medium", "high"),
		"client_rating":   number(0, 5),
		"proposals_count": integer(0),
	}, "required_skills", "project_type")
}

func object(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func array(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func str() map[string]any {
	return map[string]any{"type": "string"}
}

func enum(values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values}
}

func integer(minimum int) map[string]any {
	return map[string]any{"type": "integer", "minimum": minimum}
}

func number(minimum float64, maximum any) map[string]any {
	schema := map[string]any{"type": "number", "minimum": minimum}
	if maximum != nil {
		schema["maximum"] = maximum
	}
	return schema
}
