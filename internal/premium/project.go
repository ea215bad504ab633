package premium

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/avm-cli/internal/model"
)

const similarProjectLimit = 10

// ProjectSource reads the project premium reference table.
type ProjectSource interface {
	GetProjectPremium(ctx context.Context, name string) (*model.ProjectPremium, error)
	ListProjectsByTier(ctx context.Context, tier, exclude string, limit int) ([]model.ProjectPremium, error)
}

// Factor is one share of a project premium.
type Factor struct {
	Factor      string  `json:"factor"`
	Percentage  float64 `json:"percentage"`
	Description string  `json:"description"`
}

// ProjectResult is the premium of a named project.
type ProjectResult struct {
	Name             string                 `json:"project_name,omitempty"`
	Percentage       float64                `json:"premium_percentage"`
	Tier             string                 `json:"tier"`
	TransactionCount int                    `json:"transaction_count,omitempty"`
	Breakdown        []Factor               `json:"breakdown,omitempty"`
	Similar          []model.ProjectPremium `json:"similar_projects,omitempty"`
	Warnings         []string               `json:"warnings,omitempty"`
}

// ProjectLookup resolves project premiums.
type ProjectLookup struct {
	src ProjectSource
}

// NewProjectLookup creates a lookup over src.
func NewProjectLookup(src ProjectSource) *ProjectLookup {
	return &ProjectLookup{src: src}
}

// Lookup returns the premium for name. Blank or unknown names, and lookup
// failures, yield a zero premium with tier "none".
func (p *ProjectLookup) Lookup(ctx context.Context, name string) ProjectResult {
	name = strings.TrimSpace(name)
	res := ProjectResult{Name: name, Tier: model.TierNone}
	if name == "" {
		return res
	}

	pp, err := p.src.GetProjectPremium(ctx, name)
	if err != nil {
		zap.L().Warn("premium: project lookup failed", zap.String("project", name), zap.Error(err))
		res.Warnings = append(res.Warnings, "project premium lookup failed")
		return res
	}
	if pp == nil {
		return res
	}

	res.Name = pp.ProjectName
	res.Percentage = pp.PremiumPercentage
	res.Tier = pp.Tier
	res.TransactionCount = pp.TransactionCount
	res.Breakdown = Breakdown(pp.PremiumPercentage, pp.TransactionCount)

	if pp.Tier != "" && pp.Tier != model.TierNone {
		similar, err := p.src.ListProjectsByTier(ctx, pp.Tier, pp.ProjectName, similarProjectLimit)
		if err != nil {
			zap.L().Warn("premium: similar projects lookup failed", zap.String("project", name), zap.Error(err))
			res.Warnings = append(res.Warnings, "similar projects lookup failed")
		}
		res.Similar = similar
	}
	return res
}

// factorShare is one factor's share of the premium. Counted factors prefix
// the description with the transaction count.
type factorShare struct {
	name, desc string
	share      float64
	counted    bool
}

// Breakdown splits a project premium into its contributing factors. The
// split depends on how large the premium is.
func Breakdown(pct float64, transactions int) []Factor {
	if pct <= 0 {
		return nil
	}
	var shares []factorShare
	switch {
	case pct >= 20:
		shares = []factorShare{
			{"International Brand", "Globally recognized luxury brand", 0.35, false},
			{"Luxury Amenities", "World-class facilities and services", 0.25, false},
			{"Prime Location", "Prestigious address and positioning", 0.15, false},
			{"Market Performance", "transactions analyzed", 0.15, true},
			{"Build Quality", "Premium finishes and construction", 0.10, false},
		}
	case pct >= 15:
		shares = []factorShare{
			{"Brand Recognition", "Established luxury brand", 0.40, false},
			{"Premium Amenities", "High-end facilities", 0.25, false},
			{"Location Quality", "Prime area positioning", 0.15, false},
			{"Market Demand", "properties traded", 0.15, true},
			{"Quality Standards", "Superior construction quality", 0.05, false},
		}
	default:
		shares = []factorShare{
			{"Developer Brand", "Reputable developer", 0.35, false},
			{"Amenities", "Quality facilities included", 0.30, false},
			{"Location", "Good area positioning", 0.20, false},
			{"Market Position", "properties traded", 0.15, true},
		}
	}

	out := make([]Factor, len(shares))
	for i, s := range shares {
		desc := s.desc
		if s.counted {
			desc = strconv.Itoa(transactions) + " " + s.desc
		}
		out[i] = Factor{Factor: s.name, Percentage: round2(pct * s.share), Description: desc}
	}
	return out
}
