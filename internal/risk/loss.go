package risk

import (
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const (
	capexShare = 0.6
	opexShare  = 0.4
)

// impactRatio is the share of the investment lost when a risk of the given severity occurs.
func impactRatio(severity int) float64 {
	switch {
	case severity >= 1 && severity <= 3:
		return 0.1
	case severity >= 4 && severity <= 6:
		return 0.3
	case severity >= 7 && severity <= 10:
		return 0.6
	default:
		return 0.3
	}
}

// EstimateLoss computes the probability-weighted cash loss of the items for an
// investment, using RPN/1000 as the probability of each risk.
func EstimateLoss(items []models.RiskItem, investment int64, category models.CategoryID) *models.LossEstimate {
	amount := float64(investment)
	est := &models.LossEstimate{
		Investment: investment,
		Capex:      amount * capexShare,
		Opex:       amount * opexShare,
	}

	cat, ok := LookupCategory(category)
	if !ok {
		cat, _ = LookupCategory(DefaultCategory)
	}
	for _, c := range cat.Costs {
		est.CostBreakdown = append(est.CostBreakdown, models.CostLine{Item: c.Item, Ratio: c.Ratio, Amount: amount * c.Ratio})
	}

	for _, it := range items {
		p := min(1.0, float64(it.RPN)/1000)
		loss := p * impactRatio(it.Severity) * amount
		est.ByRisk = append(est.ByRisk, models.RiskLoss{
			Description:  it.Description,
			RPN:          it.RPN,
			Probability:  p,
			ExpectedLoss: loss,
		})
		est.TotalExpectedLoss += loss
	}
	return est
}
