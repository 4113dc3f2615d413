// Package invest implements the profit calculator shown on investment
// service pages.
package invest

import (
    "errors"
    "math"
)

// MaxMonths bounds the projection horizon.
const MaxMonths = 600

var (
    ErrAmount = errors.New("amount must be positive")
    ErrROI    = errors.New("roi must be positive")
    ErrMonths = errors.New("months must be between 1 and 600")
)

// Projection is the result of a calculation.  Money is in cents and rounded
// to the nearest cent.
type Projection struct {
    AmountCents  int64   `json:"amount_cents"`
    ROIPercent   float64 `json:"roi_percent"`
    Months       int     `json:"months"`
    MonthlyCents int64   `json:"monthly_profit_cents"`
    ProfitCents  int64   `json:"profit_cents"`
    TotalCents   int64   `json:"total_cents"`
}

// Calculate applies simple (non-compounding) monthly interest:
//
//	monthly = amount * roi / 100
//	profit  = monthly * months
//	total   = amount + profit
func Calculate(amountCents int64, roiPercent float64, months int) (Projection, error) {
    if amountCents <= 0 {
        return Projection{}, ErrAmount
    }
    if !(roiPercent > 0) || math.IsInf(roiPercent, 0) {
        return Projection{}, ErrROI
    }
    if months < 1 || months > MaxMonths {
        return Projection{}, ErrMonths
    }
    rate := roiPercent / 100
    monthly := float64(amountCents) * rate
    profit := monthly * float64(months)
    return Projection{
        AmountCents:  amountCents,
        ROIPercent:   roiPercent,
        Months:       months,
        MonthlyCents: int64(math.Round(monthly)),
        ProfitCents:  int64(math.Round(profit)),
        TotalCents:   amountCents + int64(math.Round(profit)),
    }, nil
}
