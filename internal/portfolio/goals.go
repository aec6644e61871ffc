package portfolio

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/apt777/finance-app/internal/model"
)

// GoalProgress is a goal with derived progress figures.
type GoalProgress struct {
	Goal       model.Goal      `json:"goal"`
	Percentage decimal.Decimal `json:"percentage"`
	Remaining  decimal.Decimal `json:"remaining"`
	Achieved   bool            `json:"achieved"`
	DaysLeft   *int            `json:"days_left,omitempty"`
}

// GoalsSummary totals all goals of a user.
type GoalsSummary struct {
	TotalTarget  decimal.Decimal `json:"total_target"`
	TotalCurrent decimal.Decimal `json:"total_current"`
	Percentage   decimal.Decimal `json:"percentage"`
	Goals        []GoalProgress  `json:"goals"`
}

// Progress derives the progress of g as of now.
func Progress(g model.Goal, now time.Time) GoalProgress {
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	p := GoalProgress{
		Goal:       g,
		Percentage: Percent(g.CurrentAmount, g.TargetAmount),
		Remaining:  remaining,
		Achieved:   g.TargetAmount.IsPositive() && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount),
	}
	if g.TargetDate != nil {
		days := int(truncateDay(*g.TargetDate).Sub(truncateDay(now)).Hours() / 24)
		p.DaysLeft = &days
	}
	return p
}

// SummarizeGoals derives progress for every goal and the overall total.
func SummarizeGoals(goals []model.Goal, now time.Time) GoalsSummary {
	s := GoalsSummary{
		TotalTarget:  decimal.Zero,
		TotalCurrent: decimal.Zero,
		Goals:        make([]GoalProgress, 0, len(goals)),
	}
	for _, g := range goals {
		s.TotalTarget = s.TotalTarget.Add(g.TargetAmount)
		s.TotalCurrent = s.TotalCurrent.Add(g.CurrentAmount)
		s.Goals = append(s.Goals, Progress(g, now))
	}
	s.Percentage = Percent(s.TotalCurrent, s.TotalTarget)
	return s
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
