package report

// Tier classifies budget consumption for presentation.
type Tier string

const (
	TierNormal   Tier = "normal"   // below 75%
	TierWarning  Tier = "warning"  // 75% to just under 100%
	TierCritical Tier = "critical" // 100% and above
)

// Evaluation is the result of comparing spend against a budget ceiling.
type Evaluation struct {
	// Percentage is the display percentage, clamped to 100.
	Percentage float64
	// RemainingCents is budget minus spend; negative when over budget.
	RemainingCents int64
	IsOver         bool
	Tier           Tier
}

// Segment is one slice of a stacked multi-category budget bar. Widths are not
// individually clamped; the renderer clamps the cumulative sum.
type Segment struct {
	CategoryID string
	Name       string
	Color      string
	Width      float64
}

// Evaluate classifies spentCents against budgetCents. Tier boundaries are
// inclusive on the lower bound: exactly 75% is warning, exactly 100% is
// critical. A non-positive budget cannot be consumed, so any spend against it
// is critical.
func Evaluate(spentCents, budgetCents int64) Evaluation {
	if budgetCents <= 0 {
		ev := Evaluation{RemainingCents: budgetCents - spentCents}
		if spentCents > 0 {
			ev.Percentage = 100
			ev.IsOver = true
			ev.Tier = TierCritical
		} else {
			ev.Tier = TierNormal
		}
		return ev
	}

	raw := float64(spentCents) / float64(budgetCents) * 100
	ev := Evaluation{
		Percentage:     raw,
		RemainingCents: budgetCents - spentCents,
		IsOver:         spentCents > budgetCents,
	}
	if ev.Percentage > 100 {
		ev.Percentage = 100
	}
	switch {
	case raw >= 100:
		ev.Tier = TierCritical
	case raw >= 75:
		ev.Tier = TierWarning
	default:
		ev.Tier = TierNormal
	}
	return ev
}

// Segments converts a category breakdown into stacked bar segments sized
// against the budget.
func Segments(breakdown []CategoryTotal, budgetCents int64) []Segment {
	if budgetCents <= 0 {
		return nil
	}
	segments := make([]Segment, 0, len(breakdown))
	for _, ct := range breakdown {
		segments = append(segments, Segment{
			CategoryID: ct.CategoryID,
			Name:       ct.Name,
			Color:      ct.Color.Hex(),
			Width:      float64(ct.TotalCents) / float64(budgetCents) * 100,
		})
	}
	return segments
}
