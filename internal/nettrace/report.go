package nettrace

// Report pairs a timeline with the budget it was evaluated against.
type Report struct {
	Timeline     *Timeline
	Budget       Budget
	BudgetReport BudgetReport
}

func NewReport(tl *Timeline, budget Budget) *Report {
	if tl == nil {
		return nil
	}
	b := budget.Clone()
	rep := &Report{Timeline: tl.Clone(), Budget: b}
	if !b.Empty() {
		rep.BudgetReport = EvaluateBudget(tl, b)
	}
	return rep
}

func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	return &Report{
		Timeline:     r.Timeline.Clone(),
		Budget:       r.Budget.Clone(),
		BudgetReport: BudgetReport{Breaches: append([]BudgetBreach(nil), r.BudgetReport.Breaches...)},
	}
}
