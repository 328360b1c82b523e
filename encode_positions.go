package perf

// MarshalJSON implements the json.Marshaler interface for Position.
func (p Position) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", p.Symbol)
	w.Optional("dataSource", p.DataSource)
	w.Optional("name", p.Name)
	w.Append("currency", p.Currency)
	w.Append("quantity", p.Quantity)
	w.Append("averageCost", p.AverageCost)
	w.Append("marketPrice", p.MarketPrice)
	w.Append("marketPriceInBase", p.MarketPriceInBase)
	w.Append("marketValue", p.MarketValue)
	w.Append("investment", p.Investment)
	w.Append("investmentInBase", p.InvestmentInBase)
	w.Append("investmentWithCE", p.InvestmentWithCE)
	w.Append("fees", p.Fees)
	w.Optional("firstBuy", p.FirstBuy)
	w.Append("transactions", p.Transactions)
	w.Append("grossPerformance", p.GrossPerformance)
	w.Append("grossPerformanceWithCE", p.GrossPerformanceWithCE)
	w.Append("netPerformance", p.NetPerformance)
	w.Append("netPerformanceWithCE", p.NetPerformanceWithCE)
	w.Append("grossPerformancePercentage", p.GrossPerformancePercentage)
	w.Append("grossPerformancePercentageWithCE", p.GrossPerformancePercentageWithCE)
	w.Append("netPerformancePercentage", p.NetPerformancePercentage)
	w.Append("netPerformancePercentageWithCE", p.NetPerformancePercentageWithCE)
	w.Append("timeWeightedInvestment", p.TimeWeightedInvestment)
	w.Append("timeWeightedInvestmentWithCE", p.TimeWeightedInvestmentWithCE)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for CurrentPositionsResult.
// Positions is always an array; errors are only written when there are some.
func (r CurrentPositionsResult) MarshalJSON() ([]byte, error) {
	positions := r.Positions
	if positions == nil {
		positions = []Position{}
	}
	var w jsonObjectWriter
	w.Append("currentValue", r.CurrentValue)
	w.Append("totalInvestment", r.TotalInvestment)
	w.Append("totalInvestmentWithCE", r.TotalInvestmentWithCE)
	w.Append("fees", r.Fees)
	w.Append("grossPerformance", r.GrossPerformance)
	w.Append("grossPerformanceWithCE", r.GrossPerformanceWithCE)
	w.Append("netPerformance", r.NetPerformance)
	w.Append("netPerformanceWithCE", r.NetPerformanceWithCE)
	w.Append("grossPerformancePercentage", r.GrossPerformancePercentage)
	w.Append("grossPerformancePercentageWithCE", r.GrossPerformancePercentageWithCE)
	w.Append("netPerformancePercentage", r.NetPerformancePercentage)
	w.Append("netPerformancePercentageWithCE", r.NetPerformancePercentageWithCE)
	w.Append("timeWeightedInvestment", r.TimeWeightedInvestment)
	w.Append("timeWeightedInvestmentWithCE", r.TimeWeightedInvestmentWithCE)
	w.Append("positions", positions)
	w.Append("hasErrors", r.HasErrors)
	if len(r.Errors) > 0 {
		w.Append("errors", r.Errors)
	}
	return w.MarshalJSON()
}
