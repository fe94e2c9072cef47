package backtest

// Metrics represents backtest performance metrics
type Metrics struct {
	TotalReturn   float64 `json:"total_return"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	TotalStaked   float64 `json:"total_staked"`
	TotalReturned float64 `json:"total_returned"`
	TotalBets     int     `json:"total_bets"`
	WinningBets   int     `json:"winning_bets"`
	LosingBets    int     `json:"losing_bets"`
	WinRate       float64 `json:"win_rate"`
	ProfitFactor  float64 `json:"profit_factor"`
	Expectancy    float64 `json:"expectancy"`
	LargestWin    float64 `json:"largest_win"`
	LargestLoss   float64 `json:"largest_loss"`
}

// CalculateMetrics calculates metrics from a settled backtest result
func CalculateMetrics(result *Result) Metrics {
	metrics := Metrics{}
	if result == nil {
		return metrics
	}

	if result.InitialBankroll > 0 {
		metrics.TotalReturn = (result.FinalBankroll - result.InitialBankroll) / result.InitialBankroll
	}
	metrics.MaxDrawdown = maxDrawdown(result.EquityCurve)

	grossWin := 0.0
	grossLoss := 0.0
	for _, bet := range result.Bets {
		metrics.TotalStaked += bet.Stake
		metrics.TotalReturned += bet.Payout

		profit := bet.Payout - bet.Stake
		if bet.Won {
			metrics.WinningBets++
			grossWin += profit
			if profit > metrics.LargestWin {
				metrics.LargestWin = profit
			}
		} else {
			metrics.LosingBets++
			grossLoss += -profit
			if -profit > metrics.LargestLoss {
				metrics.LargestLoss = -profit
			}
		}
	}

	metrics.TotalBets = len(result.Bets)
	if metrics.TotalBets > 0 {
		metrics.WinRate = float64(metrics.WinningBets) / float64(metrics.TotalBets)
		metrics.Expectancy = (grossWin - grossLoss) / float64(metrics.TotalBets)
	}
	if grossLoss > 0 {
		metrics.ProfitFactor = grossWin / grossLoss
	}

	return metrics
}

// maxDrawdown returns the largest peak-to-trough decline as a fraction of
// the peak.
func maxDrawdown(curve []EquityPoint) float64 {
	peak := 0.0
	worst := 0.0
	for _, point := range curve {
		if point.Value > peak {
			peak = point.Value
		}
		if peak > 0 {
			drawdown := (peak - point.Value) / peak
			if drawdown > worst {
				worst = drawdown
			}
		}
	}
	return worst
}
