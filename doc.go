// Package perf computes the performance of an investment portfolio from its buy and sell orders.
//
// The computation is split in a batch resolve step, that fetches every needed price and
// exchange rate, followed by pure functions over the resolved rates:
//   - BuildTransactionPoints folds orders into per-day snapshots of every instrument's
//     quantity, weighted average cost, cost basis and fees.
//   - EvaluatePositions derives market values and gross/net performance, in absolute terms
//     and relative to the time-weighted investment, with and without the currency effect.
//   - GenerateChart and Investments produce the invested capital over time, and
//     GroupInvestments reduces it to the net investment per calendar period.
//
// Failures are scoped to the instrument that caused them: a missing quote or an oversold
// position is reported in the results and never aborts the rest of the portfolio.
//
// Amounts use exact decimal arithmetic. Orders and market data are persisted as JSONL,
// one object per line, to stay human-readable and version-controllable.
//
// This package serves as the foundation of the `pcalc` command-line tool.
package perf
