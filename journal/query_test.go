package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	closeT := time.Date(2024, 4, 10, 15, 30, 0, 0, time.UTC)
	expected := sampleTrade("T123", 2, 37.5, closeT)

	require.NoError(t, j.RecordTrade(expected))

	actual, err := j.GetTrade("T123")
	require.NoError(t, err)

	assert.Equal(t, expected.TradeID, actual.TradeID)
	assert.Equal(t, expected.RunID, actual.RunID)
	assert.Equal(t, expected.AccountID, actual.AccountID)
	assert.Equal(t, expected.Side, actual.Side)
	assert.InDelta(t, expected.EntryPrice, actual.EntryPrice, 1e-9)
	assert.InDelta(t, expected.ExitPrice, actual.ExitPrice, 1e-9)
	assert.True(t, expected.OpenTime.Equal(actual.OpenTime))
	assert.True(t, expected.CloseTime.Equal(actual.CloseTime))
	assert.Equal(t, expected.Profit, actual.Profit)
	assert.Equal(t, expected.Reason, actual.Reason)

	_, err = j.GetTrade("missing")
	assert.ErrorContains(t, err, `trade "missing" not found`)
}

func TestListTradesByAccountAndRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("a", 1, 10, t0.Add(2*time.Hour))))
	require.NoError(t, j.RecordTrade(sampleTrade("b", 1, -5, t0.Add(time.Hour))))
	other := sampleTrade("c", 2, 7, t0)
	other.RunID = "run-2"
	require.NoError(t, j.RecordTrade(other))

	trades, err := j.ListTradesByAccount(1)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "b", trades[0].TradeID, "ordered by close time")
	assert.Equal(t, "a", trades[1].TradeID)

	trades, err = j.ListTradesByRun("run-2")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 2, trades[0].AccountID)

	trades, err = j.ListTradesByAccount(99)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"t0", "t1", "t2", "t3"} {
		require.NoError(t, j.RecordTrade(sampleTrade(id, 1, 1, t0.Add(time.Duration(i)*24*time.Hour))))
	}

	trades, err := j.ListTradesClosedBetween(t0.Add(24*time.Hour), t0.Add(3*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "t1", trades[0].TradeID)
	assert.Equal(t, "t2", trades[1].TradeID)
}

func TestComputeStats(t *testing.T) {
	t.Parallel()

	s := ComputeStats(nil)
	assert.Equal(t, Stats{}, s)

	t0 := time.Now()
	s = ComputeStats([]TradeRecord{
		sampleTrade("a", 1, 30, t0),
		sampleTrade("b", 1, -10, t0),
		sampleTrade("c", 1, 10, t0),
		sampleTrade("d", 1, 0, t0),
	})
	assert.Equal(t, 4, s.Trades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 30.0, s.NetProfit, 1e-9)
	assert.InDelta(t, 4.0, s.ProfitFactor, 1e-9)
	assert.InDelta(t, 0.5, s.WinRate, 1e-9)
}
