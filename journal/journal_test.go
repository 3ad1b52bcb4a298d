package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/fxreplay/sim"
)

func TestNewTradeRecord(t *testing.T) {
	t.Parallel()

	ct := sim.ClosedTrade{
		ID:         "01HX",
		Time:       1_704_067_200,
		Side:       sim.Sell,
		EntryPrice: 1.1,
		ExitPrice:  1.095,
		Pips:       50,
		Profit:     50,
		ClosedAt:   1_704_070_800,
	}
	rec := NewTradeRecord("run-9", 3, ct, "manual")

	assert.Equal(t, "01HX", rec.TradeID)
	assert.Equal(t, "run-9", rec.RunID)
	assert.Equal(t, 3, rec.AccountID)
	assert.Equal(t, "sell", rec.Side)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rec.OpenTime)
	assert.Equal(t, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), rec.CloseTime)
	assert.Equal(t, 50.0, rec.Profit)
	assert.Equal(t, "manual", rec.Reason)
}

func TestNop(t *testing.T) {
	t.Parallel()

	var j Journal = Nop{}
	assert.NoError(t, j.RecordTrade(TradeRecord{}))
	assert.NoError(t, j.RecordEquity(EquitySnapshot{}))
	assert.NoError(t, j.Close())
}
