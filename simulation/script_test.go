package simulation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxreplay/sim"
)

const demoScript = `command,count
# open a long and ride it
start
buy
next,2
close

sell
next
close_all
`

func TestParseScript(t *testing.T) {
	t.Parallel()

	steps, err := ParseScript(strings.NewReader(demoScript))
	require.NoError(t, err)
	require.Len(t, steps, 7)

	assert.Equal(t, Start{}, steps[0].Command)
	assert.Equal(t, OpenPosition{Side: sim.Buy}, steps[1].Command)
	assert.Equal(t, Advance{}, steps[2].Command)
	assert.Equal(t, 2, steps[2].Repeat)
	assert.Equal(t, ClosePosition{}, steps[6].Command)
	assert.Equal(t, 4, steps[1].Line)
}

func TestParseScriptErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseScript(strings.NewReader("start\nfly\n"))
	assert.ErrorContains(t, err, `line 2: unknown command "fly"`)

	_, err = ParseScript(strings.NewReader("next,0\n"))
	assert.ErrorContains(t, err, "bad count")

	_, err = ParseScript(strings.NewReader("next,1,2\n"))
	assert.ErrorContains(t, err, "too many columns")
}

func TestRunScript(t *testing.T) {
	t.Parallel()

	f := newFixture(t, flatSeries(120, map[int]float64{102: 1.1030, 103: 1.1000}), 10000)
	steps, err := ParseScript(strings.NewReader(demoScript))
	require.NoError(t, err)

	res, err := RunScript(context.Background(), f.ctl, steps, true)
	require.NoError(t, err)
	assert.Equal(t, 8, res.Executed)
	assert.Equal(t, 0, res.Rejected)

	// buy 1.1000 -> 1.1030, sell 1.1030 -> 1.1000
	assert.InDelta(t, 10060.0, f.st.Engine().Balance(), 1e-6)
	acct, _ := f.st.Ledger().Current()
	assert.Len(t, acct.Trades, 2)
}

func TestRunScriptRejections(t *testing.T) {
	t.Parallel()

	f := newFixture(t, flatSeries(103, nil), 10000)
	steps, err := ParseScript(strings.NewReader("next\nstart\nnext,10\nbuy\n"))
	require.NoError(t, err)

	res, err := RunScript(context.Background(), f.ctl, steps, false)
	require.NoError(t, err)
	// next before start, the advance after data ran out, buy after end
	assert.Equal(t, 3, res.Rejected)
	assert.Equal(t, 4, res.Executed)
	assert.Equal(t, Ended, f.st.Phase())

	f = newFixture(t, flatSeries(103, nil), 10000)
	_, err = RunScript(context.Background(), f.ctl, steps, true)
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.ErrorContains(t, err, "line 1")
}

func TestRunScriptCancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, flatSeries(120, nil), 10000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunScript(ctx, f.ctl, []Step{{Line: 1, Command: Start{}, Repeat: 1}}, false)
	assert.ErrorIs(t, err, context.Canceled)
}
