package client

import (
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/mpg-calculator/internal/calculator"
)

const exampleQuery = "c_mpg=20&c_gp=3.50&c_pay=300&c_ins=120&c_mnt=600" +
	"&n_mpg=35&n_gp=3.50&n_pay=400&n_ins=100&n_mnt=300&miles=1000"

type recordingPersister struct {
	mu    sync.Mutex
	saved []calculator.Saved
}

func (p *recordingPersister) SaveAsync(saved calculator.Saved) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, saved)
}

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return q
}

func TestController_LoadCompleteQuery(t *testing.T) {
	p := &recordingPersister{}
	c := NewController(p)

	source := c.Load(mustQuery(t, exampleQuery), nil)

	assert.Equal(t, calculator.SourceQuery, source)
	assert.Equal(t, calculator.Current, c.State())
	require.NotNil(t, c.Result())
	assert.InDelta(t, 20.0, float64(c.Result().Difference), 1e-9)
	assert.Empty(t, p.saved, "loading never saves")
}

func TestController_LoadIncompleteStored(t *testing.T) {
	stored := &calculator.Input{CurrentCar: calculator.CurrentCar{MPG: calculator.Some(25)}}
	c := NewController(nil)

	source := c.Load(url.Values{}, stored)

	assert.Equal(t, calculator.SourceSession, source)
	assert.Equal(t, calculator.Unevaluated, c.State())
	assert.Nil(t, c.Result())
	assert.Nil(t, c.Changed(), "nothing computed, nothing changed")

	state, err := c.SetField("new_mpg", "30")
	require.NoError(t, err)
	assert.Equal(t, calculator.Unevaluated, state, "editing before a calculation is not staleness")
}

func TestController_StaleAndBack(t *testing.T) {
	c := NewController(nil)
	c.Load(mustQuery(t, exampleQuery), nil)

	state, err := c.SetField("new_mpg", "40")
	require.NoError(t, err)
	assert.Equal(t, calculator.Stale, state)
	assert.True(t, state.RecomputeEnabled())

	_, err = c.SetField("miles_per_month", "1200")
	require.NoError(t, err)
	assert.Equal(t, []string{"new_mpg", "miles_per_month"}, c.Changed())

	_, err = c.SetField("miles_per_month", "1000")
	require.NoError(t, err)
	state, err = c.SetField("new_mpg", "35")
	require.NoError(t, err)
	assert.Equal(t, calculator.Current, state)
	assert.Empty(t, c.Changed())

	// Clearing an optional field that was already 0 is no change at all.
	state, err = c.SetField("current_trade_in", "")
	require.NoError(t, err)
	assert.Equal(t, calculator.Current, state)
}

func TestController_SetFieldUnknown(t *testing.T) {
	c := NewController(nil)
	c.Load(mustQuery(t, exampleQuery), nil)

	state, err := c.SetField("color", "red")

	assert.Error(t, err)
	assert.Equal(t, calculator.Current, state)
}

func TestController_Submit(t *testing.T) {
	p := &recordingPersister{}
	c := NewController(p)
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	c.Load(mustQuery(t, exampleQuery), nil)
	_, err := c.SetField("current_trade_in", "5000")
	require.NoError(t, err)
	assert.Equal(t, calculator.Stale, c.State())

	result := c.Submit()

	assert.Equal(t, calculator.Current, c.State())
	require.NotNil(t, result.TradeIn)
	assert.InDelta(t, 5000.0, float64(result.TradeIn.Value), 1e-9)
	assert.Equal(t, &result, c.Result())

	require.Len(t, p.saved, 1)
	saved := p.saved[0]
	assert.Equal(t, fixed, saved.LastCalculatedAt)
	assert.True(t, saved.CurrentCar.TradeIn.Equal(calculator.Some(5000)))
	assert.True(t, saved.DrivingHabits.MilesPerMonth.Equal(calculator.Some(1000)))
}

func TestController_SubmitNormalizesTradeIn(t *testing.T) {
	p := &recordingPersister{}
	c := NewController(p)
	c.Load(mustQuery(t, exampleQuery), nil)

	c.Submit()
	c.Submit()

	require.Len(t, p.saved, 2, "every submit saves")
	assert.True(t, p.saved[0].CurrentCar.TradeIn.Equal(calculator.Some(0)))
}

func TestController_ShareQuery(t *testing.T) {
	c := NewController(nil)
	c.Load(mustQuery(t, "c_mpg=20&miles=1000"), nil)

	q := mustQuery(t, c.ShareQuery())
	assert.Equal(t, "20", q.Get("c_mpg"))
	assert.Equal(t, "1000", q.Get("miles"))
	assert.False(t, q.Has("n_mpg"))
}
