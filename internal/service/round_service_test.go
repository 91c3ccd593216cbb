package service_test

import (
	"math"
	"testing"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/evetabi/liquidation-roulette/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario A: a fresh round has an empty pool for every catalogue protocol.
func TestCreate_Defaults(t *testing.T) {
	f := newFixture(t)

	r, err := f.rounds.Create(t.Context(), service.CreateRoundRequest{})
	require.NoError(t, err)

	assert.Len(t, r.ID, 12, "6 random bytes, hex encoded")
	assert.Equal(t, domain.StatusOpen, r.Status)
	assert.True(t, r.TotalPool.IsZero())
	assert.Equal(t, []string{"X", "Y"}, r.CandidateIDs())
	for _, pool := range r.Pools {
		assert.True(t, pool.IsZero())
	}
	assert.True(t, r.MinBet.Equal(dec("5")))
	assert.Equal(t, t0, r.CreatedAt)
	assert.Equal(t, t0.Add(time.Hour), r.EndsAt)
	assert.Nil(t, r.Result)
	assert.Equal(t, []string{r.ID}, f.events.created)
}

func TestCreate_Overrides(t *testing.T) {
	f := newFixture(t)
	dur := 90.0
	minBet := dec("2.5")

	r, err := f.rounds.Create(t.Context(), service.CreateRoundRequest{Duration: &dur, MinBet: &minBet})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(90*time.Second), r.EndsAt)
	assert.True(t, r.MinBet.Equal(minBet))
}

func TestCreate_RejectsNonPositive(t *testing.T) {
	f := newFixture(t)
	zero := 0.0
	neg := dec("-1")

	_, err := f.rounds.Create(t.Context(), service.CreateRoundRequest{Duration: &zero})
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)
	assert.True(t, domain.IsInvalidInput(err))

	_, err = f.rounds.Create(t.Context(), service.CreateRoundRequest{MinBet: &neg})
	assert.ErrorIs(t, err, domain.ErrInvalidMinBet)

	assert.Equal(t, 0, f.repo.Stats().Rounds)
}

func TestCreate_RejectsOutOfRangeDuration(t *testing.T) {
	f := newFixture(t)

	for _, secs := range []float64{1e10, service.MaxRoundDuration.Seconds() + 1, 1e-12, math.NaN()} {
		d := secs
		_, err := f.rounds.Create(t.Context(), service.CreateRoundRequest{Duration: &d})
		assert.ErrorIs(t, err, domain.ErrInvalidDuration, "duration %v", secs)
	}
	assert.Equal(t, 0, f.repo.Stats().Rounds)

	longest := service.MaxRoundDuration.Seconds()
	r, err := f.rounds.Create(t.Context(), service.CreateRoundRequest{Duration: &longest})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(service.MaxRoundDuration), r.EndsAt)
	assert.True(t, r.EndsAt.After(r.CreatedAt))
}

func TestExists(t *testing.T) {
	f := newFixture(t)
	id := f.openRound(t)

	assert.NoError(t, f.rounds.Exists(id))
	assert.ErrorIs(t, f.rounds.Exists("missing"), domain.ErrRoundNotFound)
}

func TestCreate_SnapshotIsDetached(t *testing.T) {
	f := newFixture(t)
	r, err := f.rounds.Create(t.Context(), service.CreateRoundRequest{})
	require.NoError(t, err)
	r.Pools["X"] = dec("1000")

	view, err := f.rounds.Get(t.Context(), r.ID)
	require.NoError(t, err)
	assert.True(t, view.Pools["X"].IsZero())
}

func TestGet_View(t *testing.T) {
	f := newFixture(t)
	id := f.openRound(t)
	f.bet(t, id, "A", "X", "100")
	f.advance(15 * time.Minute)

	view, err := f.rounds.Get(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, (45 * time.Minute).Milliseconds(), view.TimeRemaining)
	assert.Equal(t, "Protocol X", view.OddsBreakdown["X"].Name)
	assert.Equal(t, "1.00", view.OddsBreakdown["X"].Odds.String())
	assert.Equal(t, "N/A", view.OddsBreakdown["Y"].Odds.String())

	_, err = f.rounds.Get(t.Context(), "missing")
	assert.ErrorIs(t, err, domain.ErrRoundNotFound)
}

func TestGet_TimeRemainingNeverNegative(t *testing.T) {
	f := newFixture(t)
	id := f.openRound(t)
	f.advance(2 * time.Hour)

	view, err := f.rounds.Get(t.Context(), id)
	require.NoError(t, err)
	assert.Zero(t, view.TimeRemaining)
	assert.True(t, view.IsOpen(), "expiry is advisory")
}

func TestListOpen(t *testing.T) {
	f := newFixture(t)
	a := f.openRound(t)
	b := f.openRound(t)
	f.bet(t, a, "A", "X", "10")
	f.bet(t, a, "B", "Y", "20")
	_, err := f.resolution.Resolve(t.Context(), b, map[string]int64{"X": 1})
	require.NoError(t, err)
	f.advance(10 * time.Minute)

	list, err := f.rounds.ListOpen(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a, list[0].ID)
	assert.True(t, list[0].TotalPool.Equal(dec("30")))
	assert.Equal(t, 2, list[0].BetCount)
	assert.Equal(t, (50 * time.Minute).Milliseconds(), list[0].TimeRemaining)

	views, err := f.rounds.OpenViews(t.Context())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "33.3%", views[0].OddsBreakdown["X"].Probability.String())
}

func TestGetBetAndStats(t *testing.T) {
	f := newFixture(t)
	id := f.openRound(t)
	res := f.bet(t, id, "A", "X", "10")

	b, err := f.rounds.GetBet(t.Context(), res.Bet.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Bet, b)

	_, err = f.rounds.GetBet(t.Context(), "nope")
	assert.ErrorIs(t, err, domain.ErrBetNotFound)

	st := f.rounds.Stats()
	assert.Equal(t, 2, st.TrackedProtocols)
	assert.Equal(t, 1, st.Rounds)
	assert.Equal(t, 1, st.OpenRounds)
	assert.Equal(t, 1, st.Bets)
	assert.Len(t, f.rounds.Protocols(), 2)
}
