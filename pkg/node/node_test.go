package node

import (
	"context"
	"testing"
	"time"

	"github.com/lcwatch/lcw/pkg/filter"
	"github.com/lcwatch/lcw/pkg/history"
	"github.com/lcwatch/lcw/pkg/lightning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtures = "../lightning/testdata"

func loadInput(t *testing.T) Input {
	t.Helper()
	ctx := context.Background()
	c := lightning.NewFixtureClient(fixtures)

	var in Input
	var err error
	in.Info, err = c.GetInfo(ctx)
	require.NoError(t, err)
	in.Funds, err = c.ListFunds(ctx)
	require.NoError(t, err)
	in.Own, err = c.ListChannels(ctx, in.Info.ID)
	require.NoError(t, err)
	in.Peers, err = c.ListPeers(ctx)
	require.NoError(t, err)
	in.Nodes, err = c.ListNodes(ctx)
	require.NoError(t, err)
	return in
}

func shortIDs(chans []*Channel) []string {
	ids := make([]string, 0, len(chans))
	for _, c := range chans {
		ids = append(ids, c.ShortID)
	}
	return ids
}

func TestBuild(t *testing.T) {
	s := Build(loadInput(t), time.Now(), nil)

	assert.Equal(t, int64(1_750_000), s.WalletConfirmed)
	assert.Equal(t, int64(100_000), s.WalletUnconfirmed)
	assert.Equal(t, int64(1_850_000), s.WalletTotal())
	assert.Equal(t, int64(4_400_000), s.InputCapacity)
	assert.Equal(t, int64(2_100_000), s.OutputCapacity)
	assert.Equal(t, int64(10), s.InPayments)
	assert.Equal(t, int64(5), s.OutPayments)
	assert.InDelta(t, 200_000, s.RoutedAmount, 1e-9)
	assert.InDelta(t, 200_000.0/6_500_000*2, s.RoutedCapacity(), 1e-12)
	assert.Equal(t, int64(2_100_000+1_850_000), s.NodeValue())
	assert.InDelta(t, 4321, s.FeesCollected, 1e-9)

	assert.Equal(t, []string{"600000x1x0", "650000x2x1", "new-0", "660000x9x0"}, shortIDs(s.Channels))

	a, ok := s.Channel("600000x1x0")
	require.True(t, ok)
	assert.Equal(t, "alpha", a.Alias)
	assert.Equal(t, int64(100), a.PPMFee)
	assert.Equal(t, int64(1000), a.BaseFeeMsat)
	assert.Equal(t, int64(15), a.TotalPayments)
	assert.Equal(t, int64(20), a.TotalPaymentsOffered)
	require.NotNil(t, a.SettleRate)
	assert.InDelta(t, 75, *a.SettleRate, 1e-9)
	assert.InDelta(t, 400_000, a.RoutedAmount, 1e-9)
	assert.InDelta(t, 0.2, a.RoutedCapacity, 1e-12)
	assert.InDelta(t, 100_000*600.0/86400, a.Age, 1e-9)
	assert.InDelta(t, 15/a.Age, a.TxPerDay, 1e-12)

	pending, ok := s.Channel("new-0")
	require.True(t, ok)
	assert.True(t, pending.New)
	assert.Equal(t, "bravo", pending.Alias)
	assert.Zero(t, pending.Age)
	assert.Zero(t, pending.TxPerDay)

	hub, _ := s.Channel("650000x2x1")
	assert.Nil(t, hub.SettleRate)
	assert.Equal(t, "hub☃", hub.Alias)
}

func TestBuildSinceReference(t *testing.T) {
	in := loadInput(t)
	in.Ref = &Reference{
		Day:     "20240101",
		DaysAgo: 10,
		Snapshot: history.Snapshot{
			"600000x1x0": {InPayments: 4, OutPayments: 1, InMsatFulfilled: 50_000_000, OutMsatFulfilled: 50_000_000},
		},
	}
	now := time.Date(2024, 1, 11, 12, 0, 0, 0, time.Local)
	s := Build(in, now, nil)

	assert.Equal(t, "20240101", s.RefDay)
	assert.Equal(t, 10, s.Since)
	assert.Equal(t, int64(6), s.InPayments)
	assert.Equal(t, int64(4), s.OutPayments)
	assert.InDelta(t, 150_000, s.RoutedAmount, 1e-9)

	a, _ := s.Channel("600000x1x0")
	assert.Equal(t, int64(10), a.TotalPayments)
	// No offered counters in the reference: offered totals stay absolute.
	assert.Equal(t, int64(20), a.TotalPaymentsOffered)
	assert.InDelta(t, 50, *a.SettleRate, 1e-9)
	assert.InDelta(t, 10.0/10.5, a.TxPerDay, 1e-9)

	// Channels missing from the reference still use their age.
	c, _ := s.Channel("660000x9x0")
	assert.Zero(t, c.TxPerDay)
}

func TestSelect(t *testing.T) {
	s := Build(loadInput(t), time.Now(), nil)

	f, err := filter.New(filter.Default)
	require.NoError(t, err)
	got, err := s.Select(f, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"600000x1x0", "new-0"}, shortIDs(got))

	got, err = s.Select(nil, "/total_capacity", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"650000x2x1", "600000x1x0", "660000x9x0", "new-0"}, shortIDs(got))

	got, err = s.Select(nil, "age", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"new-0", "660000x9x0"}, shortIDs(got))

	_, err = s.Select(nil, "colour", 0)
	assert.ErrorIs(t, err, ErrUnknownSortKey)
}

func TestSelectDropsIgnored(t *testing.T) {
	in := loadInput(t)
	in.Ignored = []string{"650000x2x1"}
	s := Build(in, time.Now(), nil)

	got, err := s.Select(nil, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"600000x1x0", "new-0", "660000x9x0"}, shortIDs(got))
	// Totals still include the ignored channel.
	assert.Equal(t, int64(4_400_000), s.InputCapacity)
}

func TestSnapshot(t *testing.T) {
	s := Build(loadInput(t), time.Now(), nil)
	snap := s.Snapshot()

	require.Len(t, snap, 4)
	a := snap["600000x1x0"]
	assert.Equal(t, int64(10), a.InPayments)
	assert.Equal(t, int64(250_000_000), a.InMsatFulfilled)
	require.True(t, a.HasOffered())
	assert.Equal(t, int64(300_000_000), *a.InMsatOffered)
}

func TestFieldsCoverFilterSchema(t *testing.T) {
	fields := (&Channel{}).Fields()
	for name := range filter.Fields {
		assert.Contains(t, fields, name)
	}
	assert.Len(t, fields, len(filter.Fields))
}
