package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/lcwatch/lcw/pkg/centrality"
	"github.com/lcwatch/lcw/pkg/fees"
	"github.com/lcwatch/lcw/pkg/graph"
	"github.com/lcwatch/lcw/pkg/node"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const alphaID = "028ed3f6ad685b959ead7022518e1af76cd816f8e8ec7ccdda1ed4018e8f2223f8"

func ring() *graph.MockFactory {
	return graph.NewMockFactory().
		AddChannel("S", "A", 100).
		AddChannel("A", "B", 100).
		AddChannel("B", "C", 100).
		AddChannel("C", "S", 100).
		AddChannel("H", "P1", 100).
		AddChannel("H", "P2", 100).
		AddChannel("H", "P3", 100).
		AddChannel("P1", "H", 100).
		AddChannel("P2", "H", 100).
		AddChannel("P3", "H", 100).
		AddAlias("H", "hub")
}

func analyzer() *centrality.Analyzer {
	return centrality.NewAnalyzer(
		centrality.WithScanner(centrality.NewScanner(centrality.WeightCount)),
		centrality.WithScorer(centrality.Scorer{Normalization: centrality.NormalizeHopSum}),
		centrality.WithWorkers(2),
	)
}

func peersReport(t *testing.T) Peers {
	t.Helper()
	g := ring().Build()
	a := analyzer()
	baseline, cands, err := a.RankCandidates(context.Background(), g, "S", 1_000_000, 1, 0)
	require.NoError(t, err)
	return Peers{Mode: a.Mode(g), Amount: 1_000_000, Baseline: baseline, Candidates: cands}
}

func plain(verbosity int) (*Text, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Text{W: &buf, Verbosity: verbosity, Plain: true}, &buf
}

func TestSanitizeAlias(t *testing.T) {
	assert.Equal(t, "hub!", SanitizeAlias("hub☃"))
	assert.Equal(t, "plain alias", SanitizeAlias("plain alias"))
	assert.Equal(t, "", SanitizeAlias(""))
}

func TestPeerID(t *testing.T) {
	assert.Equal(t, "alpha        028e...", PeerID("alpha", alphaID, 1))
	assert.Equal(t, "alpha            028ed3f6...8f2223f8", PeerID("alpha", alphaID, 2))
	assert.Equal(t, "alpha                    "+alphaID, PeerID("alpha", alphaID, 5))
	assert.Equal(t, "abcdefghijkl 028e...", PeerID("abcdefghijklmnop", alphaID, 0))
	assert.Equal(t, "short"+strings.Repeat(" ", 11)+" ab...ab", PeerID("short", "ab", 2))
}

func TestCapacity(t *testing.T) {
	assert.Equal(t, "      ===="+"|"+"======    "+" "+" 0.02000000", Capacity(800_000, 1_200_000, 2))
	assert.Equal(t, "0.00800000-0.01200000  0.02000000", Capacity(800_000, 1_200_000, 4))
	assert.Equal(t, strings.Repeat(" ", 10)+"-0.01200000  0.01200000", Capacity(0, 1_200_000, 5))
	assert.Equal(t, strings.Repeat(" ", 10)+"|"+strings.Repeat(" ", 10)+"  0.00000000", Capacity(0, 0, 1))
}

func TestAge(t *testing.T) {
	for days, want := range map[float64]string{
		0.5:    "   today ",
		1.2:    " 1 day   ",
		45:     "45 days  ",
		694.44: "23 months",
	} {
		assert.Equal(t, want, Age(days), "days=%v", days)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, " yaml ": FormatYAML, "csv": FormatCSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestTextPeers(t *testing.T) {
	tx, buf := plain(2)
	require.NoError(t, tx.Render(peersReport(t)))

	out := buf.String()
	assert.Contains(t, out, "Node  S\n- hops: [1 1 1]\n- centrality score: 611\n")
	assert.Contains(t, out, "Searching for best connectivity peers with new capacity: 1000000 sats")
	assert.Contains(t, out, "  1  "+strings.Repeat(" ", 24)+" B: 833 (+222)\n")
	assert.Contains(t, out, "  3  hub"+strings.Repeat(" ", 21)+" H: 619 (+8)\n")
}

func TestTextNodes(t *testing.T) {
	g := ring().Build()
	a := analyzer()
	ranked, err := a.RankNodes(context.Background(), g, 3, 0)
	require.NoError(t, err)

	tx, buf := plain(2)
	require.NoError(t, tx.Render(Nodes{Mode: a.Mode(g), Nodes: ranked}))
	assert.Contains(t, buf.String(), "  1  hub"+strings.Repeat(" ", 21)+" H: 1000\n")
	assert.Contains(t, buf.String(), "- mode: count/hopsum")
}

func TestTextChannels(t *testing.T) {
	g := ring().AddChannel("S", "H", 100).AddChannel("S", "ghost", 100).Build()
	a := analyzer()
	baseline, contribs, err := a.ChannelContributions(context.Background(), g, "S")
	require.NoError(t, err)

	tx, buf := plain(2)
	require.NoError(t, tx.Render(Channels{Mode: a.Mode(g), Baseline: baseline, Contributions: contribs}))
	out := buf.String()
	assert.Contains(t, out, "Node current score: 619\n")
	assert.Contains(t, out, "hub"+strings.Repeat(" ", 21)+" H      100: 1000 +8\n")
	assert.Contains(t, out, "No connectivity contribution: , \n")
}

func TestTextCapacityHopsInBTC(t *testing.T) {
	tx, buf := plain(2)
	tx.Analysis(Analysis{Mode: "capacity/hopsum", Result: centrality.Result{NodeID: "S", Hops: centrality.Hops{150_000_000, 2_000}, Score: 500}})
	assert.Contains(t, buf.String(), "- hops: [1.50000000 0.00002000]\n")
}

func TestTextStatus(t *testing.T) {
	settle := 75.0
	ch := &node.Channel{
		PeerID: alphaID, ShortID: "600000x1x0", Alias: "alpha", State: "CHANNELD_NORMAL",
		InputCapacity: 800_000, OutputCapacity: 1_200_000,
		InPayments: 10, OutPayments: 5, TotalPayments: 15,
		SettleRate: &settle, Age: 45, TxPerDay: 0.5, RoutedCapacity: 0.2,
		BaseFeeMsat: 1000, PPMFee: 100,
	}
	sum := &node.Summary{
		WalletConfirmed: 1_750_000, WalletUnconfirmed: 100_000,
		Channels: []*node.Channel{ch}, InputCapacity: 800_000, OutputCapacity: 1_200_000,
		InPayments: 10, RoutedAmount: 200_000, FeesCollected: 4321, RefDay: "20240101", Since: 10,
	}

	tx, buf := plain(2)
	require.NoError(t, tx.Render(Status{Filter: "all", Summary: sum, Channels: sum.Channels}))
	out := buf.String()
	assert.Contains(t, out, "- Confirmed:    0.01750000\n")
	assert.Contains(t, out, "- TOTAL:        0.01850000\n")
	assert.Contains(t, out, "Channels: (ref: 10 days ago)\n")
	line := strings.Join([]string{
		"- 600000x1x0   ",
		"alpha" + strings.Repeat(" ", 11) + " 028ed3f6...8f2223f8",
		"      ====|======      0.02000000",
		"  10-5     15",
		"45 days  ",
		"  0.5",
		"  0.20",
		" 75.0%",
		"CHANNELD_NORMAL (1000/100)\n",
	}, "  ")
	assert.Contains(t, out, line)
	assert.Contains(t, out, "- Capacity        : 0.02000000 (0.00800000 + 0.01200000)\n")
	assert.Contains(t, out, "- Routed capacity : 0.20\n")
	assert.Contains(t, out, "- Node Value      : 0.03050000 BTC\n")
	assert.Contains(t, out, "- Fees collected  : 4321 sats\n")
}

func TestTextFeePlan(t *testing.T) {
	tx, buf := plain(2)
	require.NoError(t, tx.Render(FeePlan{
		Policy: fees.DefaultPolicy,
		DryRun: true,
		Changes: []fees.Change{
			{ShortID: "600000x1x0", OutRatio: 0.6, OldBase: 1000, OldPPM: 100, NewPPM: 40},
		},
		Skipped: []string{"new-0"},
	}))
	out := buf.String()
	assert.Contains(t, out, "Planned (dry run) channel fees, policy 50/-40/2000\n")
	assert.Contains(t, out, "new-0"+strings.Repeat(" ", 9)+"skipped\n")
	assert.Contains(t, out, "600000x1x0      60%   1000/  100 ->     0/   40\n")
}

func TestRenderUnknownType(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, FormatText, 2, 42))
	assert.Error(t, Write(&buf, FormatCSV, 2, Analysis{}))
	assert.Error(t, Write(&buf, Format("xml"), 2, Analysis{}))
}

func TestExportGolden(t *testing.T) {
	g := goldie.New(t)
	rep := peersReport(t)

	for name, format := range map[string]Format{"peers_json": FormatJSON, "peers_csv": FormatCSV} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, format, 2, rep))
		g.Assert(t, name, buf.Bytes())
	}
}

func TestExportYAML(t *testing.T) {
	rep := peersReport(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, 2, rep))
	assert.Contains(t, buf.String(), "mode: count/hopsum\n")

	var back Peers
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, rep, back)
}

func TestTextLookup(t *testing.T) {
	tx, buf := plain(2)
	require.NoError(t, tx.Render(Lookup{Query: "x", Matches: []any{map[string]int{"a": 1}}}))
	assert.Equal(t, "{\n   \"a\": 1\n}\n--------------------------\n", buf.String())
}
