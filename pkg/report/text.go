package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lcwatch/lcw/pkg/centrality"
	"github.com/lcwatch/lcw/pkg/node"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF99"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

// Text writes the human-readable form of a report.
type Text struct {
	W         io.Writer
	Verbosity int
	// Plain disables styling.
	Plain bool
}

func (t *Text) heading(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	if !t.Plain {
		s = headingStyle.Render(s)
	}
	fmt.Fprintln(t.W, s)
}

func (t *Text) muted(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	if !t.Plain {
		s = mutedStyle.Render(s)
	}
	fmt.Fprintln(t.W, s)
}

// Render dispatches on the report type.
func (t *Text) Render(v any) error {
	switch r := v.(type) {
	case Analysis:
		t.Analysis(r)
	case Peers:
		t.Peers(r)
	case Nodes:
		t.Nodes(r)
	case Channels:
		t.Channels(r)
	case Status:
		t.Status(r)
	case FeePlan:
		t.FeePlan(r)
	case Lookup:
		return t.Lookup(r)
	default:
		return fmt.Errorf("no text form for %T", v)
	}
	return nil
}

func (t *Text) result(r centrality.Result, mode string) {
	t.heading("Node %s %s", SanitizeAlias(r.Alias), r.NodeID)
	fmt.Fprintf(t.W, "- hops: %s\n", formatHops(r.Hops, mode))
	fmt.Fprintf(t.W, "- centrality score: %d\n", r.Score)
}

// formatHops shows capacity-weighted levels in BTC.
func formatHops(h centrality.Hops, mode string) string {
	if !strings.HasPrefix(mode, centrality.WeightCapacity.String()) {
		return fmt.Sprint([]int64(h))
	}
	parts := make([]string, len(h))
	for i, v := range h {
		parts[i] = BTC(float64(v))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (t *Text) Analysis(a Analysis) {
	t.result(a.Result, a.Mode)
	t.muted("- mode: %s", a.Mode)
}

func (t *Text) Peers(p Peers) {
	t.result(p.Baseline, p.Mode)
	fmt.Fprintln(t.W)
	t.heading("Searching for best connectivity peers with new capacity: %d sats", p.Amount)
	if len(p.Candidates) == 0 {
		t.muted("no candidate improves the score")
		return
	}
	for i, c := range p.Candidates {
		fmt.Fprintf(t.W, "%3d  %-24.24s %s: %d (%+d)\n", i+1, SanitizeAlias(c.Alias), c.NodeID, c.Score, c.Delta)
	}
}

func (t *Text) Nodes(n Nodes) {
	t.heading("Searching for best connected nodes")
	for i, r := range n.Nodes {
		fmt.Fprintf(t.W, "%3d  %-24.24s %s: %d\n", i+1, SanitizeAlias(r.Alias), r.NodeID, r.Score)
	}
	t.muted("- mode: %s", n.Mode)
}

func (t *Text) Channels(c Channels) {
	t.heading("Node current score: %d", c.Baseline.Score)
	var none []string
	for _, ch := range c.Contributions {
		alias := SanitizeAlias(ch.PeerAlias)
		if !ch.Positive() {
			none = append(none, alias)
			continue
		}
		peer := "n/a"
		if ch.PeerKnown {
			peer = fmt.Sprint(ch.PeerScore)
		}
		fmt.Fprintf(t.W, "%-24.24s %s %8d: %s %+d\n", alias, ch.PeerID, ch.Capacity, peer, ch.Contribution)
	}
	fmt.Fprintln(t.W, "No connectivity contribution: "+strings.Join(none, ", "))
}

func (t *Text) Status(s Status) {
	sum := s.Summary
	t.heading("Wallet funds (BTC):")
	fmt.Fprintf(t.W, "- Confirmed:   %11.8f\n", float64(sum.WalletConfirmed)/SatsPerBTC)
	fmt.Fprintf(t.W, "- Unconfirmed: %11.8f\n", float64(sum.WalletUnconfirmed)/SatsPerBTC)
	fmt.Fprintf(t.W, "- TOTAL:       %11.8f\n", float64(sum.WalletTotal())/SatsPerBTC)

	ref := ""
	if sum.RefDay != "" {
		ref = fmt.Sprintf("(ref: %d days ago)", sum.Since)
	}
	t.heading("Channels: %s", ref)
	t.muted("- filter: %s", s.Filter)
	for _, c := range s.Channels {
		fmt.Fprintln(t.W, t.channelLine(c))
	}

	t.heading("Node summary:")
	fmt.Fprintf(t.W, "- # of channels   : %d\n", len(sum.Channels))
	fmt.Fprintf(t.W, "- Capacity        : %s (%s + %s)\n",
		BTC(float64(sum.Capacity())), BTC(float64(sum.InputCapacity)), BTC(float64(sum.OutputCapacity)))
	fmt.Fprintf(t.W, "- Routed payments : %d\n", sum.InPayments)
	fmt.Fprintf(t.W, "- Routed amount   : %s BTC\n", BTC(sum.RoutedAmount))
	fmt.Fprintf(t.W, "- Routed capacity : %.2f\n", sum.RoutedCapacity())
	fmt.Fprintf(t.W, "- Node Value      : %s BTC\n", BTC(float64(sum.NodeValue())))
	fmt.Fprintf(t.W, "- Fees collected  : %.0f sats\n", sum.FeesCollected)
}

func (t *Text) channelLine(c *node.Channel) string {
	payments := fmt.Sprintf("%-8s %4d", fmt.Sprintf("%4d-%d", c.InPayments, c.OutPayments), c.TotalPayments)
	settle := "  n/a "
	if c.SettleRate != nil {
		settle = fmt.Sprintf("%5.1f%%", *c.SettleRate)
	}
	return fmt.Sprintf("- %-13s  %s  %s  %s  %s  %5.1f  %6.2f  %s  %s (%d/%d)",
		c.ShortID,
		PeerID(c.Alias, c.PeerID, t.Verbosity),
		Capacity(c.InputCapacity, c.OutputCapacity, t.Verbosity),
		payments,
		Age(c.Age),
		c.TxPerDay,
		c.RoutedCapacity,
		settle,
		c.State,
		c.BaseFeeMsat,
		c.PPMFee)
}

func (t *Text) FeePlan(f FeePlan) {
	verb := "Updating"
	if f.DryRun {
		verb = "Planned (dry run)"
	}
	t.heading("%s channel fees, policy %s", verb, f.Policy)
	for _, id := range f.Skipped {
		fmt.Fprintf(t.W, "%-13s skipped\n", id)
	}
	for _, c := range f.Changes {
		fmt.Fprintf(t.W, "%-13s %4.0f%%  %5d/%5d -> %5d/%5d\n",
			c.ShortID, c.OutRatio*100, c.OldBase, c.OldPPM, c.NewBase, c.NewPPM)
	}
	if len(f.Changes) == 0 {
		t.muted("nothing to change")
	}
}

// Lookup prints each match as indented JSON.
func (t *Text) Lookup(l Lookup) error {
	for _, m := range l.Matches {
		b, err := json.MarshalIndent(m, "", "   ")
		if err != nil {
			return err
		}
		fmt.Fprintln(t.W, string(b))
		fmt.Fprintln(t.W, "--------------------------")
	}
	return nil
}
