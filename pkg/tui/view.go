package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lcwatch/lcw/pkg/node"
	"github.com/lcwatch/lcw/pkg/report"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF99"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00CCFF"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Width(18)
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.viewHeader())
	switch m.state {
	case stateDetail:
		b.WriteString(m.viewDetail())
	case stateHelp:
		b.WriteString(m.viewHelp())
	default:
		b.WriteString(m.viewList())
	}
	b.WriteString(m.viewFooter())
	return b.String()
}

func (m Model) viewHeader() string {
	if m.summary == nil {
		return titleStyle.Render("lcw channels") + "\n\n"
	}
	s := m.summary
	head := fmt.Sprintf("lcw channels  %d shown / %d total  capacity %s BTC  routed %d",
		len(m.channels), len(s.Channels), report.BTC(float64(s.Capacity())), s.InPayments)
	return titleStyle.Render(head) + "\n\n"
}

func (m Model) viewList() string {
	var b strings.Builder
	if len(m.channels) == 0 {
		b.WriteString("   " + dimStyle.Render("No channels match.") + "\n")
		return b.String()
	}

	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-13s  %-16s %12s %12s  %9s  %6s  %s",
		"SHORT ID", "ALIAS", "IN", "OUT", "PAYMENTS", "TX/DAY", "STATE")) + "\n")

	status := fmt.Sprintf(" [FILTER: %s]", m.filter)
	if sk := SortKeys[m.sortIndex]; sk != "" {
		status += fmt.Sprintf(" [SORT: %s]", sk)
	}
	b.WriteString(warnStyle.Render("  "+status) + "\n")

	start, end := m.calculateWindow(len(m.channels))
	for i := start; i < end; i++ {
		c := m.channels[i]
		line := fmt.Sprintf("%-13s  %-16.16s %12d %12d  %4d-%-4d  %6.2f  %s",
			c.ShortID, report.SanitizeAlias(c.Alias), c.InputCapacity, c.OutputCapacity,
			c.InPayments, c.OutPayments, c.TxPerDay, c.State)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	if end < len(m.channels) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", len(m.channels)-end)) + "\n")
	}
	return b.String()
}

func (m Model) viewDetail() string {
	c, ok := m.Selected()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Channel %s", c.ShortID)) + "\n")
	for _, row := range detailRows(c, m.verbosity) {
		b.WriteString(labelStyle.Render(row[0]) + row[1] + "\n")
	}
	return b.String()
}

func detailRows(c *node.Channel, verbosity int) [][2]string {
	settle := "n/a"
	if c.SettleRate != nil {
		settle = fmt.Sprintf("%.1f%%", *c.SettleRate)
	}
	return [][2]string{
		{"Peer", report.PeerID(c.Alias, c.PeerID, max(verbosity, 5))},
		{"State", c.State},
		{"Capacity", report.Capacity(c.InputCapacity, c.OutputCapacity, verbosity)},
		{"Fees", fmt.Sprintf("%d msat + %d ppm", c.BaseFeeMsat, c.PPMFee)},
		{"Payments in/out", fmt.Sprintf("%d / %d (offered %d / %d)", c.InPayments, c.OutPayments, c.InPaymentsOffered, c.OutPaymentsOffered)},
		{"Routed amount", report.BTC(c.RoutedAmount) + " BTC"},
		{"Routed capacity", fmt.Sprintf("%.2f", c.RoutedCapacity)},
		{"Settle rate", settle},
		{"Age", strings.TrimSpace(report.Age(c.Age))},
		{"Tx per day", fmt.Sprintf("%.2f", c.TxPerDay)},
	}
}

func (m Model) viewHelp() string {
	var b strings.Builder
	for _, k := range m.keys.bindings() {
		if !k.Enabled() {
			continue
		}
		h := k.Help()
		b.WriteString(fmt.Sprintf("  %-8s %s\n", h.Key, h.Desc))
	}
	return b.String()
}

func (m Model) viewFooter() string {
	var b strings.Builder
	b.WriteString("\n")
	if m.statusMsg != "" {
		b.WriteString(warnStyle.Render(m.statusMsg) + "\n")
	}
	b.WriteString(dimStyle.Render("↑/↓ move • enter details • s sort • i ignore • ? help • q quit"))
	return b.String()
}
