package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects how a report is written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts the --output flag values.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json, yaml or csv)", s)
}

// Write renders v to w in the given format.
func Write(w io.Writer, format Format, verbosity int, v any) error {
	switch format {
	case FormatText, "":
		return (&Text{W: w, Verbosity: verbosity}).Render(v)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return writeCSV(w, v)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// writeCSV flattens the list part of a report, one record per row.
func writeCSV(w io.Writer, v any) error {
	header, rows, err := table(v)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func table(v any) ([]string, [][]string, error) {
	var rows [][]string
	switch r := v.(type) {
	case Peers:
		for i, c := range r.Candidates {
			rows = append(rows, []string{strconv.Itoa(i + 1), c.NodeID, c.Alias, strconv.Itoa(c.Degree), strconv.Itoa(c.Score), strconv.Itoa(c.Delta)})
		}
		return []string{"Rank", "NodeID", "Alias", "Degree", "Score", "Delta"}, rows, nil
	case Nodes:
		for i, n := range r.Nodes {
			rows = append(rows, []string{strconv.Itoa(i + 1), n.NodeID, n.Alias, strconv.Itoa(n.Degree), strconv.Itoa(n.Score)})
		}
		return []string{"Rank", "NodeID", "Alias", "Degree", "Score"}, rows, nil
	case Channels:
		for _, c := range r.Contributions {
			peer := ""
			if c.PeerKnown {
				peer = strconv.Itoa(c.PeerScore)
			}
			rows = append(rows, []string{c.ChannelID, c.PeerID, c.PeerAlias, itoa(c.Capacity), strconv.Itoa(c.WithoutScore), strconv.Itoa(c.Contribution), peer})
		}
		return []string{"ShortChannelID", "PeerID", "PeerAlias", "Capacity", "WithoutScore", "Contribution", "PeerScore"}, rows, nil
	case Status:
		for _, c := range r.Channels {
			settle := ""
			if c.SettleRate != nil {
				settle = ftoa(*c.SettleRate)
			}
			rows = append(rows, []string{c.ShortID, c.PeerID, c.Alias, c.State, itoa(c.InputCapacity), itoa(c.OutputCapacity),
				itoa(c.InPayments), itoa(c.OutPayments), ftoa(c.Age), ftoa(c.TxPerDay), ftoa(c.RoutedCapacity), settle,
				itoa(c.BaseFeeMsat), itoa(c.PPMFee)})
		}
		return []string{"ShortID", "PeerID", "Alias", "State", "InputCapacity", "OutputCapacity", "InPayments", "OutPayments",
			"Age", "TxPerDay", "RoutedCapacity", "SettleRate", "BaseFeeMsat", "PPMFee"}, rows, nil
	case FeePlan:
		for _, c := range r.Changes {
			rows = append(rows, []string{c.ShortID, c.Alias, ftoa(c.OutRatio), itoa(c.OldBase), itoa(c.OldPPM), itoa(c.NewBase), itoa(c.NewPPM)})
		}
		return []string{"ShortChannelID", "Alias", "OutRatio", "OldBase", "OldPPM", "NewBase", "NewPPM"}, rows, nil
	}
	return nil, nil, fmt.Errorf("no csv form for %T", v)
}
