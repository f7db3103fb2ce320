// Package lightning talks to a c-lightning daemon through lightning-cli and
// decodes the handful of RPC responses the analysis needs.
package lightning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lcwatch/lcw/pkg/graph"
)

// Msat is an amount in millisatoshi. Daemons encode it either as a number or
// as a string with an "msat" suffix.
type Msat int64

func (m *Msat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = 0
		return nil
	}
	s := strings.TrimSuffix(strings.Trim(string(b), `"`), "msat")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid msat amount %s: %w", b, err)
	}
	*m = Msat(v)
	return nil
}

// Sats truncates to whole satoshis.
func (m Msat) Sats() int64 {
	return int64(m) / 1000
}

// Info is the getinfo response.
type Info struct {
	ID          string `json:"id"`
	Alias       string `json:"alias"`
	BlockHeight int64  `json:"blockheight"`
	// Older daemons report msatoshi_fees_collected, newer ones
	// fees_collected_msat.
	MsatoshiFeesCollected Msat `json:"msatoshi_fees_collected"`
	FeesCollectedMsat     Msat `json:"fees_collected_msat"`
}

// FeesCollected returns the routing fees earned in millisatoshi.
func (i Info) FeesCollected() Msat {
	if i.FeesCollectedMsat != 0 {
		return i.FeesCollectedMsat
	}
	return i.MsatoshiFeesCollected
}

// Funds is the listfunds response.
type Funds struct {
	Outputs  []Output      `json:"outputs"`
	Channels []FundChannel `json:"channels"`
}

// Output is an on-chain wallet output.
type Output struct {
	TxID   string `json:"txid"`
	Value  int64  `json:"value"`
	Status string `json:"status"`
}

// Confirmed reports whether the output has been mined.
func (o Output) Confirmed() bool {
	return o.Status == "confirmed"
}

// FundChannel is one of our own channels as seen by listfunds. Channels that
// are still being opened have no short channel id.
type FundChannel struct {
	PeerID          string `json:"peer_id"`
	ShortChannelID  string `json:"short_channel_id,omitempty"`
	ChannelSat      int64  `json:"channel_sat"`
	ChannelTotalSat int64  `json:"channel_total_sat"`
	State           string `json:"state"`
}

// Channel is a single directed entry of listchannels.
type Channel struct {
	Source          string `json:"source"`
	Destination     string `json:"destination"`
	ShortChannelID  string `json:"short_channel_id"`
	Public          bool   `json:"public"`
	Active          bool   `json:"active"`
	Satoshis        *int64 `json:"satoshis,omitempty"`
	AmountMsat      *Msat  `json:"amount_msat,omitempty"`
	LastUpdate      int64  `json:"last_update"`
	BaseFeeMsat     int64  `json:"base_fee_millisatoshi"`
	FeePerMillionth int64  `json:"fee_per_millionth"`
}

// Capacity returns the channel size in satoshis from whichever field the
// daemon filled in.
func (c Channel) Capacity() (int64, bool) {
	switch {
	case c.Satoshis != nil:
		return *c.Satoshis, true
	case c.AmountMsat != nil:
		return c.AmountMsat.Sats(), true
	}
	return 0, false
}

// Record converts the entry into a graph input record. A channel without any
// capacity field yields a record the graph rejects.
func (c Channel) Record() graph.ChannelRecord {
	r := graph.ChannelRecord{
		ShortChannelID: c.ShortChannelID,
		Source:         c.Source,
		Destination:    c.Destination,
		Public:         c.Public,
	}
	if sats, ok := c.Capacity(); ok {
		r.Satoshis = graph.Sats(sats)
	}
	return r
}

// Records converts a listchannels response.
func Records(channels []Channel) []graph.ChannelRecord {
	out := make([]graph.ChannelRecord, 0, len(channels))
	for _, c := range channels {
		out = append(out, c.Record())
	}
	return out
}

// Peer is a listpeers entry.
type Peer struct {
	ID        string        `json:"id"`
	Connected bool          `json:"connected"`
	Channels  []PeerChannel `json:"channels"`
}

// PeerChannel carries the forwarding counters of one of our channels.
type PeerChannel struct {
	State                string `json:"state"`
	ShortChannelID       string `json:"short_channel_id,omitempty"`
	InPaymentsOffered    int64  `json:"in_payments_offered"`
	OutPaymentsOffered   int64  `json:"out_payments_offered"`
	InPaymentsFulfilled  int64  `json:"in_payments_fulfilled"`
	OutPaymentsFulfilled int64  `json:"out_payments_fulfilled"`
	InMsatOffered        Msat   `json:"in_msatoshi_offered"`
	OutMsatOffered       Msat   `json:"out_msatoshi_offered"`
	InMsatFulfilled      Msat   `json:"in_msatoshi_fulfilled"`
	OutMsatFulfilled     Msat   `json:"out_msatoshi_fulfilled"`
}

// NodeInfo is a listnodes entry. Nodes without an announcement carry no alias.
type NodeInfo struct {
	NodeID string `json:"nodeid"`
	Alias  string `json:"alias,omitempty"`
}

// Aliases builds the node id to alias table.
func Aliases(nodes []NodeInfo) map[string]string {
	out := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if n.Alias != "" {
			out[n.NodeID] = n.Alias
		}
	}
	return out
}

type channelsResponse struct {
	Channels []Channel `json:"channels"`
}

// UnmarshalJSON decodes every entry on its own. An entry that does not decode
// is logged and kept as a capacity-less channel, which the graph skips and
// counts.
func (r *channelsResponse) UnmarshalJSON(b []byte) error {
	var raw struct {
		Channels []json.RawMessage `json:"channels"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Channels = make([]Channel, 0, len(raw.Channels))
	for i, entry := range raw.Channels {
		var c Channel
		if err := json.Unmarshal(entry, &c); err != nil {
			var id struct {
				Source         string `json:"source"`
				Destination    string `json:"destination"`
				ShortChannelID string `json:"short_channel_id"`
			}
			_ = json.Unmarshal(entry, &id)
			slog.Warn("skipping undecodable channel entry",
				"index", i, "short_channel_id", id.ShortChannelID, "error", err)
			c = Channel{Source: id.Source, Destination: id.Destination, ShortChannelID: id.ShortChannelID}
		}
		r.Channels = append(r.Channels, c)
	}
	return nil
}

type peersResponse struct {
	Peers []Peer `json:"peers"`
}

type nodesResponse struct {
	Nodes []NodeInfo `json:"nodes"`
}
