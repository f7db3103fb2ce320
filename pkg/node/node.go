// Package node summarises the local node: wallet, channels and forwarding
// statistics.
package node

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lcwatch/lcw/pkg/history"
	"github.com/lcwatch/lcw/pkg/lightning"
)

const (
	// blockInterval approximates the time between two blocks.
	blockInterval = 600 * time.Second
	day           = 24 * time.Hour
	unknownAlias  = "?"
	newPrefix     = "new-"
)

// Channel is one of our channels with derived statistics. Counters are
// relative to the reference day when one is set.
type Channel struct {
	PeerID         string `json:"peer_id" yaml:"peer_id"`
	ShortID        string `json:"short_id" yaml:"short_id"`
	Alias          string `json:"alias" yaml:"alias"`
	State          string `json:"state" yaml:"state"`
	New            bool   `json:"new_channel" yaml:"new_channel"`
	InputCapacity  int64  `json:"input_capacity" yaml:"input_capacity"`
	OutputCapacity int64  `json:"output_capacity" yaml:"output_capacity"`
	LastUpdate     int64  `json:"last_update" yaml:"last_update"`
	BaseFeeMsat    int64  `json:"base_fee_msat" yaml:"base_fee_msat"`
	PPMFee         int64  `json:"ppm_fee" yaml:"ppm_fee"`

	InPaymentsOffered  int64 `json:"in_payments_offered" yaml:"in_payments_offered"`
	OutPaymentsOffered int64 `json:"out_payments_offered" yaml:"out_payments_offered"`
	InPayments         int64 `json:"in_payments" yaml:"in_payments"`
	OutPayments        int64 `json:"out_payments" yaml:"out_payments"`
	InMsatFulfilled    int64 `json:"in_msatoshi_fulfilled" yaml:"in_msatoshi_fulfilled"`
	OutMsatFulfilled   int64 `json:"out_msatoshi_fulfilled" yaml:"out_msatoshi_fulfilled"`
	InMsatOffered      int64 `json:"in_msatoshi_offered" yaml:"in_msatoshi_offered"`
	OutMsatOffered     int64 `json:"out_msatoshi_offered" yaml:"out_msatoshi_offered"`

	TotalPayments        int64    `json:"total_payments" yaml:"total_payments"`
	TotalPaymentsOffered int64    `json:"total_payments_offered" yaml:"total_payments_offered"`
	RoutedAmount         float64  `json:"routed_amount" yaml:"routed_amount"`
	RoutedCapacity       float64  `json:"routed_capacity" yaml:"routed_capacity"`
	SettleRate           *float64 `json:"settle_rate" yaml:"settle_rate"`
	FundingBlock         int64    `json:"funding_block" yaml:"funding_block"`
	Age                  float64  `json:"age" yaml:"age"`
	TxPerDay             float64  `json:"tx_per_day" yaml:"tx_per_day"`
}

func (c *Channel) TotalCapacity() int64 {
	return c.InputCapacity + c.OutputCapacity
}

// Fields exposes the channel to filters and sort keys.
func (c *Channel) Fields() map[string]any {
	var settle any
	if c.SettleRate != nil {
		settle = *c.SettleRate
	}
	return map[string]any{
		"peer_id":                c.PeerID,
		"short_id":               c.ShortID,
		"alias":                  c.Alias,
		"state":                  c.State,
		"new_channel":            c.New,
		"input_capacity":         c.InputCapacity,
		"output_capacity":        c.OutputCapacity,
		"total_capacity":         c.TotalCapacity(),
		"last_update":            c.LastUpdate,
		"in_payments_offered":    c.InPaymentsOffered,
		"out_payments_offered":   c.OutPaymentsOffered,
		"in_payments":            c.InPayments,
		"out_payments":           c.OutPayments,
		"in_msatoshi_fulfilled":  c.InMsatFulfilled,
		"out_msatoshi_fulfilled": c.OutMsatFulfilled,
		"in_msatoshi_offered":    c.InMsatOffered,
		"out_msatoshi_offered":   c.OutMsatOffered,
		"total_payments":         c.TotalPayments,
		"total_payments_offered": c.TotalPaymentsOffered,
		"base_fee_msat":          c.BaseFeeMsat,
		"ppm_fee":                c.PPMFee,
		"funding_block":          c.FundingBlock,
		"routed_amount":          c.RoutedAmount,
		"routed_capacity":        c.RoutedCapacity,
		"age":                    c.Age,
		"tx_per_day":             c.TxPerDay,
		"settle_rate":            settle,
	}
}

// Reference is a stored day the counters are measured from.
type Reference struct {
	Day      string
	DaysAgo  int
	Snapshot history.Snapshot
}

// Input gathers the daemon responses a summary is built from.
type Input struct {
	Info    lightning.Info
	Funds   lightning.Funds
	Own     []lightning.Channel
	Peers   []lightning.Peer
	Nodes   []lightning.NodeInfo
	Ref     *Reference
	Ignored []string
}

// Summary is the state of the local node.
type Summary struct {
	ID          string `json:"id" yaml:"id"`
	BlockHeight int64  `json:"block_height" yaml:"block_height"`

	WalletConfirmed   int64 `json:"wallet_confirmed" yaml:"wallet_confirmed"`
	WalletUnconfirmed int64 `json:"wallet_unconfirmed" yaml:"wallet_unconfirmed"`

	// Channels keeps listfunds order.
	Channels       []*Channel `json:"channels" yaml:"channels"`
	InputCapacity  int64      `json:"input_capacity" yaml:"input_capacity"`
	OutputCapacity int64      `json:"output_capacity" yaml:"output_capacity"`
	InPayments     int64      `json:"in_payments" yaml:"in_payments"`
	OutPayments    int64      `json:"out_payments" yaml:"out_payments"`
	// RoutedAmount counts each forward once, in sats.
	RoutedAmount  float64 `json:"routed_amount" yaml:"routed_amount"`
	FeesCollected float64 `json:"fees_collected" yaml:"fees_collected"`

	// RefDay is empty unless counters are relative to a stored day.
	RefDay  string   `json:"ref_day,omitempty" yaml:"ref_day,omitempty"`
	Since   int      `json:"since,omitempty" yaml:"since,omitempty"`
	Ignored []string `json:"ignored,omitempty" yaml:"ignored,omitempty"`

	byID map[string]*Channel
}

func (s *Summary) WalletTotal() int64 {
	return s.WalletConfirmed + s.WalletUnconfirmed
}

func (s *Summary) Capacity() int64 {
	return s.InputCapacity + s.OutputCapacity
}

// RoutedCapacity is the routed amount relative to half the total capacity.
func (s *Summary) RoutedCapacity() float64 {
	if s.Capacity() == 0 {
		return 0
	}
	return s.RoutedAmount / float64(s.Capacity()) * 2
}

// NodeValue is what the node could spend: outbound liquidity plus wallet.
func (s *Summary) NodeValue() int64 {
	return s.OutputCapacity + s.WalletTotal()
}

// Channel looks up a channel by short id.
func (s *Summary) Channel(shortID string) (*Channel, bool) {
	c, ok := s.byID[shortID]
	return c, ok
}

// Build merges the daemon responses into a Summary. Channels reported by
// listchannels or listpeers but absent from listfunds are logged and skipped.
func Build(in Input, now time.Time, logger *slog.Logger) *Summary {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Summary{
		ID:            in.Info.ID,
		BlockHeight:   in.Info.BlockHeight,
		FeesCollected: float64(in.Info.FeesCollected()) / 1000,
		Ignored:       in.Ignored,
		byID:          make(map[string]*Channel),
	}

	var period float64
	if in.Ref != nil {
		if start, err := history.DayStart(in.Ref.Day); err == nil {
			s.RefDay = in.Ref.Day
			s.Since = in.Ref.DaysAgo
			period = now.Sub(start).Hours() / 24
		} else {
			logger.Warn("ignoring reference day", "day", in.Ref.Day, "error", err)
			in.Ref = nil
		}
	}

	for _, o := range in.Funds.Outputs {
		if o.Confirmed() {
			s.WalletConfirmed += o.Value
		} else {
			s.WalletUnconfirmed += o.Value
		}
	}

	newCount := 0
	for _, fc := range in.Funds.Channels {
		c := &Channel{
			PeerID:         fc.PeerID,
			ShortID:        fc.ShortChannelID,
			Alias:          unknownAlias,
			State:          fc.State,
			InputCapacity:  fc.ChannelTotalSat - fc.ChannelSat,
			OutputCapacity: fc.ChannelSat,
			LastUpdate:     now.Unix(),
		}
		if c.ShortID == "" {
			c.ShortID = newPrefix + strconv.Itoa(newCount)
			c.New = true
			newCount++
		}
		s.Channels = append(s.Channels, c)
		s.byID[c.ShortID] = c
		s.InputCapacity += c.InputCapacity
		s.OutputCapacity += c.OutputCapacity
	}

	for _, lc := range in.Own {
		c, ok := s.byID[lc.ShortChannelID]
		if !ok {
			logger.Warn("unknown channel in listchannels", "short_channel_id", lc.ShortChannelID)
			continue
		}
		c.LastUpdate = lc.LastUpdate
		c.BaseFeeMsat = lc.BaseFeeMsat
		c.PPMFee = lc.FeePerMillionth
	}

	refs := make(map[string]bool)
	for _, p := range in.Peers {
		for _, pc := range p.Channels {
			if pc.ShortChannelID == "" {
				continue
			}
			c, ok := s.byID[pc.ShortChannelID]
			if !ok {
				logger.Warn("unknown channel in listpeers", "short_channel_id", pc.ShortChannelID)
				continue
			}
			c.applyCounters(pc)
			if in.Ref != nil {
				if ref, ok := in.Ref.Snapshot[c.ShortID]; ok {
					c.subtract(ref)
					refs[c.ShortID] = true
				}
			}
			c.derive()

			s.InPayments += c.InPayments
			s.OutPayments += c.OutPayments
			s.RoutedAmount += float64(c.InMsatFulfilled+c.OutMsatFulfilled) / 2 / 1000
		}
	}

	for _, c := range s.Channels {
		c.FundingBlock = fundingBlock(c, s.BlockHeight)
		c.Age = float64(s.BlockHeight-c.FundingBlock) * blockInterval.Seconds() / day.Seconds()

		p := c.Age
		if refs[c.ShortID] {
			p = period
		}
		if p > 0 {
			c.TxPerDay = float64(c.TotalPayments) / p
		}
	}

	aliases := lightning.Aliases(in.Nodes)
	for _, c := range s.Channels {
		if alias, ok := aliases[c.PeerID]; ok {
			c.Alias = alias
		}
	}
	return s
}

func (c *Channel) applyCounters(pc lightning.PeerChannel) {
	c.InPaymentsOffered = pc.InPaymentsOffered
	c.OutPaymentsOffered = pc.OutPaymentsOffered
	c.InPayments = pc.InPaymentsFulfilled
	c.OutPayments = pc.OutPaymentsFulfilled
	c.InMsatFulfilled = int64(pc.InMsatFulfilled)
	c.OutMsatFulfilled = int64(pc.OutMsatFulfilled)
	c.InMsatOffered = int64(pc.InMsatOffered)
	c.OutMsatOffered = int64(pc.OutMsatOffered)
}

func (c *Channel) subtract(ref history.ChannelSnapshot) {
	c.InPayments -= ref.InPayments
	c.OutPayments -= ref.OutPayments
	c.InMsatFulfilled -= ref.InMsatFulfilled
	c.OutMsatFulfilled -= ref.OutMsatFulfilled
	if ref.HasOffered() {
		c.InPaymentsOffered -= ref.InPaymentsOffered
		c.OutPaymentsOffered -= ref.OutPaymentsOffered
		c.InMsatOffered -= *ref.InMsatOffered
		c.OutMsatOffered -= ref.OutMsatOffered
	}
}

func (c *Channel) derive() {
	c.TotalPaymentsOffered = c.InPaymentsOffered + c.OutPaymentsOffered
	c.TotalPayments = c.InPayments + c.OutPayments
	c.RoutedAmount = float64(c.InMsatFulfilled+c.OutMsatFulfilled) / 1000
	if total := c.TotalCapacity(); total > 0 {
		c.RoutedCapacity = c.RoutedAmount / float64(total)
	}
	c.SettleRate = nil
	if c.TotalPaymentsOffered != 0 {
		rate := float64(c.TotalPayments) / float64(c.TotalPaymentsOffered) * 100
		c.SettleRate = &rate
	}
}

// fundingBlock reads the block height from the short channel id. Channels
// still being opened count as funded at the current height.
func fundingBlock(c *Channel, height int64) int64 {
	if c.New {
		return height
	}
	block, _, _ := strings.Cut(c.ShortID, "x")
	n, err := strconv.ParseInt(block, 10, 64)
	if err != nil {
		return height
	}
	return n
}

// Snapshot captures the current counters for the history store.
func (s *Summary) Snapshot() history.Snapshot {
	snap := make(history.Snapshot, len(s.Channels))
	for _, c := range s.Channels {
		offered := c.InMsatOffered
		snap[c.ShortID] = history.ChannelSnapshot{
			PeerID:             c.PeerID,
			ShortID:            c.ShortID,
			Alias:              c.Alias,
			InputCapacity:      c.InputCapacity,
			OutputCapacity:     c.OutputCapacity,
			State:              c.State,
			InPayments:         c.InPayments,
			OutPayments:        c.OutPayments,
			InMsatFulfilled:    c.InMsatFulfilled,
			OutMsatFulfilled:   c.OutMsatFulfilled,
			InPaymentsOffered:  c.InPaymentsOffered,
			OutPaymentsOffered: c.OutPaymentsOffered,
			InMsatOffered:      &offered,
			OutMsatOffered:     c.OutMsatOffered,
		}
	}
	return snap
}
