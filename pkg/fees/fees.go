// Package fees derives per-channel ppm fees from outbound liquidity.
package fees

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/lcwatch/lcw/pkg/lightning"
	"github.com/lcwatch/lcw/pkg/node"
)

// BaseFee is the base fee every planned channel is set to.
const BaseFee = 0

// DefaultPolicy is "50/-40/2000".
var DefaultPolicy = Policy{K: 50, Offset: -40, Max: 2000}

// Policy sets ppm = K/outRatio + Offset, rounded to tens and capped at Max.
// Channels currently at 0 ppm are left alone unless Force is set.
type Policy struct {
	K      int  `json:"k" yaml:"k"`
	Offset int  `json:"offset" yaml:"offset"`
	Max    int  `json:"max" yaml:"max"`
	Force  bool `json:"force" yaml:"force"`
}

// ParsePolicy reads "<k>/<offset>/<max>".
func ParsePolicy(s string) (Policy, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Policy{}, fmt.Errorf("invalid fee policy %q (want k/offset/max)", s)
	}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Policy{}, fmt.Errorf("invalid fee policy %q: %w", s, err)
		}
		vals[i] = v
	}
	if vals[2] < 0 {
		return Policy{}, fmt.Errorf("invalid fee policy %q: negative max", s)
	}
	return Policy{K: vals[0], Offset: vals[1], Max: vals[2]}, nil
}

func (p Policy) String() string {
	return fmt.Sprintf("%d/%d/%d", p.K, p.Offset, p.Max)
}

// PPM computes the fee for an outbound ratio in [0, 1].
func (p Policy) PPM(outRatio float64) int64 {
	if outRatio <= 0 {
		return int64(p.Max)
	}
	ppm := int64(math.RoundToEven((float64(p.K)/outRatio+float64(p.Offset))/10) * 10)
	if ppm > int64(p.Max) {
		return int64(p.Max)
	}
	return ppm
}

// Change is a planned fee update.
type Change struct {
	ShortID  string  `json:"short_channel_id" yaml:"short_channel_id"`
	Alias    string  `json:"alias" yaml:"alias"`
	OutRatio float64 `json:"out_ratio" yaml:"out_ratio"`
	OldBase  int64   `json:"old_base_msat" yaml:"old_base_msat"`
	OldPPM   int64   `json:"old_ppm" yaml:"old_ppm"`
	NewBase  int64   `json:"new_base_msat" yaml:"new_base_msat"`
	NewPPM   int64   `json:"new_ppm" yaml:"new_ppm"`
}

// Plan returns the changes p implies for channels, in channel order, plus the
// ids of channels it skipped. Channels whose fees already match are dropped.
func Plan(channels []*node.Channel, p Policy) (changes []Change, skipped []string) {
	for _, c := range channels {
		total := c.TotalCapacity()
		if c.New || total == 0 || (c.PPMFee == 0 && !p.Force) {
			skipped = append(skipped, c.ShortID)
			continue
		}
		ratio := float64(c.OutputCapacity) / float64(total)
		ppm := p.PPM(ratio)
		if c.BaseFeeMsat == BaseFee && ppm == c.PPMFee {
			continue
		}
		changes = append(changes, Change{
			ShortID:  c.ShortID,
			Alias:    c.Alias,
			OutRatio: ratio,
			OldBase:  c.BaseFeeMsat,
			OldPPM:   c.PPMFee,
			NewBase:  BaseFee,
			NewPPM:   ppm,
		})
	}
	return changes, skipped
}

// Apply pushes every change to the daemon. A failed update does not stop
// the others; all failures are returned joined.
func Apply(ctx context.Context, client lightning.Client, changes []Change) error {
	var errs []error
	for _, ch := range changes {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := client.SetChannelFee(ctx, ch.ShortID, int(ch.NewBase), int(ch.NewPPM)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.ShortID, err))
			continue
		}
		slog.Info("channel fee updated",
			"short_channel_id", ch.ShortID,
			"base_msat", ch.NewBase,
			"ppm", ch.NewPPM,
			"previous_ppm", ch.OldPPM)
	}
	return errors.Join(errs...)
}
