package report

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// SatsPerBTC converts satoshi amounts for display.
const SatsPerBTC = 100_000_000

// SanitizeAlias replaces every character outside printable ASCII with "!".
func SanitizeAlias(alias string) string {
	var b strings.Builder
	for _, r := range alias {
		if r <= unicode.MaxASCII && (unicode.IsPrint(r) || unicode.IsSpace(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('!')
		}
	}
	return b.String()
}

// PeerID renders an alias and node id; higher verbosity shows more of the id.
//
//	1    12-char alias, 4-char id prefix
//	2-4  16-char alias, id head and tail
//	5    24-char alias, full id
func PeerID(alias, id string, verbosity int) string {
	alias = SanitizeAlias(alias)
	switch {
	case verbosity >= 5:
		return fmt.Sprintf("%-24.24s %s", alias, id)
	case verbosity <= 1:
		return fmt.Sprintf("%-12.12s %s...", alias, head(id, 4))
	default:
		return fmt.Sprintf("%-16.16s %s...%s", alias, head(id, 8), tail(id, 8))
	}
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// BTC formats satoshis as bitcoin with eight decimals.
func BTC(sats float64) string {
	return fmt.Sprintf("%.8f", sats/SatsPerBTC)
}

// Capacity shows the inbound/outbound split as bars up to verbosity 3 and as
// amounts above.
func Capacity(in, out int64, verbosity int) string {
	total := in + out
	if verbosity <= 3 {
		var inBars, outBars int
		if total > 0 {
			inBars = int(math.RoundToEven(float64(in) / float64(total) * 10))
			outBars = int(math.RoundToEven(float64(out) / float64(total) * 10))
		}
		return fmt.Sprintf("%10s|%-10s %11.8f",
			strings.Repeat("=", inBars), strings.Repeat("=", outBars), float64(total)/SatsPerBTC)
	}
	amount := func(v int64) string {
		if v == 0 {
			return strings.Repeat(" ", 10)
		}
		return fmt.Sprintf("%10.8f", float64(v)/SatsPerBTC)
	}
	return fmt.Sprintf("%s-%s  %10.8f", amount(in), amount(out), float64(total)/SatsPerBTC)
}

// Age renders a channel age given in days.
func Age(days float64) string {
	switch d := int(days); {
	case days < 1:
		return "   today "
	case d == 1:
		return " 1 day   "
	case d < 90:
		return fmt.Sprintf("%2d days  ", d)
	default:
		return fmt.Sprintf("%2d months", (d+15)/30)
	}
}
