package calculator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// NonFiniteMarker is what FormatMoney prints for NaN and ±Inf.
const NonFiniteMarker = "ERR"

// humanizeLimit is the largest magnitude handed to humanize. Its formatters
// go through int64, so anything near 9.2e18 wraps negative; well before that
// a float64 stops carrying cents anyway.
const humanizeLimit = 1e15

// FormatMoney renders a dollar amount with two decimals and thousands
// separators: 1234.5 → "$1,234.50", -3 → "-$3.00".
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NonFiniteMarker
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v >= humanizeLimit {
		return sign + "$" + groupDigits(strconv.FormatFloat(v, 'f', 2, 64))
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", v)
}

// groupDigits inserts thousands separators into the integer part of an
// unsigned decimal string: "1234567.50" → "1,234,567.50".
func groupDigits(s string) string {
	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// VerdictKind classifies a comparison by the sign of the monthly difference.
type VerdictKind string

const (
	Savings   VerdictKind = "savings"
	Loss      VerdictKind = "loss"
	BreakEven VerdictKind = "break_even"
	// Indeterminate is used when the difference is NaN or infinite.
	Indeterminate VerdictKind = "indeterminate"
)

// Verdict says whether switching cars saves or costs money, and how much.
// Monthly and Annual are magnitudes; Kind carries the direction.
type Verdict struct {
	Kind    VerdictKind `json:"kind"`
	Monthly Amount      `json:"monthly"`
	Annual  Amount      `json:"annual"`
}

// VerdictFor classifies difference = current total - new total.
func VerdictFor(difference float64) Verdict {
	if math.IsNaN(difference) || math.IsInf(difference, 0) {
		return Verdict{Kind: Indeterminate, Monthly: Amount(difference), Annual: Amount(difference)}
	}

	magnitude := math.Abs(difference)
	v := Verdict{Monthly: Amount(magnitude), Annual: Amount(magnitude * 12)}
	switch {
	case difference > 0:
		v.Kind = Savings
	case difference < 0:
		v.Kind = Loss
	default:
		v.Kind = BreakEven
	}
	return v
}

// Headline is the large line of the verdict box.
func (v Verdict) Headline() string {
	switch v.Kind {
	case Savings:
		return fmt.Sprintf("You'll SAVE %s per month!", v.Monthly)
	case Loss:
		return fmt.Sprintf("You'll LOSE %s per month!", v.Monthly)
	case BreakEven:
		return "Break Even"
	default:
		return "Unable to compare"
	}
}

// Details is the smaller line under the headline.
func (v Verdict) Details() string {
	switch v.Kind {
	case Savings:
		return fmt.Sprintf("That's %s per year in savings.", v.Annual)
	case Loss:
		return fmt.Sprintf("The new car will cost you %s more per year.", v.Annual)
	case BreakEven:
		return "Both cars cost the same per month."
	default:
		return "One or more inputs are missing or zero."
	}
}

// String is a compact one-line form, e.g. "savings $20.00/month, $240.00/year".
func (v Verdict) String() string {
	switch v.Kind {
	case Savings, Loss:
		return fmt.Sprintf("%s %s/month, %s/year", v.Kind, v.Monthly, v.Annual)
	case BreakEven:
		return "break-even"
	default:
		return string(Indeterminate)
	}
}
