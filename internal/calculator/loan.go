package calculator

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Default financing assumptions applied to every new-car payment.
const (
	DefaultTermMonths = 60
	DefaultAnnualRate = 7.5 // percent
)

// Loan describes a fixed-rate, monthly-compounded car loan.
//
// PRESENT VALUE AND PAYMENT:
// With r = AnnualRate/12/100 and n = TermMonths:
//
//	principal = payment * (1 - (1+r)^-n) / r
//	payment   = principal * r / (1 - (1+r)^-n)
//
// The two are algebraic inverses. At r == 0 both collapse to a straight
// division of the principal over the term.
type Loan struct {
	TermMonths int
	AnnualRate float64
}

// DefaultLoan is the 60 month / 7.5% loan the calculator assumes.
var DefaultLoan = Loan{TermMonths: DefaultTermMonths, AnnualRate: DefaultAnnualRate}

func (l Loan) monthlyRate() float64 {
	return l.AnnualRate / 12 / 100
}

// Principal converts a monthly payment into the amount it pays off over the term.
// Non-finite input comes back non-finite; callers decide how to show it.
func (l Loan) Principal(monthly float64) float64 {
	r := l.monthlyRate()
	n := float64(l.TermMonths)
	if r == 0 {
		return monthly * n
	}
	return monthly * (1 - math.Pow(1+r, -n)) / r
}

// Payment converts a principal into the monthly payment that retires it over the term.
func (l Loan) Payment(principal float64) float64 {
	r := l.monthlyRate()
	n := float64(l.TermMonths)
	if r == 0 {
		return principal / n
	}
	return principal * r / (1 - math.Pow(1+r, -n))
}

// EstimateLabel is the hint shown under the new-car payment field,
// e.g. "$19,962 estimated total (60mos @ %7.5)". It is empty for
// payments that are missing or not positive.
func (l Loan) EstimateLabel(payment Number) string {
	v, ok := payment.Get()
	if !ok || !(v > 0) {
		return ""
	}
	total := math.Round(l.Principal(v))
	if math.IsInf(total, 0) {
		return ""
	}
	amount := groupDigits(strconv.FormatFloat(total, 'f', 0, 64))
	if total < humanizeLimit {
		amount = humanize.Comma(int64(total))
	}
	return fmt.Sprintf("$%s estimated total (%dmos @ %%%s)",
		amount,
		l.TermMonths,
		strconv.FormatFloat(l.AnnualRate, 'f', -1, 64),
	)
}

// EstimateCarCost is DefaultLoan.Principal.
func EstimateCarCost(monthly float64) float64 {
	return DefaultLoan.Principal(monthly)
}

// CalculateMonthlyPayment is DefaultLoan.Payment.
func CalculateMonthlyPayment(principal float64) float64 {
	return DefaultLoan.Payment(principal)
}
