package calculator

import (
	"encoding/json"
	"math"
)

// Amount is a computed currency value. It may be NaN or ±Inf when an input
// was missing or an mpg was zero; such values encode as JSON null and print
// as an error marker instead of a number.
type Amount float64

// Finite reports whether the amount is a real number.
func (a Amount) Finite() bool {
	f := float64(a)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// String formats the amount as money, see FormatMoney.
func (a Amount) String() string {
	return FormatMoney(float64(a))
}

// MarshalJSON writes non-finite amounts as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Finite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(a))
}

// Side is the monthly cost breakdown of one car.
type Side struct {
	Fuel        Amount `json:"fuel"`
	Payment     Amount `json:"payment"`
	Insurance   Amount `json:"insurance"`
	Maintenance Amount `json:"maintenance"`
	Total       Amount `json:"total"`
}

// TradeIn explains how a trade-in lowered the new car's payment.
type TradeIn struct {
	NewCarCost        Amount `json:"new_car_cost"`
	Value             Amount `json:"value"`
	PrincipalFinanced Amount `json:"principal_financed"`
}

// Result is the outcome of one comparison.
type Result struct {
	Current    Side     `json:"current"`
	New        Side     `json:"new"`
	TradeIn    *TradeIn `json:"trade_in,omitempty"`
	Difference Amount   `json:"difference"`
	Verdict    Verdict  `json:"verdict"`

	// Snapshot is the coerced copy of the input that produced this result.
	Snapshot Snapshot `json:"-"`
}

// Compare runs the comparison with DefaultLoan.
func Compare(in Input) Result {
	return DefaultLoan.Compare(in)
}

// Compare computes both monthly totals and the verdict.
//
// The new car's payment is re-financed around the trade-in: the entered
// payment is turned back into a purchase price, the trade-in comes off that
// price, and whatever principal is left is turned into a payment again.
// A trade-in worth more than the car leaves no payment at all.
//
// Missing fields follow one rule: trade-in counts as 0, every other field
// becomes NaN and poisons the totals that use it. A zero mpg divides to
// +Inf the same way. Neither case is an error.
func (l Loan) Compare(in Input) Result {
	miles := in.DrivingHabits.MilesPerMonth.OrNaN()
	tradeIn := in.CurrentCar.TradeIn.Or(0)

	current := side(
		miles,
		in.CurrentCar.MPG.OrNaN(),
		in.CurrentCar.GasPrice.OrNaN(),
		in.CurrentCar.Payment.OrNaN(),
		in.CurrentCar.Insurance.OrNaN(),
		in.CurrentCar.Maintenance.OrNaN(),
	)

	newCarCost := l.Principal(in.NewCar.Payment.OrNaN())
	principal := newCarCost - tradeIn
	adjustedPayment := 0.0
	// NaN fails this comparison, so force it through explicitly.
	if principal > 0 || math.IsNaN(principal) {
		adjustedPayment = l.Payment(principal)
	}

	next := side(
		miles,
		in.NewCar.MPG.OrNaN(),
		in.NewCar.GasPrice.OrNaN(),
		adjustedPayment,
		in.NewCar.Insurance.OrNaN(),
		in.NewCar.Maintenance.OrNaN(),
	)

	difference := float64(current.Total) - float64(next.Total)

	result := Result{
		Current:    current,
		New:        next,
		Difference: Amount(difference),
		Verdict:    VerdictFor(difference),
		Snapshot:   in.Snapshot(),
	}
	if tradeIn > 0 {
		result.TradeIn = &TradeIn{
			NewCarCost:        Amount(newCarCost),
			Value:             Amount(tradeIn),
			PrincipalFinanced: Amount(principal),
		}
	}
	return result
}

func side(miles, mpg, gasPrice, payment, insurance, annualMaintenance float64) Side {
	fuel := miles / mpg * gasPrice
	maintenance := annualMaintenance / 12
	return Side{
		Fuel:        Amount(fuel),
		Payment:     Amount(payment),
		Insurance:   Amount(insurance),
		Maintenance: Amount(maintenance),
		Total:       Amount(fuel + payment + insurance + maintenance),
	}
}
