package calculator

import (
	"fmt"
	"math"
	"time"
)

// CurrentCar holds the inputs describing the car the visitor owns today.
// Maintenance is annual; TradeIn is what the dealer would pay for it.
type CurrentCar struct {
	MPG         Number `json:"mpg,omitzero"`
	GasPrice    Number `json:"gas_price,omitzero"`
	Payment     Number `json:"payment,omitzero"`
	Insurance   Number `json:"insurance,omitzero"`
	Maintenance Number `json:"maintenance,omitzero"`
	TradeIn     Number `json:"trade_in,omitzero"`
}

// NewCar holds the inputs for the prospective replacement.
type NewCar struct {
	MPG         Number `json:"mpg,omitzero"`
	GasPrice    Number `json:"gas_price,omitzero"`
	Payment     Number `json:"payment,omitzero"`
	Insurance   Number `json:"insurance,omitzero"`
	Maintenance Number `json:"maintenance,omitzero"`
}

// DrivingHabits holds the usage shared by both cars.
type DrivingHabits struct {
	MilesPerMonth Number `json:"miles_per_month,omitzero"`
}

// Input is one complete set of calculator fields.
type Input struct {
	CurrentCar    CurrentCar    `json:"current_car,omitzero"`
	NewCar        NewCar        `json:"new_car,omitzero"`
	DrivingHabits DrivingHabits `json:"driving_habits,omitzero"`
}

// Saved is the form of Input persisted in a session's meta document.
type Saved struct {
	Input
	LastCalculatedAt time.Time `json:"last_calculated_at,omitzero"`
}

// field ties one Input leaf to its shareable-URL key and its form control name.
type field struct {
	query    string
	form     string
	required bool
	ref      func(*Input) *Number
}

// fields lists every Input leaf in a fixed order. Snapshot indexes follow it.
var fields = [...]field{
	{"c_mpg", "current_mpg", true, func(in *Input) *Number { return &in.CurrentCar.MPG }},
	{"c_gp", "current_gas_price", true, func(in *Input) *Number { return &in.CurrentCar.GasPrice }},
	{"c_pay", "current_payment", true, func(in *Input) *Number { return &in.CurrentCar.Payment }},
	{"c_ins", "current_insurance", true, func(in *Input) *Number { return &in.CurrentCar.Insurance }},
	{"c_mnt", "current_maintenance", true, func(in *Input) *Number { return &in.CurrentCar.Maintenance }},
	{"c_trade", "current_trade_in", false, func(in *Input) *Number { return &in.CurrentCar.TradeIn }},
	{"n_mpg", "new_mpg", true, func(in *Input) *Number { return &in.NewCar.MPG }},
	{"n_gp", "new_gas_price", true, func(in *Input) *Number { return &in.NewCar.GasPrice }},
	{"n_pay", "new_payment", true, func(in *Input) *Number { return &in.NewCar.Payment }},
	{"n_ins", "new_insurance", true, func(in *Input) *Number { return &in.NewCar.Insurance }},
	{"n_mnt", "new_maintenance", true, func(in *Input) *Number { return &in.NewCar.Maintenance }},
	{"miles", "miles_per_month", true, func(in *Input) *Number { return &in.DrivingHabits.MilesPerMonth }},
}

// FieldNames returns the form control names in display order.
func FieldNames() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.form
	}
	return names
}

func fieldByForm(name string) (field, bool) {
	for _, f := range fields {
		if f.form == name {
			return f, true
		}
	}
	return field{}, false
}

// Set parses raw into the field whose form control is name.
func (in *Input) Set(name, raw string) error {
	f, ok := fieldByForm(name)
	if !ok {
		return fmt.Errorf("calculator: unknown field %q", name)
	}
	*f.ref(in) = ParseNumber(raw)
	return nil
}

// IsEmpty reports whether no field is present.
func (in Input) IsEmpty() bool {
	for _, f := range fields {
		if f.ref(&in).Present() {
			return false
		}
	}
	return true
}

// Complete reports whether every required field is present.
// Trade-in is optional and treated as 0 when missing.
func (in Input) Complete() bool {
	for _, f := range fields {
		if f.required && !f.ref(&in).Present() {
			return false
		}
	}
	return true
}

// Normalized returns the input as it is persisted after a calculation:
// a missing trade-in becomes 0 and miles are whole miles.
func (in Input) Normalized() Input {
	if !in.CurrentCar.TradeIn.Present() {
		in.CurrentCar.TradeIn = Some(0)
	}
	if v, ok := in.DrivingHabits.MilesPerMonth.Get(); ok {
		in.DrivingHabits.MilesPerMonth = Some(math.Trunc(v))
	}
	return in
}

// FormValues renders the input as raw form control values.
// A missing trade-in is shown as "0", the form's default.
func (in Input) FormValues() map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f.form] = f.ref(&in).String()
	}
	if values["current_trade_in"] == "" {
		values["current_trade_in"] = "0"
	}
	return values
}
