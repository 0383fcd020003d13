package calculator

import "net/url"

// PageName is the calculator page's name in share links: /pages/mpg_calculator?c_mpg=...
const PageName = "mpg_calculator"

// Source names where pre-populated form input came from.
type Source string

const (
	SourceQuery   Source = "query"
	SourceSession Source = "session"
	SourceNone    Source = "none"
)

// FromQuery reads a shareable URL query into an Input.
//
// Recognized keys map one to one onto Input leaves (c_mpg, c_gp, c_pay,
// c_ins, c_mnt, c_trade, n_mpg, n_gp, n_pay, n_ins, n_mnt, miles). Keys with
// an empty value count as absent; unrecognized keys are ignored. ok is true
// when at least one recognized key carried a non-empty value, even if that
// value did not parse.
func FromQuery(q url.Values) (in Input, ok bool) {
	for _, f := range fields {
		raw := q.Get(f.query)
		if raw == "" {
			continue
		}
		*f.ref(&in) = ParseNumber(raw)
		ok = true
	}
	return in, ok
}

// ShareQuery is the inverse of FromQuery: one key per present field.
func ShareQuery(in Input) url.Values {
	q := url.Values{}
	for _, f := range fields {
		if n := f.ref(&in); n.Present() {
			q.Set(f.query, n.String())
		}
	}
	return q
}

// SelectInput picks the input that seeds the form.
//
// The choice is all-or-nothing. A query with any recognized parameter wins
// outright and the stored input is ignored, even for fields the query left
// out. Otherwise the stored input is used when there is one.
func SelectInput(q url.Values, stored *Input) (Input, Source) {
	if in, ok := FromQuery(q); ok {
		return in, SourceQuery
	}
	if stored != nil && !stored.IsEmpty() {
		return *stored, SourceSession
	}
	return Input{}, SourceNone
}
