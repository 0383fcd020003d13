package calculator

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSelectInput(t *testing.T) {
	stored := &Input{CurrentCar: CurrentCar{MPG: Some(25)}}

	tests := []struct {
		name       string
		query      url.Values
		stored     *Input
		want       Input
		wantSource Source
	}{
		{
			name:   "query wins over stored input",
			query:  url.Values{"c_mpg": {"30"}, "miles": {"1000"}},
			stored: stored,
			want: Input{
				CurrentCar:    CurrentCar{MPG: Some(30)},
				DrivingHabits: DrivingHabits{MilesPerMonth: Some(1000)},
			},
			wantSource: SourceQuery,
		},
		{
			name:       "stored input when query is empty",
			query:      url.Values{},
			stored:     stored,
			want:       *stored,
			wantSource: SourceSession,
		},
		{
			name:       "unrecognized keys do not count",
			query:      url.Values{"utm_source": {"mail"}},
			stored:     stored,
			want:       *stored,
			wantSource: SourceSession,
		},
		{
			name:       "empty values do not count",
			query:      url.Values{"c_mpg": {""}},
			stored:     stored,
			want:       *stored,
			wantSource: SourceSession,
		},
		{
			name:       "unparseable value still selects the query",
			query:      url.Values{"c_mpg": {"abc"}},
			stored:     stored,
			want:       Input{},
			wantSource: SourceQuery,
		},
		{
			name:       "nothing to seed from",
			query:      nil,
			stored:     nil,
			want:       Input{},
			wantSource: SourceNone,
		},
		{
			name:       "empty stored input is ignored",
			query:      nil,
			stored:     &Input{},
			want:       Input{},
			wantSource: SourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, source := SelectInput(tt.query, tt.stored)
			assert.Equal(t, tt.wantSource, source)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SelectInput() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestShareQueryRoundTrip(t *testing.T) {
	in := exampleInput()
	in.CurrentCar.TradeIn = Some(2500.5)

	q := ShareQuery(in)
	assert.Equal(t, "20", q.Get("c_mpg"))
	assert.Equal(t, "3.5", q.Get("c_gp"))
	assert.Equal(t, "2500.5", q.Get("c_trade"))
	assert.Equal(t, "1000", q.Get("miles"))

	got, ok := FromQuery(q)
	assert.True(t, ok)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestShareQuery_SkipsAbsentFields(t *testing.T) {
	q := ShareQuery(Input{NewCar: NewCar{Payment: Some(400)}})
	assert.Equal(t, url.Values{"n_pay": {"400"}}, q)
}
