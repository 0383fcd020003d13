package client

import (
	"net/url"
	"time"

	"github.com/sakif/mpg-calculator/internal/calculator"
)

// Controller is the calculator page without the page: it holds the form
// input, the last result and the staleness state.
//
// LIFECYCLE:
//
//	Load → (SetField)* → Submit → (SetField)* → Submit ...
//
// Load seeds the input and, when it is complete, shows a result right away
// without saving. Every Submit recomputes and saves. SetField never
// recomputes; it only moves the form between Current and Stale.
type Controller struct {
	saver  Persister
	now    func() time.Time
	input  calculator.Input
	form   calculator.Form
	result *calculator.Result
}

// NewController creates a Controller. saver may be nil, in which case
// nothing is persisted.
func NewController(saver Persister) *Controller {
	return &Controller{saver: saver, now: time.Now}
}

// Load seeds the form from a shared link or the stored session input and
// reports which one was used.
func (c *Controller) Load(query url.Values, stored *calculator.Input) calculator.Source {
	in, source := calculator.SelectInput(query, stored)

	c.input = in
	c.form.Reset()
	c.result = nil

	if in.Complete() {
		c.compute()
	}
	return source
}

// SetField changes one form control and returns the resulting state.
func (c *Controller) SetField(name, raw string) (calculator.State, error) {
	if err := c.input.Set(name, raw); err != nil {
		return c.form.State(), err
	}
	return c.form.Check(c.input.Snapshot()), nil
}

// Submit recomputes the result and hands the input to the saver. The result
// is returned before the save finishes, and a failed save does not touch it.
func (c *Controller) Submit() calculator.Result {
	result := c.compute()

	if c.saver != nil {
		c.saver.SaveAsync(calculator.Saved{
			Input:            c.input.Normalized(),
			LastCalculatedAt: c.now().UTC(),
		})
	}
	return result
}

func (c *Controller) compute() calculator.Result {
	result := calculator.Compare(c.input)
	c.result = &result
	c.form.Record(result.Snapshot)
	return result
}

// Changed returns the form names of fields edited since the displayed result
// was computed, in form order. It is empty before the first computation.
func (c *Controller) Changed() []string {
	snapshot, ok := c.form.Snapshot()
	if !ok {
		return nil
	}
	return snapshot.Diff(c.input.Snapshot())
}

// State returns the form state.
func (c *Controller) State() calculator.State {
	return c.form.State()
}

// Result returns the displayed result, or nil before the first computation.
func (c *Controller) Result() *calculator.Result {
	return c.result
}

// Input returns the current form input.
func (c *Controller) Input() calculator.Input {
	return c.input
}

// ShareQuery returns the query string of a link that reproduces the form.
func (c *Controller) ShareQuery() string {
	return calculator.ShareQuery(c.input).Encode()
}
