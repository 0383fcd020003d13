package commands

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sakif/mpg-calculator/internal/calculator"
	"github.com/sakif/mpg-calculator/internal/client"
)

type CompareCmd struct {
	Link   string            `arg:"" optional:"" help:"Shared calculator link or bare query string (c_mpg=20&n_mpg=35...)."`
	Set    map[string]string `help:"Form fields to set after loading the link, e.g. --set new_mpg=35;miles_per_month=1200."`
	Server string            `help:"Session server URL." default:"http://localhost:8080" env:"MPG_SERVER"`
	Save   bool              `help:"Save the input to a session on the server."`
	Fields bool              `help:"List the fields accepted by --set with their loaded values and exit."`
}

func (c *CompareCmd) Run(ctx context.Context, globals *Globals) error {
	query, err := parseLink(c.Link)
	if err != nil {
		return err
	}

	if c.Fields {
		ctrl := client.NewController(nil)
		ctrl.Load(query, nil)
		if err := applyFields(ctrl, c.Set); err != nil {
			return err
		}
		fmt.Print(fieldListing(ctrl.Input()))
		return nil
	}

	var saver *client.Saver
	var persister client.Persister
	if c.Save {
		saver, err = client.NewSaver(c.Server, nil, globals.Logger())
		if err != nil {
			return err
		}
		persister = saver
	}

	ctrl := client.NewController(persister)
	ctrl.Load(query, nil)

	if err := applyFields(ctrl, c.Set); err != nil {
		return err
	}

	// Edits made on top of an already evaluated link.
	changed := ctrl.Changed()

	result := ctrl.Submit()
	if saver != nil {
		saver.Wait()
	}

	render(os.Stdout, ctrl.Input(), result, shareURL(c.Server, ctrl.ShareQuery()))
	if len(changed) > 0 {
		fmt.Println(hintStyle.Render("Recalculated after editing " + strings.Join(changed, ", ")))
	}
	return nil
}

// fieldListing prints one "name=value" line per form field in form order.
// Empty values are fields the link left out.
func fieldListing(in calculator.Input) string {
	values := in.FormValues()

	var b strings.Builder
	for _, name := range calculator.FieldNames() {
		fmt.Fprintf(&b, "%s=%s\n", name, values[name])
	}
	return b.String()
}

// parseLink accepts a full URL, a path with a query, or a bare query string.
func parseLink(link string) (url.Values, error) {
	if link == "" {
		return url.Values{}, nil
	}
	raw := link
	if i := strings.IndexByte(link, '?'); i >= 0 {
		raw = link[i+1:]
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid link %q: %w", link, err)
	}
	return q, nil
}

// applyFields sets fields in name order so the outcome does not depend on
// map iteration.
func applyFields(ctrl *client.Controller, set map[string]string) error {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := ctrl.SetField(name, set[name]); err != nil {
			return fmt.Errorf("%w (see --fields)", err)
		}
	}
	return nil
}

func shareURL(server, query string) string {
	return strings.TrimRight(server, "/") + "/pages/" + calculator.PageName + "?" + query
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Width(14)
	amountStyle  = lipgloss.NewStyle().Width(12).Align(lipgloss.Right)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6adc8"))
	savingsStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a6e3a1"))
	lossStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f38ba8"))
	neutralStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f9e2af"))
	boxStyle     = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

func render(w io.Writer, in calculator.Input, r calculator.Result, share string) {
	rows := []string{
		titleStyle.Render(labelStyle.Render("") + amountStyle.Render("Current") + amountStyle.Render("New")),
		row("Fuel", r.Current.Fuel, r.New.Fuel),
		row("Payment", r.Current.Payment, r.New.Payment),
		row("Insurance", r.Current.Insurance, r.New.Insurance),
		row("Maintenance", r.Current.Maintenance, r.New.Maintenance),
		titleStyle.Render(row("Total", r.Current.Total, r.New.Total)),
	}

	if r.TradeIn != nil {
		rows = append(rows, "",
			hintStyle.Render(fmt.Sprintf("New car cost %s - trade-in %s = %s financed",
				r.TradeIn.NewCarCost, r.TradeIn.Value, r.TradeIn.PrincipalFinanced)))
	}
	if label := calculator.DefaultLoan.EstimateLabel(in.NewCar.Payment); label != "" {
		rows = append(rows, hintStyle.Render(label))
	}

	style := neutralStyle
	switch r.Verdict.Kind {
	case calculator.Savings:
		style = savingsStyle
	case calculator.Loss:
		style = lossStyle
	}
	verdict := boxStyle.BorderForeground(style.GetForeground()).Render(
		lipgloss.JoinVertical(lipgloss.Left, style.Render(r.Verdict.Headline()), r.Verdict.Details()))

	fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, rows...))
	fmt.Fprintln(w, verdict)
	fmt.Fprintln(w, hintStyle.Render("Share: ")+share)
}

func row(label string, current, next calculator.Amount) string {
	return labelStyle.Render(label) + amountStyle.Render(current.String()) + amountStyle.Render(next.String())
}
