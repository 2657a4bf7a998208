package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/reconciler"
)

// textRenderer is implemented by every command result.
type textRenderer interface {
	renderText(w io.Writer) error
}

// render writes v as indented JSON, YAML or its text form.
func render(w io.Writer, format string, v textRenderer) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return v.renderText(w)
	}
}

type recomputeView struct {
	GroupID          string   `json:"group_id" yaml:"group_id"`
	SettlementsCount int      `json:"settlements_count" yaml:"settlements_count"`
	PreservedCount   int      `json:"preserved_count" yaml:"preserved_count"`
	PreservedIDs     []string `json:"preserved_ids,omitempty" yaml:"preserved_ids,omitempty"`
}

func (v recomputeView) renderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Recomputed group %s: %d pending, %d preserved\n", v.GroupID, v.SettlementsCount, v.PreservedCount)
	return err
}

type settlementRow struct {
	ID      string  `json:"id" yaml:"id"`
	From    string  `json:"from" yaml:"from"`
	To      string  `json:"to" yaml:"to"`
	Amount  float64 `json:"amount" yaml:"amount"`
	Settled bool    `json:"settled" yaml:"settled"`
}

func newSettlementRow(s *models.Settlement, names map[string]string) settlementRow {
	return settlementRow{
		ID:      s.ID,
		From:    nameOf(names, s.FromID),
		To:      nameOf(names, s.ToID),
		Amount:  s.Amount,
		Settled: s.Settled,
	}
}

func (r settlementRow) status() string {
	if r.Settled {
		return "settled"
	}
	return "pending"
}

func (r settlementRow) renderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s: %s -> %s %.2f (%s)\n", r.ID, r.From, r.To, r.Amount, r.status())
	return err
}

type settlementList struct {
	GroupID     string          `json:"group_id" yaml:"group_id"`
	Settlements []settlementRow `json:"settlements" yaml:"settlements"`
}

func (l settlementList) renderText(w io.Writer) error {
	if len(l.Settlements) == 0 {
		_, err := fmt.Fprintln(w, "No settlements.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFROM\tTO\tAMOUNT\tSTATUS")
	for _, r := range l.Settlements {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", r.ID, r.From, r.To, r.Amount, r.status())
	}
	return tw.Flush()
}

type balanceRow struct {
	Person string  `json:"person" yaml:"person"`
	Amount float64 `json:"amount" yaml:"amount"`
}

type transferRow struct {
	From   string  `json:"from" yaml:"from"`
	To     string  `json:"to" yaml:"to"`
	Amount float64 `json:"amount" yaml:"amount"`
}

type balanceView struct {
	GroupID  string        `json:"group_id" yaml:"group_id"`
	Balances []balanceRow  `json:"balances" yaml:"balances"`
	Plan     []transferRow `json:"plan" yaml:"plan"`
}

func newBalanceView(groupID string, report *reconciler.BalanceReport, names map[string]string) balanceView {
	view := balanceView{GroupID: groupID, Balances: []balanceRow{}, Plan: []transferRow{}}
	for _, b := range report.Balances {
		view.Balances = append(view.Balances, balanceRow{Person: nameOf(names, b.PersonID), Amount: calculator.RoundCents(b.Amount)})
	}
	for _, t := range report.Plan {
		view.Plan = append(view.Plan, transferRow{From: nameOf(names, t.FromID), To: nameOf(names, t.ToID), Amount: calculator.RoundCents(t.Amount)})
	}
	return view
}

func (v balanceView) renderText(w io.Writer) error {
	fmt.Fprintln(w, "Balances:")
	for _, b := range v.Balances {
		fmt.Fprintf(w, "  %-12s %+10.2f\n", b.Person, b.Amount)
	}
	fmt.Fprintln(w, "Plan:")
	if len(v.Plan) == 0 {
		_, err := fmt.Fprintln(w, "  (settled up)")
		return err
	}
	for _, t := range v.Plan {
		if _, err := fmt.Fprintf(w, "  %s -> %s: %.2f\n", t.From, t.To, t.Amount); err != nil {
			return err
		}
	}
	return nil
}

type settleAllView struct {
	GroupID      string `json:"group_id" yaml:"group_id"`
	SettledCount int    `json:"settled_count" yaml:"settled_count"`
}

func (v settleAllView) renderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Settled %d settlements in group %s\n", v.SettledCount, v.GroupID)
	return err
}

// nameOf falls back to the ID for people no longer in the group.
func nameOf(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}
