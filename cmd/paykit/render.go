package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/DanielPopoola/paykit/internal/core/builder"
	"github.com/DanielPopoola/paykit/internal/core/dispatch"
	"github.com/DanielPopoola/paykit/internal/metrics"
	"github.com/olekukonko/tablewriter"
)

func renderTransactions(w io.Writer, txs ...*builder.Transaction) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Gateway", "Type", "Status", "Amount", "Auth Code", "Response", "Parent", "Next"})

	for _, tx := range txs {
		if err := table.Append(transactionRow(tx)); err != nil {
			return err
		}
	}
	return table.Render()
}

func transactionRow(tx *builder.Transaction) []string {
	return []string{
		tx.ID(),
		tx.Gateway(),
		string(tx.Type()),
		string(tx.Status()),
		formatAmount(tx),
		tx.AuthorizationCode(),
		strings.TrimSpace(tx.ResponseCode() + " " + tx.ResponseMessage()),
		tx.ParentTransactionID(),
		joinStrings(tx.AllowedActions()),
	}
}

func formatAmount(tx *builder.Transaction) string {
	amount := tx.Amount()
	if amount == nil {
		return ""
	}
	return strings.TrimSpace(amount.StringFixed(2) + " " + tx.Currency())
}

func renderConnectors(w io.Writer, infos []dispatch.ConnectorInfo) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Gateway", "Types", "Modifiers", "Methods", "Hints"})

	for _, info := range infos {
		for _, c := range info.Capabilities {
			row := []string{
				info.Name,
				joinStrings(c.Types),
				joinStrings(c.Modifiers),
				joinStrings(c.Methods),
				joinStrings(c.Hints),
			}
			if err := table.Append(row); err != nil {
				return err
			}
		}
	}
	return table.Render()
}

func renderDemo(w io.Writer, results []demoResult) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Step", "ID", "Status", "Amount", "Result"})

	for _, r := range results {
		row := []string{r.step, "", "", "", ""}
		if r.tx != nil {
			row[1] = r.tx.ID()
			row[2] = string(r.tx.Status())
			row[3] = formatAmount(r.tx)
			row[4] = strings.TrimSpace(r.tx.ResponseCode() + " " + r.tx.ResponseMessage())
		}
		if r.err != nil {
			row[4] = r.err.Error()
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// renderStats prints one row per gateway followed by the response code counts.
func renderStats(w io.Writer, registry *metrics.Registry) error {
	names := registry.Names()
	if len(names) == 0 {
		_, err := fmt.Fprintln(w, "No transactions recorded")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Gateway", "Total", "Failed", "Mean", "Std Dev", "Response Codes", "Failures"})

	for _, name := range names {
		stats := registry.Gateway(name)
		row := []string{
			name,
			strconv.Itoa(stats.ExecutionCount()),
			strconv.Itoa(stats.FailureCount()),
			stats.MeanExecutionTime().String(),
			stats.StandardDeviation().String(),
			formatCounts(stats.ResponseCodes()),
			formatCounts(stats.FailureKinds()),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func formatCounts(counts map[string]uint64) string {
	parts := make([]string, 0, len(counts))
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}

func joinStrings[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ",")
}
