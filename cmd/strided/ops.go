package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/strided/array"
)

// OpsHandler lists every built-in operator with its overloads.
func OpsHandler(cmd *cobra.Command, _ []string) error {
	table := newTable(cmd, "OPERATOR", "OVERLOADS")
	for _, op := range array.Operators() {
		sigs := make([]string, 0, len(op.Signatures()))
		for _, sig := range op.Signatures() {
			names := make([]string, len(sig))
			for i, dt := range sig {
				names[i] = dt.String()
			}
			sigs = append(sigs, "("+strings.Join(names, ", ")+")")
		}
		table.Append([]string{op.Name(), strings.Join(sigs, " ")})
	}
	table.Render()
	return nil
}
