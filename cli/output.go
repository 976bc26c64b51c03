package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"geocoding/manager"
)

// printResults writes to stdout in both modes so either can be piped.
func printResults(cmd *cobra.Command, asJSON bool, provider, query string, results []manager.Result) error {
	w := cmd.OutOrStdout()

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	fmt.Fprintf(w, "PROVIDER\t %s\n", provider)
	fmt.Fprintf(w, "QUERY\t\t %s\n", query)
	if len(results) == 0 {
		fmt.Fprintf(w, "RESULTS\t\t none\n\n")
		return nil
	}

	for i, result := range results {
		fmt.Fprintf(w, "#%d\t\t %s\n", i+1, result.Formatted)
		fmt.Fprintf(w, "LON,LAT\t\t %s\n", result.Point)
		if result.Timestamp != nil {
			fmt.Fprintf(w, "CREATED\t\t %s (%d)\n", result.Timestamp.CreatedHTTP, result.Timestamp.CreatedUnix.Seconds())
		}
	}
	fmt.Fprintln(w)

	return nil
}
