package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	queryFrom string
	queryTo   string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "List documents transmitted in a date range",
	Long: `Query the authority for invoices transmitted between two dates. A
range with no matching documents prints an empty list.

Examples:
  einvoice query --from 2026-01-01 --to 2026-01-31`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryFrom, "from", "", "Range start (YYYY-MM-DD)")
	queryCmd.Flags().StringVar(&queryTo, "to", "", "Range end (YYYY-MM-DD)")
	_ = queryCmd.MarkFlagRequired("from")
	_ = queryCmd.MarkFlagRequired("to")
}

func runQuery(cmd *cobra.Command, args []string) error {
	from, err := time.Parse("2006-01-02", queryFrom)
	if err != nil {
		return fmt.Errorf("invalid --from date, expected YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", queryTo)
	if err != nil {
		return fmt.Errorf("invalid --to date, expected YYYY-MM-DD")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	docs, err := newClient().QueryByDateRange(ctx, from, to, cliCredentials())
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Println("no documents in range")
		return nil
	}
	for _, doc := range docs {
		fmt.Printf("%s%s  mark=%s  uid=%s  issued=%s\n",
			doc.Header.Series, doc.Header.AA, doc.Mark, doc.UID, doc.Header.IssueDate)
	}
	return nil
}
