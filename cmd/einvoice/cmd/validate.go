package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/logistia/einvoice/internal/mydata"
)

var validateShowXML bool

var validateCmd = &cobra.Command{
	Use:   "validate <invoice.json>",
	Short: "Validate an invoice document locally",
	Long: `Run the pre-transmission validation pass on an invoice document
without contacting the authority. Totals are recomputed from the lines
before the checks run.

Examples:
  einvoice validate invoice.json
  einvoice validate invoice.json --show-xml`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateShowXML, "show-xml", false, "Print the serialized wire document on success")
}

func runValidate(cmd *cobra.Command, args []string) error {
	inv, err := readInvoiceFile(args[0])
	if err != nil {
		return err
	}

	res := inv.Validate()
	if !res.OK {
		fmt.Fprintf(os.Stderr, "invalid (%d problems):\n", len(res.Errors))
		for _, fe := range res.Errors {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", fe.Field, fe.Message)
		}
		return fmt.Errorf("validation failed")
	}

	fmt.Printf("valid: %s, total %s %s\n", inv.Number, inv.Totals.TotalAmount.StringFixed(2), inv.Currency)

	if validateShowXML {
		xmlDoc, err := mydata.Serialize(inv)
		if err != nil {
			return err
		}
		fmt.Println(string(xmlDoc))
	}
	return nil
}
