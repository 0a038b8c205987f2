package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <mark>",
	Short: "Cancel a transmitted invoice by its mark",
	Long: `Request protocol-level cancellation of a transmitted invoice. The
authority issues a new cancellation mark; the original record is never
mutated.

Examples:
  einvoice cancel 400001234567890`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	result, err := newClient().CancelInvoice(ctx, args[0], cliCredentials())
	if err != nil {
		return err
	}

	if !result.Success() {
		fmt.Fprintln(os.Stderr, "cancellation rejected:")
		for _, pe := range result.Errors {
			fmt.Fprintf(os.Stderr, "  [%s] %s\n", pe.Code, pe.Message)
		}
		return fmt.Errorf("authority rejected the cancellation with %d errors", len(result.Errors))
	}

	fmt.Printf("cancelled: cancellation mark=%s\n", result.CancellationMark)
	return nil
}
