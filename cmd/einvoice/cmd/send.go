package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/logistia/einvoice/internal/model"
	"github.com/logistia/einvoice/internal/mydata"
	"github.com/logistia/einvoice/internal/verify"
)

var sendCmd = &cobra.Command{
	Use:   "send <invoice.json>",
	Short: "Transmit an invoice document to the authority",
	Long: `Read an invoice document from a JSON file, validate it, serialize it
into the authority's XML schema and transmit it.

Examples:
  einvoice send invoice.json --mydata-user <user> --mydata-key <key>`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	inv, err := readInvoiceFile(args[0])
	if err != nil {
		return err
	}

	if res := inv.Validate(); !res.OK {
		for _, fe := range res.Errors {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", fe.Field, fe.Message)
		}
		return fmt.Errorf("invoice is not valid for transmission (%d problems)", len(res.Errors))
	}

	xmlDoc, err := mydata.Serialize(inv)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	result, err := newClient().SendInvoice(ctx, xmlDoc, cliCredentials())
	if err != nil {
		return err
	}

	if !result.Success() {
		fmt.Fprintln(os.Stderr, "submission rejected:")
		for _, pe := range result.Errors {
			fmt.Fprintf(os.Stderr, "  [%s] %s\n", pe.Code, pe.Message)
		}
		return fmt.Errorf("authority rejected the submission with %d errors", len(result.Errors))
	}

	fmt.Printf("transmitted: mark=%s uid=%s\n", result.Mark, result.UID)
	fmt.Printf("verification: %s\n", verify.BuildURL(result.Mark, result.UID, result.AuthCode))
	return nil
}

func readInvoiceFile(path string) (*model.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read invoice file: %w", err)
	}
	var inv model.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("parse invoice file: %w", err)
	}
	return &inv, nil
}
