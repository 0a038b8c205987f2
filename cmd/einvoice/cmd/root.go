package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/logistia/einvoice/internal/config"
	"github.com/logistia/einvoice/internal/mydata"
)

var (
	version = "1.0.0"

	// Global flags
	verbose       bool
	configPath    string
	baseURL       string
	mydataUser    string
	mydataKey     string
	mydataTimeout time.Duration

	cfg config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "einvoice",
	Short: "Issue and transmit Greek e-invoices",
	Long: `einvoice issues legally compliant invoices and transmits them to the
tax authority's myDATA endpoint.

Examples:
  # Start the HTTP API server
  einvoice serve

  # Validate an invoice document locally
  einvoice validate invoice.json

  # Transmit an invoice document
  einvoice send invoice.json --mydata-user <user> --mydata-key <key>

  # Cancel a transmitted invoice by its mark
  einvoice cancel 400001234567890

  # List documents transmitted in a date range
  einvoice query --from 2026-01-01 --to 2026-01-31`,
	Version: version,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory holding the optional .env file")
	rootCmd.PersistentFlags().StringVar(&baseURL, "mydata-url", "", "myDATA base URL (env: MYDATA_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&mydataUser, "mydata-user", "", "myDATA user id (env: MYDATA_USER_ID)")
	rootCmd.PersistentFlags().StringVar(&mydataKey, "mydata-key", "", "myDATA subscription key (env: MYDATA_SUBSCRIPTION_KEY)")
	rootCmd.PersistentFlags().DurationVar(&mydataTimeout, "mydata-timeout", 0, "Transmission round-trip timeout")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		logger := zerolog.New(os.Stderr)
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Flags override the environment
	if baseURL != "" {
		cfg.MyDataBaseURL = baseURL
	}
	if mydataUser != "" {
		cfg.MyDataUserID = mydataUser
	}
	if mydataKey != "" {
		cfg.MyDataSubscriptionKey = mydataKey
	}
	if mydataTimeout > 0 {
		cfg.MyDataTimeout = mydataTimeout
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func newClient() *mydata.Client {
	opts := []mydata.ClientOption{
		mydata.WithBaseURL(cfg.MyDataBaseURL),
		mydata.WithLogger(log),
	}
	if cfg.MyDataTimeout > 0 {
		opts = append(opts, mydata.WithTimeout(cfg.MyDataTimeout))
	}
	return mydata.NewClient(opts...)
}

func cliCredentials() mydata.Credentials {
	return mydata.Credentials{
		UserID:          cfg.MyDataUserID,
		SubscriptionKey: cfg.MyDataSubscriptionKey,
	}
}
