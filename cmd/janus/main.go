package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/fortuna/janus/internal/backfill"
	"github.com/fortuna/janus/internal/config"
	"github.com/fortuna/janus/internal/ingest"
	"github.com/fortuna/janus/internal/ingest/htmlreport"
	"github.com/fortuna/janus/internal/ingest/nhlapi"
	"github.com/fortuna/janus/internal/normalize"
	"github.com/fortuna/janus/internal/pipeline"
	"github.com/fortuna/janus/internal/xg"
)

const (
	serviceName    = "janus"
	serviceVersion = "1.0.0"
)

var cfg config.Config

// closers release long-lived resources opened by a command's helpers
var closers []func()

var rootCmd = &cobra.Command{
	Use:     serviceName,
	Short:   "NHL play-by-play reconciliation and on-ice state engine",
	Long:    "Janus merges the league's JSON feed with its HTML reports, replays shifts to put players on ice for every event, and rolls the result up into player stat rows.",
	Version: serviceVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("verbose") {
			loaded.Verbose, _ = cmd.Flags().GetBool("verbose")
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		for _, c := range closers {
			c()
		}
		closers = nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every unresolved player and event type")
	rootCmd.AddCommand(serveCmd, processCmd, backfillCmd, fetchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildPipeline loads the alias tables and xG coefficients named in the
// config, falling back to the built-in ones
func buildPipeline(c config.Config) (*pipeline.Pipeline, error) {
	opts := pipeline.Options{Verbose: c.Verbose}

	if c.AliasesFile != "" {
		aliases, err := normalize.LoadAliases(c.AliasesFile)
		if err != nil {
			return nil, err
		}
		opts.Aliases = &aliases
		log.Printf("✓ Loaded alias tables from %s", c.AliasesFile)
	}

	if c.XGModelFile != "" {
		model, err := xg.LoadModel(c.XGModelFile)
		if err != nil {
			return nil, err
		}
		opts.Predictor = model
		log.Printf("✓ Loaded xG model from %s", c.XGModelFile)
	}

	return pipeline.New(opts), nil
}

func newIngester(c config.Config) *ingest.Ingester {
	var reports ingest.ReportFetcher = htmlreport.NewClient(c.ReportBaseURL, c.ReportInterval)
	if c.ReportBrowser {
		browser := htmlreport.NewBrowserClient(c.ReportBaseURL, c.ReportInterval)
		closers = append(closers, browser.Close)
		reports = browser
		log.Println("✓ Fetching reports through headless Chrome")
	}
	return ingest.NewIngester(nhlapi.New(c.FeedBaseURL), reports)
}

func newLoader(c config.Config) backfill.Loader {
	return backfill.NewSourceLoader(newIngester(c))
}
