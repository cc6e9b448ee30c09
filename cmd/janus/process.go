package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var processOut string

var processCmd = &cobra.Command{
	Use:   "process <game-id|dir|bundle.json>...",
	Short: "Run the pipeline on single games and write the results as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		loader := newLoader(cfg)

		if processOut != "" {
			if err := os.MkdirAll(processOut, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", processOut, err)
			}
		}

		var failed int
		for _, arg := range args {
			source := sourceArg(arg)

			bundle, err := loader.Load(cmd.Context(), source)
			if err != nil {
				log.Printf("❌ %s: %v", arg, err)
				failed++
				continue
			}

			res, err := p.Process(cmd.Context(), bundle)
			if err != nil {
				log.Printf("⚠️  %s skipped: %v", arg, err)
				failed++
				continue
			}

			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding game %d: %w", res.Game.GameID, err)
			}

			if processOut == "" {
				fmt.Println(string(data))
				continue
			}
			path := filepath.Join(processOut, fmt.Sprintf("%d.result.json", res.Game.GameID))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			log.Printf("✓ wrote %s", path)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d games not processed", failed, len(args))
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringVarP(&processOut, "out", "o", "", "directory for <game-id>.result.json files (default stdout)")
}
