package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/campsite-cli/internal/model"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search campsites for a free-text query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := args[0]

		progress := make(chan string, 16)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range progress {
				fmt.Fprintln(os.Stderr, msg)
			}
		}()

		env, err := initPipeline(ctx, progress)
		if err != nil {
			close(progress)
			<-done
			return err
		}
		defer env.Close()

		bundle := env.Coordinator.Run(ctx, query)
		close(progress)
		<-done

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(bundle)
		}

		printBundle(bundle)
		return nil
	},
}

func printBundle(b *model.SearchResultBundle) {
	fmt.Println(b.Summary)
	fmt.Println()
	for i, rec := range b.Results {
		fmt.Printf("%d. %s", i+1, rec.Name)
		if rec.Region != "" {
			fmt.Printf("（%s）", rec.Region)
		}
		fmt.Printf(" スコア %.2f", rec.CombinedScore)
		if rec.Rating > 0 {
			fmt.Printf(" 評価 %.1f (%d件)", rec.Rating, rec.ReviewCount)
		}
		fmt.Println()
		if rec.ReviewSummary != "" {
			fmt.Printf("   %s\n", rec.ReviewSummary)
		}
	}
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the full result bundle as JSON")
	rootCmd.AddCommand(searchCmd)
}
