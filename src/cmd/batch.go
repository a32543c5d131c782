package cmd

import (
	"fmt"
	"os"

	"github.com/contre95/soulsearch/src/music"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

func cmdBatch() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <tracks.json>",
		Short: "Search every track of a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracks, err := readTracks(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			concurrency, _ := cmd.Flags().GetInt("concurrency")
			if concurrency <= 0 {
				concurrency = a.config.Get().Jobs.Concurrency
			}
			quiet, _ := cmd.Flags().GetBool("quiet")
			outcomes, stats, err := a.searching.SearchBatch(cmd.Context(), tracks, concurrency, func(done, total int) {
				if !quiet {
					dimColor.Fprintf(cmd.ErrOrStderr(), "\r%d/%d", done, total)
				}
			})
			if !quiet {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			printBatch(cmd.OutOrStdout(), outcomes, stats)
			return err
		},
	}
	cmd.Flags().Int("concurrency", 0, "Tracks searched in parallel (jobs.concurrency if 0)")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print progress")
	return cmd
}

// readTracks loads a JSON array of tracks and validates each one.
func readTracks(path string) ([]music.Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tracks []music.Track
	if err := jsoniter.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%s contains no tracks", path)
	}
	for i, t := range tracks {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
	}
	return tracks, nil
}
