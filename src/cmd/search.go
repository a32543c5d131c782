package cmd

import (
	"fmt"
	"strings"

	"github.com/contre95/soulsearch/src/music"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

func cmdSearch() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the best file for a track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, false)
		},
	}
	addTrackFlags(cmd)
	cmd.Flags().Bool("download", false, "Queue the best result for download")
	return cmd
}

func cmdAnalyze() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run every approach for a track and report each query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, true)
		},
	}
	addTrackFlags(cmd)
	return cmd
}

func addTrackFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("artist", "a", []string{}, "Track artist (repeat for several)")
	cmd.Flags().StringP("title", "t", "", "Track title")
	cmd.Flags().String("album", "", "Album title")
	cmd.Flags().String("id", "", "Track id used as cache key (derived from artists and title if empty)")
	cmd.Flags().Bool("json", false, "Print the raw response as JSON")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("artist")
}

func trackFromFlags(cmd *cobra.Command) (music.Track, error) {
	artists, _ := cmd.Flags().GetStringArray("artist")
	title, _ := cmd.Flags().GetString("title")
	album, _ := cmd.Flags().GetString("album")
	id, _ := cmd.Flags().GetString("id")

	track := music.Track{ID: id, Title: title, Artists: artists, Album: album}
	if strings.TrimSpace(track.ID) == "" {
		track.ID = strings.ToLower(track.String())
	}
	if err := track.Validate(); err != nil {
		return music.Track{}, err
	}
	return track, nil
}

func runSearch(cmd *cobra.Command, exhaustive bool) error {
	track, err := trackFromFlags(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if download, _ := cmd.Flags().GetBool("download"); download {
		a.config.Get().Search.Download = true
	}

	search := a.searching.Search
	if exhaustive {
		search = a.searching.Analyze
	}
	resp, err := search(cmd.Context(), track)
	if resp != nil {
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			out, jerr := jsoniter.MarshalIndent(resp, "", "  ")
			if jerr != nil {
				return jerr
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
		} else {
			printResponse(cmd.OutOrStdout(), resp, exhaustive)
		}
	}
	return err
}
