package cmd

import (
	"fmt"
	"strings"

	"github.com/contre95/soulsearch/src/features/pathmeta"
	"github.com/contre95/soulsearch/src/infra/tag"
	"github.com/spf13/cobra"
)

func cmdExtract() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <path>",
		Short: "Show the artist, title and album read from a file path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			useTags, _ := cmd.Flags().GetBool("tags")

			var res pathmeta.Result
			if useTags {
				res = pathmeta.ExtractLocal(cmd.Context(), tag.NewTagReader(), path)
			} else {
				res = pathmeta.Extract(path)
			}

			w := cmd.OutOrStdout()
			dimColor.Fprintf(w, "patterns: %s\n", strings.Join(pathmeta.OrderPatterns(path), ", "))
			if !res.Success {
				warnColor.Fprintln(w, res.Error)
				fallback := pathmeta.Fallback(path)
				fmt.Fprintf(w, "title:  %s\n", fallback.Title)
				return nil
			}
			m := res.Metadata
			okColor.Fprintf(w, "pattern: %s\n", m.Pattern)
			fmt.Fprintf(w, "artist: %s\n", m.Artist)
			fmt.Fprintf(w, "title:  %s\n", m.Title)
			if m.Album != "" {
				fmt.Fprintf(w, "album:  %s\n", m.Album)
			}
			return nil
		},
	}
	cmd.Flags().Bool("tags", false, "Prefer the embedded tags of a local file")
	return cmd
}
