package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/contre95/soulsearch/src/features/searching"
	"github.com/contre95/soulsearch/src/music"
	"github.com/fatih/color"
)

var (
	headColor = color.New(color.Bold)
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	dimColor  = color.New(color.Faint)
)

// printResponse writes a human readable search report. Queries are listed
// when verbose is set.
func printResponse(w io.Writer, resp *music.SearchResponse, verbose bool) {
	headColor.Fprintln(w, resp.Track.String())

	if verbose {
		for _, q := range resp.Queries {
			status := okColor.Sprintf("%d results", len(q.Result))
			switch {
			case q.Duplicate:
				status = dimColor.Sprint("duplicate")
			case q.Error != "":
				status = errColor.Sprint(q.Error)
			case len(q.Result) == 0:
				status = warnColor.Sprint("no results")
			}
			fmt.Fprintf(w, "  [%s] %q: %s\n", q.Approach, q.Text(), status)
		}
	}

	switch {
	case resp.FromCache:
		okColor.Fprintf(w, "cached: %s\n", strings.Join(resp.CachedIDs, ", "))
	case len(resp.Result) == 0:
		warnColor.Fprintln(w, "no match")
	default:
		for i, c := range resp.Result {
			fmt.Fprintf(w, "%2d. %s %s\n", i+1, quality(c), c.SourceID())
		}
	}
	if verbose && len(resp.Analyzed) > 0 {
		dimColor.Fprintf(w, "%d candidates analyzed\n", len(resp.Analyzed))
	}
	if resp.Downloaded != nil {
		okColor.Fprintf(w, "queued: %s\n", resp.Downloaded.SourceID())
	}
	dimColor.Fprintf(w, "took %s\n", resp.Duration.Round(time.Millisecond))
}

func quality(c music.Candidate) string {
	q := c.Extension
	switch {
	case c.BitDepth > 0 && c.SampleRate > 0:
		q += fmt.Sprintf(" %dbit/%.1fkHz", c.BitDepth, float64(c.SampleRate)/1000)
	case c.BitRate > 0:
		q += fmt.Sprintf(" %dkbps", c.BitRate)
	}
	return "[" + q + "]"
}

func printBatch(w io.Writer, outcomes []searching.BatchOutcome, stats searching.BatchStats) {
	for _, o := range outcomes {
		switch {
		case o.Track.ID == "":
			// not started, the batch stopped early
			continue
		case o.Error != "":
			errColor.Fprintf(w, "FAIL  %s: %s\n", o.Track.String(), o.Error)
		case o.Response != nil && o.Response.Found():
			okColor.Fprintf(w, "OK    %s\n", o.Track.String())
		default:
			warnColor.Fprintf(w, "MISS  %s\n", o.Track.String())
		}
	}
	headColor.Fprintf(w, "%d tracks: %d matched (%d cached), %d unmatched, %d failed\n",
		stats.Total, stats.Matched, stats.Cached, stats.Unmatched, stats.Failed)
}
