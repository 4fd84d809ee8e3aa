package stats

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scrob-fm/scrob/cmd/cli/api"
	"github.com/scrob-fm/scrob/cmd/cli/output"
	"github.com/scrob-fm/scrob/cmd/cli/root"
)

// ==========================
// CLI Command Init
// ==========================
func init() {
	var limit int

	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "Show recent scrobbles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecent(limit)
		},
	}
	recentCmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to show")

	topArtistsCmd := &cobra.Command{
		Use:   "top-artists",
		Short: "Show your most played artists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopArtists(limit)
		},
	}
	topArtistsCmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to show")

	topTracksCmd := &cobra.Command{
		Use:   "top-tracks",
		Short: "Show your most played tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopTracks(limit)
		},
	}
	topTracksCmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to show")

	root.GetRoot().AddCommand(recentCmd, topArtistsCmd, topTracksCmd)
}

// ==========================
// Recent Scrobbles
// ==========================
func runRecent(limit int) error {
	var scrobbles []struct {
		Artist    string  `json:"artist"`
		Track     string  `json:"track"`
		Album     *string `json:"album"`
		Timestamp int64   `json:"timestamp"`
	}
	if err := api.Get(fmt.Sprintf("/scrobbles/recent?limit=%d", limit), &scrobbles); err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(scrobbles))
	for _, s := range scrobbles {
		album := ""
		if s.Album != nil {
			album = *s.Album
		}
		played := time.Unix(s.Timestamp, 0).Format("2006-01-02 15:04")
		rows = append(rows, []interface{}{s.Artist, s.Track, album, played})
	}
	output.RenderTable([]string{"Artist", "Track", "Album", "Played"}, rows)
	return nil
}

// ==========================
// Top Artists
// ==========================
func runTopArtists(limit int) error {
	var artists []struct {
		Name  string `json:"name"`
		Count int64  `json:"count"`
	}
	if err := api.Get(fmt.Sprintf("/stats/top-artists?limit=%d", limit), &artists); err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(artists))
	for i, a := range artists {
		rows = append(rows, []interface{}{i + 1, a.Name, a.Count})
	}
	output.RenderTable([]string{"#", "Artist", "Plays"}, rows)
	return nil
}

// ==========================
// Top Tracks
// ==========================
func runTopTracks(limit int) error {
	var tracks []struct {
		Artist string `json:"artist"`
		Track  string `json:"track"`
		Count  int64  `json:"count"`
	}
	if err := api.Get(fmt.Sprintf("/stats/top-tracks?limit=%d", limit), &tracks); err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(tracks))
	for i, t := range tracks {
		rows = append(rows, []interface{}{i + 1, t.Artist, t.Track, t.Count})
	}
	output.RenderTable([]string{"#", "Artist", "Track", "Plays"}, rows)
	return nil
}
