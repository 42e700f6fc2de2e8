// internal/render/video.go
package render

import (
	"strconv"

	"github.com/proofwall/proofwall-embed-go/internal/model"
	"github.com/proofwall/proofwall-embed-go/internal/stats"
)

// renderVideoWall keeps only records with a video before laying out the grid.
// An empty video set gets its own empty state, also when there are no
// records at all.
func renderVideoWall(records []model.Testimonial, style model.Style) Block {
	videos := stats.FilterVideos(records)
	if len(videos) == 0 {
		return emptyState("no_video", "No video testimonials yet", style)
	}

	vw := style.VideoWall()
	items := make([]Block, 0, len(videos))
	for _, rec := range videos {
		tile := Block{
			Kind:     KindCard,
			Role:     "item",
			RecordID: rec.ID,
			Style:    cardStyle(style),
			Attrs: map[string]string{
				"variant":          "video_tile",
				"playMode":         vw.PlayMode,
				"showPlayButton":   strconv.FormatBool(vw.ShowPlayButton),
				"thumbnailQuality": vw.ThumbnailQuality,
			},
		}
		media, _ := recordMedia(rec)
		tile.Children = append(tile.Children, media)
		if b, ok := recordRating(rec, style); ok {
			tile.Children = append(tile.Children, b)
		}
		tile.Children = append(tile.Children, textBlock("author", rec.AuthorName, style))
		items = append(items, tile)
	}
	return layout("video_wall", style, gridAttrs(vw.Columns), items)
}
