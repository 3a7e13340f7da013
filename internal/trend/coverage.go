package trend

import (
	"time"

	"github.com/rickgao/seoulhigh/internal/model"
)

// Coverage summarizes how well snapshots cover a resampled window.
type Coverage struct {
	SnapshotCount       int        `json:"snapshot_count"`
	FirstSnapshot       *time.Time `json:"first_snapshot"`
	LastSnapshot        *time.Time `json:"last_snapshot"`
	ResampledPointCount int        `json:"resampled_point_count"`
	MissingPointCount   int        `json:"missing_point_count"`
}

// CoverageOf counts the snapshots inside w and the points the resampler left
// missing. Snapshots outside w (loaded for tolerance or carry look-back) are
// not counted.
func CoverageOf(snapshots []model.Snapshot, w Window, points []Point) Coverage {
	var c Coverage
	for i := range snapshots {
		t := snapshots[i].CapturedAt
		if !w.Contains(t) {
			continue
		}
		c.SnapshotCount++
		if c.FirstSnapshot == nil || t.Before(*c.FirstSnapshot) {
			first := t.UTC()
			c.FirstSnapshot = &first
		}
		if c.LastSnapshot == nil || t.After(*c.LastSnapshot) {
			last := t.UTC()
			c.LastSnapshot = &last
		}
	}

	c.ResampledPointCount = len(points)
	for _, p := range points {
		if p.Missing() {
			c.MissingPointCount++
		}
	}
	return c
}
