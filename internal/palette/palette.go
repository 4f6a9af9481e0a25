// Package palette assigns a stable display color to each cluster id.
package palette

import "sort"

// NoiseColor marks unclustered points. It is reserved and never appears in
// the rotating palette.
const NoiseColor = "#808080"

// colors is the rotation applied to cluster ids in ascending order. Ids past
// the end wrap around.
var colors = []string{
	"#0000ff", // blue
	"#008000", // green
	"#ff0000", // red
	"#ffa500", // orange
	"#800080", // purple
	"#8b0000", // darkred
	"#add8e6", // lightblue
	"#5f9ea0", // cadetblue
	"#ffc0cb", // pink
	"#000000", // black
}

// Assign maps every distinct cluster id in labels to a color. Non-noise ids
// are sorted ascending and colored in palette order, wrapping when there are
// more clusters than palette entries. The noise id always maps to NoiseColor.
func Assign(labels []int) map[int]string {
	distinct := make(map[int]struct{})
	for _, id := range labels {
		distinct[id] = struct{}{}
	}

	ids := make([]int, 0, len(distinct))
	for id := range distinct {
		if id >= 0 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	assigned := make(map[int]string, len(distinct))
	for i, id := range ids {
		assigned[id] = colors[i%len(colors)]
	}
	if _, hasNoise := distinct[-1]; hasNoise {
		assigned[-1] = NoiseColor
	}
	return assigned
}
