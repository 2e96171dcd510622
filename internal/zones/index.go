package zones

import (
	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"
)

// searchTolerance is the side length of the query box built around a point.
const searchTolerance = 1e-9

// Index returns candidate zone IDs whose bounding boxes may contain a point.
// Results are a superset; callers refine with Zone.Contains.
type Index interface {
	Search(p Point) ([]int, error)
}

type zoneBox struct {
	id   int
	rect rtreego.Rect
}

func (b *zoneBox) Bounds() rtreego.Rect { return b.rect }

type rtreeIndex struct {
	tree *rtreego.Rtree
	// unboxed holds zones whose bounds could not be expressed as a rect.
	// They are always returned as candidates.
	unboxed []int
}

func newRTreeIndex(zones []*Zone) *rtreeIndex {
	idx := &rtreeIndex{tree: rtreego.NewTree(2, 25, 50)}
	for _, z := range zones {
		if z.bounds == nil {
			continue
		}
		min, max := z.Bounds()
		rect, err := rtreego.NewRectFromPoints(rtreego.Point{min[0], min[1]}, rtreego.Point{max[0], max[1]})
		if err != nil {
			idx.unboxed = append(idx.unboxed, z.ID)
			continue
		}
		idx.tree.Insert(&zoneBox{id: z.ID, rect: rect})
	}
	return idx
}

func (r *rtreeIndex) Search(p Point) ([]int, error) {
	if r.tree == nil {
		return nil, eris.New("zones: index not built")
	}
	hits := r.tree.SearchIntersect(rtreego.Point{p.Lon, p.Lat}.ToRect(searchTolerance))
	ids := make([]int, 0, len(hits)+len(r.unboxed))
	for _, h := range hits {
		if b, ok := h.(*zoneBox); ok {
			ids = append(ids, b.id)
		}
	}
	ids = append(ids, r.unboxed...)
	return ids, nil
}
