package schedule

import "github.com/06wuuntt/NTUT-Coursesystem/internal/models"

// Grid maps atomic cell keys to the course id occupying them. In a committed
// simulation every cell has exactly one owner; that invariant is enforced by
// gating every add through Conflicts, not by the grid itself.
type Grid map[string]string

// Rebuild derives the grid from scratch for the given selection order and
// course data. Inputs are expected to be conflict-free; should overlapping
// courses slip in anyway (corrupt persisted state, bypassed gate), the later
// course in selection order silently owns the shared cells rather than
// failing, since rehydration must never crash.
func Rebuild(selectedIDs []string, courses map[string]models.Course, catalog *Catalog) Grid {
	grid := make(Grid)
	for _, id := range selectedIDs {
		course, ok := courses[id]
		if !ok {
			continue
		}
		grid.Place(course, catalog)
	}
	return grid
}

// Place merges one course's cells into the grid. Used as the incremental
// path after a conflict-free add; the result matches a full Rebuild over the
// extended selection.
func (g Grid) Place(course models.Course, catalog *Catalog) {
	for _, cell := range Expand(course.Time, catalog) {
		g[cell] = course.ID
	}
}

// Conflicts returns the ids of committed courses whose cells intersect the
// candidate's expansion, in first-encountered order. Empty means the add may
// proceed. The grid must not already contain the candidate.
func Conflicts(grid Grid, candidate models.Course, catalog *Catalog) []string {
	var occupants []string
	seen := make(map[string]struct{})
	for _, cell := range Expand(candidate.Time, catalog) {
		if owner, occupied := grid[cell]; occupied {
			if _, dup := seen[owner]; !dup {
				seen[owner] = struct{}{}
				occupants = append(occupants, owner)
			}
		}
	}
	return occupants
}
