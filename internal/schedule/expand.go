package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/models"
)

// CellKey formats the atomic (day, period) coordinate used as grid key.
func CellKey(day int, periodID string) string {
	return fmt.Sprintf("%d_%s", day, periodID)
}

// Expand resolves a course's time entries into atomic cell keys. Each entry's
// period is split on "-" into a start and end label (a single label is its
// own range) and resolved in three tiers:
//
//  1. Both labels found in the catalog with start <= end: one cell per
//     catalog period across the range, keyed by the catalog's period id so
//     catalog-consistent but oddly-written labels still normalize.
//  2. Otherwise, numeric: if the start label parses as an integer, one cell
//     per integer from start to end (or just start when end is missing).
//  3. Otherwise, a single cell carrying the raw period string verbatim.
//     Upstream labels are not guaranteed catalog-consistent, and keeping the
//     data beats dropping it.
//
// Duplicate cells across entries are emitted once, in first-seen order.
func Expand(entries []models.TimeEntry, catalog *Catalog) []string {
	cells := make([]string, 0, len(entries)*2)
	seen := make(map[string]struct{})

	emit := func(key string) {
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		cells = append(cells, key)
	}

	for _, entry := range entries {
		startLabel, endLabel, hasRange := strings.Cut(entry.Period, "-")
		if !hasRange {
			endLabel = startLabel
		}

		startIdx := catalog.IndexOf(startLabel)
		endIdx := catalog.IndexOf(endLabel)

		if startIdx != -1 && endIdx != -1 && startIdx <= endIdx {
			for i := startIdx; i <= endIdx; i++ {
				emit(CellKey(entry.Day, catalog.At(i).ID))
			}
			continue
		}

		start, startErr := strconv.Atoi(strings.TrimSpace(startLabel))
		if startErr == nil {
			end, endErr := strconv.Atoi(strings.TrimSpace(endLabel))
			if endErr != nil {
				end = start
			}
			for p := start; p <= end; p++ {
				emit(CellKey(entry.Day, strconv.Itoa(p)))
			}
			continue
		}

		emit(CellKey(entry.Day, entry.Period))
	}

	return cells
}
