// Package schedule implements the occupancy-grid engine behind the timetable
// and what-if simulation views: period catalog, time-slot expansion, grid
// rebuild and conflict detection.
package schedule

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/models"
)

// Catalog is the ordered period list for one campus day. Order defines
// adjacency: the range "3-5" covers every catalog period from the position of
// "3" through the position of "5", whatever their ids look like. Loaded once,
// immutable afterwards.
type Catalog struct {
	periods []models.Period
	index   map[string]int
}

// NewCatalog builds a catalog from an ordered period list.
func NewCatalog(periods []models.Period) *Catalog {
	index := make(map[string]int, len(periods))
	for i, p := range periods {
		index[p.ID] = i
	}
	return &Catalog{periods: periods, index: index}
}

// DefaultCatalog returns the NTUT day-division periods. "N" is the noon slot
// and "A".."D" are evening periods, which is why range resolution must use
// catalog order rather than numeric arithmetic.
func DefaultCatalog() *Catalog {
	return NewCatalog([]models.Period{
		{ID: "1", Time: "08:10-09:00"},
		{ID: "2", Time: "09:10-10:00"},
		{ID: "3", Time: "10:10-11:00"},
		{ID: "4", Time: "11:10-12:00"},
		{ID: "N", Time: "12:10-13:00"},
		{ID: "5", Time: "13:10-14:00"},
		{ID: "6", Time: "14:10-15:00"},
		{ID: "7", Time: "15:10-16:00"},
		{ID: "8", Time: "16:10-17:00"},
		{ID: "9", Time: "17:10-18:00"},
		{ID: "A", Time: "18:30-19:20"},
		{ID: "B", Time: "19:25-20:15"},
		{ID: "C", Time: "20:20-21:10"},
		{ID: "D", Time: "21:15-22:05"},
	})
}

// CatalogFromFile loads a catalog from a JSON period list.
func CatalogFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read period catalog: %w", err)
	}
	var periods []models.Period
	if err := json.Unmarshal(data, &periods); err != nil {
		return nil, fmt.Errorf("parse period catalog: %w", err)
	}
	if len(periods) == 0 {
		return nil, fmt.Errorf("period catalog %s is empty", path)
	}
	return NewCatalog(periods), nil
}

// IndexOf returns the catalog position of a period id, or -1 when absent.
func (c *Catalog) IndexOf(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

// At returns the period at a catalog position.
func (c *Catalog) At(i int) models.Period {
	return c.periods[i]
}

// Periods returns the ordered period list.
func (c *Catalog) Periods() []models.Period {
	out := make([]models.Period, len(c.periods))
	copy(out, c.periods)
	return out
}

// Len returns the number of periods.
func (c *Catalog) Len() int {
	return len(c.periods)
}
