package models

// Period is a named, ordered teaching-time slot. IDs are not guaranteed to be
// numeric (NTUT uses "N" for the noon slot and "A".."D" for evening periods),
// so range resolution must go through catalog ordering, never arithmetic.
type Period struct {
	ID   string `json:"id"`
	Time string `json:"time"`
}
