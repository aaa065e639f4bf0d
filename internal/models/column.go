package models

// Column is a gradeable lesson slot.
type Column struct {
	Id    int    `json:"Id"`
	Title string `json:"Title"`
}
