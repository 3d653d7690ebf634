package workspace

import "time"

// Dataset is a table file registered in a workspace.
type Dataset struct {
	ID      string    `json:"id"`
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Format  string    `json:"format"`
	Sheet   string    `json:"sheet,omitempty"`
	Columns []string  `json:"columns"`
	Rows    int       `json:"rows"`
	AddedAt time.Time `json:"added_at"`
}
