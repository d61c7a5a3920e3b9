package health

import (
	"encoding/json"
	"time"
)

// Status represents the health state of an item.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Category groups health items.
type Category string

const (
	CategoryDatabase Category = "database"
	CategoryRootDirs Category = "rootDirs"
)

// AllCategories returns all health categories in display order.
func AllCategories() []Category {
	return []Category{CategoryDatabase, CategoryRootDirs}
}

// Item is a single health-tracked item.
type Item struct {
	ID        string     `json:"id"`
	Category  Category   `json:"category"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// MarshalJSON omits the message and timestamp for OK items.
func (i Item) MarshalJSON() ([]byte, error) {
	type alias Item
	a := alias(i)
	if i.Status == StatusOK {
		a.Timestamp = nil
		a.Message = ""
	}
	return json.Marshal(a)
}

// CategorySummary provides counts for a health category.
type CategorySummary struct {
	Category Category `json:"category"`
	OK       int      `json:"ok"`
	Warning  int      `json:"warning"`
	Error    int      `json:"error"`
}

// HasIssues returns true if there are any warning or error items.
func (c CategorySummary) HasIssues() bool {
	return c.Warning > 0 || c.Error > 0
}

// Response contains all health items grouped by category.
type Response struct {
	Database []Item `json:"database"`
	RootDirs []Item `json:"rootDirs"`
}

// Summary provides an overview of system health.
type Summary struct {
	Categories []CategorySummary `json:"categories"`
	HasIssues  bool              `json:"hasIssues"`
}
