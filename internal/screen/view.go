package screen

import (
	"fmt"
	"strings"
)

type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateDetail  State = "detail"
)

const (
	MainScreenName     = "MainScreen"
	CategoryScreenName = "CategoryViewScreen"

	msgNoCategories = "No animal category found."
	msgNoData       = "No data available."
	msgLoading      = "Loading..."
)

// Item is one selectable entry on a screen.
type Item struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
}

// View is a complete rendering of one screen. Views are never mutated after
// they are published.
type View struct {
	State     State  `json:"state"`
	Title     string `json:"title"`
	BackLabel string `json:"back_label,omitempty"`
	Message   string `json:"message,omitempty"`
	Degraded  bool   `json:"degraded"`
	Items     []Item `json:"items"`
}

func displayName(adjective, name string) string {
	return strings.TrimSpace(adjective + " " + name)
}

func categoryLabel(adjective, name string) string {
	return displayName(adjective, name) + " Pictures"
}

func imageCount(n int) string {
	return fmt.Sprintf("%d images", n)
}
