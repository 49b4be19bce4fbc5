package analytics

import "time"

type HitType string

const (
	HitScreenView HitType = "screenview"
	HitEvent      HitType = "event"
)

// Hit is one screen view or event as stored in analytics_hits.
type Hit struct {
	Type     HitType
	ClientID string
	Screen   string
	Category string
	Action   string
	Label    string
	At       time.Time
}
