package models

// DayCount is one calendar day (UTC, YYYY-MM-DD) of the
// clicks-over-time series.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// OSStat is the per-operating-system slice of a breakdown.
type OSStat struct {
	OSName       string `json:"osName"`
	UniqueClicks int    `json:"uniqueClicks"`
	UniqueUsers  int    `json:"uniqueUsers"`
}

// DeviceStat is the per-device-class slice of a breakdown.
type DeviceStat struct {
	DeviceName   string `json:"deviceName"`
	UniqueClicks int    `json:"uniqueClicks"`
	UniqueUsers  int    `json:"uniqueUsers"`
}

// Stats is the shared analytics shape computed over a scoped set
// of click events. Slices are always non-nil: a zero-event scope
// serializes as zero counts and empty lists, never null.
type Stats struct {
	TotalClicks     int          `json:"totalClicks"`
	UniqueUsers     int          `json:"uniqueUsers"`
	ClicksOverTime  []DayCount   `json:"clicksOverTime"`
	OSBreakdown     []OSStat     `json:"osBreakdown"`
	DeviceBreakdown []DeviceStat `json:"deviceBreakdown"`
}

// OverallStats is the owner-wide aggregate.
type OverallStats struct {
	TotalURLs int `json:"totalUrls"`
	Stats
}

// AliasClickStats is one alias's own counts within a topic scope,
// sorted by click count descending in TopicStats.URLs.
type AliasClickStats struct {
	ShortURL    string `json:"shortUrl"`
	TotalClicks int    `json:"totalClicks"`
	UniqueUsers int    `json:"uniqueUsers"`
}

// TopicStats is the aggregate over one owner's topic group.
type TopicStats struct {
	Stats
	URLs []AliasClickStats `json:"urls"`
}

// AliasStats is the aggregate over a single short link.
type AliasStats struct {
	Stats
}
