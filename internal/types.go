package internal

const (
	PlaceholderType   = "Unknown"
	PlaceholderRarity = "Limited"
)

type Track string

const (
	TrackPremium Track = "premium"
	TrackFree    Track = "free"
)

type RewardItem struct {
	Tier     int    `json:"tier"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Rarity   string `json:"rarity"`
	IsFree   bool   `json:"isFree"`
	ImageURL string `json:"imageUrl"`
}

func (r RewardItem) Track() Track {
	if r.IsFree {
		return TrackFree
	}
	return TrackPremium
}

type RunStatus string

const (
	RunOK     RunStatus = "ok"
	RunEmpty  RunStatus = "empty"
	RunFailed RunStatus = "failed"
)

type RunRecord struct {
	ID        string             `json:"id"`
	Season    int                `json:"season"`
	SourceURL string             `json:"sourceUrl"`
	Status    RunStatus          `json:"status"`
	Items     int                `json:"items"`
	Error     string             `json:"error,omitempty"`
	Timings   map[string]float64 `json:"timings"`
	Counts    map[string]int     `json:"counts"`
	CreatedAt string             `json:"createdAt"`
}

type SeasonSummary struct {
	Season    int    `json:"season"`
	SourceURL string `json:"sourceUrl"`
	Items     int    `json:"items"`
	Premium   int    `json:"premium"`
	Free      int    `json:"free"`
	MaxTier   int    `json:"maxTier"`
	UpdatedAt string `json:"updatedAt"`
}
