package models

// KeyUsage holds request timestamps (epoch ms) in insertion order.
type KeyUsage struct {
	MinuteRequests []int64 `json:"minuteRequests"`
	DayRequests    []int64 `json:"dayRequests"`
}

// APIKeyState is the persisted rotation state.
type APIKeyState struct {
	KeyIndex  int                  `json:"keyIndex"`
	KeyUsage  map[string]*KeyUsage `json:"keyUsage"`
	ExtraKeys []string             `json:"extraKeys,omitempty"`
}

// KeySelection is a key chosen for one request.
type KeySelection struct {
	Key   string
	Index int
}

type KeyRemaining struct {
	// Key is masked; raw keys never leave the rotation manager.
	Key       string `json:"key"`
	Minute    int    `json:"minute"`
	Day       int    `json:"day"`
	Available bool   `json:"available"`
}

type RemainingRequests struct {
	Minute        int            `json:"minute"`
	Day           int            `json:"day"`
	TotalKeys     int            `json:"totalKeys"`
	AvailableKeys int            `json:"availableKeys"`
	Keys          []KeyRemaining `json:"keys"`
}
