package scraper

import "encoding/json"

// Messages of the lichess TV feed, one JSON object per line.

type feedMessage struct {
	Type string          `json:"t"`
	Data json.RawMessage `json:"d"`
}

type feedPlayer struct {
	Color  string `json:"color"`
	Rating int    `json:"rating"`
	User   struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Title string `json:"title"`
	} `json:"user"`
}

// featuredGame opens a new game on the channel.
type featuredGame struct {
	ID          string       `json:"id"`
	Orientation string       `json:"orientation"`
	Players     []feedPlayer `json:"players"`
	FEN         string       `json:"fen"`
}

// moveUpdate follows every move. FEN holds the placement and the side to
// move only.
type moveUpdate struct {
	FEN        string `json:"fen"`
	LastMove   string `json:"lm"`
	WhiteClock int    `json:"wc"`
	BlackClock int    `json:"bc"`
}
