package titledb

// Page is one entry of the title catalog.
type Page struct {
	DocIndex int    `json:"doc_index"`
	DocName  string `json:"docname"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
}

type Result struct {
	DocIndex int     `json:"doc_index"`
	DocName  string  `json:"docname"`
	Title    string  `json:"title"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

type Response struct {
	Results    []Result `json:"results"`
	Total      uint64   `json:"total"`
	MaxScore   float64  `json:"max_score"`
	SearchTime string   `json:"search_time"`
}
