package entities

// PageElement describes an element found on the page under test
type PageElement struct {
	Selector  string `json:"selector"`
	Text      string `json:"text"`
	IsVisible bool   `json:"is_visible"`
}
