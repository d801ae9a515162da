package domain

// Page is the fetched content of a single article: the rendered text split
// into sections, the outbound wiki links, and the source categories.
type Page struct {
	Title      string    `json:"title"`
	Sections   []Section `json:"sections"`
	Links      []string  `json:"links"`
	Categories []string  `json:"categories"`
}

// Section is one heading-delimited block of article text.
type Section struct {
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

// Knowledge is the structured output of the extraction stage for one entry.
type Knowledge struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
	Facts         []string       `json:"facts"`
}

// Entity is a named thing mentioned in an article.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Relationship is a directed assertion between two entities.
type Relationship struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}
