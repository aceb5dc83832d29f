package domain

// NoteMeta is display metadata for a note, supplied by the surrounding
// application's note store. The scheduler treats it as opaque: it is joined
// into review queues for rendering and never validated or transformed.
type NoteMeta struct {
	ID       string
	Title    string
	Category string
	Tags     []string
	Content  string
}
