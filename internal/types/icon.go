package types

// Link relation tiers, highest priority first.
const (
	TierIcon = iota
	TierShortcutIcon
	TierAppleTouchIcon
	TierAppleTouchIconPrecomposed
)

// RelNames maps each tier to the rel value it matches.
var RelNames = [...]string{
	TierIcon:                      "icon",
	TierShortcutIcon:              "shortcut icon",
	TierAppleTouchIcon:            "apple-touch-icon",
	TierAppleTouchIconPrecomposed: "apple-touch-icon-precomposed",
}

// Candidate is a favicon URL discovered in a page but not yet downloaded.
type Candidate struct {
	// URL is the absolute icon URL.
	URL string

	// Rel is the original rel attribute of the link element.
	Rel string

	// Tier is the priority tier the link matched (see TierIcon etc.).
	Tier int
}

// Icon is a downloaded favicon payload.
type Icon struct {
	Data        []byte
	SourceURL   string
	ContentType string
}
