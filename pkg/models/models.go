package models

import "fmt"

// Category is one of the remote "most popular" rankings.
type Category string

const (
	CategoryEmailed Category = "emailed"
	CategoryShared  Category = "shared"
	CategoryViewed  Category = "viewed"
)

// Categories lists all rankings in picker order.
var Categories = []Category{CategoryViewed, CategoryEmailed, CategoryShared}

func (c Category) Valid() bool {
	switch c {
	case CategoryEmailed, CategoryShared, CategoryViewed:
		return true
	}
	return false
}

// DisplayName returns the human-readable ranking title.
func (c Category) DisplayName() string {
	switch c {
	case CategoryEmailed:
		return "Most Emailed Articles"
	case CategoryShared:
		return "Most Shared Articles"
	case CategoryViewed:
		return "Most Viewed Articles"
	}
	return string(c)
}

// Period is the reporting window in days.
type Period int

const (
	PeriodDay   Period = 1
	PeriodWeek  Period = 7
	PeriodMonth Period = 30
)

// Periods lists all reporting windows in picker order.
var Periods = []Period{PeriodDay, PeriodWeek, PeriodMonth}

func (p Period) Valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return true
	}
	return false
}

func (p Period) DisplayName() string {
	if p == PeriodDay {
		return "1 Day"
	}
	return fmt.Sprintf("%d Days", int(p))
}

// Response is the envelope returned by the most-popular endpoint.
type Response struct {
	Status  string    `json:"status"`
	Results []Article `json:"results"`
}

// Article is a single entry from the remote ranking. The id is assigned
// by the remote source and is the join key against stored favourites.
type Article struct {
	ID            int64   `json:"id"`
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Byline        string  `json:"byline"`
	PublishedDate string  `json:"published_date"`
	Abstract      string  `json:"abstract"`
	Media         []Media `json:"media,omitempty"`
}

type Media struct {
	Type          string          `json:"type"`
	Subtype       string          `json:"subtype"`
	Caption       string          `json:"caption,omitempty"`
	MediaMetadata []MediaMetadata `json:"media-metadata,omitempty"`
}

// MediaMetadata is one rendition size of a media entry. Entries are
// ordered smallest to largest by the remote source.
type MediaMetadata struct {
	URL    string `json:"url"`
	Format string `json:"format"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// ImageURL returns the preferred rendition of the article's first media
// entry: the last metadata variant, which is the highest resolution.
// Empty when the article carries no media.
func (a Article) ImageURL() string {
	if len(a.Media) == 0 {
		return ""
	}
	meta := a.Media[0].MediaMetadata
	if len(meta) == 0 {
		return ""
	}
	return meta[len(meta)-1].URL
}

// Favourite is a locally persisted article. It is a flat projection of
// an Article: the media sequence collapses to a single optional image
// URL. Rows are replaced wholesale, never mutated.
type Favourite struct {
	ID            int64  `json:"id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	Byline        string `json:"byline"`
	PublishedDate string `json:"published_date"`
	Abstract      string `json:"abstract"`
	ImageURL      string `json:"image_url,omitempty"`
}
