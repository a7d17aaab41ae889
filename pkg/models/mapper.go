package models

// Placeholder rendition used when a favourite is expanded back into an
// article; the stored image URL keeps no format or dimensions.
const (
	thumbnailFormat = "Standard Thumbnail"
	thumbnailSize   = 75
)

// ToFavourite projects an article into its stored form. The media
// sequence collapses to the single preferred image URL, so the
// projection is lossy for everything but the id and that URL.
func ToFavourite(a Article) Favourite {
	return Favourite{
		ID:            a.ID,
		URL:           a.URL,
		Title:         a.Title,
		Byline:        a.Byline,
		PublishedDate: a.PublishedDate,
		Abstract:      a.Abstract,
		ImageURL:      a.ImageURL(),
	}
}

// ToArticle expands a stored favourite back into the article shape the
// display layer works with. A stored image URL is re-wrapped as a
// single-element media sequence with placeholder format and dimensions.
func ToArticle(f Favourite) Article {
	a := Article{
		ID:            f.ID,
		URL:           f.URL,
		Title:         f.Title,
		Byline:        f.Byline,
		PublishedDate: f.PublishedDate,
		Abstract:      f.Abstract,
	}
	if f.ImageURL != "" {
		a.Media = []Media{{
			Type:    "image",
			Subtype: "photo",
			MediaMetadata: []MediaMetadata{{
				URL:    f.ImageURL,
				Format: thumbnailFormat,
				Height: thumbnailSize,
				Width:  thumbnailSize,
			}},
		}}
	}
	return a
}

// ToArticles expands a list of favourites, preserving store order.
func ToArticles(favs []Favourite) []Article {
	if favs == nil {
		return nil
	}
	articles := make([]Article, len(favs))
	for i, f := range favs {
		articles[i] = ToArticle(f)
	}
	return articles
}
