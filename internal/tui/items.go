package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/marcoalonso/nytpopular/pkg/models"
)

type articleItem struct {
	article models.Article
}

func (i articleItem) Title() string {
	return i.article.Title
}

func (i articleItem) Description() string {
	return fmt.Sprintf("%s | %s", i.article.Byline, i.article.PublishedDate)
}

func (i articleItem) FilterValue() string {
	return i.article.Title
}

var _ list.Item = articleItem{}

type favouriteItem struct {
	favourite models.Favourite
}

func (i favouriteItem) Title() string {
	return i.favourite.Title
}

func (i favouriteItem) Description() string {
	return fmt.Sprintf("%s | %s", i.favourite.Byline, i.favourite.PublishedDate)
}

func (i favouriteItem) FilterValue() string {
	return i.favourite.Title
}

var _ list.Item = favouriteItem{}
