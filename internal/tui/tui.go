package tui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/marcoalonso/nytpopular/internal/controller"
	"github.com/marcoalonso/nytpopular/pkg/models"
)

type View int

const (
	ViewArticleList View = iota
	ViewFavourites
	ViewArticleDetail
	ViewHelp
)

type Model struct {
	ctrl *controller.Controller
	ctx  context.Context

	view     View
	prevView View
	list     list.Model
	favList  list.Model
	snapshot controller.Snapshot
	snapCh   <-chan controller.Snapshot
	unsub    func()

	width          int
	height         int
	statusMsg      string
	articleContent string
}

type snapshotMsg controller.Snapshot

type favouritesLoadedMsg struct {
	favourites []models.Favourite
}

type errorMsg struct {
	err error
}

type statusMsg string

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	offlineStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("208"))
)

func New(ctx context.Context, ctrl *controller.Controller) Model {
	delegate := list.NewDefaultDelegate()

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "NYT - Popular Articles"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	fl := list.New([]list.Item{}, delegate, 0, 0)
	fl.Title = "Favourite Articles"
	fl.SetShowStatusBar(true)
	fl.SetFilteringEnabled(true)
	fl.Styles.Title = titleStyle

	snapCh, unsub := ctrl.Subscribe()

	return Model{
		ctrl:     ctrl,
		ctx:      ctx,
		view:     ViewArticleList,
		list:     l,
		favList:  fl,
		snapshot: ctrl.Current(),
		snapCh:   snapCh,
		unsub:    unsub,
	}
}

func (m Model) Init() tea.Cmd {
	m.ctrl.Fetch(m.ctx, models.CategoryViewed, models.PeriodWeek)
	return tea.Batch(
		waitForSnapshot(m.snapCh),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-5)
		m.favList.SetSize(msg.Width, msg.Height-5)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case snapshotMsg:
		m.snapshot = controller.Snapshot(msg)
		items := make([]list.Item, len(m.snapshot.Articles))
		for i, article := range m.snapshot.Articles {
			items[i] = articleItem{article}
		}
		m.list.SetItems(items)
		m.list.Title = m.snapshot.Category.DisplayName() + " - " + m.snapshot.Period.DisplayName()
		return m, waitForSnapshot(m.snapCh)

	case favouritesLoadedMsg:
		items := make([]list.Item, len(msg.favourites))
		for i, fav := range msg.favourites {
			items[i] = favouriteItem{fav}
		}
		m.favList.SetItems(items)
		return m, nil

	case errorMsg:
		m.statusMsg = errorStyle.Render(fmt.Sprintf("Error: %v", msg.err))
		return m, nil

	case statusMsg:
		m.statusMsg = statusStyle.Render(string(msg))
		return m, nil
	}

	var cmd tea.Cmd
	switch m.view {
	case ViewFavourites:
		m.favList, cmd = m.favList.Update(msg)
	default:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewArticleList:
		return m.handleListKeys(msg)
	case ViewFavourites:
		return m.handleFavouriteKeys(msg)
	case ViewArticleDetail:
		return m.handleDetailKeys(msg)
	case ViewHelp:
		return m.handleHelpKeys(msg)
	}
	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.unsub()
		return m, tea.Quit

	case "tab":
		m.view = ViewFavourites
		return m, loadFavourites(m.ctrl)

	case "enter":
		if i, ok := m.list.SelectedItem().(articleItem); ok {
			m.prevView = ViewArticleList
			m.view = ViewArticleDetail
			m.articleContent = renderArticle(i.article)
			return m, nil
		}

	case "c":
		next := nextCategory(m.snapshot.Category)
		m.ctrl.Fetch(m.ctx, next, m.snapshot.Period)
		return m, func() tea.Msg { return statusMsg("Loading " + next.DisplayName() + "...") }

	case "p":
		next := nextPeriod(m.snapshot.Period)
		m.ctrl.Fetch(m.ctx, m.snapshot.Category, next)
		return m, func() tea.Msg { return statusMsg("Loading " + next.DisplayName() + "...") }

	case "r":
		m.ctrl.Refresh(m.ctx)
		return m, func() tea.Msg { return statusMsg("Refreshing articles...") }

	case "f":
		if i, ok := m.list.SelectedItem().(articleItem); ok {
			return m, toggleFavourite(m.ctrl, i.article)
		}

	case "s":
		return m, saveAll(m.ctrl)

	case "?":
		m.prevView = ViewArticleList
		m.view = ViewHelp
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleFavouriteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.unsub()
		return m, tea.Quit

	case "tab", "esc":
		m.view = ViewArticleList
		return m, nil

	case "enter":
		if i, ok := m.favList.SelectedItem().(favouriteItem); ok {
			m.prevView = ViewFavourites
			m.view = ViewArticleDetail
			m.articleContent = renderArticle(models.ToArticle(i.favourite))
			return m, nil
		}

	case "d":
		if i, ok := m.favList.SelectedItem().(favouriteItem); ok {
			if err := m.ctrl.RemoveFavourite(i.favourite.ID); err != nil {
				return m, func() tea.Msg { return errorMsg{err} }
			}
			return m, tea.Batch(
				loadFavourites(m.ctrl),
				func() tea.Msg { return statusMsg("Favourite removed") },
			)
		}

	case "D":
		if err := m.ctrl.ClearFavourites(); err != nil {
			return m, func() tea.Msg { return errorMsg{err} }
		}
		return m, tea.Batch(
			loadFavourites(m.ctrl),
			func() tea.Msg { return statusMsg("All favourites removed") },
		)

	case "?":
		m.prevView = ViewFavourites
		m.view = ViewHelp
		return m, nil
	}

	var cmd tea.Cmd
	m.favList, cmd = m.favList.Update(msg)
	return m, cmd
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.unsub()
		return m, tea.Quit

	case "esc", "backspace":
		m.view = m.prevView
		m.articleContent = ""
		return m, nil

	case "o":
		if url := m.selectedURL(); url != "" {
			openBrowser(url)
			return m, func() tea.Msg { return statusMsg("Opened in browser") }
		}

	case "f":
		if m.prevView == ViewArticleList {
			if i, ok := m.list.SelectedItem().(articleItem); ok {
				return m, toggleFavourite(m.ctrl, i.article)
			}
		}

	case "?":
		m.view = ViewHelp
		return m, nil
	}

	return m, nil
}

func (m Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "?", "q":
		if m.articleContent != "" {
			m.view = ViewArticleDetail
		} else {
			m.view = m.prevView
		}
		return m, nil
	}
	return m, nil
}

func (m Model) selectedURL() string {
	if m.prevView == ViewFavourites {
		if i, ok := m.favList.SelectedItem().(favouriteItem); ok {
			return i.favourite.URL
		}
		return ""
	}
	if i, ok := m.list.SelectedItem().(articleItem); ok {
		return i.article.URL
	}
	return ""
}

func (m Model) View() string {
	switch m.view {
	case ViewArticleList:
		return m.renderList(m.list)
	case ViewFavourites:
		return m.renderFavourites()
	case ViewArticleDetail:
		return m.renderDetail()
	case ViewHelp:
		return m.renderHelp()
	}
	return ""
}

func (m Model) renderList(l list.Model) string {
	var s strings.Builder

	s.WriteString(l.View())
	s.WriteString("\n")

	if !m.snapshot.Connected || m.snapshot.Offline {
		s.WriteString(offlineStyle.Render("OFFLINE - showing favourites"))
	} else if m.snapshot.Loading {
		s.WriteString(statusStyle.Render("Loading..."))
	} else if m.snapshot.ErrorMessage != "" {
		s.WriteString(errorStyle.Render(m.snapshot.ErrorMessage))
	} else if m.statusMsg != "" {
		s.WriteString(m.statusMsg)
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("enter: detail • c: category • p: period • r: refresh • f: favourite • s: save all • tab: favourites • ?: help • q: quit"))

	return s.String()
}

func (m Model) renderFavourites() string {
	var s strings.Builder

	s.WriteString(m.favList.View())
	s.WriteString("\n")

	if m.statusMsg != "" {
		s.WriteString(m.statusMsg)
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("enter: detail • d: delete • D: delete all • tab: articles • ?: help • q: quit"))

	return s.String()
}

func (m Model) renderDetail() string {
	var s strings.Builder

	s.WriteString(m.articleContent)
	s.WriteString("\n")

	if m.statusMsg != "" {
		s.WriteString(m.statusMsg)
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("o: open browser • f: favourite • esc: back • q: quit"))

	return s.String()
}

func (m Model) renderHelp() string {
	help := `
NYT Popular Articles - Keyboard Shortcuts

Article List:
  ↑/↓, j/k     Navigate articles
  enter        Article detail
  c            Cycle category (viewed / emailed / shared)
  p            Cycle period (1 / 7 / 30 days)
  r            Refresh current selection
  f            Toggle favourite
  s            Save all displayed articles
  tab          Switch to favourites
  /            Filter articles
  q, ctrl+c    Quit

Favourites:
  enter        Favourite detail
  d            Delete favourite
  D            Delete all favourites
  tab, esc     Back to articles

Article Detail:
  o            Open article in browser
  f            Toggle favourite
  esc          Back

General:
  ?            Show/hide this help
`
	return help + "\n" + helpStyle.Render("Press ? or esc to close help")
}

func waitForSnapshot(ch <-chan controller.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func loadFavourites(ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		favs, err := ctrl.Favourites()
		if err != nil {
			return errorMsg{err}
		}
		return favouritesLoadedMsg{favs}
	}
}

func toggleFavourite(ctrl *controller.Controller, article models.Article) tea.Cmd {
	return func() tea.Msg {
		added, err := ctrl.ToggleFavourite(article)
		if err != nil {
			return errorMsg{err}
		}
		if added {
			return statusMsg("Saved to favourites")
		}
		return statusMsg("Removed from favourites")
	}
}

func saveAll(ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		saved, err := ctrl.SaveAllCurrent()
		if err != nil {
			return errorMsg{err}
		}
		if saved == 0 {
			return statusMsg("Already saved")
		}
		return statusMsg(fmt.Sprintf("Saved %d new favourites", saved))
	}
}

func nextCategory(current models.Category) models.Category {
	for i, c := range models.Categories {
		if c == current {
			return models.Categories[(i+1)%len(models.Categories)]
		}
	}
	return models.CategoryViewed
}

func nextPeriod(current models.Period) models.Period {
	for i, p := range models.Periods {
		if p == current {
			return models.Periods[(i+1)%len(models.Periods)]
		}
	}
	return models.PeriodWeek
}

func renderArticle(article models.Article) string {
	var md strings.Builder

	md.WriteString("# " + article.Title + "\n\n")
	if article.Byline != "" {
		md.WriteString("*" + article.Byline + "*\n\n")
	}
	md.WriteString("Published: " + article.PublishedDate + "\n\n")
	md.WriteString(article.Abstract + "\n\n")
	if url := article.ImageURL(); url != "" {
		md.WriteString("Image: " + url + "\n\n")
	}
	md.WriteString("[Read Full Article](" + article.URL + ")\n")

	out, err := glamour.Render(md.String(), "dark")
	if err != nil {
		return md.String()
	}
	return out
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
