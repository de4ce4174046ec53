package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/uus/internal/catalog"
	"github.com/desertthunder/uus/internal/formatter"
	"github.com/desertthunder/uus/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CourseListView ViewState = iota
	CourseDetailView
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	catalog    *catalog.Catalog
	userID     string
	width      int
	height     int
	categories []models.Category // index 0 is "all"
	catIdx     int
	labels     formatter.Labels
	courseList list.Model
	detail     *catalog.CourseView
	status     string
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model. userID enables liking courses and may be empty.
func NewModel(ctx context.Context, cat *catalog.Catalog, userID string) *Model {
	courseList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	courseList.Title = "Каталог курсов"

	return &Model{
		ctx:        ctx,
		view:       CourseListView,
		catalog:    cat,
		userID:     userID,
		categories: []models.Category{{Title: "Все"}},
		labels:     formatter.Labels{},
		courseList: courseList,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init fetches categories and the first page of courses.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCategories(), m.fetchCourses())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.courseList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CourseListView:
			return m.handleListKeys(msg)
		case CourseDetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.courseList, cmd = m.courseList.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCategoriesFetched:
		data := msg.data.(categoriesFetched)
		if data.err != nil {
			m.status = fmt.Sprintf("categories unavailable: %v", data.err)
			return m, nil
		}
		m.categories = append([]models.Category{{Title: "Все"}}, data.categories...)
		m.labels = formatter.NewLabels(data.categories)
		return m, nil

	case MsgCoursesFetched:
		data := msg.data.(coursesFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		cmd := m.courseList.SetItems(courseItems(data.courses, m.labels))
		m.courseList.Title = m.listTitle()
		return m, cmd

	case MsgDetailFetched:
		data := msg.data.(detailFetched)
		if data.err != nil {
			m.status = fmt.Sprintf("failed to open course: %v", data.err)
			return m, nil
		}
		m.detail = data.view
		m.status = ""
		m.view = CourseDetailView
		return m, nil

	case MsgLikeToggled:
		data := msg.data.(likeToggled)
		if data.err != nil {
			m.status = fmt.Sprintf("failed to update like: %v", data.err)
			return m, nil
		}
		if m.detail != nil {
			m.detail.Liked = data.liked
		}
		m.status = ""
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case CourseDetailView:
		return m.renderDetail()
	default:
		return m.renderList()
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.courseList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.courseList, cmd = m.courseList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.courseList.SelectedItem().(courseItem); ok {
			return m, m.fetchDetail(item.course.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.category):
		m.catIdx = (m.catIdx + 1) % len(m.categories)
		return m, m.fetchCourses()
	case key.Matches(msg, m.keys.refresh):
		return m, tea.Batch(m.fetchCategories(), m.fetchCourses())
	}

	var cmd tea.Cmd
	m.courseList, cmd = m.courseList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = CourseListView
		m.detail = nil
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.like):
		if m.userID == "" {
			m.status = "start the browser with --user to like courses"
			return m, nil
		}
		if m.detail != nil {
			return m, m.toggleLike(m.detail.Course.ID)
		}
	}
	return m, nil
}

// activeCategory returns the selected category slug, "" for all.
func (m *Model) activeCategory() string {
	return m.categories[m.catIdx].Slug
}

func (m *Model) listTitle() string {
	if m.catIdx == 0 {
		return "Каталог курсов"
	}
	return "Каталог курсов: " + m.categories[m.catIdx].Title
}

func (m *Model) fetchCategories() tea.Cmd {
	return func() tea.Msg {
		categories, err := m.catalog.Categories(m.ctx)
		return categoriesFetchedMsg(categories, err)
	}
}

func (m *Model) fetchCourses() tea.Cmd {
	filter := models.PublishedIn(m.activeCategory())
	return func() tea.Msg {
		courses, err := m.catalog.Browse(m.ctx, filter)
		return coursesFetchedMsg(courses, err)
	}
}

func (m *Model) fetchDetail(id string) tea.Cmd {
	return func() tea.Msg {
		view, err := m.catalog.Detail(m.ctx, id, m.userID)
		return detailFetchedMsg(view, err)
	}
}

func (m *Model) toggleLike(id string) tea.Cmd {
	return func() tea.Msg {
		liked, err := m.catalog.ToggleLike(m.ctx, m.userID, id)
		return likeToggledMsg(liked, err)
	}
}

func (m *Model) renderList() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.category, m.keys.refresh, m.keys.quit}
	out := fmt.Sprintf("%s\n\n%s", m.courseList.View(), m.help.ShortHelpView(helpKeys))
	if m.status != "" {
		out += "\n" + styles.warn.Render(m.status)
	}
	return out
}

func (m *Model) renderDetail() string {
	if m.detail == nil {
		return ""
	}
	c := m.detail.Course

	var b strings.Builder
	b.WriteString(styles.title.Render(c.Title))
	b.WriteString("\n")

	if m.detail.Category != nil {
		b.WriteString(styles.help.Render(m.detail.Category.Title))
		b.WriteString("\n")
	}
	b.WriteString(styles.price.Render(formatter.FormatPrice(c.Price)))
	b.WriteString("\n\n")

	if c.Description != "" {
		b.WriteString(c.Description)
		b.WriteString("\n\n")
	}

	if m.detail.Video.OK {
		b.WriteString(styles.ok.Render("▶ " + m.detail.Video.EmbedURL))
	} else {
		b.WriteString(styles.warn.Render(formatter.NoVideoLabel))
	}
	b.WriteString("\n")

	if m.userID != "" {
		if m.detail.Liked {
			b.WriteString("\n♥ В избранном\n")
		} else {
			b.WriteString("\n♡ Не в избранном\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n" + styles.warn.Render(m.status) + "\n")
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.like, m.keys.quit}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}
