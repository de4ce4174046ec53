package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/uus/internal/catalog"
	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
	tu "github.com/desertthunder/uus/internal/testing"
)

func newTestModel(t *testing.T, userID string) (*Model, *tu.MockStore) {
	t.Helper()
	store := tu.NewMockStore(
		models.Category{Slug: "lepka", Title: "Лепка"},
		models.Category{Slug: "biser", Title: "Бисероплетение"},
	)
	for _, c := range []models.Course{
		{Title: "Глина", CategorySlug: "lepka", Price: 1500, Status: models.StatusPublished, VideoEmbedCode: "https://rutube.ru/video/abc123/"},
		{Title: "Браслеты", CategorySlug: "biser", Status: models.StatusPublished, VideoEmbedCode: "hello world"},
		{Title: "Черновик", Status: models.StatusDraft},
	} {
		c := c
		if err := store.CreateCourse(context.Background(), &c); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}

	cat := catalog.New(store, nil, shared.NewLogger(&bytes.Buffer{}))
	m := NewModel(context.Background(), cat, userID)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, store
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m.Update(cmd())
}

func load(t *testing.T, m *Model) {
	t.Helper()
	run(t, m, m.fetchCategories())
	run(t, m, m.fetchCourses())
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCourseList(t *testing.T) {
	t.Run("Loads Published Courses", func(t *testing.T) {
		m, _ := newTestModel(t, "")
		load(t, m)

		if got := len(m.courseList.Items()); got != 2 {
			t.Fatalf("expected 2 published courses, got %d", got)
		}
		if len(m.categories) != 3 {
			t.Errorf("expected all + 2 categories, got %d", len(m.categories))
		}

		view := m.View()
		if !strings.Contains(view, "Глина") || strings.Contains(view, "Черновик") {
			t.Errorf("unexpected list view:\n%s", view)
		}
	})

	t.Run("Item Description", func(t *testing.T) {
		item := courseItem{course: models.Course{Title: "x", Price: 1500}, category: "Лепка"}
		if got := item.Description(); got != "1\u00a0500 ₽ • Лепка" {
			t.Errorf("unexpected description %q", got)
		}
		if got := (courseItem{course: models.Course{}}).Description(); got != "Бесплатно" {
			t.Errorf("unexpected description %q", got)
		}
	})

	t.Run("Cycles Categories", func(t *testing.T) {
		m, _ := newTestModel(t, "")
		load(t, m)

		_, cmd := m.Update(press("tab"))
		run(t, m, cmd)

		if m.activeCategory() != "lepka" {
			t.Errorf("expected lepka, got %q", m.activeCategory())
		}
		if got := len(m.courseList.Items()); got != 1 {
			t.Errorf("expected 1 course in lepka, got %d", got)
		}
		if !strings.Contains(m.courseList.Title, "Лепка") {
			t.Errorf("title should name the category, got %q", m.courseList.Title)
		}

		m.Update(press("tab"))
		m.Update(press("tab"))
		if m.catIdx != 0 {
			t.Errorf("expected to wrap around to all, got %d", m.catIdx)
		}
	})

	t.Run("Store Error", func(t *testing.T) {
		m, store := newTestModel(t, "")
		store.Err = errors.New("offline")
		run(t, m, m.fetchCourses())

		if !strings.Contains(m.View(), "offline") {
			t.Errorf("expected error view, got:\n%s", m.View())
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m, _ := newTestModel(t, "")
		_, cmd := m.Update(press("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestCourseDetail(t *testing.T) {
	open := func(t *testing.T, m *Model, title string) {
		t.Helper()
		for i, item := range m.courseList.Items() {
			if item.(courseItem).course.Title == title {
				m.courseList.Select(i)
			}
		}
		_, cmd := m.Update(press("enter"))
		run(t, m, cmd)
		if m.view != CourseDetailView {
			t.Fatalf("expected detail view, got %d", m.view)
		}
	}

	t.Run("Player URL", func(t *testing.T) {
		m, _ := newTestModel(t, "")
		load(t, m)
		open(t, m, "Глина")

		view := m.View()
		if !strings.Contains(view, "https://rutube.ru/play/embed/abc123") {
			t.Errorf("expected canonical URL, got:\n%s", view)
		}
		if !strings.Contains(view, "Лепка") {
			t.Error("expected category title")
		}
	})

	t.Run("Placeholder", func(t *testing.T) {
		m, _ := newTestModel(t, "")
		load(t, m)
		open(t, m, "Браслеты")

		if !strings.Contains(m.View(), "Видео не задано") {
			t.Errorf("expected placeholder, got:\n%s", m.View())
		}
	})

	t.Run("Back", func(t *testing.T) {
		m, _ := newTestModel(t, "")
		load(t, m)
		open(t, m, "Глина")

		m.Update(press("esc"))
		if m.view != CourseListView || m.detail != nil {
			t.Error("esc should return to the list")
		}
	})

	t.Run("Like", func(t *testing.T) {
		m, store := newTestModel(t, "u1")
		load(t, m)
		open(t, m, "Глина")

		_, cmd := m.Update(press("l"))
		run(t, m, cmd)

		if !m.detail.Liked {
			t.Error("expected course to be liked")
		}
		if !store.Likes["u1"][m.detail.Course.ID] {
			t.Error("expected like to be stored")
		}
		if !strings.Contains(m.View(), "В избранном") {
			t.Error("expected liked marker")
		}
	})

	t.Run("Like Without User", func(t *testing.T) {
		m, _ := newTestModel(t, "")
		load(t, m)
		open(t, m, "Глина")

		if _, cmd := m.Update(press("l")); cmd != nil {
			t.Error("like without a user should not call the store")
		}
		if !strings.Contains(m.View(), "--user") {
			t.Error("expected hint about --user")
		}
	})
}
