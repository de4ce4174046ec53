package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/uus/internal/catalog"
	"github.com/desertthunder/uus/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCategoriesFetched MsgKind = iota
	MsgCoursesFetched
	MsgDetailFetched
	MsgLikeToggled
)

type categoriesFetched struct {
	categories []models.Category
	err        error
}

type coursesFetched struct {
	courses []models.Course
	err     error
}

type detailFetched struct {
	view *catalog.CourseView
	err  error
}

type likeToggled struct {
	liked bool
	err   error
}

// categoriesFetchedMsg is the constructor for [MsgCategoriesFetched]
func categoriesFetchedMsg(categories []models.Category, err error) Msg {
	return Msg{kind: MsgCategoriesFetched, data: categoriesFetched{categories, err}}
}

// coursesFetchedMsg is the constructor for [MsgCoursesFetched]
func coursesFetchedMsg(courses []models.Course, err error) Msg {
	return Msg{kind: MsgCoursesFetched, data: coursesFetched{courses, err}}
}

// detailFetchedMsg is the constructor for [MsgDetailFetched]
func detailFetchedMsg(view *catalog.CourseView, err error) Msg {
	return Msg{kind: MsgDetailFetched, data: detailFetched{view, err}}
}

// likeToggledMsg is the constructor for [MsgLikeToggled]
func likeToggledMsg(liked bool, err error) Msg {
	return Msg{kind: MsgLikeToggled, data: likeToggled{liked, err}}
}
