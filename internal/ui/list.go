package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/uus/internal/formatter"
	"github.com/desertthunder/uus/internal/models"
)

var (
	_ list.Item = courseItem{}
)

// courseItem wraps [models.Course] to implement [list.Item].
type courseItem struct {
	course   models.Course
	category string
}

func (i courseItem) FilterValue() string { return i.course.Title }
func (i courseItem) Title() string       { return i.course.Title }
func (i courseItem) Description() string {
	desc := formatter.FormatPrice(i.course.Price)
	if i.category != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.category)
	}
	return desc
}

func courseItems(courses []models.Course, labels formatter.Labels) []list.Item {
	items := make([]list.Item, len(courses))
	for i, c := range courses {
		items[i] = courseItem{course: c, category: labels.Category(c.CategorySlug)}
	}
	return items
}
