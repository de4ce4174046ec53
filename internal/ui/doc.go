// Package ui implements an interactive terminal catalog browser using bubbletea's Elm architecture.
//
// Two views:
//  1. [CourseListView] : published courses, filterable with "/" and cycled through categories with tab
//  2. [CourseDetailView] : one course with its price, category and resolved player URL, or the
//     "no video" placeholder when the stored reference does not resolve
//
// The [Model] implements bubbletea's Init/Update/View pattern and receives results of catalog calls
// through the [Msg] union type, so no catalog call ever runs on the update loop.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, l, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
