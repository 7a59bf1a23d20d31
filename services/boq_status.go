package services

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"sitebook/collections"
)

var (
	// ErrNoActiveBOQ is returned when a project has no non-superseded BOQ.
	ErrNoActiveBOQ = errors.New("project has no active BOQ")

	// ErrInvalidTransition is returned for a status change the workflow
	// does not allow.
	ErrInvalidTransition = errors.New("status change not allowed")
)

// boqTransitions lists the allowed next statuses. superseded is terminal.
var boqTransitions = map[string][]string{
	collections.BOQStatusDraft: {
		collections.BOQStatusPendingApproval,
		collections.BOQStatusSuperseded,
	},
	collections.BOQStatusPendingApproval: {
		collections.BOQStatusApproved,
		collections.BOQStatusDraft,
		collections.BOQStatusSuperseded,
	},
	collections.BOQStatusApproved: {
		collections.BOQStatusSent,
		collections.BOQStatusSuperseded,
	},
	collections.BOQStatusSent: {
		collections.BOQStatusSuperseded,
	},
}

// CanTransition reports whether a BOQ may move from one status to another.
func CanTransition(from, to string) bool {
	return slices.Contains(boqTransitions[from], to)
}

// ActiveBOQ returns the project's latest non-superseded BOQ.
func ActiveBOQ(app core.App, projectID string) (*core.Record, error) {
	records, err := app.FindRecordsByFilter(
		"boq",
		"project = {:project} && status != {:superseded}",
		"-version",
		1,
		0,
		map[string]any{"project": projectID, "superseded": collections.BOQStatusSuperseded},
	)
	if err != nil {
		return nil, fmt.Errorf("query active boq: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoActiveBOQ
	}
	return records[0], nil
}

// TransitionBOQStatus moves a BOQ through the approval workflow. Submitting
// for approval stamps submitted_at.
func TransitionBOQStatus(app core.App, boqID, to string, now time.Time) (*core.Record, error) {
	boq, err := app.FindRecordById("boq", boqID)
	if err != nil {
		return nil, fmt.Errorf("boq %s not found: %w", boqID, err)
	}

	from := boq.GetString("status")
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	boq.Set("status", to)
	if to == collections.BOQStatusPendingApproval {
		boq.Set("submitted_at", now.UTC().Format(time.RFC3339))
	}
	if err := app.Save(boq); err != nil {
		return nil, fmt.Errorf("save boq status: %w", err)
	}
	return boq, nil
}

// CategoryView is a category with its items in display order.
type CategoryView struct {
	Record *core.Record
	Items  []*core.Record
}

// BOQView is a BOQ loaded with its categories and items.
type BOQView struct {
	BOQ        *core.Record
	Categories []CategoryView
}

// LoadBOQ reads a BOQ with all of its categories and items.
func LoadBOQ(app core.App, boqID string) (*BOQView, error) {
	boq, err := app.FindRecordById("boq", boqID)
	if err != nil {
		return nil, fmt.Errorf("boq %s not found: %w", boqID, err)
	}

	categories, err := app.FindRecordsByFilter("boq_categories", "boq = {:boq}", "sort_order", 0, 0,
		map[string]any{"boq": boqID})
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	items, err := app.FindRecordsByFilter("boq_items", "boq = {:boq}", "sort_order", 0, 0,
		map[string]any{"boq": boqID})
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	byCategory := make(map[string][]*core.Record, len(categories))
	for _, it := range items {
		cat := it.GetString("category")
		byCategory[cat] = append(byCategory[cat], it)
	}

	view := &BOQView{BOQ: boq, Categories: make([]CategoryView, len(categories))}
	for i, cat := range categories {
		view.Categories[i] = CategoryView{Record: cat, Items: byCategory[cat.Id]}
	}
	return view, nil
}

// ItemCount returns the number of items across all categories.
func (v *BOQView) ItemCount() int {
	n := 0
	for _, c := range v.Categories {
		n += len(c.Items)
	}
	return n
}
