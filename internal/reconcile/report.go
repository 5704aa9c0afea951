package reconcile

import (
	"fmt"

	"hocgassets/internal/merge"
	"hocgassets/internal/model"
	"hocgassets/internal/overrides"
)

// Status is how one batch item ended.
type Status string

const (
	StatusBound     Status = "bound"
	StatusMatched   Status = "matched"
	StatusCreated   Status = "created"
	StatusUnmatched Status = "unmatched"
	StatusMerged    Status = "merged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Item is the outcome of one observation or image.
type Item struct {
	Kind       string              `json:"kind"`
	Source     string              `json:"source"`
	CardNumber string              `json:"card_number"`
	Language   model.Language      `json:"lang,omitempty"`
	Rarity     string              `json:"rarity,omitempty"`
	Identifier model.Field[uint32] `json:"manage_id,omitzero"`
	Status     Status              `json:"status"`
	Distance   uint64              `json:"distance,omitempty"`
	Holder     string              `json:"holder,omitempty"`
	Stripped   []string            `json:"stripped_from,omitempty"`
	Warnings   int                 `json:"warnings,omitempty"`
	Error      string              `json:"error,omitempty"`
}

func (i Item) String() string {
	subject := i.CardNumber
	if i.Rarity != "" {
		subject += " [" + i.Rarity + "]"
	}
	if id, ok := i.Identifier.Get(); ok {
		subject += fmt.Sprintf(" #%d", id)
	}
	switch i.Status {
	case StatusMatched:
		return fmt.Sprintf("%s %s: matched (distance %d)", i.Source, subject, i.Distance)
	case StatusUnmatched:
		return fmt.Sprintf("%s %s: unmatched, held by %s", i.Source, subject, i.Holder)
	case StatusFailed, StatusSkipped:
		return fmt.Sprintf("%s %s: %s: %s", i.Source, subject, i.Status, i.Error)
	default:
		return fmt.Sprintf("%s %s: %s", i.Source, subject, i.Status)
	}
}

// Report summarizes a run.
type Report struct {
	RunID     string              `json:"run_id"`
	Cards     int                 `json:"cards"`
	Bound     int                 `json:"bound"`
	Matched   int                 `json:"matched"`
	Created   int                 `json:"created"`
	Unmatched int                 `json:"unmatched"`
	Merged    int                 `json:"merged"`
	Skipped   int                 `json:"skipped"`
	Failed    int                 `json:"failed"`
	Warnings  []merge.Warning     `json:"warnings,omitempty"`
	Overrides []overrides.Applied `json:"overrides,omitempty"`
	Items     []Item              `json:"items,omitempty"`
}

func (r *Report) add(items ...Item) {
	for _, item := range items {
		switch item.Status {
		case StatusBound:
			r.Bound++
		case StatusMatched:
			r.Matched++
		case StatusCreated:
			r.Created++
		case StatusUnmatched:
			r.Unmatched++
		case StatusMerged:
			r.Merged++
		case StatusSkipped:
			r.Skipped++
		case StatusFailed:
			r.Failed++
		}
		r.Items = append(r.Items, item)
	}
}

// ByStatus returns the items that ended with status.
func (r Report) ByStatus(status Status) []Item {
	var out []Item
	for _, item := range r.Items {
		if item.Status == status {
			out = append(out, item)
		}
	}
	return out
}

