package calendar

import "github.com/MrSnakeDoc/detailcal/internal/domain"

// Presentation is how a status is drawn in every view.
type Presentation struct {
	Status domain.Status `json:"status"`
	Label  string        `json:"label"`
	Color  string        `json:"color"`
	Border string        `json:"border"` // solid | dashed
	Icon   string        `json:"icon"`
}

var presentations = map[domain.Status]Presentation{
	domain.StatusTentative:  {Status: domain.StatusTentative, Label: "Tentative", Color: "amber", Border: "dashed", Icon: "⏱"},
	domain.StatusBlocked:    {Status: domain.StatusBlocked, Label: "Blocked", Color: "red", Border: "dashed", Icon: "🚫"},
	domain.StatusConfirmed:  {Status: domain.StatusConfirmed, Label: "Confirmed", Color: "primary", Border: "solid", Icon: "✓"},
	domain.StatusPending:    {Status: domain.StatusPending, Label: "Pending", Color: "orange", Border: "solid", Icon: "⏳"},
	domain.StatusInProgress: {Status: domain.StatusInProgress, Label: "In Progress", Color: "blue", Border: "solid", Icon: "🔄"},
	domain.StatusDone:       {Status: domain.StatusDone, Label: "Done", Color: "green", Border: "solid", Icon: "✅"},
}

// Present returns the fixed presentation of s. Unknown statuses render as confirmed.
func Present(s domain.Status) Presentation {
	return presentations[s.Normalize()]
}

// Legend lists the presentation of every status in display order.
func Legend() []Presentation {
	out := make([]Presentation, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		out = append(out, presentations[s])
	}
	return out
}
