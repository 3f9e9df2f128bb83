package notice

import "github.com/trezcool/eduverse/core"

// Priorities
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Audiences
const (
	AudienceEveryone = "Everyone"
	AudienceTeachers = "Teachers"
	AudienceStudents = "Students"
)

type Notice struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Priority string `json:"priority"`
	Audience string `json:"audience"`
	Date     string `json:"date"` // YYYY-MM-DD
	Author   string `json:"author,omitempty"`
}

// Defaults are the notices on the board until one is published.
func Defaults() []Notice {
	return []Notice{
		{
			ID:       "notice_001",
			Title:    "Mid-term Exam Schedule",
			Content:  "The mid-term exams will commence from the 20th of this month.",
			Category: "Exam",
			Priority: PriorityHigh,
			Audience: AudienceEveryone,
			Date:     "2025-11-04",
		},
		{
			ID:       "notice_002",
			Title:    "Annual Sports Day",
			Content:  "The annual sports day will be held on the last Friday of this month. All students are requested to participate.",
			Category: "Event",
			Priority: PriorityMedium,
			Audience: AudienceEveryone,
			Date:     "2025-11-02",
		},
		{
			ID:       "notice_003",
			Title:    "Library Closure",
			Content:  "The library will be closed for maintenance this weekend.",
			Category: "General",
			Priority: PriorityLow,
			Audience: AudienceEveryone,
			Date:     "2025-11-01",
		},
	}
}

// NewNotice contains information needed to publish a Notice.
type NewNotice struct {
	Title    string `json:"title" validate:"required,notblank"`
	Content  string `json:"content" validate:"required,notblank"`
	Category string `json:"category"`
	Priority string `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	Audience string `json:"audience" validate:"omitempty,oneof=Everyone Teachers Students"`
	Date     string `json:"date" validate:"omitempty,isodate"`
}

func (nn *NewNotice) clean() {
	nn.Title = core.CleanString(nn.Title)
	nn.Content = core.CleanString(nn.Content)
	nn.Category = core.CleanString(nn.Category)
	nn.Priority = core.CleanString(nn.Priority)
	nn.Audience = core.CleanString(nn.Audience)
	nn.Date = core.CleanString(nn.Date)
	if nn.Category == "" {
		nn.Category = "General"
	}
	if nn.Priority == "" {
		nn.Priority = PriorityMedium
	}
	if nn.Audience == "" {
		nn.Audience = AudienceEveryone
	}
}

// UpdateNotice defines what may be modified on a Notice. nil fields are left untouched.
type UpdateNotice struct {
	Title    *string `json:"title" validate:"omitempty,notblank"`
	Content  *string `json:"content" validate:"omitempty,notblank"`
	Category *string `json:"category"`
	Priority *string `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	Audience *string `json:"audience" validate:"omitempty,oneof=Everyone Teachers Students"`
}

func (un UpdateNotice) apply(n *Notice) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = core.CleanString(*src)
		}
	}
	set(&n.Title, un.Title)
	set(&n.Content, un.Content)
	set(&n.Category, un.Category)
	set(&n.Priority, un.Priority)
	set(&n.Audience, un.Audience)
}
