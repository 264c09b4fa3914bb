package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Recurring ContractKind = "recurring"
	OneOff    ContractKind = "one-off"

	ClientActive   ClientStatus = "active"
	ClientInactive ClientStatus = "inactive"

	Paid    PaymentStatus = "paid"
	Pending PaymentStatus = "pending"

	ProjectPending    ProjectStatus = "pending"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

type (
	ContractKind  string
	ClientStatus  string
	PaymentStatus string
	ProjectStatus string

	// Record is anything stored in a collection.
	Record interface {
		RecordID() string
	}

	Client struct {
		ID     string       `json:"id" yaml:"id"`
		UserID string       `json:"userId,omitempty" yaml:"userId"`
		Name   string       `json:"name" yaml:"name"`
		Kind   ContractKind `json:"kind" yaml:"kind"`
		Status ClientStatus `json:"status" yaml:"status"`
		// MonthlyFee and DueDay are only meaningful for recurring clients.
		// Zero means unset.
		MonthlyFee Money     `json:"monthlyFee" yaml:"monthlyFee"`
		DueDay     int       `json:"dueDay,omitempty" yaml:"dueDay"`
		Email      string    `json:"email,omitempty" yaml:"email"`
		Phone      string    `json:"phone,omitempty" yaml:"phone"`
		Notes      string    `json:"notes,omitempty" yaml:"notes"`
		CreatedAt  time.Time `json:"createdAt" yaml:"-"`
	}

	Payment struct {
		ID          string        `json:"id" yaml:"id"`
		ClientID    string        `json:"clientId" yaml:"clientId"`
		DueDate     Date          `json:"dueDate" yaml:"dueDate"`
		Value       Money         `json:"value" yaml:"value"`
		Status      PaymentStatus `json:"status" yaml:"status"`
		PaidAt      Date          `json:"paidAt" yaml:"paidAt"`
		Description string        `json:"description" yaml:"description"`
		ReceiptURL  string        `json:"receiptUrl,omitempty" yaml:"receiptUrl"`
		// Year and Month are explicit period fields carried by legacy rows.
		// Month is 1-12; zero means absent.
		Year  int `json:"year,omitempty" yaml:"year"`
		Month int `json:"month,omitempty" yaml:"month"`
	}

	Project struct {
		ID            string        `json:"id" yaml:"id"`
		ClientID      string        `json:"clientId" yaml:"clientId"`
		Name          string        `json:"name" yaml:"name"`
		Description   string        `json:"description,omitempty" yaml:"description"`
		Status        ProjectStatus `json:"status" yaml:"status"`
		PaymentStatus PaymentStatus `json:"paymentStatus" yaml:"paymentStatus"`
		PaidAt        Date          `json:"paidAt" yaml:"paidAt"`
		Budget        Money         `json:"budget" yaml:"budget"`
		Deadline      Date          `json:"deadline" yaml:"deadline"`
		CreatedAt     time.Time     `json:"createdAt" yaml:"-"`
	}

	Goal struct {
		ID       string  `json:"id" yaml:"id"`
		Title    string  `json:"title" yaml:"title"`
		Target   float64 `json:"target" yaml:"target"`
		Current  float64 `json:"current" yaml:"current"`
		Deadline Date    `json:"deadline" yaml:"deadline"`
	}

	Task struct {
		ID      string `json:"id" yaml:"id"`
		Title   string `json:"title" yaml:"title"`
		Done    bool   `json:"done" yaml:"done"`
		DueDate Date   `json:"dueDate" yaml:"dueDate"`
		// Meeting tasks carry a time of day (HH:MM) and may be mirrored to a calendar.
		IsMeeting       bool   `json:"isMeeting" yaml:"isMeeting"`
		Time            string `json:"time,omitempty" yaml:"time"`
		ProjectID       string `json:"projectId,omitempty" yaml:"projectId"`
		CalendarEventID string `json:"calendarEventId,omitempty" yaml:"calendarEventId"`
	}

	User struct {
		ID        string `json:"id" yaml:"id"`
		Name      string `json:"name" yaml:"name"`
		Email     string `json:"email,omitempty" yaml:"email"`
		AvatarURL string `json:"avatarUrl,omitempty" yaml:"avatarUrl"`
	}
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmptyClientID      = errors.New("empty client id")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("name too long (max 200 characters)")
	ErrDescriptionTooLong = errors.New("description too long (max 500 characters)")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidKind        = errors.New("invalid contract kind")
	ErrInvalidTime        = errors.New("invalid time of day")
	ErrInvalidTarget      = errors.New("goal target must be positive")
	ErrInvalidTransition  = errors.New("invalid project status transition")
	ErrClientMismatch     = errors.New("payment belongs to another client")
)

func (c Client) RecordID() string  { return c.ID }
func (p Payment) RecordID() string { return p.ID }
func (p Project) RecordID() string { return p.ID }
func (g Goal) RecordID() string    { return g.ID }
func (t Task) RecordID() string    { return t.ID }
func (u User) RecordID() string    { return u.ID }

func (k ContractKind) Valid() bool  { return k == Recurring || k == OneOff }
func (s ClientStatus) Valid() bool  { return s == ClientActive || s == ClientInactive }
func (s PaymentStatus) Valid() bool { return s == Paid || s == Pending }

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPending, ProjectInProgress, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// IsRecurring reports whether the client is billed on a monthly schedule.
func (c Client) IsRecurring() bool {
	return c.Kind == Recurring
}

func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 200 {
		return ErrNameTooLong
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	if !c.Status.Valid() {
		return ErrInvalidStatus
	}
	if c.DueDay < 0 || c.DueDay > 31 {
		return ErrInvalidDay
	}
	return c.MonthlyFee.Validate()
}

// EffectivePeriod attributes the payment to a billing month. Explicit
// Year/Month win; each missing field falls back to the due date, then the
// paid date, then DefaultLegacyYear / January.
func (p Payment) EffectivePeriod() Period {
	fallback := p.DueDate
	if fallback.IsZero() {
		fallback = p.PaidAt
	}

	year := p.Year
	if year == 0 {
		if !fallback.IsZero() {
			year = fallback.Year()
		} else {
			year = DefaultLegacyYear
		}
	}

	month := time.Month(p.Month)
	if p.Month < 1 || p.Month > 12 {
		if !fallback.IsZero() {
			month = fallback.Month()
		} else {
			month = time.January
		}
	}

	return Period{Year: year, Month: month}
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.ClientID) == "" {
		return ErrEmptyClientID
	}
	if err := p.DueDate.Validate(); err != nil {
		return fmt.Errorf("invalid due date: %w", err)
	}
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if len(p.Description) > 500 {
		return ErrDescriptionTooLong
	}
	return p.Value.Validate()
}

// EffectivePeriod of a project is the month it was paid in. ok is false when
// the project carries no paid date.
func (p Project) EffectivePeriod() (period Period, ok bool) {
	if p.PaidAt.IsZero() {
		return Period{}, false
	}
	return p.PaidAt.Period(), true
}

// CanTransition reports whether the lifecycle allows moving to next.
// pending -> in_progress -> completed; anything not yet terminal may be cancelled.
func (p Project) CanTransition(next ProjectStatus) bool {
	if p.Status == next {
		return true
	}
	switch next {
	case ProjectInProgress:
		return p.Status == ProjectPending
	case ProjectCompleted:
		return p.Status == ProjectInProgress
	case ProjectCancelled:
		return p.Status == ProjectPending || p.Status == ProjectInProgress
	}
	return false
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.ClientID) == "" {
		return ErrEmptyClientID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if !p.Status.Valid() || !p.PaymentStatus.Valid() {
		return ErrInvalidStatus
	}
	return p.Budget.Validate()
}

// Progress returns min(current/target, 1).
func (g Goal) Progress() float64 {
	if g.Target <= 0 {
		return 0
	}
	ratio := g.Current / g.Target
	if ratio > 1 {
		return 1
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyName
	}
	if g.Target <= 0 {
		return ErrInvalidTarget
	}
	return nil
}

// ClockTime parses the task's HH:MM time. ok is false for untimed tasks.
func (t Task) ClockTime() (d time.Duration, ok bool) {
	if strings.TrimSpace(t.Time) == "" {
		return 0, false
	}
	parsed, err := time.Parse("15:04", strings.TrimSpace(t.Time))
	if err != nil {
		return 0, false
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, true
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(t.Time) != "" {
		if _, ok := t.ClockTime(); !ok {
			return ErrInvalidTime
		}
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
