package entity

import "time"

// Direction is the side of a trade signal.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// Sign returns +1 for LONG and -1 for SHORT.
func (d Direction) Sign() int64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// Status is the lifecycle state of a signal.
type Status string

const (
	StatusRunValid   Status = "RUN_VALID"
	StatusRunBE      Status = "RUN_BE"
	StatusStoppedBE  Status = "STOPPED_BE"
	StatusStoppedOut Status = "STOPPED_OUT"
	StatusClosed     Status = "CLOSED"
)

// Active reports whether the signal is still running.
func (s Status) Active() bool {
	return s == StatusRunValid || s == StatusRunBE
}

// Terminal reports whether no further status transition is possible.
func (s Status) Terminal() bool {
	return s == StatusStoppedBE || s == StatusStoppedOut || s == StatusClosed
}

// MaxTakeProfits is the number of take-profit levels a signal can carry.
const MaxTakeProfits = 5

// Close is a partial or full exit used for the R-multiple calculation.
type Close struct {
	Price       string  `json:"price"`
	SizePercent float64 `json:"sizePercent"`
}

// MessageRef points at a message posted on the chat platform.
type MessageRef struct {
	MessageID string `json:"messageId"`
	JumpURL   string `json:"jumpUrl,omitempty"`
}

// MentionKind tells the chat platform how to render a mention target.
type MentionKind string

const (
	MentionUser     MentionKind = "user"
	MentionRole     MentionKind = "role"
	MentionUsername MentionKind = "username"
)

// Mention is a notification target expressed as a raw platform id.
type Mention struct {
	ID   string      `json:"id"`
	Kind MentionKind `json:"kind"`
}

// Signal is a trade signal posted by the operator.
type Signal struct {
	ID              string      `json:"id"`
	Asset           string      `json:"asset"`
	Direction       Direction   `json:"direction"`
	Entry           string      `json:"entry"`
	Stop            string      `json:"stop"`
	TakeProfits     []string    `json:"takeProfits"`
	Reason          string      `json:"reason,omitempty"`
	ExtraMention    *Mention    `json:"extraMention,omitempty"`
	Status          Status      `json:"status"`
	ValidForReentry bool        `json:"validForReentry"`
	StopAtBreakeven bool        `json:"stopAtBreakeven"`
	TakeProfitsHit  []int       `json:"takeProfitsHit"`
	Closes          []Close     `json:"closes"`
	ResultOverride  *string     `json:"resultOverride,omitempty"`
	Message         *MessageRef `json:"externalMessage,omitempty"`
	Version         int64       `json:"version"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// HasHitTakeProfit reports whether take-profit n was already marked.
func (s *Signal) HasHitTakeProfit(n int) bool {
	for _, hit := range s.TakeProfitsHit {
		if hit == n {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can transform a snapshot without aliasing slices.
func (s Signal) Clone() Signal {
	out := s
	out.TakeProfits = append([]string(nil), s.TakeProfits...)
	out.TakeProfitsHit = append([]int(nil), s.TakeProfitsHit...)
	out.Closes = append([]Close(nil), s.Closes...)
	if s.ExtraMention != nil {
		m := *s.ExtraMention
		out.ExtraMention = &m
	}
	if s.ResultOverride != nil {
		v := *s.ResultOverride
		out.ResultOverride = &v
	}
	if s.Message != nil {
		m := *s.Message
		out.Message = &m
	}
	return out
}

// SignalPatch is a shallow set of fields to merge into a stored signal.
// Nil fields are left untouched.
type SignalPatch struct {
	Asset           *string
	Entry           *string
	Stop            *string
	TakeProfits     *[]string
	Reason          *string
	ExtraMention    *Mention
	Status          *Status
	ValidForReentry *bool
	StopAtBreakeven *bool
	TakeProfitsHit  *[]int
	Closes          *[]Close
	ResultOverride  *string
	Message         *MessageRef

	// ExpectedVersion, when set, makes the patch fail with ErrConflict if the
	// stored record has moved on.
	ExpectedVersion *int64
}

// ApplyTo merges the patch into s, bumping the version.
func (p SignalPatch) ApplyTo(s *Signal, now time.Time) {
	if p.Asset != nil {
		s.Asset = *p.Asset
	}
	if p.Entry != nil {
		s.Entry = *p.Entry
	}
	if p.Stop != nil {
		s.Stop = *p.Stop
	}
	if p.TakeProfits != nil {
		s.TakeProfits = append([]string(nil), (*p.TakeProfits)...)
	}
	if p.Reason != nil {
		s.Reason = *p.Reason
	}
	if p.ExtraMention != nil {
		m := *p.ExtraMention
		s.ExtraMention = &m
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.ValidForReentry != nil {
		s.ValidForReentry = *p.ValidForReentry
	}
	if p.StopAtBreakeven != nil {
		s.StopAtBreakeven = *p.StopAtBreakeven
	}
	if p.TakeProfitsHit != nil {
		s.TakeProfitsHit = append([]int(nil), (*p.TakeProfitsHit)...)
	}
	if p.Closes != nil {
		s.Closes = append([]Close(nil), (*p.Closes)...)
	}
	if p.ResultOverride != nil {
		v := *p.ResultOverride
		s.ResultOverride = &v
	}
	if p.Message != nil {
		m := *p.Message
		s.Message = &m
	}
	s.Version++
	s.UpdatedAt = now
}

// CheckVersion returns ErrConflict when the patch expects another version.
func (p SignalPatch) CheckVersion(s *Signal) error {
	if p.ExpectedVersion != nil && *p.ExpectedVersion != s.Version {
		return ErrConflict
	}
	return nil
}
