package domain

import "time"

// Category classifies a source file by the converter capability it needs.
type Category string

const (
	CategoryAudio    Category = "audio"
	CategoryVideo    Category = "video"
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
)

// Status is the lifecycle state of a conversion record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Requester identifies who submitted a conversion: an authenticated user or an
// anonymous guest. The two identifier spaces are distinct and never compared
// to each other.
type Requester struct {
	UserID  string
	GuestID string
}

// Valid reports whether any identity is present.
func (r Requester) Valid() bool {
	return r.UserID != "" || r.GuestID != ""
}

// Conversion is one conversion job's persistent record.
type Conversion struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId,omitempty"`
	GuestID        string     `json:"guestId,omitempty"`
	SourceCategory Category   `json:"sourceCategory"`
	SourceFormat   string     `json:"sourceFormat"`
	TargetFormat   string     `json:"targetFormat"`
	FileName       string     `json:"fileName"`
	FileSize       int64      `json:"fileSize"`
	Status         Status     `json:"status"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	OutputKey      string     `json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// CanAccess reports whether the requester owns this conversion. A user-owned
// record is visible to its user only; a guest-owned record to its guest only.
func (c *Conversion) CanAccess(r Requester) bool {
	if c.UserID != "" {
		return r.UserID == c.UserID
	}
	return c.GuestID != "" && r.GuestID == c.GuestID
}

// StatsSummary aggregates a requester's conversion counts.
type StatsSummary struct {
	Total    int64 `json:"total"`
	Audio    int64 `json:"audio"`
	Video    int64 `json:"video"`
	Image    int64 `json:"image"`
	Document int64 `json:"document"`
}
