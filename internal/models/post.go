package models

import (
	"strconv"
	"time"
)

// Post represents a discussion post and its authoritative vote counters
type Post struct {
	PID       int64  `gorm:"primaryKey;autoIncrement:false;column:pid" json:"pid"`
	TID       int64  `gorm:"not null;index:posts_tid_idx;column:tid" json:"tid"`
	UID       int64  `gorm:"not null;default:0;column:uid" json:"uid"`
	Upvotes   int64  `gorm:"not null;default:0;column:upvotes" json:"upvotes"`
	Downvotes int64  `gorm:"not null;default:0;column:downvotes" json:"downvotes"`
	Timestamp int64  `gorm:"not null;default:0;column:timestamp" json:"timestamp"`
	Edited    int64  `gorm:"not null;default:0;column:edited" json:"edited"`
	Deleted   bool   `gorm:"not null;default:false;column:deleted" json:"deleted"`
	Content   string `gorm:"type:text;not null;default:'';column:content" json:"content"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// Votes returns the net vote total
func (p *Post) Votes() int64 {
	return p.Upvotes - p.Downvotes
}

// VoteCount returns the vote tally used to refresh the vote indices
func (p *Post) VoteCount() VoteCount {
	return VoteCount{
		PID:       p.PID,
		TID:       p.TID,
		UID:       p.UID,
		Upvotes:   p.Upvotes,
		Downvotes: p.Downvotes,
		Votes:     p.Votes(),
	}
}

// Ref returns the (pid, tid) pair used by position lookups
func (p *Post) Ref() PostRef {
	return PostRef{PID: p.PID, TID: p.TID}
}

// PostFromFields decodes a stored post hash. An empty hash decodes to nil.
func PostFromFields(fields map[string]string) *Post {
	if len(fields) == 0 {
		return nil
	}
	return &Post{
		PID:       NormalizeID(fields["pid"]),
		TID:       NormalizeID(fields["tid"]),
		UID:       NormalizeID(fields["uid"]),
		Upvotes:   NormalizeCounter(fields["upvotes"]),
		Downvotes: NormalizeCounter(fields["downvotes"]),
		Timestamp: NormalizeCounter(fields["timestamp"]),
		Edited:    NormalizeCounter(fields["edited"]),
		Deleted:   NormalizeFlag(fields["deleted"]),
		Content:   fields["content"],
	}
}

// VoteFields returns the stored counter fields for a post or topic hash
func VoteFields(upvotes, downvotes int64) map[string]interface{} {
	return map[string]interface{}{
		"upvotes":   upvotes,
		"downvotes": downvotes,
	}
}

// VoteCount is the input of a vote index refresh
type VoteCount struct {
	PID       int64 `json:"pid"`
	TID       int64 `json:"tid"`
	UID       int64 `json:"uid"`
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
	Votes     int64 `json:"votes"`
}

// PostRef identifies a post inside its topic
type PostRef struct {
	PID int64 `json:"pid"`
	TID int64 `json:"tid"`
}

// Author is the public summary of a post's author
type Author struct {
	UID       int64  `json:"uid"`
	Username  string `json:"username"`
	Signature string `json:"signature,omitempty"`
}

// DecoratedPost is a post prepared for a specific viewer
type DecoratedPost struct {
	Post
	Votes        int64   `json:"votes"`
	TimestampISO string  `json:"timestampISO"`
	EditedISO    string  `json:"editedISO"`
	SelfPost     bool    `json:"selfPost"`
	User         *Author `json:"user,omitempty"`
}

// FormatTimestamp renders a millisecond epoch as an ISO-8601 UTC string
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

// IDString renders an id as an ordered set member
func IDString(id int64) string {
	return strconv.FormatInt(id, 10)
}
