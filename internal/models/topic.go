package models

// Topic holds the topic fields the vote indices depend on
type Topic struct {
	TID       int64 `gorm:"primaryKey;autoIncrement:false;column:tid" json:"tid"`
	CID       int64 `gorm:"not null;index:topics_cid_idx;column:cid" json:"cid"`
	MainPID   int64 `gorm:"not null;default:0;column:main_pid" json:"mainPid"`
	Upvotes   int64 `gorm:"not null;default:0;column:upvotes" json:"upvotes"`
	Downvotes int64 `gorm:"not null;default:0;column:downvotes" json:"downvotes"`
}

// TableName specifies the table name for Topic
func (Topic) TableName() string {
	return "topics"
}

// Topic hash field names
const (
	TopicFieldMainPID = "mainPid"
	TopicFieldCID     = "cid"
)

// TopicFromFields decodes a (possibly partial) topic hash. An empty hash decodes to nil.
func TopicFromFields(tid int64, fields map[string]string) *Topic {
	if len(fields) == 0 {
		return nil
	}
	return &Topic{
		TID:       tid,
		CID:       NormalizeID(fields[TopicFieldCID]),
		MainPID:   NormalizeID(fields[TopicFieldMainPID]),
		Upvotes:   NormalizeCounter(fields["upvotes"]),
		Downvotes: NormalizeCounter(fields["downvotes"]),
	}
}
