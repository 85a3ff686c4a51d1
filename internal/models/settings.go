package models

// Settings are the per-viewer preferences the engine reads
type Settings struct {
	TopicPostSort string `json:"topicPostSort"`
}

// PostsPayload is the value passed through post filter hooks
type PostsPayload struct {
	Posts []*DecoratedPost `json:"posts"`
	UID   int64            `json:"uid"`
}
