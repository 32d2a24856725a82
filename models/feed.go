package models

import "time"

// Comment is a user comment on a feed entry
type Comment struct {
	ID        string    `bson:"id" json:"id"`
	Text      string    `bson:"text" json:"text"`
	Author    string    `bson:"author" json:"author"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// FeedEntry is one post of the try-on feed
type FeedEntry struct {
	ID          string    `bson:"id" json:"id"`
	Images      []string  `bson:"images" json:"images"` // generated image first when present
	Caption     string    `bson:"caption" json:"caption"`
	Products    []Product `bson:"products" json:"products"`
	Likes       int       `bson:"likes" json:"likes"`
	Liked       bool      `bson:"liked" json:"liked"`
	Comments    []Comment `bson:"comments" json:"comments"`
	AIGenerated bool      `bson:"ai_generated" json:"ai_generated"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
