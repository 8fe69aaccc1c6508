package entity

// Poem as exchanged with the API. ID 0 means the poem does not exist yet,
// which makes a save a create instead of an update.
type Poem struct {
	ID       int64  `json:"id,omitempty"`
	Title    string `json:"title" validate:"required,max=200"`
	Author   string `json:"author" validate:"required,max=100"`
	Text     string `json:"text" validate:"required"`
	ImageURL string `json:"imageUrl,omitempty" validate:"omitempty,url"`
	PostDate string `json:"postDate" validate:"required,ddmmyyyy"`
}

type Comment struct {
	ID          int64  `json:"id,omitempty"`
	PoemID      int64  `json:"poemId"`
	Content     string `json:"content"`
	Author      string `json:"author,omitempty"`
	AuthorID    int64  `json:"authorId,omitempty"`
	CommentDate string `json:"commentDate,omitempty"`
}

// LikeState is what a view shows for one poem. Liked and Count always
// change together.
type LikeState struct {
	Liked bool
	Count int64
}
