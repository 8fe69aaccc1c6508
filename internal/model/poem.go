package model

import (
	"time"

	"anoa.com/poemhub/internal/entity"
)

type Poem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Title     string    `gorm:"size:200;not null"`
	Author    string    `gorm:"size:100;not null"`
	Text      string    `gorm:"type:text;not null"`
	ImageURL  string    `gorm:"type:text"`
	PostDate  string    `gorm:"size:10;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (p *Poem) Entity() entity.Poem {
	return entity.Poem{
		ID:       p.ID,
		Title:    p.Title,
		Author:   p.Author,
		Text:     p.Text,
		ImageURL: p.ImageURL,
		PostDate: p.PostDate,
	}
}

func PoemFromEntity(p entity.Poem) *Poem {
	return &Poem{
		ID:       p.ID,
		Title:    p.Title,
		Author:   p.Author,
		Text:     p.Text,
		ImageURL: p.ImageURL,
		PostDate: p.PostDate,
	}
}

type Comment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	PoemID      int64     `gorm:"index;not null"`
	AuthorID    int64     `gorm:"index;not null"`
	Author      string    `gorm:"size:50;not null"`
	Content     string    `gorm:"type:text;not null"`
	CommentDate string    `gorm:"size:10;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (c *Comment) Entity() entity.Comment {
	return entity.Comment{
		ID:          c.ID,
		PoemID:      c.PoemID,
		Content:     c.Content,
		Author:      c.Author,
		AuthorID:    c.AuthorID,
		CommentDate: c.CommentDate,
	}
}

// PoemLike is the durable like row used when likes are kept in postgres.
type PoemLike struct {
	PoemID    int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
