package model

import (
	"time"

	"anoa.com/poemhub/internal/entity"
)

type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:USER" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Entity is the wire form of the user, without the password hash.
func (u *User) Entity() entity.User {
	return entity.User{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     entity.Role(u.Role),
	}
}

type Profile struct {
	UserEmail string    `gorm:"size:100;primaryKey" json:"userEmail"`
	FirstName string    `gorm:"size:100;not null" json:"firstName"`
	LastName  string    `gorm:"size:100;not null" json:"lastName"`
	Phone     string    `gorm:"size:30" json:"phone"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (p *Profile) Entity() entity.Profile {
	return entity.Profile{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		UserEmail: p.UserEmail,
	}
}

func ProfileFromEntity(p entity.Profile) *Profile {
	return &Profile{
		UserEmail: p.UserEmail,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
	}
}
