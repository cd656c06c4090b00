package model

import (
	"strconv"
	"time"
)

type User struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	ExternalID          string    `gorm:"-" json:"-"`
	Username            string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email               string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash        string    `gorm:"size:255;not null" json:"-"`
	VerifyCode          string    `gorm:"size:16" json:"-"`
	VerifyCodeExpiry    time.Time `json:"-"`
	IsVerified          bool      `gorm:"not null;default:false" json:"isVerified"`
	IsAcceptingMessages bool      `gorm:"not null" json:"isAcceptingMessages"`
	Messages            []Message `gorm:"foreignKey:UserID" json:"messages"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// CodeUsable reports whether the stored verification code can still be redeemed at now.
func (u *User) CodeUsable(now time.Time) bool {
	return u.VerifyCode != "" && now.Before(u.VerifyCodeExpiry)
}

// Identity is the store-neutral user id: the document id on MongoDB, the row id otherwise.
func (u *User) Identity() string {
	if u.ExternalID != "" {
		return u.ExternalID
	}
	if u.ID == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(u.ID), 10)
}
