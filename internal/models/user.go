package models

import "time"

// User is the only record the service manages.
type User struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username    string    `json:"username" gorm:"type:varchar(128);not null"`
	Email       string    `json:"email" gorm:"type:varchar(128);not null;uniqueIndex"`
	CreatedDate time.Time `json:"created_date" gorm:"not null;autoCreateTime"`
}

// TableName pins the table name regardless of GORM naming strategy.
func (User) TableName() string {
	return "users"
}
