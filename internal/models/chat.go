package models

import "time"

type MessageSender string

const (
	SenderUser MessageSender = "user"
	SenderBot  MessageSender = "bot"
)

type ChatMessage struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	UserID    string        `json:"user_id" gorm:"not null;size:36;index"`
	Message   string        `json:"message" gorm:"type:text;not null"`
	Sender    MessageSender `json:"sender" gorm:"size:10;not null"`
	CreatedAt time.Time     `json:"created_at" gorm:"index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

type FAQ struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Question  string    `json:"question" gorm:"type:text;not null"`
	Answer    string    `json:"answer" gorm:"type:text;not null"`
	Category  string    `json:"category" gorm:"size:50"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FAQ) TableName() string {
	return "faqs"
}

type StudyReminder struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"not null;size:36;index"`
	Title        string    `json:"title" gorm:"size:200;not null"`
	Description  string    `json:"description" gorm:"type:text"`
	ReminderTime time.Time `json:"reminder_time" gorm:"index"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
}

func (StudyReminder) TableName() string {
	return "study_reminders"
}
