package repository

import (
	"time"

	"github.com/kursadbilgin/comment-notifier/internal/domain"
)

// NotificationModel is the persistence model for the email_notifications table.
type NotificationModel struct {
	ID            string        `gorm:"type:uuid;primaryKey"`
	CorrelationID string        `gorm:"type:varchar(64);not null;default:''"`
	TicketID      int64         `gorm:"not null;index"`
	Recipient     string        `gorm:"type:varchar(255);not null"`
	Subject       string        `gorm:"type:varchar(255);not null"`
	Body          string        `gorm:"type:text;not null"`
	Status        domain.Status `gorm:"type:varchar(20);not null"`
	FailureReason *string       `gorm:"type:text"`
	SentAt        *time.Time    `gorm:"type:timestamptz"`
	CreatedAt     time.Time     `gorm:"type:timestamptz;not null"`
	UpdatedAt     time.Time     `gorm:"type:timestamptz;not null"`
}

func (NotificationModel) TableName() string {
	return "email_notifications"
}

// TicketModel maps the ticketing application's tickets table. Read-only here.
type TicketModel struct {
	ID     int64  `gorm:"primaryKey"`
	Title  string `gorm:"type:varchar(255)"`
	Status string `gorm:"type:varchar(50)"`
}

func (TicketModel) TableName() string {
	return "tickets"
}

// EmployeeModel maps the employee directory table. Read-only here.
type EmployeeModel struct {
	ID        int64  `gorm:"primaryKey"`
	FirstName string `gorm:"column:first_name;type:varchar(100)"`
	LastName  string `gorm:"column:last_name;type:varchar(100)"`
	Email     string `gorm:"type:varchar(255);uniqueIndex"`
}

func (EmployeeModel) TableName() string {
	return "employees"
}

func notificationModelFromDomain(n *domain.Notification) *NotificationModel {
	if n == nil {
		return nil
	}

	return &NotificationModel{
		ID:            n.ID,
		CorrelationID: n.CorrelationID,
		TicketID:      n.TicketID,
		Recipient:     n.Recipient,
		Subject:       n.Subject,
		Body:          n.Body,
		Status:        n.Status,
		FailureReason: n.FailureReason,
		SentAt:        n.SentAt,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}

func notificationModelToDomain(m *NotificationModel) *domain.Notification {
	if m == nil {
		return nil
	}

	return &domain.Notification{
		ID:            m.ID,
		CorrelationID: m.CorrelationID,
		TicketID:      m.TicketID,
		Recipient:     m.Recipient,
		Subject:       m.Subject,
		Body:          m.Body,
		Status:        m.Status,
		FailureReason: m.FailureReason,
		SentAt:        m.SentAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func ticketModelToDomain(m *TicketModel) *domain.Ticket {
	if m == nil {
		return nil
	}
	return &domain.Ticket{ID: m.ID, Title: m.Title, Status: m.Status}
}

func employeeModelToDomain(m *EmployeeModel) *domain.Employee {
	if m == nil {
		return nil
	}
	return &domain.Employee{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
	}
}
