package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/kursadbilgin/comment-notifier/internal/domain"
	"gorm.io/gorm"
)

// TicketLookup resolves a ticket owned by the ticketing application.
type TicketLookup interface {
	GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error)
}

// EmployeeLookup resolves an employee directory entry by email.
type EmployeeLookup interface {
	GetEmployeeByEmail(ctx context.Context, email string) (*domain.Employee, error)
}

type GormTicketRepo struct {
	db *gorm.DB
}

func NewGormTicketRepo(db *gorm.DB) *GormTicketRepo {
	return &GormTicketRepo{db: db}
}

func (r *GormTicketRepo) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	var model TicketModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", ticketID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ticketModelToDomain(&model), nil
}

type GormEmployeeRepo struct {
	db *gorm.DB
}

func NewGormEmployeeRepo(db *gorm.DB) *GormEmployeeRepo {
	return &GormEmployeeRepo{db: db}
}

func (r *GormEmployeeRepo) GetEmployeeByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, domain.ErrNotFound
	}

	var model EmployeeModel
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", normalized).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return employeeModelToDomain(&model), nil
}
