package domain

import "strings"

// Ticket is the read-only view of a ticket owned by the ticketing application.
type Ticket struct {
	ID     int64
	Title  string
	Status string
}

// Employee is the read-only view of an employee directory entry.
type Employee struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}
