package domain

import "strings"

// Category is referenced, not owned: its name is globally unique and its
// deletion is restricted while any transaction still references it.
type Category struct {
	ID          int32   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
}

// NewCategory validates and constructs a Category ready for insertion.
func NewCategory(name string, description, icon *string) (*Category, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, &ValidationErrors{Errs: []error{ErrInvalidName}}
	}

	c := &Category{Name: trimmed}
	if description != nil {
		if d := strings.TrimSpace(*description); d != "" {
			c.Description = &d
		}
	}
	if icon != nil {
		if i := strings.TrimSpace(*icon); i != "" {
			c.Icon = &i
		}
	}
	return c, nil
}

// CategoryRepository is the minimal read/existence contract the ledger core
// needs of its categories; category CRUD beyond this is an external
// collaborator (see Non-goals).
type CategoryRepository interface {
	Exists(categoryID int32) (bool, error)
	GetByID(categoryID int32) (*Category, error)
	// HasTransactions reports whether any transaction still references
	// categoryID, the precondition the RESTRICT delete policy checks.
	HasTransactions(categoryID int32) (bool, error)
}
