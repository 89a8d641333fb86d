package service

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrCompanyNotFound indicates a reference to a company that does not exist
type ErrCompanyNotFound struct {
	CompanyID uuid.UUID
}

func (e ErrCompanyNotFound) Error() string {
	return fmt.Sprintf("company not found: %s", e.CompanyID)
}

func (e ErrCompanyNotFound) Is(target error) bool {
	t, ok := target.(ErrCompanyNotFound)
	if !ok {
		return false
	}
	return t.CompanyID == uuid.Nil || t.CompanyID == e.CompanyID
}

// ErrCategoryNotFound indicates a reference to a financial category that
// does not exist or whose kind does not match the operation.
type ErrCategoryNotFound struct {
	CategoryID uuid.UUID
}

func (e ErrCategoryNotFound) Error() string {
	return fmt.Sprintf("financial category not found: %s", e.CategoryID)
}

func (e ErrCategoryNotFound) Is(target error) bool {
	t, ok := target.(ErrCategoryNotFound)
	if !ok {
		return false
	}
	return t.CategoryID == uuid.Nil || t.CategoryID == e.CategoryID
}
