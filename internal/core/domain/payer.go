package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Payer is either a registered member or a walk-in guest. The concrete
// types are MemberPayer and GuestPayer.
type Payer interface {
	isPayer()
}

type MemberPayer struct {
	MemberID uuid.UUID
}

type GuestPayer struct {
	Name    string
	Contact string
}

func (MemberPayer) isPayer() {}
func (GuestPayer) isPayer()  {}

func ValidatePayer(p Payer) error {
	switch v := p.(type) {
	case MemberPayer:
		if v.MemberID == uuid.Nil {
			return fmt.Errorf("%w: member id is required", ErrValidation)
		}
	case GuestPayer:
		if strings.TrimSpace(v.Name) == "" || strings.TrimSpace(v.Contact) == "" {
			return fmt.Errorf("%w: guest name and contact are required", ErrValidation)
		}
	case nil:
		return fmt.Errorf("%w: payer is required", ErrValidation)
	default:
		return fmt.Errorf("%w: unsupported payer %T", ErrValidation, p)
	}
	return nil
}

// MemberOf returns the member id behind p, if any.
func MemberOf(p Payer) (uuid.UUID, bool) {
	switch v := p.(type) {
	case MemberPayer:
		return v.MemberID, true
	case GuestPayer:
		return uuid.Nil, false
	default:
		return uuid.Nil, false
	}
}
