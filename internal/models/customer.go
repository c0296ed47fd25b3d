package models

import "time"

// Customer is the holder of one or more accounts. ID is the customer's
// CPF (the Brazilian tax id), which doubles as the lookup key.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BirthDate string    `json:"birth_date"` // dd-mm-aaaa
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateID checks that the customer id is a well-formed CPF: exactly
// eleven digits. No checksum validation is performed.
func (c Customer) ValidateID() error {
	if len(c.ID) != 11 {
		return ErrInvalidCustomerID
	}
	for _, r := range c.ID {
		if r < '0' || r > '9' {
			return ErrInvalidCustomerID
		}
	}
	return nil
}
