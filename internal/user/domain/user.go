package domain

import (
	"errors"
	"strings"
)

var ErrUserNotFound = errors.New("user not found")

type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
}

// Complete reports whether every mandatory field is filled. Complement is
// optional.
func (a Address) Complete() bool {
	for _, f := range []string{a.Street, a.Number, a.Neighborhood, a.City, a.State, a.ZipCode} {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// Missing lists the json names of empty mandatory fields.
func (a Address) Missing() []string {
	var out []string
	fields := []struct{ name, v string }{
		{"street", a.Street}, {"number", a.Number}, {"neighborhood", a.Neighborhood},
		{"city", a.City}, {"state", a.State}, {"zip_code", a.ZipCode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.v) == "" {
			out = append(out, f.name)
		}
	}
	return out
}

type User struct {
	ID      string
	Name    string
	Email   string
	Role    string
	Address Address
}
