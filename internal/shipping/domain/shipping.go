package domain

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

var ErrInvalidZip = errors.New("invalid postal code")

// ConfigID is the fixed key of the singleton shipping configuration row.
const ConfigID = "default"

type Config struct {
	LocalCity      string
	LocalCostCents int64
	UpdatedAt      time.Time
}

func DefaultConfig() Config {
	return Config{LocalCity: "Curitiba"}
}

type Option struct {
	Method    string `json:"method"`
	CostCents int64  `json:"cost_cents"`
	Days      int    `json:"days"`
}

// NormalizeZip keeps digits only.
func NormalizeZip(zip string) string {
	var b strings.Builder
	for _, r := range zip {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
