package domain

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Template is a reusable SOW document skeleton. BodyKey references the
// template file in object storage; the dashboard edits metadata only.
type Template struct {
	PublicID  string    `json:"public_id"`
	Name      string    `json:"name"`
	Variant   string    `json:"variant"`
	BodyKey   string    `json:"body_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pricing calculator variants.
const (
	VariantEssential = "essential"
	VariantGrowth    = "growth"
)

var (
	ErrNotFound       = errors.New("template not found")
	ErrInvalidVariant = errors.New("invalid template variant")
)

// ValidVariant reports whether v is a known calculator variant.
func ValidVariant(v string) bool {
	return v == VariantEssential || v == VariantGrowth
}

// NewPublicID generates a human-readable public ID for a template, e.g. "sowtpl-12345-6789".
func NewPublicID(prefix string) (string, error) {
	a, err := randInt(10000, 99999)
	if err != nil {
		return "", err
	}
	b, err := randInt(1000, 9999)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%05d-%04d", prefix, a, b), nil
}

func randInt(min, max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		return 0, err
	}
	return min + n.Int64(), nil
}
