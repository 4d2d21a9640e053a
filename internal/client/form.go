// Package client is the submitting side of warranty registration: it turns
// form input into a domain.Submission, validates it and posts it to the relay.
package client

import (
	"strings"

	"github.com/sngm3741/warranty-services/api/internal/evidence"
	"github.com/sngm3741/warranty-services/api/internal/warranty/domain"
)

// Form is raw registration input as a user typed it.
type Form struct {
	FullName     string
	Address      string
	Phone        string
	Email        string
	Gender       string
	Birthday     string
	PurchaseDate string
	Store        string
	Evidence     *evidence.File
	AgreeToTerms bool
}

// BuildSubmission assembles a fresh Submission from form. Free-text fields
// are trimmed. A zero-byte evidence file counts as no evidence.
func BuildSubmission(form Form, n *evidence.Normalizer, profile evidence.Profile) domain.Submission {
	sub := domain.Submission{
		FullName:     strings.TrimSpace(form.FullName),
		Address:      strings.TrimSpace(form.Address),
		Phone:        strings.TrimSpace(form.Phone),
		Email:        strings.TrimSpace(form.Email),
		Gender:       form.Gender,
		Birthday:     form.Birthday,
		PurchaseDate: form.PurchaseDate,
		Store:        strings.TrimSpace(form.Store),
		AgreeToTerms: form.AgreeToTerms,
	}

	if form.Evidence != nil && !form.Evidence.Empty() {
		if n == nil {
			n = evidence.NewNormalizer()
		}
		payload := n.Normalize(*form.Evidence, profile)
		sub.Evidence = &payload
	}
	return sub
}
