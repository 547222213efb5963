// Package identity derives a caller identity from session claims.
package identity

import "strings"

// Identity is the caller identity derived from a claim set. Built fresh per
// request, never persisted.
type Identity struct {
	// SubjectID is the stable identifier for the caller. May be empty when
	// the provider emits neither an object identifier nor a subject claim;
	// callers log that condition and proceed.
	SubjectID string

	// DisplayName is "given family" or, when both are absent, the bare
	// name claim.
	DisplayName string

	// Email is optional.
	Email string
}

// Resolve derives an Identity from claims. It is a pure function of its
// input and never fails: missing fields resolve to empty strings.
//
// Precedence:
//   - SubjectID: object-identifier claim, else subject claim.
//   - DisplayName: given + family name joined and trimmed, else name claim.
//   - Email: email claim, else emails claim, else preferred_username when it
//     looks like an address (contains "@").
func Resolve(claims Claims) Identity {
	var id Identity

	id.SubjectID = claims[ClaimObjectID]
	if id.SubjectID == "" {
		id.SubjectID = claims[ClaimSubject]
	}

	given := claims[ClaimGivenName]
	family := claims[ClaimSurname]
	id.DisplayName = strings.TrimSpace(given + " " + family)
	if id.DisplayName == "" {
		id.DisplayName = claims[ClaimName]
	}

	id.Email = claims[ClaimEmail]
	if id.Email == "" {
		id.Email = claims[ClaimEmails]
	}
	if id.Email == "" {
		if username := claims[ClaimPreferredUsername]; strings.Contains(username, "@") {
			id.Email = username
		}
	}

	return id
}
