package identity

// Recognized claim keys. Claim sets arrive from the identity provider with
// varying naming across environments; resolution only ever looks at these.
const (
	ClaimObjectID          = "oid"
	ClaimSubject           = "sub"
	ClaimGivenName         = "given_name"
	ClaimSurname           = "family_name"
	ClaimName              = "name"
	ClaimEmail             = "email"
	ClaimEmails            = "emails"
	ClaimPreferredUsername = "preferred_username"
)

// Claims maps recognized claim keys to their values. Absent claims are
// simply missing keys; values are never nil.
type Claims map[string]string
