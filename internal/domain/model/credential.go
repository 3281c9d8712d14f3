package model

import "time"

// CredentialRecord is the stored delegated-access token set for the single
// mailing identity used by the system. It is a process-wide singleton,
// persisted in the durable store and mutated only by the credential service.
//
// RefreshToken and MailingIdentity, once set, are never cleared except when
// a refresh attempt fails irrecoverably and the whole record is deleted.
type CredentialRecord struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	Expiry          time.Time `json:"expiry"`
	MailingIdentity string    `json:"mailing_identity"` // verified email address captured at grant time
}

// Expired reports whether the access token is no longer fresh at now.
func (c *CredentialRecord) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && !now.Before(c.Expiry)
}

// Usable reports whether the record carries the fields required to mint
// tokens and address mail. A record missing either is treated as absent.
func (c *CredentialRecord) Usable() bool {
	return c.RefreshToken != "" && c.MailingIdentity != ""
}
