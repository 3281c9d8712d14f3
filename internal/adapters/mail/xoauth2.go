package mail

import (
	"errors"
	"fmt"
	"net/smtp"
)

// xoauth2Auth implements the SASL XOAUTH2 mechanism used by Gmail SMTP.
// The initial response carries the user and a bearer token; no password
// ever crosses the wire.
type xoauth2Auth struct {
	user  string
	token string
}

// XOAUTH2 returns an smtp.Auth for the given user and OAuth2 access token.
func XOAUTH2(user, token string) smtp.Auth {
	return &xoauth2Auth{user: user, token: token}
}

func (a *xoauth2Auth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, errors.New("xoauth2: connection is not encrypted")
	}
	resp := fmt.Sprintf("user=%s\x01auth=Bearer %s\x01\x01", a.user, a.token)
	return "XOAUTH2", []byte(resp), nil
}

func (a *xoauth2Auth) Next(fromServer []byte, more bool) ([]byte, error) {
	// On failure the server sends a base64 JSON challenge; an empty
	// response makes it return the final SMTP error.
	if more {
		return []byte{}, nil
	}
	return nil, nil
}
