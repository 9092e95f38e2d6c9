package app

import (
	"github.com/akash12888/note-taking-app/internal/auth"
	"github.com/akash12888/note-taking-app/pkg/otp"
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}

	return auth.JWTConfig{
		Secret:   c.JWT.Secret,
		Issuer:   c.JWT.Issuer,
		TokenTTL: ttl,
	}
}

// CodeLength returns the configured one-time-code length, defaulting when unset.
func (c AuthConfig) CodeLength() int {
	if c.OTP.Length <= 0 {
		return otp.DefaultLength
	}
	return c.OTP.Length
}

// GoogleServiceConfig converts AuthConfig into Google bridge parameters.
func (c AuthConfig) GoogleServiceConfig() auth.GoogleConfig {
	return auth.GoogleConfig{
		Issuer:       c.Google.Issuer,
		ClientID:     c.Google.ClientID,
		ClientSecret: c.Google.ClientSecret,
		RedirectURL:  c.Google.RedirectURL,
		StateSecret:  c.JWT.Secret,
	}
}
