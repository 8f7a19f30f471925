package config

import "time"

type Token struct {
	accessSecret  string
	refreshSecret string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	issuer        string
}

var _ TokenConfig = Token{}

func (t Token) GetAccessTokenSecret() string {
	return t.accessSecret
}

func (t Token) GetRefreshTokenSecret() string {
	return t.refreshSecret
}

func (t Token) GetAccessTokenExpiry() time.Duration {
	return t.accessExpiry
}

func (t Token) GetRefreshTokenExpiry() time.Duration {
	return t.refreshExpiry
}

func (t Token) GetIssuer() string {
	return t.issuer
}
