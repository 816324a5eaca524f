package auth

import (
	"context"
	"errors"
	"fmt"

	"sportsmatch/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:  "https://kauth.kakao.com/oauth/authorize",
	TokenURL: "https://kauth.kakao.com/oauth/token",
}

// Kakao runs the OpenID Connect authorization-code flow against Kakao.
type Kakao struct {
	config *oauth2.Config
}

// NewKakao returns nil when no client id is configured.
func NewKakao(cfg config.KakaoConfig) *Kakao {
	if cfg.ClientID == "" {
		return nil
	}
	return &Kakao{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid"},
			Endpoint:     kakaoEndpoint,
		},
	}
}

func (k *Kakao) AuthCodeURL(state string) string {
	return k.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens and returns the subject of
// the id_token. The token comes straight from Kakao's token endpoint over TLS,
// so its signature is not re-verified here.
func (k *Kakao) Exchange(ctx context.Context, code string) (string, error) {
	token, err := k.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("kakao token exchange: %w", err)
	}

	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", errors.New("kakao response carries no id_token")
	}
	return SubjectOf(raw)
}

// SubjectOf extracts the subject claim of an unverified JWT.
func SubjectOf(rawToken string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return "", fmt.Errorf("parse id_token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("id_token has no subject")
	}
	return claims.Subject, nil
}
