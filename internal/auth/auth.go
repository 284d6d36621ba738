// Package auth holds the thin remains of the login integration: the JWT
// cookie and the delegated token validation against the WordPress
// simple-jwt-login plugin. No tokens are issued or verified locally.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName is the HTTP-only cookie carrying the upstream-issued JWT.
	CookieName = "wp_jwt"
	// DefaultMaxAge applies when the token carries no readable expiry.
	DefaultMaxAge = 7 * 24 * time.Hour
)

// CookieMaxAge derives the cookie lifetime from the token's exp claim.
// The token is parsed without verification: validity is the upstream
// plugin's job, this only sizes the cookie window. Falls back to
// DefaultMaxAge for opaque or unexpiring tokens.
func CookieMaxAge(token string, now time.Time) time.Duration {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return DefaultMaxAge
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return DefaultMaxAge
	}
	ttl := exp.Time.Sub(now)
	if ttl <= 0 || ttl > DefaultMaxAge {
		return DefaultMaxAge
	}
	return ttl
}

// Attempt records one upstream validation try for the debug response.
// Contains no token material.
type Attempt struct {
	Path   string `json:"path"`
	Status int    `json:"status"`
	Valid  bool   `json:"valid"`
}

// Validator checks tokens against the simple-jwt-login validate
// endpoint. The plugin accepts the token either as a JWT query parameter
// or a bearer header, and is reachable both via rest_route and /wp-json;
// all four variants are tried in order, first success wins.
type Validator struct {
	base     string // CMS base URL, used to derive endpoints
	override string // explicit validate endpoint, optional
	http     *http.Client
}

func NewValidator(base, override string, httpClient *http.Client) *Validator {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Validator{base: base, override: override, http: httpClient}
}

func (v *Validator) restRouteURL() (string, bool) {
	if v.override != "" {
		return v.override, true
	}
	if v.base == "" {
		return "", false
	}
	u, err := url.Parse(v.base)
	if err != nil {
		return "", false
	}
	q := u.Query()
	q.Set("rest_route", "/simple-jwt-login/v1/auth/validate")
	u.RawQuery = q.Encode()
	return u.String(), true
}

func (v *Validator) wpJSONURL() (string, bool) {
	if v.base == "" {
		return "", false
	}
	base := v.base
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "wp-json/simple-jwt-login/v1/auth/validate", true
}

// responseOK interprets the plugin's assorted success shapes.
func responseOK(status int, body map[string]interface{}) bool {
	if status != http.StatusOK {
		return false
	}
	lower := func(v interface{}) string {
		s, _ := v.(string)
		return strings.ToLower(s)
	}
	if ok, _ := body["success"].(bool); ok {
		return true
	}
	if ok, _ := body["valid"].(bool); ok {
		return true
	}
	if lower(body["status"]) == "ok" {
		return true
	}
	if data, ok := body["data"].(map[string]interface{}); ok && lower(data["status"]) == "ok" {
		return true
	}
	if lower(body["code"]) == "jwt_valid" {
		return true
	}
	if lower(body["data"]) == "valid" {
		return true
	}
	return false
}

func (v *Validator) try(ctx context.Context, endpoint, token string, asHeader bool) Attempt {
	target := endpoint
	if !asHeader {
		u, err := url.Parse(endpoint)
		if err != nil {
			return Attempt{Path: endpoint}
		}
		q := u.Query()
		q.Set("JWT", token)
		u.RawQuery = q.Encode()
		target = u.String()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Attempt{Path: endpoint}
	}
	if asHeader {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := v.http.Do(req)
	if err != nil {
		return Attempt{Path: redact(target)}
	}
	defer res.Body.Close()
	body := map[string]interface{}{}
	_ = json.NewDecoder(res.Body).Decode(&body)
	return Attempt{
		Path:   redact(target),
		Status: res.StatusCode,
		Valid:  responseOK(res.StatusCode, body),
	}
}

// redact drops the JWT query value from a URL before it lands in a debug
// payload.
func redact(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	if q.Has("JWT") {
		q.Set("JWT", "…")
		u.RawQuery = q.Encode()
	}
	return u.Path + "?" + u.RawQuery
}

// Validate runs the strategy chain. It returns whether any variant
// accepted the token, plus the attempt log for debug mode.
func (v *Validator) Validate(ctx context.Context, token string) (bool, []Attempt) {
	var attempts []Attempt
	run := func(endpoint string, asHeader bool) bool {
		a := v.try(ctx, endpoint, token, asHeader)
		attempts = append(attempts, a)
		return a.Valid
	}
	if endpoint, ok := v.restRouteURL(); ok {
		if run(endpoint, false) || run(endpoint, true) {
			return true, attempts
		}
	}
	if endpoint, ok := v.wpJSONURL(); ok {
		if run(endpoint, false) || run(endpoint, true) {
			return true, attempts
		}
	}
	return false, attempts
}
