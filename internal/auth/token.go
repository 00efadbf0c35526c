package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const rolesClaim = "roles"

// Claims are the identity facts carried in an access token.
type Claims struct {
	UserID string
	Roles  []string
}

// Tokens signs and verifies HS256 access tokens.
type Tokens struct {
	Secret    []byte
	Issuer    string
	Audience  string
	TTL       time.Duration
	ClockSkew time.Duration
}

// Sign issues an access token for c valid from now.
func (t Tokens) Sign(c Claims, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(t.TTL)
	tok, err := jwt.NewBuilder().
		Subject(c.UserID).
		Issuer(t.Issuer).
		Audience([]string{t.Audience}).
		IssuedAt(now).
		NotBefore(now.Add(-t.ClockSkew)).
		Expiration(expiresAt).
		Claim(rolesClaim, c.Roles).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, t.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

// Parse verifies the signature, algorithm, issuer, audience and lifetime of raw.
func (t Tokens) Parse(raw string, now time.Time) (Claims, error) {
	if err := requireHS256(raw); err != nil {
		return Claims{}, err
	}
	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, t.Secret),
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithIssuer(t.Issuer),
		jwt.WithAudience(t.Audience),
	}
	if t.ClockSkew > 0 {
		opts = append(opts, jwt.WithAcceptableSkew(t.ClockSkew))
	}
	tok, err := jwt.ParseString(raw, opts...)
	if err != nil {
		return Claims{}, err
	}
	if tok.Subject() == "" {
		return Claims{}, errors.New("auth: token has no subject")
	}
	return Claims{UserID: tok.Subject(), Roles: rolesOf(tok)}, nil
}

// requireHS256 rejects tokens signed with anything but HS256, including "none".
func requireHS256(raw string) error {
	msg, err := jws.ParseString(raw)
	if err != nil {
		return err
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return errors.New("auth: expected exactly one signature")
	}
	headers := sigs[0].ProtectedHeaders()
	if headers == nil {
		return errors.New("auth: token missing protected headers")
	}
	if alg := headers.Algorithm(); alg != jwa.HS256 {
		return fmt.Errorf("auth: unexpected token algorithm %q", alg)
	}
	return nil
}

func rolesOf(tok jwt.Token) []string {
	v, ok := tok.Get(rolesClaim)
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(list))
	for _, r := range list {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}
