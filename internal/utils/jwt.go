package utils // package utils provides helper functions for token creation and verification

import (
	"errors"
	"fmt"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/iliyamo/auth-service/internal/model"
)

// ErrMalformedClaims is returned when a token parses and verifies but its
// claims do not have the expected shape (missing subject, unknown role,
// missing record identifier).  Callers treat it the same as a signature
// failure: the token is unusable.
var ErrMalformedClaims = errors.New("malformed token claims")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the serialized JWT string.  Access tokens are
// short-lived, self-contained proof of identity and role; verifying one
// never touches storage.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a signed JWT refresh token along with its expiry.
// Unlike access tokens, a refresh token is only as good as its server-side
// record: the rtid claim names a record in the token store, and the token
// dies the moment that record is consumed or revoked.
type RefreshToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// AccessClaims carries the verified contents of an access token.
type AccessClaims struct {
	UserID uint64     // subject
	Role   model.Role // role claim
	Exp    time.Time  // expiry, already validated
}

// RefreshClaims carries the verified contents of a refresh token.
type RefreshClaims struct {
	UserID   uint64    // subject
	RecordID string    // rtid claim anchoring the server-side record
	Exp      time.Time // expiry, already validated
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID, the user's role, and a TTL in minutes.  The
// JWT includes standard claims: subject (sub), role, expiration (exp) and
// issued at (iat).
func NewAccessToken(secret string, userID uint64, role model.Role, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 JWT refresh token.  The rtid
// claim carries the record identifier of the server-side record created
// for this issuance, and the expiry equals that record's TTL so the token
// and its record age out together.  The secret must be the refresh secret,
// never the access secret.
func NewRefreshToken(secret string, userID uint64, recordID string, exp time.Time) (RefreshToken, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"rtid": recordID,
		"exp":  exp.UTC().Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Token: signed, Exp: exp.UTC()}, nil
}

// ParseAccessToken verifies the signature and expiry of an access token and
// extracts its claims.  It never consults storage.  Any failure, whether a
// forged signature, an expired token, or claims of the wrong shape, is an
// error; callers do not learn which.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
	claims, err := parseHS256(secret, raw)
	if err != nil {
		return AccessClaims{}, err
	}
	uid, ok := subjectID(claims)
	if !ok {
		return AccessClaims{}, ErrMalformedClaims
	}
	roleStr, _ := claims["role"].(string)
	role, ok := model.ParseRole(roleStr)
	if !ok {
		return AccessClaims{}, ErrMalformedClaims
	}
	return AccessClaims{UserID: uid, Role: role, Exp: expiry(claims)}, nil
}

// ParseRefreshToken verifies the signature and expiry of a refresh token
// and extracts its claims.  The rtid claim is required; a refresh token
// without a record identifier cannot be anchored to a record and is
// rejected outright.
func ParseRefreshToken(secret, raw string) (RefreshClaims, error) {
	claims, err := parseHS256(secret, raw)
	if err != nil {
		return RefreshClaims{}, err
	}
	uid, ok := subjectID(claims)
	if !ok {
		return RefreshClaims{}, ErrMalformedClaims
	}
	recordID, _ := claims["rtid"].(string)
	if recordID == "" {
		return RefreshClaims{}, ErrMalformedClaims
	}
	return RefreshClaims{UserID: uid, RecordID: recordID, Exp: expiry(claims)}, nil
}

// parseHS256 parses a token enforcing the HMAC signing method and the
// given secret.  The library validates exp/iat during Parse.
func parseHS256(secret, raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with a different algorithm; otherwise a
		// token signed with "none" or an RSA public key could slip through.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		if err == nil {
			err = jwt.ErrTokenUnverifiable
		}
		return nil, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformedClaims
	}
	return claims, nil
}

// subjectID extracts the sub claim as a user ID.  JWT numeric values are
// decoded as float64; some issuers encode numeric strings instead, so both
// are accepted, matching what the verification middleware tolerated
// historically.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
	switch v := claims["sub"].(type) {
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case string:
		var n uint64
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

// expiry extracts the exp claim as a time.  Parse already validated it.
func expiry(claims jwt.MapClaims) time.Time {
	if v, ok := claims["exp"].(float64); ok {
		return time.Unix(int64(v), 0).UTC()
	}
	return time.Time{}
}
