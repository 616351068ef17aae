// Package auth mints and verifies the HS256 tokens that authorize a
// device's sync channel. The token binds a user id to a device id; it
// grants nothing beyond that device's own sync rounds.
package auth

import (
	"time"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the user/device pair.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string
	DeviceID string
}

// GenerateDeviceToken signs a sync-channel token for the given device.
func GenerateDeviceToken(userID, deviceID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:   userID,
		DeviceID: deviceID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseDeviceToken verifies the signature and expiry and returns the
// user/device pair. Any failure maps to common.ErrInvalidToken.
func ParseDeviceToken(tokenString string, secretKey []byte) (userID, deviceID string, err error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", "", common.ErrInvalidToken
	}

	if !token.Valid {
		return "", "", common.ErrInvalidToken
	}

	return claims.UserID, claims.DeviceID, nil
}
