package onboarding

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// MsgSignInFailed is shown when a credential cannot be decoded.
const MsgSignInFailed = "Sign-in failed. Please try again."

// identityClaims are the ID token claims read from the sign-in credential.
type identityClaims struct {
	jwt.RegisteredClaims
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// DecodeCredential reads the name, email and picture claims from a sign-in
// credential. The signature is NOT checked; verifying the token is the job of
// whichever backend eventually receives IDToken.
func DecodeCredential(credential string) (Profile, error) {
	if strings.TrimSpace(credential) == "" {
		return Profile{}, ErrMissingCredential
	}

	claims := &identityClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}

	return Profile{
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
		IDToken: credential,
	}, nil
}
