package security

import (
	"strings"

	"github.com/pquerna/otp/totp"
)

// totpIssuer is the issuer shown in authenticator apps.
const totpIssuer = "loyalty-server"

// GenerateTOTPSecret creates a new TOTP secret and its provisioning URL.
func GenerateTOTPSecret(accountName string) (secret string, url string, err error) {
	key, errGen := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: strings.TrimSpace(accountName),
	})
	if errGen != nil {
		return "", "", errGen
	}
	return key.Secret(), key.URL(), nil
}

// ValidateTOTP checks a 6-digit code against a secret.
func ValidateTOTP(code, secret string) bool {
	return totp.Validate(strings.TrimSpace(code), strings.TrimSpace(secret))
}
