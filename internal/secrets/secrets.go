// Package secrets keeps the SMTP password and the Yelp API key in the OS
// keychain instead of the settings file on disk.
package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service groups this app's secrets in the OS keychain.
	Service = "leadscout"

	yelpAccount = "yelp:api_key"
)

func smtpAccount(user string) string {
	return "smtp:" + user
}

func GetSMTPPassword(smtpUser string) (string, error) {
	if strings.TrimSpace(smtpUser) == "" {
		return "", errors.New("smtp user is empty")
	}
	pw, err := keyring.Get(Service, smtpAccount(smtpUser))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(pw) == "" {
		return "", errors.New("smtp password not set in keychain")
	}
	return pw, nil
}

func SetSMTPPassword(smtpUser, password string) error {
	if strings.TrimSpace(smtpUser) == "" {
		return errors.New("smtp user is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(Service, smtpAccount(smtpUser), password)
}

func DeleteSMTPPassword(smtpUser string) error {
	if strings.TrimSpace(smtpUser) == "" {
		return errors.New("smtp user is empty")
	}
	return keyring.Delete(Service, smtpAccount(smtpUser))
}

// GetYelpAPIKey returns the stored key, or "" when none is set. A missing
// key disables the Yelp source rather than erroring.
func GetYelpAPIKey() string {
	key, err := keyring.Get(Service, yelpAccount)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(key)
}

func SetYelpAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(Service, yelpAccount, key)
}

func DeleteYelpAPIKey() error {
	return keyring.Delete(Service, yelpAccount)
}
