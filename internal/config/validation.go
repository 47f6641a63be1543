package config

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct-tag constraints and the cross-field rules tags
// cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if !c.Telegram.Enabled && !c.HTTP.Enabled {
		return errors.New("at least one of telegram.enabled or http.enabled must be true")
	}

	return nil
}

// IsAdmin reports whether userID may run admin commands.
// With no admin configured nobody is an admin.
func (c *Config) IsAdmin(userID int64) bool {
	return c.Telegram.AdminUserID != 0 && userID == c.Telegram.AdminUserID
}
