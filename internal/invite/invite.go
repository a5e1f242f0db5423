package invite

import (
	"errors"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/taskhive-dev/taskhive/internal/models"
	"gorm.io/gorm"
)

// TokenLength matches the entropy of a 32-byte URL-safe secret.
const TokenLength = 43

const maxAttempts = 3

// NewToken returns an opaque, URL-safe join token.
func NewToken() (string, error) {
	return gonanoid.New(TokenLength)
}

// Assign generates a fresh invite token for the workspace and persists it,
// immediately invalidating any previous token. Tokens are unguessable, but
// uniqueness across workspaces is still checked so two workspaces can never
// share a join link; the unique index on invite_token is the backstop
// against concurrent assignment.
func Assign(tx *gorm.DB, workspace *models.Workspace) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		token, err := NewToken()

		if err != nil {
			return err
		}

		var count int64

		if err := tx.Model(&models.Workspace{}).Where("invite_token = ? AND id != ?", token, workspace.ID).Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			continue
		}

		if err := tx.Model(workspace).Update("invite_token", token).Error; err != nil {
			return err
		}

		workspace.InviteToken = token
		return nil
	}

	return errors.New("could not generate a unique invite token")
}
