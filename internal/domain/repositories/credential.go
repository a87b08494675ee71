package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
)

// CredentialRepository persists Credential rows. Data always holds
// ciphertext (internal/pkg/crypto.Encryptor output) — this layer never sees
// plaintext.
type CredentialRepository struct {
	*BaseRepository[models.Credential]
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{
		BaseRepository: NewBaseRepository[models.Credential](db),
	}
}

func (r *CredentialRepository) FindByType(ctx context.Context, credType string) ([]models.Credential, error) {
	var credentials []models.Credential
	err := r.DB().WithContext(ctx).
		Where("type = ?", credType).
		Order("name ASC").
		Find(&credentials).Error
	return credentials, err
}

func (r *CredentialRepository) UpdateData(ctx context.Context, credentialID uuid.UUID, encryptedData string) error {
	return r.DB().WithContext(ctx).Model(&models.Credential{}).
		Where("id = ?", credentialID).
		Update("data", encryptedData).Error
}
