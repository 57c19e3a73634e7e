package postgres

import (
	"gorm.io/gorm"

	"github.com/frahmantamala/benefit-management/internal/auth"
	accountDatamodel "github.com/frahmantamala/benefit-management/internal/core/datamodel/account"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.AccountRepository {
	return &Repository{db: db}
}

func (r *Repository) GetByEmail(email string) (*accountDatamodel.Account, error) {
	var account accountDatamodel.Account
	err := r.db.Where("email = ?", email).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *Repository) GetByID(id int64) (*accountDatamodel.Account, error) {
	var account accountDatamodel.Account
	err := r.db.Where("id = ?", id).First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}
