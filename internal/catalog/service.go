package catalog

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/oaklinehq/checkout-backend/pkg/db/models"
	pkgerrors "github.com/oaklinehq/checkout-backend/pkg/errors"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
)

// Loader resolves SKU codes to their catalog records.
type Loader interface {
	LoadByCode(ctx context.Context, code string) (*models.Sku, error)
	LoadByCodes(ctx context.Context, codes []string) (map[string]*models.Sku, error)
}

type service struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewService builds the catalog loader backed by the shared database.
func NewService(db *gorm.DB, logg *logger.Logger) (Loader, error) {
	if db == nil {
		return nil, fmt.Errorf("catalog: db is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("catalog: logger is required")
	}
	return &service{db: db, logg: logg}, nil
}

func (s *service) LoadByCode(ctx context.Context, code string) (*models.Sku, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku code is required")
	}

	var sku models.Sku
	err := s.db.WithContext(ctx).
		Where("code = ? AND active = ?", code, true).
		First(&sku).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sku not found").
				WithDetails(map[string]string{"sku_code": code})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading sku")
	}
	return &sku, nil
}

func (s *service) LoadByCodes(ctx context.Context, codes []string) (map[string]*models.Sku, error) {
	resolved := make(map[string]*models.Sku, len(codes))
	if len(codes) == 0 {
		return resolved, nil
	}

	var skus []models.Sku
	err := s.db.WithContext(ctx).
		Where("code IN ? AND active = ?", codes, true).
		Find(&skus).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading skus")
	}
	for i := range skus {
		resolved[skus[i].Code] = &skus[i]
	}
	return resolved, nil
}

// IsNotFound reports whether err marks a missing SKU.
func IsNotFound(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodeNotFound
}
