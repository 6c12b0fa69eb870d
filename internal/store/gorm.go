package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"uirecorder/internal/models"
)

// Gorm persists to the SQL database opened by pkg/database.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) AppendRecording(ctx context.Context, actions []models.Action, cases []models.TestCase) (Totals, error) {
	var totals Totals
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(actions) > 0 {
			if err := tx.Create(&actions).Error; err != nil {
				return fmt.Errorf("failed to store actions: %w", err)
			}
		}
		if len(cases) > 0 {
			if err := tx.Create(&cases).Error; err != nil {
				return fmt.Errorf("failed to store test cases: %w", err)
			}
		}
		if err := tx.Model(&models.Action{}).Count(&totals.Actions).Error; err != nil {
			return err
		}
		return tx.Model(&models.TestCase{}).Count(&totals.TestCases).Error
	})
	return totals, err
}

func (g *Gorm) ListTestCases(ctx context.Context) ([]models.TestCase, error) {
	var cases []models.TestCase
	err := g.db.WithContext(ctx).Order("row_id ASC").Find(&cases).Error
	return cases, err
}

func (g *Gorm) ClearRecording(ctx context.Context) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Action{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.TestCase{}).Error
	})
}

func (g *Gorm) CreateSuite(ctx context.Context, suite *models.TestSuite) error {
	return g.db.WithContext(ctx).Create(suite).Error
}

func (g *Gorm) UpdateSuite(ctx context.Context, suite *models.TestSuite) error {
	res := g.db.WithContext(ctx).Save(suite)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("suite %d: %w", suite.ID, ErrNotFound)
	}
	return nil
}

func (g *Gorm) GetSuite(ctx context.Context, id uint) (*models.TestSuite, error) {
	var suite models.TestSuite
	if err := g.db.WithContext(ctx).First(&suite, id).Error; err != nil {
		return nil, notFound(err, "suite", id)
	}
	return &suite, nil
}

func (g *Gorm) ListSuites(ctx context.Context) ([]models.TestSuite, error) {
	var suites []models.TestSuite
	err := g.db.WithContext(ctx).Order("id ASC").Find(&suites).Error
	return suites, err
}

func (g *Gorm) DeleteSuite(ctx context.Context, id uint) error {
	res := g.db.WithContext(ctx).Delete(&models.TestSuite{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("suite %d: %w", id, ErrNotFound)
	}
	return nil
}

func (g *Gorm) CreateExecution(ctx context.Context, exec *models.TestExecution) error {
	return g.db.WithContext(ctx).Create(exec).Error
}

func (g *Gorm) UpdateExecution(ctx context.Context, exec *models.TestExecution) error {
	return g.db.WithContext(ctx).Save(exec).Error
}

func (g *Gorm) GetExecution(ctx context.Context, id uint) (*models.TestExecution, error) {
	var exec models.TestExecution
	if err := g.db.WithContext(ctx).First(&exec, id).Error; err != nil {
		return nil, notFound(err, "execution", id)
	}
	return &exec, nil
}

func (g *Gorm) ListExecutions(ctx context.Context, filter ExecutionFilter) ([]models.TestExecution, int64, error) {
	filter = filter.normalized()

	query := g.db.WithContext(ctx).Model(&models.TestExecution{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SuiteID != nil {
		query = query.Where("test_suite_id = ?", *filter.SuiteID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var execs []models.TestExecution
	err := query.Order("id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&execs).Error
	return execs, total, err
}

func notFound(err error, kind string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return err
}
