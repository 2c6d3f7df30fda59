package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ezBadminton/gobeachtennis/core"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound      = errors.New("match not found")
	ErrUnknownDriver = errors.New("unknown database driver")
)

// Selects a subset of the matches of a tournament. Nil fields
// do not filter.
type Filter struct {
	Stage *core.Stage
	Group *int
}

// Persistence of matches. SaveMatches stores all given matches
// or none of them.
type MatchStore interface {
	ListMatches(ctx context.Context, tournamentId string, filter Filter) ([]*core.Match, error)
	GetMatch(ctx context.Context, id string) (*core.Match, error)
	SaveMatches(ctx context.Context, matches ...*core.Match) error
	DeleteMatches(ctx context.Context, tournamentId string, stage core.Stage) (int64, error)
}

type GormStore struct {
	db *gorm.DB
}

// Opens the database of the given driver ("postgres" or "sqlite")
// and migrates the schema
func Open(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	gormConfig := &gorm.Config{}
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return New(db)
}

// Creates the store on an open database and migrates the schema
func New(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&matchRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) ListMatches(ctx context.Context, tournamentId string, filter Filter) ([]*core.Match, error) {
	query := s.db.WithContext(ctx).Where("tournament_id = ?", tournamentId)
	if filter.Stage != nil {
		query = query.Where("stage = ?", filter.Stage.String())
	}
	if filter.Group != nil {
		query = query.Where("group_number = ?", *filter.Group)
	}

	var records []matchRecord
	err := query.
		Order("stage").
		Order("group_number").
		Order("round").
		Order("position").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	matches := make([]*core.Match, 0, len(records))
	for i := range records {
		m, err := records[i].toMatch()
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (s *GormStore) GetMatch(ctx context.Context, id string) (*core.Match, error) {
	var record matchRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return record.toMatch()
}

// Inserts or updates the matches in one transaction
func (s *GormStore) SaveMatches(ctx context.Context, matches ...*core.Match) error {
	if len(matches) == 0 {
		return nil
	}

	records := make([]*matchRecord, 0, len(matches))
	for _, m := range matches {
		records = append(records, toRecord(m))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&records).Error
	})
}

func (s *GormStore) DeleteMatches(ctx context.Context, tournamentId string, stage core.Stage) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("tournament_id = ? AND stage = ?", tournamentId, stage.String()).
		Delete(&matchRecord{})
	return result.RowsAffected, result.Error
}
