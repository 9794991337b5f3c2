// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tmarques/floravision/internal/conf"
)

// Interface abstracts the underlying database implementation and defines
// the operations the pipeline and web layer need.
type Interface interface {
	Open() error
	Close() error
	SaveTest(test *Test, classifications []Classification) error
	GetTest(id string) (Test, error)
	GetTestClassifications(testID uint) ([]Classification, error)
	GetAllTests() ([]Test, error)
	GetLastTests(limit int) ([]Test, error)
	SearchTests(query string, limit, offset int) ([]Test, error)
	UpdateTestNotes(id uint, notes string) error
	CountTests() (int64, error)
	CountClassifications() (int64, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// SaveTest stores a test and its per-model classifications as a single
// transaction. Identifiers are assigned by the database inside the
// transaction, so concurrent writers cannot race on them. The transaction
// boundary is one image: a failure here leaves no partial Test behind.
func (ds *DataStore) SaveTest(test *Test, classifications []Classification) error {
	tx := ds.DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("starting transaction: %w", tx.Error)
	}

	// Roll back the transaction if a panic occurs
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(test).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("saving test: %w", err)
	}

	// Stamp the store-assigned test id on each classification row
	for i := range classifications {
		classifications[i].TestID = test.ID
		if err := tx.Create(&classifications[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("saving classification for model %q: %w", classifications[i].Model, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetTest retrieves a test by its ID from the database.
func (ds *DataStore) GetTest(id string) (Test, error) {
	testID, err := strconv.Atoi(id)
	if err != nil {
		return Test{}, fmt.Errorf("converting ID to integer: %w", err)
	}

	var test Test
	if err := ds.DB.First(&test, testID).Error; err != nil {
		return Test{}, fmt.Errorf("getting test with ID %d: %w", testID, err)
	}
	return test, nil
}

// GetTestClassifications retrieves all classification rows for one test,
// in insertion (model configuration) order.
func (ds *DataStore) GetTestClassifications(testID uint) ([]Classification, error) {
	var classifications []Classification
	err := ds.DB.Where("test_id = ?", testID).
		Order("id ASC").
		Find(&classifications).Error
	if err != nil {
		return nil, fmt.Errorf("getting classifications for test %d: %w", testID, err)
	}
	return classifications, nil
}

// GetAllTests retrieves all tests from the database.
func (ds *DataStore) GetAllTests() ([]Test, error) {
	var tests []Test
	if result := ds.DB.Order("id ASC").Find(&tests); result.Error != nil {
		return nil, fmt.Errorf("error getting all tests: %w", result.Error)
	}
	return tests, nil
}

// GetLastTests retrieves the most recently submitted tests.
func (ds *DataStore) GetLastTests(limit int) ([]Test, error) {
	var tests []Test
	if result := ds.DB.Order("id DESC").Limit(limit).Find(&tests); result.Error != nil {
		return nil, fmt.Errorf("error getting last tests: %w", result.Error)
	}
	return tests, nil
}

// SearchTests performs a search over expert labels and filenames with
// pagination.
func (ds *DataStore) SearchTests(query string, limit, offset int) ([]Test, error) {
	var tests []Test
	err := ds.DB.Where("expert_label LIKE ? OR filename LIKE ?", "%"+query+"%", "%"+query+"%").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&tests).Error
	if err != nil {
		return nil, fmt.Errorf("error searching tests: %w", err)
	}
	return tests, nil
}

// UpdateTestNotes updates the notes field of a test. Tests are otherwise
// immutable after creation.
func (ds *DataStore) UpdateTestNotes(id uint, notes string) error {
	result := ds.DB.Model(&Test{}).Where("id = ?", id).Update("notes", notes)
	if result.Error != nil {
		return fmt.Errorf("updating notes for test %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("test %d not found", id)
	}
	return nil
}

// CountTests returns the number of test rows.
func (ds *DataStore) CountTests() (int64, error) {
	var count int64
	if err := ds.DB.Model(&Test{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting tests: %w", err)
	}
	return count, nil
}

// CountClassifications returns the number of classification rows.
func (ds *DataStore) CountClassifications() (int64, error) {
	var count int64
	if err := ds.DB.Model(&Classification{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting classifications: %w", err)
	}
	return count, nil
}

// performAutoMigration automates database migrations with error handling.
// Schema creation is idempotent.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Test{}, &Classification{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}

	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}
