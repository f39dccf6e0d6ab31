package database

import (
	"fmt"
	"log"
	"time"

	"pracas_backend/internal/config"
	"pracas_backend/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table managed by AutoMigrate, parents first.
var Models = []interface{}{
	&model.User{},
	&model.Invite{},
	&model.City{},
	&model.AdministrativeUnit{},
	&model.LocationType{},
	&model.LocationCategory{},
	&model.Location{},
	&model.Category{},
	&model.Subcategory{},
	&model.Question{},
	&model.Option{},
	&model.Form{},
	&model.FormQuestion{},
	&model.Calculation{},
	&model.Assessment{},
	&model.Response{},
	&model.ResponseOption{},
	&model.QuestionGeometry{},
	&model.Tally{},
	&model.TallyPerson{},
}

type spatialColumn struct {
	model  interface{}
	table  string
	column string
}

var spatialColumns = []spatialColumn{
	{&model.Location{}, "locations", "polygon"},
	{&model.QuestionGeometry{}, "question_geometry", "geometry"},
}

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.Path), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func logLevel(name string) logger.LogLevel {
	switch name {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

// InitDB opens the configured database. It does not migrate.
func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// sqlite allows a single writer; an in-memory database also lives
		// in one connection only.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Printf("Database connection established (%s)", cfg.Driver)
	return db, nil
}

// Migrate creates or updates every table and then adds the geometry columns,
// which gorm cannot describe portably.
func Migrate(db *gorm.DB, spatial Spatial) error {
	if err := spatial.Prepare(db); err != nil {
		return fmt.Errorf("prepare spatial support: %w", err)
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, sc := range spatialColumns {
		if db.Migrator().HasColumn(sc.model, sc.column) {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", sc.table, sc.column, spatial.ColumnType())
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add column %s.%s: %w", sc.table, sc.column, err)
		}
	}

	log.Println("Database migration completed")
	return nil
}
