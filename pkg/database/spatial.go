package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Spatial renders the SQL fragments that differ between the supported
// databases when reading and writing geometry columns as WKT.
type Spatial interface {
	Name() string
	// Prepare runs once before migrations.
	Prepare(db *gorm.DB) error
	ColumnType() string
	// FromText converts a WKT placeholder into a geometry value.
	FromText() string
	AsText(column string) string
	// Upsert completes an INSERT so that a conflict on keys overwrites columns.
	Upsert(keys []string, columns []string) string
}

func NewSpatial(driver string, srid int) (Spatial, error) {
	if srid == 0 {
		srid = 4326
	}
	switch driver {
	case "postgres":
		return postgis{srid: srid}, nil
	case "mysql":
		return mysqlSpatial{srid: srid}, nil
	case "sqlite":
		return wktText{}, nil
	}
	return nil, fmt.Errorf("no spatial support for driver %q", driver)
}

type postgis struct {
	srid int
}

func (postgis) Name() string { return "postgres" }

func (postgis) Prepare(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS postgis").Error
}

func (p postgis) ColumnType() string {
	return fmt.Sprintf("geometry(Geometry,%d)", p.srid)
}

func (p postgis) FromText() string {
	return fmt.Sprintf("ST_GeomFromText(?, %d)", p.srid)
}

func (postgis) AsText(column string) string {
	return "ST_AsText(" + column + ")"
}

func (postgis) Upsert(keys []string, columns []string) string {
	return onConflict(keys, columns, "EXCLUDED")
}

// mysqlSpatial pins the axis order because MySQL 8 reads geographic SRIDs as
// lat-long while WKT here is always long-lat.
type mysqlSpatial struct {
	srid int
}

func (mysqlSpatial) Name() string { return "mysql" }

func (mysqlSpatial) Prepare(*gorm.DB) error { return nil }

func (m mysqlSpatial) ColumnType() string {
	return fmt.Sprintf("GEOMETRY SRID %d", m.srid)
}

func (m mysqlSpatial) FromText() string {
	return fmt.Sprintf("ST_GeomFromText(?, %d, 'axis-order=long-lat')", m.srid)
}

func (mysqlSpatial) AsText(column string) string {
	return "ST_AsText(" + column + ", 'axis-order=long-lat')"
}

func (mysqlSpatial) Upsert(_ []string, columns []string) string {
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
	}
	return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}

// wktText stores geometries as plain WKT text. Used with sqlite for local
// development and tests.
type wktText struct{}

func (wktText) Name() string { return "sqlite" }

func (wktText) Prepare(*gorm.DB) error { return nil }

func (wktText) ColumnType() string { return "TEXT" }

func (wktText) FromText() string { return "?" }

func (wktText) AsText(column string) string { return column }

func (wktText) Upsert(keys []string, columns []string) string {
	return onConflict(keys, columns, "excluded")
}

func onConflict(keys, columns []string, excluded string) string {
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = fmt.Sprintf("%s = %s.%s", c, excluded, c)
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(keys, ", "), strings.Join(sets, ", "))
}
