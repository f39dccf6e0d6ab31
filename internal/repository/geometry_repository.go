package repository

import (
	"context"
	"fmt"

	"pracas_backend/pkg/database"

	"gorm.io/gorm"
)

// StoredGeometry is the geometry saved for one question of an assessment. A
// nil WKT means the question was answered with no geometry.
type StoredGeometry struct {
	QuestionID uint    `json:"questionId"`
	WKT        *string `json:"wkt"`
}

type GeometryRepository struct {
	DB      *gorm.DB
	Spatial database.Spatial
}

func NewGeometryRepository(db *gorm.DB, spatial database.Spatial) *GeometryRepository {
	return &GeometryRepository{DB: db, Spatial: spatial}
}

// Upsert stores wkt for (assessmentID, questionID) in a single statement,
// replacing any previous value. An empty wkt stores NULL.
func (r *GeometryRepository) Upsert(ctx context.Context, assessmentID, questionID uint, wkt string) error {
	value := r.Spatial.FromText()
	args := []interface{}{assessmentID, questionID}
	if wkt == "" {
		value = "NULL"
	} else {
		args = append(args, wkt)
	}
	stmt := fmt.Sprintf("INSERT INTO question_geometry (assessment_id, question_id, geometry) VALUES (?, ?, %s) %s",
		value,
		r.Spatial.Upsert([]string{"assessment_id", "question_id"}, []string{"geometry"}),
	)
	return r.DB.WithContext(ctx).Exec(stmt, args...).Error
}

func (r *GeometryRepository) ListByAssessment(ctx context.Context, assessmentID uint) ([]StoredGeometry, error) {
	var list []StoredGeometry
	stmt := fmt.Sprintf("SELECT question_id, %s AS wkt FROM question_geometry WHERE assessment_id = ? ORDER BY question_id",
		r.Spatial.AsText("geometry"))
	err := r.DB.WithContext(ctx).Raw(stmt, assessmentID).Scan(&list).Error
	return list, err
}
