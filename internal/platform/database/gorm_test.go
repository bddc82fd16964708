package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := OpenSQLite("file:gormtest?mode=memory&cache=shared")
	require.NoError(t, err)
	defer CloseGORMDB(db, zap.NewNop())

	require.NoError(t, AutoMigrate(db, &widget{}))
	require.NoError(t, db.Create(&widget{Name: "lamp"}).Error)

	var got widget
	require.NoError(t, db.First(&got).Error)
	assert.Equal(t, "lamp", got.Name)
}
