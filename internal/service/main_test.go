package service

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/pkg/database"
	"scorm_lms_backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// newTestDB 每个测试一个独立的内存库，表结构与生产迁移共用一份
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	u := &model.User{Name: "Ada Chen", Email: t.Name() + "@example.com", Password: "x", Role: model.Student}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createTestTopic(t *testing.T, db *gorm.DB) *model.Topic {
	t.Helper()
	topic := &model.Topic{CourseID: 1, Title: "Workplace Safety"}
	require.NoError(t, db.Create(topic).Error)
	return topic
}

func createTestPackage(t *testing.T, db *gorm.DB, topicID uint, version model.ScormVersion) *model.ContentPackage {
	t.Helper()
	pkg := &model.ContentPackage{
		TopicID:  topicID,
		Title:    "Safety Basics",
		FileName: "safety_basics.zip",
		Version:  version,
	}
	require.NoError(t, db.Create(pkg).Error)
	return pkg
}

func fptr(v float64) *float64 { return &v }
