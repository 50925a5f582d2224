package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"marketplace_console_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory database with the console schema.
// One connection keeps concurrent queries on the same shared-cache database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = testDB.AutoMigrate(
		&models.Employee{},
		&models.Session{},
		&models.HeadCategory{},
		&models.SubCategory{},
		&models.MicroCategory{},
		&models.MicroCategoryMeta{},
		&models.State{},
		&models.City{},
		&models.AuthUser{},
		&models.Vendor{},
		&models.Lead{},
		&models.LeadPurchase{},
		&models.PricingRule{},
		&models.AuditLog{},
	)
	require.NoError(t, err)

	return testDB
}

// fakeUploader records upload requests and answers with a canned response
type fakeUploader struct {
	requests []*ImageUploadRequest
	removed  []string
	resp     *ImageUploadResponse
	err      error
}

func (f *fakeUploader) RemoveCategoryImage(ctx context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeUploader) UploadCategoryImage(ctx context.Context, req *ImageUploadRequest) (*ImageUploadResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func okUploader(url string) *fakeUploader {
	return &fakeUploader{resp: &ImageUploadResponse{Success: true, Bucket: "test", Path: "p", PublicURL: url}}
}

// imageOfSize returns a fake PNG payload of exactly n bytes
func imageOfSize(n int) *ImageFile {
	return &ImageFile{FileName: "photo.png", ContentType: "image/png", Data: bytes.Repeat([]byte{0x89}, n)}
}

func boolPtr(b bool) *bool {
	return &b
}
