package core

import (
	"context"
	"fmt"
	"os"

	"hotlabcore/internal/blob"
	blobfs "hotlabcore/internal/infra/blob/fs"
	blobmem "hotlabcore/internal/infra/blob/memory"
	blobs3 "hotlabcore/internal/infra/blob/s3"
	"hotlabcore/internal/infra/persistence/memory"
	"hotlabcore/internal/infra/persistence/postgres"
	"hotlabcore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	HOTLAB_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	HOTLAB_SQLITE_PATH: path to sqlite file (default ./hotlab.db)
//	HOTLAB_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("HOTLAB_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("HOTLAB_SQLITE_PATH"), engine)
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("HOTLAB_POSTGRES_DSN"), engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// OpenArchiveStore selects an archive backend using environment variables.
// Defaults to the filesystem driver when unset.
//
//	HOTLAB_ARCHIVE_DRIVER: fs|s3|memory (default fs)
//	HOTLAB_ARCHIVE_FS_ROOT: archive directory for the fs driver
//	HOTLAB_ARCHIVE_S3_*: bucket settings for the s3 driver
func OpenArchiveStore(ctx context.Context) (blob.Store, error) {
	driver := os.Getenv("HOTLAB_ARCHIVE_DRIVER")
	if driver == "" {
		driver = string(blob.DriverFilesystem)
	}
	switch blob.Driver(driver) {
	case blob.DriverFilesystem:
		return blobfs.New(os.Getenv("HOTLAB_ARCHIVE_FS_ROOT"))
	case blob.DriverS3:
		return blobs3.OpenFromEnv(ctx)
	case blob.DriverMemory:
		return blobmem.New(), nil
	default:
		return nil, fmt.Errorf("unknown archive driver %s", driver)
	}
}
