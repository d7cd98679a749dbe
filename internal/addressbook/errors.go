package addressbook

import "codeberg.org/mutker/perfscope/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("addressbook_invalid_db_path")
	ErrInvalidLimit  = errors.ErrorCode("addressbook_invalid_limit")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("addressbook_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("addressbook_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("addressbook_schema_migration_failed")
	ErrTransactionFailed      = errors.ErrorCode("addressbook_transaction_failed")

	// Storage Errors
	ErrStorageAccess = errors.ErrorCode("addressbook_storage_access_failed")
	ErrStorageInit   = errors.ErrInitFailed
	ErrStorageClose  = errors.ErrShutdownFailed

	// Entry Errors
	ErrEntryNotFound = errors.ErrorCode("addressbook_entry_not_found")
	ErrInvalidAddr   = errors.ErrInvalidAddr
)
