//go:build generate

// Package mocks provides gomock implementations of the cloud API seams.
package mocks

//go:generate mockgen -destination=./mock_datatransfer_api.go -package=mocks -mock_names=API=MockDataTransferAPI github.com/markuphq/markup/internal/gcp/datatransfer API
//go:generate mockgen -destination=./mock_serviceusage_api.go -package=mocks -mock_names=API=MockServiceUsageAPI github.com/markuphq/markup/internal/gcp/serviceusage API
//go:generate mockgen -destination=./mock_composer_api.go -package=mocks -mock_names=API=MockComposerAPI github.com/markuphq/markup/internal/gcp/composer API
//go:generate mockgen -destination=./mock_bigquery_api.go -package=mocks -mock_names=API=MockBigQueryAPI github.com/markuphq/markup/internal/gcp/bigquery API
//go:generate mockgen -destination=./mock_storage_api.go -package=mocks -mock_names=API=MockStorageAPI github.com/markuphq/markup/internal/gcp/storage API
//go:generate mockgen -destination=./mock_notify_client.go -package=mocks -mock_names=Client=MockNotifyClient github.com/markuphq/markup/internal/notify Client
