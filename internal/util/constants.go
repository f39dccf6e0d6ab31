package util

const (
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeZip = "application/zip"
	MimePDF = "application/pdf"
	MimeCSV = "text/csv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MaxShapefileSize limits uploaded shapefile archives.
const MaxShapefileSize = 20 << 20
