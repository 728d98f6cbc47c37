package kvdb

const (
	// RequestsBucket maps build request ids to progress percentages.
	RequestsBucket = "requests"
	// AssetsBucket maps a source asset URL to its AssetMetadata.
	AssetsBucket = "assets"
	// MetaBucket holds single values about the most recent build.
	MetaBucket = "meta"

	KeyLastBuildID    = "last_build_id"
	KeyLastBuildCount = "last_build_count"
)

func AllBuckets() []string {
	return []string{RequestsBucket, AssetsBucket, MetaBucket}
}

type DB interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
	GetAllKeys(bucket string) ([]string, error)
	Close() error
}
