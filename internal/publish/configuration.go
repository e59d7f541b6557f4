package publish

const (
	// TargetDirectory copies runs into a production directory.
	TargetDirectory = "directory"
	// TargetObjectStore uploads runs into an S3-compatible bucket.
	TargetObjectStore = "object_store"
)

// ObjectStoreConfiguration describes the destination bucket.
type ObjectStoreConfiguration struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Configuration selects the publication target.
type Configuration struct {
	Target      string                   `mapstructure:"target" validate:"omitempty,oneof=directory object_store"`
	Directory   string                   `mapstructure:"directory"`
	ObjectStore ObjectStoreConfiguration `mapstructure:"object_store"`
}
