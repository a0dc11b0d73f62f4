package main

const (
	defaultAPIPort             = 3000
	defaultBindHost            = "127.0.0.1"
	defaultSimilarityThreshold = 0.4
	defaultTreeDepth           = 4
	defaultMaxChildren         = 100
	defaultMaxClusters         = 1024
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	SnapshotPath string `mapstructure:"snapshot-path"`
	CacheDir     string `mapstructure:"cache-dir"`
	MaskRules    string `mapstructure:"mask-rules"`

	WorkspaceURL   string `mapstructure:"workspace-url"`
	S3Endpoint     string `mapstructure:"s3-endpoint"`
	S3Region       string `mapstructure:"s3-region"`
	S3AccessKey    string `mapstructure:"s3-access-key"`
	S3SecretKey    string `mapstructure:"s3-secret-key"`
	S3SessionToken string `mapstructure:"s3-session-token"`
	S3UseSSL       bool   `mapstructure:"s3-use-ssl"`

	APIAddr string `mapstructure:"api-addr"`
	APIPort int    `mapstructure:"api-port"`

	SimilarityThreshold float64 `mapstructure:"similarity-threshold"`
	TreeDepth           int     `mapstructure:"tree-depth"`
	MaxChildren         int     `mapstructure:"max-children"`
	MaxClusters         int     `mapstructure:"max-clusters"`

	ConfigPath string `mapstructure:"-"` // not from config file
}
