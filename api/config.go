package api

import "time"

type ServerConfig struct {
	HTTP     HTTPConfig
	AWS      AWSConfig
	S3       S3Config
	Metadata MetadataConfig
	Cognito  CognitoConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Uploads  UploadsConfig
}

type HTTPConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// AWSConfig 是所有 AWS client 共用的設定，Endpoint 用於 LocalStack 之類的模擬環境
type AWSConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type S3Config struct {
	Bucket       string
	Endpoint     string
	UsePathStyle bool
}

const (
	MetadataBackendDynamoDB = "dynamodb"
	MetadataBackendPostgres = "postgres"
	MetadataBackendSQLite   = "sqlite"
)

type MetadataConfig struct {
	Backend     string
	Table       string
	DSN         string
	Schema      string
	AutoMigrate bool
}

type CognitoConfig struct {
	UserPoolID   string
	ClientID     string
	ClientSecret string
}

const (
	AuthModeCognito = "cognito"
	AuthModeHMAC    = "hmac"
)

type AuthConfig struct {
	Mode       string
	HMACSecret string
	HMACIssuer string
	// ObjectEventsToken 是物件事件 webhook 的共用密鑰，空字串代表停用
	ObjectEventsToken string
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	ConsumerID string

	ConsumerGroup string
	StreamKeys    RedisStreamKeys
}

type RedisStreamKeys struct {
	ObjectEvents  string
	GalleryEvents string
}

type UploadsConfig struct {
	UploadURLTTL         time.Duration
	BulkUploadURLTTL     time.Duration
	DownloadURLTTL       time.Duration
	DirectUploadMaxBytes int64
	FanOutLimit          int
}
