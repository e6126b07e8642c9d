package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"labelme/api"
	"labelme/images"
)

func ParseArgs() Args {
	// .env 不存在時只使用環境變數
	_ = godotenv.Load()

	hostname, _ := os.Hostname()

	// server config
	pflag.String("http-addr", "0.0.0.0:8080", "HTTP listen address")
	pflag.Duration("http-read-header-timeout", 10*time.Second, "")
	pflag.Duration("http-idle-timeout", 120*time.Second, "")
	pflag.Duration("http-shutdown-timeout", 15*time.Second, "")
	pflag.String("log-level", "info", "debug, info, warn or error")

	// aws config
	pflag.String("aws-region", "us-east-1", "")
	pflag.String("aws-endpoint", "", "custom endpoint for every AWS client, e.g. LocalStack")
	pflag.String("aws-access-key-id", "", "")
	pflag.String("aws-secret-access-key", "", "")

	// s3 config
	pflag.String("s3-bucket", "", "")
	pflag.String("s3-endpoint", "", "")
	pflag.Bool("s3-use-path-style", false, "")

	// metadata config
	pflag.String("metadata-backend", api.MetadataBackendDynamoDB, "dynamodb, postgres or sqlite")
	pflag.String("metadata-table", "labelme-images", "DynamoDB table name")
	pflag.String("metadata-dsn", "", "postgres DSN or sqlite file path")
	pflag.String("metadata-schema", "", "postgres schema")
	pflag.Bool("metadata-auto-migrate", false, "create the table when it does not exist")

	// cognito config
	pflag.String("cognito-user-pool-id", "", "")
	pflag.String("cognito-client-id", "", "")
	pflag.String("cognito-client-secret", "", "")

	// auth config
	pflag.String("auth-mode", api.AuthModeCognito, "cognito or hmac")
	pflag.String("auth-hmac-secret", "", "")
	pflag.String("auth-hmac-issuer", "labelme", "")
	pflag.String("object-events-token", "", "shared secret of the object event webhook, empty disables it")

	// redis config
	pflag.String("redis-addr", "", "comma separated addresses, empty disables the stream worker")
	pflag.String("redis-password", "", "")
	pflag.Int("redis-db", 0, "")
	pflag.String("redis-consumer-id", hostname, "")
	pflag.String("redis-consumer-group", "labelme-ingest", "")

	// redis stream keys
	pflag.String("redis-stream-key-for-object-events", "labelme-object-events", "")
	pflag.String("redis-stream-key-for-gallery-events", "labelme-gallery-events", "")

	// uploads config
	pflag.Duration("upload-url-ttl", images.DefaultUploadURLTTL, "")
	pflag.Duration("bulk-upload-url-ttl", images.DefaultBulkUploadURLTTL, "")
	pflag.Duration("download-url-ttl", images.DefaultDownloadURLTTL, "")
	pflag.String("direct-upload-max-size", "5MiB", "")
	pflag.Int("fan-out-limit", images.DefaultFanOutLimit, "")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("LABELME")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// initial arguments
	return Args{
		LogLevel:            viper.GetString("log-level"),
		DirectUploadMaxSize: viper.GetString("direct-upload-max-size"),
		ServerConfig: api.ServerConfig{
			HTTP: api.HTTPConfig{
				Addr:              viper.GetString("http-addr"),
				ReadHeaderTimeout: viper.GetDuration("http-read-header-timeout"),
				IdleTimeout:       viper.GetDuration("http-idle-timeout"),
				ShutdownTimeout:   viper.GetDuration("http-shutdown-timeout"),
			},
			AWS: api.AWSConfig{
				Region:          viper.GetString("aws-region"),
				Endpoint:        viper.GetString("aws-endpoint"),
				AccessKeyID:     viper.GetString("aws-access-key-id"),
				SecretAccessKey: viper.GetString("aws-secret-access-key"),
			},
			S3: api.S3Config{
				Bucket:       viper.GetString("s3-bucket"),
				Endpoint:     viper.GetString("s3-endpoint"),
				UsePathStyle: viper.GetBool("s3-use-path-style"),
			},
			Metadata: api.MetadataConfig{
				Backend:     viper.GetString("metadata-backend"),
				Table:       viper.GetString("metadata-table"),
				DSN:         viper.GetString("metadata-dsn"),
				Schema:      viper.GetString("metadata-schema"),
				AutoMigrate: viper.GetBool("metadata-auto-migrate"),
			},
			Cognito: api.CognitoConfig{
				UserPoolID:   viper.GetString("cognito-user-pool-id"),
				ClientID:     viper.GetString("cognito-client-id"),
				ClientSecret: viper.GetString("cognito-client-secret"),
			},
			Auth: api.AuthConfig{
				Mode:              viper.GetString("auth-mode"),
				HMACSecret:        viper.GetString("auth-hmac-secret"),
				HMACIssuer:        viper.GetString("auth-hmac-issuer"),
				ObjectEventsToken: viper.GetString("object-events-token"),
			},
			Redis: api.RedisConfig{
				Addr:          viper.GetString("redis-addr"),
				Password:      viper.GetString("redis-password"),
				DB:            viper.GetInt("redis-db"),
				ConsumerID:    viper.GetString("redis-consumer-id"),
				ConsumerGroup: viper.GetString("redis-consumer-group"),
				StreamKeys: api.RedisStreamKeys{
					ObjectEvents:  viper.GetString("redis-stream-key-for-object-events"),
					GalleryEvents: viper.GetString("redis-stream-key-for-gallery-events"),
				},
			},
			Uploads: api.UploadsConfig{
				UploadURLTTL:     viper.GetDuration("upload-url-ttl"),
				BulkUploadURLTTL: viper.GetDuration("bulk-upload-url-ttl"),
				DownloadURLTTL:   viper.GetDuration("download-url-ttl"),
				FanOutLimit:      viper.GetInt("fan-out-limit"),
			},
		},
	}
}

type Args struct {
	LogLevel string
	// DirectUploadMaxSize 是人類可讀的大小，例如 5MiB，由 Validate 轉換
	DirectUploadMaxSize string
	ServerConfig        api.ServerConfig
}

// Validate 檢查必要的設定，並填入需要轉換的欄位
func (args *Args) Validate() error {
	var errs []error
	config := &args.ServerConfig

	if config.HTTP.Addr == "" {
		errs = append(errs, errors.New("http-addr is required"))
	}
	if config.S3.Bucket == "" {
		errs = append(errs, errors.New("s3-bucket is required"))
	}
	if config.AWS.Region == "" {
		errs = append(errs, errors.New("aws-region is required"))
	}

	switch config.Metadata.Backend {
	case api.MetadataBackendDynamoDB:
		if config.Metadata.Table == "" {
			errs = append(errs, errors.New("metadata-table is required for dynamodb"))
		}
	case api.MetadataBackendPostgres, api.MetadataBackendSQLite:
		if config.Metadata.DSN == "" {
			errs = append(errs, fmt.Errorf("metadata-dsn is required for %s", config.Metadata.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported metadata-backend %q", config.Metadata.Backend))
	}

	if config.Cognito.ClientID == "" {
		errs = append(errs, errors.New("cognito-client-id is required"))
	}
	switch config.Auth.Mode {
	case api.AuthModeCognito:
		if config.Cognito.UserPoolID == "" {
			errs = append(errs, errors.New("cognito-user-pool-id is required for cognito auth"))
		}
	case api.AuthModeHMAC:
		if len(config.Auth.HMACSecret) < 16 {
			errs = append(errs, errors.New("auth-hmac-secret must be at least 16 bytes"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported auth-mode %q", config.Auth.Mode))
	}

	if config.Redis.Addr != "" && (config.Redis.ConsumerID == "" || config.Redis.ConsumerGroup == "") {
		errs = append(errs, errors.New("redis-consumer-id and redis-consumer-group are required with redis-addr"))
	}

	maxBytes, err := humanize.ParseBytes(args.DirectUploadMaxSize)
	if err != nil || maxBytes == 0 {
		errs = append(errs, fmt.Errorf("invalid direct-upload-max-size %q", args.DirectUploadMaxSize))
	} else {
		config.Uploads.DirectUploadMaxBytes = int64(maxBytes)
	}

	return errors.Join(errs...)
}
