package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	awsDynamoDB "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"labelme/adapters/cognito"
	"labelme/adapters/dynamodb"
	"labelme/adapters/gormstore"
	"labelme/adapters/oidc"
	redisAdapter "labelme/adapters/redis"
	internalS3 "labelme/adapters/s3"
	"labelme/adapters/sse"
	"labelme/images"
	"labelme/models"
)

// galleryChannel 是圖片清單即時事件使用的 SSE 頻道
const galleryChannel = "gallery"

// Dependencies 是伺服器依賴的外部服務，NewServer 依設定建立，測試時可以直接注入
type Dependencies struct {
	Objects     images.IObjectStore
	Metadata    images.IMetadataStore
	Credentials ICredentialService
	Verifier    ITokenVerifier
	// Redis 為 nil 時，物件事件會同步處理，即時事件只在本機廣播
	Redis redis.UniversalClient
	// Closers 會在 Close 時依序呼叫
	Closers []func() error
}

type ServerImpl struct {
	config ServerConfig
	logger *slog.Logger
	deps   Dependencies

	coordinator *images.Coordinator
	ingestor    *images.Ingestor
	gallery     *images.Gallery
	editor      *images.Editor
	hub         sse.IHub[models.GalleryEvent]

	producer      redisAdapter.IProducer[images.ObjectEventBatch]
	groupConsumer redisAdapter.IGroupConsumer[images.ObjectEventBatch]
	// newIngestBackOff 決定 worker 重試一則消息的間隔與次數，用完才移到 dead-letter
	newIngestBackOff func() backoff.BackOff

	wg         sync.WaitGroup
	cancelFunc context.CancelFunc
}

// NewServer 依設定建立所有外部服務的 client 並組裝伺服器
func NewServer(ctx context.Context, config ServerConfig) (*ServerImpl, error) {
	const op = "NewServer"

	// 初始化AWS設定，S3、DynamoDB、Cognito 共用
	awsConfig, err := loadAWSConfig(ctx, config.AWS)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to load AWS config, err=%w", op, err)
	}

	// 初始化S3客戶端
	s3Client := awsS3.NewFromConfig(awsConfig, func(o *awsS3.Options) {
		if config.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.S3.Endpoint)
		}
		o.UsePathStyle = config.S3.UsePathStyle
	})
	objects, err := internalS3.NewS3Operator(s3Client, config.S3.Bucket)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create S3 operator, err=%w", op, err)
	}

	// 初始化metadata存儲
	metadata, closers, err := openMetadataStore(ctx, config.Metadata, awsConfig)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to open metadata store, err=%w", op, err)
	}

	// 初始化Cognito
	credentialOpts := []cognito.Option{cognito.WithLogger(slog.Default())}
	if config.Cognito.ClientSecret != "" {
		credentialOpts = append(credentialOpts, cognito.WithClientSecret(config.Cognito.ClientSecret))
	}
	credentialService, err := cognito.NewCredentialService(cip.NewFromConfig(awsConfig), config.Cognito.ClientID, credentialOpts...)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create credential service, err=%w", op, err)
	}

	// 初始化token驗證器
	var verifier ITokenVerifier
	switch config.Auth.Mode {
	case AuthModeHMAC:
		verifier, err = oidc.NewHMACVerifier(config.Auth.HMACSecret, config.Auth.HMACIssuer)
	default:
		verifier, err = oidc.NewCognitoVerifier(ctx, oidc.CognitoIssuer(config.AWS.Region, config.Cognito.UserPoolID), config.Cognito.ClientID)
	}
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create token verifier, err=%w", op, err)
	}

	// 初始化Redis連線
	var redisClient redis.UniversalClient
	if config.Redis.Addr != "" {
		redisClient = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    strings.Split(config.Redis.Addr, ","),
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		closers = append(closers, redisClient.Close)
	}

	return NewServerWithDependencies(config, Dependencies{
		Objects:     objects,
		Metadata:    metadata,
		Credentials: credentialService,
		Verifier:    verifier,
		Redis:       redisClient,
		Closers:     closers,
	})
}

func loadAWSConfig(ctx context.Context, config AWSConfig) (aws.Config, error) {
	opts := []func(*awsCfg.LoadOptions) error{awsCfg.WithRegion(config.Region)}
	if config.Endpoint != "" {
		opts = append(opts, awsCfg.WithBaseEndpoint(config.Endpoint))
	}
	if config.AccessKeyID != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}
	return awsCfg.LoadDefaultConfig(ctx, opts...)
}

func openMetadataStore(ctx context.Context, config MetadataConfig, awsConfig aws.Config) (images.IMetadataStore, []func() error, error) {
	const op = "openMetadataStore"
	switch config.Backend {
	case MetadataBackendPostgres, MetadataBackendSQLite:
		db, err := gormstore.Open(gormstore.Config{Driver: config.Backend, DSN: config.DSN, Schema: config.Schema})
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("[%s] Fail to get sql.DB, err=%w", op, err)
		}
		store, err := gormstore.NewImageStore(db)
		if err != nil {
			return nil, nil, err
		}
		if config.AutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				return nil, nil, err
			}
		}
		return store, []func() error{sqlDB.Close}, nil
	case MetadataBackendDynamoDB, "":
		store, err := dynamodb.NewImageStore(awsDynamoDB.NewFromConfig(awsConfig), config.Table, dynamodb.WithLogger(slog.Default()))
		if err != nil {
			return nil, nil, err
		}
		if config.AutoMigrate {
			if err := store.EnsureTable(ctx); err != nil {
				return nil, nil, err
			}
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("[%s] unsupported metadata backend %q", op, config.Backend)
	}
}

// NewServerWithDependencies 以現成的依賴組裝伺服器
func NewServerWithDependencies(config ServerConfig, deps Dependencies) (*ServerImpl, error) {
	const op = "NewServerWithDependencies"
	if deps.Objects == nil || deps.Metadata == nil || deps.Credentials == nil || deps.Verifier == nil {
		return nil, fmt.Errorf("[%s] objects, metadata, credentials and verifier are required", op)
	}

	impl := &ServerImpl{
		config:           config,
		logger:           slog.Default().With(slog.String("caller", "ServerImpl")),
		deps:             deps,
		newIngestBackOff: defaultIngestBackOff,
	}

	// 初始化SSE，有Redis時透過stream轉送給所有實例
	hubOpts := []sse.HubOption[models.GalleryEvent]{sse.WithHubLogger[models.GalleryEvent](slog.Default())}
	if deps.Redis != nil {
		relayProducer, err := redisAdapter.NewProducer[sse.PublishRequest[models.GalleryEvent]](
			deps.Redis,
			config.Redis.StreamKeys.GalleryEvents,
			redisAdapter.WithProducerLogger[sse.PublishRequest[models.GalleryEvent]](slog.Default()),
			redisAdapter.WithProducerMaxLen[sse.PublishRequest[models.GalleryEvent]](10000),
		)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create gallery event producer, err=%w", op, err)
		}
		relayConsumer, err := redisAdapter.NewConsumer[sse.PublishRequest[models.GalleryEvent]](
			deps.Redis,
			config.Redis.StreamKeys.GalleryEvents,
			redisAdapter.WithConsumerLogger[sse.PublishRequest[models.GalleryEvent]](slog.Default()),
		)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create gallery event consumer, err=%w", op, err)
		}
		hubOpts = append(hubOpts, sse.WithHubRelay[models.GalleryEvent](relayProducer, relayConsumer))
	}
	impl.hub = sse.NewHub(hubOpts...)

	domainOpts := []images.Option{
		images.WithLogger(slog.Default()),
		images.WithNotifier(&hubNotifier{hub: impl.hub, logger: impl.logger}),
	}
	if ttl := config.Uploads.UploadURLTTL; ttl > 0 {
		domainOpts = append(domainOpts, images.WithUploadURLTTL(ttl))
	}
	if ttl := config.Uploads.BulkUploadURLTTL; ttl > 0 {
		domainOpts = append(domainOpts, images.WithBulkUploadURLTTL(ttl))
	}
	if ttl := config.Uploads.DownloadURLTTL; ttl > 0 {
		domainOpts = append(domainOpts, images.WithDownloadURLTTL(ttl))
	}
	if limit := config.Uploads.FanOutLimit; limit > 0 {
		domainOpts = append(domainOpts, images.WithFanOutLimit(limit))
	}
	impl.coordinator = images.NewCoordinator(deps.Objects, deps.Metadata, domainOpts...)
	impl.ingestor = images.NewIngestor(deps.Objects, deps.Metadata, domainOpts...)
	impl.gallery = images.NewGallery(deps.Objects, deps.Metadata, domainOpts...)
	impl.editor = images.NewEditor(deps.Objects, deps.Metadata, domainOpts...)

	// 初始化物件事件的producer與group consumer
	if deps.Redis != nil {
		producer, err := redisAdapter.NewProducer[images.ObjectEventBatch](
			deps.Redis,
			config.Redis.StreamKeys.ObjectEvents,
			redisAdapter.WithProducerLogger[images.ObjectEventBatch](slog.Default()),
		)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create object event producer, err=%w", op, err)
		}
		groupConsumer, err := redisAdapter.NewGroupConsumer[images.ObjectEventBatch](
			deps.Redis,
			config.Redis.StreamKeys.ObjectEvents,
			config.Redis.ConsumerGroup,
			config.Redis.ConsumerID,
			redisAdapter.WithGroupConsumerLogger[images.ObjectEventBatch](slog.Default()),
			redisAdapter.WithGroupConsumerStrictOrdering[images.ObjectEventBatch](true),
		)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create group consumer, err=%w", op, err)
		}
		impl.producer = producer
		impl.groupConsumer = groupConsumer
	}

	return impl, nil
}

// Start 啟動背景工作：SSE轉送以及物件事件的ingestion worker
func (impl *ServerImpl) Start() error {
	const op = "Start"
	impl.hub.Start()
	ctx, cancel := context.WithCancel(context.Background())
	impl.cancelFunc = cancel

	if impl.groupConsumer == nil {
		return nil
	}
	impl.producer.Start()
	if err := impl.groupConsumer.Start(); err != nil {
		return fmt.Errorf("[%s] Fail to start group consumer, err=%w", op, err)
	}

	impl.logger.Info("Start object event ingestion worker")
	impl.wg.Add(1)
	go func() {
		defer impl.wg.Done()
		defer impl.logger.Info("Object event ingestion worker stopped")
		impl.ingestLoop(ctx)
	}()
	return nil
}

func defaultIngestBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, 5)
}

func (impl *ServerImpl) ingestLoop(ctx context.Context) {
	logger := impl.logger.With(slog.String("worker", "ObjectEventIngestion"))
	for msg := range impl.groupConsumer.Subscribe() {
		report, err := impl.ingestWithRetry(ctx, msg.Data.Events)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				// 關閉中，消息留在pending等待下次處理
				return
			}
			logger.Error("Fail to ingest object events", slog.String("messageId", msg.ID()), slog.Any("error", err))
			if failErr := msg.Fail(ctx, err); failErr != nil {
				logger.Error("Fail to move message to dead letter", slog.String("messageId", msg.ID()), slog.Any("error", failErr))
			}
			continue
		}
		if err := msg.Done(ctx); err != nil {
			logger.Error("Fail to ack message", slog.String("messageId", msg.ID()), slog.Any("error", err))
			continue
		}
		logger.Debug("Object events ingested",
			slog.String("messageId", msg.ID()),
			slog.Int("ingested", len(report.Ingested)),
			slog.Int("skipped", len(report.Skipped)),
		)
	}
}

// ingestWithRetry 重複執行整批 ingestion 直到成功或重試次數用完。
// 紀錄以最後一次寫入為準，重跑已寫入的組別不影響結果。
func (impl *ServerImpl) ingestWithRetry(ctx context.Context, batch []images.ObjectEvent) (*images.IngestReport, error) {
	var report *images.IngestReport
	operation := func() error {
		var err error
		report, err = impl.ingestor.Ingest(ctx, batch)
		if errors.Is(err, context.Canceled) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		impl.logger.Warn("Retry object event ingestion", slog.Duration("wait", wait), slog.Any("error", err))
	}
	err := backoff.RetryNotify(operation, backoff.WithContext(impl.newIngestBackOff(), ctx), notify)
	return report, err
}

// CloseEvents 結束所有 SSE 訂閱，讓進行中的串流回應可以返回。
// 應在 http.Server.Shutdown 時呼叫，否則串流會拖住關機直到逾時。
func (impl *ServerImpl) CloseEvents() {
	impl.hub.Close()
}

// Close 停止背景工作並釋放連線
func (impl *ServerImpl) Close() {
	if impl.groupConsumer != nil {
		// 關閉group consumer，worker會在channel關閉後結束
		impl.groupConsumer.Close()
		impl.producer.Close()
	}
	if impl.cancelFunc != nil {
		impl.cancelFunc()
	}
	impl.wg.Wait()
	impl.hub.Close()
	for _, closer := range impl.deps.Closers {
		if err := closer(); err != nil {
			impl.logger.Warn("Fail to close resource", slog.Any("error", err))
		}
	}
}

// hubNotifier 把圖片異動送到SSE頻道
type hubNotifier struct {
	hub    sse.IHub[models.GalleryEvent]
	logger *slog.Logger
}

func (n *hubNotifier) Notify(_ context.Context, event models.GalleryEvent) {
	if err := n.hub.Publish(galleryChannel, event); err != nil {
		n.logger.Warn("Fail to publish gallery event",
			slog.String("type", string(event.Type)),
			slog.String("id", event.ID),
			slog.Any("error", err),
		)
	}
}
