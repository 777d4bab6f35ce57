package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpServer "MediVision/api/http"
	"MediVision/internal/config"
	"MediVision/internal/initial"
	"MediVision/internal/modules/medical/application/service"
	"MediVision/internal/modules/medical/domain/repository"
	"MediVision/internal/modules/medical/infrastructure/chunking"
	"MediVision/internal/modules/medical/infrastructure/embedding"
	"MediVision/internal/modules/medical/infrastructure/llm"
	"MediVision/internal/modules/medical/infrastructure/mq/kafka"
	"MediVision/internal/modules/medical/infrastructure/persistence"
	"MediVision/internal/modules/medical/infrastructure/queue"
	"MediVision/internal/modules/medical/infrastructure/vectordb"
	medicalHandler "MediVision/internal/modules/medical/interface/http"
	"MediVision/pkg/zlog"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	conf, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	zlog.Init(conf.LogConfig.LogPath, conf.LogConfig.LogLevel)
	defer zlog.Sync()

	if err := conf.Validate(); err != nil {
		zlog.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Vector store.
	connectCtx, connectCancel := context.WithTimeout(ctx, time.Duration(conf.MilvusConfig.TimeoutSeconds)*time.Second)
	milvusCli, err := initial.NewMilvusClient(connectCtx, conf)
	connectCancel()
	if err != nil {
		zlog.Fatal("milvus connection failed", zap.Error(err))
	}
	defer milvusCli.Close()

	store, err := vectordb.NewMilvusStore(milvusCli)
	if err != nil {
		zlog.Fatal("milvus store init failed", zap.Error(err))
	}
	for _, col := range []struct {
		name string
		dim  int
	}{
		{conf.MilvusConfig.TextsCollection, conf.MilvusConfig.TextsDim},
		{conf.MilvusConfig.ImagesCollection, conf.MilvusConfig.ImagesDim},
		{conf.MilvusConfig.MemoryCollection, conf.MilvusConfig.MemoryDim},
	} {
		if err := store.EnsureCollection(ctx, col.name, col.dim); err != nil {
			zlog.Fatal("ensure collection failed", zap.String("collection", col.name), zap.Error(err))
		}
	}

	// Embedders and chat model.
	generalEmbedder, generalMeta, err := embedding.NewEmbedderFromConfig(ctx, conf.AIConfig.GeneralEmbedding, conf.MilvusConfig.MemoryDim)
	if err != nil {
		zlog.Fatal("general embedder init failed", zap.Error(err))
	}
	medicalEmbedder, medicalMeta, err := embedding.NewEmbedderFromConfig(ctx, conf.AIConfig.MedicalEmbedding, conf.MilvusConfig.TextsDim)
	if err != nil {
		zlog.Fatal("medical embedder init failed", zap.Error(err))
	}
	imageEmbedder, err := embedding.NewImageEmbedderFromConfig(conf.AIConfig.ImageEmbedding)
	if err != nil {
		zlog.Fatal("image embedder init failed", zap.Error(err))
	}
	zlog.Info("embedders ready",
		zap.String("general", generalMeta.Provider),
		zap.String("medical", medicalMeta.Provider),
		zap.Int("general_dim", generalMeta.Dim),
		zap.Int("medical_dim", medicalMeta.Dim))

	chatModel, chatMeta, err := llm.NewChatModelFromConfig(ctx, conf)
	if err != nil {
		zlog.Fatal("chat model init failed", zap.Error(err))
	}
	generator := llm.NewGenerator(chatModel, chatMeta)
	zlog.Info("chat model ready", zap.String("provider", chatMeta.Provider), zap.String("model", chatMeta.Model))

	// Optional async ingest stack: MySQL outbox plus Kafka relay/worker.
	db, err := initial.NewGormDB(conf)
	if err != nil {
		zlog.Fatal("mysql init failed", zap.Error(err))
	}
	memorySvc := service.NewMemoryService(store, generalEmbedder, conf.MilvusConfig.MemoryCollection)
	ragSvc := service.NewRagService(store, medicalEmbedder, imageEmbedder, generator, memorySvc,
		conf.MilvusConfig.TextsCollection, conf.MilvusConfig.ImagesCollection)

	chunker := chunking.NewRecursiveChunker(800, 80)

	ingestRepo := persistenceRepoOrNil(db)
	ingestSvc := service.NewIngestService(store, medicalEmbedder, imageEmbedder, chunker, ingestRepo,
		conf.MilvusConfig.TextsCollection, conf.MilvusConfig.ImagesCollection)

	if conf.KafkaConfig.Enabled {
		if ingestRepo == nil {
			zlog.Fatal("kafka ingest enabled but mysql is not configured")
		}
		if err := kafka.EnsureTopic(kafka.TopicAdminConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			ClientID: conf.KafkaConfig.ClientID,
		}, conf.KafkaConfig.IngestTopic, conf.KafkaConfig.Partitions, conf.KafkaConfig.Replication); err != nil {
			zlog.Fatal("ensure kafka topic failed", zap.Error(err))
		}

		pub, err := kafka.NewSaramaPublisher(kafka.PublisherConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			ClientID: conf.KafkaConfig.ClientID,
		})
		if err != nil {
			zlog.Fatal("kafka publisher init failed", zap.Error(err))
		}
		defer pub.Close()

		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			GroupID:  conf.KafkaConfig.ConsumerGroupID,
			Topics:   []string{conf.KafkaConfig.IngestTopic},
			ClientID: conf.KafkaConfig.ClientID,
		})
		if err != nil {
			zlog.Fatal("kafka consumer init failed", zap.Error(err))
		}
		defer consumer.Close()

		relay := queue.NewOutboxRelay(ingestRepo, pub, conf.KafkaConfig.IngestTopic, 100, 500*time.Millisecond)
		worker := queue.NewIngestConsumerWorker(consumer, ingestRepo, ingestSvc)

		go func() {
			if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
				zlog.Error("outbox relay stopped", zap.Error(err))
			}
		}()
		go func() {
			if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
				zlog.Error("ingest worker stopped", zap.Error(err))
			}
		}()
		zlog.Info("async ingest pipeline running", zap.String("topic", conf.KafkaConfig.IngestTopic))
	}

	medicalH := medicalHandler.NewMedicalHandler(ragSvc, memorySvc, store)
	adminH := medicalHandler.NewAdminHandler(ingestSvc, ragSvc, memorySvc, store, conf.JwtConfig)

	engine := httpServer.NewEngine(conf, medicalH, adminH)
	addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
	srv := &http.Server{Addr: addr, Handler: engine}

	go func() {
		zlog.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
	zlog.Info("server stopped")
}

// persistenceRepoOrNil returns the outbox repository when MySQL is
// configured, nil otherwise. A nil repository disables the async ingest path.
func persistenceRepoOrNil(db *gorm.DB) repository.IngestEventRepository {
	if db == nil {
		return nil
	}
	return persistence.NewIngestEventRepository(db)
}
