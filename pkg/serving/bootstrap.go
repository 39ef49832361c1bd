package serving

import (
	"context"
	"fmt"
	"strings"

	"github.com/synaptica-ai/cardiorisk/pkg/advice"
	"github.com/synaptica-ai/cardiorisk/pkg/common/config"
	"github.com/synaptica-ai/cardiorisk/pkg/common/database"
	"github.com/synaptica-ai/cardiorisk/pkg/common/kafka"
	"github.com/synaptica-ai/cardiorisk/pkg/common/logger"
	"github.com/synaptica-ai/cardiorisk/pkg/serving/predictor"
	"github.com/synaptica-ai/cardiorisk/pkg/storage"
)

// ArtifactRouter builds the artifact source for cfg. The S3 client is only
// created when an artifact lives in S3.
func ArtifactRouter(ctx context.Context, cfg *config.Config) (storage.Router, error) {
	router := storage.Router{Files: storage.FileSource{Dir: cfg.ArtifactDir}}
	for _, uri := range []string{cfg.ModelURI, cfg.ScalerURI, cfg.FeatureLayoutFile} {
		if !strings.HasPrefix(uri, "s3://") {
			continue
		}
		client, err := storage.NewS3Client(ctx, cfg.S3Endpoint)
		if err != nil {
			return router, fmt.Errorf("creating s3 client: %w", err)
		}
		router.S3 = storage.NewS3Source(client)
		break
	}
	return router, nil
}

// Bootstrap loads the artifacts and connects the optional side channels
// named in cfg. The returned cleanup closes what was opened.
func Bootstrap(ctx context.Context, cfg *config.Config, source string) (*Service, func(), error) {
	router, err := ArtifactRouter(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	model, err := predictor.Load(ctx, router, predictor.Options{
		ModelURI:  cfg.ModelURI,
		ScalerURI: cfg.ScalerURI,
		Layout:    cfg.FeatureLayout,
		LayoutURI: cfg.FeatureLayoutFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("loading predictor: %w", err)
	}

	adviceCfg, err := advice.LoadConfig(cfg.AdviceConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading advice config: %w", err)
	}

	var closers []func() error
	opts := Options{CacheTTL: cfg.AssessmentCacheTTL, Source: source}

	if cfg.AssessmentCacheTTL > 0 {
		opts.Cache = NewRedisCache(database.GetRedis(cfg))
		closers = append(closers, database.CloseRedis)
	}

	if cfg.PersistAssessments {
		db, err := database.GetPostgres(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		repo := NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			return nil, nil, fmt.Errorf("migrating assessment log: %w", err)
		}
		opts.Recorder = repo
		closers = append(closers, database.ClosePostgres)
	}

	if cfg.PublishAssessments {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.AssessmentTopic)
		opts.Publisher = producer
		closers = append(closers, producer.Close)
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Log.WithError(err).Warn("cleanup failed")
			}
		}
	}

	return NewService(model, advice.NewAdvisor(adviceCfg), opts), cleanup, nil
}
