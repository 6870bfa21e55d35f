package main

import (
	"context"
	"os"
	"strconv"

	"bookpulse/internal/api"
	"bookpulse/internal/backends"
	"bookpulse/internal/cache"
	"bookpulse/internal/ports"
	"bookpulse/internal/pub"
	"bookpulse/internal/search"
	"bookpulse/internal/stream"
	"bookpulse/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Info("The .env file not found.")
	}

	cfg, err := types.LoadServerConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if p := os.Getenv("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			log.Fatalf("Invalid PORT: %v", err)
		}
		cfg.Port = port
	}
	if arn := os.Getenv("OFFLINE_SNS_ARN"); arn != "" {
		cfg.OfflineSNSArn = arn
	}
	if m := os.Getenv("CACHE_MAX_ENTRIES"); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil {
			log.Fatalf("Invalid CACHE_MAX_ENTRIES: %v", err)
		}
		cfg.CacheMaxEntries = n
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx := context.Background()

	// Initialize backend stores
	msgStore, err := backends.MessageBackendFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize message store: %v", err)
	}
	listingStore, err := backends.ListingBackendFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize listing store: %v", err)
	}

	var publisher ports.Publisher
	if cfg.OfflineSNSArn != "" {
		publisher = pub.NewSNS(snsClientFromEnv(ctx))
	}

	searchCache := cache.NewBounded[[]types.Listing](cache.TTLSearchResults, cfg.CacheMaxEntries)
	go searchCache.Janitor(ctx, cfg.CleanupInterval)

	h := api.NewHandler(
		stream.NewRegistry(),
		msgStore,
		search.NewService(listingStore, searchCache),
		publisher,
		cfg,
	)
	api.RunServer(cfg.Port, h)
}

// snsClientFromEnv builds the SNS client, pointing at SNS_ENDPOINT when set
// (local testing).
func snsClientFromEnv(ctx context.Context) *sns.Client {
	var snsEndpoint *string
	if se := os.Getenv("SNS_ENDPOINT"); se != "" {
		snsEndpoint = aws.String(se)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	return sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if snsEndpoint != nil {
			o.BaseEndpoint = snsEndpoint
			if o.Region == "" {
				o.Region = "us-east-1"
			}
			credProvider := credentials.NewStaticCredentialsProvider("test", "test", "")
			o.Credentials = credProvider
		}
	})
}
