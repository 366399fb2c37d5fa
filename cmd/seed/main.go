// backend/cmd/seed/main.go
package main

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/hlardiez/chat-test/internal/config"
	"github.com/hlardiez/chat-test/internal/openai"
	"github.com/hlardiez/chat-test/internal/pinecone"
	"github.com/hlardiez/chat-test/internal/seeder"
	"github.com/hlardiez/chat-test/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Document is one source text before chunking
type Document struct {
	Source  string
	Content string
}

// ContentSeeder scrapes and reads source documents, chunks them and uploads
// embeddings to the vector index
type ContentSeeder struct {
	processor *seeder.ContentProcessor
	chunker   *seeder.Chunker
	embedder  *openai.Client
	index     *pinecone.Client
	dimension int
	logger    *logrus.Logger
	errors    []error
}

var (
	// Command line flags
	dryRun    = flag.Bool("dry-run", false, "Don't upload to the vector index, just print what would be uploaded")
	verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	docLimit  = flag.Int("limit", 0, "Limit number of documents to process (0 = all)")
	sourceDir = flag.String("dir", "", "Directory of .txt/.md files to seed")
	sourceURL = flag.String("urls", "", "Comma-separated list of URLs to scrape and seed")
	chunkSize = flag.Int("chunk-size", 1000, "Chunk size in characters")
	overlap   = flag.Int("overlap", 200, "Chunk overlap in characters")
	batchSize = flag.Int("batch", 100, "Vectors per upsert request")
	delay     = flag.Duration("delay", 2*time.Second, "Delay between scrape requests")
)

func main() {
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	// Initialize logger
	logger := utils.GetLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.Info("Starting knowledge base seeder...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if *sourceDir == "" && *sourceURL == "" {
		logger.Fatal("Nothing to seed: provide -dir and/or -urls")
	}

	var embedder *openai.Client
	var index *pinecone.Client
	dimension := 0

	if !*dryRun {
		if err := cfg.ValidateOpenAI(); err != nil {
			logger.WithError(err).Fatal("OpenAI configuration validation failed")
		}
		if err := cfg.ValidatePinecone(); err != nil {
			logger.WithError(err).Fatal("Pinecone configuration validation failed")
		}

		embedder = openai.NewClient(cfg.OpenAI, logger)
		index = pinecone.NewClient(cfg.Pinecone.Host, cfg.Pinecone.APIKey, cfg.Pinecone.IndexName, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		stats, err := index.DescribeIndexStats(ctx)
		cancel()
		if err != nil {
			logger.WithError(err).Fatal("Failed to describe vector index")
		}
		dimension = stats.Dimension
		logger.WithFields(logrus.Fields{
			"index":     cfg.Pinecone.IndexName,
			"dimension": dimension,
			"vectors":   stats.TotalVectorCount,
		}).Info("Vector index ready")
	}

	cs := &ContentSeeder{
		processor: seeder.NewContentProcessor(),
		chunker:   seeder.NewChunker(*chunkSize, *overlap),
		embedder:  embedder,
		index:     index,
		dimension: dimension,
		logger:    logger,
	}

	ctx := context.Background()
	if err := cs.SeedContent(ctx, cfg.Pinecone.Namespace); err != nil {
		logger.WithError(err).Fatal("Content seeding failed")
	}

	logger.Info("Content seeding completed successfully!")
}

func (cs *ContentSeeder) SeedContent(ctx context.Context, namespace string) error {
	documents, err := cs.collectDocuments()
	if err != nil {
		return err
	}

	if *docLimit > 0 && *docLimit < len(documents) {
		documents = documents[:*docLimit]
		cs.logger.WithField("limit", *docLimit).Info("Limited documents to process")
	}

	cs.logger.WithField("total_documents", len(documents)).Info("Processing documents")

	totalChunks := 0
	for i, doc := range documents {
		cs.logger.WithFields(logrus.Fields{
			"source":   doc.Source,
			"progress": fmt.Sprintf("%d/%d", i+1, len(documents)),
		}).Info("Processing document")

		chunks, err := cs.processDocument(ctx, doc, namespace)
		if err != nil {
			cs.logger.WithError(err).WithField("source", doc.Source).Error("Failed to process document")
			cs.errors = append(cs.errors, fmt.Errorf("failed to process %s: %w", doc.Source, err))
			continue
		}
		totalChunks += chunks
	}

	cs.logger.WithFields(logrus.Fields{
		"documents": len(documents),
		"chunks":    totalChunks,
		"errors":    len(cs.errors),
	}).Info("Content seeding completed")

	if len(cs.errors) > 0 {
		cs.logger.Warn("Some documents failed to process:")
		for _, err := range cs.errors {
			cs.logger.WithError(err).Warn("Processing error")
		}
	}

	return nil
}

func (cs *ContentSeeder) collectDocuments() ([]Document, error) {
	var documents []Document

	if *sourceDir != "" {
		fromDir, err := cs.readDirectory(*sourceDir)
		if err != nil {
			return nil, err
		}
		documents = append(documents, fromDir...)
	}

	if *sourceURL != "" {
		for _, rawURL := range strings.Split(*sourceURL, ",") {
			rawURL = strings.TrimSpace(rawURL)
			if rawURL == "" {
				continue
			}

			doc, err := cs.scrapePage(rawURL)
			if err != nil {
				cs.logger.WithError(err).WithField("url", rawURL).Error("Failed to scrape page")
				cs.errors = append(cs.errors, fmt.Errorf("failed to scrape %s: %w", rawURL, err))
				continue
			}
			documents = append(documents, doc)
		}
	}

	return documents, nil
}

func (cs *ContentSeeder) readDirectory(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	var documents []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			cs.logger.WithError(err).WithField("file", path).Error("Failed to read file")
			cs.errors = append(cs.errors, fmt.Errorf("failed to read %s: %w", path, err))
			continue
		}

		documents = append(documents, Document{
			Source:  path,
			Content: string(content),
		})
	}

	return documents, nil
}

func (cs *ContentSeeder) scrapePage(pageURL string) (Document, error) {
	var content string
	var scrapeErr error

	c := colly.NewCollector(
		colly.UserAgent("chat-test-seeder/1.0"),
	)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       *delay,
	})
	c.SetRequestTimeout(30 * time.Second)

	c.OnHTML("body", func(e *colly.HTMLElement) {
		// Strip navigation chrome before taking the text
		e.DOM.Find("script, style, nav, header, footer, aside").Remove()
		content = strings.TrimSpace(e.DOM.Text())
	})

	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = err
	})

	if err := c.Visit(pageURL); err != nil {
		return Document{}, fmt.Errorf("failed to visit page: %w", err)
	}
	if scrapeErr != nil {
		return Document{}, fmt.Errorf("scrape error: %w", scrapeErr)
	}
	if content == "" {
		return Document{}, fmt.Errorf("no content extracted from page")
	}

	return Document{Source: pageURL, Content: content}, nil
}

func (cs *ContentSeeder) processDocument(ctx context.Context, doc Document, namespace string) (int, error) {
	cleaned := cs.processor.CleanContent(doc.Content)
	chunks := cs.chunker.Chunk(cleaned)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document produced no chunks")
	}

	if *dryRun {
		cs.logger.WithFields(logrus.Fields{
			"source":         doc.Source,
			"content_length": len(cleaned),
			"chunks":         len(chunks),
		}).Info("DRY RUN: Would upload chunks")
		return len(chunks), nil
	}

	sourceID := contentHash(doc.Source)

	for start := 0; start < len(chunks); start += *batchSize {
		end := start + *batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		embeddings, err := cs.embedder.EmbedDocuments(ctx, batch, cs.dimension)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunks: %w", err)
		}

		vectors := make([]pinecone.Vector, len(batch))
		for i, chunk := range batch {
			vectors[i] = pinecone.Vector{
				ID:     fmt.Sprintf("%s#%d", sourceID, start+i),
				Values: embeddings[i],
				Metadata: map[string]interface{}{
					"text":   chunk,
					"source": doc.Source,
				},
			}
		}

		resp, err := cs.index.UpsertWithRetry(ctx, pinecone.UpsertRequest{
			Vectors:   vectors,
			Namespace: namespace,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to upsert vectors: %w", err)
		}

		cs.logger.WithFields(logrus.Fields{
			"source":   doc.Source,
			"upserted": resp.UpsertedCount,
			"progress": fmt.Sprintf("%d/%d", end, len(chunks)),
		}).Debug("Chunk upload progress")
	}

	return len(chunks), nil
}

func contentHash(s string) string {
	hash := md5.Sum([]byte(s))
	return hex.EncodeToString(hash[:])
}
