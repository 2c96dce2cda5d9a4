package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/niksmo/catalog/config"
	"github.com/niksmo/catalog/internal/adapter"
	"github.com/niksmo/catalog/internal/adapter/kafka"
	"github.com/niksmo/catalog/internal/adapter/source"
	"github.com/niksmo/catalog/internal/adapter/storage"
	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
	"github.com/niksmo/catalog/pkg/schema"
	"github.com/niksmo/catalog/pkg/sigctx"
	"github.com/spf13/pflag"
	"github.com/twmb/franz-go/pkg/sr"
)

const (
	fileFlag     = "file"
	toKafkaFlag  = "to-kafka"
	toSQLFlag    = "to-postgres"
	publishLimit = time.Minute
)

type flags struct {
	file    string
	toKafka bool
	toSQL   bool
}

// publisher reads a catalog file and pushes every valid product
// to the catalog topic and/or the products table.
func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	f := getFlagsValues()
	validateFlags(f)

	cfg := config.Load()
	initLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(sigCtx, publishLimit)
	defer cancel()

	products := loadProducts(ctx, f.file)

	if f.toKafka {
		publishToKafka(ctx, cfg, products)
	}
	if f.toSQL {
		storeToPostgres(ctx, cfg.SQLDB, products)
	}
}

func getFlagsValues() flags {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	cmdLine.ParseErrorsWhitelist.UnknownFlags = true
	file := cmdLine.StringP(fileFlag, "f", "", "catalog file (.json or .csv)")
	toKafka := cmdLine.Bool(toKafkaFlag, true, "produce to the catalog topic")
	toSQL := cmdLine.Bool(toSQLFlag, false, "upsert into the products table")
	_ = cmdLine.Parse(os.Args[1:])
	return flags{file: *file, toKafka: *toKafka, toSQL: *toSQL}
}

func validateFlags(f flags) {
	var errs []error

	if f.file == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", fileFlag))
	}
	if !f.toKafka && !f.toSQL {
		errs = append(errs, fmt.Errorf(
			"at least one of --%s or --%s is required", toKafkaFlag, toSQLFlag,
		))
	}

	if len(errs) != 0 {
		slog.Error("invalid args", "err", errors.Join(errs...))
		fallDown()
	}
}

func initLogger(level slog.Leveler) {
	opts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func loadProducts(ctx context.Context, file string) []domain.Product {
	const op = "main.loadProducts"

	var loader port.CatalogLoader
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		loader = source.NewCSVLoader(file)
	default:
		loader = source.NewJSONLoader(file)
	}

	products, err := loader.Load(ctx)
	if err != nil {
		die(op, err)
	}
	slog.Info("catalog file loaded", "file", file, "products", len(products))
	return products
}

func publishToKafka(ctx context.Context, cfg config.Config, ps []domain.Product) {
	const op = "main.publishToKafka"
	broker := cfg.Broker

	var tlsConfig *tls.Config
	if broker.TLS.Enabled() {
		c, err := adapter.MakeTLSConfig(broker.TLS.CA, broker.TLS.Cert, broker.TLS.Key)
		if err != nil {
			die(op, err)
		}
		tlsConfig = c
	}

	srClient, err := sr.NewClient(sr.URLs(broker.SchemaRegistryURLs...))
	if err != nil {
		die(op, err)
	}

	serde, err := schema.NewSerdeProductV1(
		ctx,
		schema.SubjectOpt(schema.Subject(broker.Topics.Catalog)),
		schema.SchemaIdentifierOpt(schema.NewRegistryIdentifier(srClient)),
	)
	if err != nil {
		die(op, err)
	}

	producer, err := kafka.NewProductsProducer(
		kafka.ProducerClientOpt(ctx, broker.SeedBrokers, broker.Topics.Catalog, tlsConfig),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		die(op, err)
	}
	defer producer.Close()

	if err := producer.ProduceProducts(ctx, ps); err != nil {
		die(op, err)
	}
}

func storeToPostgres(ctx context.Context, dsn string, ps []domain.Product) {
	const op = "main.storeToPostgres"

	if dsn == "" {
		die(op, errors.New("sql_db is not configured"))
	}

	db, err := storage.NewSQLDB(ctx, dsn)
	if err != nil {
		die(op, err)
	}
	defer db.Close()

	if err := storage.NewProductsRepository(db).StoreProducts(ctx, ps); err != nil {
		die(op, err)
	}
}

func die(op string, err error) {
	slog.Error("failed to publish catalog", "op", op, "err", err)
	fallDown()
}

func fallDown() {
	os.Exit(2)
}
