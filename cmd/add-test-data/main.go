package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/RichardKnop/tinydb/internal/pkg/logging"
	"github.com/RichardKnop/tinydb/internal/tinydb"
)

const defaultDbFileName = "db"

var (
	dbFlag       string
	countFlag    int
	seedFlag     int64
	maxPagesFlag uint
)

func init() {
	flag.StringVar(&dbFlag, "db", defaultDbFileName, "Database file to load records into")
	flag.IntVar(&countFlag, "n", 500, "Number of records to insert")
	flag.Int64Var(&seedFlag, "seed", 0, "Random seed, 0 picks a random one")
	flag.UintVar(&maxPagesFlag, "max-pages", tinydb.DefaultMaxPages, "Maximum number of pages in the database file")
}

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := logging.New("")
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // flushes buffer, if any

	aTable, err := tinydb.Open(ctx, dbFlag, tinydb.WithLogger(logger), tinydb.WithMaxPages(uint32(maxPagesFlag)))
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}

	var (
		faker                         = gofakeit.New(seedFlag)
		inserted, duplicate, fullHits int
	)
	for i := 0; i < countFlag; i++ {
		aRecord := tinydb.Record{
			ID:       faker.Uint32(),
			Username: faker.Username(),
			Email:    faker.Email(),
		}

		err := aTable.Insert(ctx, aRecord)
		switch {
		case err == nil:
			inserted += 1
		case errors.Is(err, tinydb.ErrDuplicateKey):
			duplicate += 1
		case errors.Is(err, tinydb.ErrTableFull):
			fullHits += 1
		case errors.Is(err, tinydb.ErrInvalidRecord):
			logger.Sugar().With("id", int(aRecord.ID), "error", err).Warn("skipping invalid record")
		default:
			aTable.Close(ctx)
			logger.Fatal("insert record", zap.Error(err))
		}
	}

	if err := aTable.Close(ctx); err != nil {
		logger.Error("close database", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Sugar().With(
		"inserted", inserted,
		"duplicate", duplicate,
		"table_full", fullHits,
		"db", dbFlag,
	).Info("added test data")
}
