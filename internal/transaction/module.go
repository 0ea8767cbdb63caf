package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/gobank/internal/pkg/pkgcache"
	"github.com/shandysiswandi/gobank/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/gobank/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/gobank/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/gobank/internal/pkg/pkguid"
	"github.com/shandysiswandi/gobank/internal/transaction/entity"
	"github.com/shandysiswandi/gobank/internal/transaction/event"
	"github.com/shandysiswandi/gobank/internal/transaction/inbound"
	"github.com/shandysiswandi/gobank/internal/transaction/store"
	"github.com/shandysiswandi/gobank/internal/transaction/usecase"
)

type Dependency struct {
	Config    pkgconfig.Config
	Router    *pkgrouter.Router
	Goroutine *pkgroutine.Manager
	Context   context.Context
}

func New(dep Dependency) (func(context.Context) error, error) {
	var storage usecase.Store
	var storeCloser func() error

	switch dep.Config.GetString("storage.driver") {
	case "postgres":
		pg, err := store.NewPostgresStore(dep.Config.GetString("storage.postgres.dsn"))
		if err != nil {
			return nil, err
		}
		storage = pg
		storeCloser = pg.Close
	default:
		storage = store.NewInMemoryStore()
	}

	cacheCfg := pkgcache.Config{
		InitialCapacity:   int(dep.Config.GetInt("cache.initial_capacity")),
		MaximumSize:       int(dep.Config.GetInt("cache.maximum_size")),
		ExpireAfterWrite:  time.Duration(dep.Config.GetInt("cache.expire_after_write_minutes")) * time.Minute,
		ExpireAfterAccess: time.Duration(dep.Config.GetInt("cache.expire_after_access_minutes")) * time.Minute,
	}

	eventID, err := pkguid.NewSnowflake()
	if err != nil {
		return nil, err
	}

	bus := event.NewBus(512)
	consumer := event.NewAuditConsumer(bus, event.LogSink{}, event.ConsumerConfig{
		Workers:     int(dep.Config.GetInt("audit.workers")),
		MaxRetries:  int(dep.Config.GetInt("audit.max_retries")),
		BaseBackoff: time.Duration(dep.Config.GetInt("audit.base_backoff_ms")) * time.Millisecond,
	})
	consumer.Start()

	uc := usecase.New(usecase.Dependency{
		Store:     storage,
		Events:    bus,
		EventID:   eventID,
		Runner:    dep.Goroutine,
		RootCtx:   dep.Context,
		ByID:      pkgcache.New[int64, entity.Transaction](cacheCfg),
		ByTradeNo: pkgcache.New[string, entity.Transaction](cacheCfg),
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return func(ctx context.Context) error {
		err := consumer.Stop(ctx)
		if storeCloser != nil {
			err = errors.Join(err, storeCloser())
		}
		return err
	}, nil
}
