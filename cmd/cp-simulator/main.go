package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/config"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/cp"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/journal"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/logging"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/metrics"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // best-effort flush

	durable, err := newDurableStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open durable store", zap.Error(err))
	}

	var jrnl cp.Journal
	if cfg.Journal.DSN != "" {
		db, err := journal.NewPostgresDB(cfg.Journal.DSN)
		if err != nil {
			logger.Fatal("failed to connect journal database", zap.Error(err))
		}
		defer db.Close()
		jrnl = journal.NewRepository(db)
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			logger.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				logger.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	engine := cp.New(cfg, durable, &consoleObserver{logger: logger}, jrnl, logger)

	wsURL := cfg.CentralSystem.URL
	if wsURL == "" {
		wsURL = durable.Get(store.KeyWSURL, "ws://localhost:8887/")
	}
	cpID := cfg.CentralSystem.CPID
	if cpID == "" {
		cpID = durable.Get(store.KeyCPID, "CP01")
	}

	if err := engine.Connect(wsURL, cpID); err != nil {
		logger.Fatal("failed to connect to central system", zap.Error(err))
	}

	<-ctx.Done()
	engine.Disconnect()
	logger.Info("simulator stopped")
}

func newDurableStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.Store.RedisAddr != "" {
		r, err := store.NewRedis(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.CentralSystem.CPID, logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	f, err := store.NewFile(cfg.Store.Path, logger)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// consoleObserver surfaces engine events on the process log, standing in for
// a UI shell.
type consoleObserver struct {
	logger *zap.Logger
}

func (o *consoleObserver) OnStatusChange(status cp.CPStatus, detail string) {
	o.logger.Info("cp status", zap.String("status", string(status)), zap.String("detail", detail))
}

func (o *consoleObserver) OnAvailabilityChange(connectorID int, availability string) {
	o.logger.Info("connector availability", zap.Int("connector_id", connectorID), zap.String("availability", availability))
}

func (o *consoleObserver) OnMeterValueChange(meterValueWh int) {
	o.logger.Info("meter value", zap.Int("wh", meterValueWh))
}

func (o *consoleObserver) OnLog(message string) {
	o.logger.Info(message)
}
