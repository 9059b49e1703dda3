package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/sym"
)

// StoreConfig configures the Neo4j connection
type StoreConfig struct {
	URL      string
	Username string
	Password string
	Database string        // "" = server default
	Timeout  time.Duration // connect and per-query; 0 = no extra deadline
	Logger   *zap.SugaredLogger
}

// Store runs read queries against Neo4j
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
	logger   *zap.SugaredLogger
}

// Open connects to Neo4j and verifies connectivity.
// Failures wrap errors.ErrGraphUnavailable.
func Open(ctx context.Context, cfg StoreConfig) (*Store, error) {
	log := logger.OrNop(cfg.Logger)
	if cfg.URL == "" {
		return nil, errors.Mark(
			errors.WithHint(errors.New("graph URL not configured"), "set NEO4J_URL or graph.url in am.toml"),
			errors.ErrGraphUnavailable)
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URL, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to create neo4j driver for %s", cfg.URL), errors.ErrGraphUnavailable)
	}

	verifyCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		verifyCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, errors.Mark(errors.Wrapf(err, "neo4j at %s is unreachable", cfg.URL), errors.ErrGraphUnavailable)
	}

	log.Infow("Connected to graph", logger.FieldAddress, cfg.URL, logger.FieldSymbol, sym.Graph)
	return &Store{
		driver:   driver,
		database: cfg.Database,
		timeout:  cfg.Timeout,
		logger:   log,
	}, nil
}

// Query runs cypher in a read session and returns every record as a map
func (s *Store) Query(ctx context.Context, cypher string) ([]map[string]any, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	s.logger.Debugw("Running graph query", logger.FieldQuery, cypher)

	result, err := session.Run(ctx, cypher, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run query")
	}

	var rows []map[string]any
	for result.Next(ctx) {
		rows = append(rows, result.Record().AsMap())
	}
	if err := result.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read query results")
	}
	return rows, nil
}

// Close releases the driver
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
