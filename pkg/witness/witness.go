// Package witness exposes the high-level WitnessChain entry point. It wires
// together the runtime configuration, the Postgres store, the storage
// boundary, and the REST API into one Core instance.
package witness

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/witnesschain/witnesschain-go/internal/api"
	"github.com/witnesschain/witnesschain-go/pkg/config"
	"github.com/witnesschain/witnesschain-go/pkg/storage"
	"github.com/witnesschain/witnesschain-go/pkg/store"
)

// init configures a default global zap logger. Applications may replace it
// with zap.ReplaceGlobals(...) if they need custom logging.
func init() {
	c := zap.Config{
		Level:            zap.NewAtomicLevelAt(zap.InfoLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := c.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}

// Core is the assembled backend. The embedded Config has been validated and
// carries effective defaults.
type Core struct {
	*config.Config
	Store   *store.Store
	Storage *storage.Service
}

// New validates cfg, connects to Postgres, and prepares the storage
// boundary. The storage backend itself is built lazily on first use, so a
// missing IPFS node surfaces as CLIENT_NOT_CONFIGURED on the first storage
// operation rather than at startup.
func New(cfg *config.Config) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Timeouts = cfg.Timeouts.WithDefaults()

	if cfg.Debug {
		dev := zap.NewDevelopmentConfig()
		if logger, err := dev.Build(); err == nil {
			zap.ReplaceGlobals(logger)
		}
	}

	st, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	svc := storage.NewService(storage.Options{
		NewClient: func() (storage.Client, error) {
			return storage.NewGatewayClient(cfg.IpfsAPIURL, cfg.GatewayURL)
		},
		MaxFileSize:     cfg.MaxFileSize,
		UploadTimeout:   cfg.Timeouts.Upload,
		RetrieveTimeout: cfg.Timeouts.Retrieve,
	})

	return &Core{
		Config:  cfg,
		Store:   st,
		Storage: svc,
	}, nil
}

// Handler returns the REST API handler bound to this Core.
func (c *Core) Handler() http.Handler {
	return api.NewServer(c.Store, c.Storage).Routes()
}
