package multiform

import (
	"sync"

	"go.uber.org/zap"
)

// Services groups the process-wide structures shared by forms. Every field is
// safe for concurrent use, so one Services value may back any number of forms
// on any number of goroutines.
type Services struct {
	Boundaries *BoundaryPool
	MIME       *MIMECache
	Headers    *HeaderCache
	Logger     *zap.Logger
}

// NewServices builds a fresh set of services sized by cfg. A nil logger
// disables logging.
func NewServices(cfg Config, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()
	return &Services{
		Boundaries: NewBoundaryPool(cfg.BoundaryPoolSize, logger.Named("boundary")),
		MIME:       NewMIMECache(cfg.MIMECacheSize, cfg.MIMETypes, logger.Named("mime")),
		Headers:    NewHeaderCache(cfg.HeaderCacheSize, logger.Named("header")),
		Logger:     logger,
	}
}

var (
	defaultServices     *Services
	defaultServicesOnce sync.Once
)

// DefaultServices returns the services used by forms created without
// WithServices. They are created on first use and live for the rest of the
// process.
func DefaultServices() *Services {
	defaultServicesOnce.Do(func() {
		defaultServices = NewServices(DefaultConfig(), nil)
	})
	return defaultServices
}
