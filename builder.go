package goAuthz

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MrEthical07/goAuthz/identity"
	"github.com/MrEthical07/goAuthz/internal/codes"
	"github.com/MrEthical07/goAuthz/internal/dispatch"
	"github.com/MrEthical07/goAuthz/internal/rate"
	"github.com/MrEthical07/goAuthz/notify"
	"github.com/MrEthical07/goAuthz/password"
	"github.com/MrEthical07/goAuthz/permission"
	"github.com/MrEthical07/goAuthz/session"
)

// Builder assembles an [Engine]. A Builder can be used once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users     identity.UserProvider
	roles     RoleResolver
	apps      AppProvider
	functions permission.Source
	sender    notify.Sender
	decrypter identity.Decrypter
	log       zerolog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		log:    zerolog.Nop(),
		now:    time.Now,
	}
}

// WithConfig replaces the configuration. Zero fields are filled from
// [DefaultConfig] at build time.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the cache that holds records, codes and rate counters.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the user provider. Narrow user writes need it to
// implement [identity.UserStore] as well.
func (b *Builder) WithUserStore(users identity.UserProvider) *Builder {
	b.users = users
	return b
}

func (b *Builder) WithRoleResolver(r RoleResolver) *Builder {
	b.roles = r
	return b
}

func (b *Builder) WithAppProvider(p AppProvider) *Builder {
	b.apps = p
	return b
}

// WithFunctionSource sets the permission query used for function keys.
// Without one every function key is denied.
func (b *Builder) WithFunctionSource(s permission.Source) *Builder {
	b.functions = s
	return b
}

// WithSender sets where SMS and WeChat notifications are delivered.
func (b *Builder) WithSender(s notify.Sender) *Builder {
	b.sender = s
	return b
}

// WithDecrypter sets how stored password hashes are decrypted.
func (b *Builder) WithDecrypter(d identity.Decrypter) *Builder {
	b.decrypter = d
	return b
}

func (b *Builder) WithLogger(log zerolog.Logger) *Builder {
	b.log = log
	return b
}

// WithClock overrides the time source.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = now
	}
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}

	cfg, err := b.config.WithDefaults()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := b.log.With().Str("component", "goauthz").Logger()

	payHash, err := password.NewArgon2(cfg.PayPassword)
	if err != nil {
		return nil, err
	}

	// -------- NOTIFICATION DISPATCH --------
	dispatcher := dispatch.New(dispatch.Config{
		Workers:       cfg.Dispatch.Workers,
		BufferSize:    cfg.Dispatch.BufferSize,
		DropIfFull:    cfg.Dispatch.DropIfFull,
		RatePerSecond: cfg.Dispatch.RatePerSecond,
		SendTimeout:   cfg.Dispatch.SendTimeout,
	}, b.sender, log)

	// -------- CACHE --------
	sessions := session.NewStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.RecordTTL)
	codeStore := codes.New(b.redis, cfg.Session.RedisPrefix+":code")

	resolver := identity.NewResolver(
		b.users,
		sessions,
		codeStore,
		b.decrypter,
		dispatcher,
		identity.Config{
			CodeTTL:       cfg.Code.TTL,
			SmsLoginTTL:   cfg.Code.SmsLoginTTL,
			SmsCodeLength: cfg.Code.SmsLength,
		},
		log,
	)

	engine := &Engine{
		config:     cfg,
		resolver:   resolver,
		users:      b.users,
		roles:      b.roles,
		apps:       b.apps,
		functions:  b.functions,
		limiter:    rate.New(b.redis, cfg.RateLimit.RedisPrefix, b.now),
		dispatcher: dispatcher,
		payHash:    payHash,
		metrics:    NewMetrics(cfg.Metrics),
		log:        log,
		now:        b.now,
		lockout: session.Lockout{
			Threshold: cfg.Session.LockoutThreshold,
			Window:    cfg.Session.LockoutWindow,
		},
	}

	b.built = true

	return engine, nil
}
