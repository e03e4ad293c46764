package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/raffle-network/raffle/internal/core/application"
	"github.com/raffle-network/raffle/internal/core/domain"
	"github.com/raffle-network/raffle/internal/core/ports"
	"github.com/raffle-network/raffle/internal/infrastructure/db"
	drandoracle "github.com/raffle-network/raffle/internal/infrastructure/oracle/drand"
	localoracle "github.com/raffle-network/raffle/internal/infrastructure/oracle/local"
	remoteoracle "github.com/raffle-network/raffle/internal/infrastructure/oracle/remote"
	scheduler "github.com/raffle-network/raffle/internal/infrastructure/scheduler/gocron"
	inmemorywallet "github.com/raffle-network/raffle/internal/infrastructure/wallet/inmemory"
	remotewallet "github.com/raffle-network/raffle/internal/infrastructure/wallet/remote"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	supportedEventDbs = supportedType{
		"badger": {},
	}
	supportedDbs = supportedType{
		"badger": {},
		"sqlite": {},
	}
	supportedSchedulers = supportedType{
		"gocron": {},
	}
	supportedOracles = supportedType{
		"local":  {},
		"drand":  {},
		"remote": {},
	}
	supportedWallets = supportedType{
		"inmemory": {},
		"remote":   {},
	}
)

type Config struct {
	Datadir    string
	Port       uint32
	HealthPort uint32
	LogLevel   int
	Name       string

	EntranceFee          uint64
	Interval             int64
	KeyHash              string
	SubscriptionId       uint64
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	NumWords             uint32

	OracleType             string
	OracleUrl              string
	OracleCoordinator      string
	OracleCredential       string
	OracleFulfillmentDelay time.Duration
	OraclePollInterval     time.Duration

	WalletType               string
	WalletUrl                string
	WalletRejectedRecipients []string

	EventDbType string
	DbType      string
	DbDir       string
	EventDbDir  string

	SchedulerType           string
	AutomationEnabled       bool
	AutomationInterval      time.Duration
	PendingRequestWarnAfter time.Duration

	AdminUser string
	AdminPass string

	repo      ports.RepoManager
	svc       application.Service
	oracle    ports.RandomnessOracle
	wallet    ports.WalletService
	scheduler ports.SchedulerService
}

func (c *Config) String() string {
	clone := *c
	clone.OracleCredential = redact(clone.OracleCredential)
	clone.AdminPass = redact(clone.AdminPass)
	json, err := json.MarshalIndent(clone, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	Datadir                  = "DATADIR"
	Port                     = "PORT"
	HealthPort               = "HEALTH_PORT"
	LogLevel                 = "LOG_LEVEL"
	Name                     = "NAME"
	EntranceFee              = "ENTRANCE_FEE"
	Interval                 = "INTERVAL"
	OracleType               = "ORACLE_TYPE"
	OracleUrl                = "ORACLE_URL"
	OracleCoordinator        = "ORACLE_COORDINATOR"
	OracleCredential         = "ORACLE_CREDENTIAL"
	OracleFulfillmentDelay   = "ORACLE_FULFILLMENT_DELAY"
	OraclePollInterval       = "ORACLE_POLL_INTERVAL"
	KeyHash                  = "KEY_HASH"
	SubscriptionId           = "SUBSCRIPTION_ID"
	RequestConfirmations     = "REQUEST_CONFIRMATIONS"
	CallbackGasLimit         = "CALLBACK_GAS_LIMIT"
	NumWords                 = "NUM_WORDS"
	WalletType               = "WALLET_TYPE"
	WalletUrl                = "WALLET_URL"
	WalletRejectedRecipients = "WALLET_REJECTED_RECIPIENTS"
	EventDbType              = "EVENT_DB_TYPE"
	DbType                   = "DB_TYPE"
	SchedulerType            = "SCHEDULER_TYPE"
	AutomationEnabled        = "AUTOMATION_ENABLED"
	AutomationInterval       = "AUTOMATION_INTERVAL"
	PendingRequestWarnAfter  = "PENDING_REQUEST_WARN_AFTER"
	AdminUser                = "ADMIN_USER"
	AdminPass                = "ADMIN_PASS"

	defaultDatadir                 = btcutil.AppDataDir("raffled", false)
	DefaultPort                    = 7080
	defaultHealthPort              = 0
	defaultLogLevel                = 4
	defaultName                    = "raffle"
	defaultEntranceFee             = 10000000000000000 // 0.01 ether in wei
	defaultInterval                = 30
	defaultOracleType              = "local"
	defaultOracleCoordinator       = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	defaultOracleFulfillmentDelay  = 2 * time.Second
	defaultOraclePollInterval      = 3 * time.Second
	defaultKeyHash                 = "0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c"
	defaultRequestConfirmations    = 3
	defaultCallbackGasLimit        = 500000
	defaultNumWords                = 1
	defaultWalletType              = "inmemory"
	defaultEventDbType             = "badger"
	defaultDbType                  = "sqlite"
	defaultSchedulerType           = "gocron"
	defaultAutomationEnabled       = true
	defaultAutomationInterval      = 5 * time.Second
	defaultPendingRequestWarnAfter = 10 * time.Minute
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("RAFFLE")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir)
	viper.SetDefault(Port, DefaultPort)
	viper.SetDefault(HealthPort, defaultHealthPort)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(Name, defaultName)
	viper.SetDefault(EntranceFee, defaultEntranceFee)
	viper.SetDefault(Interval, defaultInterval)
	viper.SetDefault(OracleType, defaultOracleType)
	viper.SetDefault(OracleCoordinator, defaultOracleCoordinator)
	viper.SetDefault(OracleFulfillmentDelay, defaultOracleFulfillmentDelay)
	viper.SetDefault(OraclePollInterval, defaultOraclePollInterval)
	viper.SetDefault(KeyHash, defaultKeyHash)
	viper.SetDefault(RequestConfirmations, defaultRequestConfirmations)
	viper.SetDefault(CallbackGasLimit, defaultCallbackGasLimit)
	viper.SetDefault(NumWords, defaultNumWords)
	viper.SetDefault(WalletType, defaultWalletType)
	viper.SetDefault(EventDbType, defaultEventDbType)
	viper.SetDefault(DbType, defaultDbType)
	viper.SetDefault(SchedulerType, defaultSchedulerType)
	viper.SetDefault(AutomationEnabled, defaultAutomationEnabled)
	viper.SetDefault(AutomationInterval, defaultAutomationInterval)
	viper.SetDefault(PendingRequestWarnAfter, defaultPendingRequestWarnAfter)

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	dbPath := filepath.Join(viper.GetString(Datadir), "db")

	return &Config{
		Datadir:                  viper.GetString(Datadir),
		Port:                     viper.GetUint32(Port),
		HealthPort:               viper.GetUint32(HealthPort),
		LogLevel:                 viper.GetInt(LogLevel),
		Name:                     viper.GetString(Name),
		EntranceFee:              viper.GetUint64(EntranceFee),
		Interval:                 viper.GetInt64(Interval),
		KeyHash:                  viper.GetString(KeyHash),
		SubscriptionId:           viper.GetUint64(SubscriptionId),
		RequestConfirmations:     viper.GetUint16(RequestConfirmations),
		CallbackGasLimit:         viper.GetUint32(CallbackGasLimit),
		NumWords:                 viper.GetUint32(NumWords),
		OracleType:               viper.GetString(OracleType),
		OracleUrl:                viper.GetString(OracleUrl),
		OracleCoordinator:        viper.GetString(OracleCoordinator),
		OracleCredential:         viper.GetString(OracleCredential),
		OracleFulfillmentDelay:   viper.GetDuration(OracleFulfillmentDelay),
		OraclePollInterval:       viper.GetDuration(OraclePollInterval),
		WalletType:               viper.GetString(WalletType),
		WalletUrl:                viper.GetString(WalletUrl),
		WalletRejectedRecipients: viper.GetStringSlice(WalletRejectedRecipients),
		EventDbType:              viper.GetString(EventDbType),
		DbType:                   viper.GetString(DbType),
		DbDir:                    dbPath,
		EventDbDir:               dbPath,
		SchedulerType:            viper.GetString(SchedulerType),
		AutomationEnabled:        viper.GetBool(AutomationEnabled),
		AutomationInterval:       viper.GetDuration(AutomationInterval),
		PendingRequestWarnAfter:  viper.GetDuration(PendingRequestWarnAfter),
		AdminUser:                viper.GetString(AdminUser),
		AdminPass:                viper.GetString(AdminPass),
	}, nil
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

// RaffleConfig is the immutable configuration recorded by the raffle on its
// first start.
func (c *Config) RaffleConfig() domain.Config {
	return domain.Config{
		EntranceFee:          c.EntranceFee,
		Interval:             c.Interval,
		Coordinator:          c.coordinator(),
		KeyHash:              c.KeyHash,
		SubscriptionId:       c.SubscriptionId,
		RequestConfirmations: c.RequestConfirmations,
		CallbackGasLimit:     c.CallbackGasLimit,
		NumWords:             c.NumWords,
	}
}

func (c *Config) Validate() error {
	if !supportedEventDbs.supports(c.EventDbType) {
		return fmt.Errorf("event db type not supported, please select one of: %s", supportedEventDbs)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedSchedulers.supports(c.SchedulerType) {
		return fmt.Errorf("scheduler type not supported, please select one of: %s", supportedSchedulers)
	}
	if !supportedOracles.supports(c.OracleType) {
		return fmt.Errorf("oracle type not supported, please select one of: %s", supportedOracles)
	}
	if !supportedWallets.supports(c.WalletType) {
		return fmt.Errorf("wallet type not supported, please select one of: %s", supportedWallets)
	}
	if len(c.Name) <= 0 {
		return fmt.Errorf("missing raffle name")
	}
	if err := c.RaffleConfig().Validate(); err != nil {
		return fmt.Errorf("invalid raffle config: %s", err)
	}
	if c.AutomationEnabled && c.AutomationInterval < time.Second {
		return fmt.Errorf("invalid automation interval, must be at least 1 second")
	}
	if (len(c.AdminUser) > 0) != (len(c.AdminPass) > 0) {
		return fmt.Errorf("admin user and password must be set together")
	}
	if c.OracleCallbackEnabled() && len(c.OracleCredential) <= 0 {
		return fmt.Errorf("missing oracle credential, required by %s oracle", c.OracleType)
	}

	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.oracleService(); err != nil {
		return err
	}
	if err := c.walletService(); err != nil {
		return err
	}
	if err := c.schedulerService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

// OracleCallbackEnabled tells whether the oracle delivers random words by
// calling back over http. Other oracles deliver them in process, the
// fulfill endpoint must not be exposed for them.
func (c *Config) OracleCallbackEnabled() bool {
	return c.OracleType == "remote"
}

func (c *Config) OracleService() ports.RandomnessOracle {
	return c.oracle
}

func (c *Config) WalletService() ports.WalletService {
	return c.wallet
}

func (c *Config) repoManager() error {
	var eventStoreConfig []interface{}
	var dataStoreConfig []interface{}
	logger := log.New()

	switch c.EventDbType {
	case "badger":
		eventStoreConfig = []interface{}{c.EventDbDir, logger}
	default:
		return fmt.Errorf("unknown event db type")
	}

	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	case "sqlite":
		dataStoreConfig = []interface{}{c.DbDir}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		EventStoreType:   c.EventDbType,
		DataStoreType:    c.DbType,
		EventStoreConfig: eventStoreConfig,
		DataStoreConfig:  dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) oracleService() error {
	var svc ports.RandomnessOracle
	var err error
	switch c.OracleType {
	case "local":
		svc, err = localoracle.NewService(c.coordinator(), c.OracleFulfillmentDelay)
	case "drand":
		svc, err = drandoracle.NewService(
			c.OracleUrl, c.coordinator(), c.OraclePollInterval,
		)
	case "remote":
		svc, err = remoteoracle.NewService(c.OracleUrl, c.coordinator())
	default:
		err = fmt.Errorf("unknown oracle type")
	}
	if err != nil {
		return err
	}

	c.oracle = svc
	return nil
}

func (c *Config) walletService() error {
	var svc ports.WalletService
	var err error
	switch c.WalletType {
	case "inmemory":
		svc = inmemorywallet.NewService(c.WalletRejectedRecipients...)
	case "remote":
		svc, err = remotewallet.NewService(c.WalletUrl)
	default:
		err = fmt.Errorf("unknown wallet type")
	}
	if err != nil {
		return err
	}

	c.wallet = svc
	return nil
}

func (c *Config) schedulerService() error {
	if !c.AutomationEnabled {
		return nil
	}

	var svc ports.SchedulerService
	switch c.SchedulerType {
	case "gocron":
		svc = scheduler.NewScheduler()
	default:
		return fmt.Errorf("unknown scheduler type")
	}

	c.scheduler = svc
	return nil
}

func (c *Config) appService() error {
	svc, err := application.NewService(
		c.Name, c.RaffleConfig(), c.oracle, c.wallet, c.repo, c.scheduler,
		c.AutomationInterval, c.PendingRequestWarnAfter,
	)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

// coordinator is the identity allowed to fulfill randomness requests. The
// drand oracle fulfills on behalf of its relay unless told otherwise.
func (c *Config) coordinator() string {
	if c.OracleType == "drand" && len(c.OracleCoordinator) <= 0 {
		return strings.TrimSuffix(c.OracleUrl, "/")
	}
	return c.OracleCoordinator
}

func redact(secret string) string {
	if len(secret) <= 0 {
		return ""
	}
	return "********"
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	sort.Strings(types)
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
