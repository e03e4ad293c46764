package config

import (
	"context"
	"testing"
	"time"

	"github.com/raffle-network/raffle/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	dir := t.TempDir()
	return &Config{
		Datadir:                 dir,
		Port:                    uint32(DefaultPort),
		LogLevel:                defaultLogLevel,
		Name:                    defaultName,
		EntranceFee:             uint64(defaultEntranceFee),
		Interval:                int64(defaultInterval),
		KeyHash:                 defaultKeyHash,
		RequestConfirmations:    uint16(defaultRequestConfirmations),
		CallbackGasLimit:        uint32(defaultCallbackGasLimit),
		NumWords:                uint32(defaultNumWords),
		OracleType:              defaultOracleType,
		OracleCoordinator:       defaultOracleCoordinator,
		OracleFulfillmentDelay:  -1,
		WalletType:              defaultWalletType,
		EventDbType:             defaultEventDbType,
		DbType:                  defaultDbType,
		DbDir:                   dir,
		EventDbDir:              dir,
		SchedulerType:           defaultSchedulerType,
		AutomationEnabled:       true,
		AutomationInterval:      defaultAutomationInterval,
		PendingRequestWarnAfter: defaultPendingRequestWarnAfter,
	}
}

func TestConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.AdminUser = "admin"
		cfg.AdminPass = "secret"

		err := cfg.Validate()
		require.NoError(t, err)
		require.NotNil(t, cfg.OracleService())
		require.NotNil(t, cfg.WalletService())
		require.Equal(t, defaultOracleCoordinator, cfg.OracleService().Coordinator())
		require.NotContains(t, cfg.String(), "secret")

		svc, err := cfg.AppService()
		require.NoError(t, err)
		require.NotNil(t, svc)

		// the app service is built once
		again, err := cfg.AppService()
		require.NoError(t, err)
		require.Equal(t, svc, again)

		info, err := svc.GetInfo(context.Background())
		require.NoError(t, err)
		require.Equal(t, defaultName, info.Name)
		require.Equal(t, domain.RaffleOpen, info.State)
		require.Equal(t, uint64(defaultEntranceFee), info.EntranceFee)

		svc.Stop()
	})

	t.Run("drand_coordinator", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.OracleType = "drand"
		cfg.OracleUrl = "https://api.drand.sh/"
		cfg.OracleCoordinator = ""
		cfg.OraclePollInterval = time.Second

		require.Equal(t, "https://api.drand.sh", cfg.RaffleConfig().Coordinator)
		require.False(t, cfg.OracleCallbackEnabled())
	})

	t.Run("remote_oracle", func(t *testing.T) {
		cfg := validConfig(t)
		require.False(t, cfg.OracleCallbackEnabled())

		cfg.OracleType = "remote"
		cfg.OracleUrl = "http://localhost:8545"
		cfg.OracleCredential = "oracle-secret"
		cfg.AutomationEnabled = false

		err := cfg.Validate()
		require.NoError(t, err)
		require.True(t, cfg.OracleCallbackEnabled())
		require.Equal(t, defaultOracleCoordinator, cfg.OracleService().Coordinator())
		require.NotContains(t, cfg.String(), "oracle-secret")
		cfg.OracleService().Close()
		cfg.WalletService().Close()
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			name        string
			update      func(cfg *Config)
			expectedErr string
		}{
			{
				name:        "event_db",
				update:      func(cfg *Config) { cfg.EventDbType = "sqlite" },
				expectedErr: "event db type not supported, please select one of: badger",
			},
			{
				name:        "db",
				update:      func(cfg *Config) { cfg.DbType = "postgres" },
				expectedErr: "db type not supported, please select one of: badger | sqlite",
			},
			{
				name:        "oracle",
				update:      func(cfg *Config) { cfg.OracleType = "chainlink" },
				expectedErr: "oracle type not supported, please select one of: drand | local | remote",
			},
			{
				name:        "wallet",
				update:      func(cfg *Config) { cfg.WalletType = "ocean" },
				expectedErr: "wallet type not supported, please select one of: inmemory | remote",
			},
			{
				name:        "entrance_fee",
				update:      func(cfg *Config) { cfg.EntranceFee = 0 },
				expectedErr: "invalid raffle config: entrance fee must be greater than 0",
			},
			{
				name:        "interval",
				update:      func(cfg *Config) { cfg.Interval = 0 },
				expectedErr: "invalid raffle config: interval must be greater than 0",
			},
			{
				name:        "automation_interval",
				update:      func(cfg *Config) { cfg.AutomationInterval = time.Millisecond },
				expectedErr: "invalid automation interval, must be at least 1 second",
			},
			{
				name:        "admin_credentials",
				update:      func(cfg *Config) { cfg.AdminUser = "admin" },
				expectedErr: "admin user and password must be set together",
			},
			{
				name: "remote_oracle_credential",
				update: func(cfg *Config) {
					cfg.OracleType = "remote"
					cfg.OracleUrl = "http://localhost:8545"
				},
				expectedErr: "missing oracle credential, required by remote oracle",
			},
			{
				name: "remote_oracle_url",
				update: func(cfg *Config) {
					cfg.OracleType = "remote"
					cfg.OracleCredential = "oracle-secret"
				},
				expectedErr: "missing oracle url",
			},
			{
				name:        "remote_wallet",
				update:      func(cfg *Config) { cfg.WalletType = "remote" },
				expectedErr: "missing wallet url",
			},
		}

		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				cfg := validConfig(t)
				f.update(cfg)
				err := cfg.Validate()
				require.EqualError(t, err, f.expectedErr)
			})
		}
	})
}
