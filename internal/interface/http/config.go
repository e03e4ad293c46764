package httpservice

import (
	"fmt"
	"net"
)

type Config struct {
	Port       uint32
	HealthPort uint32
	AdminUser  string
	AdminPass  string
	// OracleCallback exposes the fulfill endpoint to an oracle calling back
	// over http. The oracle must then present OracleCredential together with
	// its coordinator identity.
	OracleCallback   bool
	OracleCredential string
}

func (c Config) Validate() error {
	lis, err := net.Listen("tcp", c.address())
	if err != nil {
		return fmt.Errorf("invalid port: %s", err)
	}
	// nolint:all
	defer lis.Close()

	if c.HealthPort > 0 && c.HealthPort == c.Port {
		return fmt.Errorf("health port must differ from port %d", c.Port)
	}
	if (len(c.AdminUser) > 0) != (len(c.AdminPass) > 0) {
		return fmt.Errorf("admin user and password must be set together")
	}
	if c.OracleCallback && len(c.OracleCredential) <= 0 {
		return fmt.Errorf("missing oracle credential for fulfillments over http")
	}
	return nil
}

func (c Config) address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) withAdmin() bool {
	return len(c.AdminUser) > 0
}
