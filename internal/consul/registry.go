package consul

import (
	"fmt"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

// ServiceConfig contains configuration for service registration
type ServiceConfig struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
	Check   *HealthCheck
}

// HealthCheck defines health check configuration
type HealthCheck struct {
	HTTP            string
	Interval        string
	Timeout         string
	DeregisterAfter string
}

// ServiceRegistrar is implemented by Client
type ServiceRegistrar interface {
	Register(cfg *ServiceConfig) error
	Deregister(serviceID string) error
}

// NewServiceConfig describes a service instance whose /health endpoint is
// polled by Consul. The ID is stable per host so restarts replace the old entry.
func NewServiceConfig(name, host, port string, tags ...string) (*ServiceConfig, error) {
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", port, err)
	}

	return &ServiceConfig{
		ID:      fmt.Sprintf("%s-%s", name, host),
		Name:    name,
		Address: host,
		Port:    p,
		Tags:    tags,
		Check: &HealthCheck{
			HTTP:            fmt.Sprintf("http://%s:%d/health", host, p),
			Interval:        "10s",
			Timeout:         "3s",
			DeregisterAfter: "1m",
		},
	}, nil
}

func registration(cfg *ServiceConfig) *consulapi.AgentServiceRegistration {
	reg := &consulapi.AgentServiceRegistration{
		ID:      cfg.ID,
		Name:    cfg.Name,
		Address: cfg.Address,
		Port:    cfg.Port,
		Tags:    cfg.Tags,
	}

	if cfg.Check != nil {
		reg.Check = &consulapi.AgentServiceCheck{
			HTTP:                           cfg.Check.HTTP,
			Interval:                       cfg.Check.Interval,
			Timeout:                        cfg.Check.Timeout,
			DeregisterCriticalServiceAfter: cfg.Check.DeregisterAfter,
		}
	}
	return reg
}

// Register registers a service with Consul, replacing any stale instance with the same ID
func (c *Client) Register(cfg *ServiceConfig) error {
	_ = c.api.Agent().ServiceDeregister(cfg.ID)

	if err := c.api.Agent().ServiceRegister(registration(cfg)); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	return nil
}

// Deregister removes a service from Consul
func (c *Client) Deregister(serviceID string) error {
	if err := c.api.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	return nil
}
