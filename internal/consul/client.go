// Package consul locates the Mailliam backend through HashiCorp Consul and
// registers the web frontend so it can be health-checked.
package consul

import (
	"fmt"
	"math/rand/v2"
	"net"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

// Client wraps the Consul API client
type Client struct {
	api *consulapi.Client
}

// NewClient creates a Consul client; token may be empty when ACLs are off
func NewClient(addr, token string) (*Client, error) {
	config := consulapi.DefaultConfig()
	config.Address = addr
	if token != "" {
		config.Token = token
	}

	api, err := consulapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &Client{api: api}, nil
}

// ServiceInstance is one healthy instance of a service
type ServiceInstance struct {
	ID      string
	Address string
	Port    int
	Tags    []string
}

// HostPort returns the instance address in host:port form
func (i *ServiceInstance) HostPort() string {
	return net.JoinHostPort(i.Address, strconv.Itoa(i.Port))
}

// ServiceDiscovery picks an instance of a named service
type ServiceDiscovery interface {
	DiscoverOne(serviceName string) (*ServiceInstance, error)
}

// Discover lists the healthy instances of a service
func (c *Client) Discover(serviceName string) ([]*ServiceInstance, error) {
	entries, _, err := c.api.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to discover service %s: %w", serviceName, err)
	}

	instances := make([]*ServiceInstance, 0, len(entries))
	for _, entry := range entries {
		addr := entry.Service.Address
		if addr == "" {
			addr = entry.Node.Address
		}
		instances = append(instances, &ServiceInstance{
			ID:      entry.Service.ID,
			Address: addr,
			Port:    entry.Service.Port,
			Tags:    entry.Service.Tags,
		})
	}

	return instances, nil
}

// DiscoverOne returns a random healthy instance
func (c *Client) DiscoverOne(serviceName string) (*ServiceInstance, error) {
	instances, err := c.Discover(serviceName)
	if err != nil {
		return nil, err
	}
	return pickInstance(serviceName, instances)
}

func pickInstance(serviceName string, instances []*ServiceInstance) (*ServiceInstance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("no healthy instances found for service: %s", serviceName)
	}
	return instances[rand.IntN(len(instances))], nil
}

// Registration describes the frontend's own Consul entry
type Registration struct {
	ID         string
	Name       string
	Address    string
	Port       int
	Tags       []string
	HealthPath string
}

// Register adds the service to the local agent with an HTTP health check
func (c *Client) Register(reg Registration) error {
	asr := &consulapi.AgentServiceRegistration{
		ID:      reg.ID,
		Name:    reg.Name,
		Address: reg.Address,
		Port:    reg.Port,
		Tags:    reg.Tags,
	}
	if reg.HealthPath != "" {
		asr.Check = &consulapi.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s%s", net.JoinHostPort(reg.Address, strconv.Itoa(reg.Port)), reg.HealthPath),
			Interval: "10s",
			Timeout:  "3s",
		}
	}

	if err := c.api.Agent().ServiceRegister(asr); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	return nil
}

// Deregister removes a service from the local agent
func (c *Client) Deregister(serviceID string) error {
	if err := c.api.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	return nil
}
