// Package consul registers the notifier with HashiCorp Consul so its health
// endpoint is checked alongside the other services.
package consul

import (
	consulapi "github.com/hashicorp/consul/api"
)

// Client wraps the Consul API client
type Client struct {
	api *consulapi.Client
}

// NewClient creates a Consul client. token may be empty when ACLs are off.
func NewClient(addr, token string) (*Client, error) {
	config := consulapi.DefaultConfig()
	config.Address = addr
	if token != "" {
		config.Token = token
	}

	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, err
	}

	return &Client{api: client}, nil
}
