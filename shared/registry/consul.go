package registry

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// ConsulRegistry registers the HTTP service with a local consul agent and
// points its health check at the service's /healthz endpoint.
type ConsulRegistry struct {
	client    *api.Client
	serviceID string
	logger    *zerolog.Logger
}

// NewConsulRegistry connects to the consul agent at the given address.
func NewConsulRegistry(address string, logger *zerolog.Logger) (*ConsulRegistry, error) {
	cfg := api.DefaultConfig()
	if address != "" {
		cfg.Address = address
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &ConsulRegistry{
		client: client,
		logger: logger,
	}, nil
}

// Register announces the service to consul with an HTTP health check.
func (r *ConsulRegistry) Register(name, host string, port int) error {
	r.serviceID = fmt.Sprintf("%s-%s", name, uuid.NewString())

	registration := &api.AgentServiceRegistration{
		ID:      r.serviceID,
		Name:    name,
		Address: host,
		Port:    port,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/healthz", host, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}

	if err := r.client.Agent().ServiceRegister(registration); err != nil {
		return err
	}

	r.logger.Info().Str("service_id", r.serviceID).Msg("registered service with consul")
	return nil
}

// Deregister removes the service from consul. Safe to call when Register has
// not run.
func (r *ConsulRegistry) Deregister() {
	if r.serviceID == "" {
		return
	}

	if err := r.client.Agent().ServiceDeregister(r.serviceID); err != nil {
		r.logger.Error().Err(err).Msg("failed to deregister service from consul")
	}
}
