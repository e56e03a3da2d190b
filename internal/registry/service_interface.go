package registry

// Service is a long-running part of the agent managed by the service registry.
type Service interface {
	Start() error
	Stop() error
}
