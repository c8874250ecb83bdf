package seed

// Config is the top-level structure of the seed file.
//
//	statuses:
//	  - name: up
//	    description: Service is operating normally
//	services:
//	  - name: db
//	    description: Primary database
//	    status: up
//	    message: Initial state
type Config struct {
	Statuses []StatusProps  `yaml:"statuses"`
	Services []ServiceProps `yaml:"services"`
}

type StatusProps struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// ServiceProps describes a service. Status and Message, when set, become
// the service's first event if it has none yet.
type ServiceProps struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Status      string `yaml:"status,omitempty"`
	Message     string `yaml:"message,omitempty"`
}
