package relay

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// File is the YAML route file.
//
//	routes:
//	  - path: /a
//	    calls:
//	      - name: b
//	        url: http://localhost:8001/b
//	      - name: c
//	        url: http://localhost:8002/c
//	      - name: inventory
//	        url: grpc://localhost:50051/inventory
//	  - path: /b
//	    status: 200
//	    delay: 15ms
type File struct {
	Routes []Route `yaml:"routes"`
}

// Route is one endpoint of the hop service.
type Route struct {
	Path   string `yaml:"path"`
	Method string `yaml:"method,omitempty"`
	// Status answered when every call succeeded. Defaults to 200.
	Status int `yaml:"status,omitempty"`
	// Delay simulates local work before the calls are made.
	Delay string `yaml:"delay,omitempty"`
	Calls []Call `yaml:"calls,omitempty"`

	delay time.Duration
}

// Call is one downstream request made by a route, in order. A grpc:// URL
// runs a gRPC health check against host:port for the named service.
type Call struct {
	Name   string `yaml:"name,omitempty"`
	URL    string `yaml:"url"`
	Method string `yaml:"method,omitempty"`
}

// LoadFile reads and validates a route file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates route YAML. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parse routes: %w", err)
	}
	if err := f.normalize(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) normalize() error {
	seen := make(map[string]bool, len(f.Routes))
	for i := range f.Routes {
		r := &f.Routes[i]

		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("route %d: path %q must start with /", i, r.Path)
		}
		r.Method = strings.ToUpper(r.Method)
		if r.Method == "" {
			r.Method = http.MethodGet
		}
		key := r.Method + " " + r.Path
		if seen[key] {
			return fmt.Errorf("route %d: duplicate %s", i, key)
		}
		seen[key] = true

		if r.Status == 0 {
			r.Status = http.StatusOK
		}
		if r.Status < 100 || r.Status > 599 {
			return fmt.Errorf("route %s: invalid status %d", r.Path, r.Status)
		}

		if r.Delay != "" {
			d, err := time.ParseDuration(r.Delay)
			if err != nil || d < 0 {
				return fmt.Errorf("route %s: invalid delay %q", r.Path, r.Delay)
			}
			r.delay = d
		}

		for j := range r.Calls {
			c := &r.Calls[j]
			if c.URL == "" {
				return fmt.Errorf("route %s: call %d has no url", r.Path, j)
			}
			c.Method = strings.ToUpper(c.Method)
			if c.Method == "" {
				c.Method = http.MethodGet
			}
			if c.Name == "" {
				c.Name = c.URL
			}
		}
	}
	return nil
}
