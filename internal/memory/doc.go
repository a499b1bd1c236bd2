// Package memory sets the Go runtime memory limit when the server runs in
// a memory-limited container.
//
// Environment variables:
//   - GOMEMLIMIT: standard Go variable, takes precedence and is left as is
//   - MEMORY_LIMIT: container limit in bytes
//   - MEMORY_RATIO: share of MEMORY_LIMIT for the Go heap (default 0.25)
//
// Kubernetes can pass the container limit through the Downward API:
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
package memory
