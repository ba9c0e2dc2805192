// Package inventory models managed hosts and groups.
//
// Inventories are YAML documents loaded with koanf:
//
//	hosts:
//	  web1.example.com:
//	    vars:
//	      http_port: 8080
//	groups:
//	  web:
//	    hosts: [web1.example.com, web2.example.com]
//	    vars:
//	      os_family: debian
//
// Hosts are shared between concurrently running task pipelines, so every accessor
// returns copies taken under the host's read lock.
package inventory
