// Package config loads the configuration shared by the catree commands.
//
// Values are layered: built-in defaults, then a YAML file, then CATREE_*
// environment variables, then command-line flags applied by each command.
// Commands load .env files with LoadEnvFiles before Load so that their
// variables take part in the environment step.
//
// Example file:
//
//	naming:
//	  recordPrefix: "CPSW:"
//	  maxLen: 45
//	server:
//	  address: ":5064"
//	  name: ioc-lab-1
//	  tree: /etc/catree/tree.yaml
//	client:
//	  address: ioc-lab-1:5064
//	  requestTimeout: 5s
//	log:
//	  level: debug
//	  file: /var/log/catree/ioc.log
//	  protocol: /var/log/catree/ioc.clog
//	discovery:
//	  advertise: true
package config
