// Command lwm2m-bs is a tool for working with LwM2M bootstrap configurations,
// client identities and bootstrap session logs.
//
// Usage:
//
//	lwm2m-bs <command> [flags]
//
// Commands:
//
//	plan      Print the requests a bootstrap session would send
//	config    Manage bootstrap configurations in a sqlite database
//	identity  Encode and decode persisted client identities
//	oscore    Derive OSCORE contexts and store OSCORE parameters
//	log       View, export, filter and summarize session logs
//
// Examples:
//
//	# Plan a session for a configuration file
//	lwm2m-bs plan device.yaml
//
//	# Plan the second turn of an auto-id session
//	lwm2m-bs plan --discover '</>;lwm2m=1.1,</0/3>,</0/7>' device.yaml
//
//	# Import a configuration into the database
//	lwm2m-bs config put --db bs.db urn:dev:1 device.yaml
//
//	# Show statistics for a session log
//	lwm2m-bs log stats bootstrap.blog
//
// Settings are also read from the environment and from a .env file in the
// working directory: LWM2M_BS_DB and LWM2M_LOG_LEVEL.
package main

import (
	"os"

	"github.com/lwm2m-go/lwm2m/cmd/lwm2m-bs/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
