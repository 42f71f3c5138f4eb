// internals/helpers/reporter/reporter.go
package reporter

import (
	"log"

	"github.com/rollbar/rollbar-go"
	rollbarErrors "github.com/rollbar/rollbar-go/errors"

	"librarydesk_backend/internals/configs"
)

var enabled bool

// Init configures rollbar from ROLLBAR_TOKEN. Without a token every call only logs.
func Init(codeVersion string) {
	token := configs.GetEnv("ROLLBAR_TOKEN")
	if token == "" {
		log.Println("[INFO] ROLLBAR_TOKEN not set, error reporting goes to the log only")
		return
	}
	rollbar.SetToken(token)
	rollbar.SetEnvironment(configs.GetEnv("APP_ENV"))
	rollbar.SetCodeVersion(codeVersion)
	rollbar.SetServerRoot("librarydesk_backend")
	rollbar.SetStackTracer(rollbarErrors.StackTracer)
	enabled = true
	log.Println("✅ Rollbar enabled")
}

// Error logs err and forwards it with extras (request id, route, library id...).
func Error(err error, extras map[string]interface{}) {
	if err == nil {
		return
	}
	log.Printf("[ERROR] %+v %v", err, extras)
	if enabled {
		rollbar.Error(err, extras)
	}
}

func Warning(msg string, extras map[string]interface{}) {
	log.Printf("[WARN] %s %v", msg, extras)
	if enabled {
		rollbar.Warning(msg, extras)
	}
}

func Info(msg string, extras map[string]interface{}) {
	log.Printf("[INFO] %s %v", msg, extras)
	if enabled {
		rollbar.Info(msg, extras)
	}
}

// Close flushes queued items; call before exit.
func Close() {
	if enabled {
		rollbar.Close()
	}
}
