// Command tiercache is an operations CLI for the venuekit cache: inspect
// statistics, probe keys, and invalidate patterns against a running
// deployment.
//
// Usage:
//
//	tiercache [-config tiercache.yaml] stats
//	tiercache [-config tiercache.yaml] get <namespace> <name>
//	tiercache [-config tiercache.yaml] set <namespace> <name> <json> [ttl]
//	tiercache [-config tiercache.yaml] delete <namespace> <name>
//	tiercache [-config tiercache.yaml] invalidate <namespace> <glob>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/venuekit/tiercache/pkg/cache"
	"github.com/venuekit/tiercache/pkg/logging"
)

func main() {
	// Optional .env next to the binary; real env wins.
	_ = godotenv.Load()

	configPath := flag.String("config", getEnv("TIERCACHE_CONFIG", "tiercache.yaml"), "path to YAML config")
	logLevel := flag.String("log-level", getEnv("LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")
	flag.Parse()

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(*logLevel),
		Pretty: true,
		Output: os.Stderr,
	})

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration error")
	}

	manager, err := cache.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create cache manager")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := manager.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize cache manager")
	}
	defer manager.Close()

	if err := run(ctx, manager, flag.Args()); err != nil {
		logger.Fatal().Err(err).Msg("command failed")
	}
}

// loadConfig reads the YAML config file, falling back to environment
// variables when the file does not exist.
func loadConfig(path string) (cache.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return cache.LoadConfig(path)
	}

	local := os.Getenv("TIERCACHE_LOCAL_ADDR")
	distant := os.Getenv("TIERCACHE_DISTANT_ADDR")
	if local == "" || distant == "" {
		return cache.Config{}, fmt.Errorf(
			"no config file at %s and TIERCACHE_LOCAL_ADDR/TIERCACHE_DISTANT_ADDR not set", path)
	}
	return cache.DefaultConfig(local, distant), nil
}

func run(ctx context.Context, manager *cache.Manager, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command (stats, get, set, delete, invalidate)")
	}

	switch args[0] {
	case "stats":
		return printJSON(manager.Stats(ctx))

	case "get":
		if len(args) != 3 {
			return fmt.Errorf("usage: get <namespace> <name>")
		}
		res := manager.Get(ctx, args[1], args[2])
		if !res.Hit {
			fmt.Println("absent")
			return nil
		}
		var value any
		if err := manager.Decode(res.Payload, &value); err != nil {
			return err
		}
		fmt.Printf("tier: %s\n", res.Tier)
		return printJSON(value)

	case "set":
		if len(args) < 4 || len(args) > 5 {
			return fmt.Errorf("usage: set <namespace> <name> <json> [ttl]")
		}
		var value any
		if err := json.Unmarshal([]byte(args[3]), &value); err != nil {
			return fmt.Errorf("value is not valid JSON: %w", err)
		}
		var ttl time.Duration
		if len(args) == 5 {
			var err error
			if ttl, err = time.ParseDuration(args[4]); err != nil {
				return fmt.Errorf("invalid ttl: %w", err)
			}
		}
		return manager.Set(ctx, args[1], args[2], value, ttl)

	case "delete":
		if len(args) != 3 {
			return fmt.Errorf("usage: delete <namespace> <name>")
		}
		return manager.Delete(ctx, args[1], args[2])

	case "invalidate":
		if len(args) != 3 {
			return fmt.Errorf("usage: invalidate <namespace> <glob>")
		}
		removed, err := manager.InvalidatePattern(ctx, args[1], args[2])
		fmt.Printf("removed %d keys\n", removed)
		return err

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
