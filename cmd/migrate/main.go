package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/samirrijal/placemap/internal/pkg/config"
	"github.com/samirrijal/placemap/internal/pkg/logging"
	"github.com/samirrijal/placemap/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down [steps]|version>")
	}

	cfg, err := config.Load("placemap-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text", cfg.Telemetry.ServiceName)

	dsn := cfg.Database.DSN()

	switch os.Args[1] {
	case "up":
		if err := migrations.Up(dsn); err != nil {
			log.Fatalf("up: %v", err)
		}
		log.Println("all migrations applied")
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			if steps, err = strconv.Atoi(os.Args[2]); err != nil {
				log.Fatalf("invalid steps %q: %v", os.Args[2], err)
			}
		}
		if err := migrations.Down(dsn, steps); err != nil {
			log.Fatalf("down: %v", err)
		}
		log.Printf("rolled back %d migration(s)", steps)
	case "version":
		v, dirty, err := migrations.Version(dsn)
		if err != nil {
			log.Fatalf("version: %v", err)
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
