package main

import (
	"flag"
	"log"
	"os"

	"github.com/pageza/alchemorsel-v2/gateway/internal/database"
	"github.com/pageza/alchemorsel-v2/gateway/internal/models"
)

func main() {
	rollback := flag.Bool("rollback", false, "Drop the ledger tables instead of migrating")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	path := os.Getenv("DB_PATH")
	if dsn == "" && path == "" {
		path = "data/gateway.db"
	}

	db, err := database.Open(dsn, path, nil)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if *rollback {
		if err := db.Migrator().DropTable(&models.GenerationRecord{}); err != nil {
			log.Fatalf("failed to drop ledger tables: %v", err)
		}
		log.Println("Dropped ledger tables")
		return
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	log.Println("Ledger migrations applied")
}
