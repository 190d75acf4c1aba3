// Roster DB inspection utility.
//
//	admin -db data/rosters.db list
//	admin -db data/rosters.db show <roster-id>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"shoshin/internal/persistence/indexdb"
)

func main() {
	dbPath := flag.String("db", "./data/rosters.db", "path to roster db")
	flag.Parse()

	logger := log.New(os.Stderr, "[admin] ", log.LstdFlags)

	store, err := indexdb.Open(*dbPath)
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	switch cmd := flag.Arg(0); cmd {
	case "list", "":
		rows, err := store.ListRosters(ctx)
		if err != nil {
			logger.Fatalf("list: %v", err)
		}
		for _, r := range rows {
			fmt.Printf("%s  %-24s  units=%d points=%d  %s\n",
				r.ID, r.Name, r.Totals.UnitCount, r.Totals.Points,
				r.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
	case "show":
		id := flag.Arg(1)
		if id == "" {
			logger.Fatalf("show: missing roster id")
		}
		row, err := store.GetRoster(ctx, id)
		if err != nil {
			logger.Fatalf("show: %v", err)
		}
		out, _ := json.MarshalIndent(row, "", "  ")
		fmt.Println(string(out))
	default:
		logger.Fatalf("unknown command %q (want list|show)", cmd)
	}
}
