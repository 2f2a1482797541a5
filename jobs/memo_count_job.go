package jobs

import (
	"log"

	"github.com/anjiri1684/community_board/database"
	"github.com/anjiri1684/community_board/services"
)

func ReconcileMemoCounts() {
	log.Println("Running job: ReconcileMemoCounts...")

	fixed, err := services.ReconcileMemoCounts(database.DB)
	if err != nil {
		log.Printf("Error reconciling memo counts: %v", err)
		return
	}

	if fixed == 0 {
		log.Println("No drifted memo counters found.")
		return
	}

	log.Printf("Repaired %d drifted memo counter(s).", fixed)
}
