package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/wavecore/masterstream/internal/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := database.Initialize(); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()

	fmt.Println("Verifying fingerprint table...")
	fmt.Println()

	var total int64
	database.DB.Model(&database.FingerprintRow{}).Count(&total)

	counts := map[database.FingerprintStatus]int64{}
	for _, status := range []database.FingerprintStatus{
		database.FingerprintPending,
		database.FingerprintProcessing,
		database.FingerprintComplete,
		database.FingerprintError,
	} {
		var n int64
		database.DB.Model(&database.FingerprintRow{}).Where("fingerprint_status = ?", status).Count(&n)
		counts[status] = n
	}

	fmt.Printf("Total rows:  %d\n", total)
	fmt.Printf("  pending:    %d\n", counts[database.FingerprintPending])
	fmt.Printf("  processing: %d\n", counts[database.FingerprintProcessing])
	fmt.Printf("  complete:   %d\n", counts[database.FingerprintComplete])
	fmt.Printf("  error:      %d\n", counts[database.FingerprintError])
	fmt.Println()

	var sample []database.FingerprintRow
	database.DB.Where("fingerprint_status = ?", database.FingerprintComplete).Limit(5).Find(&sample)
	if len(sample) > 0 {
		fmt.Println("Sample completed fingerprints:")
		for _, row := range sample {
			fmt.Printf("  - %s (hash=%s, version=%d)\n", row.TrackID, row.Hash, row.Version)
		}
	}

	var stale []database.FingerprintRow
	database.DB.Where("fingerprint_status = ?", database.FingerprintError).Limit(5).Find(&stale)
	if len(stale) > 0 {
		fmt.Println()
		fmt.Println("Tracks stuck in error:")
		for _, row := range stale {
			fmt.Printf("  - %s: %s\n", row.TrackID, row.ErrorMessage)
		}
	}

	fmt.Println()
	fmt.Println("Seed verification complete.")
}
