package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
)

// Stand-in ledger relayer for manual end-to-end runs. Honors the
// idempotency key: resubmitting a batch id returns the same tx hash.
func main() {
	var mu sync.Mutex
	seen := make(map[string]string)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "ok"}`)
	})

	http.HandleFunc("/transactions/batch", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			BatchID string `json:"batch_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.BatchID == "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": "missing batch_id"}`)
			return
		}

		mu.Lock()
		txHash, replay := seen[body.BatchID]
		if !replay {
			sum := sha256.Sum256([]byte(body.BatchID))
			txHash = "0x" + hex.EncodeToString(sum[:])
			seen[body.BatchID] = txHash
		}
		mu.Unlock()

		log.Printf("batch %s -> %s (replay=%v)", body.BatchID, txHash, replay)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"tx_hash": "%s"}`, txHash)
	})

	log.Println("Ledger stub starting on :3001")
	if err := http.ListenAndServe(":3001", nil); err != nil {
		log.Fatal(err)
	}
}
