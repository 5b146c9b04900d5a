package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getOrdira/ordira-voting/internal/models"
	"github.com/google/uuid"
)

func testSubmission() Submission {
	return Submission{
		BatchID:    uuid.New(),
		BusinessID: uuid.New(),
		ProposalID: uuid.New(),
		Intents:    []models.VoteIntent{{ID: uuid.New()}},
	}
}

func TestSubmitBatch(t *testing.T) {
	sub := testSubmission()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions/batch" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Idempotency-Key"); got != sub.BatchID.String() {
			t.Errorf("idempotency key = %q, want batch id", got)
		}
		if got := r.Header.Get("X-API-Key"); got != "secret" {
			t.Errorf("api key = %q", got)
		}

		var received Submission
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(received.Intents) != 1 {
			t.Errorf("intents = %d, want 1", len(received.Intents))
		}

		json.NewEncoder(w).Encode(map[string]string{"tx_hash": "0xdeadbeef"})
	}))
	defer server.Close()

	gw := NewHTTPGateway(server.URL, "secret", 5*time.Second)

	receipt, err := gw.SubmitBatch(context.Background(), sub)
	if err != nil {
		t.Fatal(err)
	}
	if receipt.TxHash != "0xdeadbeef" {
		t.Errorf("tx hash = %q", receipt.TxHash)
	}
	if receipt.SubmittedAt.IsZero() {
		t.Error("submitted at not set")
	}
}

func TestSubmitBatchRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "batch already finalized"})
	}))
	defer server.Close()

	gw := NewHTTPGateway(server.URL, "", 5*time.Second)

	_, err := gw.SubmitBatch(context.Background(), testSubmission())
	var lerr *Error
	if !errors.As(err, &lerr) {
		t.Fatalf("err = %v, want *ledger.Error", err)
	}
	if lerr.Kind != ErrKindRejected {
		t.Errorf("kind = %s, want rejected", lerr.Kind)
	}
}

func TestSubmitBatchEmptyTxHashRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"tx_hash": ""})
	}))
	defer server.Close()

	gw := NewHTTPGateway(server.URL, "", 5*time.Second)

	_, err := gw.SubmitBatch(context.Background(), testSubmission())
	var lerr *Error
	if !errors.As(err, &lerr) || lerr.Kind != ErrKindRejected {
		t.Fatalf("err = %v, want rejected kind", err)
	}
}

func TestSubmitBatchTimeout(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	gw := NewHTTPGateway(server.URL, "", 100*time.Millisecond)

	_, err := gw.SubmitBatch(context.Background(), testSubmission())
	var lerr *Error
	if !errors.As(err, &lerr) {
		t.Fatalf("err = %v, want *ledger.Error", err)
	}
	if lerr.Kind != ErrKindTimeout {
		t.Errorf("kind = %s, want timeout", lerr.Kind)
	}
}

func TestSubmitBatchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse the connection

	gw := NewHTTPGateway(server.URL, "", 5*time.Second)

	_, err := gw.SubmitBatch(context.Background(), testSubmission())
	var lerr *Error
	if !errors.As(err, &lerr) {
		t.Fatalf("err = %v, want *ledger.Error", err)
	}
	if lerr.Kind != ErrKindNetwork {
		t.Errorf("kind = %s, want network", lerr.Kind)
	}
}
