package metrics

import (
	"time"

	"github.com/google/uuid"
)

// Transaction carries the per-request measurements threaded through one
// client connection, from accept to close.
type Transaction struct {
	ID          string
	StartAt     time.Time
	RemoteAddr  string
	Method      string
	URI         string
	Host        string
	Status      int
	CacheStatus string
	SentBytes   uint64
	RecvBytes   uint64
}

// NewTransaction starts the measurement clock and assigns a request id.
func NewTransaction(remoteAddr string) *Transaction {
	return &Transaction{
		ID:          uuid.NewString(),
		StartAt:     time.Now(),
		RemoteAddr:  remoteAddr,
		CacheStatus: "-",
	}
}

// Duration returns elapsed wall time since accept.
func (t *Transaction) Duration() time.Duration {
	return time.Since(t.StartAt)
}
