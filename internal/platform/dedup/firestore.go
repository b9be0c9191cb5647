package dedup

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultCollection = "seenTransactions"

// FirestoreOption customises the FirestoreStore behaviour.
type FirestoreOption func(*FirestoreStore)

// WithCollection overrides the collection name used to store seen transactions.
func WithCollection(name string) FirestoreOption {
	return func(store *FirestoreStore) {
		if name != "" {
			store.collection = name
		}
	}
}

// FirestoreStore implements Store backed by Google Cloud Firestore. Document
// ids are the provider transaction ids, so concurrent webhook deliveries
// across instances race on the same document and exactly one wins.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore constructs a Firestore-backed dedup store.
func NewFirestoreStore(client *firestore.Client, opts ...FirestoreOption) *FirestoreStore {
	store := &FirestoreStore{
		client:     client,
		collection: defaultCollection,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

type firestoreRecord struct {
	TransactionID string    `firestore:"transaction_id"`
	NotifiedAt    time.Time `firestore:"notified_at"`
}

// MarkNotified implements the Store interface.
func (s *FirestoreStore) MarkNotified(ctx context.Context, transactionID string, now time.Time) (bool, error) {
	ref := s.client.Collection(s.collection).Doc(transactionID)

	record := firestoreRecord{
		TransactionID: transactionID,
		NotifiedAt:    now.UTC(),
	}

	_, err := ref.Create(ctx, record)
	if err == nil {
		return false, nil
	}
	if status.Code(err) == codes.AlreadyExists {
		return true, nil
	}
	return false, err
}
