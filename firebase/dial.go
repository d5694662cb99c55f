package firebase

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const probeTimeout = 10 * time.Second

// FirestoreDialer connects to Cloud Firestore. Dial reads one document from
// ProbeCollection so that bad keys and unreachable endpoints fail here
// rather than on the first request.
type FirestoreDialer struct {
	ProbeCollection string
}

func (d FirestoreDialer) Dial(ctx context.Context, cred *Credential) (Client, error) {
	key, err := cred.JSON()
	if err != nil {
		return nil, err
	}
	client, err := firestore.NewClient(ctx, cred.ProjectID, option.WithCredentialsJSON(key))
	if err != nil {
		return nil, err
	}
	if err := probe(ctx, client, d.ProbeCollection); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (d FirestoreDialer) DialFallback(ctx context.Context, projectID string) (Client, error) {
	client, err := firestore.NewClient(ctx, projectID, option.WithoutAuthentication())
	if err != nil {
		return nil, err
	}
	return client, nil
}

func probe(ctx context.Context, client *firestore.Client, collection string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	iter := client.Collection(collection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}
