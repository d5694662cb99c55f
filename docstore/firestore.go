package docstore

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreCollection adapts a Firestore collection to Collection.
type FirestoreCollection struct {
	ref *firestore.CollectionRef
}

// CollectionOpener is satisfied by *firestore.Client.
type CollectionOpener interface {
	Collection(path string) *firestore.CollectionRef
}

func NewFirestoreCollection(client CollectionOpener, name string) *FirestoreCollection {
	return &FirestoreCollection{ref: client.Collection(name)}
}

func (c *FirestoreCollection) Get(ctx context.Context, id string) (map[string]any, bool, error) {
	snap, err := c.ref.Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !snap.Exists() {
		return nil, false, nil
	}
	return snap.Data(), true, nil
}

func (c *FirestoreCollection) Set(ctx context.Context, id string, data map[string]any) error {
	_, err := c.ref.Doc(id).Set(ctx, data)
	return err
}

func (c *FirestoreCollection) Update(ctx context.Context, id string, fields map[string]any) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{Path: k, Value: fields[k]})
	}
	_, err := c.ref.Doc(id).Update(ctx, updates)
	return err
}

func (c *FirestoreCollection) Delete(ctx context.Context, id string) error {
	_, err := c.ref.Doc(id).Delete(ctx)
	return err
}

func (c *FirestoreCollection) Query(ctx context.Context, q Query) ([]Snapshot, error) {
	query := c.ref.Query
	if q.ArrayContains != nil {
		query = query.Where(q.ArrayContains.Field, "array-contains", q.ArrayContains.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Descending {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(docs))
	for _, doc := range docs {
		snapshots = append(snapshots, Snapshot{ID: doc.Ref.ID, Data: doc.Data()})
	}
	return snapshots, nil
}
