package data

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FieldInfo summarizes one top-level field seen in sampled documents.
type FieldInfo struct {
	Name        string   `json:"name"`
	Types       []string `json:"types"`
	Occurrences int      `json:"occurrences"`
}

// CollectionSample is what inspecting a collection yields.
type CollectionSample struct {
	Name        string      `json:"name"`
	Count       int64       `json:"count"`
	SampledDocs int         `json:"sampled_docs"`
	Fields      []FieldInfo `json:"fields"`
}

// CollectionInspector reads collection metadata from the platform database.
type CollectionInspector struct {
	db *mongo.Database
}

// NewCollectionInspector creates a new CollectionInspector.
func NewCollectionInspector(db *mongo.Database) *CollectionInspector {
	return &CollectionInspector{db: db}
}

// Names lists user collections, skipping system.* and GridFS internals.
func (i *CollectionInspector) Names(ctx context.Context) ([]string, error) {
	names, err := i.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasPrefix(n, "system.") || strings.HasPrefix(n, UploadsBucket+".") {
			continue
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Inspect counts a collection and infers its fields from a random sample.
func (i *CollectionInspector) Inspect(ctx context.Context, name string, sampleSize int) (*CollectionSample, error) {
	coll := i.db.Collection(name)
	count, err := coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", name, err)
	}

	cur, err := coll.Aggregate(ctx, mongo.Pipeline{{{Key: "$sample", Value: bson.M{"size": sampleSize}}}})
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s: %w", name, err)
	}
	var docs []bson.Raw
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode sample of %s: %w", name, err)
	}

	fields, err := InferFields(docs)
	if err != nil {
		return nil, fmt.Errorf("failed to infer fields of %s: %w", name, err)
	}
	return &CollectionSample{Name: name, Count: count, SampledDocs: len(docs), Fields: fields}, nil
}

// InferFields merges the top-level keys and BSON types of docs, sorted by name.
func InferFields(docs []bson.Raw) ([]FieldInfo, error) {
	type acc struct {
		types map[string]struct{}
		seen  int
	}
	byName := map[string]*acc{}
	for _, doc := range docs {
		elems, err := doc.Elements()
		if err != nil {
			return nil, err
		}
		for _, el := range elems {
			a, ok := byName[el.Key()]
			if !ok {
				a = &acc{types: map[string]struct{}{}}
				byName[el.Key()] = a
			}
			a.seen++
			a.types[el.Value().Type.String()] = struct{}{}
		}
	}

	fields := make([]FieldInfo, 0, len(byName))
	for name, a := range byName {
		types := make([]string, 0, len(a.types))
		for t := range a.types {
			types = append(types, t)
		}
		sort.Strings(types)
		fields = append(fields, FieldInfo{Name: name, Types: types, Occurrences: a.seen})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields, nil
}
