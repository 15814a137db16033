//go:build unit

package data

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLive(t *testing.T) {
	f := live(bson.M{"type": "video"})

	if f["type"] != "video" {
		t.Errorf("expected caller filter to be kept, got %v", f["type"])
	}
	want := bson.M{"$ne": true}
	if !reflect.DeepEqual(f["deleted"], want) {
		t.Errorf("expected deleted clause %v, got %v", want, f["deleted"])
	}
}

func TestLive_NilFilter(t *testing.T) {
	f := live(nil)
	if len(f) != 1 {
		t.Errorf("expected only the deleted clause, got %v", f)
	}
}

func TestSearchFilter_QuotesTerm(t *testing.T) {
	clauses := searchFilter("a.b (c)", []string{"name", "point_person.name"})
	if len(clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(clauses))
	}
	first, ok := clauses[0].(bson.M)
	if !ok {
		t.Fatalf("expected bson.M clause, got %T", clauses[0])
	}
	re, ok := first["name"].(primitive.Regex)
	if !ok {
		t.Fatalf("expected regex on name, got %T", first["name"])
	}
	if re.Pattern != `a\.b \(c\)` {
		t.Errorf("expected quoted pattern, got %q", re.Pattern)
	}
	if re.Options != "i" {
		t.Errorf("expected case-insensitive option, got %q", re.Options)
	}
}

func TestInferFields(t *testing.T) {
	raw := func(v interface{}) bson.Raw {
		b, err := bson.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return b
	}
	docs := []bson.Raw{
		raw(bson.D{{Key: "name", Value: "Acme"}, {Key: "position", Value: int32(1)}}),
		raw(bson.D{{Key: "name", Value: "Globex"}, {Key: "position", Value: "2"}, {Key: "active", Value: true}}),
	}

	fields, err := InferFields(docs)
	if err != nil {
		t.Fatalf("InferFields failed: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}
	if fields[0].Name != "active" || fields[1].Name != "name" || fields[2].Name != "position" {
		t.Errorf("expected fields sorted by name, got %v", fields)
	}
	if fields[1].Occurrences != 2 {
		t.Errorf("expected name seen twice, got %d", fields[1].Occurrences)
	}
	if len(fields[2].Types) != 2 {
		t.Errorf("expected position to carry two types, got %v", fields[2].Types)
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("  Acme   Trading  Co "); got != "acme trading co" {
		t.Errorf("unexpected normalized name %q", got)
	}
}
