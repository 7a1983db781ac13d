package search

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/vocab"
)

const testNS = "https://example.org/onts/plants#"

func addLabeled(ont *owl.Ontology, local, label string, synonyms map[string]string) {
	iri := owl.IRI(testNS + local)
	ont.AddAxiom(owl.Declaration{Kind: owl.ClassKind, Subject: iri})
	ont.AddAxiom(owl.AnnotationAssertion{
		Subject:  iri,
		Property: owl.IRI(vocab.RDFSLabel),
		Value:    owl.Literal{Value: label, Lang: "en"},
	})
	for prop, text := range synonyms {
		ont.AddAxiom(owl.AnnotationAssertion{
			Subject:  iri,
			Property: owl.IRI(prop),
			Value:    owl.Literal{Value: text},
		})
	}
}

func plantOntology() *owl.Ontology {
	ont := owl.NewOntology("https://example.org/onts/plants")
	addLabeled(ont, "whole_plant", "whole plant", map[string]string{
		vocab.SKOSAltLabel: "plant body",
	})
	addLabeled(ont, "leaf", "leaf", map[string]string{
		vocab.OBOHasSynonym:      "foliage leaf",
		vocab.OBOHasExactSynonym: "frond",
	})
	addLabeled(ont, "flowering_shoot", "flowering shoot", nil)
	addLabeled(ont, "flower", "flowers", nil)
	return ont
}

func TestSearchExactLabelRanksFirst(t *testing.T) {
	ix := Build(plantOntology())

	matches := ix.Search("leaf")
	if len(matches) == 0 {
		t.Fatal("Search(leaf) returned no matches")
	}
	if matches[0].IRI != owl.IRI(testNS+"leaf") || matches[0].Rank != RankExactLabel {
		t.Errorf("top match = %v (%v), want exact label on leaf", matches[0].IRI, matches[0].Rank)
	}
}

func TestSearchSynonym(t *testing.T) {
	ix := Build(plantOntology())

	matches := ix.Search("frond")
	if len(matches) != 1 {
		t.Fatalf("Search(frond) = %d matches, want 1", len(matches))
	}
	if matches[0].IRI != owl.IRI(testNS+"leaf") || matches[0].Rank != RankExactSynonym {
		t.Errorf("match = %v (%v), want exact synonym on leaf", matches[0].IRI, matches[0].Rank)
	}
	// The label that produced the hit is reported alongside the entity's
	// primary label.
	if matches[0].Text != "frond" || matches[0].Label != "leaf" {
		t.Errorf("match text/label = %q/%q", matches[0].Text, matches[0].Label)
	}
}

func TestSearchStemCollision(t *testing.T) {
	// "flowering shoot" and "flowers" share the stem "flower"; a query on
	// the shared stem must return both entities.
	ix := Build(plantOntology())

	matches := ix.Search("flower")
	got := make(map[owl.IRI]bool)
	for _, m := range matches {
		got[m.IRI] = true
	}
	if !got[owl.IRI(testNS+"flower")] || !got[owl.IRI(testNS+"flowering_shoot")] {
		t.Errorf("Search(flower) matched %v, want both flower and flowering_shoot", got)
	}
}

func TestSearchRankingAndTieBreak(t *testing.T) {
	ix := Build(plantOntology())

	// Multi-token query where only some tokens hit ranks below a full
	// stemmed hit.
	matches := ix.Search("flowering shoot")
	if len(matches) < 2 {
		t.Fatalf("Search(flowering shoot) = %d matches, want at least 2", len(matches))
	}
	if matches[0].IRI != owl.IRI(testNS+"flowering_shoot") || matches[0].Rank != RankExactLabel {
		t.Errorf("top match = %v (%v)", matches[0].IRI, matches[0].Rank)
	}
	for _, m := range matches[1:] {
		if m.Rank < matches[0].Rank {
			t.Errorf("ranks out of order: %v after %v", m.Rank, matches[0].Rank)
		}
	}

	// Same query twice gives identical ordering.
	again := ix.Search("flowering shoot")
	for i := range matches {
		if again[i].IRI != matches[i].IRI {
			t.Fatalf("ordering not deterministic at %d: %v vs %v", i, again[i].IRI, matches[i].IRI)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	ix := Build(plantOntology())
	if matches := ix.Search("   "); matches != nil {
		t.Errorf("Search(blank) = %v, want nil", matches)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenStore(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer store.Close()

	ix := Build(plantOntology())
	mtime := time.Unix(1700000000, 0)
	if err := store.SaveIndex("plants.owl", mtime, ix); err != nil {
		t.Fatalf("SaveIndex() error = %v", err)
	}

	loaded, err := store.LoadIndex("plants.owl", mtime)
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadIndex() = nil for a fresh index")
	}
	if loaded.Size() != ix.Size() {
		t.Errorf("loaded %d entries, want %d", loaded.Size(), ix.Size())
	}

	want := ix.Search("frond")
	got := loaded.Search("frond")
	if len(got) != len(want) || got[0].IRI != want[0].IRI || got[0].Rank != want[0].Rank {
		t.Errorf("loaded index search = %v, want %v", got, want)
	}

	// A changed source mtime invalidates the persisted index.
	stale, err := store.LoadIndex("plants.owl", mtime.Add(time.Minute))
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	if stale != nil {
		t.Error("LoadIndex() returned a stale index")
	}

	// Unknown sources have no index.
	missing, err := store.LoadIndex("other.owl", mtime)
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	if missing != nil {
		t.Error("LoadIndex() returned an index for an unknown source")
	}
}
