package equipment

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Odenfis/sedimApp/internal/model"
	"pgregory.net/rapid"
)

var nameGen = rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,11}`)

func computerFieldsGen() *rapid.Generator[model.ComputerFields] {
	return rapid.Custom(func(t *rapid.T) model.ComputerFields {
		return model.ComputerFields{
			Name:     nameGen.Draw(t, "name"),
			Hostname: rapid.StringMatching(`[a-z0-9-]{0,12}`).Draw(t, "hostname"),
			Type:     rapid.SampledFrom([]model.ComputerType{model.ComputerDesktop, model.ComputerServer}).Draw(t, "type"),
			Status:   rapid.Bool().Draw(t, "status"),
		}
	})
}

// documentGen builds documents with unique computer ids
func documentGen() *rapid.Generator[*model.Document] {
	return rapid.Custom(func(t *rapid.T) *model.Document {
		var nextID int64 = 1
		doc := &model.Document{Areas: []model.Area{}}
		for range rapid.IntRange(0, 3).Draw(t, "areas") {
			area := model.Area{Name: nameGen.Draw(t, "area"), Locations: []model.Location{}}
			for range rapid.IntRange(0, 3).Draw(t, "locations") {
				loc := model.Location{Name: nameGen.Draw(t, "location"), Computers: []model.Computer{}}
				for range rapid.IntRange(0, 4).Draw(t, "computers") {
					f := computerFieldsGen().Draw(t, "computer")
					nextID += rapid.Int64Range(1, 1<<40).Draw(t, "idStep")
					loc.Computers = append(loc.Computers, model.Computer{
						ID: nextID, Name: f.Name, Hostname: f.Hostname, Type: f.Type, Status: f.Status,
					})
				}
				area.Locations = append(area.Locations, loc)
			}
			doc.Areas = append(doc.Areas, area)
		}
		return doc
	})
}

type computerAddr struct{ area, loc, comp int }

func computerAddrs(doc *model.Document) []computerAddr {
	var out []computerAddr
	for a, area := range doc.Areas {
		for l, loc := range area.Locations {
			for c := range loc.Computers {
				out = append(out, computerAddr{a, l, c})
			}
		}
	}
	return out
}

type locationAddr struct{ area, loc int }

func locationAddrs(doc *model.Document) []locationAddr {
	var out []locationAddr
	for a, area := range doc.Areas {
		for l := range area.Locations {
			out = append(out, locationAddr{a, l})
		}
	}
	return out
}

func allIDs(doc *model.Document) map[int64]bool {
	ids := make(map[int64]bool)
	for _, area := range doc.Areas {
		for _, loc := range area.Locations {
			for _, c := range loc.Computers {
				ids[c.ID] = true
			}
		}
	}
	return ids
}

func TestProperty_DeleteComputerShifts(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		doc := documentGen().Draw(t, "doc")
		addrs := computerAddrs(doc)
		if len(addrs) == 0 {
			t.Skip("no computers")
		}
		at := rapid.SampledFrom(addrs).Draw(t, "addr")

		got, err := DeleteComputer(doc, at.area, at.loc, at.comp)
		if err != nil {
			t.Fatalf("DeleteComputer() error = %v", err)
		}

		before := doc.Areas[at.area].Locations[at.loc].Computers
		after := got.Areas[at.area].Locations[at.loc].Computers
		if len(after) != len(before)-1 {
			t.Fatalf("len = %d, want %d", len(after), len(before)-1)
		}
		for i := range after {
			src := i
			if i >= at.comp {
				src = i + 1
			}
			if !reflect.DeepEqual(after[i], before[src]) {
				t.Fatalf("position %d = %#v, want %#v", i, after[i], before[src])
			}
		}

		// everything outside the addressed location is untouched
		got.Areas[at.area].Locations[at.loc].Computers = before
		if !reflect.DeepEqual(got, doc) {
			t.Fatalf("other nodes changed")
		}
	})
}

func TestProperty_CreateAppendsFreshID(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		doc := documentGen().Draw(t, "doc")
		addrs := locationAddrs(doc)
		if len(addrs) == 0 {
			t.Skip("no locations")
		}
		at := rapid.SampledFrom(addrs).Draw(t, "addr")
		fields := computerFieldsGen().Draw(t, "fields")

		got, err := UpsertComputer(doc, at.area, at.loc, New, fields)
		if err != nil {
			t.Fatalf("UpsertComputer() error = %v", err)
		}

		computers := got.Areas[at.area].Locations[at.loc].Computers
		last := computers[len(computers)-1]
		if allIDs(doc)[last.ID] {
			t.Fatalf("id %d already in document", last.ID)
		}
		if last.Name != fields.Name || last.Hostname != fields.Hostname || last.Type != fields.Type || last.Status != fields.Status {
			t.Fatalf("fields = %#v, want %#v", last, fields)
		}
		if len(computers) != len(doc.Areas[at.area].Locations[at.loc].Computers)+1 {
			t.Fatalf("computer not appended")
		}
	})
}

func TestProperty_UpdatePreservesID(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		doc := documentGen().Draw(t, "doc")
		addrs := computerAddrs(doc)
		if len(addrs) == 0 {
			t.Skip("no computers")
		}
		at := rapid.SampledFrom(addrs).Draw(t, "addr")
		fields := computerFieldsGen().Draw(t, "fields")

		got, err := UpsertComputer(doc, at.area, at.loc, at.comp, fields)
		if err != nil {
			t.Fatalf("UpsertComputer() error = %v", err)
		}

		want := model.Computer{
			ID:       doc.Areas[at.area].Locations[at.loc].Computers[at.comp].ID,
			Name:     fields.Name,
			Hostname: fields.Hostname,
			Type:     fields.Type,
			Status:   fields.Status,
		}
		if c := got.Areas[at.area].Locations[at.loc].Computers[at.comp]; !reflect.DeepEqual(c, want) {
			t.Fatalf("computer = %#v, want %#v", c, want)
		}
	})
}

func TestProperty_DeleteLocationCascades(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		doc := documentGen().Draw(t, "doc")
		addrs := locationAddrs(doc)
		if len(addrs) == 0 {
			t.Skip("no locations")
		}
		at := rapid.SampledFrom(addrs).Draw(t, "addr")

		got, err := DeleteLocation(doc, at.area, at.loc)
		if err != nil {
			t.Fatalf("DeleteLocation() error = %v", err)
		}
		if len(got.Areas[at.area].Locations) != len(doc.Areas[at.area].Locations)-1 {
			t.Fatalf("locations not reduced by one")
		}

		remaining := allIDs(got)
		for _, c := range doc.Areas[at.area].Locations[at.loc].Computers {
			if remaining[c.ID] {
				t.Fatalf("computer %d survived its location", c.ID)
			}
		}
	})
}

func TestProperty_ReplaceLoadRoundTrip(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	rapid.Check(t, func(t *rapid.T) {
		doc := documentGen().Draw(t, "doc")
		if err := store.Replace(ctx, doc); err != nil {
			t.Fatalf("Replace() error = %v", err)
		}
		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !reflect.DeepEqual(loaded, doc) {
			t.Fatalf("Load() = %#v, want %#v", loaded, doc)
		}
		if err := store.Replace(ctx, loaded); err != nil {
			t.Fatalf("Replace() error = %v", err)
		}
		again, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !reflect.DeepEqual(again, loaded) {
			t.Fatalf("replace(load()) changed the document")
		}
	})
}
