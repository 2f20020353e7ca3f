package equipment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Odenfis/sedimApp/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// New addresses a position that does not exist yet; upserts append instead
// of replacing.
const New = -1

var validate = validator.New()

// now is replaced in tests
var now = time.Now

// Op is one edit applied to a document. It must not modify its input.
type Op func(doc *model.Document) (*model.Document, error)

// UpsertArea appends a new area when areaIdx is New, otherwise renames the
// area at areaIdx and leaves its locations alone.
func UpsertArea(doc *model.Document, areaIdx int, fields model.NameFields) (*model.Document, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}
	out := doc.Clone()
	if areaIdx == New {
		out.Areas = append(out.Areas, model.Area{
			ID:        newNodeID(),
			Name:      fields.Name,
			Locations: []model.Location{},
		})
		return out, nil
	}
	if err := checkIndex("area", areaIdx, len(out.Areas)); err != nil {
		return nil, err
	}
	out.Areas[areaIdx].Rename(fields.Name)
	return out, nil
}

// DeleteArea removes the area at areaIdx with everything under it
func DeleteArea(doc *model.Document, areaIdx int) (*model.Document, error) {
	out := doc.Clone()
	if err := checkIndex("area", areaIdx, len(out.Areas)); err != nil {
		return nil, err
	}
	out.Areas = append(out.Areas[:areaIdx], out.Areas[areaIdx+1:]...)
	return out, nil
}

// UpsertLocation appends a new location with no computers when locIdx is New,
// otherwise renames the location at locIdx.
func UpsertLocation(doc *model.Document, areaIdx, locIdx int, fields model.NameFields) (*model.Document, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}
	out := doc.Clone()
	area, err := areaAt(out, areaIdx)
	if err != nil {
		return nil, err
	}
	if locIdx == New {
		area.Locations = append(area.Locations, model.Location{
			ID:        newNodeID(),
			Name:      fields.Name,
			Computers: []model.Computer{},
		})
		return out, nil
	}
	if err := checkIndex("location", locIdx, len(area.Locations)); err != nil {
		return nil, err
	}
	area.Locations[locIdx].Rename(fields.Name)
	return out, nil
}

// DeleteLocation removes the location at locIdx together with its computers
func DeleteLocation(doc *model.Document, areaIdx, locIdx int) (*model.Document, error) {
	out := doc.Clone()
	area, err := areaAt(out, areaIdx)
	if err != nil {
		return nil, err
	}
	if err := checkIndex("location", locIdx, len(area.Locations)); err != nil {
		return nil, err
	}
	area.Locations = append(area.Locations[:locIdx], area.Locations[locIdx+1:]...)
	return out, nil
}

// UpsertComputer appends a computer with a fresh id when compIdx is New.
// Otherwise it overwrites the fields of the computer at compIdx and keeps its id.
func UpsertComputer(doc *model.Document, areaIdx, locIdx, compIdx int, fields model.ComputerFields) (*model.Document, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}
	out := doc.Clone()
	loc, err := locationAt(out, areaIdx, locIdx)
	if err != nil {
		return nil, err
	}

	if compIdx == New {
		loc.Computers = append(loc.Computers, model.Computer{
			ID:       nextComputerID(out),
			Name:     fields.Name,
			Hostname: fields.Hostname,
			Type:     fields.Type,
			Status:   fields.Status,
		})
		return out, nil
	}

	if err := checkIndex("computer", compIdx, len(loc.Computers)); err != nil {
		return nil, err
	}
	loc.Computers[compIdx].SetFields(fields)
	return out, nil
}

// DeleteComputer removes the computer at compIdx; later computers shift down
func DeleteComputer(doc *model.Document, areaIdx, locIdx, compIdx int) (*model.Document, error) {
	out := doc.Clone()
	loc, err := locationAt(out, areaIdx, locIdx)
	if err != nil {
		return nil, err
	}
	if err := checkIndex("computer", compIdx, len(loc.Computers)); err != nil {
		return nil, err
	}
	loc.Computers = append(loc.Computers[:compIdx], loc.Computers[compIdx+1:]...)
	return out, nil
}

// nextComputerID returns an id greater than every id in doc and not less than
// the current time in milliseconds.
func nextComputerID(doc *model.Document) int64 {
	next := now().UnixMilli()
	for _, area := range doc.Areas {
		for _, loc := range area.Locations {
			for _, c := range loc.Computers {
				if c.ID > next {
					next = c.ID
				}
			}
		}
	}
	return next + 1
}

func newNodeID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func areaAt(doc *model.Document, areaIdx int) (*model.Area, error) {
	if err := checkIndex("area", areaIdx, len(doc.Areas)); err != nil {
		return nil, err
	}
	return &doc.Areas[areaIdx], nil
}

func locationAt(doc *model.Document, areaIdx, locIdx int) (*model.Location, error) {
	area, err := areaAt(doc, areaIdx)
	if err != nil {
		return nil, err
	}
	if err := checkIndex("location", locIdx, len(area.Locations)); err != nil {
		return nil, err
	}
	return &area.Locations[locIdx], nil
}

func checkIndex(kind string, idx, n int) error {
	if idx < 0 || idx >= n {
		return &IndexError{Kind: kind, Index: idx, Len: n}
	}
	return nil
}

func validateFields(fields any) error {
	err := validate.Struct(fields)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return &ValidationError{Field: field, Message: "is required"}
		case "oneof":
			return &ValidationError{Field: field, Message: "must be one of: " + fe.Param()}
		default:
			return &ValidationError{Field: field, Message: "failed " + fe.Tag() + " check"}
		}
	}
	return &ValidationError{Message: err.Error()}
}

// Editor runs edits as load, mutate, persist units against a Store
type Editor struct {
	store Store
}

// NewEditor creates an editor writing through store
func NewEditor(store Store) *Editor {
	return &Editor{store: store}
}

// Apply loads the current document, applies op and writes the result with a
// version check. When expectedVersion is not empty the loaded document must
// carry that version. The returned document and version are only set when the
// write succeeded.
func (e *Editor) Apply(ctx context.Context, expectedVersion string, op Op) (*model.Document, string, error) {
	current, err := e.store.Load(ctx)
	if err != nil {
		return nil, "", err
	}

	base := Version(current)
	if expectedVersion != "" && expectedVersion != base {
		return nil, "", &ConflictError{Expected: expectedVersion, Actual: base}
	}

	updated, err := op(current)
	if err != nil {
		return nil, "", err
	}

	if err := e.store.ReplaceIf(ctx, updated, base); err != nil {
		return nil, "", err
	}
	return updated, Version(updated), nil
}

// Save replaces the whole document. With an empty expectedVersion the last
// write wins.
func (e *Editor) Save(ctx context.Context, expectedVersion string, doc *model.Document) (string, error) {
	if expectedVersion == "" {
		if err := e.store.Replace(ctx, doc); err != nil {
			return "", err
		}
	} else if err := e.store.ReplaceIf(ctx, doc, expectedVersion); err != nil {
		return "", err
	}
	return Version(doc), nil
}
