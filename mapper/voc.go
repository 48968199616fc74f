package mapper

import (
	"fmt"
	"strconv"

	"github.com/clbanning/mxj/v2"
)

// Record is the flattened form of a PASCAL-VOC style annotation file, the
// JSON schema consumed by the image mapper.
type Record struct {
	FileName string   `json:"filename"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Objects  []Object `json:"objects"`
}

// Object is a single labeled region inside a record, carried as corner
// coordinates the way VOC annotation files store them.
type Object struct {
	Name string  `json:"name"`
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// RecordFromXML flattens a VOC annotation document into a Record.
func RecordFromXML(data []byte) (Record, error) {
	m, err := mxj.NewMapXml(data, true)
	if err != nil {
		return Record{}, fmt.Errorf("parse annotation xml: %w", err)
	}
	var rec Record
	if v, err := m.ValueForPath("annotation.filename"); err == nil {
		rec.FileName, _ = v.(string)
	}
	if rec.Width, err = floatForPath(m, "annotation.size.width"); err != nil {
		return Record{}, err
	}
	if rec.Height, err = floatForPath(m, "annotation.size.height"); err != nil {
		return Record{}, err
	}
	objects, err := m.ValuesForPath("annotation.object")
	if err != nil {
		return Record{}, fmt.Errorf("read annotation objects: %w", err)
	}
	for _, raw := range objects {
		obj, ok := raw.(map[string]any)
		if !ok {
			return Record{}, fmt.Errorf("annotation object has unexpected shape %T", raw)
		}
		parsed, err := objectFromMap(obj)
		if err != nil {
			return Record{}, err
		}
		rec.Objects = append(rec.Objects, parsed)
	}
	return rec, nil
}

func objectFromMap(obj map[string]any) (Object, error) {
	name, _ := obj["name"].(string)
	box, ok := obj["bndbox"].(map[string]any)
	if !ok {
		return Object{}, fmt.Errorf("object %q has no bndbox element", name)
	}
	out := Object{Name: name}
	var err error
	if out.XMin, err = coerceFloat(box["xmin"]); err != nil {
		return Object{}, fmt.Errorf("object %q xmin: %w", name, err)
	}
	if out.YMin, err = coerceFloat(box["ymin"]); err != nil {
		return Object{}, fmt.Errorf("object %q ymin: %w", name, err)
	}
	if out.XMax, err = coerceFloat(box["xmax"]); err != nil {
		return Object{}, fmt.Errorf("object %q xmax: %w", name, err)
	}
	if out.YMax, err = coerceFloat(box["ymax"]); err != nil {
		return Object{}, fmt.Errorf("object %q ymax: %w", name, err)
	}
	return out, nil
}

func floatForPath(m mxj.Map, path string) (float64, error) {
	v, err := m.ValueForPath(path)
	if err != nil {
		return 0, fmt.Errorf("missing %s: %w", path, err)
	}
	f, err := coerceFloat(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func coerceFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case bool:
		return 0, fmt.Errorf("expected number, got bool")
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
