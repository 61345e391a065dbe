package report

import (
	"bytes"
	"encoding/json"
	"strconv"
)

type member struct {
	key   string
	value any
}

// object is a JSON object that keeps the insertion order of its members.
type object []member

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON emits
// {"<unix>": {"<dimension>": {"<category>": {"<key>": {"probes": n, "share": x}}}}}.
func (r Report) MarshalJSON() ([]byte, error) {
	windows := make(object, 0, len(r.Windows))
	for _, w := range r.Windows {
		dims := make(object, 0, len(w.Dimensions))
		for _, d := range w.Dimensions {
			cats := make(object, 0, len(d.Categories))
			for _, c := range d.Categories {
				entries := make(object, 0, len(c.Entries))
				for _, e := range c.Entries {
					entries = append(entries, member{key: e.Key, value: e.Metric})
				}
				cats = append(cats, member{key: c.Name, value: entries})
			}
			dims = append(dims, member{key: d.Name, value: cats})
		}
		windows = append(windows, member{key: strconv.FormatInt(w.Start.Unix(), 10), value: dims})
	}
	return json.Marshal(windows)
}
