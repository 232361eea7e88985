// Package catalog reads and edits AltStore-style source documents
// (apps.json) without disturbing keys it does not know about.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	ErrMalformed = errors.New("catalog is not valid JSON")
	ErrSchema    = errors.New("catalog does not have the expected shape")
)

const (
	keyApps             = "apps"
	keyFeaturedApps     = "featuredApps"
	keyNews             = "news"
	keyBundleIdentifier = "bundleIdentifier"
	keyVersions         = "versions"
)

// object is a JSON object whose member order survives a round trip
type object = orderedmap.OrderedMap[string, json.RawMessage]

// Version is one installable version of an app
type Version struct {
	Version              string `json:"version"`
	Date                 string `json:"date"`
	LocalizedDescription string `json:"localizedDescription"`
	DownloadURL          string `json:"downloadURL"`
	Size                 int64  `json:"size"`
	MinOSVersion         string `json:"minOSVersion"`
}

// NewsItem is an entry of the source's news feed
type NewsItem struct {
	AppID      string `json:"appID"`
	Caption    string `json:"caption"`
	Date       string `json:"date"`
	Identifier string `json:"identifier"`
	Notify     bool   `json:"notify"`
	TintColor  string `json:"tintColor"`
	Title      string `json:"title"`
	URL        string `json:"url"`
}

// Document is a parsed catalog. Apps are decoded on first access; untouched
// apps are written back exactly as read.
type Document struct {
	root *object
	apps []json.RawMessage
	open map[int]*App
}

// Parse decodes a catalog and checks that it holds a non-empty apps list.
func Parse(data []byte) (*Document, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: top level is not an object", ErrSchema)
	}

	root := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	rawApps, ok := root.Get(keyApps)
	if !ok {
		return nil, fmt.Errorf("%w: there is no %q key", ErrSchema, keyApps)
	}
	var apps []json.RawMessage
	if err := json.Unmarshal(rawApps, &apps); err != nil {
		return nil, fmt.Errorf("%w: %q is not a list", ErrSchema, keyApps)
	}
	if len(apps) == 0 {
		return nil, fmt.Errorf("%w: there is no data for the %q key", ErrSchema, keyApps)
	}

	return &Document{root: root, apps: apps, open: map[int]*App{}}, nil
}

// AppCount returns the number of entries in the apps list
func (d *Document) AppCount() int {
	return len(d.apps)
}

// App returns the app at index.
func (d *Document) App(index int) (*App, error) {
	if index < 0 || index >= len(d.apps) {
		return nil, fmt.Errorf("%w: no app at index %d (catalog has %d)", ErrSchema, index, len(d.apps))
	}
	if app, ok := d.open[index]; ok {
		return app, nil
	}

	fields, err := decodeObject(d.apps[index])
	if err != nil {
		return nil, fmt.Errorf("%w: app %d: %w", ErrSchema, index, err)
	}
	app := &App{fields: fields}
	d.open[index] = app
	return app, nil
}

// FindApp returns the first app whose bundle identifier is bundleID
func (d *Document) FindApp(bundleID string) (*App, int, error) {
	for i := range d.apps {
		app, err := d.App(i)
		if err != nil {
			continue
		}
		if app.BundleIdentifier() == bundleID {
			return app, i, nil
		}
	}
	return nil, -1, fmt.Errorf("%w: no app with bundle identifier %q", ErrSchema, bundleID)
}

// FeaturedApps returns the featured bundle identifiers, if any
func (d *Document) FeaturedApps() []string {
	var ids []string
	if raw, ok := d.root.Get(keyFeaturedApps); ok {
		_ = json.Unmarshal(raw, &ids)
	}
	return ids
}

func (d *Document) SetFeaturedApps(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return setValue(d.root, keyFeaturedApps, ids)
}

// HasNews reports whether a news item with identifier exists
func (d *Document) HasNews(identifier string) (bool, error) {
	items, err := rawList(d.root, keyNews)
	if err != nil {
		return false, err
	}
	for _, raw := range items {
		var item struct {
			Identifier string `json:"identifier"`
		}
		if json.Unmarshal(raw, &item) == nil && item.Identifier == identifier {
			return true, nil
		}
	}
	return false, nil
}

// PrependNews inserts item at the head of the news list, creating the list
// when the document has none.
func (d *Document) PrependNews(item NewsItem) error {
	return prependValue(d.root, keyNews, item)
}

// Marshal encodes the document with two-space indentation and a trailing
// newline.
func (d *Document) Marshal() ([]byte, error) {
	apps := make([]json.RawMessage, len(d.apps))
	copy(apps, d.apps)
	for i, app := range d.open {
		raw, err := encodeObject(app.fields)
		if err != nil {
			return nil, fmt.Errorf("failed to encode app %d: %w", i, err)
		}
		apps[i] = raw
	}
	d.root.Set(keyApps, encodeList(apps))

	compact, err := encodeObject(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent catalog: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// encodeObject writes obj with every member value copied verbatim.
func encodeObject(obj *object) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := marshalValue(pair.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(pair.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeList(items []json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(item)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// marshalValue encodes v without escaping <, > and &, so new values read the
// same way as the hand-edited ones around them.
func marshalValue(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func decodeObject(raw json.RawMessage) (*object, error) {
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '{' {
		return nil, errors.New("not an object")
	}
	obj := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func setValue(obj *object, key string, v any) error {
	raw, err := marshalValue(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	obj.Set(key, raw)
	return nil
}

// rawList returns the list stored under key; a missing key or null is an
// empty list.
func rawList(obj *object, key string) ([]json.RawMessage, error) {
	raw, ok := obj.Get(key)
	if !ok {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q is not a list", ErrSchema, key)
	}
	return items, nil
}

func prependValue(obj *object, key string, v any) error {
	items, err := rawList(obj, key)
	if err != nil {
		return err
	}
	raw, err := marshalValue(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q entry: %w", key, err)
	}
	obj.Set(key, encodeList(append([]json.RawMessage{raw}, items...)))
	return nil
}
