package convert

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yourorg/oas2postman/internal/openapi"
	"github.com/yourorg/oas2postman/internal/postman"
)

// Defaults written into the collection.
const (
	uncategorizedFolder = "uncategorized"
	defaultName         = "API Collection"
	baseURLVariable     = "baseUrl"
)

// stableNamespace seeds version 5 collection ids.
var stableNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://schema.getpostman.com/collection"))

// Converter turns OpenAPI documents into Postman collections.
type Converter struct {
	baseURL      string
	logger       *slog.Logger
	collectionID string
	stableID     bool
	exporterID   string
	filter       OperationFilter
	redactor     Redactor
}

// New returns a Converter configured by opts.
func New(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stats counts what a conversion produced.
type Stats struct {
	Folders int `json:"folders"`
	// Requests is the number of converted operations.
	Requests int `json:"requests"`
	// Items counts placements; an operation with two tags counts twice.
	Items   int `json:"items"`
	Skipped int `json:"skipped"`
}

// Result is the outcome of a successful conversion.
type Result struct {
	Collection *postman.Collection
	BaseURL    string
	Warnings   []string
	Stats      Stats
}

// Convert builds the collection for doc. A document missing openapi, info
// or paths fails with a MissingFieldError and produces nothing. A version
// other than 3.0.3 is reported in Result.Warnings.
func (c *Converter) Convert(doc *openapi.Document) (*Result, error) {
	if err := openapi.CheckRequired(doc); err != nil {
		return nil, err
	}
	res := &Result{}
	if err := openapi.CheckVersion(doc); err != nil {
		var vm *openapi.VersionMismatchError
		if errors.As(err, &vm) {
			c.warn("unexpected openapi version", "found", vm.Found, "expected", vm.Expected)
		}
		res.Warnings = append(res.Warnings, err.Error())
	}

	base := resolveBaseURL(c.baseURL, doc.Servers)
	gen := NewGenerator(doc.Components, c.redactor, c.logger)
	folders := newFolderSet(doc.Tags)

	for _, pi := range doc.Paths.Items {
		for _, op := range pi.Operations {
			if !openapi.IsMethod(op.Method) {
				continue
			}
			if c.filter != nil && !c.filter.Allow(pi.Path, op) {
				res.Stats.Skipped++
				c.debug("operation skipped by filter", "method", op.Method, "path", pi.Path)
				continue
			}
			item := BuildItem(gen, pi.Path, op, pi.Parameters, base)
			res.Stats.Requests++
			for _, tag := range operationTags(op) {
				folders.add(tag, item.Clone())
				res.Stats.Items++
			}
		}
	}

	col := &postman.Collection{
		Info:     c.info(doc.Info),
		Item:     folders.emit(),
		Variable: []postman.Variable{{Key: baseURLVariable, Value: base, Type: "string"}},
	}
	res.Collection = col
	res.BaseURL = base
	res.Stats.Folders = len(col.Item)
	c.debug("conversion finished", "folders", res.Stats.Folders, "requests", res.Stats.Requests, "items", res.Stats.Items, "skipped", res.Stats.Skipped)
	return res, nil
}

func (c *Converter) info(in *openapi.Info) postman.Info {
	info := postman.Info{
		Name:        in.Title,
		Description: in.Description,
		Schema:      postman.SchemaURL,
		ExporterID:  c.exporterID,
	}
	if info.Name == "" {
		info.Name = defaultName
	}
	switch {
	case c.collectionID != "":
		info.PostmanID = c.collectionID
	case c.stableID:
		info.PostmanID = uuid.NewSHA1(stableNamespace, []byte(in.Title+"\x00"+in.Version)).String()
	default:
		info.PostmanID = uuid.NewString()
	}
	return info
}

// operationTags returns the folders an operation is filed under. Repeated
// tags file it once.
func operationTags(op *openapi.Operation) []string {
	var tags []string
	seen := map[string]bool{}
	for _, t := range op.Tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	if len(tags) == 0 {
		return []string{uncategorizedFolder}
	}
	return tags
}

// folderSet keeps folders in creation order: declared tags first, then
// tags as they are first seen.
type folderSet struct {
	order []*postman.Folder
	byTag map[string]*postman.Folder
}

func newFolderSet(declared []openapi.Tag) *folderSet {
	fs := &folderSet{byTag: make(map[string]*postman.Folder, len(declared))}
	for _, t := range declared {
		if _, ok := fs.byTag[t.Name]; ok {
			continue
		}
		fs.create(t.Name, t.Description)
	}
	return fs
}

func (fs *folderSet) create(name, description string) *postman.Folder {
	f := &postman.Folder{Name: name, Description: description, Item: []postman.Item{}}
	fs.byTag[name] = f
	fs.order = append(fs.order, f)
	return f
}

func (fs *folderSet) add(tag string, item postman.Item) {
	f, ok := fs.byTag[tag]
	if !ok {
		f = fs.create(tag, "")
	}
	f.Item = append(f.Item, item)
}

// emit returns the non-empty folders.
func (fs *folderSet) emit() []postman.Folder {
	out := []postman.Folder{}
	for _, f := range fs.order {
		if len(f.Item) > 0 {
			out = append(out, *f)
		}
	}
	return out
}

func (c *Converter) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Converter) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
