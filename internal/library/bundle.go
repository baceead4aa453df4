package library

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/conorfennell/wordbook/internal/domain"
	"github.com/conorfennell/wordbook/internal/lexkey"
	"github.com/conorfennell/wordbook/internal/repository"
	"github.com/conorfennell/wordbook/internal/typejson"
)

// BundleFormat identifies export documents.
const BundleFormat = "wordbook-export"

// Bundle is the export document. Payload values are the encoded gateway
// values; Checksum covers them in key order.
type Bundle struct {
	Format   string        `json:"format"`
	Version  string        `json:"version"`
	Checksum string        `json:"checksum"`
	Payload  BundlePayload `json:"payload"`
}

type BundlePayload struct {
	Words     string `json:"words"`
	FreeSlots string `json:"free_slots"`
	POS       string `json:"POS"`
	Settings  string `json:"setting"`
}

func (p BundlePayload) checksum() string {
	return lexkey.Checksum(p.Words, p.FreeSlots, p.POS, p.Settings)
}

const bundleSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["format", "version", "checksum", "payload"],
  "properties": {
    "format": {"const": "wordbook-export"},
    "version": {"type": "string", "minLength": 1},
    "checksum": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
    "payload": {
      "type": "object",
      "required": ["words", "free_slots", "POS", "setting"],
      "properties": {
        "words": {"type": "string"},
        "free_slots": {"type": "string"},
        "POS": {"type": "string"},
        "setting": {"type": "string"}
      }
    }
  }
}`

var bundleSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(bundleSchemaJSON))
})

// Export encodes the whole library into a self-checking document.
func (l *Library) Export() (string, error) {
	values, err := l.snapshot()
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	payload := BundlePayload{
		Words:     values[KeyWords],
		FreeSlots: values[KeyFreeSlots],
		POS:       values[KeyPOS],
		Settings:  values[KeySettings],
	}
	b, err := json.MarshalIndent(Bundle{
		Format:   BundleFormat,
		Version:  Version,
		Checksum: payload.checksum(),
		Payload:  payload,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return string(b), nil
}

// Import replaces the library with an exported document. The document is
// checked against the bundle schema and its checksum, and every value is
// decoded, before anything changes.
func (l *Library) Import(text string) error {
	schema, err := bundleSchema()
	if err != nil {
		return fmt.Errorf("import: compile schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return fmt.Errorf("import: %w: %v", typejson.ErrMalformedState, err)
	}
	if !result.Valid() {
		verr := &domain.ValidationError{}
		for _, re := range result.Errors() {
			verr.Errors = append(verr.Errors, domain.FieldError{Field: re.Field(), Message: re.Description()})
		}
		return fmt.Errorf("import: %w", verr)
	}

	var bundle Bundle
	if err := json.Unmarshal([]byte(text), &bundle); err != nil {
		return fmt.Errorf("import: %w: %v", typejson.ErrMalformedState, err)
	}
	if got := bundle.Payload.checksum(); got != bundle.Checksum {
		return fmt.Errorf("import: %w: checksum mismatch", typejson.ErrMalformedState)
	}

	books, err := typejson.Decode[[]*WordBook](l.codec, bundle.Payload.Words)
	if err == nil {
		err = checkBooks(books)
	}
	if err != nil {
		return fmt.Errorf("import %s: %w", KeyWords, err)
	}
	free, err := typejson.Decode[map[string][]int](l.codec, bundle.Payload.FreeSlots)
	if err != nil {
		return fmt.Errorf("import %s: %w", KeyFreeSlots, err)
	}
	pos, err := typejson.Decode[[]string](l.codec, bundle.Payload.POS)
	if err != nil {
		return fmt.Errorf("import %s: %w", KeyPOS, err)
	}
	settings, err := typejson.Decode[*domain.Settings](l.codec, bundle.Payload.Settings)
	if err != nil {
		return fmt.Errorf("import %s: %w", KeySettings, err)
	}
	if settings == nil {
		return fmt.Errorf("import %s: %w: missing", KeySettings, typejson.ErrMalformedState)
	}
	if err := domain.Validate(settings); err != nil {
		return fmt.Errorf("import %s: %w", KeySettings, err)
	}

	return l.change(func() error {
		l.settings = *settings
		l.pos = pos
		l.books = nil
		for _, wb := range books {
			if wb == nil || wb.Name == "" {
				continue
			}
			if _, dup := l.book(wb.Name); dup {
				continue
			}
			l.books = append(l.books, repository.Restore(wb.Name, wb.Words, free[wb.Name], l.repoOptions()...))
		}
		l.ensureBook(l.settings.ActiveBookName)
		l.log.Info("library imported", "books", len(l.books), "version", bundle.Version)
		return nil
	})
}
