package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"weather-cli/providers"
)

const (
	KeyProvider = "provider"
	KeyAPIKey   = "api_key"
)

var (
	ErrNotConfigured    = errors.New("no provider configured; run `weather configure <PROVIDER>` first")
	ErrMissingKey       = errors.New("missing configuration key")
	ErrInvalidSelection = errors.New("invalid provider selection")
)

// Selection is the persisted provider choice.
type Selection struct {
	Provider string `name:"provider" validate:"required,provider"`
	APIKey   string `name:"api_key"  validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("name")
	})
	v.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		_, err := providers.ParseKind(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks the selection against the known provider identifiers.
func (s Selection) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "provider":
			msgs = append(msgs, fmt.Sprintf("unknown provider %q (known: %s)", fe.Value(), knownProviders()))
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		default:
			msgs = append(msgs, fe.Error())
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidSelection, strings.Join(msgs, "; "))
}

func knownProviders() string {
	kinds := providers.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// FileStore keeps the selection in a dotenv formatted file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) read() (map[string]string, error) {
	values, err := godotenv.Read(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return values, nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) (string, error) {
	values, err := s.read()
	if err != nil {
		return "", err
	}
	v := values[key]
	if v == "" {
		return "", fmt.Errorf("%w %q in %s", ErrMissingKey, key, s.path)
	}
	return v, nil
}

// Load returns the stored selection. Both keys are required.
func (s *FileStore) Load() (Selection, error) {
	provider, err := s.Get(KeyProvider)
	if err != nil {
		return Selection{}, err
	}
	apiKey, err := s.Get(KeyAPIKey)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Provider: provider, APIKey: apiKey}, nil
}

// Save validates sel and persists it. The provider identifier is stored
// lowercased. Nothing is written when validation fails.
func (s *FileStore) Save(sel Selection) error {
	sel.Provider = strings.ToLower(sel.Provider)
	if err := sel.Validate(); err != nil {
		return err
	}

	values := map[string]string{
		KeyProvider: sel.Provider,
		KeyAPIKey:   sel.APIKey,
	}
	content := marshalQuoted(values)

	parsed, err := godotenv.Unmarshal(content)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	for k, v := range values {
		if parsed[k] != v {
			return fmt.Errorf("%w: %s cannot be stored unchanged", ErrInvalidSelection, k)
		}
	}

	if err := os.WriteFile(s.path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// doubleQuoteEscaper escapes the characters godotenv treats specially
// inside double quotes.
var doubleQuoteEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	`"`, `\"`,
	`!`, `\!`,
	`$`, `\$`,
	"`", "\\`",
)

// marshalQuoted renders values as sorted KEY="value" lines. godotenv.Marshal
// writes digit-only values unquoted as integers, dropping leading zeros.
func marshalQuoted(values map[string]string) string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(values)) {
		fmt.Fprintf(&b, "%s=\"%s\"\n", k, doubleQuoteEscaper.Replace(values[k]))
	}
	return b.String()
}
