// Package localization provides the message catalogue used for
// notifications. Catalogues are JSON files named by language code
// (e.g. "en.json"); English is the fallback.
package localization

import (
	"embed"
	"encoding/json"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

//go:embed locales/*.json
var builtin embed.FS

// DefaultLanguage is used when a key is missing in the requested language.
const DefaultLanguage = "en"

// Localizer manages the translations for the application.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// NewLocalizer loads every *.json catalogue at the root of fsys.
func NewLocalizer(fsys fs.FS) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]map[string]string),
	}

	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read localization directory")
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		lang := strings.TrimSuffix(file.Name(), ".json")
		data, err := fs.ReadFile(fsys, file.Name())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read localization file", goerr.V("file", file.Name()))
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, goerr.Wrap(err, "failed to parse localization file", goerr.V("file", file.Name()))
		}
		l.translations[lang] = translations
	}

	return l, nil
}

// NewBuiltinLocalizer loads the catalogues compiled into the binary.
func NewBuiltinLocalizer() (*Localizer, error) {
	sub, err := fs.Sub(builtin, "locales")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open builtin locales")
	}
	return NewLocalizer(sub)
}

// Load uses dir when set, otherwise the builtin catalogues.
func Load(dir string) (*Localizer, error) {
	if dir == "" {
		return NewBuiltinLocalizer()
	}
	return NewLocalizer(os.DirFS(dir))
}

// Languages lists the loaded language codes.
func (l *Localizer) Languages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	langs := make([]string, 0, len(l.translations))
	for lang := range l.translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// GetString returns the localized string for a given key and language.
// If the language or the key is not found, it returns the key itself as a fallback.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if langTranslations, ok := l.translations[lang]; ok {
		if value, ok := langTranslations[key]; ok {
			return value
		}
	}

	if lang != DefaultLanguage {
		if enTranslations, ok := l.translations[DefaultLanguage]; ok {
			if value, ok := enTranslations[key]; ok {
				return value
			}
		}
	}

	return key
}

// Format looks up key and substitutes {name} placeholders from args.
func (l *Localizer) Format(lang, key string, args map[string]string) string {
	s := l.GetString(lang, key)
	if len(args) == 0 {
		return s
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
