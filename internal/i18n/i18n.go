// internal/i18n/i18n.go
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed locales/*.json
var localeFS embed.FS

type I18n struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
	defaultLang  string
}

var instance *I18n
var once sync.Once

var supportedLocales = []string{"en", "es"}

// Initialize loads the embedded message catalogs. An optional locales
// directory on disk overrides the embedded ones.
func Initialize() error {
	var err error
	once.Do(func() {
		instance = &I18n{
			translations: make(map[string]map[string]string),
			defaultLang:  "es",
		}
		err = instance.loadEmbedded()
	})
	return err
}

func (i *I18n) loadEmbedded() error {
	for _, lang := range supportedLocales {
		data, err := localeFS.ReadFile("locales/" + lang + ".json")
		if err != nil {
			return fmt.Errorf("failed to read embedded locale %s: %w", lang, err)
		}
		if err := i.setLocale(lang, data); err != nil {
			return err
		}
	}
	return nil
}

// LoadTranslations merges locale files from a directory over the embedded
// catalogs, so deployments can adjust copy without rebuilding.
func (i *I18n) LoadTranslations(localesPath string) error {
	for _, lang := range supportedLocales {
		filePath := filepath.Join(localesPath, lang+".json")
		data, err := os.ReadFile(filePath)
		if err != nil {
			continue // embedded catalog stays in effect
		}
		if err := i.setLocale(lang, data); err != nil {
			return fmt.Errorf("failed to load locale file %s: %w", filePath, err)
		}
	}
	return nil
}

func (i *I18n) setLocale(lang string, data []byte) error {
	var translations map[string]string
	if err := json.Unmarshal(data, &translations); err != nil {
		return fmt.Errorf("failed to unmarshal locale %s: %w", lang, err)
	}

	i.mu.Lock()
	i.translations[lang] = translations
	i.mu.Unlock()
	return nil
}

func (i *I18n) T(lang, key string, args ...interface{}) string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	lang = normalize(lang)

	// Try to get translation for requested language
	if translations, exists := i.translations[lang]; exists {
		if text, exists := translations[key]; exists {
			if len(args) > 0 {
				return fmt.Sprintf(text, args...)
			}
			return text
		}
	}

	// Fallback to default language
	if lang != i.defaultLang {
		if translations, exists := i.translations[i.defaultLang]; exists {
			if text, exists := translations[key]; exists {
				if len(args) > 0 {
					return fmt.Sprintf(text, args...)
				}
				return text
			}
		}
	}

	// Return key if no translation found
	return key
}

func normalize(lang string) string {
	lang = strings.ToLower(lang)
	if strings.HasPrefix(lang, "es") {
		return "es"
	}
	if strings.HasPrefix(lang, "en") {
		return "en"
	}
	return lang
}

// Global functions
func T(lang, key string, args ...interface{}) string {
	if instance != nil {
		return instance.T(lang, key, args...)
	}
	return key
}

func GetSupportedLanguages() []string {
	return append([]string(nil), supportedLocales...)
}
