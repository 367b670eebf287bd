package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
)

var (
	// ErrInvalidSettingsField is returned when a known settings field has the wrong type or value.
	ErrInvalidSettingsField = errors.New("invalid settings field")

	// ErrSettingsNotObject is returned when a settings document is JSON null.
	ErrSettingsNotObject = errors.New("settings document must be a JSON object")
)

// Field names of the settings document.
const (
	FieldUserID          = "userId"
	FieldTheme           = "theme"
	FieldLanguage        = "language"
	FieldTimezone        = "timezone"
	FieldNotifications   = "notifications"
	FieldDigestFrequency = "digestFrequency"
)

// Limits on the extension map of a single payload.
const (
	MaxExtensionKeys   = 64
	MaxExtensionKeyLen = 64
)

// Preferences is the body of a settings document: the known fields plus any
// extension keys. A nil field is absent, which in a patch means "leave as is".
type Preferences struct {
	Theme           *string `binding:"omitnil,oneof=light dark system"`
	Language        *string
	Timezone        *string `binding:"omitnil,min=1"`
	Notifications   *bool
	DigestFrequency *string `binding:"omitnil,oneof=off daily weekly"`

	// Extensions holds every other top-level key verbatim.
	Extensions map[string]json.RawMessage `binding:"max=64,dive,keys,min=1,max=64,endkeys"`
}

// UserSettings is the per-user settings record.
type UserSettings struct {
	UserID      string
	Preferences Preferences
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Keys returns the names of all present fields, sorted.
func (p Preferences) Keys() []string {
	fields, _ := p.fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate runs the binding tags on p, then checks language and timezone
// values the tags cannot express.
func (p Preferences) Validate() error {
	if err := binding.Validator.ValidateStruct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidSettingsField, describeFieldError(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrInvalidSettingsField, err)
	}
	if p.Language != nil {
		if _, err := language.Parse(*p.Language); err != nil {
			return fmt.Errorf("%w: %s %q is not a valid language tag", ErrInvalidSettingsField, FieldLanguage, *p.Language)
		}
	}
	if p.Timezone != nil {
		if _, err := time.LoadLocation(*p.Timezone); err != nil {
			return fmt.Errorf("%w: %s %q is not a known time zone", ErrInvalidSettingsField, FieldTimezone, *p.Timezone)
		}
	}
	return nil
}

var documentFieldNames = map[string]string{
	"Theme":           FieldTheme,
	"Language":        FieldLanguage,
	"Timezone":        FieldTimezone,
	"Notifications":   FieldNotifications,
	"DigestFrequency": FieldDigestFrequency,
}

// describeFieldError turns a validator error into the client-facing detail.
func describeFieldError(fe validator.FieldError) string {
	if strings.HasPrefix(fe.StructField(), "Extensions") {
		if fe.StructField() == "Extensions" {
			return fmt.Sprintf("at most %d custom fields are allowed", MaxExtensionKeys)
		}
		return fmt.Sprintf("custom field names must be 1 to %d characters", MaxExtensionKeyLen)
	}

	name, ok := documentFieldNames[fe.StructField()]
	if !ok {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("%s must not be empty", name)
	default:
		return fmt.Sprintf("%s failed the %s check", name, fe.Tag())
	}
}

// Normalize canonicalises values that have more than one spelling, such as
// language tags ("EN-us" becomes "en-US"). Call it after Validate.
func (p *Preferences) Normalize() {
	if p.Language != nil {
		if tag, err := language.Parse(*p.Language); err == nil {
			s := tag.String()
			p.Language = &s
		}
	}
}

func (p Preferences) fields() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(p.Extensions)+5)
	for k, v := range p.Extensions {
		out[k] = v
	}
	put := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out[key] = raw
		return nil
	}
	if p.Theme != nil {
		if err := put(FieldTheme, *p.Theme); err != nil {
			return nil, err
		}
	}
	if p.Language != nil {
		if err := put(FieldLanguage, *p.Language); err != nil {
			return nil, err
		}
	}
	if p.Timezone != nil {
		if err := put(FieldTimezone, *p.Timezone); err != nil {
			return nil, err
		}
	}
	if p.Notifications != nil {
		if err := put(FieldNotifications, *p.Notifications); err != nil {
			return nil, err
		}
	}
	if p.DigestFrequency != nil {
		if err := put(FieldDigestFrequency, *p.DigestFrequency); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MarshalJSON writes the flat document form, known fields and extensions side by side.
func (p Preferences) MarshalJSON() ([]byte, error) {
	fields, err := p.fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// UnmarshalJSON accepts a JSON object. Known keys are decoded into typed
// fields and rejected with ErrInvalidSettingsField on a type mismatch or null;
// the reserved userId key is dropped; every other key lands in Extensions.
func (p *Preferences) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return ErrSettingsNotObject
	}

	*p = Preferences{}
	for key, value := range raw {
		var err error
		switch key {
		case FieldUserID:
			continue
		case FieldTheme:
			p.Theme, err = decodeField[string](key, value)
		case FieldLanguage:
			p.Language, err = decodeField[string](key, value)
		case FieldTimezone:
			p.Timezone, err = decodeField[string](key, value)
		case FieldNotifications:
			p.Notifications, err = decodeField[bool](key, value)
		case FieldDigestFrequency:
			p.DigestFrequency, err = decodeField[string](key, value)
		default:
			if p.Extensions == nil {
				p.Extensions = make(map[string]json.RawMessage)
			}
			p.Extensions[key] = append(json.RawMessage(nil), value...)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeField[T any](key string, value json.RawMessage) (*T, error) {
	if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return nil, fmt.Errorf("%w: %s must not be null", ErrInvalidSettingsField, key)
	}
	var v T
	if err := json.Unmarshal(value, &v); err != nil {
		return nil, fmt.Errorf("%w: %s has the wrong type", ErrInvalidSettingsField, key)
	}
	return &v, nil
}

// MarshalJSON writes {"userId": ..., <preferences>}.
func (s UserSettings) MarshalJSON() ([]byte, error) {
	fields, err := s.Preferences.fields()
	if err != nil {
		return nil, err
	}
	userID, err := json.Marshal(s.UserID)
	if err != nil {
		return nil, err
	}
	fields[FieldUserID] = userID
	return json.Marshal(fields)
}
