package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Unset marks a settings field that has not been configured yet
const Unset = "None"

// Keys of the persisted settings object
const (
	KeyBrokerIP     = "Broker IP"
	KeyPort         = "Port"
	KeyUsername     = "Username"
	KeyPassword     = "Password"
	KeyQoS          = "QoS"
	KeyRetain       = "Retain"
	KeyCleanSession = "Clean Session"
	KeyTopic        = "Topic"
)

var settingsKeys = []string{
	KeyBrokerIP, KeyPort, KeyUsername, KeyPassword,
	KeyQoS, KeyRetain, KeyCleanSession, KeyTopic,
}

// SettingsKeys returns the persisted keys in display order
func SettingsKeys() []string {
	return append([]string(nil), settingsKeys...)
}

var (
	ErrMissingKey   = errors.New("missing settings key")
	ErrInvalidValue = errors.New("invalid settings value")
)

// Settings is the flat broker configuration record. Every field is kept as text
// so that unset values round-trip as the Unset sentinel.
type Settings struct {
	BrokerIP     string
	Port         string
	Username     string
	Password     string
	QoS          string
	Retain       string
	CleanSession string
	Topic        string
}

// DefaultSettings returns a record with every field unset
func DefaultSettings() Settings {
	return Settings{
		BrokerIP:     Unset,
		Port:         Unset,
		Username:     Unset,
		Password:     Unset,
		QoS:          Unset,
		Retain:       Unset,
		CleanSession: Unset,
		Topic:        Unset,
	}
}

// PortNumber returns the broker port, ok is false while unset
func (s Settings) PortNumber() (int, bool) {
	if IsUnset(s.Port) {
		return 0, false
	}
	port, err := parsePort(s.Port)
	if err != nil {
		return 0, false
	}
	return port, true
}

// QoSLevel returns the publish QoS, ok is false while unset
func (s Settings) QoSLevel() (byte, bool) {
	if IsUnset(s.QoS) {
		return 0, false
	}
	qos, err := ParseQoS(s.QoS)
	if err != nil {
		return 0, false
	}
	return qos, true
}

// RetainFlag returns the retain flag, ok is false while unset
func (s Settings) RetainFlag() (bool, bool) {
	return flagValue(s.Retain)
}

// CleanSessionFlag returns the clean session flag, ok is false while unset
func (s Settings) CleanSessionFlag() (bool, bool) {
	return flagValue(s.CleanSession)
}

func (s Settings) toMap() map[string]string {
	return map[string]string{
		KeyBrokerIP:     s.BrokerIP,
		KeyPort:         s.Port,
		KeyUsername:     s.Username,
		KeyPassword:     s.Password,
		KeyQoS:          s.QoS,
		KeyRetain:       s.Retain,
		KeyCleanSession: s.CleanSession,
		KeyTopic:        s.Topic,
	}
}

func settingsFromMap(values map[string]string) (Settings, error) {
	for _, key := range settingsKeys {
		if _, ok := values[key]; !ok {
			return Settings{}, fmt.Errorf("%w: %q", ErrMissingKey, key)
		}
	}

	s := Settings{
		BrokerIP:     values[KeyBrokerIP],
		Port:         values[KeyPort],
		Username:     values[KeyUsername],
		Password:     values[KeyPassword],
		QoS:          values[KeyQoS],
		Retain:       values[KeyRetain],
		CleanSession: values[KeyCleanSession],
		Topic:        values[KeyTopic],
	}

	if !IsUnset(s.Port) {
		if _, err := parsePort(s.Port); err != nil {
			return Settings{}, err
		}
	}
	if !IsUnset(s.QoS) {
		if _, err := ParseQoS(s.QoS); err != nil {
			return Settings{}, err
		}
	}
	var err error
	if s.Retain, err = normaliseFlag(s.Retain); err != nil {
		return Settings{}, err
	}
	if s.CleanSession, err = normaliseFlag(s.CleanSession); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// IsUnset reports whether a field still holds the Unset sentinel
func IsUnset(value string) bool {
	return value == Unset
}

// ParseQoS accepts the three MQTT quality-of-service levels
func ParseQoS(text string) (byte, error) {
	qos, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || qos < 0 || qos > 2 {
		return 0, fmt.Errorf("%w: QoS must be 0, 1 or 2, got %q", ErrInvalidValue, text)
	}
	return byte(qos), nil
}

// ParseFlag accepts boolean literals such as True/False
func ParseFlag(text string) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(text))
	if err != nil {
		return false, fmt.Errorf("%w: expected True or False, got %q", ErrInvalidValue, text)
	}
	return v, nil
}

// FormatFlag renders a flag the way the settings file stores it
func FormatFlag(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func parsePort(text string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w: port must be a number between 1 and 65535, got %q", ErrInvalidValue, text)
	}
	return port, nil
}

func flagValue(text string) (bool, bool) {
	if IsUnset(text) {
		return false, false
	}
	v, err := ParseFlag(text)
	if err != nil {
		return false, false
	}
	return v, true
}

func normaliseFlag(text string) (string, error) {
	if IsUnset(text) {
		return text, nil
	}
	v, err := ParseFlag(text)
	if err != nil {
		return "", err
	}
	return FormatFlag(v), nil
}

// SettingsSnapshot is a point-in-time copy used to refresh the configuration view
type SettingsSnapshot struct {
	Settings Settings
	ClientID string
}

// SettingsRepository holds the configuration currently shown in the UI
type SettingsRepository struct {
	mu        sync.RWMutex
	settings  Settings
	clientID  string
	generator func() string
}

// NewSettingsRepository creates a repository with every field unset. The generator
// produces client identifiers on demand.
func NewSettingsRepository(generator func() string) *SettingsRepository {
	return &SettingsRepository{
		settings:  DefaultSettings(),
		clientID:  Unset,
		generator: generator,
	}
}

func (r *SettingsRepository) SetBrokerIP(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.BrokerIP = text
}

func (r *SettingsRepository) SetPort(text string) error {
	port, err := parsePort(text)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.Port = strconv.Itoa(port)
	return nil
}

func (r *SettingsRepository) SetUsername(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.Username = text
}

func (r *SettingsRepository) SetPassword(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.Password = text
}

func (r *SettingsRepository) SetQoS(text string) error {
	qos, err := ParseQoS(text)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.QoS = strconv.Itoa(int(qos))
	return nil
}

func (r *SettingsRepository) SetRetain(text string) error {
	v, err := ParseFlag(text)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.Retain = FormatFlag(v)
	return nil
}

func (r *SettingsRepository) SetCleanSession(text string) error {
	v, err := ParseFlag(text)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.CleanSession = FormatFlag(v)
	return nil
}

func (r *SettingsRepository) SetTopic(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.Topic = text
}

// GenerateClientID replaces the client identifier and returns the new value
func (r *SettingsRepository) GenerateClientID() string {
	id := r.generator()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.clientID = id
	return id
}

// Reset returns every field, including the client identifier, to Unset
func (r *SettingsRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = DefaultSettings()
	r.clientID = Unset
}

func (r *SettingsRepository) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

func (r *SettingsRepository) ClientID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clientID
}

func (r *SettingsRepository) Snapshot() SettingsSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return SettingsSnapshot{Settings: r.settings, ClientID: r.clientID}
}

// Save writes the eight settings keys as a JSON object. The client identifier is
// not part of the file.
func (r *SettingsRepository) Save(w io.Writer) error {
	values := r.Settings().toMap()

	if err := json.NewEncoder(w).Encode(values); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return nil
}

// Load replaces the current settings with the ones decoded from r. The record is
// left untouched when the document is incomplete or holds invalid values.
func (r *SettingsRepository) Load(reader io.Reader) error {
	var values map[string]string
	if err := json.NewDecoder(reader).Decode(&values); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}

	settings, err := settingsFromMap(values)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = settings
	return nil
}
